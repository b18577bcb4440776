package model

// WebVital is one PerformanceObserver entry posted by the browser.
type WebVital struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Page   string  `json:"page"`
	Rating string  `json:"rating"`
}
