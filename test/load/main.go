package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Scenarios:
//
//	beacon    POST /api/analytics/performance, no auth
//	services  GET  /api/services, bearer token from LOGIN_USER/LOGIN_PASSWORD
//	parts     GET  /api/spare-parts?q=..., same token
type LoadTestConfig struct {
	BaseURL           string
	Scenario          string
	RequestsPerSecond int
	DurationSeconds   int
	ConcurrentWorkers int
	Username          string
	Password          string
	Query             string
}

type Stats struct {
	successCount  atomic.Int64
	errorCount    atomic.Int64
	responseTimes []float64
	mu            sync.Mutex
}

func (s *Stats) addResponseTime(duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseTimes = append(s.responseTimes, duration)
}

func (s *Stats) getResponseTimes() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	times := make([]float64, len(s.responseTimes))
	copy(times, s.responseTimes)
	return times
}

type request struct {
	method string
	url    string
	body   []byte
	token  string
}

func buildRequest(client *http.Client, config LoadTestConfig) (request, error) {
	base := strings.TrimRight(config.BaseURL, "/")
	switch config.Scenario {
	case "beacon":
		body, err := json.Marshal([]map[string]any{
			{"name": "LCP", "value": 1830.5, "page": "/services"},
			{"name": "CLS", "value": 0.04, "page": "/services"},
		})
		return request{method: http.MethodPost, url: base + "/api/analytics/performance", body: body}, err
	case "services", "parts":
		token, err := login(client, base, config.Username, config.Password)
		if err != nil {
			return request{}, err
		}
		url := base + "/api/services?limit=20"
		if config.Scenario == "parts" {
			url = base + "/api/spare-parts?limit=20&q=" + config.Query
		}
		return request{method: http.MethodGet, url: url, token: token}, nil
	default:
		return request{}, fmt.Errorf("unknown scenario %q", config.Scenario)
	}
}

func login(client *http.Client, base, username, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := client.Post(base+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login answered %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func sendRequest(client *http.Client, r request, stats *Stats) {
	start := time.Now()

	req, err := http.NewRequest(r.method, r.url, bytes.NewReader(r.body))
	if err != nil {
		stats.errorCount.Add(1)
		return
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := client.Do(req)
	if err != nil {
		stats.errorCount.Add(1)
		stats.addResponseTime(time.Since(start).Seconds())
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	stats.addResponseTime(time.Since(start).Seconds())
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		stats.successCount.Add(1)
	} else {
		stats.errorCount.Add(1)
	}
}

func worker(client *http.Client, r request, stats *Stats, jobs <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	for range jobs {
		sendRequest(client, r, stats)
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func main() {
	config := LoadTestConfig{
		BaseURL:           getEnvOrDefault("TARGET_URL", "http://localhost:8080"),
		Scenario:          getEnvOrDefault("SCENARIO", "beacon"),
		RequestsPerSecond: getEnvIntOrDefault("REQUESTS_PER_SECOND", 500),
		DurationSeconds:   getEnvIntOrDefault("DURATION_SECONDS", 30),
		ConcurrentWorkers: getEnvIntOrDefault("CONCURRENT_WORKERS", 100),
		Username:          getEnvOrDefault("LOGIN_USER", "admin"),
		Password:          os.Getenv("LOGIN_PASSWORD"),
		Query:             getEnvOrDefault("QUERY", "pump"),
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        config.ConcurrentWorkers,
			MaxIdleConnsPerHost: config.ConcurrentWorkers,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 60 * time.Second,
	}

	r, err := buildRequest(client, config)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setup failed:", err)
		os.Exit(1)
	}

	fmt.Println("Starting load test...")
	fmt.Printf("Scenario: %s %s\n", config.Scenario, r.url)
	fmt.Printf("Target RPS: %d for %d seconds, %d workers\n", config.RequestsPerSecond, config.DurationSeconds, config.ConcurrentWorkers)
	fmt.Println(strings.Repeat("-", 50))

	stats := &Stats{}
	jobs := make(chan struct{}, config.RequestsPerSecond)

	var wg sync.WaitGroup
	for i := 0; i < config.ConcurrentWorkers; i++ {
		wg.Add(1)
		go worker(client, r, stats, jobs, &wg)
	}

	startTime := time.Now()
	for i := 0; i < config.DurationSeconds; i++ {
		batchStart := time.Now()
		for j := 0; j < config.RequestsPerSecond; j++ {
			jobs <- struct{}{}
		}

		success := stats.successCount.Load()
		errors := stats.errorCount.Load()
		fmt.Printf("[%ds] Completed: %d | Success: %d | Errors: %d\n", i+1, success+errors, success, errors)

		if elapsed := time.Since(batchStart); elapsed < time.Second {
			time.Sleep(time.Second - elapsed)
		}
	}
	close(jobs)
	wg.Wait()

	duration := time.Since(startTime).Seconds()
	success := stats.successCount.Load()
	errors := stats.errorCount.Load()
	total := success + errors

	times := stats.getResponseTimes()
	sort.Float64s(times)
	var avg float64
	for _, t := range times {
		avg += t
	}
	if len(times) > 0 {
		avg /= float64(len(times))
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("LOAD TEST RESULTS")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Duration: %.2f seconds\n", duration)
	fmt.Printf("Total requests: %d\n", total)
	fmt.Printf("Successful: %d\n", success)
	fmt.Printf("Failed: %d\n", errors)
	if total > 0 {
		fmt.Printf("Success rate: %.2f%%\n", float64(success)/float64(total)*100)
	}
	fmt.Printf("\nActual RPS: %.2f\n", float64(total)/duration)
	fmt.Printf("\nResponse times:\n")
	fmt.Printf("  Average: %.2f ms\n", avg*1000)
	fmt.Printf("  P50: %.2f ms\n", percentile(times, 0.50)*1000)
	fmt.Printf("  P95: %.2f ms\n", percentile(times, 0.95)*1000)
	fmt.Printf("  P99: %.2f ms\n", percentile(times, 0.99)*1000)
	if len(times) > 0 {
		fmt.Printf("  Min: %.2f ms\n", times[0]*1000)
		fmt.Printf("  Max: %.2f ms\n", times[len(times)-1]*1000)
	}
}
