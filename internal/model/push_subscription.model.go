package model

import (
	"errors"
	"net/url"
	"time"
)

type PushSubscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// PushSubscribeRequest mirrors the browser PushSubscription JSON.
type PushSubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (p PushSubscribeRequest) Validate() error {
	u, err := url.Parse(p.Endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return errors.New("endpoint must be an https url")
	}
	if p.Keys.P256dh == "" || p.Keys.Auth == "" {
		return errors.New("keys.p256dh and keys.auth are required")
	}
	return nil
}
