package main

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sandbox fakes the SMS gateway and the WhatsApp Cloud API so the dispatcher
// can run end to end without real providers. Every accepted message is kept
// in memory and can be listed back.
type Sandbox struct {
	mu           sync.Mutex
	deliveryRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	operatorID   string
	rng          *rand.Rand
	sent         []SentMessage
	maxKept      int
}

type SentMessage struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	To         string    `json:"to"`
	Body       string    `json:"body"`
	Delivered  bool      `json:"delivered"`
	ErrorCode  string    `json:"error_code,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

func NewSandbox(deliveryRate float64, minDelay, maxDelay time.Duration) *Sandbox {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Sandbox{
		deliveryRate: deliveryRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		operatorID:   "SANDBOX_" + uuid.New().String()[:8],
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		maxKept:      1000,
	}
}

func (s *Sandbox) randomDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	delta := s.maxDelay - s.minDelay
	if delta <= 0 {
		return s.minDelay
	}
	return s.minDelay + time.Duration(s.rng.Int63n(int64(delta)))
}

func (s *Sandbox) shouldSucceed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.deliveryRate
}

func (s *Sandbox) randomErrorCode() string {
	codes := []string{
		"INVALID_NUMBER",
		"NETWORK_ERROR",
		"TIMEOUT",
		"BLOCKED",
		"INVALID_CONTENT",
		"OPERATOR_REJECTED",
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return codes[s.rng.Intn(len(codes))]
}

func errorMessage(code string) string {
	msgs := map[string]string{
		"INVALID_NUMBER":    "The phone number is invalid or not in service",
		"NETWORK_ERROR":     "Network connectivity issue with operator",
		"TIMEOUT":           "SMS delivery timed out",
		"BLOCKED":           "The recipient has blocked messages",
		"INVALID_CONTENT":   "SMS content violates operator policies",
		"OPERATOR_REJECTED": "Operator rejected the message",
	}
	if msg, ok := msgs[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

func (s *Sandbox) record(m SentMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	if len(s.sent) > s.maxKept {
		s.sent = s.sent[len(s.sent)-s.maxKept:]
	}
}

// Sent returns the recorded messages, optionally for one channel only.
func (s *Sandbox) Sent(channel string) []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMessage, 0, len(s.sent))
	for _, m := range s.sent {
		if channel == "" || m.Channel == channel {
			out = append(out, m)
		}
	}
	return out
}

func (s *Sandbox) Reset() {
	s.mu.Lock()
	s.sent = nil
	s.mu.Unlock()
}

func (s *Sandbox) DeliveryRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliveryRate
}

func (s *Sandbox) SetDeliveryRate(rate float64) {
	s.mu.Lock()
	s.deliveryRate = rate
	s.mu.Unlock()
}
