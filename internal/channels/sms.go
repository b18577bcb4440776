package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/valyala/fasthttp"
)

var ErrNoAvailableProviders = errors.New("no available sms providers")

type SMSStatus string

const (
	SMSDelivered SMSStatus = "DELIVERED"
	SMSFailed    SMSStatus = "FAILED"
	SMSPending   SMSStatus = "PENDING"
)

type SMSSendRequest struct {
	MessageID   string `json:"message_id"`
	PhoneNumber string `json:"phone_number"`
	Content     string `json:"content"`
	SenderID    string `json:"sender_id,omitempty"`
}

type SMSSendResponse struct {
	MessageID   string     `json:"message_id"`
	Status      SMSStatus  `json:"status"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ErrorCode   string     `json:"error_code,omitempty"`
	ErrorMsg    string     `json:"error_message,omitempty"`
	OperatorID  string     `json:"operator_id"`
	ProcessedAt time.Time  `json:"processed_at"`
}

type SMSConfig struct {
	Providers               []SMSProviderConfig
	APIKey                  string
	SenderID                string
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	ReadBufferSize          int
	WriteBufferSize         int
	HealthCheckInterval     time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
	// Dial overrides the TCP dialer, used by tests with an in-memory listener.
	Dial fasthttp.DialFunc
}

type SMSProviderConfig struct {
	Name   string
	URL    string
	Weight int // 1-100
}

// SMSClient sends through the best scoring SMS Mobile API provider.
type SMSClient struct {
	config    *SMSConfig
	providers []*Provider
	mu        sync.RWMutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
	log       *logger.ZapLogger
}

func NewSMSClient(config *SMSConfig) (*SMSClient, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if len(config.Providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.HealthCheckInterval <= 0 {
		config.HealthCheckInterval = 30 * time.Second
	}
	if config.CircuitBreakerThreshold <= 0 {
		config.CircuitBreakerThreshold = 5
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}

	c := &SMSClient{
		config:    config,
		providers: make([]*Provider, 0, len(config.Providers)),
		stopCh:    make(chan struct{}),
		log:       logger.Named("sms"),
	}

	for _, pc := range config.Providers {
		httpClient := &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
			ReadBufferSize:      config.ReadBufferSize,
			WriteBufferSize:     config.WriteBufferSize,
			Dial:                config.Dial,
		}
		c.providers = append(c.providers, NewProvider(pc.Name, pc.URL, pc.Weight, httpClient))
		c.log.Info("provider initialized", "name", pc.Name, "url", pc.URL, "weight", pc.Weight)
	}

	c.wg.Add(2)
	go c.healthChecker()
	go c.metricsCollector()

	return c, nil
}

func (c *SMSClient) Channel() model.Channel { return model.ChannelSMS }

func (c *SMSClient) Send(ctx context.Context, msg *Outbound) (*Receipt, error) {
	if msg.Recipient.Phone == "" {
		return nil, ErrNoRecipient
	}
	res, err := c.SendSMS(ctx, &SMSSendRequest{
		MessageID:   msg.JobID,
		PhoneNumber: msg.Recipient.Phone,
		Content:     msg.Body,
		SenderID:    c.config.SenderID,
	})
	if err != nil {
		return nil, err
	}
	if res.Status == SMSFailed {
		return nil, fmt.Errorf("provider %s rejected message: %s %s", res.OperatorID, res.ErrorCode, res.ErrorMsg)
	}
	sentAt := res.ProcessedAt
	if res.DeliveredAt != nil {
		sentAt = *res.DeliveredAt
	}
	return &Receipt{
		ProviderMessageID: res.MessageID,
		Status:            string(res.Status),
		Delivered:         1,
		SentAt:            sentAt,
	}, nil
}

// SelectBestProvider returns the available provider with the highest score.
func (c *SMSClient) SelectBestProvider() (*Provider, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *Provider
	var bestScore float64
	for _, p := range c.providers {
		if !p.IsAvailable() {
			continue
		}
		if score := p.Score(); score > bestScore {
			bestScore = score
			best = p
		}
	}
	if best == nil {
		return nil, ErrNoAvailableProviders
	}
	return best, nil
}

// SendSMS retries across providers; a 4xx answer is permanent and stops retrying.
func (c *SMSClient) SendSMS(ctx context.Context, req *SMSSendRequest) (*SMSSendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		provider, err := c.SelectBestProvider()
		if err != nil {
			lastErr = err
			continue
		}

		start := time.Now()
		raw, err := c.doRequest(ctx, provider, fasthttp.MethodPost, "/api/v1/sms/send", body)
		latency := time.Since(start).Milliseconds()
		if err != nil {
			if IsPermanent(err) {
				provider.metrics.RecordSuccess(latency)
				return nil, err
			}
			provider.metrics.RecordFailure()
			c.checkCircuitBreaker(provider)
			c.log.Warn("sms request failed", "error", err, "provider", provider.name, "attempt", attempt+1)
			lastErr = err
			continue
		}
		provider.metrics.RecordSuccess(latency)

		var resp SMSSendResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		c.log.Info("sms sent to provider", "message_id", req.MessageID, "status", string(resp.Status), "provider", provider.name, "latency_ms", latency)
		return &resp, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *SMSClient) doRequest(ctx context.Context, provider *Provider, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(provider.url + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}
	if err := provider.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusOK || status == fasthttp.StatusAccepted:
	case status >= 400 && status < 500 && status != fasthttp.StatusTooManyRequests:
		return nil, permanent("sms provider %s answered %d: %s", provider.name, status, resp.Body())
	default:
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", status, resp.Body())
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

func (c *SMSClient) checkCircuitBreaker(provider *Provider) {
	fails := provider.metrics.ConsecutiveFails.Load()
	if fails >= int32(c.config.CircuitBreakerThreshold) {
		provider.SetState(StateCircuitOpen)
		provider.circuitOpenUntil.Store(time.Now().Add(c.config.CircuitBreakerTimeout).Unix())
		c.log.Warn("circuit breaker opened", "provider", provider.name, "consecutive_fails", fails, "timeout", c.config.CircuitBreakerTimeout)
	}
}

func (c *SMSClient) healthChecker() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.performHealthChecks()
		case <-c.stopCh:
			return
		}
	}
}

func (c *SMSClient) performHealthChecks() {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	c.mu.RLock()
	providers := make([]*Provider, len(c.providers))
	copy(providers, c.providers)
	c.mu.RUnlock()

	for _, p := range providers {
		healthy := c.checkProviderHealth(ctx, p)
		p.lastHealthCheck.Store(time.Now().Unix())

		old := p.GetState()
		next := old
		if healthy {
			if old == StateUnhealthy || old == StateDegraded {
				next = StateHealthy
			}
		} else {
			next = StateUnhealthy
		}
		if next != old {
			p.SetState(next)
			c.log.Info("provider state changed", "provider", p.name, "old_state", old.String(), "new_state", next.String())
		}
	}
}

func (c *SMSClient) checkProviderHealth(ctx context.Context, p *Provider) bool {
	raw, err := c.doRequest(ctx, p, fasthttp.MethodGet, "/health", nil)
	if err != nil {
		return false
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &health); err != nil {
		return false
	}
	return health.Status == "healthy"
}

func (c *SMSClient) metricsCollector() {
	defer c.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evaluateProviders()
		case <-c.stopCh:
			return
		}
	}
}

func (c *SMSClient) evaluateProviders() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.providers {
		if p.GetState() == StateCircuitOpen {
			continue
		}
		rate := p.metrics.SuccessRate()
		avg := p.metrics.AvgLatencyMs()

		if rate < 0.8 || avg > 5000 {
			if p.GetState() != StateDegraded {
				p.SetState(StateDegraded)
				c.log.Warn("provider degraded", "provider", p.name, "success_rate", rate, "avg_latency_ms", avg)
			}
		} else if rate > 0.95 && avg < 2000 && p.GetState() != StateHealthy {
			p.SetState(StateHealthy)
			c.log.Info("provider recovered", "provider", p.name)
		}
	}
}

// ProviderStats is sorted by score, best first.
func (c *SMSClient) ProviderStats() []ProviderStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]ProviderStats, 0, len(c.providers))
	for _, p := range c.providers {
		stats = append(stats, p.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Score > stats[j].Score })
	return stats
}

func (c *SMSClient) Close() error {
	close(c.stopCh)
	c.wg.Wait()
	return nil
}
