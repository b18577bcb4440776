package channels

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
)

type ProviderMetrics struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	FailedReqs       atomic.Int64
	TotalLatencyMs   atomic.Int64
	LastLatencyMs    atomic.Int64
	ConsecutiveFails atomic.Int32
	LastErrorTime    atomic.Int64
	LastSuccessTime  atomic.Int64

	mu             sync.RWMutex
	latencies      []int64
	maxLatencyKept int
}

func NewProviderMetrics() *ProviderMetrics {
	return &ProviderMetrics{
		latencies:      make([]int64, 0, 100),
		maxLatencyKept: 100,
	}
}

func (m *ProviderMetrics) RecordSuccess(latencyMs int64) {
	m.TotalRequests.Add(1)
	m.SuccessfulReqs.Add(1)
	m.TotalLatencyMs.Add(latencyMs)
	m.LastLatencyMs.Store(latencyMs)
	m.ConsecutiveFails.Store(0)
	m.LastSuccessTime.Store(time.Now().Unix())

	m.mu.Lock()
	if len(m.latencies) >= m.maxLatencyKept {
		m.latencies = m.latencies[1:]
	}
	m.latencies = append(m.latencies, latencyMs)
	m.mu.Unlock()
}

func (m *ProviderMetrics) RecordFailure() {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	m.ConsecutiveFails.Add(1)
	m.LastErrorTime.Store(time.Now().Unix())
}

func (m *ProviderMetrics) AvgLatencyMs() int64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 0
	}
	return m.TotalLatencyMs.Load() / total
}

func (m *ProviderMetrics) SuccessRate() float64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 1.0
	}
	return float64(m.SuccessfulReqs.Load()) / float64(total)
}

func (m *ProviderMetrics) P95LatencyMs() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := make([]int64, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

type ProviderState int

const (
	StateHealthy ProviderState = iota
	StateDegraded
	StateUnhealthy
	StateCircuitOpen
)

func (s ProviderState) String() string {
	switch s {
	case StateHealthy:
		return "HEALTHY"
	case StateDegraded:
		return "DEGRADED"
	case StateUnhealthy:
		return "UNHEALTHY"
	case StateCircuitOpen:
		return "CIRCUIT_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Provider is one SMS Mobile API endpoint.
type Provider struct {
	name             string
	url              string
	client           *fasthttp.Client
	metrics          *ProviderMetrics
	state            atomic.Int32
	weight           atomic.Int32
	lastHealthCheck  atomic.Int64
	circuitOpenUntil atomic.Int64
}

func NewProvider(name, url string, weight int, client *fasthttp.Client) *Provider {
	p := &Provider{
		name:    name,
		url:     url,
		client:  client,
		metrics: NewProviderMetrics(),
	}
	p.state.Store(int32(StateHealthy))
	p.weight.Store(int32(weight))
	return p
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) GetState() ProviderState {
	return ProviderState(p.state.Load())
}

func (p *Provider) SetState(state ProviderState) {
	p.state.Store(int32(state))
}

// IsAvailable half-opens an expired circuit as degraded.
func (p *Provider) IsAvailable() bool {
	state := p.GetState()
	if state == StateCircuitOpen {
		if time.Now().Unix() > p.circuitOpenUntil.Load() {
			p.SetState(StateDegraded)
			return true
		}
		return false
	}
	return state != StateUnhealthy
}

// Score ranks providers: success rate and latency dominate, the configured
// weight breaks ties, recent failures and degraded state scale it down.
func (p *Provider) Score() float64 {
	if !p.IsAvailable() {
		return 0.0
	}

	successScore := p.metrics.SuccessRate() * 100

	latencyScore := 100.0
	if avg := p.metrics.AvgLatencyMs(); avg > 0 {
		// 0 points at 5s and above
		latencyScore = 100.0 * (1.0 - float64(avg)/5000.0)
		if latencyScore < 0 {
			latencyScore = 0
		}
	}

	recentPenalty := 1.0 - float64(p.metrics.ConsecutiveFails.Load())*0.1
	if recentPenalty < 0.1 {
		recentPenalty = 0.1
	}

	statePenalty := 1.0
	switch p.GetState() {
	case StateDegraded:
		statePenalty = 0.5
	case StateUnhealthy, StateCircuitOpen:
		statePenalty = 0.0
	}

	base := float64(p.weight.Load())
	return (successScore*0.4 + latencyScore*0.4 + base*0.2) * recentPenalty * statePenalty
}

type ProviderStats struct {
	Name             string  `json:"name"`
	URL              string  `json:"url"`
	State            string  `json:"state"`
	Score            float64 `json:"score"`
	TotalRequests    int64   `json:"total_requests"`
	SuccessfulReqs   int64   `json:"successful_requests"`
	FailedReqs       int64   `json:"failed_requests"`
	SuccessRate      float64 `json:"success_rate"`
	AvgLatencyMs     int64   `json:"avg_latency_ms"`
	P95LatencyMs     int64   `json:"p95_latency_ms"`
	LastLatencyMs    int64   `json:"last_latency_ms"`
	ConsecutiveFails int32   `json:"consecutive_fails"`
}

func (p *Provider) Stats() ProviderStats {
	return ProviderStats{
		Name:             p.name,
		URL:              p.url,
		State:            p.GetState().String(),
		Score:            p.Score(),
		TotalRequests:    p.metrics.TotalRequests.Load(),
		SuccessfulReqs:   p.metrics.SuccessfulReqs.Load(),
		FailedReqs:       p.metrics.FailedReqs.Load(),
		SuccessRate:      p.metrics.SuccessRate(),
		AvgLatencyMs:     p.metrics.AvgLatencyMs(),
		P95LatencyMs:     p.metrics.P95LatencyMs(),
		LastLatencyMs:    p.metrics.LastLatencyMs.Load(),
		ConsecutiveFails: p.metrics.ConsecutiveFails.Load(),
	}
}
