package dispatch

import (
	"sync/atomic"
	"time"
)

// ServiceMetrics are in-process counters logged by the dispatcher; the
// prometheus side lives in pkg/prom.
type ServiceMetrics struct {
	processed  atomic.Int64
	failed     atomic.Int64
	durationNs atomic.Int64
	startedNs  atomic.Int64
}

func NewServiceMetrics() *ServiceMetrics {
	m := &ServiceMetrics{}
	m.startedNs.Store(time.Now().UnixNano())
	return m
}

func (m *ServiceMetrics) RecordSuccess(d time.Duration) {
	m.processed.Add(1)
	m.durationNs.Add(int64(d))
}

func (m *ServiceMetrics) RecordFailure() {
	m.failed.Add(1)
}

func (m *ServiceMetrics) GetStats() map[string]interface{} {
	processed := m.processed.Load()
	elapsed := time.Since(time.Unix(0, m.startedNs.Load())).Seconds()

	rate := 0.0
	if elapsed > 0 {
		rate = float64(processed) / elapsed
	}
	var avg time.Duration
	if processed > 0 {
		avg = time.Duration(m.durationNs.Load() / processed)
	}

	return map[string]interface{}{
		"total_processed": processed,
		"total_failed":    m.failed.Load(),
		"rate_per_second": rate,
		"avg_duration_ms": avg.Milliseconds(),
		"uptime_seconds":  elapsed,
	}
}

func (m *ServiceMetrics) Reset() {
	m.processed.Store(0)
	m.failed.Store(0)
	m.durationNs.Store(0)
	m.startedNs.Store(time.Now().UnixNano())
}
