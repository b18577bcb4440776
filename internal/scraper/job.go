package scraper

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/repair-desk/pkg/logger"
)

// Job runs the scraper in the background, one run at a time.
type Job struct {
	scraper *Scraper
	sites   func() ([]Site, error)
	timeout time.Duration

	running atomic.Bool
	mu      sync.RWMutex
	last    *Result
}

func NewJob(s *Scraper, sites func() ([]Site, error), timeout time.Duration) *Job {
	if timeout <= 0 {
		timeout = 2 * time.Hour
	}
	return &Job{scraper: s, sites: sites, timeout: timeout}
}

// Start launches a run unless one is already in progress.
func (j *Job) Start() bool {
	if !j.running.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer j.running.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			logger.Error("scrape run failed", "error", err)
		}
	}()
	return true
}

// Run scrapes synchronously and remembers the result.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	sites, err := j.sites()
	if err != nil {
		return nil, err
	}
	res, err := j.scraper.Run(ctx, sites)
	if err != nil {
		return nil, err
	}
	j.mu.Lock()
	j.last = res
	j.mu.Unlock()
	logger.Info("scrape run finished",
		"success", res.Success,
		"created", res.Created,
		"updated", res.Updated,
		"failed", res.Failed,
		"pages_failed", res.PagesFailed)
	return res, nil
}

// Every runs the scraper right away and then on each tick until ctx is done.
// Ticks that fall inside a still running scrape are skipped.
func (j *Job) Every(ctx context.Context, interval time.Duration) {
	j.tick(ctx)
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.tick(ctx)
		}
	}
}

func (j *Job) tick(ctx context.Context) {
	if !j.running.CompareAndSwap(false, true) {
		logger.Warn("scrape still running, skipping tick")
		return
	}
	defer j.running.Store(false)
	runCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	if _, err := j.Run(runCtx); err != nil {
		logger.Error("scrape run failed", "error", err)
	}
}

func (j *Job) Running() bool {
	return j.running.Load()
}

func (j *Job) Last() *Result {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}
