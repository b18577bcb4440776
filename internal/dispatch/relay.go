package dispatch

import (
	"context"
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/nimasrn/repair-desk/pkg/prom"
)

type OutboxStore interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, cause string) error
	PurgePublished(ctx context.Context, olderThan time.Time) (int64, error)
}

type Publisher interface {
	Publish(ctx context.Context, data []byte, metadata map[string]string) (string, error)
}

// Relay moves committed outbox rows onto the notification stream. Rows are
// claimed with SKIP LOCKED so several relays can run side by side.
type Relay struct {
	outbox    OutboxStore
	publisher Publisher
	batchSize int
	interval  time.Duration
	log       *logger.ZapLogger

	// published rows older than retention are purged every purgeEvery
	retention  time.Duration
	purgeEvery time.Duration
	lastPurge  time.Time
	now        func() time.Time
}

func NewRelay(outbox OutboxStore, publisher Publisher, batchSize int, interval time.Duration) *Relay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{
		outbox:     outbox,
		publisher:  publisher,
		batchSize:  batchSize,
		interval:   interval,
		log:        logger.Named("outbox-relay"),
		purgeEvery: time.Hour,
		now:        time.Now,
	}
}

// WithRetention enables purging of published rows older than retention.
func (r *Relay) WithRetention(retention time.Duration) *Relay {
	r.retention = retention
	return r
}

// Run polls until ctx is done. A full batch is followed immediately by another.
func (r *Relay) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		n, err := r.RelayOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.log.Error("relay batch failed", "error", err)
		}
		r.maybePurge(ctx)
		if n == r.batchSize {
			timer.Reset(0)
		} else {
			timer.Reset(r.interval)
		}
	}
}

// RelayOnce publishes one batch and returns how many rows were published.
// Publishing stops at the first failure; the rest stays pending.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	published := 0
	err := r.outbox.WithinTransaction(ctx, func(ctx context.Context) error {
		entries, err := r.outbox.ClaimPending(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(entries))
		for _, e := range entries {
			_, pubErr := r.publisher.Publish(ctx, e.Payload, map[string]string{
				"job_id":  e.JobID,
				"channel": string(e.Channel),
			})
			if pubErr != nil {
				r.log.Warn("publish failed, will retry", "job_id", e.JobID, "error", pubErr)
				if err := r.outbox.MarkFailed(ctx, e.ID, pubErr.Error()); err != nil {
					return err
				}
				break
			}
			ids = append(ids, e.ID)
		}

		if err := r.outbox.MarkPublished(ctx, ids); err != nil {
			return err
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if published > 0 {
		prom.IncOutboxRelayed(published)
		r.log.Debug("outbox batch relayed", "count", published)
	}
	return published, nil
}

func (r *Relay) maybePurge(ctx context.Context) {
	if r.retention <= 0 || r.now().Sub(r.lastPurge) < r.purgeEvery {
		return
	}
	r.lastPurge = r.now()
	if _, err := r.PurgeOnce(ctx); err != nil && ctx.Err() == nil {
		r.log.Error("outbox purge failed", "error", err)
	}
}

// PurgeOnce deletes published rows older than the retention window.
func (r *Relay) PurgeOnce(ctx context.Context) (int64, error) {
	if r.retention <= 0 {
		return 0, nil
	}
	n, err := r.outbox.PurgePublished(ctx, r.now().Add(-r.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.Info("published outbox rows purged", "count", n)
	}
	return n, nil
}
