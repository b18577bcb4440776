package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/queue"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	failAt int
	jobs   []string
}

func (p *recordingPublisher) Publish(ctx context.Context, data []byte, metadata map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAt > 0 && len(p.jobs)+1 == p.failAt {
		p.failAt = 0
		return "", errors.New("redis unavailable")
	}
	p.jobs = append(p.jobs, metadata["job_id"])
	return "1-0", nil
}

func seedOutbox(t *testing.T, repo *repository.OutboxRepository, n int) []*model.OutboxEntry {
	t.Helper()
	entries := make([]*model.OutboxEntry, n)
	for i := range entries {
		job := smsJob(uuid.NewString())
		payload, err := json.Marshal(job)
		require.NoError(t, err)
		entries[i] = &model.OutboxEntry{JobID: job.ID, Channel: job.Channel, Payload: payload}
	}
	require.NoError(t, repo.CreateBatch(context.Background(), entries))
	return entries
}

func TestRelay_RelayOnce(t *testing.T) {
	repo := repository.NewOutboxRepository(repository.OpenTestDB(t))
	entries := seedOutbox(t, repo, 3)
	pub := &recordingPublisher{}
	relay := NewRelay(repo, pub, 2, time.Second)
	ctx := context.Background()

	n, err := relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{entries[0].JobID, entries[1].JobID}, pub.jobs)

	n, err = relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestRelay_PublishFailureKeepsRowPending(t *testing.T) {
	repo := repository.NewOutboxRepository(repository.OpenTestDB(t))
	entries := seedOutbox(t, repo, 3)
	pub := &recordingPublisher{failAt: 2}
	relay := NewRelay(repo, pub, 10, time.Second)
	ctx := context.Background()

	n, err := relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, entries[1].JobID, pending[0].JobID)
	assert.Equal(t, "redis unavailable", pending[0].LastError)
	assert.Equal(t, 1, pending[0].Attempts)

	n, err = relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func countOutbox(t *testing.T, repo *repository.OutboxRepository) int64 {
	t.Helper()
	var n int64
	require.NoError(t, repo.Read(context.Background()).Model(&repository.OutboxEntity{}).Count(&n).Error)
	return n
}

func TestRelay_PurgeOnce(t *testing.T) {
	repo := repository.NewOutboxRepository(repository.OpenTestDB(t))
	seedOutbox(t, repo, 3)
	ctx := context.Background()

	relay := NewRelay(repo, &recordingPublisher{}, 10, time.Second)
	n, err := relay.RelayOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	seedOutbox(t, repo, 1)

	purged, err := relay.PurgeOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged, "no retention configured")

	relay.WithRetention(24 * time.Hour)
	purged, err = relay.PurgeOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged, "rows are still fresh")

	relay.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	purged, err = relay.PurgeOnce(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, purged)

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
	assert.EqualValues(t, 1, countOutbox(t, repo))
}

func TestRelay_RunPurgesPublishedRows(t *testing.T) {
	repo := repository.NewOutboxRepository(repository.OpenTestDB(t))
	seedOutbox(t, repo, 2)

	relay := NewRelay(repo, &recordingPublisher{}, 10, 20*time.Millisecond).WithRetention(time.Hour)
	relay.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	relay.purgeEvery = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool { return countOutbox(t, repo) == 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestService_OutboxToDelivery(t *testing.T) {
	_, adapter := setupTestRedis(t)
	db := repository.OpenTestDB(t)
	outbox := repository.NewOutboxRepository(db)
	deliveries := repository.NewDeliveryRepository(db)
	entries := seedOutbox(t, outbox, 2)

	qc := queue.QueueConfig{
		Name:              "test:notifications",
		ConsumerGroup:     "dispatchers",
		ConsumerName:      "test",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      50 * time.Millisecond,
		BatchSize:         10,
		EnableDLQ:         true,
	}
	publisher, err := queue.NewQueue(adapter, qc)
	require.NoError(t, err)

	sender := &fakeSender{channel: model.ChannelSMS}
	processor := NewNotificationProcessor(
		channelsRegistry(sender),
		deliveries,
		NewIdempotencyService(adapter, DefaultIdempotencyConfig()),
	)
	svc := NewService(adapter, Config{Queue: qc, Consumers: 2, Workers: 2},
		NewRelay(outbox, publisher, 10, 50*time.Millisecond), processor)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	require.Eventually(t, func() bool { return sender.count() == 2 }, 5*time.Second, 50*time.Millisecond)

	rows, err := deliveries.ListByJob(context.Background(), entries[0].JobID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.DeliverySent, rows[0].Status)

	pending, err := outbox.CountPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
}
