package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyService_FirstAttempt(t *testing.T) {
	_, adapter := setupTestRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())

	pc, err := service.AcquireProcessingLock(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", pc.JobID)
	assert.Equal(t, 0, pc.RetryCount)
	assert.False(t, pc.IsRetry)
	assert.True(t, pc.lockAcquired)
}

func TestIdempotencyService_ConcurrentConsumers(t *testing.T) {
	_, adapter := setupTestRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	first, err := service.AcquireProcessingLock(ctx, "job-2")
	require.NoError(t, err)

	_, err = service.AcquireProcessingLock(ctx, "job-2")
	assert.ErrorIs(t, err, ErrLockAcquireFailed)

	require.NoError(t, service.ReleaseLock(ctx, first))
	assert.False(t, first.lockAcquired)

	_, err = service.AcquireProcessingLock(ctx, "job-2")
	assert.NoError(t, err)
}

func TestIdempotencyService_MarkSuccess(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	config := DefaultIdempotencyConfig()
	service := NewIdempotencyService(adapter, config)
	ctx := context.Background()

	pc, err := service.AcquireProcessingLock(ctx, "job-3")
	require.NoError(t, err)
	require.NoError(t, service.MarkSuccess(ctx, pc))

	processed, err := service.IsProcessed(ctx, "job-3")
	require.NoError(t, err)
	assert.True(t, processed)
	assert.False(t, mr.Exists(config.LockKeyPrefix+"job-3"))

	_, err = service.AcquireProcessingLock(ctx, "job-3")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	mr.FastForward(config.ProcessedTTL + time.Second)
	processed, err = service.IsProcessed(ctx, "job-3")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestIdempotencyService_MarkFailureThenRetry(t *testing.T) {
	_, adapter := setupTestRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	pc, err := service.AcquireProcessingLock(ctx, "job-4")
	require.NoError(t, err)
	require.NoError(t, service.MarkFailure(ctx, pc, errors.New("provider timeout")))

	count, err := service.GetRetryCount(ctx, "job-4")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	retry, err := service.AcquireProcessingLock(ctx, "job-4")
	require.NoError(t, err)
	assert.True(t, retry.IsRetry)
	assert.Equal(t, 1, retry.RetryCount)

	require.NoError(t, service.MarkSuccess(ctx, retry))
	count, err = service.GetRetryCount(ctx, "job-4")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIdempotencyService_MaxRetriesExceeded(t *testing.T) {
	_, adapter := setupTestRedis(t)
	config := DefaultIdempotencyConfig()
	config.MaxRetries = 2
	service := NewIdempotencyService(adapter, config)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		pc, err := service.AcquireProcessingLock(ctx, "job-5")
		require.NoError(t, err)
		require.NoError(t, service.MarkFailure(ctx, pc, errors.New("boom")))
	}

	_, err := service.AcquireProcessingLock(ctx, "job-5")
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestIdempotencyService_LockExpires(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	config := DefaultIdempotencyConfig()
	service := NewIdempotencyService(adapter, config)
	ctx := context.Background()

	_, err := service.AcquireProcessingLock(ctx, "job-6")
	require.NoError(t, err)

	mr.FastForward(config.LockTTL + time.Second)
	_, err = service.AcquireProcessingLock(ctx, "job-6")
	assert.NoError(t, err)
}
