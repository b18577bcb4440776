package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/nimasrn/repair-desk/pkg/redis"
)

var (
	ErrAlreadyProcessed   = errors.New("job already processed")
	ErrLockAcquireFailed  = errors.New("failed to acquire processing lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

type IdempotencyConfig struct {
	// LockTTL bounds how long a crashed worker can block a job.
	LockTTL time.Duration
	// ProcessedTTL keeps the done marker and the retry counter.
	ProcessedTTL time.Duration

	MaxRetries int

	RetryKeyPrefix     string
	LockKeyPrefix      string
	ProcessedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		MaxRetries:         3,
		RetryKeyPrefix:     "dispatch:retry:",
		LockKeyPrefix:      "dispatch:lock:",
		ProcessedKeyPrefix: "dispatch:done:",
	}
}

// IdempotencyService makes job handling at-most-once-successful across
// consumers: a SETNX lock guards concurrent work and a processed marker
// short-circuits redeliveries.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
	log    *logger.ZapLogger
}

func NewIdempotencyService(adapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  adapter,
		config: config,
		log:    logger.Named("idempotency"),
	}
}

type ProcessingContext struct {
	JobID        string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
}

func (s *IdempotencyService) AcquireProcessingLock(ctx context.Context, jobID string) (*ProcessingContext, error) {
	exists, err := s.redis.Exist(ctx, s.config.ProcessedKeyPrefix+jobID)
	if err != nil {
		// a duplicate send is preferable to a stuck job
		s.log.Warn("failed to check processed marker", "job_id", jobID, "error", err)
	} else if exists > 0 {
		return nil, ErrAlreadyProcessed
	}

	retryCount, err := s.GetRetryCount(ctx, jobID)
	if err != nil {
		s.log.Warn("failed to read retry counter", "job_id", jobID, "error", err)
	}
	if retryCount >= s.config.MaxRetries {
		return nil, fmt.Errorf("%w: job_id=%s, retries=%d", ErrMaxRetriesExceeded, jobID, retryCount)
	}

	lockValue := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	acquired, err := s.redis.SetNX(ctx, s.config.LockKeyPrefix+jobID, lockValue, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		return nil, ErrLockAcquireFailed
	}

	s.log.Debug("processing lock acquired", "job_id", jobID, "retry_count", retryCount)
	return &ProcessingContext{
		JobID:        jobID,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
	}, nil
}

func (s *IdempotencyService) MarkSuccess(ctx context.Context, pc *ProcessingContext) error {
	if err := s.redis.Set(ctx, s.config.ProcessedKeyPrefix+pc.JobID, []byte("1"), s.config.ProcessedTTL); err != nil {
		return fmt.Errorf("failed to mark as processed: %w", err)
	}
	if err := s.redis.Del(ctx, s.config.LockKeyPrefix+pc.JobID, s.config.RetryKeyPrefix+pc.JobID); err != nil {
		s.log.Warn("failed to clean up job keys", "job_id", pc.JobID, "error", err)
	}
	pc.lockAcquired = false
	return nil
}

// MarkFailure bumps the retry counter and frees the lock for the next delivery.
func (s *IdempotencyService) MarkFailure(ctx context.Context, pc *ProcessingContext, reason error) error {
	next := pc.RetryCount + 1
	if err := s.redis.Set(ctx, s.config.RetryKeyPrefix+pc.JobID, []byte(strconv.Itoa(next)), s.config.ProcessedTTL); err != nil {
		s.log.Error("failed to increment retry counter", "job_id", pc.JobID, "error", err)
	}
	if err := s.ReleaseLock(ctx, pc); err != nil {
		return err
	}
	s.log.Warn("job failed, will retry", "job_id", pc.JobID, "retry_count", next, "max_retries", s.config.MaxRetries, "reason", reason)
	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, pc *ProcessingContext) error {
	if pc == nil || !pc.lockAcquired {
		return nil
	}
	if err := s.redis.Del(ctx, s.config.LockKeyPrefix+pc.JobID); err != nil {
		s.log.Warn("failed to release lock", "job_id", pc.JobID, "error", err)
		return err
	}
	pc.lockAcquired = false
	return nil
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, jobID string) (int, error) {
	raw, err := s.redis.Get(ctx, s.config.RetryKeyPrefix+jobID)
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *IdempotencyService) IsProcessed(ctx context.Context, jobID string) (bool, error) {
	exists, err := s.redis.Exist(ctx, s.config.ProcessedKeyPrefix+jobID)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
