package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/repair-desk/internal/queue"
	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/nimasrn/repair-desk/pkg/redis"
	"github.com/nimasrn/repair-desk/pkg/worker"
)

const (
	ProcessingTimeout = 45 * time.Second
	HealthInterval    = 30 * time.Second
	ShutdownTimeout   = time.Minute
	laggingThreshold  = 10_000
)

// Processor handles one stream message.
type Processor interface {
	Process(ctx context.Context, message *queue.Message) error
	GetType() string
}

type Config struct {
	Queue     queue.QueueConfig
	Consumers int
	Workers   int
}

// Service runs the outbox relay plus N stream consumers that hand messages
// to a shared worker pool and wait for the result before acking.
type Service struct {
	adapter   redis.RedisAdapter
	config    Config
	relay     *Relay
	processor Processor
	queues    []*queue.Queue
	metrics   *ServiceMetrics
	worker    *worker.WorkerManager
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	log       *logger.ZapLogger
}

func NewService(adapter redis.RedisAdapter, config Config, relay *Relay, processor Processor) *Service {
	if config.Consumers <= 0 {
		config.Consumers = 1
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		adapter:   adapter,
		config:    config,
		relay:     relay,
		processor: processor,
		metrics:   NewServiceMetrics(),
		worker:    worker.NewWorkerManager(config.Workers*4, config.Workers, nil),
		ctx:       ctx,
		cancel:    cancel,
		log:       logger.Named("dispatcher"),
	}
}

func (s *Service) Start() error {
	if s.processor == nil {
		return fmt.Errorf("processor is required")
	}
	s.worker.SetWorker(s.workerHandler)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil {
			s.log.Info("worker pool stopped", "reason", err)
		}
	}()

	for i := 0; i < s.config.Consumers; i++ {
		qc := s.config.Queue
		qc.ConsumerName = fmt.Sprintf("%s-%d", qc.ConsumerName, i)

		q, err := queue.NewQueue(s.adapter, qc)
		if err != nil {
			return fmt.Errorf("failed to create queue consumer %d: %w", i, err)
		}
		if err := q.Consume(s.messageHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}
		s.queues = append(s.queues, q)
	}

	if s.relay != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.relay.Run(s.ctx)
		}()
	}

	s.wg.Add(2)
	go s.metricsReporter()
	go s.healthChecker()

	s.log.Info("dispatcher started", "processor", s.processor.GetType(), "consumers", len(s.queues), "workers", s.config.Workers)
	return nil
}

type pendingJob struct {
	msg    *queue.Message
	result chan error
	ctx    context.Context
}

// messageHandler blocks the consumer until a worker finished the message,
// so ack/retry decisions stay with the queue.
func (s *Service) messageHandler(ctx context.Context, msg *queue.Message) error {
	msgCtx, cancel := context.WithTimeout(ctx, ProcessingTimeout)
	defer cancel()

	job := &pendingJob{msg: msg, result: make(chan error, 1), ctx: msgCtx}
	if err := s.worker.Enqueue(msgCtx, job); err != nil {
		return fmt.Errorf("enqueue to worker pool: %w", err)
	}

	select {
	case err := <-job.result:
		return err
	case <-msgCtx.Done():
		return fmt.Errorf("timeout waiting for worker: %w", msgCtx.Err())
	}
}

func (s *Service) workerHandler(workerIndex int, j interface{}) {
	job, ok := j.(*pendingJob)
	if !ok {
		s.log.Error("invalid job type in worker", "worker", workerIndex)
		return
	}
	if job.ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := s.processor.Process(job.ctx, job.msg)
	if err != nil {
		s.metrics.RecordFailure()
		if !queue.IsPermanent(err) {
			s.log.Warn("message processing failed", "worker", workerIndex, "stream_id", job.msg.ID, "error", err)
		}
	} else {
		s.metrics.RecordSuccess(time.Since(start))
	}

	// buffered, never blocks
	job.result <- err
}

func (s *Service) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportMetrics()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) reportMetrics() {
	stats := s.metrics.GetStats()
	s.log.Info("dispatch metrics", "total_processed", stats["total_processed"], "total_failed", stats["total_failed"],
		"rate_per_second", stats["rate_per_second"], "avg_duration_ms", stats["avg_duration_ms"], "uptime_seconds", stats["uptime_seconds"])

	if len(s.queues) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if qStats, err := s.queues[0].GetStats(ctx); err == nil {
		s.log.Info("queue stats", "total", qStats.TotalMessages, "pending", qStats.PendingMessages, "dead_letters", qStats.DeadLetters)
	}
}

func (s *Service) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) performHealthCheck() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	if err := s.adapter.Ping(ctx); err != nil {
		s.log.Error("health check failed: redis unreachable", "error", err)
		return
	}
	if len(s.queues) == 0 {
		return
	}
	stats, err := s.queues[0].GetStats(ctx)
	if err != nil {
		s.log.Warn("health check: queue stats unavailable", "error", err)
		return
	}
	if stats.PendingMessages > laggingThreshold {
		s.log.Warn("health check: queue is lagging", "pending_messages", stats.PendingMessages)
	}
}

// Stop drains consumers first, then the worker pool and the relay.
func (s *Service) Stop() {
	s.log.Info("shutting down dispatcher")

	var wg sync.WaitGroup
	for i, q := range s.queues {
		wg.Add(1)
		go func(index int, q *queue.Queue) {
			defer wg.Done()
			if err := q.Stop(ShutdownTimeout); err != nil {
				s.log.Error("error stopping consumer", "consumer", index, "error", err)
			}
		}(i, q)
	}
	wg.Wait()

	s.cancel()
	s.worker.Exit()
	s.wg.Wait()

	s.reportMetrics()
	s.log.Info("dispatcher stopped")
}

func (s *Service) Metrics() *ServiceMetrics { return s.metrics }
