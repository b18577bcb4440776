package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/nimasrn/repair-desk/pkg/logger"
)

var ErrStopped = errors.New("worker manager stopped")

type WorkerHandler = func(workerIndex int, job interface{})

// WorkerManager is a fixed pool of goroutines reading jobs from one
// buffered channel. Start blocks until Exit is called; jobs still in the
// channel at that point are dropped, callers own their redelivery.
type WorkerManager struct {
	bufferSize     int
	jobChannel     chan interface{}
	numberOfWorker int
	quit           chan struct{}
	once           sync.Once
	do             WorkerHandler
	waiter         *sync.WaitGroup
}

func NewWorkerManager(bufferSize, numberOfWorkers int, jobChannel chan interface{}) *WorkerManager {
	if jobChannel == nil {
		jobChannel = make(chan interface{}, bufferSize)
	}
	if numberOfWorkers <= 0 {
		numberOfWorkers = 1
	}
	return &WorkerManager{
		bufferSize:     bufferSize,
		numberOfWorker: numberOfWorkers,
		jobChannel:     jobChannel,
		quit:           make(chan struct{}),
		waiter:         &sync.WaitGroup{},
	}
}

func (w *WorkerManager) GetUnreadCount() int64 {
	return int64(len(w.jobChannel))
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Enqueue publishes a job, blocking until there is room in the buffer,
// the context is done or the manager exits.
func (w *WorkerManager) Enqueue(ctx context.Context, val interface{}) error {
	select {
	case w.jobChannel <- val:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.quit:
		return ErrStopped
	}
}

// Start runs the workers and blocks until Exit.
func (w *WorkerManager) Start() error {
	if w.do == nil {
		return errors.New("worker handler is not set")
	}
	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job := <-w.jobChannel:
					w.do(index, job)
				case <-w.quit:
					return
				}
			}
		}(i)
	}
	w.waiter.Wait()
	return ErrStopped
}

// Exit stops every worker after its current job.
func (w *WorkerManager) Exit() {
	w.once.Do(func() {
		logger.Info("worker manager is shutting down", "workers", w.numberOfWorker, "pending", len(w.jobChannel))
		close(w.quit)
	})
}
