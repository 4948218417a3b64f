package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/metrics"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/panjf2000/ants/v2"
)

// Pool runs a fixed number of polling workers against one queue.
// Handler registration is static, so any worker can take any job type.
type Pool struct {
	queue          jobModel.JobQueue
	handlers       map[jobModel.JobType]jobModel.Handler
	count          int
	dequeueTimeout time.Duration
	retryDelay     time.Duration

	stopping atomic.Bool
	cancel   context.CancelFunc
	mu       sync.Mutex
	logger   *logger_i.Logger
}

func NewPool(queue jobModel.JobQueue, handlers map[jobModel.JobType]jobModel.Handler, cfg config.WorkerConfig) *Pool {
	count := cfg.Count
	if count < 1 {
		count = config.DefaultWorkerCount
	}
	timeout := cfg.DequeueTimeout
	if timeout <= 0 {
		timeout = config.DequeueTimeout
	}
	return &Pool{
		queue:          queue,
		handlers:       handlers,
		count:          count,
		dequeueTimeout: timeout,
		retryDelay:     time.Second,
		logger:         logger_i.NewLogger("WorkerPool"),
	}
}

// Run blocks until ctx is cancelled or Stop is called and every worker has
// finished its in-flight job.
func (p *Pool) Run(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	var wg sync.WaitGroup
	pool, err := ants.NewPool(p.count, ants.WithPanicHandler(func(r any) {
		p.logger.Error("worker loop panicked", "panic", r)
	}))
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	p.logger.Info("Starting workers", "count", p.count)
	for i := 1; i <= p.count; i++ {
		workerId := i
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			metrics.IncrementActiveWorkerCount()
			defer metrics.DecrementActiveWorkerCount()
			p.loop(loopCtx, workerId)
		})
		if err != nil {
			wg.Done()
			cancel()
			wg.Wait()
			return fmt.Errorf("starting worker %d: %w", workerId, err)
		}
	}

	wg.Wait()
	p.logger.Info("All workers stopped")
	return nil
}

// Stop stops accepting new work. Jobs already running finish first.
func (p *Pool) Stop() {
	p.stopping.Store(true)
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
}

func (p *Pool) loop(ctx context.Context, workerId int) {
	log := p.logger.With("workerId", workerId)
	log.Debug("Worker started")
	for !p.stopping.Load() {
		processed, err := p.ProcessNext(ctx, workerId)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Error("Dequeue failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(p.retryDelay):
			}
			continue
		}
		if !processed && ctx.Err() != nil {
			break
		}
	}
	log.Debug("Worker stopped")
}

// ProcessNext waits up to the dequeue timeout for one job and runs it.
// It reports false when nothing arrived.
func (p *Pool) ProcessNext(ctx context.Context, workerId int) (bool, error) {
	job, err := p.queue.Dequeue(ctx, p.dequeueTimeout)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, nil
		}
		return false, err
	}
	if job == nil {
		return false, nil
	}
	// the job runs to completion even when shutdown starts meanwhile
	p.execute(context.WithoutCancel(ctx), workerId, job)
	return true, nil
}
