package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/aescanero/swapd/pkg/ports"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Job outcomes reported to metrics
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Handler runs jobs. Executor is the production implementation.
type Handler interface {
	Execute(ctx context.Context, orderID string) error
	Fail(ctx context.Context, orderID, reason string) error
}

// PoolConfig holds worker pool settings
type PoolConfig struct {
	Size                int
	RateLimit           int
	RateWindow          time.Duration
	AttemptTimeout      time.Duration
	HealthCheckInterval time.Duration
}

// Pool manages a pool of worker goroutines consuming the job queue
type Pool struct {
	size           int
	queue          ports.JobQueue
	handler        Handler
	limiter        *rate.Limiter
	attemptTimeout time.Duration
	metrics        ports.MetricsCollector
	logger         *zap.Logger
	health         *HealthMonitor

	workers []*worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// worker represents a single worker goroutine
type worker struct {
	id      string
	pool    *Pool
	status  WorkerStatus
	mu      sync.RWMutex
	lastJob time.Time
}

// WorkerStatus represents worker status
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusBusy    WorkerStatus = "busy"
	WorkerStatusStopped WorkerStatus = "stopped"
)

// NewPool creates a new worker pool
func NewPool(
	cfg PoolConfig,
	queue ports.JobQueue,
	handler Handler,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.Size <= 0 {
		cfg.Size = 1
	}

	limit := rate.Inf
	burst := cfg.Size
	if cfg.RateLimit > 0 && cfg.RateWindow > 0 {
		limit = rate.Every(cfg.RateWindow / time.Duration(cfg.RateLimit))
		burst = cfg.RateLimit
	}

	pool := &Pool{
		size:           cfg.Size,
		queue:          queue,
		handler:        handler,
		limiter:        rate.NewLimiter(limit, burst),
		attemptTimeout: cfg.AttemptTimeout,
		metrics:        metrics,
		logger:         logger,
		workers:        make([]*worker, cfg.Size),
		ctx:            ctx,
		cancel:         cancel,
	}

	interval := cfg.HealthCheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	pool.health = NewHealthMonitor(pool, interval, logger)

	return pool
}

// Health returns the pool's health monitor
func (p *Pool) Health() *HealthMonitor {
	return p.health
}

// Start starts the worker pool
func (p *Pool) Start() error {
	p.logger.Info("starting worker pool", zap.Int("size", p.size))

	for i := 0; i < p.size; i++ {
		w := &worker{
			id:      fmt.Sprintf("worker-%d", i),
			pool:    p,
			status:  WorkerStatusIdle,
			lastJob: time.Now(),
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(p.ctx)
	}

	p.health.Start()

	p.logger.Info("worker pool started", zap.Int("workers", p.size))
	return nil
}

// Shutdown stops taking jobs and waits for in-flight jobs to finish
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down worker pool")

	p.health.Stop()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.health.Check()
		p.logger.Info("worker pool shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// GetStatus returns the status of all workers
func (p *Pool) GetStatus() map[string]WorkerStatus {
	status := make(map[string]WorkerStatus)
	for _, w := range p.workers {
		if w == nil {
			continue
		}
		w.mu.RLock()
		status[w.id] = w.status
		w.mu.RUnlock()
	}
	return status
}

func (w *worker) setStatus(s WorkerStatus) {
	w.mu.Lock()
	w.status = s
	if s == WorkerStatusBusy {
		w.lastJob = time.Now()
	}
	w.mu.Unlock()
}

// run is the main worker loop
func (w *worker) run(ctx context.Context) {
	defer w.pool.wg.Done()
	defer w.setStatus(WorkerStatusStopped)

	w.pool.logger.Info("worker started", zap.String("worker_id", w.id))

	for {
		if ctx.Err() != nil {
			w.pool.logger.Info("worker stopped", zap.String("worker_id", w.id))
			return
		}

		d, err := w.pool.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.pool.logger.Error("failed to dequeue job",
				zap.String("worker_id", w.id),
				zap.Error(err))
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
			continue
		}
		if d == nil {
			continue
		}

		// The job is already claimed; hold it until the limiter admits it
		if err := w.pool.limiter.Wait(ctx); err != nil {
			w.pool.logger.Info("job left unacknowledged at shutdown",
				zap.String("worker_id", w.id),
				zap.String("job_id", d.Job.ID))
			continue
		}

		// In-flight jobs are not cancelled by shutdown
		w.process(context.WithoutCancel(ctx), d)
	}
}

// process runs one delivery to completion and acknowledges it
func (w *worker) process(ctx context.Context, d *ports.Delivery) {
	w.setStatus(WorkerStatusBusy)
	defer w.setStatus(WorkerStatusIdle)

	job := d.Job
	logger := w.pool.logger.With(
		zap.String("worker_id", w.id),
		zap.String("job_id", job.ID),
		zap.String("order_id", job.OrderID))

	if job.Type != domain.JobTypeExecuteOrder {
		logger.Error("dropping job of unknown type", zap.String("type", job.Type))
		w.ack(ctx, d, logger)
		return
	}

	logger.Info("executing job", zap.Bool("reclaimed", d.Reclaimed))
	start := time.Now()

	maxTries := job.Options.Attempts
	if maxTries <= 0 {
		maxTries = 1
	}

	attempts := 0
	operation := func() (struct{}, error) {
		attempts++
		attemptCtx := ctx
		if w.pool.attemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, w.pool.attemptTimeout)
			defer cancel()
		}
		return struct{}{}, w.pool.handler.Execute(attemptCtx, job.OrderID)
	}

	notify := func(err error, next time.Duration) {
		w.pool.metrics.RecordJobRetry()
		logger.Warn("job attempt failed, retrying",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", maxTries),
			zap.Duration("backoff", next),
			zap.Error(err))
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(newBackOff(job.Options.Backoff)),
		backoff.WithMaxTries(uint(maxTries)),
		backoff.WithNotify(notify))

	outcome := OutcomeCompleted
	if err != nil {
		outcome = OutcomeFailed
		logger.Error("job failed after all attempts",
			zap.Int("attempts", attempts),
			zap.Error(err))

		if failErr := w.pool.handler.Fail(ctx, job.OrderID, err.Error()); failErr != nil {
			// Leave the job unacknowledged so it is reclaimed later
			logger.Error("failed to record order failure", zap.Error(failErr))
			w.pool.metrics.RecordJobCompleted(outcome, attempts, time.Since(start))
			return
		}
	}

	duration := time.Since(start)
	w.pool.metrics.RecordJobCompleted(outcome, attempts, duration)
	w.ack(ctx, d, logger)

	logger.Info("job finished",
		zap.String("outcome", outcome),
		zap.Int("attempts", attempts),
		zap.Duration("duration", duration))
}

func (w *worker) ack(ctx context.Context, d *ports.Delivery, logger *zap.Logger) {
	if err := w.pool.queue.Ack(ctx, d); err != nil {
		logger.Error("failed to ack job", zap.Error(err))
	}
}

// newBackOff builds the retry schedule of a job. Delays grow by a factor of
// two from the configured delay with no jitter.
func newBackOff(opts domain.BackoffOptions) backoff.BackOff {
	if opts.Type != domain.BackoffTypeExponential {
		return backoff.NewConstantBackOff(opts.Delay)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.Delay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = opts.Delay * 64
	b.Reset()
	return b
}
