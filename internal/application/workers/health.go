package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthMonitor monitors worker health
type HealthMonitor struct {
	pool     *Pool
	interval time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	running   bool
	stopCh    chan struct{}
	observers []func(healthy bool)
	last      *bool
}

// HealthStatus represents the health status of the worker pool
type HealthStatus struct {
	TotalWorkers   int       `json:"totalWorkers"`
	IdleWorkers    int       `json:"idleWorkers"`
	BusyWorkers    int       `json:"busyWorkers"`
	StoppedWorkers int       `json:"stoppedWorkers"`
	QueueDepth     int64     `json:"queueDepth"`
	Healthy        bool      `json:"healthy"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(pool *Pool, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		pool:     pool,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// OnChange registers fn to be called whenever the pool's health flips.
// fn is also called on the first check.
func (h *HealthMonitor) OnChange(fn func(healthy bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, fn)
}

// Start starts the health monitor
func (h *HealthMonitor) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop stops the health monitor
func (h *HealthMonitor) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.stopCh)
}

// run is the main health monitoring loop
func (h *HealthMonitor) run() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Check()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.Check()
		}
	}
}

// Check samples the pool, records metrics and notifies observers on change
func (h *HealthMonitor) Check() *HealthStatus {
	status := h.GetStatus()

	h.logger.Debug("worker pool health check",
		zap.Int("total", status.TotalWorkers),
		zap.Int("idle", status.IdleWorkers),
		zap.Int("busy", status.BusyWorkers),
		zap.Int("stopped", status.StoppedWorkers),
		zap.Int64("queue_depth", status.QueueDepth),
		zap.Bool("healthy", status.Healthy))

	h.pool.metrics.RecordWorkerPoolStatus(
		status.IdleWorkers,
		status.BusyWorkers,
		status.StoppedWorkers,
	)
	h.pool.metrics.SetQueueDepth(status.QueueDepth)

	if !status.Healthy {
		h.logger.Warn("worker pool is unhealthy",
			zap.Int("stopped", status.StoppedWorkers),
			zap.Int("total", status.TotalWorkers))
	}

	if status.TotalWorkers > 0 && status.BusyWorkers == status.TotalWorkers {
		h.logger.Warn("all workers are busy - consider scaling up",
			zap.Int("total", status.TotalWorkers),
			zap.Int64("queue_depth", status.QueueDepth))
	}

	h.mu.Lock()
	changed := h.last == nil || *h.last != status.Healthy
	healthy := status.Healthy
	h.last = &healthy
	observers := append([]func(bool){}, h.observers...)
	h.mu.Unlock()

	if changed {
		for _, fn := range observers {
			fn(healthy)
		}
	}

	return status
}

// GetStatus returns the current health status. The pool is healthy while
// every worker is running; busy workers do not make it unhealthy.
func (h *HealthMonitor) GetStatus() *HealthStatus {
	workerStatuses := h.pool.GetStatus()

	var idle, busy, stopped int
	for _, status := range workerStatuses {
		switch status {
		case WorkerStatusIdle:
			idle++
		case WorkerStatusBusy:
			busy++
		case WorkerStatusStopped:
			stopped++
		}
	}

	total := len(workerStatuses)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	depth, err := h.pool.queue.Depth(ctx)
	if err != nil {
		h.logger.Warn("failed to read queue depth", zap.Error(err))
	}

	return &HealthStatus{
		TotalWorkers:   total,
		IdleWorkers:    idle,
		BusyWorkers:    busy,
		StoppedWorkers: stopped,
		QueueDepth:     depth,
		Healthy:        total > 0 && stopped == 0,
		Timestamp:      time.Now(),
	}
}

// IsHealthy returns true if the worker pool is healthy
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetStatus().Healthy
}
