package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/aescanero/swapd/pkg/ports"
	"github.com/google/uuid"
)

// ErrQueueClosed is returned when enqueueing on a closed queue
var ErrQueueClosed = errors.New("queue closed")

// InMemoryQueue implements ports.JobQueue with a buffered channel.
// This is for testing purposes only; jobs do not survive a restart.
type InMemoryQueue struct {
	jobs         chan domain.Job
	pollInterval time.Duration

	mu       sync.Mutex
	inFlight map[string]domain.Job
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue holding up to capacity jobs
func NewInMemoryQueue(capacity int, pollInterval time.Duration) *InMemoryQueue {
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	return &InMemoryQueue{
		jobs:         make(chan domain.Job, capacity),
		pollInterval: pollInterval,
		inFlight:     make(map[string]domain.Job),
	}
}

// Enqueue adds a job, blocking while the buffer is full
func (q *InMemoryQueue) Enqueue(ctx context.Context, jobType, orderID string, opts domain.JobOptions) (*domain.Job, error) {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return nil, ErrQueueClosed
	}

	job := domain.Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		OrderID:    orderID,
		Options:    opts,
		EnqueuedAt: time.Now().UTC(),
	}

	select {
	case q.jobs <- job:
		return &job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dequeue waits up to the poll interval for a job
func (q *InMemoryQueue) Dequeue(ctx context.Context) (*ports.Delivery, error) {
	timer := time.NewTimer(q.pollInterval)
	defer timer.Stop()

	select {
	case job := <-q.jobs:
		q.mu.Lock()
		q.inFlight[job.ID] = job
		q.mu.Unlock()
		return &ports.Delivery{Job: job, Ref: job.ID}, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ack marks a job as processed
func (q *InMemoryQueue) Ack(ctx context.Context, d *ports.Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.inFlight, d.Ref)
	return nil
}

// Depth returns waiting plus in-flight jobs
func (q *InMemoryQueue) Depth(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return int64(len(q.jobs) + len(q.inFlight)), nil
}

// Close stops accepting new jobs
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	return nil
}
