// Package ports declares the collaborator contracts the order pipeline depends on.
// Adapters under pkg/adapters implement them.
package ports

import (
	"context"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/shopspring/decimal"
)

// OrderRepository stores the canonical order record
type OrderRepository interface {
	Insert(ctx context.Context, order *domain.Order) error
	// Update applies a transition and returns the updated order.
	// Returns domain.ErrOrderNotFound when the id is unknown.
	Update(ctx context.Context, id string, t domain.Transition) (*domain.Order, error)
	// FindByID returns domain.ErrOrderNotFound when the id is unknown.
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	ListPage(ctx context.Context, offset, limit int) (*domain.Page[domain.Order], error)
}

// FailureLog is the append-only record of terminal failures
type FailureLog interface {
	Append(ctx context.Context, orderID, reason string) (*domain.OrderFailure, error)
	// Recorded reports whether a failure exists for orderID.
	Recorded(ctx context.Context, orderID string) (bool, error)
	ListPage(ctx context.Context, offset, limit int) (*domain.Page[domain.OrderFailure], error)
}

// ActiveOrderCache holds the TTL bound projection of in-flight orders
type ActiveOrderCache interface {
	Set(ctx context.Context, order *domain.ActiveOrder) error
	// Get returns nil, nil when no projection exists.
	Get(ctx context.Context, orderID string) (*domain.ActiveOrder, error)
	Delete(ctx context.Context, orderID string) error
}

// Delivery is a dequeued job awaiting acknowledgement
type Delivery struct {
	Job domain.Job
	Ref string
	// Reclaimed is set when the job was taken over from a consumer that
	// never acknowledged it.
	Reclaimed bool
}

// JobQueue is the durable hand-off between intake and the workers
type JobQueue interface {
	Enqueue(ctx context.Context, jobType, orderID string, opts domain.JobOptions) (*domain.Job, error)
	// Dequeue blocks for at most the queue's poll interval and returns nil, nil
	// when nothing arrived.
	Dequeue(ctx context.Context) (*Delivery, error)
	Ack(ctx context.Context, d *Delivery) error
	Depth(ctx context.Context) (int64, error)
	Close() error
}

// VenueProvider quotes a swap on one venue
type VenueProvider interface {
	Name() string
	Quote(ctx context.Context, tokenIn, tokenOut string, amount decimal.Decimal) (*domain.DexQuote, error)
}

// Submitter performs the external execution of a routed order
type Submitter interface {
	Submit(ctx context.Context, order *domain.Order, decision *domain.RouteDecision) (*domain.Execution, error)
}

// Channel is an observer connection. Implementations must be safe for
// concurrent use.
type Channel interface {
	ID() string
	Send(data []byte) error
	Close() error
	IsOpen() bool
}

// Notifier delivers order messages to observers
type Notifier interface {
	Publish(orderID string, msg *domain.Message)
}

// MetricsCollector records service metrics
type MetricsCollector interface {
	RecordOrderCreated()
	RecordTransition(status domain.OrderStatus)
	RecordJobCompleted(outcome string, attempts int, duration time.Duration)
	RecordJobRetry()
	RecordOrderVanished()
	RecordQuote(venue string, ok bool, duration time.Duration)
	RecordWorkerPoolStatus(idle, busy, stopped int)
	SetQueueDepth(depth int64)
	SetSubscribers(count int)
}
