package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/aescanero/swapd/pkg/ports"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Router selects the venue for an order
type Router interface {
	Route(ctx context.Context, tokenIn, tokenOut string, amount decimal.Decimal) (*domain.RouteDecision, error)
}

// Executor drives a single order through its lifecycle
type Executor struct {
	orders    ports.OrderRepository
	failures  ports.FailureLog
	cache     ports.ActiveOrderCache
	router    Router
	submitter ports.Submitter
	notifier  ports.Notifier
	metrics   ports.MetricsCollector
	logger    *zap.Logger
}

// ExecutorDeps groups the collaborators of an Executor
type ExecutorDeps struct {
	Orders    ports.OrderRepository
	Failures  ports.FailureLog
	Cache     ports.ActiveOrderCache
	Router    Router
	Submitter ports.Submitter
	Notifier  ports.Notifier
	Metrics   ports.MetricsCollector
	Logger    *zap.Logger
}

// NewExecutor creates a new order executor
func NewExecutor(deps ExecutorDeps) *Executor {
	return &Executor{
		orders:    deps.Orders,
		failures:  deps.Failures,
		cache:     deps.Cache,
		router:    deps.Router,
		submitter: deps.Submitter,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

// Execute advances the order from its persisted status until it reaches a
// terminal one. A retried call resumes where the previous one stopped, so no
// status is ever written twice. A missing or confirmed order is a no-op; a
// failed order only gets its failure row written if it is missing.
func (e *Executor) Execute(ctx context.Context, orderID string) error {
	for {
		order, err := e.orders.FindByID(ctx, orderID)
		if errors.Is(err, domain.ErrOrderNotFound) {
			e.logger.Warn("order vanished before execution",
				zap.String("order_id", orderID))
			e.metrics.RecordOrderVanished()
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}

		var t domain.Transition
		switch order.Status {
		case domain.OrderStatusConfirmed:
			return nil

		case domain.OrderStatusFailed:
			return e.recordFailure(ctx, order)

		case domain.OrderStatusPending:
			t = domain.ToRouting{}

		case domain.OrderStatusRouting:
			decision, err := e.router.Route(ctx, order.TokenIn, order.TokenOut, order.Amount)
			if err != nil {
				return fmt.Errorf("routing failed: %w", err)
			}
			t = domain.ToBuilding{
				SelectedDex: decision.BestDex,
				QuotedPrice: decision.BestQuote.Price,
			}

		case domain.OrderStatusBuilding, domain.OrderStatusSubmitted:
			exec, err := e.submitter.Submit(ctx, order, routedDecision(order))
			if err != nil {
				return fmt.Errorf("submission failed: %w", err)
			}
			t = domain.ToConfirmed{
				TxHash:        exec.TxHash,
				ExecutedPrice: exec.ExecutedPrice,
			}

		default:
			return fmt.Errorf("order %s has unknown status %q", orderID, order.Status)
		}

		if _, err := e.advance(ctx, orderID, t); err != nil {
			return err
		}
	}
}

// Fail moves the order to failed and records the reason in the failure log.
// It is called once per job, after the last attempt. Calling it again for an
// order that is already failed only fills in a missing failure row.
func (e *Executor) Fail(ctx context.Context, orderID, reason string) error {
	order, err := e.advance(ctx, orderID, domain.ToFailed{Reason: reason})
	if errors.Is(err, domain.ErrInvalidTransition) {
		current, findErr := e.orders.FindByID(ctx, orderID)
		if findErr == nil && current.Status == domain.OrderStatusFailed {
			order, err = current, nil
		}
	}
	if errors.Is(err, domain.ErrOrderNotFound) {
		e.logger.Warn("order vanished before failure was recorded",
			zap.String("order_id", orderID))
		e.metrics.RecordOrderVanished()
		return nil
	}
	if err != nil {
		return err
	}

	return e.recordFailure(ctx, order)
}

// recordFailure appends the failure row of a failed order unless one exists
func (e *Executor) recordFailure(ctx context.Context, order *domain.Order) error {
	recorded, err := e.failures.Recorded(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to read failure log: %w", err)
	}
	if recorded {
		return nil
	}

	var reason string
	if order.FailureReason != nil {
		reason = *order.FailureReason
	}
	if _, err := e.failures.Append(ctx, order.ID, reason); err != nil {
		return fmt.Errorf("failed to append failure log: %w", err)
	}
	return nil
}

// advance persists t, then refreshes the cache, then publishes. Only the
// persist step can fail the call.
func (e *Executor) advance(ctx context.Context, orderID string, t domain.Transition) (*domain.Order, error) {
	updated, err := e.orders.Update(ctx, orderID, t)
	if err != nil {
		return nil, fmt.Errorf("failed to persist %s: %w", t.Status(), err)
	}

	e.metrics.RecordTransition(updated.Status)

	e.logger.Info("order status changed",
		zap.String("order_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.Time("updated_at", updated.UpdatedAt))

	if err := e.cache.Set(ctx, updated.ToActiveOrder()); err != nil {
		e.logger.Warn("failed to cache order",
			zap.String("order_id", updated.ID),
			zap.Error(err))
	}

	e.notifier.Publish(updated.ID, domain.NewEventMessage(updated))

	return updated, nil
}

// routedDecision rebuilds the routing outcome persisted at the building step
func routedDecision(o *domain.Order) *domain.RouteDecision {
	var dex string
	if o.SelectedDex != nil {
		dex = *o.SelectedDex
	}
	var price decimal.Decimal
	if o.ExecutedPrice != nil {
		price = *o.ExecutedPrice
	}

	quote := domain.DexQuote{Venue: dex, Price: price}
	return &domain.RouteDecision{
		BestDex:   dex,
		BestQuote: quote,
		AllQuotes: []domain.DexQuote{quote},
	}
}
