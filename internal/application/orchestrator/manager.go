package orchestrator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/aescanero/swapd/pkg/ports"
	"go.uber.org/zap"
)

// Pagination bounds
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// OrderService accepts orders and serves read queries
type OrderService struct {
	orders     ports.OrderRepository
	failures   ports.FailureLog
	queue      ports.JobQueue
	metrics    ports.MetricsCollector
	validator  *Validator
	jobOptions domain.JobOptions
	logger     *zap.Logger
	now        func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	orders ports.OrderRepository,
	failures ports.FailureLog,
	queue ports.JobQueue,
	metrics ports.MetricsCollector,
	validator *Validator,
	jobOptions domain.JobOptions,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:     orders,
		failures:   failures,
		queue:      queue,
		metrics:    metrics,
		validator:  validator,
		jobOptions: jobOptions,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateOrder validates req, stores a pending order and schedules its
// execution. The returned order is pending. The active-order cache is left to
// the worker, so observers see no snapshot until routing starts.
func (s *OrderService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	if err := s.validator.Validate(&req); err != nil {
		s.logger.Info("order rejected", zap.Error(err))
		return nil, err
	}

	order := domain.NewOrder(req.TokenIn, req.TokenOut, req.Amount, s.now().UTC())

	if err := s.orders.Insert(ctx, order); err != nil {
		s.logger.Error("failed to store order",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to store order: %w", err)
	}

	job, err := s.queue.Enqueue(ctx, domain.JobTypeExecuteOrder, order.ID, s.jobOptions)
	if err != nil {
		s.logger.Error("failed to enqueue order",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to enqueue order: %w", err)
	}

	s.metrics.RecordOrderCreated()
	s.logger.Info("order accepted",
		zap.String("order_id", order.ID),
		zap.String("job_id", job.ID),
		zap.String("token_in", order.TokenIn),
		zap.String("token_out", order.TokenOut),
		zap.String("amount", order.Amount.String()))

	return order, nil
}

// GetOrder returns the stored order or domain.ErrOrderNotFound
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

// ListOrders returns one page of orders, newest first. page is 1-based.
func (s *OrderService) ListOrders(ctx context.Context, page, limit int) (*domain.Page[domain.Order], error) {
	offset, limit := pageWindow(page, limit)
	return s.orders.ListPage(ctx, offset, limit)
}

// ListFailures returns one page of the failure log, newest first
func (s *OrderService) ListFailures(ctx context.Context, page, limit int) (*domain.Page[domain.OrderFailure], error) {
	offset, limit := pageWindow(page, limit)
	return s.failures.ListPage(ctx, offset, limit)
}

// pageWindow converts a 1-based page into an offset, clamping the limit.
// Pages past math.MaxInt32 rows map to an offset no store can reach.
func pageWindow(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page-1 > math.MaxInt32/limit {
		return math.MaxInt32, limit
	}
	return (page - 1) * limit, limit
}
