package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
)

// OrderRepository implements ports.OrderRepository using an in-memory map.
// This is for testing and single-node development only.
type OrderRepository struct {
	orders map[string]*domain.Order
	mu     sync.RWMutex
	now    func() time.Time
}

// NewOrderRepository creates a new in-memory order repository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
		now:    time.Now,
	}
}

// Insert stores a new order
func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("order already exists: %s", order.ID)
	}

	// Copy to avoid mutations through the caller's pointer
	r.orders[order.ID] = order.Clone()
	return nil
}

// Update applies a transition to a stored order
func (r *OrderRepository) Update(ctx context.Context, id string, t domain.Transition) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}

	updated := stored.Clone()
	if err := updated.Apply(t, r.now()); err != nil {
		return nil, err
	}

	r.orders[id] = updated
	return updated.Clone(), nil
}

// FindByID retrieves an order
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order.Clone(), nil
}

// ListPage returns orders newest first
func (r *OrderRepository) ListPage(ctx context.Context, offset, limit int) (*domain.Page[domain.Order], error) {
	r.mu.RLock()
	all := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		all = append(all, *o.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	return &domain.Page[domain.Order]{
		Data:       window(all, offset, limit),
		TotalCount: int64(len(all)),
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// FailureLog implements ports.FailureLog in memory
type FailureLog struct {
	rows   []domain.OrderFailure
	nextID uint64
	mu     sync.RWMutex
	now    func() time.Time
}

// NewFailureLog creates a new in-memory failure log
func NewFailureLog() *FailureLog {
	return &FailureLog{now: time.Now}
}

// Append records a failure
func (l *FailureLog) Append(ctx context.Context, orderID, reason string) (*domain.OrderFailure, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	now := l.now()
	row := domain.OrderFailure{
		ID:        l.nextID,
		OrderID:   orderID,
		Reason:    reason,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.rows = append(l.rows, row)

	return &row, nil
}

// ListPage returns failures newest first
func (l *FailureLog) ListPage(ctx context.Context, offset, limit int) (*domain.Page[domain.OrderFailure], error) {
	l.mu.RLock()
	// Rows are appended in id order, so reversing yields recency order
	all := make([]domain.OrderFailure, len(l.rows))
	for i, row := range l.rows {
		all[len(l.rows)-1-i] = row
	}
	l.mu.RUnlock()

	return &domain.Page[domain.OrderFailure]{
		Data:       window(all, offset, limit),
		TotalCount: int64(len(all)),
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// Recorded reports whether orderID has a failure row
func (l *FailureLog) Recorded(ctx context.Context, orderID string) (bool, error) {
	return len(l.ForOrder(orderID)) > 0, nil
}

// ForOrder returns every failure recorded for an order
func (l *FailureLog) ForOrder(orderID string) []domain.OrderFailure {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var rows []domain.OrderFailure
	for _, row := range l.rows {
		if row.OrderID == orderID {
			rows = append(rows, row)
		}
	}
	return rows
}

func window[T any](all []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) || limit <= 0 {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
