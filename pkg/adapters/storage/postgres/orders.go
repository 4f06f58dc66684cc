package postgres

import (
	"context"
	"errors"

	"github.com/aescanero/swapd/pkg/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderRepository implements ports.OrderRepository on top of gorm
type OrderRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new gorm backed order repository
func NewOrderRepository(db *gorm.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores a new order
func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if err := r.db.WithContext(ctx).Create(toOrderRecord(order)).Error; err != nil {
		return &domain.PersistenceError{Op: "insert order", Err: err}
	}
	return nil
}

// Update loads the order, applies the transition and writes the changed
// columns back. Concurrent writers are not serialized; the last write wins.
func (r *OrderRepository) Update(ctx context.Context, id string, t domain.Transition) (*domain.Order, error) {
	var updated *domain.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec orderRecord
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			return err
		}

		order := rec.toDomain()
		if err := order.Apply(t, r.db.NowFunc()); err != nil {
			return err
		}

		res := tx.Model(&orderRecord{}).Where("id = ?", id).Updates(mutableColumns(order))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		updated = order
		return nil
	})

	switch {
	case err == nil:
		r.logger.Debug("order updated",
			zap.String("order_id", id),
			zap.String("status", string(updated.Status)))
		return updated, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrOrderNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return nil, err
	default:
		return nil, &domain.PersistenceError{Op: "update order", Err: err}
	}
}

// FindByID retrieves an order
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var rec orderRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, &domain.PersistenceError{Op: "find order", Err: err}
	}
	return rec.toDomain(), nil
}

// ListPage returns orders newest first together with the total row count
func (r *OrderRepository) ListPage(ctx context.Context, offset, limit int) (*domain.Page[domain.Order], error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&orderRecord{}).Count(&total).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "count orders", Err: err}
	}

	var recs []orderRecord
	err := db.Order("created_at desc").Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list orders", Err: err}
	}

	data := make([]domain.Order, 0, len(recs))
	for i := range recs {
		data = append(data, *recs[i].toDomain())
	}

	return &domain.Page[domain.Order]{
		Data:       data,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}
