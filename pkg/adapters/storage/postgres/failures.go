package postgres

import (
	"context"

	"github.com/aescanero/swapd/pkg/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FailureLog implements ports.FailureLog on the order_failures table
type FailureLog struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewFailureLog creates a new gorm backed failure log
func NewFailureLog(db *gorm.DB, logger *zap.Logger) *FailureLog {
	return &FailureLog{
		db:     db,
		logger: logger,
	}
}

// Append inserts a failure row
func (l *FailureLog) Append(ctx context.Context, orderID, reason string) (*domain.OrderFailure, error) {
	now := l.db.NowFunc()
	rec := &orderFailureRecord{
		OrderID:   orderID,
		Reason:    reason,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := l.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "append order failure", Err: err}
	}

	l.logger.Debug("order failure recorded",
		zap.Uint64("failure_id", rec.ID),
		zap.String("order_id", orderID))

	failure := rec.toDomain()
	return &failure, nil
}

// Recorded reports whether orderID has a failure row
func (l *FailureLog) Recorded(ctx context.Context, orderID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&orderFailureRecord{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, &domain.PersistenceError{Op: "lookup order failure", Err: err}
	}
	return count > 0, nil
}

// ListPage returns failures newest first together with the total row count
func (l *FailureLog) ListPage(ctx context.Context, offset, limit int) (*domain.Page[domain.OrderFailure], error) {
	db := l.db.WithContext(ctx)

	var total int64
	if err := db.Model(&orderFailureRecord{}).Count(&total).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "count order failures", Err: err}
	}

	var recs []orderFailureRecord
	err := db.Order("created_at desc").Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list order failures", Err: err}
	}

	data := make([]domain.OrderFailure, 0, len(recs))
	for i := range recs {
		data = append(data, recs[i].toDomain())
	}

	return &domain.Page[domain.OrderFailure]{
		Data:       data,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}
