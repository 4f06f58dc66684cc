package postgres

import (
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/shopspring/decimal"
)

// Column names of the orders table. Every write goes through these so the
// Go to SQL field mapping lives in one place.
const (
	colStatus        = "status"
	colSelectedDex   = "selected_dex"
	colExecutedPrice = "executed_price"
	colTxHash        = "tx_hash"
	colFailureReason = "failure_reason"
	colUpdatedAt     = "updated_at"
)

type orderRecord struct {
	ID            string              `gorm:"column:id;primaryKey;type:varchar(64)"`
	TokenIn       string              `gorm:"column:token_in;not null;type:varchar(64)"`
	TokenOut      string              `gorm:"column:token_out;not null;type:varchar(64)"`
	Amount        decimal.Decimal     `gorm:"column:amount;not null;type:numeric"`
	Status        string              `gorm:"column:status;not null;type:varchar(16);index"`
	SelectedDex   *string             `gorm:"column:selected_dex;type:varchar(32)"`
	TxHash        *string             `gorm:"column:tx_hash;type:varchar(128)"`
	ExecutedPrice decimal.NullDecimal `gorm:"column:executed_price;type:numeric"`
	FailureReason *string             `gorm:"column:failure_reason;type:text"`
	CreatedAt     time.Time           `gorm:"column:created_at;not null;index;autoCreateTime:false"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (orderRecord) TableName() string {
	return "orders"
}

type orderFailureRecord struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   string    `gorm:"column:order_id;not null;type:varchar(64);index"`
	Reason    string    `gorm:"column:reason;not null;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (orderFailureRecord) TableName() string {
	return "order_failures"
}

func toOrderRecord(o *domain.Order) *orderRecord {
	r := &orderRecord{
		ID:            o.ID,
		TokenIn:       o.TokenIn,
		TokenOut:      o.TokenOut,
		Amount:        o.Amount,
		Status:        string(o.Status),
		SelectedDex:   o.SelectedDex,
		TxHash:        o.TxHash,
		FailureReason: o.FailureReason,
		CreatedAt:     o.CreatedAt.UTC(),
		UpdatedAt:     o.UpdatedAt.UTC(),
	}
	if o.ExecutedPrice != nil {
		r.ExecutedPrice = decimal.NewNullDecimal(*o.ExecutedPrice)
	}
	return r
}

func (r *orderRecord) toDomain() *domain.Order {
	o := &domain.Order{
		ID:            r.ID,
		TokenIn:       r.TokenIn,
		TokenOut:      r.TokenOut,
		Amount:        r.Amount,
		Status:        domain.OrderStatus(r.Status),
		SelectedDex:   r.SelectedDex,
		TxHash:        r.TxHash,
		FailureReason: r.FailureReason,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.ExecutedPrice.Valid {
		price := r.ExecutedPrice.Decimal
		o.ExecutedPrice = &price
	}
	return o
}

// mutableColumns lists the columns a transition may change
func mutableColumns(o *domain.Order) map[string]interface{} {
	r := toOrderRecord(o)
	return map[string]interface{}{
		colStatus:        r.Status,
		colSelectedDex:   r.SelectedDex,
		colExecutedPrice: r.ExecutedPrice,
		colTxHash:        r.TxHash,
		colFailureReason: r.FailureReason,
		colUpdatedAt:     r.UpdatedAt,
	}
}

func (r *orderFailureRecord) toDomain() domain.OrderFailure {
	return domain.OrderFailure{
		ID:        r.ID,
		OrderID:   r.OrderID,
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
