package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderIDPrefix prefixes every generated order id
const OrderIDPrefix = "ord_"

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusRouting   OrderStatus = "routing"
	OrderStatusBuilding  OrderStatus = "building"
	OrderStatusSubmitted OrderStatus = "submitted" // reserved, not produced by the pipeline
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusFailed    OrderStatus = "failed"
)

// allowedTransitions is the lifecycle graph. Terminal statuses have no entry.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusRouting, OrderStatusFailed},
	OrderStatusRouting:   {OrderStatusBuilding, OrderStatusFailed},
	OrderStatusBuilding:  {OrderStatusSubmitted, OrderStatusConfirmed, OrderStatusFailed},
	OrderStatusSubmitted: {OrderStatusConfirmed, OrderStatusFailed},
}

// IsValid reports whether s is a known status
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusRouting, OrderStatusBuilding,
		OrderStatusSubmitted, OrderStatusConfirmed, OrderStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusConfirmed || s == OrderStatusFailed
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is the canonical record of a requested swap
type Order struct {
	ID            string
	TokenIn       string
	TokenOut      string
	Amount        decimal.Decimal
	Status        OrderStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SelectedDex   *string
	ExecutedPrice *decimal.Decimal
	TxHash        *string
	FailureReason *string
}

// NewOrderID generates a globally unique order id
func NewOrderID() string {
	return OrderIDPrefix + uuid.New().String()
}

// NewOrder creates a pending order stamped with now
func NewOrder(tokenIn, tokenOut string, amount decimal.Decimal, now time.Time) *Order {
	return &Order{
		ID:        NewOrderID(),
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		Amount:    amount,
		Status:    OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply validates t against the lifecycle and mutates the order in place.
// UpdatedAt always moves strictly forward, even when now does not.
func (o *Order) Apply(t Transition, now time.Time) error {
	if t == nil {
		return fmt.Errorf("%w: nil transition", ErrInvalidTransition)
	}

	next := t.Status()
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}

	t.apply(o)
	o.Status = next

	if !now.After(o.UpdatedAt) {
		now = o.UpdatedAt.Add(time.Microsecond)
	}
	o.UpdatedAt = now

	return nil
}

// Clone returns a copy that shares no pointers with o
func (o *Order) Clone() *Order {
	c := *o
	if o.SelectedDex != nil {
		v := *o.SelectedDex
		c.SelectedDex = &v
	}
	if o.ExecutedPrice != nil {
		v := *o.ExecutedPrice
		c.ExecutedPrice = &v
	}
	if o.TxHash != nil {
		v := *o.TxHash
		c.TxHash = &v
	}
	if o.FailureReason != nil {
		v := *o.FailureReason
		c.FailureReason = &v
	}
	return &c
}

// ToActiveOrder projects the order into its cache representation
func (o *Order) ToActiveOrder() *ActiveOrder {
	a := &ActiveOrder{
		ID:            o.ID,
		Status:        o.Status,
		TokenIn:       o.TokenIn,
		TokenOut:      o.TokenOut,
		Amount:        o.Amount,
		SelectedDex:   o.SelectedDex,
		ExecutedPrice: o.ExecutedPrice,
		TxHash:        o.TxHash,
		FailureReason: o.FailureReason,
		UpdatedAt:     o.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	return a
}

// CreateOrderRequest carries the caller supplied fields of a new order
type CreateOrderRequest struct {
	TokenIn  string          `json:"tokenIn"`
	TokenOut string          `json:"tokenOut"`
	Amount   decimal.Decimal `json:"amount"`
}
