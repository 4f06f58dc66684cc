package domain

import "github.com/shopspring/decimal"

// Transition is a status change together with the fields that change with it.
// The set of implementations is closed: only the types below satisfy it.
type Transition interface {
	Status() OrderStatus
	apply(o *Order)
}

// ToRouting moves an order into venue routing
type ToRouting struct{}

// ToBuilding records the routing decision
type ToBuilding struct {
	SelectedDex string
	QuotedPrice decimal.Decimal
}

// ToConfirmed records a successful execution
type ToConfirmed struct {
	TxHash        string
	ExecutedPrice decimal.Decimal
}

// ToFailed records a terminal failure
type ToFailed struct {
	Reason string
}

func (ToRouting) Status() OrderStatus   { return OrderStatusRouting }
func (ToBuilding) Status() OrderStatus  { return OrderStatusBuilding }
func (ToConfirmed) Status() OrderStatus { return OrderStatusConfirmed }
func (ToFailed) Status() OrderStatus    { return OrderStatusFailed }

func (ToRouting) apply(*Order) {}

// The quoted price stays provisional in ExecutedPrice until confirmation.
func (t ToBuilding) apply(o *Order) {
	dex := t.SelectedDex
	price := t.QuotedPrice
	o.SelectedDex = &dex
	o.ExecutedPrice = &price
}

func (t ToConfirmed) apply(o *Order) {
	hash := t.TxHash
	price := t.ExecutedPrice
	o.TxHash = &hash
	o.ExecutedPrice = &price
}

func (t ToFailed) apply(o *Order) {
	reason := t.Reason
	o.FailureReason = &reason
}
