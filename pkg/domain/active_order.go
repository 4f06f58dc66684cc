package domain

import "github.com/shopspring/decimal"

// ActiveOrder is the short lived projection of an order kept in the cache.
// It is not authoritative; the repository holds the canonical record.
type ActiveOrder struct {
	ID            string           `json:"id"`
	Status        OrderStatus      `json:"status"`
	TokenIn       string           `json:"tokenIn"`
	TokenOut      string           `json:"tokenOut"`
	Amount        decimal.Decimal  `json:"amount"`
	SelectedDex   *string          `json:"selectedDex,omitempty"`
	ExecutedPrice *decimal.Decimal `json:"executedPrice,omitempty"`
	TxHash        *string          `json:"txHash,omitempty"`
	FailureReason *string          `json:"failureReason,omitempty"`
	UpdatedAt     string           `json:"updatedAt"`
}
