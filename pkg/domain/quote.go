package domain

import "github.com/shopspring/decimal"

// Venue names of the bundled venues
const (
	VenueRaydium = "raydium"
	VenueMeteora = "meteora"
)

// DexQuote is a venue's offer for a swap
type DexQuote struct {
	Venue     string          `json:"dex"`
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	Liquidity decimal.Decimal `json:"liquidity"`
}

// RouteDecision is the outcome of a routing attempt
type RouteDecision struct {
	BestDex   string     `json:"bestDex"`
	BestQuote DexQuote   `json:"bestQuote"`
	AllQuotes []DexQuote `json:"allQuotes"`
}

// Execution is the result of submitting a routed order
type Execution struct {
	TxHash        string
	ExecutedPrice decimal.Decimal
}
