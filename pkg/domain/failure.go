package domain

import "time"

// OrderFailure is an append-only record of a terminal order failure
type OrderFailure struct {
	ID        uint64    `json:"id"`
	OrderID   string    `json:"orderId"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Page is one window of a listing plus the size of the whole result set
type Page[T any] struct {
	Data       []T   `json:"data"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
