package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned for operations on an unknown order id
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned when the lifecycle forbids a status change
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports malformed intake input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ProviderError reports a failed or timed out venue quote
type ProviderError struct {
	Venue string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("venue %s: %v", e.Venue, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// PersistenceError reports an unreachable repository or cache
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
