package orchestrator

import (
	"strings"

	"github.com/aescanero/swapd/pkg/domain"
)

// MaxTokenLength bounds a token symbol or mint address
const MaxTokenLength = 64

// Validator validates order requests
type Validator struct{}

// NewValidator creates a new order request validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks req and normalizes its token fields in place. It returns a
// *domain.ValidationError naming the first offending field.
func (v *Validator) Validate(req *domain.CreateOrderRequest) error {
	if req == nil {
		return &domain.ValidationError{Field: "request", Message: "is required"}
	}

	req.TokenIn = strings.TrimSpace(req.TokenIn)
	req.TokenOut = strings.TrimSpace(req.TokenOut)

	if err := validateToken("tokenIn", req.TokenIn); err != nil {
		return err
	}
	if err := validateToken("tokenOut", req.TokenOut); err != nil {
		return err
	}

	if strings.EqualFold(req.TokenIn, req.TokenOut) {
		return &domain.ValidationError{Field: "tokenOut", Message: "must differ from tokenIn"}
	}

	if !req.Amount.IsPositive() {
		return &domain.ValidationError{Field: "amount", Message: "must be greater than zero"}
	}

	return nil
}

func validateToken(field, token string) error {
	if token == "" {
		return &domain.ValidationError{Field: field, Message: "is required"}
	}
	if len(token) > MaxTokenLength {
		return &domain.ValidationError{Field: field, Message: "is too long"}
	}
	return nil
}
