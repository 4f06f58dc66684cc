package venue

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrQuoteTimeout is the injected simulated venue failure
var ErrQuoteTimeout = errors.New("DEX quote timeout")

// Profile describes the pricing behaviour of a simulated venue. Quoted prices
// fall in [BasePrice*SpreadLow, BasePrice*(SpreadLow+SpreadWidth)).
type Profile struct {
	Name        string
	BasePrice   decimal.Decimal
	SpreadLow   float64
	SpreadWidth float64
	Fee         decimal.Decimal
	Liquidity   decimal.Decimal
}

// RaydiumProfile mirrors Raydium's pricing band
func RaydiumProfile() Profile {
	return Profile{
		Name:        domain.VenueRaydium,
		BasePrice:   decimal.NewFromInt(100),
		SpreadLow:   0.98,
		SpreadWidth: 0.04,
		Fee:         decimal.RequireFromString("0.003"),
		Liquidity:   decimal.NewFromInt(1_000_000),
	}
}

// MeteoraProfile mirrors Meteora's pricing band
func MeteoraProfile() Profile {
	return Profile{
		Name:        domain.VenueMeteora,
		BasePrice:   decimal.NewFromInt(100),
		SpreadLow:   0.97,
		SpreadWidth: 0.05,
		Fee:         decimal.RequireFromString("0.002"),
		Liquidity:   decimal.NewFromInt(800_000),
	}
}

// SimulatedVenue quotes from a price band after a fixed latency
type SimulatedVenue struct {
	profile     Profile
	latency     time.Duration
	failureRate float64
	logger      *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedVenue creates a simulated venue. failureRate is the probability
// in [0,1] that a quote fails with ErrQuoteTimeout.
func NewSimulatedVenue(profile Profile, latency time.Duration, failureRate float64, logger *zap.Logger) *SimulatedVenue {
	return &SimulatedVenue{
		profile:     profile,
		latency:     latency,
		failureRate: failureRate,
		logger:      logger,
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
}

// Name returns the venue name
func (v *SimulatedVenue) Name() string {
	return v.profile.Name
}

// Quote returns a price within the venue's band
func (v *SimulatedVenue) Quote(ctx context.Context, tokenIn, tokenOut string, amount decimal.Decimal) (*domain.DexQuote, error) {
	if v.latency > 0 {
		timer := time.NewTimer(v.latency)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	v.mu.Lock()
	fail := v.rng.Float64() < v.failureRate
	factor := v.profile.SpreadLow + v.rng.Float64()*v.profile.SpreadWidth
	v.mu.Unlock()

	if fail {
		return nil, ErrQuoteTimeout
	}

	price := v.profile.BasePrice.Mul(decimal.NewFromFloat(factor)).Round(6)

	v.logger.Debug("venue quote",
		zap.String("venue", v.profile.Name),
		zap.String("token_in", tokenIn),
		zap.String("token_out", tokenOut),
		zap.String("amount", amount.String()),
		zap.String("price", price.String()))

	return &domain.DexQuote{
		Venue:     v.profile.Name,
		Price:     price,
		Fee:       v.profile.Fee,
		Liquidity: v.profile.Liquidity,
	}, nil
}
