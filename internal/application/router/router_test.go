package router

import (
	"context"
	"errors"
	"testing"
	"time"

	metrics "github.com/aescanero/swapd/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/swapd/pkg/domain"
	"github.com/aescanero/swapd/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubProvider struct {
	name  string
	price string
	delay time.Duration
	err   error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Quote(ctx context.Context, _, _ string, _ decimal.Decimal) (*domain.DexQuote, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.DexQuote{
		Venue:     s.name,
		Price:     decimal.RequireFromString(s.price),
		Fee:       decimal.RequireFromString("0.003"),
		Liquidity: decimal.NewFromInt(1000000),
	}, nil
}

func newRouter(t *testing.T, timeout time.Duration, providers ...ports.VenueProvider) *Router {
	t.Helper()
	return NewRouter(providers, timeout, metrics.NewCollector(prometheus.NewRegistry()), zaptest.NewLogger(t))
}

func TestRoute_HighestPriceWins(t *testing.T) {
	r := newRouter(t, time.Second,
		&stubProvider{name: "a", price: "100"},
		&stubProvider{name: "b", price: "105"},
	)

	decision, err := r.Route(context.Background(), "SOL", "USDC", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, "b", decision.BestDex)
	assert.True(t, decimal.NewFromInt(105).Equal(decision.BestQuote.Price))
	require.Len(t, decision.AllQuotes, 2)
	assert.Equal(t, "a", decision.AllQuotes[0].Venue)
	assert.Equal(t, "b", decision.AllQuotes[1].Venue)
}

func TestRoute_TieGoesToFirstRegistered(t *testing.T) {
	r := newRouter(t, time.Second,
		&stubProvider{name: "a", price: "100"},
		&stubProvider{name: "b", price: "100.000"},
	)

	decision, err := r.Route(context.Background(), "SOL", "USDC", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, "a", decision.BestDex)
}

func TestRoute_ProviderErrorFailsAttempt(t *testing.T) {
	boom := errors.New("boom")
	r := newRouter(t, time.Second,
		&stubProvider{name: "a", price: "100"},
		&stubProvider{name: "b", err: boom},
	)

	decision, err := r.Route(context.Background(), "SOL", "USDC", decimal.NewFromInt(10))
	assert.Nil(t, decision)
	require.Error(t, err)

	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "b", perr.Venue)
	assert.ErrorIs(t, err, boom)
}

func TestRoute_TimeoutFailsAttempt(t *testing.T) {
	r := newRouter(t, 20*time.Millisecond,
		&stubProvider{name: "a", price: "100"},
		&stubProvider{name: "slow", price: "200", delay: time.Second},
	)

	start := time.Now()
	_, err := r.Route(context.Background(), "SOL", "USDC", decimal.NewFromInt(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRoute_NoProviders(t *testing.T) {
	r := newRouter(t, time.Second)

	_, err := r.Route(context.Background(), "SOL", "USDC", decimal.NewFromInt(10))
	assert.Error(t, err)
}

func TestRoute_QuoteVenueNameFollowsProvider(t *testing.T) {
	r := newRouter(t, time.Second, &mislabelled{})

	decision, err := r.Route(context.Background(), "SOL", "USDC", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, "real", decision.BestDex)
}

type mislabelled struct{}

func (mislabelled) Name() string { return "real" }

func (mislabelled) Quote(context.Context, string, string, decimal.Decimal) (*domain.DexQuote, error) {
	return &domain.DexQuote{Venue: "other", Price: decimal.NewFromInt(1)}, nil
}
