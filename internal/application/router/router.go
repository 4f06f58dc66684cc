// Package router selects the venue that executes an order.
//
// The router asks every registered venue for a quote concurrently and picks
// the highest price. A routing attempt succeeds only when every venue
// answers in time; ties go to the venue registered first.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/aescanero/swapd/pkg/ports"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultProviderTimeout bounds a single venue quote
const DefaultProviderTimeout = 2 * time.Second

// Router fans quote requests out to venue providers
type Router struct {
	providers []ports.VenueProvider
	timeout   time.Duration
	metrics   ports.MetricsCollector
	logger    *zap.Logger
}

// NewRouter creates a router over providers in tie-break order
func NewRouter(providers []ports.VenueProvider, timeout time.Duration, metrics ports.MetricsCollector, logger *zap.Logger) *Router {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Router{
		providers: providers,
		timeout:   timeout,
		metrics:   metrics,
		logger:    logger,
	}
}

// Route quotes the swap on every venue and returns the best offer together
// with all quotes in registration order
func (r *Router) Route(ctx context.Context, tokenIn, tokenOut string, amount decimal.Decimal) (*domain.RouteDecision, error) {
	if len(r.providers) == 0 {
		return nil, fmt.Errorf("no venue providers registered")
	}

	quotes := make([]domain.DexQuote, len(r.providers))
	g, gctx := errgroup.WithContext(ctx)

	for i, p := range r.providers {
		g.Go(func() error {
			q, err := r.quote(gctx, p, tokenIn, tokenOut, amount)
			if err != nil {
				return err
			}
			quotes[i] = *q
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := selectBest(quotes)

	r.logger.Info("route selected",
		zap.String("token_in", tokenIn),
		zap.String("token_out", tokenOut),
		zap.String("amount", amount.String()),
		zap.String("venue", best.Venue),
		zap.String("price", best.Price.String()),
		zap.Int("quotes", len(quotes)))

	return &domain.RouteDecision{
		BestDex:   best.Venue,
		BestQuote: best,
		AllQuotes: quotes,
	}, nil
}

func (r *Router) quote(ctx context.Context, p ports.VenueProvider, tokenIn, tokenOut string, amount decimal.Decimal) (*domain.DexQuote, error) {
	qctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	q, err := p.Quote(qctx, tokenIn, tokenOut, amount)
	if err == nil && q == nil {
		err = fmt.Errorf("empty quote")
	}
	r.metrics.RecordQuote(p.Name(), err == nil, time.Since(start))

	if err != nil {
		r.logger.Warn("venue quote failed",
			zap.String("venue", p.Name()),
			zap.Error(err))
		return nil, &domain.ProviderError{Venue: p.Name(), Err: err}
	}

	// The venue name on the quote must match the registered provider
	q.Venue = p.Name()
	return q, nil
}

// selectBest returns the quote with the strictly greatest price; on a tie the
// earliest quote wins
func selectBest(quotes []domain.DexQuote) domain.DexQuote {
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.Price.GreaterThan(best.Price) {
			best = q
		}
	}
	return best
}
