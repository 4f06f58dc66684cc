// Package submitter provides order execution backends. Real chain submission
// is out of scope; the simulated submitter stands in for it.
package submitter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SimulatedSubmitter confirms every routed order at the quoted price after a
// fixed latency
type SimulatedSubmitter struct {
	latency time.Duration
	logger  *zap.Logger
}

// NewSimulatedSubmitter creates a new simulated submitter
func NewSimulatedSubmitter(latency time.Duration, logger *zap.Logger) *SimulatedSubmitter {
	return &SimulatedSubmitter{
		latency: latency,
		logger:  logger,
	}
}

// Submit waits the configured latency and returns a mock transaction
func (s *SimulatedSubmitter) Submit(ctx context.Context, order *domain.Order, decision *domain.RouteDecision) (*domain.Execution, error) {
	if decision == nil {
		return nil, fmt.Errorf("route decision is required")
	}

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	exec := &domain.Execution{
		TxHash:        "mock_tx_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		ExecutedPrice: decision.BestQuote.Price,
	}

	s.logger.Info("order submitted",
		zap.String("order_id", order.ID),
		zap.String("venue", decision.BestDex),
		zap.String("tx_hash", exec.TxHash))

	return exec, nil
}
