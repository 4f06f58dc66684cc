package submitter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSimulatedSubmitter_Submit(t *testing.T) {
	s := NewSimulatedSubmitter(0, zap.NewNop())
	order := domain.NewOrder("SOL", "USDC", decimal.NewFromInt(100), time.Now())
	decision := &domain.RouteDecision{
		BestDex:   domain.VenueMeteora,
		BestQuote: domain.DexQuote{Venue: domain.VenueMeteora, Price: decimal.RequireFromString("101.1")},
	}

	exec, err := s.Submit(context.Background(), order, decision)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(exec.TxHash, "mock_tx_"))
	assert.True(t, decision.BestQuote.Price.Equal(exec.ExecutedPrice))

	other, err := s.Submit(context.Background(), order, decision)
	require.NoError(t, err)
	assert.NotEqual(t, exec.TxHash, other.TxHash)
}

func TestSimulatedSubmitter_Errors(t *testing.T) {
	s := NewSimulatedSubmitter(time.Second, zap.NewNop())
	order := domain.NewOrder("SOL", "USDC", decimal.NewFromInt(100), time.Now())

	_, err := s.Submit(context.Background(), order, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Submit(ctx, order, &domain.RouteDecision{})
	assert.ErrorIs(t, err, context.Canceled)
}
