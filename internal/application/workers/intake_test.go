package workers

import (
	"context"
	"testing"
	"time"

	"github.com/aescanero/swapd/internal/application/orchestrator"
	queuemem "github.com/aescanero/swapd/pkg/adapters/queue/memory"
	"github.com/aescanero/swapd/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCreatedOrder_ObservedThroughConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.router.dex = domain.VenueMeteora
	env.router.price = "99.25"
	env.submitter.txHash = "tx_e2e"
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	queue := queuemem.NewInMemoryQueue(64, 10*time.Millisecond)
	service := orchestrator.NewOrderService(env.orders, env.failures, queue, env.metrics,
		orchestrator.NewValidator(), fastJobOptions(3), logger)

	order, err := service.CreateOrder(ctx, domain.CreateOrderRequest{
		TokenIn:  "SOL",
		TokenOut: "USDC",
		Amount:   decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// Nothing is cached before the worker picks the job up
	ch := env.observe(order.ID)
	assert.Empty(t, ch.raw())

	pool := NewPool(PoolConfig{
		Size:                2,
		RateLimit:           1000,
		RateWindow:          time.Second,
		AttemptTimeout:      time.Second,
		HealthCheckInterval: time.Hour,
	}, queue, env.executor, env.metrics, logger)
	require.NoError(t, pool.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})

	waitForStatus(t, env, order.ID, domain.OrderStatusConfirmed)
	require.Eventually(t, func() bool {
		depth, err := queue.Depth(ctx)
		return err == nil && depth == 0
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{
		`{"type":"event","orderId":"` + order.ID + `","status":"routing"}`,
		`{"type":"event","orderId":"` + order.ID + `","status":"building","selectedDex":"meteora","executedPrice":99.25}`,
		`{"type":"event","orderId":"` + order.ID + `","status":"confirmed","selectedDex":"meteora","executedPrice":99.25,"txHash":"tx_e2e"}`,
	}, ch.raw())

	stored, err := service.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, stored.Status)
	require.NotNil(t, stored.SelectedDex)
	assert.Equal(t, domain.VenueMeteora, *stored.SelectedDex)
	require.NotNil(t, stored.ExecutedPrice)
	assert.True(t, decimal.RequireFromString("99.25").Equal(*stored.ExecutedPrice))
	require.NotNil(t, stored.TxHash)
	assert.Equal(t, "tx_e2e", *stored.TxHash)
	assert.Nil(t, stored.FailureReason)
	assert.Empty(t, env.failures.ForOrder(order.ID))
}
