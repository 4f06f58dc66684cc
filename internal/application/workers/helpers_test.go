package workers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/swapd/internal/application/notify"
	cachemem "github.com/aescanero/swapd/pkg/adapters/cache/memory"
	metrics "github.com/aescanero/swapd/pkg/adapters/metrics/prometheus"
	storemem "github.com/aescanero/swapd/pkg/adapters/storage/memory"
	"github.com/aescanero/swapd/pkg/domain"
	"github.com/aescanero/swapd/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingChannel struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *recordingChannel) ID() string   { return "recorder" }
func (c *recordingChannel) IsOpen() bool { return true }
func (c *recordingChannel) Close() error { return nil }

func (c *recordingChannel) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, data)
	return nil
}

func (c *recordingChannel) messages(t *testing.T) []domain.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Message, 0, len(c.frames))
	for _, f := range c.frames {
		var m domain.Message
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func (c *recordingChannel) raw() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, string(f))
	}
	return out
}

func statuses(msgs []domain.Message) []domain.OrderStatus {
	out := make([]domain.OrderStatus, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Status)
	}
	return out
}

type stubRouter struct {
	mu    sync.Mutex
	calls int
	dex   string
	price string
	err   error
}

func (r *stubRouter) Route(_ context.Context, _, _ string, _ decimal.Decimal) (*domain.RouteDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	q := domain.DexQuote{Venue: r.dex, Price: decimal.RequireFromString(r.price)}
	return &domain.RouteDecision{BestDex: r.dex, BestQuote: q, AllQuotes: []domain.DexQuote{q}}, nil
}

func (r *stubRouter) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type stubSubmitter struct {
	mu       sync.Mutex
	calls    int
	failures int
	txHash   string
}

func (s *stubSubmitter) Submit(_ context.Context, _ *domain.Order, decision *domain.RouteDecision) (*domain.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return nil, errSubmit
	}
	return &domain.Execution{TxHash: s.txHash, ExecutedPrice: decision.BestQuote.Price}, nil
}

var errLogDown = errors.New("failure log unavailable")

type flakyFailureLog struct {
	*storemem.FailureLog

	mu           sync.Mutex
	appendErrors int
}

func (l *flakyFailureLog) Append(ctx context.Context, orderID, reason string) (*domain.OrderFailure, error) {
	l.mu.Lock()
	if l.appendErrors > 0 {
		l.appendErrors--
		l.mu.Unlock()
		return nil, &domain.PersistenceError{Op: "append order failure", Err: errLogDown}
	}
	l.mu.Unlock()
	return l.FailureLog.Append(ctx, orderID, reason)
}

type testEnv struct {
	orders    *storemem.OrderRepository
	failures  *storemem.FailureLog
	cache     *cachemem.ActiveOrderCache
	hub       *notify.Hub
	metrics   *metrics.Collector
	registry  *prometheus.Registry
	router    *stubRouter
	submitter *stubSubmitter
	executor  *Executor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	registry := prometheus.NewRegistry()
	env := &testEnv{
		orders:    storemem.NewOrderRepository(),
		failures:  storemem.NewFailureLog(),
		cache:     cachemem.NewActiveOrderCache(time.Hour),
		metrics:   metrics.NewCollector(registry),
		registry:  registry,
		router:    &stubRouter{dex: domain.VenueRaydium, price: "100.5"},
		submitter: &stubSubmitter{txHash: "tx_1"},
	}
	logger := zaptest.NewLogger(t)
	env.hub = notify.NewHub(env.cache, env.metrics, logger)
	env.executor = NewExecutor(ExecutorDeps{
		Orders:    env.orders,
		Failures:  env.failures,
		Cache:     env.cache,
		Router:    env.router,
		Submitter: env.submitter,
		Notifier:  env.hub,
		Metrics:   env.metrics,
		Logger:    logger,
	})
	return env
}

// executorWithFailures builds an executor that shares the env but logs
// failures to log
func (e *testEnv) executorWithFailures(t *testing.T, log ports.FailureLog) *Executor {
	t.Helper()
	return NewExecutor(ExecutorDeps{
		Orders:    e.orders,
		Failures:  log,
		Cache:     e.cache,
		Router:    e.router,
		Submitter: e.submitter,
		Notifier:  e.hub,
		Metrics:   e.metrics,
		Logger:    zaptest.NewLogger(t),
	})
}

func (e *testEnv) newOrder(t *testing.T) *domain.Order {
	t.Helper()
	o := domain.NewOrder("SOL", "USDC", decimal.NewFromInt(100), time.Now())
	require.NoError(t, e.orders.Insert(context.Background(), o))
	return o
}

func (e *testEnv) observe(orderID string) *recordingChannel {
	ch := &recordingChannel{}
	e.hub.Subscribe(context.Background(), orderID, ch)
	return ch
}

// counterValue sums every series of the named counter
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
