package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aescanero/swapd/internal/application/notify"
	cachemem "github.com/aescanero/swapd/pkg/adapters/cache/memory"
	metrics "github.com/aescanero/swapd/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/swapd/pkg/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type streamFixture struct {
	hub    *notify.Hub
	cache  *cachemem.ActiveOrderCache
	server *httptest.Server
}

func newStreamFixture(t *testing.T) *streamFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)
	cache := cachemem.NewActiveOrderCache(time.Hour)
	hub := notify.NewHub(cache, metrics.NewCollector(prometheus.NewRegistry()), logger)

	router := gin.New()
	router.GET("/ws/orders", NewHandler(hub, time.Second, logger).HandleOrderStream)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &streamFixture{hub: hub, cache: cache, server: server}
}

func (f *streamFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/orders" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) domain.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg domain.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandleOrderStream_MissingOrderIDCloses(t *testing.T) {
	f := newStreamFixture(t)
	conn := f.dial(t, "")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	assert.Empty(t, f.hub.Orders())
}

func TestHandleOrderStream_SnapshotThenEvents(t *testing.T) {
	f := newStreamFixture(t)
	order := domain.NewOrder("SOL", "USDC", decimal.NewFromInt(100), time.Now())
	require.NoError(t, f.cache.Set(context.Background(), order.ToActiveOrder()))

	conn := f.dial(t, "?orderId="+order.ID)

	snapshot := readMessage(t, conn)
	assert.Equal(t, domain.MessageTypeSnapshot, snapshot.Type)
	assert.Equal(t, domain.OrderStatusPending, snapshot.Status)

	require.NoError(t, order.Apply(domain.ToRouting{}, time.Now()))
	f.hub.Publish(order.ID, domain.NewEventMessage(order))

	event := readMessage(t, conn)
	assert.Equal(t, domain.MessageTypeEvent, event.Type)
	assert.Equal(t, domain.OrderStatusRouting, event.Status)
	assert.Equal(t, order.ID, event.OrderID)
}

func TestHandleOrderStream_NoSnapshotForUnknownOrder(t *testing.T) {
	f := newStreamFixture(t)
	conn := f.dial(t, "?orderId=ord_unknown")

	require.Eventually(t, func() bool { return f.hub.Count("ord_unknown") == 1 }, 2*time.Second, 10*time.Millisecond)

	f.hub.Publish("ord_unknown", &domain.Message{
		Type:    domain.MessageTypeEvent,
		OrderID: "ord_unknown",
		Status:  domain.OrderStatusRouting,
	})

	msg := readMessage(t, conn)
	assert.Equal(t, domain.MessageTypeEvent, msg.Type)
}

func TestHandleOrderStream_CloseUnsubscribes(t *testing.T) {
	f := newStreamFixture(t)
	conn := f.dial(t, "?orderId=ord_1")

	require.Eventually(t, func() bool { return f.hub.Count("ord_1") == 1 }, 2*time.Second, 10*time.Millisecond)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	require.NoError(t, conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)))
	_ = conn.Close()

	require.Eventually(t, func() bool { return len(f.hub.Orders()) == 0 }, 2*time.Second, 10*time.Millisecond)
}
