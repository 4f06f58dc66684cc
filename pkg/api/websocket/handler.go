package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/aescanero/swapd/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// pongWait is how long a connection may stay silent before it is dropped
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Subscriber registers observer channels for an order
type Subscriber interface {
	Subscribe(ctx context.Context, orderID string, ch ports.Channel)
	Unsubscribe(orderID string, ch ports.Channel)
}

// Handler handles WebSocket connections
type Handler struct {
	hub          Subscriber
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub Subscriber, writeTimeout time.Duration, logger *zap.Logger) *Handler {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Handler{
		hub:          hub,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// HandleOrderStream streams status messages of the order named by the
// orderId query parameter. Without orderId the connection is closed at once.
func (h *Handler) HandleOrderStream(c *gin.Context) {
	orderID := c.Query("orderId")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	ch := newConnChannel(conn, h.writeTimeout)

	if orderID == "" {
		h.logger.Info("closing stream without order id", zap.String("client", c.ClientIP()))
		_ = ch.closeWith(websocket.ClosePolicyViolation, "orderId is required")
		return
	}

	h.logger.Info("WebSocket connection established",
		zap.String("order_id", orderID),
		zap.String("channel_id", ch.ID()),
		zap.String("client", c.ClientIP()))

	ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
	h.hub.Subscribe(ctx, orderID, ch)
	cancel()

	defer func() {
		h.hub.Unsubscribe(orderID, ch)
		_ = ch.Close()
		h.logger.Info("WebSocket connection closed",
			zap.String("order_id", orderID),
			zap.String("channel_id", ch.ID()))
	}()

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(ch, done)

	// Clients do not send anything; reading only surfaces close frames and
	// pong replies.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("unexpected close", zap.String("order_id", orderID), zap.Error(err))
			}
			return
		}
	}
}

// keepAlive pings the client until done is closed or a ping fails
func (h *Handler) keepAlive(ch *connChannel, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := ch.ping(); err != nil {
				return
			}
		}
	}
}
