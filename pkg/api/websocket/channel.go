package websocket

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrChannelClosed is returned when sending on a closed connection
var ErrChannelClosed = errors.New("channel closed")

// connChannel adapts a WebSocket connection to ports.Channel. gorilla
// connections allow one concurrent writer, so writes are serialized.
type connChannel struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed atomic.Bool
}

func newConnChannel(conn *websocket.Conn, writeTimeout time.Duration) *connChannel {
	return &connChannel{
		id:           uuid.New().String(),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (c *connChannel) ID() string {
	return c.id
}

func (c *connChannel) IsOpen() bool {
	return !c.closed.Load()
}

// Send writes one text frame, bounded by the write timeout
func (c *connChannel) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return ErrChannelClosed
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.closed.Store(true)
		_ = c.conn.Close()
		return err
	}
	return nil
}

func (c *connChannel) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return ErrChannelClosed
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// Close sends a normal close frame and releases the connection
func (c *connChannel) Close() error {
	return c.closeWith(websocket.CloseNormalClosure, "")
}

func (c *connChannel) closeWith(code int, reason string) error {
	if c.closed.Swap(true) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
	return c.conn.Close()
}
