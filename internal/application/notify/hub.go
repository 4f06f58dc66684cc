package notify

import (
	"context"
	"sync"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/aescanero/swapd/pkg/ports"
	"go.uber.org/zap"
)

// entry holds the channels of one order. mu serializes delivery so a
// subscriber's snapshot is always written before live events reach it.
type entry struct {
	mu       sync.Mutex
	channels map[ports.Channel]struct{}
}

// Hub implements ports.Notifier
type Hub struct {
	cache   ports.ActiveOrderCache
	metrics ports.MetricsCollector
	logger  *zap.Logger

	mu          sync.Mutex
	orders      map[string]*entry
	subscribers int
}

// NewHub creates a hub that reads snapshots from cache
func NewHub(cache ports.ActiveOrderCache, metrics ports.MetricsCollector, logger *zap.Logger) *Hub {
	return &Hub{
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		orders:  make(map[string]*entry),
	}
}

// Subscribe registers ch for orderID and sends it the cached snapshot, if any
func (h *Hub) Subscribe(ctx context.Context, orderID string, ch ports.Channel) {
	h.mu.Lock()
	e, ok := h.orders[orderID]
	if !ok {
		e = &entry{channels: make(map[ports.Channel]struct{})}
		h.orders[orderID] = e
	}
	// Lock the entry before releasing the registry so no publish can slip in
	// between registration and the snapshot.
	e.mu.Lock()
	if _, dup := e.channels[ch]; !dup {
		e.channels[ch] = struct{}{}
		h.subscribers++
	}
	count := h.subscribers
	h.mu.Unlock()
	defer e.mu.Unlock()

	h.metrics.SetSubscribers(count)

	h.logger.Debug("channel subscribed",
		zap.String("order_id", orderID),
		zap.String("channel_id", ch.ID()))

	active, err := h.cache.Get(ctx, orderID)
	if err != nil {
		h.logger.Warn("failed to read snapshot",
			zap.String("order_id", orderID),
			zap.Error(err))
		return
	}
	if active == nil {
		return
	}

	h.send(orderID, ch, domain.NewSnapshotMessage(active))
}

// Unsubscribe removes ch from orderID. The order is forgotten once its last
// channel leaves.
func (h *Hub) Unsubscribe(orderID string, ch ports.Channel) {
	h.mu.Lock()
	e, ok := h.orders[orderID]
	if !ok {
		h.mu.Unlock()
		return
	}

	e.mu.Lock()
	if _, found := e.channels[ch]; found {
		delete(e.channels, ch)
		h.subscribers--
	}
	if len(e.channels) == 0 {
		delete(h.orders, orderID)
	}
	e.mu.Unlock()
	count := h.subscribers
	h.mu.Unlock()

	h.metrics.SetSubscribers(count)

	h.logger.Debug("channel unsubscribed",
		zap.String("order_id", orderID),
		zap.String("channel_id", ch.ID()))
}

// Publish delivers msg to every open channel registered for orderID
func (h *Hub) Publish(orderID string, msg *domain.Message) {
	h.mu.Lock()
	e, ok := h.orders[orderID]
	if !ok {
		h.mu.Unlock()
		return
	}
	// Taken under the registry lock so an entry emptied by Unsubscribe is never
	// delivered to after a new Subscribe replaced it.
	e.mu.Lock()
	h.mu.Unlock()
	defer e.mu.Unlock()

	for ch := range e.channels {
		h.send(orderID, ch, msg)
	}
}

// Count returns the number of channels registered for orderID
func (h *Hub) Count(orderID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.orders[orderID]
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.channels)
}

// Orders returns the ids that currently have at least one channel
func (h *Hub) Orders() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.orders))
	for id := range h.orders {
		ids = append(ids, id)
	}
	return ids
}

// send must be called with the order entry locked
func (h *Hub) send(orderID string, ch ports.Channel, msg *domain.Message) {
	if !ch.IsOpen() {
		return
	}

	data, err := msg.Encode()
	if err != nil {
		h.logger.Error("failed to encode message",
			zap.String("order_id", orderID),
			zap.Error(err))
		return
	}

	if err := ch.Send(data); err != nil {
		h.logger.Warn("failed to deliver message",
			zap.String("order_id", orderID),
			zap.String("channel_id", ch.ID()),
			zap.String("type", string(msg.Type)),
			zap.Error(err))
	}
}
