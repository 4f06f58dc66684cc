package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL is how long an order projection survives without updates
const DefaultTTL = time.Hour

// ActiveOrderCache implements ports.ActiveOrderCache using Redis
type ActiveOrderCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewActiveOrderCache creates a new Redis active order cache
func NewActiveOrderCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ActiveOrderCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ActiveOrderCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Set writes the projection and resets its TTL
func (c *ActiveOrderCache) Set(ctx context.Context, order *domain.ActiveOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal active order: %w", err)
	}

	if err := c.client.Set(ctx, getActiveOrderKey(order.ID), data, c.ttl).Err(); err != nil {
		return &domain.PersistenceError{Op: "cache active order", Err: err}
	}

	c.logger.Debug("active order cached",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)))

	return nil
}

// Get returns the projection or nil when none is cached
func (c *ActiveOrderCache) Get(ctx context.Context, orderID string) (*domain.ActiveOrder, error) {
	data, err := c.client.Get(ctx, getActiveOrderKey(orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, &domain.PersistenceError{Op: "read active order", Err: err}
	}

	var order domain.ActiveOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active order: %w", err)
	}

	return &order, nil
}

// Delete drops the projection
func (c *ActiveOrderCache) Delete(ctx context.Context, orderID string) error {
	if err := c.client.Del(ctx, getActiveOrderKey(orderID)).Err(); err != nil {
		return &domain.PersistenceError{Op: "delete active order", Err: err}
	}
	return nil
}

// getActiveOrderKey returns the Redis key for an order projection
func getActiveOrderKey(orderID string) string {
	return fmt.Sprintf("active:order:%s", orderID)
}
