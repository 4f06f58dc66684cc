package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/aescanero/swapd/pkg/ports"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds stream queue settings
type Config struct {
	Name          string
	ConsumerGroup string
	ConsumerName  string
	// PollInterval bounds how long Dequeue blocks
	PollInterval time.Duration
	// ClaimIdle is how long an unacknowledged entry may sit with a consumer
	// before another consumer takes it over. Zero disables reclaiming.
	ClaimIdle time.Duration
	MaxLen    int64
}

// StreamsQueue implements ports.JobQueue using Redis Streams
type StreamsQueue struct {
	client *redis.Client
	logger *zap.Logger
	cfg    Config

	groupMu    sync.Mutex
	groupReady bool

	claimMu   sync.Mutex
	lastClaim time.Time
}

// NewStreamsQueue creates a new Redis Streams job queue
func NewStreamsQueue(client *redis.Client, cfg Config, logger *zap.Logger) *StreamsQueue {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = 100000
	}
	return &StreamsQueue{
		client: client,
		logger: logger,
		cfg:    cfg,
	}
}

// Enqueue appends a job to the stream
func (q *StreamsQueue) Enqueue(ctx context.Context, jobType, orderID string, opts domain.JobOptions) (*domain.Job, error) {
	job := &domain.Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		OrderID:    orderID,
		Options:    opts,
		EnqueuedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: q.streamKey(),
		MaxLen: q.cfg.MaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}

	if _, err := q.client.XAdd(ctx, args).Result(); err != nil {
		return nil, &domain.PersistenceError{Op: "enqueue job", Err: err}
	}

	q.logger.Debug("job enqueued",
		zap.String("job_id", job.ID),
		zap.String("type", jobType),
		zap.String("order_id", orderID),
		zap.String("stream", q.streamKey()))

	return job, nil
}

// Dequeue returns the next job for this consumer, reclaiming abandoned
// entries first
func (q *StreamsQueue) Dequeue(ctx context.Context) (*ports.Delivery, error) {
	if err := q.ensureGroup(ctx); err != nil {
		return nil, err
	}

	if d, err := q.reclaim(ctx); err != nil || d != nil {
		return d, err
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.cfg.ConsumerGroup,
		Consumer: q.cfg.ConsumerName,
		Streams:  []string{q.streamKey(), ">"},
		Count:    1,
		Block:    q.cfg.PollInterval,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			return q.toDelivery(ctx, message, false)
		}
	}

	return nil, nil
}

// Ack acknowledges and removes a processed entry
func (q *StreamsQueue) Ack(ctx context.Context, d *ports.Delivery) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAck(ctx, q.streamKey(), q.cfg.ConsumerGroup, d.Ref)
		pipe.XDel(ctx, q.streamKey(), d.Ref)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to acknowledge job %s: %w", d.Job.ID, err)
	}
	return nil
}

// Depth returns the number of waiting and in-flight jobs
func (q *StreamsQueue) Depth(ctx context.Context) (int64, error) {
	n, err := q.client.XLen(ctx, q.streamKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read stream length: %w", err)
	}
	return n, nil
}

// Close releases queue resources. The Redis client is closed by the caller.
func (q *StreamsQueue) Close() error {
	return nil
}

func (q *StreamsQueue) ensureGroup(ctx context.Context) error {
	q.groupMu.Lock()
	defer q.groupMu.Unlock()

	if q.groupReady {
		return nil
	}

	err := q.client.XGroupCreateMkStream(ctx, q.streamKey(), q.cfg.ConsumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	q.groupReady = true

	q.logger.Info("consuming job stream",
		zap.String("stream", q.streamKey()),
		zap.String("consumer_group", q.cfg.ConsumerGroup),
		zap.String("consumer", q.cfg.ConsumerName))

	return nil
}

// reclaim takes over one entry left pending by a dead consumer, at most once
// per ClaimIdle interval
func (q *StreamsQueue) reclaim(ctx context.Context) (*ports.Delivery, error) {
	if q.cfg.ClaimIdle <= 0 {
		return nil, nil
	}

	q.claimMu.Lock()
	if time.Since(q.lastClaim) < q.cfg.ClaimIdle {
		q.claimMu.Unlock()
		return nil, nil
	}
	q.lastClaim = time.Now()
	q.claimMu.Unlock()

	messages, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.streamKey(),
		Group:    q.cfg.ConsumerGroup,
		Consumer: q.cfg.ConsumerName,
		MinIdle:  q.cfg.ClaimIdle,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to reclaim stale jobs: %w", err)
	}

	for _, message := range messages {
		q.logger.Warn("reclaimed unacknowledged job",
			zap.String("stream", q.streamKey()),
			zap.String("message_id", message.ID))
		return q.toDelivery(ctx, message, true)
	}

	return nil, nil
}

func (q *StreamsQueue) toDelivery(ctx context.Context, message redis.XMessage, reclaimed bool) (*ports.Delivery, error) {
	data, ok := message.Values["data"].(string)
	if !ok {
		q.dropMalformed(ctx, message.ID, fmt.Errorf("missing data field"))
		return nil, nil
	}

	var job domain.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		q.dropMalformed(ctx, message.ID, err)
		return nil, nil
	}

	return &ports.Delivery{
		Job:       job,
		Ref:       message.ID,
		Reclaimed: reclaimed,
	}, nil
}

// dropMalformed acknowledges an entry that can never be processed so it does
// not get reclaimed forever
func (q *StreamsQueue) dropMalformed(ctx context.Context, messageID string, cause error) {
	q.logger.Error("dropping malformed job",
		zap.String("stream", q.streamKey()),
		zap.String("message_id", messageID),
		zap.Error(cause))

	if err := q.client.XAck(ctx, q.streamKey(), q.cfg.ConsumerGroup, messageID).Err(); err != nil {
		q.logger.Error("failed to acknowledge malformed job",
			zap.String("message_id", messageID),
			zap.Error(err))
	}
}

// streamKey returns the Redis stream key for the queue
func (q *StreamsQueue) streamKey() string {
	return fmt.Sprintf("swapd:jobs:%s", q.cfg.Name)
}
