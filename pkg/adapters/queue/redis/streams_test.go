package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aescanero/swapd/pkg/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestQueue(t *testing.T) *StreamsQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStreamsQueue(client, Config{
		Name:          "order-execution",
		ConsumerGroup: "swapd-workers",
		ConsumerName:  "test",
		PollInterval:  20 * time.Millisecond,
	}, zaptest.NewLogger(t))
}

func TestStreamsQueue_EnqueueDequeueAck(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	opts := domain.JobOptions{
		Attempts: 3,
		Backoff:  domain.BackoffOptions{Type: domain.BackoffTypeExponential, Delay: time.Second},
	}
	job, err := q.Enqueue(ctx, domain.JobTypeExecuteOrder, "ord_1", opts)
	require.NoError(t, err)

	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, job.ID, d.Job.ID)
	assert.Equal(t, "ord_1", d.Job.OrderID)
	assert.Equal(t, domain.JobTypeExecuteOrder, d.Job.Type)
	assert.Equal(t, opts, d.Job.Options)
	assert.False(t, d.Reclaimed)

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)

	require.NoError(t, q.Ack(ctx, d))

	depth, err = q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), depth)
}

func TestStreamsQueue_DequeueEmpty(t *testing.T) {
	q := newTestQueue(t)

	d, err := q.Dequeue(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestStreamsQueue_DeliversInOrder(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	for _, id := range []string{"ord_1", "ord_2", "ord_3"} {
		_, err := q.Enqueue(ctx, domain.JobTypeExecuteOrder, id, domain.DefaultJobOptions())
		require.NoError(t, err)
	}

	for _, want := range []string{"ord_1", "ord_2", "ord_3"} {
		d, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, want, d.Job.OrderID)
		require.NoError(t, q.Ack(ctx, d))
	}
}
