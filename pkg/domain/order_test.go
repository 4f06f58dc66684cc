package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	now := time.Now()
	o := NewOrder("SOL", "USDC", decimal.NewFromInt(100), now)

	assert.True(t, strings.HasPrefix(o.ID, OrderIDPrefix))
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, now, o.CreatedAt)
	assert.Equal(t, now, o.UpdatedAt)
	assert.Nil(t, o.SelectedDex)
	assert.Nil(t, o.ExecutedPrice)
}

func TestNewOrderID_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewOrderID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusRouting, true},
		{OrderStatusPending, OrderStatusFailed, true},
		{OrderStatusPending, OrderStatusBuilding, false},
		{OrderStatusPending, OrderStatusConfirmed, false},
		{OrderStatusRouting, OrderStatusBuilding, true},
		{OrderStatusRouting, OrderStatusPending, false},
		{OrderStatusRouting, OrderStatusConfirmed, false},
		{OrderStatusBuilding, OrderStatusConfirmed, true},
		{OrderStatusBuilding, OrderStatusRouting, false},
		{OrderStatusBuilding, OrderStatusFailed, true},
		{OrderStatusSubmitted, OrderStatusConfirmed, true},
		{OrderStatusConfirmed, OrderStatusFailed, false},
		{OrderStatusFailed, OrderStatusRouting, false},
		{OrderStatusRouting, OrderStatusRouting, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.True(t, OrderStatusConfirmed.IsTerminal())
	assert.True(t, OrderStatusFailed.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusSubmitted.IsTerminal())
	assert.False(t, OrderStatus("bogus").IsValid())
}

func TestOrder_ApplyFullLifecycle(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o := NewOrder("SOL", "USDC", decimal.NewFromInt(100), start)

	require.NoError(t, o.Apply(ToRouting{}, start.Add(time.Second)))
	assert.Equal(t, OrderStatusRouting, o.Status)

	quoted := decimal.RequireFromString("101.25")
	require.NoError(t, o.Apply(ToBuilding{SelectedDex: VenueMeteora, QuotedPrice: quoted}, start.Add(2*time.Second)))
	require.NotNil(t, o.SelectedDex)
	assert.Equal(t, VenueMeteora, *o.SelectedDex)
	assert.True(t, quoted.Equal(*o.ExecutedPrice))

	require.NoError(t, o.Apply(ToConfirmed{TxHash: "tx1", ExecutedPrice: quoted}, start.Add(3*time.Second)))
	assert.Equal(t, OrderStatusConfirmed, o.Status)
	assert.Equal(t, "tx1", *o.TxHash)
	assert.Equal(t, start, o.CreatedAt)

	err := o.Apply(ToFailed{Reason: "late"}, start.Add(4*time.Second))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, OrderStatusConfirmed, o.Status)
	assert.Nil(t, o.FailureReason)
}

func TestOrder_ApplyRejectsSkip(t *testing.T) {
	o := NewOrder("SOL", "USDC", decimal.NewFromInt(1), time.Now())

	err := o.Apply(ToConfirmed{TxHash: "x"}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Nil(t, o.TxHash)

	assert.ErrorIs(t, o.Apply(nil, time.Now()), ErrInvalidTransition)
}

func TestOrder_ApplyUpdatedAtStrictlyIncreases(t *testing.T) {
	now := time.Now()
	o := NewOrder("SOL", "USDC", decimal.NewFromInt(1), now)

	require.NoError(t, o.Apply(ToRouting{}, now))
	assert.True(t, o.UpdatedAt.After(now))

	prev := o.UpdatedAt
	require.NoError(t, o.Apply(ToFailed{Reason: "boom"}, now.Add(-time.Hour)))
	assert.True(t, o.UpdatedAt.After(prev))
	assert.Equal(t, "boom", *o.FailureReason)
}

func TestOrder_Clone(t *testing.T) {
	o := NewOrder("SOL", "USDC", decimal.NewFromInt(1), time.Now())
	require.NoError(t, o.Apply(ToRouting{}, time.Now()))
	require.NoError(t, o.Apply(ToBuilding{SelectedDex: VenueRaydium, QuotedPrice: decimal.NewFromInt(99)}, time.Now()))

	c := o.Clone()
	*c.SelectedDex = "other"
	assert.Equal(t, VenueRaydium, *o.SelectedDex)
}

func TestMessage_WireFormat(t *testing.T) {
	o := NewOrder("SOL", "USDC", decimal.NewFromInt(100), time.Now())
	o.ID = "ord_1"

	data, err := NewEventMessage(o).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"event","orderId":"ord_1","status":"pending"}`, string(data))

	require.NoError(t, o.Apply(ToRouting{}, time.Now()))
	require.NoError(t, o.Apply(ToBuilding{SelectedDex: VenueRaydium, QuotedPrice: decimal.RequireFromString("100.5")}, time.Now()))
	data, err = NewEventMessage(o).Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"event","orderId":"ord_1","status":"building","selectedDex":"raydium","executedPrice":100.5}`, string(data))

	snap, err := NewSnapshotMessage(o.ToActiveOrder()).Encode()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(snap, &decoded))
	assert.Equal(t, "snapshot", decoded["type"])
	assert.Equal(t, 100.5, decoded["executedPrice"])
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "amount", Message: "must be positive"}
	assert.Equal(t, "invalid amount: must be positive", err.Error())
}
