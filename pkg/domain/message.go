package domain

import "encoding/json"

// MessageType distinguishes snapshots from live transitions on the wire
type MessageType string

const (
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeEvent    MessageType = "event"
)

// Message is the payload delivered to order observers. Field names and order
// are part of the client contract.
type Message struct {
	Type          MessageType `json:"type"`
	OrderID       string      `json:"orderId"`
	Status        OrderStatus `json:"status"`
	SelectedDex   *string     `json:"selectedDex,omitempty"`
	ExecutedPrice json.Number `json:"executedPrice,omitempty"`
	TxHash        *string     `json:"txHash,omitempty"`
	FailureReason *string     `json:"failureReason,omitempty"`
}

// NewEventMessage builds the live message for an order transition
func NewEventMessage(o *Order) *Message {
	m := &Message{
		Type:          MessageTypeEvent,
		OrderID:       o.ID,
		Status:        o.Status,
		SelectedDex:   o.SelectedDex,
		TxHash:        o.TxHash,
		FailureReason: o.FailureReason,
	}
	if o.ExecutedPrice != nil {
		m.ExecutedPrice = json.Number(o.ExecutedPrice.String())
	}
	return m
}

// NewSnapshotMessage builds the one-off message sent to a new subscriber
func NewSnapshotMessage(a *ActiveOrder) *Message {
	m := &Message{
		Type:          MessageTypeSnapshot,
		OrderID:       a.ID,
		Status:        a.Status,
		SelectedDex:   a.SelectedDex,
		TxHash:        a.TxHash,
		FailureReason: a.FailureReason,
	}
	if a.ExecutedPrice != nil {
		m.ExecutedPrice = json.Number(a.ExecutedPrice.String())
	}
	return m
}

// Encode serializes the message for a channel
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
