package amqp

import (
	"context"
	"testing"
)

func TestWasteEventRoundTrip(t *testing.T) {
	event := NewWasteEvent(42, 7, ActionCreated)

	data, err := event.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := WasteEventFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.LogID != 42 || got.ItemID != 7 || got.Action != ActionCreated {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatalf("timestamp not set")
	}
}

func TestNilClientPublishIsNoOp(t *testing.T) {
	var c *Client
	if err := c.PublishWasteEvent(context.Background(), NewWasteEvent(1, 1, ActionDeleted)); err != nil {
		t.Fatalf("nil client publish should be a no-op, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil client close should be a no-op, got %v", err)
	}
}
