package amqp

import (
	"encoding/json"
	"time"
)

// Actions emitted on the waste-event stream.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// WasteEvent is a lightweight notification about a waste log mutation.
// Consumers fetch the full row from the API if they need more than the ids.
type WasteEvent struct {
	LogID     int64     `json:"log_id"`
	ItemID    int64     `json:"item_id,omitempty"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewWasteEvent(logID, itemID int64, action string) *WasteEvent {
	return &WasteEvent{
		LogID:     logID,
		ItemID:    itemID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (e *WasteEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func WasteEventFromJSON(data []byte) (*WasteEvent, error) {
	var e WasteEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
