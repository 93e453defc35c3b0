package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is one frame delivered to subscribers
type Event struct {
	ID      string          `json:"id,omitempty"`
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	At      time.Time       `json:"at"`
}

// NewEvent encodes data into a fresh event for channel
func NewEvent(channel, name string, data interface{}) (*Event, error) {
	evt := &Event{
		ID:      uuid.NewString(),
		Event:   name,
		Channel: channel,
		At:      time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		evt.Data = raw
	}
	return evt, nil
}

// envelope is what travels over the redis backplane
type envelope struct {
	Event   *Event `json:"event"`
	Exclude string `json:"exclude,omitempty"`
}

// clientFrame is a frame sent by a subscriber
type clientFrame struct {
	Event   string `json:"event"`
	Channel string `json:"channel"`
	Auth    string `json:"auth"`
	Since   string `json:"since"`
}
