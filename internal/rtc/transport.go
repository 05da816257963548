package rtc

import (
	"context"
	"encoding/json"
)

type EventType string

const (
	EventParticipantJoined EventType = "participant_joined"
	EventUserTurn          EventType = "user_turn"
	EventParticipantLeft   EventType = "participant_left"
)

// Event is one inbound frame from the realtime server. Metadata is only
// present on participant_joined; Text only on user_turn.
type Event struct {
	Type     EventType       `json:"type"`
	Identity string          `json:"identity"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Text     string          `json:"text,omitempty"`
}

// Transport defines the realtime connection interface. Events closes when
// the connection ends, whatever the cause.
type Transport interface {
	Events() <-chan Event
	Say(ctx context.Context, identity, text string) error
	Close() error
}
