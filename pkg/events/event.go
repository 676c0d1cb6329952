package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "deck.card.generated").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Deck event types consumed by the notification pipeline.
const (
	TypeCardGenerated    = "deck.card.generated"
	TypeGenerationFailed = "deck.generation.failed"
)

// NewCardGenerated builds the event published after a card is committed to
// a session's deck.
func NewCardGenerated(sessionID string, card map[string]interface{}) Event {
	return BaseEvent{
		Type: TypeCardGenerated,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"card":       card,
		},
		OccurredAt: time.Now(),
	}
}

// NewGenerationFailed builds the event published when a generation request
// ends in an error the user should see.
func NewGenerationFailed(sessionID, code, message string) Event {
	return BaseEvent{
		Type: TypeGenerationFailed,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"code":       code,
			"message":    message,
		},
		OccurredAt: time.Now(),
	}
}
