package store

import "time"

// EventType names a change broadcast after a transaction commits.
type EventType string

// Event types.
const (
	EventWagerCreated     EventType = "wager.created"
	EventWagerVoted       EventType = "wager.voted"
	EventWagerClosed      EventType = "wager.closed"
	EventWagerCancelled   EventType = "wager.cancelled"
	EventWagerDeleted     EventType = "wager.deleted"
	EventTagOptionCreated EventType = "tag_option.created"
	EventUserRegistered   EventType = "user.registered"
)

// Event describes a committed change. WorkplaceID scopes delivery; an empty
// WorkplaceID reaches every subscriber.
type Event struct {
	Type        EventType `json:"type"`
	WorkplaceID string    `json:"workplace_id,omitempty"`
	WagerID     string    `json:"wager_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Data        any       `json:"data,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// EventEmitter receives committed events.
// Store uses this to broadcast changes without depending on SSE or search.
type EventEmitter interface {
	Emit(event Event)
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(Event)

// Emit calls f(event).
func (f EmitterFunc) Emit(event Event) { f(event) }
