// Package sse implements Server-Sent Events for live wager board updates.
package sse

import (
	"time"

	"github.com/workbets/workbets-server/internal/store"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventConnected is the first message on every stream.
	EventConnected EventType = "connected"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event is one message on the stream.
type Event struct {
	Type        EventType `json:"type"`
	WorkplaceID string    `json:"workplace_id,omitempty"`
	Data        any       `json:"data,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChangeData is the payload of a forwarded store event.
type ChangeData struct {
	WagerID string `json:"wager_id,omitempty"`
	ActorID string `json:"actor_id,omitempty"`
	Detail  any    `json:"detail,omitempty"`
}

// streamed lists the store events forwarded to clients.
var streamed = map[store.EventType]bool{
	store.EventWagerCreated:     true,
	store.EventWagerVoted:       true,
	store.EventWagerClosed:      true,
	store.EventWagerCancelled:   true,
	store.EventWagerDeleted:     true,
	store.EventTagOptionCreated: true,
	store.EventUserRegistered:   true,
}

// FromStoreEvent converts a committed store event. ok is false for events
// that are not streamed.
func FromStoreEvent(e store.Event) (Event, bool) {
	if !streamed[e.Type] {
		return Event{}, false
	}
	return Event{
		Type:        EventType(e.Type),
		WorkplaceID: e.WorkplaceID,
		Data:        ChangeData{WagerID: e.WagerID, ActorID: e.UserID, Detail: e.Data},
		Timestamp:   e.Timestamp,
	}, true
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{Type: EventHeartbeat, Timestamp: time.Now()}
}

// isAdminOnlyEvent reports whether only admins receive the event.
func isAdminOnlyEvent(eventType EventType) bool {
	return eventType == EventType(store.EventUserRegistered)
}
