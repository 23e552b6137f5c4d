package domain

import "time"

// EventKind identifies the gateway operation a MutationEvent describes.
type EventKind string

const (
	EventUpdated  EventKind = "updated"
	EventLocked   EventKind = "locked"
	EventDeleted  EventKind = "deleted"
	EventRenamed  EventKind = "renamed"
	EventUploaded EventKind = "uploaded"
	EventAccessed EventKind = "accessed"
)

// MutationEvent is an ephemeral notification published once per completed
// operation. Delivery is at-most-once and best-effort; the gateway does not
// persist events.
type MutationEvent struct {
	ConnectionID string    `json:"connectionId"`
	Kind         EventKind `json:"kind"`
	Path         string    `json:"path"`
	OldPath      string    `json:"oldPath,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	At           time.Time `json:"at"`
}

// Topic returns the broadcast channel key for the event's connection.
func (e MutationEvent) Topic() string {
	return EventTopic(e.ConnectionID)
}

// EventTopic returns the channel key carrying a connection's mutation log.
func EventTopic(connectionID string) string {
	return "ftp_logs:" + connectionID
}
