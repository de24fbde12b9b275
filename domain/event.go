package domain

import "github.com/bytedance/sonic"

// Event types published to the activity feed.
const (
	EventUserRegistered = "user-registered"
	EventTaskCreated    = "task-created"
	EventTaskUpdated    = "task-updated"
	EventCommentAdded   = "comment-added"
)

// Event records a single mutation for downstream consumers.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	Data       sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
}

// EventEnvelope wraps an event with the user who performed it.
type EventEnvelope struct {
	UserID string `json:"userId"`
	Event  Event  `json:"event"`
}
