package model

import "time"

type EventKind string

const (
	EventKindMessage EventKind = "message"
	EventKindSystem  EventKind = "system"
)

// StreamEvent is one committed entry in a stream's feed. The reply count of
// a parent is never stored here; it is recomputed from live children on
// every reply so it cannot drift.
type StreamEvent struct {
	CreatedAt     time.Time  `json:"created_at"`
	EditedAt      *time.Time `json:"edited_at,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	Kind          EventKind  `json:"kind"`
	Content       string     `json:"content"`
	Mentions      []int64    `json:"mentions,omitempty"`
	ID            int64      `json:"id"`
	StreamID      int64      `json:"stream_id"`
	WorkspaceID   int64      `json:"workspace_id"`
	ActorID       int64      `json:"actor_id"`
	ParentEventID *int64     `json:"parent_event_id,omitempty"`
}

// IsReply reports whether the event belongs to a thread.
func (e *StreamEvent) IsReply() bool {
	return e.ParentEventID != nil
}
