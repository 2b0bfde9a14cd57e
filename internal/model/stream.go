package model

import "time"

type StreamType string

const (
	StreamTypeChannel StreamType = "channel"
	StreamTypeThread  StreamType = "thread"
	StreamTypeDM      StreamType = "dm"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Stream is a container of ordered events: a channel, a thread rooted at a
// parent event, or a direct-message conversation.
type Stream struct {
	CreatedAt     time.Time  `json:"created_at"`
	Type          StreamType `json:"type"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Visibility    Visibility `json:"visibility"`
	ID            int64      `json:"id"`
	WorkspaceID   int64      `json:"workspace_id"`
	CreatorID     int64      `json:"creator_id"`
	ParentEventID *int64     `json:"parent_event_id,omitempty"`
}

// StreamMember records that a user may read and join a stream's room.
type StreamMember struct {
	CreatedAt time.Time `json:"created_at"`
	StreamID  int64     `json:"stream_id"`
	UserID    int64     `json:"user_id"`
	AddedBy   int64     `json:"added_by"`
}
