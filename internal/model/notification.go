package model

import "time"

type NotificationType string

const (
	NotificationTypeMention NotificationType = "mention"
	NotificationTypeAdded   NotificationType = "stream_added"
)

// Notification is a private per-user fact delivered on the user room.
// EventID is set only for notifications anchored to a stream event.
type Notification struct {
	CreatedAt time.Time        `json:"created_at"`
	Type      NotificationType `json:"type"`
	Preview   string           `json:"preview"`
	EventID   *int64           `json:"event_id,omitempty"`
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	StreamID  int64            `json:"stream_id"`
	ActorID   int64            `json:"actor_id"`
}
