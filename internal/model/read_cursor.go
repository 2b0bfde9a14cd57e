package model

import "time"

// ReadCursor marks the last event a user has seen in a stream. Updates via
// the forward-read path are monotonic in event order; only an explicit
// mark-unread may move the cursor backward.
type ReadCursor struct {
	LastReadAt      time.Time `json:"last_read_at"`
	UserID          int64     `json:"user_id"`
	StreamID        int64     `json:"stream_id"`
	LastReadEventID int64     `json:"last_read_event_id"`
}
