package model

import (
	"encoding/json"
	"time"
)

// OutboxEntry is one durable row of the transactional outbox. Rows are
// immutable once written; delivery progress lives in the dispatcher's own
// cursor, never on the row, so replay after a crash is always possible.
//
// Seq is the commit-ordered sequence assigned by the store; ID is the
// snowflake the writer generated before commit and the idempotency key
// consumers dedupe on.
type OutboxEntry struct {
	CreatedAt time.Time       `json:"created_at"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Seq       int64           `json:"seq"`
	ID        int64           `json:"id"`
}

// DispatcherCursor is the single piece of exclusive mutable dispatcher
// state: the last outbox sequence published to the relay.
type DispatcherCursor struct {
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	LastSeq   int64     `json:"last_seq"`
}
