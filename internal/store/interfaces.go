package store

import (
	"context"
	"errors"

	"teamline.app/pulse/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// OutboxStore defines the contract for the transactional outbox.
// Append must run on a Stores bound to the caller's transaction so the
// entry commits or rolls back with the business mutation.
type OutboxStore interface {
	Append(ctx context.Context, entry *model.OutboxEntry) error
	ListAfter(ctx context.Context, seq int64, limit int32) ([]model.OutboxEntry, error)
}

// CursorStore defines the contract for the dispatcher's durable offset.
type CursorStore interface {
	Get(ctx context.Context, name string) (*model.DispatcherCursor, error)
	Advance(ctx context.Context, name string, seq int64) error
}

// StreamStore defines the contract for stream container data access
type StreamStore interface {
	GetByID(ctx context.Context, id int64) (*model.Stream, error)
	Create(ctx context.Context, stream *model.Stream) error
	GetThreadByParentEvent(ctx context.Context, parentEventID int64) (*model.Stream, error)
}

// StreamEventStore defines the contract for stream event data access
type StreamEventStore interface {
	GetByID(ctx context.Context, id int64) (*model.StreamEvent, error)
	// GetByIDForUpdate loads the event holding its row lock for the rest
	// of the transaction. Reply-count recomputes load the parent this way
	// so concurrent recomputes serialize per parent.
	GetByIDForUpdate(ctx context.Context, id int64) (*model.StreamEvent, error)
	Create(ctx context.Context, ev *model.StreamEvent) error
	SetContent(ctx context.Context, id int64, content string) (*model.StreamEvent, error)
	SoftDelete(ctx context.Context, id int64) (*model.StreamEvent, error)
	CountLiveReplies(ctx context.Context, parentEventID int64) (int64, error)
}

// MembershipStore defines the contract for stream membership data access
type MembershipStore interface {
	IsMember(ctx context.Context, streamID, userID int64) (bool, error)
	Add(ctx context.Context, member *model.StreamMember) error
	Remove(ctx context.Context, streamID, userID int64) error
}

// ReadCursorStore defines the contract for per-(user, stream) read cursors.
type ReadCursorStore interface {
	Get(ctx context.Context, userID, streamID int64) (*model.ReadCursor, error)
	// AdvanceForward upserts the cursor only if eventID is ahead of the
	// stored position. Returns false when the cursor did not move.
	AdvanceForward(ctx context.Context, cursor *model.ReadCursor) (bool, error)
	// Set overwrites the cursor unconditionally (explicit mark-unread).
	Set(ctx context.Context, cursor *model.ReadCursor) error
}

// NotificationStore defines the contract for notification data access
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}
