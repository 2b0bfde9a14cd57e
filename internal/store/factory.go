package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the same stores
// serve transactional and non-transactional callers.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Stores struct {
	db DBTX
}

func NewStores(db DBTX) *Stores {
	return &Stores{db: db}
}

func (s *Stores) Outbox() OutboxStore {
	return &outboxStore{db: s.db}
}

func (s *Stores) Cursors() CursorStore {
	return &cursorStore{db: s.db}
}

func (s *Stores) Streams() StreamStore {
	return &streamStore{db: s.db}
}

func (s *Stores) StreamEvents() StreamEventStore {
	return &streamEventStore{db: s.db}
}

func (s *Stores) Memberships() MembershipStore {
	return &membershipStore{db: s.db}
}

func (s *Stores) ReadCursors() ReadCursorStore {
	return &readCursorStore{db: s.db}
}

func (s *Stores) Notifications() NotificationStore {
	return &notificationStore{db: s.db}
}
