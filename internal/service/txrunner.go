package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"teamline.app/pulse/core/db"
	"teamline.app/pulse/internal/store"
)

// StoreProvider exposes only the stores needed by a transactional operation.
type StoreProvider interface {
	Outbox() store.OutboxStore
	Streams() store.StreamStore
	StreamEvents() store.StreamEventStore
	Memberships() store.MembershipStore
	ReadCursors() store.ReadCursorStore
	Notifications() store.NotificationStore
}

// TxRunner runs functions within a transaction and provides stores bound to
// that transaction. Every mutation that appends outbox events runs under
// one of these so the business row and its events commit or roll back
// together.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		stores := store.NewStores(tx)
		return fn(stores)
	})
}
