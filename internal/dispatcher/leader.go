package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Leader holds a session-scoped Postgres advisory lock for the lifetime of
// the process. The cursor is the one piece of exclusive mutable state in
// the pipeline; a second dispatcher blocks here until leadership frees up,
// which rules out duplicate-but-reordered publishing.
type Leader struct {
	conn *pgxpool.Conn
	key  int64
}

// AcquireLeader blocks until this process owns the dispatcher lock.
// The lock rides a dedicated connection; losing the connection releases it.
func AcquireLeader(ctx context.Context, pool *pgxpool.Pool, key int64) (*Leader, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring leader connection: %w", err)
	}

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, key); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquiring leader lock: %w", err)
	}

	slog.InfoContext(ctx, "dispatcher leadership acquired", "key", key)
	return &Leader{conn: conn, key: key}, nil
}

func (l *Leader) Release(ctx context.Context) {
	if _, err := l.conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, l.key); err != nil {
		slog.WarnContext(ctx, "releasing leader lock", "error", err)
	}
	l.conn.Release()
}
