package store

import (
	"context"
	"fmt"

	"teamline.app/pulse/internal/model"
)

// appendFenceKey is the advisory lock shared by every outbox writer and
// taken exclusively by the dispatcher's scan. seq values come from a
// sequence at insert time, not commit time, so without the fence a scan
// could observe seq N+1 while N sits in a still-open transaction; advancing
// the cursor past that gap would lose row N forever once it commits.
const appendFenceKey int64 = 824002

type outboxStore struct {
	db DBTX
}

func (s *outboxStore) Append(ctx context.Context, entry *model.OutboxEntry) error {
	// The shared fence is held until the surrounding transaction commits,
	// which lets the dispatcher wait out every in-flight append before it
	// trusts a seq scan.
	if _, err := s.db.Exec(ctx, `SELECT pg_advisory_xact_lock_shared($1)`, appendFenceKey); err != nil {
		return fmt.Errorf("acquiring outbox append fence: %w", err)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO outbox_entries (id, event_type, payload)
		VALUES ($1, $2, $3)
		RETURNING seq, created_at`,
		entry.ID, entry.EventType, []byte(entry.Payload),
	)
	if err := row.Scan(&entry.Seq, &entry.CreatedAt); err != nil {
		return fmt.Errorf("appending outbox entry: %w", err)
	}
	return nil
}

func (s *outboxStore) ListAfter(ctx context.Context, seq int64, limit int32) ([]model.OutboxEntry, error) {
	// Taking the fence exclusively blocks until every in-flight append has
	// committed, and holds new ones off for the duration of the scan, so
	// every assigned seq up to the highest visible one is visible. Only
	// then is it safe for the caller to advance the cursor past a row.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning outbox scan: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, appendFenceKey); err != nil {
		return nil, fmt.Errorf("acquiring outbox scan fence: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT seq, id, event_type, payload, created_at
		FROM outbox_entries
		WHERE seq > $1
		ORDER BY seq
		LIMIT $2`,
		seq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []model.OutboxEntry
	for rows.Next() {
		var e model.OutboxEntry
		var payload []byte
		if err := rows.Scan(&e.Seq, &e.ID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning outbox entry: %w", err)
		}
		e.Payload = payload
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing outbox scan: %w", err)
	}
	return entries, nil
}
