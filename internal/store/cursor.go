package store

import (
	"context"
	"fmt"

	"teamline.app/pulse/internal/model"
)

type cursorStore struct {
	db DBTX
}

func (s *cursorStore) Get(ctx context.Context, name string) (*model.DispatcherCursor, error) {
	// The cursor row is created lazily at offset zero so a fresh deployment
	// drains the whole outbox.
	row := s.db.QueryRow(ctx, `
		INSERT INTO dispatcher_cursor (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING name, last_seq, updated_at`,
		name,
	)

	var c model.DispatcherCursor
	if err := row.Scan(&c.Name, &c.LastSeq, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("getting dispatcher cursor: %w", err)
	}
	return &c, nil
}

func (s *cursorStore) Advance(ctx context.Context, name string, seq int64) error {
	// A no-op update means another instance already passed this point,
	// which is harmless under at-least-once delivery.
	_, err := s.db.Exec(ctx, `
		UPDATE dispatcher_cursor
		SET last_seq = $2, updated_at = now()
		WHERE name = $1 AND last_seq < $2`,
		name, seq,
	)
	if err != nil {
		return fmt.Errorf("advancing dispatcher cursor: %w", err)
	}
	return nil
}
