package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"teamline.app/pulse/internal/model"
)

type readCursorStore struct {
	db DBTX
}

func (s *readCursorStore) Get(ctx context.Context, userID, streamID int64) (*model.ReadCursor, error) {
	var c model.ReadCursor
	err := s.db.QueryRow(ctx, `
		SELECT user_id, stream_id, last_read_event_id, last_read_at
		FROM read_cursors
		WHERE user_id = $1 AND stream_id = $2`,
		userID, streamID,
	).Scan(&c.UserID, &c.StreamID, &c.LastReadEventID, &c.LastReadAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *readCursorStore) AdvanceForward(ctx context.Context, cursor *model.ReadCursor) (bool, error) {
	// Monotonicity is enforced in the statement itself so concurrent
	// forward reads from multiple devices cannot race the cursor backward.
	err := s.db.QueryRow(ctx, `
		INSERT INTO read_cursors (user_id, stream_id, last_read_event_id, last_read_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, stream_id) DO UPDATE
		SET last_read_event_id = EXCLUDED.last_read_event_id,
		    last_read_at = EXCLUDED.last_read_at
		WHERE read_cursors.last_read_event_id < EXCLUDED.last_read_event_id
		RETURNING last_read_at`,
		cursor.UserID, cursor.StreamID, cursor.LastReadEventID,
	).Scan(&cursor.LastReadAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("advancing read cursor: %w", err)
	}
	return true, nil
}

func (s *readCursorStore) Set(ctx context.Context, cursor *model.ReadCursor) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO read_cursors (user_id, stream_id, last_read_event_id, last_read_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, stream_id) DO UPDATE
		SET last_read_event_id = EXCLUDED.last_read_event_id,
		    last_read_at = EXCLUDED.last_read_at
		RETURNING last_read_at`,
		cursor.UserID, cursor.StreamID, cursor.LastReadEventID,
	).Scan(&cursor.LastReadAt)
	if err != nil {
		return fmt.Errorf("setting read cursor: %w", err)
	}
	return nil
}
