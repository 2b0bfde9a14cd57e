package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"teamline.app/pulse/internal/model"
)

type streamStore struct {
	db DBTX
}

const streamColumns = `id, workspace_id, parent_event_id, stream_type, name, slug, visibility, creator_id, created_at`

func scanStream(row pgx.Row) (*model.Stream, error) {
	var s model.Stream
	err := row.Scan(&s.ID, &s.WorkspaceID, &s.ParentEventID, &s.Type, &s.Name, &s.Slug, &s.Visibility, &s.CreatorID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (s *streamStore) GetByID(ctx context.Context, id int64) (*model.Stream, error) {
	return scanStream(s.db.QueryRow(ctx,
		`SELECT `+streamColumns+` FROM streams WHERE id = $1`, id))
}

func (s *streamStore) GetThreadByParentEvent(ctx context.Context, parentEventID int64) (*model.Stream, error) {
	return scanStream(s.db.QueryRow(ctx,
		`SELECT `+streamColumns+` FROM streams WHERE parent_event_id = $1 AND stream_type = 'thread'`,
		parentEventID))
}

func (s *streamStore) Create(ctx context.Context, stream *model.Stream) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO streams (id, workspace_id, parent_event_id, stream_type, name, slug, visibility, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		stream.ID, stream.WorkspaceID, stream.ParentEventID, stream.Type,
		stream.Name, stream.Slug, stream.Visibility, stream.CreatorID,
	)
	if err := row.Scan(&stream.CreatedAt); err != nil {
		return fmt.Errorf("creating stream: %w", err)
	}
	return nil
}
