package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"teamline.app/pulse/internal/model"
)

type streamEventStore struct {
	db DBTX
}

const streamEventColumns = `id, stream_id, workspace_id, parent_event_id, actor_id, kind, content, mentions, created_at, edited_at, deleted_at`

func scanStreamEvent(row pgx.Row) (*model.StreamEvent, error) {
	var e model.StreamEvent
	err := row.Scan(&e.ID, &e.StreamID, &e.WorkspaceID, &e.ParentEventID, &e.ActorID,
		&e.Kind, &e.Content, &e.Mentions, &e.CreatedAt, &e.EditedAt, &e.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *streamEventStore) GetByID(ctx context.Context, id int64) (*model.StreamEvent, error) {
	return scanStreamEvent(s.db.QueryRow(ctx,
		`SELECT `+streamEventColumns+` FROM stream_events WHERE id = $1`, id))
}

func (s *streamEventStore) GetByIDForUpdate(ctx context.Context, id int64) (*model.StreamEvent, error) {
	return scanStreamEvent(s.db.QueryRow(ctx,
		`SELECT `+streamEventColumns+` FROM stream_events WHERE id = $1 FOR UPDATE`, id))
}

func (s *streamEventStore) Create(ctx context.Context, ev *model.StreamEvent) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO stream_events (id, stream_id, workspace_id, parent_event_id, actor_id, kind, content, mentions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		ev.ID, ev.StreamID, ev.WorkspaceID, ev.ParentEventID, ev.ActorID,
		ev.Kind, ev.Content, ev.Mentions,
	)
	if err := row.Scan(&ev.CreatedAt); err != nil {
		return fmt.Errorf("creating stream event: %w", err)
	}
	return nil
}

func (s *streamEventStore) SetContent(ctx context.Context, id int64, content string) (*model.StreamEvent, error) {
	return scanStreamEvent(s.db.QueryRow(ctx, `
		UPDATE stream_events
		SET content = $2, edited_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+streamEventColumns,
		id, content))
}

func (s *streamEventStore) SoftDelete(ctx context.Context, id int64) (*model.StreamEvent, error) {
	return scanStreamEvent(s.db.QueryRow(ctx, `
		UPDATE stream_events
		SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+streamEventColumns,
		id))
}

func (s *streamEventStore) CountLiveReplies(ctx context.Context, parentEventID int64) (int64, error) {
	// Counted live on every reply rather than maintained as a counter, so
	// the broadcast value is always a function of current state.
	var count int64
	err := s.db.QueryRow(ctx, `
		SELECT count(*) FROM stream_events
		WHERE parent_event_id = $1 AND deleted_at IS NULL`,
		parentEventID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting replies: %w", err)
	}
	return count, nil
}
