package store

import (
	"context"
	"fmt"

	"teamline.app/pulse/internal/model"
)

type membershipStore struct {
	db DBTX
}

func (s *membershipStore) IsMember(ctx context.Context, streamID, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM stream_members WHERE stream_id = $1 AND user_id = $2
		)`,
		streamID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return exists, nil
}

func (s *membershipStore) Add(ctx context.Context, member *model.StreamMember) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO stream_members (stream_id, user_id, added_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (stream_id, user_id) DO UPDATE SET added_by = EXCLUDED.added_by
		RETURNING created_at`,
		member.StreamID, member.UserID, member.AddedBy,
	)
	if err := row.Scan(&member.CreatedAt); err != nil {
		return fmt.Errorf("adding stream member: %w", err)
	}
	return nil
}

func (s *membershipStore) Remove(ctx context.Context, streamID, userID int64) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM stream_members WHERE stream_id = $1 AND user_id = $2`,
		streamID, userID,
	); err != nil {
		return fmt.Errorf("removing stream member: %w", err)
	}
	return nil
}
