package store

import (
	"context"
	"fmt"

	"teamline.app/pulse/internal/model"
)

type notificationStore struct {
	db DBTX
}

func (s *notificationStore) Create(ctx context.Context, n *model.Notification) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, notification_type, stream_id, event_id, actor_id, preview)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		n.ID, n.UserID, n.Type, n.StreamID, n.EventID, n.ActorID, n.Preview,
	)
	if err := row.Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}
