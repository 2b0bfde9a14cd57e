package service

import (
	"context"
	"fmt"

	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/outbox"
)

// ReadCursorService owns the per-(user, stream) read position. Forward
// reads are monotonic in event order; mark-unread is the only operation
// allowed to move a cursor backward.
type ReadCursorService interface {
	MarkRead(ctx context.Context, workspaceID, userID, streamID, eventID int64) error
	MarkUnread(ctx context.Context, workspaceID, userID, streamID, eventID int64) error
}

type readCursorService struct {
	tx    TxRunner
	waker outbox.Waker
}

func NewReadCursorService(tx TxRunner, waker outbox.Waker) ReadCursorService {
	return &readCursorService{tx: tx, waker: waker}
}

func (s *readCursorService) MarkRead(ctx context.Context, workspaceID, userID, streamID, eventID int64) error {
	var moved bool
	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		// A stale mark-read is dropped by the store, not an error: two
		// devices racing is normal and the furthest position wins.
		var err error
		moved, err = advanceCursor(ctx, stores, &model.ReadCursor{
			UserID:          userID,
			StreamID:        streamID,
			LastReadEventID: eventID,
		}, workspaceID)
		return err
	})
	if err != nil {
		return err
	}
	if moved {
		s.waker.Wake(ctx)
	}
	return nil
}

func (s *readCursorService) MarkUnread(ctx context.Context, workspaceID, userID, streamID, eventID int64) error {
	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		cursor := &model.ReadCursor{
			UserID:          userID,
			StreamID:        streamID,
			LastReadEventID: eventID,
		}
		if err := stores.ReadCursors().Set(ctx, cursor); err != nil {
			return fmt.Errorf("setting read cursor: %w", err)
		}

		_, err := outbox.Append(ctx, stores.Outbox(), event.ReadCursorUpdated{
			StreamID:    streamID,
			WorkspaceID: workspaceID,
			UserID:      userID,
			EventID:     eventID,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.waker.Wake(ctx)
	return nil
}
