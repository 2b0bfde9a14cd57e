package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"teamline.app/pulse/common/id"
	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/outbox"
	"teamline.app/pulse/internal/store"
)

// MembershipService manages who belongs to a stream. Additions and
// removals publish to the affected user's private room so their sidebar
// updates on every device.
type MembershipService interface {
	Add(ctx context.Context, workspaceID, streamID, userID, actorID int64, actorName string) error
	Remove(ctx context.Context, workspaceID, streamID, userID, actorID int64) error
}

type membershipService struct {
	tx    TxRunner
	waker outbox.Waker
}

func NewMembershipService(tx TxRunner, waker outbox.Waker) MembershipService {
	return &membershipService{tx: tx, waker: waker}
}

func (s *membershipService) Add(ctx context.Context, workspaceID, streamID, userID, actorID int64, actorName string) error {
	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		stream, err := s.workspaceStream(ctx, stores, streamID, workspaceID)
		if err != nil {
			return err
		}

		already, err := stores.Memberships().IsMember(ctx, streamID, userID)
		if err != nil {
			return fmt.Errorf("checking stream membership: %w", err)
		}
		if already {
			return nil
		}

		if err := stores.Memberships().Add(ctx, &model.StreamMember{
			StreamID: streamID,
			UserID:   userID,
			AddedBy:  actorID,
		}); err != nil {
			return fmt.Errorf("adding stream member: %w", err)
		}

		if _, err := outbox.Append(ctx, stores.Outbox(), event.StreamMemberAdded{
			StreamID:    streamID,
			WorkspaceID: workspaceID,
			UserID:      userID,
			ActorID:     actorID,
		}); err != nil {
			return err
		}

		// Being added by someone else is notification-worthy; self-joins
		// are not. No stream event anchors this, so EventID stays nil.
		if userID == actorID {
			return nil
		}
		n := &model.Notification{
			ID:       id.New(),
			Type:     model.NotificationTypeAdded,
			UserID:   userID,
			StreamID: streamID,
			ActorID:  actorID,
			Preview:  stream.Name,
		}
		if err := stores.Notifications().Create(ctx, n); err != nil {
			return fmt.Errorf("creating membership notification: %w", err)
		}
		_, err = outbox.Append(ctx, stores.Outbox(), event.NotificationCreated{
			ID:               n.ID,
			NotificationType: string(n.Type),
			WorkspaceID:      workspaceID,
			UserID:           userID,
			StreamID:         streamID,
			ActorID:          actorID,
			ActorName:        actorName,
			Preview:          n.Preview,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.waker.Wake(ctx)
	slog.InfoContext(ctx, "stream member added",
		"stream_id", streamID, "user_id", userID, "actor_id", actorID)
	return nil
}

func (s *membershipService) Remove(ctx context.Context, workspaceID, streamID, userID, actorID int64) error {
	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		if _, err := s.workspaceStream(ctx, stores, streamID, workspaceID); err != nil {
			return err
		}

		if err := stores.Memberships().Remove(ctx, streamID, userID); err != nil {
			return fmt.Errorf("removing stream member: %w", err)
		}

		_, err := outbox.Append(ctx, stores.Outbox(), event.StreamMemberRemoved{
			StreamID:    streamID,
			WorkspaceID: workspaceID,
			UserID:      userID,
			ActorID:     actorID,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.waker.Wake(ctx)
	return nil
}

func (s *membershipService) workspaceStream(ctx context.Context, stores StoreProvider, streamID, workspaceID int64) (*model.Stream, error) {
	stream, err := stores.Streams().GetByID(ctx, streamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrStreamNotFound
		}
		return nil, fmt.Errorf("loading stream: %w", err)
	}
	if stream.WorkspaceID != workspaceID {
		return nil, ErrStreamNotFound
	}
	return stream, nil
}
