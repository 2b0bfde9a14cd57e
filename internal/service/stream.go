package service

import (
	"context"
	"errors"
	"fmt"

	"teamline.app/pulse/common"
	"teamline.app/pulse/common/id"
	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/outbox"
	"teamline.app/pulse/internal/store"
)

var ErrThreadExists = errors.New("a thread already exists for this event")

type CreateStreamInput struct {
	Name          string
	Type          model.StreamType
	Visibility    model.Visibility
	WorkspaceID   int64
	CreatorID     int64
	ParentEventID *int64
}

// StreamService creates event containers: channels, direct-message
// conversations, and threads rooted at a parent event.
type StreamService interface {
	Create(ctx context.Context, in CreateStreamInput) (*model.Stream, error)
}

type streamService struct {
	tx    TxRunner
	waker outbox.Waker
}

func NewStreamService(tx TxRunner, waker outbox.Waker) StreamService {
	return &streamService{tx: tx, waker: waker}
}

func (s *streamService) Create(ctx context.Context, in CreateStreamInput) (*model.Stream, error) {
	slug, err := common.Slugify(in.Name, "stream")
	if err != nil {
		return nil, fmt.Errorf("generating slug: %w", err)
	}

	stream := &model.Stream{
		ID:            id.New(),
		WorkspaceID:   in.WorkspaceID,
		CreatorID:     in.CreatorID,
		Type:          in.Type,
		Name:          in.Name,
		Slug:          slug,
		Visibility:    in.Visibility,
		ParentEventID: in.ParentEventID,
	}

	err = s.tx.WithTx(ctx, func(stores StoreProvider) error {
		var parentStreamID *int64
		if in.ParentEventID != nil {
			parent, err := s.threadParent(ctx, stores, *in.ParentEventID, in.WorkspaceID)
			if err != nil {
				return err
			}
			parentStreamID = &parent.StreamID
			stream.Type = model.StreamTypeThread
			// Threads inherit their parent's audience; there is no
			// separate thread ACL to manage.
			stream.Visibility = model.VisibilityPublic
		}

		if err := stores.Streams().Create(ctx, stream); err != nil {
			return fmt.Errorf("creating stream: %w", err)
		}

		if err := stores.Memberships().Add(ctx, &model.StreamMember{
			StreamID: stream.ID,
			UserID:   in.CreatorID,
			AddedBy:  in.CreatorID,
		}); err != nil {
			return fmt.Errorf("adding creator membership: %w", err)
		}

		_, err := outbox.Append(ctx, stores.Outbox(), event.StreamCreated{
			StreamID:       stream.ID,
			WorkspaceID:    stream.WorkspaceID,
			CreatorID:      stream.CreatorID,
			StreamType:     string(stream.Type),
			Name:           stream.Name,
			Slug:           stream.Slug,
			Visibility:     string(stream.Visibility),
			ParentStreamID: parentStreamID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.waker.Wake(ctx)
	return stream, nil
}

// threadParent validates that a thread can be rooted at the event: the
// event must be live, belong to the workspace, and not already own a
// thread.
func (s *streamService) threadParent(ctx context.Context, stores StoreProvider, parentEventID, workspaceID int64) (*model.StreamEvent, error) {
	parent, err := stores.StreamEvents().GetByID(ctx, parentEventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("loading parent event: %w", err)
	}
	if parent.DeletedAt != nil || parent.WorkspaceID != workspaceID {
		return nil, ErrEventNotFound
	}

	_, err = stores.Streams().GetThreadByParentEvent(ctx, parentEventID)
	switch {
	case err == nil:
		return nil, ErrThreadExists
	case errors.Is(err, store.ErrNotFound):
		return parent, nil
	default:
		return nil, fmt.Errorf("looking up existing thread: %w", err)
	}
}
