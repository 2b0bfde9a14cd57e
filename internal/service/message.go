package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"teamline.app/pulse/common/id"
	"teamline.app/pulse/common/logger"
	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/outbox"
	"teamline.app/pulse/internal/store"
)

const notificationPreviewLen = 140

var (
	ErrStreamNotFound  = errors.New("stream not found")
	ErrEventNotFound   = errors.New("stream event not found")
	ErrNotStreamMember = errors.New("user is not a member of the stream")
	ErrNotAuthor       = errors.New("only the author may change an event")
	ErrEmptyContent    = errors.New("content cannot be empty")
	ErrCrossWorkspace  = errors.New("cannot cross-post outside the stream's workspace")
)

type CreateMessageInput struct {
	Content            string
	ActorName          string
	Mentions           []int64
	CrosspostStreamIDs []int64
	WorkspaceID        int64
	StreamID           int64
	ActorID            int64
	ParentEventID      *int64
}

type EditMessageInput struct {
	Content string
	EventID int64
	ActorID int64
}

// MessageService owns the write path for stream events. Every mutation
// appends its outbox events inside the same transaction as the row change,
// then wakes the dispatcher after commit.
type MessageService interface {
	Create(ctx context.Context, in CreateMessageInput) (*model.StreamEvent, error)
	Edit(ctx context.Context, in EditMessageInput) (*model.StreamEvent, error)
	Delete(ctx context.Context, eventID, actorID int64) error
}

type messageService struct {
	tx    TxRunner
	waker outbox.Waker
}

func NewMessageService(tx TxRunner, waker outbox.Waker) MessageService {
	return &messageService{tx: tx, waker: waker}
}

func (s *messageService) Create(ctx context.Context, in CreateMessageInput) (*model.StreamEvent, error) {
	if in.Content == "" {
		return nil, ErrEmptyContent
	}

	ev := &model.StreamEvent{
		ID:            id.New(),
		StreamID:      in.StreamID,
		WorkspaceID:   in.WorkspaceID,
		ActorID:       in.ActorID,
		Kind:          model.EventKindMessage,
		Content:       in.Content,
		Mentions:      uniqueMentions(in.Mentions, in.ActorID),
		ParentEventID: in.ParentEventID,
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceID: logger.Ptr(in.WorkspaceID),
		StreamID:    logger.Ptr(in.StreamID),
		EventID:     logger.Ptr(ev.ID),
		UserID:      logger.Ptr(in.ActorID),
	})

	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		if err := s.requirePostAccess(ctx, stores, in.StreamID, in.WorkspaceID, in.ActorID); err != nil {
			return err
		}

		var parent *model.StreamEvent
		if in.ParentEventID != nil {
			// The parent's row lock serializes concurrent replies, so the
			// live COUNT below always observes every committed sibling and
			// the last broadcast carries the true total.
			p, err := stores.StreamEvents().GetByIDForUpdate(ctx, *in.ParentEventID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrEventNotFound
				}
				return fmt.Errorf("loading parent event: %w", err)
			}
			if p.DeletedAt != nil {
				return ErrEventNotFound
			}
			parent = p
		}

		if err := stores.StreamEvents().Create(ctx, ev); err != nil {
			return fmt.Errorf("creating stream event: %w", err)
		}

		if _, err := outbox.Append(ctx, stores.Outbox(), createdPayload(ev, in.ActorName, ev.StreamID)); err != nil {
			return err
		}

		// Cross-posting is a write-time fan-out decision: the identical
		// content is published once per extra container so each
		// container's viewers receive it. Consumers dedupe on event_id.
		for _, extra := range in.CrosspostStreamIDs {
			if extra == in.StreamID {
				continue
			}
			if err := s.requirePostAccess(ctx, stores, extra, in.WorkspaceID, in.ActorID); err != nil {
				return err
			}
			if _, err := outbox.Append(ctx, stores.Outbox(), createdPayload(ev, in.ActorName, extra)); err != nil {
				return err
			}
		}

		if parent != nil {
			if err := publishReplyCount(ctx, stores, parent); err != nil {
				return err
			}
		}

		for _, userID := range ev.Mentions {
			if err := notifyMention(ctx, stores, ev, in.ActorName, userID); err != nil {
				return err
			}
		}

		// Authoring an event implies having read up to it.
		_, err := advanceCursor(ctx, stores, &model.ReadCursor{
			UserID:          in.ActorID,
			StreamID:        in.StreamID,
			LastReadEventID: ev.ID,
		}, in.WorkspaceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.waker.Wake(ctx)
	slog.InfoContext(ctx, "stream event created", "reply", ev.IsReply(), "mentions", len(ev.Mentions))
	return ev, nil
}

func (s *messageService) Edit(ctx context.Context, in EditMessageInput) (*model.StreamEvent, error) {
	if in.Content == "" {
		return nil, ErrEmptyContent
	}

	var updated *model.StreamEvent
	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		ev, err := s.authoredEvent(ctx, stores, in.EventID, in.ActorID)
		if err != nil {
			return err
		}

		updated, err = stores.StreamEvents().SetContent(ctx, ev.ID, in.Content)
		if err != nil {
			return fmt.Errorf("updating stream event content: %w", err)
		}

		editedAt := time.Now()
		if updated.EditedAt != nil {
			editedAt = *updated.EditedAt
		}
		_, err = outbox.Append(ctx, stores.Outbox(), event.StreamEventEdited{
			EventID:     updated.ID,
			StreamID:    updated.StreamID,
			WorkspaceID: updated.WorkspaceID,
			Content:     updated.Content,
			EditedAt:    editedAt,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.waker.Wake(ctx)
	return updated, nil
}

func (s *messageService) Delete(ctx context.Context, eventID, actorID int64) error {
	err := s.tx.WithTx(ctx, func(stores StoreProvider) error {
		ev, err := s.authoredEvent(ctx, stores, eventID, actorID)
		if err != nil {
			return err
		}

		if _, err := stores.StreamEvents().SoftDelete(ctx, ev.ID); err != nil {
			return fmt.Errorf("deleting stream event: %w", err)
		}

		if _, err := outbox.Append(ctx, stores.Outbox(), event.StreamEventDeleted{
			EventID:     ev.ID,
			StreamID:    ev.StreamID,
			WorkspaceID: ev.WorkspaceID,
		}); err != nil {
			return err
		}

		// Deleting a reply shrinks the parent's live-children count, so
		// the derived fact is republished just like on creation, under the
		// same parent row lock.
		if ev.IsReply() {
			parent, err := stores.StreamEvents().GetByIDForUpdate(ctx, *ev.ParentEventID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil
				}
				return fmt.Errorf("loading parent event: %w", err)
			}
			return publishReplyCount(ctx, stores, parent)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.waker.Wake(ctx)
	return nil
}

// authoredEvent loads a live event and verifies the actor wrote it.
func (s *messageService) authoredEvent(ctx context.Context, stores StoreProvider, eventID, actorID int64) (*model.StreamEvent, error) {
	ev, err := stores.StreamEvents().GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("loading stream event: %w", err)
	}
	if ev.DeletedAt != nil {
		return nil, ErrEventNotFound
	}
	if ev.ActorID != actorID {
		return nil, ErrNotAuthor
	}
	return ev, nil
}

// requirePostAccess checks that the actor may post into the stream: the
// stream must exist in the actor's workspace, and private streams require
// membership.
func (s *messageService) requirePostAccess(ctx context.Context, stores StoreProvider, streamID, workspaceID, actorID int64) error {
	stream, err := stores.Streams().GetByID(ctx, streamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrStreamNotFound
		}
		return fmt.Errorf("loading stream: %w", err)
	}
	if stream.WorkspaceID != workspaceID {
		return ErrCrossWorkspace
	}
	if stream.Visibility == model.VisibilityPublic {
		return nil
	}

	ok, err := stores.Memberships().IsMember(ctx, streamID, actorID)
	if err != nil {
		return fmt.Errorf("checking stream membership: %w", err)
	}
	if !ok {
		return ErrNotStreamMember
	}
	return nil
}

// publishReplyCount recomputes the parent's reply count from live children
// and appends a reply_count_updated event. The count is always a function
// of current state, never an incremented counter.
func publishReplyCount(ctx context.Context, stores StoreProvider, parent *model.StreamEvent) error {
	count, err := stores.StreamEvents().CountLiveReplies(ctx, parent.ID)
	if err != nil {
		return fmt.Errorf("counting replies: %w", err)
	}

	payload := event.ReplyCountUpdated{
		ParentEventID: parent.ID,
		ReplyCount:    count,
		StreamID:      parent.StreamID,
		WorkspaceID:   parent.WorkspaceID,
	}
	thread, err := stores.Streams().GetThreadByParentEvent(ctx, parent.ID)
	switch {
	case err == nil:
		payload.ThreadStreamID = &thread.ID
	case errors.Is(err, store.ErrNotFound):
		// No thread container yet; only the parent's stream room cares.
	default:
		return fmt.Errorf("looking up thread stream: %w", err)
	}

	_, err = outbox.Append(ctx, stores.Outbox(), payload)
	return err
}

func notifyMention(ctx context.Context, stores StoreProvider, ev *model.StreamEvent, actorName string, userID int64) error {
	eventID := ev.ID
	n := &model.Notification{
		ID:       id.New(),
		Type:     model.NotificationTypeMention,
		UserID:   userID,
		StreamID: ev.StreamID,
		EventID:  &eventID,
		ActorID:  ev.ActorID,
		Preview:  preview(ev.Content),
	}
	if err := stores.Notifications().Create(ctx, n); err != nil {
		return fmt.Errorf("creating mention notification: %w", err)
	}

	_, err := outbox.Append(ctx, stores.Outbox(), event.NotificationCreated{
		ID:               n.ID,
		NotificationType: string(n.Type),
		WorkspaceID:      ev.WorkspaceID,
		UserID:           userID,
		StreamID:         ev.StreamID,
		EventID:          &eventID,
		ActorID:          ev.ActorID,
		ActorName:        actorName,
		Preview:          n.Preview,
	})
	return err
}

// advanceCursor moves a read cursor forward and publishes the new position
// only when it actually moved. Stale positions never emit.
func advanceCursor(ctx context.Context, stores StoreProvider, cursor *model.ReadCursor, workspaceID int64) (bool, error) {
	moved, err := stores.ReadCursors().AdvanceForward(ctx, cursor)
	if err != nil {
		return false, fmt.Errorf("advancing read cursor: %w", err)
	}
	if !moved {
		return false, nil
	}

	_, err = outbox.Append(ctx, stores.Outbox(), event.ReadCursorUpdated{
		StreamID:    cursor.StreamID,
		WorkspaceID: workspaceID,
		UserID:      cursor.UserID,
		EventID:     cursor.LastReadEventID,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func createdPayload(ev *model.StreamEvent, actorName string, streamID int64) event.StreamEventCreated {
	return event.StreamEventCreated{
		EventID:       ev.ID,
		StreamID:      streamID,
		WorkspaceID:   ev.WorkspaceID,
		ActorID:       ev.ActorID,
		ActorName:     actorName,
		Kind:          string(ev.Kind),
		Content:       ev.Content,
		Mentions:      ev.Mentions,
		ParentEventID: ev.ParentEventID,
		CreatedAt:     ev.CreatedAt,
	}
}

func uniqueMentions(mentions []int64, actorID int64) []int64 {
	if len(mentions) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(mentions))
	out := make([]int64, 0, len(mentions))
	for _, userID := range mentions {
		if userID == actorID || seen[userID] {
			continue
		}
		seen[userID] = true
		out = append(out, userID)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// preview truncates on a rune boundary so a multi-byte character at the
// cut never leaves invalid UTF-8 in the payload.
func preview(content string) string {
	if len(content) <= notificationPreviewLen {
		return content
	}
	cut := notificationPreviewLen
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}
