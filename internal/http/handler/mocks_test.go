package handler_test

import (
	"context"

	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/service"
)

type mockMessageService struct {
	createFn func(ctx context.Context, in service.CreateMessageInput) (*model.StreamEvent, error)
	editFn   func(ctx context.Context, in service.EditMessageInput) (*model.StreamEvent, error)
	deleteFn func(ctx context.Context, eventID, actorID int64) error
}

func (m *mockMessageService) Create(ctx context.Context, in service.CreateMessageInput) (*model.StreamEvent, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.StreamEvent{}, nil
}

func (m *mockMessageService) Edit(ctx context.Context, in service.EditMessageInput) (*model.StreamEvent, error) {
	if m.editFn != nil {
		return m.editFn(ctx, in)
	}
	return &model.StreamEvent{}, nil
}

func (m *mockMessageService) Delete(ctx context.Context, eventID, actorID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, eventID, actorID)
	}
	return nil
}

type mockStreamService struct {
	createFn func(ctx context.Context, in service.CreateStreamInput) (*model.Stream, error)
}

func (m *mockStreamService) Create(ctx context.Context, in service.CreateStreamInput) (*model.Stream, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Stream{}, nil
}

type mockMembershipService struct {
	addFn    func(ctx context.Context, workspaceID, streamID, userID, actorID int64, actorName string) error
	removeFn func(ctx context.Context, workspaceID, streamID, userID, actorID int64) error
}

func (m *mockMembershipService) Add(ctx context.Context, workspaceID, streamID, userID, actorID int64, actorName string) error {
	if m.addFn != nil {
		return m.addFn(ctx, workspaceID, streamID, userID, actorID, actorName)
	}
	return nil
}

func (m *mockMembershipService) Remove(ctx context.Context, workspaceID, streamID, userID, actorID int64) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, workspaceID, streamID, userID, actorID)
	}
	return nil
}

type mockReadCursorService struct {
	markReadFn   func(ctx context.Context, workspaceID, userID, streamID, eventID int64) error
	markUnreadFn func(ctx context.Context, workspaceID, userID, streamID, eventID int64) error
}

func (m *mockReadCursorService) MarkRead(ctx context.Context, workspaceID, userID, streamID, eventID int64) error {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, workspaceID, userID, streamID, eventID)
	}
	return nil
}

func (m *mockReadCursorService) MarkUnread(ctx context.Context, workspaceID, userID, streamID, eventID int64) error {
	if m.markUnreadFn != nil {
		return m.markUnreadFn(ctx, workspaceID, userID, streamID, eventID)
	}
	return nil
}
