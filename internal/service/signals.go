package service

import (
	"context"

	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/relay"
)

// GatewaySignals backs the gateway's client-originated messages. Read
// cursors go through the transactional write path; typing is ephemeral and
// goes straight to the relay so other gateway processes see it without an
// outbox round trip.
type GatewaySignals struct {
	cursors   ReadCursorService
	publisher relay.Publisher
}

func NewGatewaySignals(cursors ReadCursorService, publisher relay.Publisher) *GatewaySignals {
	return &GatewaySignals{cursors: cursors, publisher: publisher}
}

func (g *GatewaySignals) MarkRead(ctx context.Context, workspaceID, userID, streamID, eventID int64) error {
	return g.cursors.MarkRead(ctx, workspaceID, userID, streamID, eventID)
}

func (g *GatewaySignals) MarkUnread(ctx context.Context, workspaceID, userID, streamID, eventID int64) error {
	return g.cursors.MarkUnread(ctx, workspaceID, userID, streamID, eventID)
}

func (g *GatewaySignals) PublishTyping(ctx context.Context, t event.Typing) error {
	env, err := event.New(t)
	if err != nil {
		return err
	}
	return g.publisher.Publish(ctx, env)
}
