package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"teamline.app/pulse/common/logger"
	"teamline.app/pulse/internal/event"
)

// Emit is one (room, message) pair produced by routing an envelope.
type Emit struct {
	Room    string
	Message ServerMessage
}

// WorkspaceBadge is the trimmed payload emitted on the workspace room for
// sidebar/badge updates; the full content only goes to the stream room.
type WorkspaceBadge struct {
	StreamID int64 `json:"stream_id"`
	EventID  int64 `json:"event_id"`
	ActorID  int64 `json:"actor_id"`
}

// Route is the single routing point of the gateway: it decodes the
// envelope and maps it to the rooms that should see it. The switch covers
// the whole payload catalog; an unrouted member is a bug, not a silent
// drop.
func Route(env event.Envelope) ([]Emit, error) {
	decoded, err := env.Decode()
	if err != nil {
		return nil, err
	}

	msgType := string(env.Type)

	switch p := decoded.(type) {
	case *event.StreamEventCreated:
		emits := []Emit{{
			Room:    StreamRoom(p.StreamID),
			Message: ServerMessage{Type: msgType, Room: StreamRoom(p.StreamID), Data: p},
		}}
		// Workspace members who do not view the stream still get a badge.
		badge := WorkspaceBadge{StreamID: p.StreamID, EventID: p.EventID, ActorID: p.ActorID}
		emits = append(emits, Emit{
			Room:    WorkspaceRoom(p.WorkspaceID),
			Message: ServerMessage{Type: msgType, Room: WorkspaceRoom(p.WorkspaceID), Data: badge},
		})
		return emits, nil

	case *event.StreamEventEdited:
		return []Emit{{
			Room:    StreamRoom(p.StreamID),
			Message: ServerMessage{Type: msgType, Room: StreamRoom(p.StreamID), Data: p},
		}}, nil

	case *event.StreamEventDeleted:
		return []Emit{{
			Room:    StreamRoom(p.StreamID),
			Message: ServerMessage{Type: msgType, Room: StreamRoom(p.StreamID), Data: p},
		}}, nil

	case *event.StreamCreated:
		var emits []Emit
		if p.ParentStreamID != nil {
			// Threads announce themselves inside the parent stream's view.
			emits = append(emits, Emit{
				Room:    StreamRoom(*p.ParentStreamID),
				Message: ServerMessage{Type: msgType, Room: StreamRoom(*p.ParentStreamID), Data: p},
			})
		} else if p.Visibility == visibilityPublic {
			emits = append(emits, Emit{
				Room:    WorkspaceRoom(p.WorkspaceID),
				Message: ServerMessage{Type: msgType, Room: WorkspaceRoom(p.WorkspaceID), Data: p},
			})
		}
		return emits, nil

	case *event.StreamMemberAdded:
		room := UserRoom(p.WorkspaceID, p.UserID)
		return []Emit{{Room: room, Message: ServerMessage{Type: msgType, Room: room, Data: p}}}, nil

	case *event.StreamMemberRemoved:
		room := UserRoom(p.WorkspaceID, p.UserID)
		return []Emit{{Room: room, Message: ServerMessage{Type: msgType, Room: room, Data: p}}}, nil

	case *event.NotificationCreated:
		room := UserRoom(p.WorkspaceID, p.UserID)
		return []Emit{{Room: room, Message: ServerMessage{Type: msgType, Room: room, Data: p}}}, nil

	case *event.ReadCursorUpdated:
		// Private multi-device sync: only the reading user's own devices.
		room := UserRoom(p.WorkspaceID, p.UserID)
		return []Emit{{Room: room, Message: ServerMessage{Type: msgType, Room: room, Data: p}}}, nil

	case *event.ReplyCountUpdated:
		// The parent is visible both in its channel view and inside its
		// own thread view; both rooms get the new count.
		emits := []Emit{{
			Room:    StreamRoom(p.StreamID),
			Message: ServerMessage{Type: msgType, Room: StreamRoom(p.StreamID), Data: p},
		}}
		if p.ThreadStreamID != nil {
			emits = append(emits, Emit{
				Room:    StreamRoom(*p.ThreadStreamID),
				Message: ServerMessage{Type: msgType, Room: StreamRoom(*p.ThreadStreamID), Data: p},
			})
		}
		return emits, nil

	case *event.Typing:
		return []Emit{{
			Room:    StreamRoom(p.StreamID),
			Message: ServerMessage{Type: msgType, Room: StreamRoom(p.StreamID), Data: p},
		}}, nil

	default:
		return nil, fmt.Errorf("unrouted event type %q", env.Type)
	}
}

const visibilityPublic = "public"

// RunRouter consumes decoded envelopes from the relay subscriber and emits
// them to rooms until the channel closes. Unknown event types (newer
// producers) are dropped with a log line.
func RunRouter(ctx context.Context, envelopes <-chan event.Envelope, hub *Hub) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "pulse.gateway.router"})

	for env := range envelopes {
		emits, err := Route(env)
		if err != nil {
			var unknown event.ErrUnknownType
			if errors.As(err, &unknown) {
				slog.DebugContext(ctx, "dropping unknown event type", "event_type", env.Type)
				continue
			}
			slog.ErrorContext(ctx, "routing envelope failed", "error", err, "event_type", env.Type)
			continue
		}

		for _, emit := range emits {
			data, err := json.Marshal(emit.Message)
			if err != nil {
				slog.ErrorContext(ctx, "encoding emit failed", "error", err, "room", emit.Room)
				continue
			}
			hub.Emit(emit.Room, data)
		}
	}
}
