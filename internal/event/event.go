// Package event defines the envelope that travels from the outbox through
// the relay to the gateways, and the typed payload catalog behind it.
// Payloads form a closed sum: the gateway routes with a single exhaustive
// type switch, so adding an event type is a compile-visible change at every
// consumer rather than a runtime default branch.
package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Type string

const (
	TypeStreamEventCreated  Type = "stream_event.created"
	TypeStreamEventEdited   Type = "stream_event.edited"
	TypeStreamEventDeleted  Type = "stream_event.deleted"
	TypeStreamCreated       Type = "stream.created"
	TypeStreamMemberAdded   Type = "stream.member_added"
	TypeStreamMemberRemoved Type = "stream.member_removed"
	TypeNotificationCreated Type = "notification.created"
	TypeReadCursorUpdated   Type = "read_cursor.updated"
	TypeReplyCountUpdated   Type = "reply_count_updated"

	// Typing is ephemeral: relayed between gateway processes but never
	// written to the outbox.
	TypeTyping Type = "typing"
)

// Envelope is the in-flight shape. Payload stays raw until the consumer
// decodes it, so older consumers can ignore fields (and whole types) they
// do not know.
type Envelope struct {
	Type    Type            `json:"event_type"`
	Payload json.RawMessage `json:"payload"`
}

// Payload is implemented by every member of the catalog.
type Payload interface {
	EventType() Type
}

type StreamEventCreated struct {
	CreatedAt     time.Time `json:"created_at"`
	Kind          string    `json:"kind"`
	ActorName     string    `json:"actor_name"`
	Content       string    `json:"content"`
	Mentions      []int64   `json:"mentions,omitempty"`
	EventID       int64     `json:"event_id"`
	StreamID      int64     `json:"stream_id"`
	WorkspaceID   int64     `json:"workspace_id"`
	ActorID       int64     `json:"actor_id"`
	ParentEventID *int64    `json:"parent_event_id,omitempty"`
}

func (StreamEventCreated) EventType() Type { return TypeStreamEventCreated }

type StreamEventEdited struct {
	EditedAt    time.Time `json:"edited_at"`
	Content     string    `json:"content"`
	EventID     int64     `json:"event_id"`
	StreamID    int64     `json:"stream_id"`
	WorkspaceID int64     `json:"workspace_id"`
}

func (StreamEventEdited) EventType() Type { return TypeStreamEventEdited }

type StreamEventDeleted struct {
	EventID     int64 `json:"event_id"`
	StreamID    int64 `json:"stream_id"`
	WorkspaceID int64 `json:"workspace_id"`
}

func (StreamEventDeleted) EventType() Type { return TypeStreamEventDeleted }

type StreamCreated struct {
	StreamType     string `json:"stream_type"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Visibility     string `json:"visibility"`
	StreamID       int64  `json:"stream_id"`
	WorkspaceID    int64  `json:"workspace_id"`
	CreatorID      int64  `json:"creator_id"`
	ParentStreamID *int64 `json:"parent_stream_id,omitempty"`
}

func (StreamCreated) EventType() Type { return TypeStreamCreated }

type StreamMemberAdded struct {
	StreamID    int64 `json:"stream_id"`
	WorkspaceID int64 `json:"workspace_id"`
	UserID      int64 `json:"user_id"`
	ActorID     int64 `json:"actor_id"`
}

func (StreamMemberAdded) EventType() Type { return TypeStreamMemberAdded }

type StreamMemberRemoved struct {
	StreamID    int64 `json:"stream_id"`
	WorkspaceID int64 `json:"workspace_id"`
	UserID      int64 `json:"user_id"`
	ActorID     int64 `json:"actor_id"`
}

func (StreamMemberRemoved) EventType() Type { return TypeStreamMemberRemoved }

type NotificationCreated struct {
	NotificationType string `json:"notification_type"`
	ActorName        string `json:"actor_name"`
	Preview          string `json:"preview"`
	// EventID is nil for notifications not anchored to a stream event,
	// such as being added to a stream.
	EventID     *int64 `json:"event_id,omitempty"`
	ID          int64  `json:"id"`
	WorkspaceID int64  `json:"workspace_id"`
	UserID      int64  `json:"user_id"`
	StreamID    int64  `json:"stream_id"`
	ActorID     int64  `json:"actor_id"`
}

func (NotificationCreated) EventType() Type { return TypeNotificationCreated }

type ReadCursorUpdated struct {
	StreamID    int64 `json:"stream_id"`
	WorkspaceID int64 `json:"workspace_id"`
	UserID      int64 `json:"user_id"`
	EventID     int64 `json:"event_id"`
}

func (ReadCursorUpdated) EventType() Type { return TypeReadCursorUpdated }

// ReplyCountUpdated is derived: recomputed from live children whenever a
// reply commits, then published like any primary event. ThreadStreamID is
// nil until the thread container exists.
type ReplyCountUpdated struct {
	ParentEventID  int64  `json:"parent_event_id"`
	ReplyCount     int64  `json:"reply_count"`
	StreamID       int64  `json:"stream_id"`
	WorkspaceID    int64  `json:"workspace_id"`
	ThreadStreamID *int64 `json:"thread_stream_id,omitempty"`
}

func (ReplyCountUpdated) EventType() Type { return TypeReplyCountUpdated }

type Typing struct {
	StreamID    int64 `json:"stream_id"`
	WorkspaceID int64 `json:"workspace_id"`
	UserID      int64 `json:"user_id"`
	Started     bool  `json:"started"`
}

func (Typing) EventType() Type { return TypeTyping }

// New wraps a payload in an envelope.
func New(p Payload) (Envelope, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", p.EventType(), err)
	}
	return Envelope{Type: p.EventType(), Payload: raw}, nil
}

// ErrUnknownType marks envelopes from newer producers; consumers drop them.
type ErrUnknownType struct {
	Type Type
}

func (e ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown event type %q", e.Type)
}

// Decode returns the typed payload for the envelope.
func (e Envelope) Decode() (Payload, error) {
	var p Payload
	switch e.Type {
	case TypeStreamEventCreated:
		p = &StreamEventCreated{}
	case TypeStreamEventEdited:
		p = &StreamEventEdited{}
	case TypeStreamEventDeleted:
		p = &StreamEventDeleted{}
	case TypeStreamCreated:
		p = &StreamCreated{}
	case TypeStreamMemberAdded:
		p = &StreamMemberAdded{}
	case TypeStreamMemberRemoved:
		p = &StreamMemberRemoved{}
	case TypeNotificationCreated:
		p = &NotificationCreated{}
	case TypeReadCursorUpdated:
		p = &ReadCursorUpdated{}
	case TypeReplyCountUpdated:
		p = &ReplyCountUpdated{}
	case TypeTyping:
		p = &Typing{}
	default:
		return nil, ErrUnknownType{Type: e.Type}
	}
	if err := json.Unmarshal(e.Payload, p); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", e.Type, err)
	}
	return p, nil
}

// Family returns the catalog family a type belongs to; relay channels are
// named per family so gateways can subscribe to the whole catalog with a
// short fixed list.
func (t Type) Family() string {
	if i := strings.IndexByte(string(t), '.'); i > 0 {
		return string(t)[:i]
	}
	return string(t)
}

// Families lists every family in the catalog, including the ephemeral
// typing family.
func Families() []string {
	return []string{
		"stream_event",
		"stream",
		"notification",
		"read_cursor",
		"reply_count_updated",
		"typing",
	}
}
