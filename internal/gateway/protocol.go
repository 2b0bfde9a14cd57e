package gateway

// Client-originated signal types. All of them are ephemeral: none touches
// the outbox except read_cursor/mark_unread, which go through the normal
// write path and come back over the relay.
const (
	ClientAuth       = "auth"
	ClientJoin       = "join"
	ClientLeave      = "leave"
	ClientTyping     = "typing"
	ClientReadCursor = "read_cursor"
	ClientMarkUnread = "mark_unread"
)

// Server-originated lifecycle signal types. Event emits reuse the envelope
// event_type as the message type.
const (
	ServerConnected     = "connected"
	ServerAuthenticated = "authenticated"
	ServerError         = "error"
)

type ClientMessage struct {
	Type     string `json:"type"`
	Token    string `json:"token,omitempty"`
	StreamID int64  `json:"stream_id,omitempty"`
	EventID  int64  `json:"event_id,omitempty"`
	Started  bool   `json:"started,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Room string `json:"room,omitempty"`
	Data any    `json:"data,omitempty"`
}
