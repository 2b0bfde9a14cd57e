package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"teamline.app/pulse/common/logger"
	"teamline.app/pulse/common/session"
	"teamline.app/pulse/internal/event"
)

const maxMessageSize = 8 * 1024

// Signals are the gateway's hooks for client-originated messages that need
// more than room bookkeeping: cursor updates go through the normal write
// path (and come back over the relay), typing goes straight to the relay.
type Signals interface {
	MarkRead(ctx context.Context, workspaceID, userID, streamID, eventID int64) error
	MarkUnread(ctx context.Context, workspaceID, userID, streamID, eventID int64) error
	PublishTyping(ctx context.Context, t event.Typing) error
}

type ClientConfig struct {
	Secret       string
	AuthTimeout  time.Duration
	WriteTimeout time.Duration
	PongTimeout  time.Duration
}

// Client drives one websocket through its lifecycle:
// CONNECTING -> AUTHENTICATING -> ESTABLISHED -> CLOSED.
// All state below is owned by the read pump goroutine.
type Client struct {
	hub     *Hub
	ws      *websocket.Conn
	signals Signals
	cfg     ClientConfig

	conn *Conn // nil until ESTABLISHED

	// Join requests arriving before setup completes are queued and
	// replayed in order instead of processed against incomplete state.
	pendingJoins []int64

	direct   chan []byte // lifecycle signals before a Conn exists
	attached chan *Conn
}

func NewClient(hub *Hub, ws *websocket.Conn, signals Signals, cfg ClientConfig) *Client {
	if cfg.AuthTimeout <= 0 {
		cfg.AuthTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	return &Client{
		hub:      hub,
		ws:       ws,
		signals:  signals,
		cfg:      cfg,
		direct:   make(chan []byte, 8),
		attached: make(chan *Conn, 1),
	}
}

// Run pumps inbound messages until the socket closes. The write pump must
// already be running.
func (c *Client) Run(ctx context.Context) {
	defer func() {
		if c.conn != nil {
			c.hub.Unregister(c.conn)
		}
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	// A connection that never authenticates is cut off, not left idle.
	authTimer := time.AfterFunc(c.cfg.AuthTimeout, func() {
		_ = c.ws.Close()
	})
	defer authTimer.Stop()

	c.sendDirect(ServerMessage{Type: ServerConnected})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.DebugContext(ctx, "websocket closed unexpectedly", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendDirect(ServerMessage{Type: ServerError, Data: "malformed message"})
			continue
		}

		if done := c.handle(ctx, msg, authTimer); done {
			return
		}
	}
}

// handle processes one inbound signal; returns true when the connection
// must terminate.
func (c *Client) handle(ctx context.Context, msg ClientMessage, authTimer *time.Timer) bool {
	switch msg.Type {
	case ClientAuth:
		if c.conn != nil {
			return false
		}
		return !c.authenticate(ctx, msg.Token, authTimer)

	case ClientJoin:
		if c.conn == nil {
			// Setup not complete yet; replayed in order after auth.
			c.pendingJoins = append(c.pendingJoins, msg.StreamID)
			return false
		}
		if err := c.hub.JoinStream(ctx, c.conn, msg.StreamID); err != nil {
			slog.WarnContext(ctx, "stream join failed", "error", err, "stream_id", msg.StreamID)
		}

	case ClientLeave:
		if c.conn != nil {
			c.hub.LeaveStream(c.conn, msg.StreamID)
		}

	case ClientTyping:
		if c.conn == nil {
			return false
		}
		t := event.Typing{
			StreamID:    msg.StreamID,
			WorkspaceID: c.conn.WorkspaceID,
			UserID:      c.conn.UserID,
			Started:     msg.Started,
		}
		if err := c.signals.PublishTyping(ctx, t); err != nil {
			slog.WarnContext(ctx, "typing publish failed", "error", err, "stream_id", msg.StreamID)
		}

	case ClientReadCursor:
		if c.conn == nil {
			return false
		}
		if err := c.signals.MarkRead(ctx, c.conn.WorkspaceID, c.conn.UserID, msg.StreamID, msg.EventID); err != nil {
			slog.WarnContext(ctx, "read cursor update failed", "error", err, "stream_id", msg.StreamID)
		}

	case ClientMarkUnread:
		if c.conn == nil {
			return false
		}
		if err := c.signals.MarkUnread(ctx, c.conn.WorkspaceID, c.conn.UserID, msg.StreamID, msg.EventID); err != nil {
			slog.WarnContext(ctx, "mark unread failed", "error", err, "stream_id", msg.StreamID)
		}

	default:
		c.sendDirect(ServerMessage{Type: ServerError, Data: "unknown signal type"})
	}
	return false
}

func (c *Client) authenticate(ctx context.Context, token string, authTimer *time.Timer) bool {
	claims, err := session.Parse(c.cfg.Secret, token)
	if err != nil {
		c.sendDirect(ServerMessage{Type: ServerError, Data: "authentication failed"})
		return false
	}
	userID, err := claims.UserID()
	if err != nil {
		c.sendDirect(ServerMessage{Type: ServerError, Data: "authentication failed"})
		return false
	}

	authTimer.Stop()
	c.conn = c.hub.Register(userID, claims.Email, claims.WorkspaceID)
	c.attached <- c.conn

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ConnectionID: logger.Ptr(c.conn.ID),
		UserID:       logger.Ptr(userID),
		WorkspaceID:  logger.Ptr(claims.WorkspaceID),
	})
	slog.InfoContext(ctx, "connection established")

	c.sendDirect(ServerMessage{Type: ServerAuthenticated})

	// Replay joins queued during the handshake, in arrival order.
	for _, streamID := range c.pendingJoins {
		if err := c.hub.JoinStream(ctx, c.conn, streamID); err != nil {
			slog.WarnContext(ctx, "queued stream join failed", "error", err, "stream_id", streamID)
		}
	}
	c.pendingJoins = nil
	return true
}

func (c *Client) sendDirect(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.direct <- data:
	default:
	}
}

// WritePump serializes all outbound traffic: lifecycle signals, room
// emits, and pings. It owns the socket's write side.
func (c *Client) WritePump(ctx context.Context) {
	pingPeriod := c.cfg.PongTimeout * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	var out <-chan []byte
	for {
		select {
		case <-ctx.Done():
			return

		case data := <-c.direct:
			if !c.write(websocket.TextMessage, data) {
				return
			}

		case conn := <-c.attached:
			out = conn.Out()

		case data, ok := <-out:
			if !ok {
				// Hub dropped or unregistered the connection.
				_ = c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(c.cfg.WriteTimeout))
				return
			}
			if !c.write(websocket.TextMessage, data) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) bool {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.ws.WriteMessage(messageType, data) == nil
}
