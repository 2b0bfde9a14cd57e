package gateway

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"teamline.app/pulse/common/id"
	"teamline.app/pulse/common/logger"
)

// SubscriptionChecker is the external collaborator consulted before a
// client-requested stream join is honored. It mirrors the posting rule:
// public streams are open to the whole workspace, private streams require
// a membership row.
type SubscriptionChecker interface {
	CanSubscribe(ctx context.Context, workspaceID, userID, streamID int64) (bool, error)
}

// Conn is one live client connection. A user may hold many (devices, tabs).
type Conn struct {
	ID          string
	UserID      int64
	WorkspaceID int64
	Email       string

	out chan []byte
}

// Out is the connection's ordered delivery channel, consumed by the write
// pump. Closed by the hub on unregister or when the buffer overflows.
func (c *Conn) Out() <-chan []byte {
	return c.out
}

// Hub owns every live connection of one gateway process and the room
// membership index over them. It is the only shared mutable state in the
// process; everything routes through its lock.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	rooms map[string]map[string]*Conn
	// joined mirrors rooms from the connection side for O(1) teardown.
	joined map[string]map[string]bool

	access     SubscriptionChecker
	sendBuffer int
}

func NewHub(access SubscriptionChecker, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		conns:      make(map[string]*Conn),
		rooms:      make(map[string]map[string]*Conn),
		joined:     make(map[string]map[string]bool),
		access:     access,
		sendBuffer: sendBuffer,
	}
}

// Register creates the connection record and auto-joins its workspace and
// private user rooms. These two joins are never client-requested.
func (h *Hub) Register(userID int64, email string, workspaceID int64) *Conn {
	conn := &Conn{
		ID:          strconv.FormatInt(id.New(), 10),
		UserID:      userID,
		WorkspaceID: workspaceID,
		Email:       email,
		out:         make(chan []byte, h.sendBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[conn.ID] = conn
	h.joined[conn.ID] = make(map[string]bool)
	h.joinLocked(conn, WorkspaceRoom(workspaceID))
	h.joinLocked(conn, UserRoom(workspaceID, userID))

	slog.Debug("connection registered",
		"connection_id", conn.ID,
		"user_id", userID,
		"workspace_id", workspaceID)
	return conn
}

// Unregister tears the connection out of every room and closes its
// delivery channel. Safe to call twice.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn.ID]; !ok {
		return
	}
	h.dropLocked(conn)
}

// JoinStream honors a client join request after independently verifying
// access. An unauthorized join is a silent no-op so room existence is not
// leaked to the requester.
func (h *Hub) JoinStream(ctx context.Context, conn *Conn, streamID int64) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ConnectionID: logger.Ptr(conn.ID),
		StreamID:     logger.Ptr(streamID),
		UserID:       logger.Ptr(conn.UserID),
	})

	ok, err := h.access.CanSubscribe(ctx, conn.WorkspaceID, conn.UserID, streamID)
	if err != nil {
		return err
	}
	if !ok {
		slog.DebugContext(ctx, "ignoring unauthorized stream join")
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, live := h.conns[conn.ID]; !live {
		return nil
	}
	h.joinLocked(conn, StreamRoom(streamID))

	slog.DebugContext(ctx, "stream room joined")
	return nil
}

// LeaveStream removes the connection from a stream room. Auto-joined rooms
// cannot be left.
func (h *Hub) LeaveStream(conn *Conn, streamID int64) {
	room := StreamRoom(streamID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, conn.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.joined[conn.ID]; ok {
		delete(rooms, room)
	}
}

// Emit delivers data to every connection in the room, in the order Emit is
// called. A connection whose buffer is full is dropped: a stalled client
// must reconnect and reconcile over the read path rather than stall the
// routing loop. Returns the number of connections reached.
func (h *Hub) Emit(room string, data []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		// Nobody on this process cares about this room.
		return 0
	}

	sent := 0
	for _, conn := range members {
		select {
		case conn.out <- data:
			sent++
		default:
			slog.Warn("connection buffer full, dropping",
				"connection_id", conn.ID,
				"user_id", conn.UserID,
				"room", room)
			h.dropLocked(conn)
		}
	}
	return sent
}

// InRoom reports how many connections are currently joined to the room.
func (h *Hub) InRoom(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) joinLocked(conn *Conn, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Conn)
	}
	h.rooms[room][conn.ID] = conn
	h.joined[conn.ID][room] = true
}

func (h *Hub) dropLocked(conn *Conn) {
	for room := range h.joined[conn.ID] {
		if members, ok := h.rooms[room]; ok {
			delete(members, conn.ID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.joined, conn.ID)
	delete(h.conns, conn.ID)
	close(conn.out)
}
