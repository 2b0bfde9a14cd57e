package gateway

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers enforce cookie scoping; the credential itself is a
		// signed token, so cross-origin upgrades carry no ambient auth.
		return true
	},
}

// Handler upgrades websocket requests and hands each socket to a Client.
type Handler struct {
	hub     *Hub
	signals Signals
	cfg     ClientConfig
}

func NewHandler(hub *Hub, signals Signals, cfg ClientConfig) *Handler {
	return &Handler{hub: hub, signals: signals, cfg: cfg}
}

func (h *Handler) Serve(c *gin.Context) {
	ctx := c.Request.Context()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, ws, h.signals, h.cfg)
	go client.WritePump(ctx)
	client.Run(ctx)
}
