package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"teamline.app/pulse/internal/http/dto"
	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/service"
)

type StreamHandler struct {
	streams     service.StreamService
	memberships service.MembershipService
	cursors     service.ReadCursorService
}

func NewStreamHandler(streams service.StreamService, memberships service.MembershipService, cursors service.ReadCursorService) *StreamHandler {
	return &StreamHandler{streams: streams, memberships: memberships, cursors: cursors}
}

func (h *StreamHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	streamType := model.StreamTypeChannel
	if req.Type != "" {
		streamType = model.StreamType(req.Type)
	}
	visibility := model.VisibilityPublic
	if req.Visibility != "" {
		visibility = model.Visibility(req.Visibility)
	}

	principal := currentPrincipal(c)
	stream, err := h.streams.Create(ctx, service.CreateStreamInput{
		Name:          req.Name,
		Type:          streamType,
		Visibility:    visibility,
		WorkspaceID:   principal.WorkspaceID,
		CreatorID:     principal.UserID,
		ParentEventID: req.ParentEventID,
	})
	if err != nil {
		writeServiceError(c, err, "failed to create stream")
		return
	}

	c.JSON(http.StatusCreated, dto.ToStreamResponse(stream))
}

func (h *StreamHandler) AddMember(c *gin.Context) {
	streamID, ok := pathID(c, "streamID")
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal := currentPrincipal(c)
	err := h.memberships.Add(c.Request.Context(), principal.WorkspaceID, streamID, req.UserID, principal.UserID, principal.Email)
	if err != nil {
		writeServiceError(c, err, "failed to add stream member")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) RemoveMember(c *gin.Context) {
	streamID, ok := pathID(c, "streamID")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}

	principal := currentPrincipal(c)
	err := h.memberships.Remove(c.Request.Context(), principal.WorkspaceID, streamID, userID, principal.UserID)
	if err != nil {
		writeServiceError(c, err, "failed to remove stream member")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *StreamHandler) MarkRead(c *gin.Context) {
	h.moveCursor(c, h.cursors.MarkRead)
}

func (h *StreamHandler) MarkUnread(c *gin.Context) {
	h.moveCursor(c, h.cursors.MarkUnread)
}

func (h *StreamHandler) moveCursor(c *gin.Context, move func(ctx context.Context, workspaceID, userID, streamID, eventID int64) error) {
	streamID, ok := pathID(c, "streamID")
	if !ok {
		return
	}

	var req dto.ReadCursorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal := currentPrincipal(c)
	if err := move(c.Request.Context(), principal.WorkspaceID, principal.UserID, streamID, req.EventID); err != nil {
		writeServiceError(c, err, "failed to move read cursor")
		return
	}

	c.Status(http.StatusNoContent)
}
