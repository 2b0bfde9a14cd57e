package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"teamline.app/pulse/internal/http/dto"
	"teamline.app/pulse/internal/service"
)

type StreamEventHandler struct {
	messages service.MessageService
}

func NewStreamEventHandler(messages service.MessageService) *StreamEventHandler {
	return &StreamEventHandler{messages: messages}
}

func (h *StreamEventHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	streamID, ok := pathID(c, "streamID")
	if !ok {
		return
	}

	var req dto.CreateStreamEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal := currentPrincipal(c)
	ev, err := h.messages.Create(ctx, service.CreateMessageInput{
		WorkspaceID:        principal.WorkspaceID,
		StreamID:           streamID,
		ActorID:            principal.UserID,
		ActorName:          principal.Email,
		Content:            req.Content,
		Mentions:           req.Mentions,
		CrosspostStreamIDs: req.CrosspostStreamIDs,
		ParentEventID:      req.ParentEventID,
	})
	if err != nil {
		writeServiceError(c, err, "failed to create stream event")
		return
	}

	c.JSON(http.StatusCreated, dto.ToStreamEventResponse(ev))
}

func (h *StreamEventHandler) Edit(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, ok := pathID(c, "eventID")
	if !ok {
		return
	}

	var req dto.EditStreamEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, err := h.messages.Edit(ctx, service.EditMessageInput{
		EventID: eventID,
		ActorID: currentPrincipal(c).UserID,
		Content: req.Content,
	})
	if err != nil {
		writeServiceError(c, err, "failed to edit stream event")
		return
	}

	c.JSON(http.StatusOK, dto.ToStreamEventResponse(ev))
}

func (h *StreamEventHandler) Delete(c *gin.Context) {
	eventID, ok := pathID(c, "eventID")
	if !ok {
		return
	}

	if err := h.messages.Delete(c.Request.Context(), eventID, currentPrincipal(c).UserID); err != nil {
		writeServiceError(c, err, "failed to delete stream event")
		return
	}

	c.Status(http.StatusNoContent)
}

// pathID parses an int64 path parameter, replying 400 on garbage.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// writeServiceError maps service sentinels to HTTP status codes.
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrStreamNotFound),
		errors.Is(err, service.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotStreamMember),
		errors.Is(err, service.ErrNotAuthor),
		errors.Is(err, service.ErrCrossWorkspace):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrThreadExists):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
