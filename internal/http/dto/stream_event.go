package dto

import (
	"time"

	"teamline.app/pulse/internal/model"
)

type CreateStreamEventRequest struct {
	Content            string  `json:"content" binding:"required,min=1,max=10000"`
	Mentions           []int64 `json:"mentions,omitempty" binding:"omitempty,max=50"`
	CrosspostStreamIDs []int64 `json:"crosspost_stream_ids,omitempty" binding:"omitempty,max=10"`
	ParentEventID      *int64  `json:"parent_event_id,string,omitempty"`
}

type EditStreamEventRequest struct {
	Content string `json:"content" binding:"required,min=1,max=10000"`
}

type StreamEventResponse struct {
	ID            int64      `json:"id,string"`
	StreamID      int64      `json:"stream_id,string"`
	WorkspaceID   int64      `json:"workspace_id,string"`
	ActorID       int64      `json:"actor_id,string"`
	Kind          string     `json:"kind"`
	Content       string     `json:"content"`
	Mentions      []int64    `json:"mentions,omitempty"`
	ParentEventID *int64     `json:"parent_event_id,string,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	EditedAt      *time.Time `json:"edited_at,omitempty"`
}

func ToStreamEventResponse(ev *model.StreamEvent) *StreamEventResponse {
	return &StreamEventResponse{
		ID:            ev.ID,
		StreamID:      ev.StreamID,
		WorkspaceID:   ev.WorkspaceID,
		ActorID:       ev.ActorID,
		Kind:          string(ev.Kind),
		Content:       ev.Content,
		Mentions:      ev.Mentions,
		ParentEventID: ev.ParentEventID,
		CreatedAt:     ev.CreatedAt,
		EditedAt:      ev.EditedAt,
	}
}

type ReadCursorRequest struct {
	EventID int64 `json:"event_id,string" binding:"required"`
}

type AddMemberRequest struct {
	UserID int64 `json:"user_id,string" binding:"required"`
}
