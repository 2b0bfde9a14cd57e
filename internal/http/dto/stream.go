package dto

import (
	"time"

	"teamline.app/pulse/internal/model"
)

type CreateStreamRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=255"`
	Type          string `json:"type" binding:"omitempty,oneof=channel thread dm"`
	Visibility    string `json:"visibility" binding:"omitempty,oneof=public private"`
	ParentEventID *int64 `json:"parent_event_id,string,omitempty"`
}

type StreamResponse struct {
	ID            int64     `json:"id,string"`
	WorkspaceID   int64     `json:"workspace_id,string"`
	CreatorID     int64     `json:"creator_id,string"`
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Visibility    string    `json:"visibility"`
	ParentEventID *int64    `json:"parent_event_id,string,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func ToStreamResponse(s *model.Stream) *StreamResponse {
	return &StreamResponse{
		ID:            s.ID,
		WorkspaceID:   s.WorkspaceID,
		CreatorID:     s.CreatorID,
		Type:          string(s.Type),
		Name:          s.Name,
		Slug:          s.Slug,
		Visibility:    string(s.Visibility),
		ParentEventID: s.ParentEventID,
		CreatedAt:     s.CreatedAt,
	}
}
