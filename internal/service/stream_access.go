package service

import (
	"context"
	"errors"
	"fmt"

	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/store"
)

// StreamAccess answers the gateway's subscribe question with the same rule
// the write path applies when posting: a public stream is readable by the
// whole workspace, a private stream only by its members. A workspace
// member viewing a public channel therefore receives its live events even
// without a membership row.
type StreamAccess struct {
	streams store.StreamStore
	members store.MembershipStore
}

func NewStreamAccess(streams store.StreamStore, members store.MembershipStore) *StreamAccess {
	return &StreamAccess{streams: streams, members: members}
}

func (a *StreamAccess) CanSubscribe(ctx context.Context, workspaceID, userID, streamID int64) (bool, error) {
	stream, err := a.streams.GetByID(ctx, streamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Unknown streams are refused, not errored, so a probing
			// client cannot distinguish them from forbidden ones.
			return false, nil
		}
		return false, fmt.Errorf("loading stream: %w", err)
	}
	if stream.WorkspaceID != workspaceID {
		return false, nil
	}
	if stream.Visibility == model.VisibilityPublic {
		return true, nil
	}

	ok, err := a.members.IsMember(ctx, streamID, userID)
	if err != nil {
		return false, fmt.Errorf("checking stream membership: %w", err)
	}
	return ok, nil
}
