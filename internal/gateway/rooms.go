package gateway

import "fmt"

// Rooms are ephemeral multicast addresses rebuilt from authenticated
// connection state; nothing about them is persisted. Exactly three
// families exist:
//
//	workspace:{id}        badge-level updates for every member
//	stream:{id}           full-content updates for active viewers
//	user:{ws}:{uid}       private per-user delivery
//
// The workspace and user rooms are only ever joined by the gateway itself
// at registration, never on client request, so a client cannot spoof its
// way into another workspace or another user's private room.
func WorkspaceRoom(workspaceID int64) string {
	return fmt.Sprintf("workspace:%d", workspaceID)
}

func StreamRoom(streamID int64) string {
	return fmt.Sprintf("stream:%d", streamID)
}

func UserRoom(workspaceID, userID int64) string {
	return fmt.Sprintf("user:%d:%d", workspaceID, userID)
}
