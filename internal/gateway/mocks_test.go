package gateway_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/gateway"
)

type mockAccess struct {
	canSubscribeFn func(ctx context.Context, workspaceID, userID, streamID int64) (bool, error)
}

func (m *mockAccess) CanSubscribe(ctx context.Context, workspaceID, userID, streamID int64) (bool, error) {
	if m.canSubscribeFn != nil {
		return m.canSubscribeFn(ctx, workspaceID, userID, streamID)
	}
	return false, nil
}

func allowAll() *mockAccess {
	return &mockAccess{canSubscribeFn: func(context.Context, int64, int64, int64) (bool, error) {
		return true, nil
	}}
}

func denyAll() *mockAccess {
	return &mockAccess{}
}

type mockSignals struct{}

func (mockSignals) MarkRead(context.Context, int64, int64, int64, int64) error   { return nil }
func (mockSignals) MarkUnread(context.Context, int64, int64, int64, int64) error { return nil }
func (mockSignals) PublishTyping(context.Context, event.Typing) error            { return nil }

// receive pops the next delivery off a connection, failing if none is
// buffered.
func receive(conn *gateway.Conn) gateway.ServerMessage {
	GinkgoHelper()
	var data []byte
	Eventually(conn.Out()).Should(Receive(&data))

	var msg gateway.ServerMessage
	Expect(json.Unmarshal(data, &msg)).To(Succeed())
	return msg
}

func expectSilent(conn *gateway.Conn) {
	GinkgoHelper()
	Consistently(conn.Out()).ShouldNot(Receive())
}
