package gateway_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/gateway"
)

func mustEnvelope(p event.Payload) event.Envelope {
	GinkgoHelper()
	env, err := event.New(p)
	Expect(err).NotTo(HaveOccurred())
	return env
}

var _ = Describe("Route", func() {
	It("fans stream_event.created out to the stream room and a workspace badge", func() {
		emits, err := gateway.Route(mustEnvelope(event.StreamEventCreated{
			EventID:     501,
			StreamID:    5,
			WorkspaceID: 1,
			ActorID:     9,
			ActorName:   "Ada",
			Content:     "hello",
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(emits).To(HaveLen(2))

		Expect(emits[0].Room).To(Equal(gateway.StreamRoom(5)))
		full, ok := emits[0].Message.Data.(*event.StreamEventCreated)
		Expect(ok).To(BeTrue())
		Expect(full.Content).To(Equal("hello"))

		Expect(emits[1].Room).To(Equal(gateway.WorkspaceRoom(1)))
		badge, ok := emits[1].Message.Data.(gateway.WorkspaceBadge)
		Expect(ok).To(BeTrue())
		Expect(badge).To(Equal(gateway.WorkspaceBadge{StreamID: 5, EventID: 501, ActorID: 9}))
	})

	It("routes edits and deletes to the stream room only", func() {
		for _, p := range []event.Payload{
			event.StreamEventEdited{EventID: 501, StreamID: 5, WorkspaceID: 1, Content: "hi"},
			event.StreamEventDeleted{EventID: 501, StreamID: 5, WorkspaceID: 1},
		} {
			emits, err := gateway.Route(mustEnvelope(p))
			Expect(err).NotTo(HaveOccurred())
			Expect(emits).To(HaveLen(1))
			Expect(emits[0].Room).To(Equal(gateway.StreamRoom(5)))
		}
	})

	It("announces a thread stream inside its parent's room", func() {
		parent := int64(5)
		emits, err := gateway.Route(mustEnvelope(event.StreamCreated{
			StreamID:       77,
			WorkspaceID:    1,
			StreamType:     "thread",
			ParentStreamID: &parent,
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(emits).To(HaveLen(1))
		Expect(emits[0].Room).To(Equal(gateway.StreamRoom(5)))
	})

	It("announces a public channel on the workspace room", func() {
		emits, err := gateway.Route(mustEnvelope(event.StreamCreated{
			StreamID:    78,
			WorkspaceID: 1,
			StreamType:  "channel",
			Visibility:  "public",
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(emits).To(HaveLen(1))
		Expect(emits[0].Room).To(Equal(gateway.WorkspaceRoom(1)))
	})

	It("keeps private channel creation off every room", func() {
		emits, err := gateway.Route(mustEnvelope(event.StreamCreated{
			StreamID:    79,
			WorkspaceID: 1,
			StreamType:  "channel",
			Visibility:  "private",
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(emits).To(BeEmpty())
	})

	It("delivers membership and notification events to the user's private room", func() {
		for _, p := range []event.Payload{
			event.StreamMemberAdded{StreamID: 5, WorkspaceID: 1, UserID: 9, ActorID: 2},
			event.StreamMemberRemoved{StreamID: 5, WorkspaceID: 1, UserID: 9, ActorID: 2},
			event.NotificationCreated{ID: 3, WorkspaceID: 1, UserID: 9, StreamID: 5},
			event.ReadCursorUpdated{StreamID: 5, WorkspaceID: 1, UserID: 9, EventID: 501},
		} {
			emits, err := gateway.Route(mustEnvelope(p))
			Expect(err).NotTo(HaveOccurred())
			Expect(emits).To(HaveLen(1))
			Expect(emits[0].Room).To(Equal(gateway.UserRoom(1, 9)))
		}
	})

	It("sends reply counts to the parent's stream room and the thread room", func() {
		thread := int64(77)
		emits, err := gateway.Route(mustEnvelope(event.ReplyCountUpdated{
			ParentEventID:  501,
			ReplyCount:     4,
			StreamID:       5,
			WorkspaceID:    1,
			ThreadStreamID: &thread,
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(emits).To(HaveLen(2))
		Expect(emits[0].Room).To(Equal(gateway.StreamRoom(5)))
		Expect(emits[1].Room).To(Equal(gateway.StreamRoom(77)))
	})

	It("sends reply counts to the parent room only before a thread exists", func() {
		emits, err := gateway.Route(mustEnvelope(event.ReplyCountUpdated{
			ParentEventID: 501,
			ReplyCount:    1,
			StreamID:      5,
			WorkspaceID:   1,
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(emits).To(HaveLen(1))
		Expect(emits[0].Room).To(Equal(gateway.StreamRoom(5)))
	})

	It("routes typing signals to the stream room", func() {
		emits, err := gateway.Route(mustEnvelope(event.Typing{StreamID: 5, WorkspaceID: 1, UserID: 9, Started: true}))
		Expect(err).NotTo(HaveOccurred())
		Expect(emits).To(HaveLen(1))
		Expect(emits[0].Room).To(Equal(gateway.StreamRoom(5)))
	})

	It("rejects unknown event types", func() {
		_, err := gateway.Route(event.Envelope{Type: "calendar.created", Payload: json.RawMessage(`{}`)})
		Expect(err).To(MatchError(event.ErrUnknownType{Type: "calendar.created"}))
	})
})

var _ = Describe("RunRouter", func() {
	It("gives joined members the full message and bystanders only the badge", func() {
		hub := gateway.NewHub(allowAll(), 64)
		joined := hub.Register(9, "ada@example.com", 1)
		bystander := hub.Register(10, "bob@example.com", 1)
		Expect(hub.JoinStream(context.Background(), joined, 5)).To(Succeed())

		envelopes := make(chan event.Envelope, 1)
		envelopes <- mustEnvelope(event.StreamEventCreated{
			EventID:     501,
			StreamID:    5,
			WorkspaceID: 1,
			ActorID:     10,
			Content:     "shipping friday",
		})
		close(envelopes)
		gateway.RunRouter(context.Background(), envelopes, hub)

		// The joined member sees the stream room copy first, then the badge
		// from the shared workspace room.
		stream := receive(joined)
		Expect(stream.Room).To(Equal(gateway.StreamRoom(5)))
		var full event.StreamEventCreated
		Expect(json.Unmarshal(mustRaw(stream.Data), &full)).To(Succeed())
		Expect(full.Content).To(Equal("shipping friday"))

		badgeMsg := receive(joined)
		Expect(badgeMsg.Room).To(Equal(gateway.WorkspaceRoom(1)))

		// The bystander gets the badge alone, never the content.
		only := receive(bystander)
		Expect(only.Room).To(Equal(gateway.WorkspaceRoom(1)))
		var badge gateway.WorkspaceBadge
		Expect(json.Unmarshal(mustRaw(only.Data), &badge)).To(Succeed())
		Expect(badge.EventID).To(Equal(int64(501)))
		expectSilent(bystander)
	})

	It("drops unknown event types and keeps routing", func() {
		hub := gateway.NewHub(allowAll(), 64)
		conn := hub.Register(9, "ada@example.com", 1)

		envelopes := make(chan event.Envelope, 2)
		envelopes <- event.Envelope{Type: "calendar.created", Payload: json.RawMessage(`{}`)}
		envelopes <- mustEnvelope(event.NotificationCreated{ID: 3, WorkspaceID: 1, UserID: 9})
		close(envelopes)
		gateway.RunRouter(context.Background(), envelopes, hub)

		Expect(receive(conn).Type).To(Equal("notification.created"))
	})
})

// mustRaw re-encodes the decoded any value of a ServerMessage so tests can
// unmarshal it into the concrete payload type.
func mustRaw(data any) json.RawMessage {
	GinkgoHelper()
	raw, err := json.Marshal(data)
	Expect(err).NotTo(HaveOccurred())
	return raw
}
