package handler_test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"teamline.app/pulse/internal/http/handler"
	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/service"
)

var _ = Describe("StreamHandler", func() {
	var (
		router  *gin.Engine
		streams *mockStreamService
		members *mockMembershipService
		cursors *mockReadCursorService
		token   string
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		streams = &mockStreamService{}
		members = &mockMembershipService{}
		cursors = &mockReadCursorService{}
		token = signedToken(9, 1)

		h := handler.NewStreamHandler(streams, members, cursors)
		v1 := router.Group("/api/v1")
		v1.Use(handler.RequireSession(testSecret))
		v1.POST("/streams", h.Create)
		v1.POST("/streams/:streamID/members", h.AddMember)
		v1.DELETE("/streams/:streamID/members/:userID", h.RemoveMember)
		v1.POST("/streams/:streamID/read", h.MarkRead)
		v1.POST("/streams/:streamID/unread", h.MarkUnread)
	})

	Describe("Create", func() {
		It("defaults to a public channel", func() {
			streams.createFn = func(_ context.Context, in service.CreateStreamInput) (*model.Stream, error) {
				Expect(in.Type).To(Equal(model.StreamTypeChannel))
				Expect(in.Visibility).To(Equal(model.VisibilityPublic))
				Expect(in.WorkspaceID).To(Equal(int64(1)))
				Expect(in.CreatorID).To(Equal(int64(9)))
				return &model.Stream{ID: 5, Name: in.Name, Slug: "general"}, nil
			}

			w := doJSON(router, http.MethodPost, "/api/v1/streams", token,
				map[string]string{"name": "General"})

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["slug"]).To(Equal("general"))
		})

		It("rejects unknown stream types", func() {
			w := doJSON(router, http.MethodPost, "/api/v1/streams", token,
				map[string]string{"name": "x", "type": "broadcast"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("maps a duplicate thread to 422", func() {
			streams.createFn = func(context.Context, service.CreateStreamInput) (*model.Stream, error) {
				return nil, service.ErrThreadExists
			}

			w := doJSON(router, http.MethodPost, "/api/v1/streams", token,
				map[string]any{"name": "thread", "parent_event_id": "501"})
			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})
	})

	Describe("members", func() {
		It("adds a member on behalf of the principal", func() {
			called := false
			members.addFn = func(_ context.Context, workspaceID, streamID, userID, actorID int64, actorName string) error {
				called = true
				Expect(workspaceID).To(Equal(int64(1)))
				Expect(streamID).To(Equal(int64(5)))
				Expect(userID).To(Equal(int64(12)))
				Expect(actorID).To(Equal(int64(9)))
				return nil
			}

			w := doJSON(router, http.MethodPost, "/api/v1/streams/5/members", token,
				map[string]string{"user_id": "12"})

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(called).To(BeTrue())
		})

		It("removes a member by path", func() {
			members.removeFn = func(_ context.Context, _, streamID, userID, _ int64) error {
				Expect(streamID).To(Equal(int64(5)))
				Expect(userID).To(Equal(int64(12)))
				return nil
			}

			w := doJSON(router, http.MethodDelete, "/api/v1/streams/5/members/12", token, nil)
			Expect(w.Code).To(Equal(http.StatusNoContent))
		})
	})

	Describe("read cursors", func() {
		It("marks a stream read up to an event", func() {
			cursors.markReadFn = func(_ context.Context, workspaceID, userID, streamID, eventID int64) error {
				Expect(userID).To(Equal(int64(9)))
				Expect(streamID).To(Equal(int64(5)))
				Expect(eventID).To(Equal(int64(501)))
				return nil
			}

			w := doJSON(router, http.MethodPost, "/api/v1/streams/5/read", token,
				map[string]string{"event_id": "501"})
			Expect(w.Code).To(Equal(http.StatusNoContent))
		})

		It("marks unread through the dedicated endpoint", func() {
			called := false
			cursors.markUnreadFn = func(_ context.Context, _, _, _, eventID int64) error {
				called = true
				Expect(eventID).To(Equal(int64(100)))
				return nil
			}

			w := doJSON(router, http.MethodPost, "/api/v1/streams/5/unread", token,
				map[string]string{"event_id": "100"})
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(called).To(BeTrue())
		})
	})
})
