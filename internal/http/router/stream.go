package router

import (
	"github.com/gin-gonic/gin"

	"teamline.app/pulse/internal/http/handler"
)

func StreamRouter(rg *gin.RouterGroup, streams *handler.StreamHandler, events *handler.StreamEventHandler) {
	rg.POST("", streams.Create)
	rg.POST("/:streamID/events", events.Create)
	rg.POST("/:streamID/members", streams.AddMember)
	rg.DELETE("/:streamID/members/:userID", streams.RemoveMember)
	rg.POST("/:streamID/read", streams.MarkRead)
	rg.POST("/:streamID/unread", streams.MarkUnread)
}

func EventRouter(rg *gin.RouterGroup, events *handler.StreamEventHandler) {
	rg.PATCH("/:eventID", events.Edit)
	rg.DELETE("/:eventID", events.Delete)
}
