package router

import (
	"github.com/gin-gonic/gin"

	"teamline.app/pulse/internal/http/handler"
	"teamline.app/pulse/internal/service"
)

type RouterConfig struct {
	SessionSecret string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(handler.RequireSession(cfg.SessionSecret))
	{
		streamHandler := handler.NewStreamHandler(services.Streams(), services.Memberships(), services.ReadCursors())
		eventHandler := handler.NewStreamEventHandler(services.Messages())
		StreamRouter(v1.Group("/streams"), streamHandler, eventHandler)
		EventRouter(v1.Group("/events"), eventHandler)
	}
}
