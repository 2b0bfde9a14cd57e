package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"teamline.app/pulse/common/id"
	"teamline.app/pulse/common/logger"
	"teamline.app/pulse/common/otel"
	"teamline.app/pulse/core/config"
	"teamline.app/pulse/core/db"
	"teamline.app/pulse/internal/gateway"
	"teamline.app/pulse/internal/http/middleware"
	"teamline.app/pulse/internal/outbox"
	"teamline.app/pulse/internal/relay"
	"teamline.app/pulse/internal/service"
	"teamline.app/pulse/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeGateway)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "pulse gateway starting", "env", cfg.Env, "port", cfg.Port)
	if err := id.Init(3); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Relay.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "channel_prefix", cfg.Relay.ChannelPrefix)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stores := store.NewStores(database.Pool())
	access := service.NewStreamAccess(stores.Streams(), stores.Memberships())
	hub := gateway.NewHub(access, cfg.Gateway.SendBufferSize)

	// Every gateway process consumes the full relay stream and narrows it
	// down to its own rooms.
	subscriber := relay.NewRedisSubscriber(redisClient, cfg.Relay.ChannelPrefix, 256)
	go func() {
		if err := subscriber.Run(runCtx); err != nil {
			slog.ErrorContext(runCtx, "relay subscription ended", "error", err)
		}
	}()
	go gateway.RunRouter(runCtx, subscriber.Envelopes(), hub)

	waker := outbox.NewRedisWaker(redisClient, cfg.Relay.WakeChannel)
	publisher := relay.NewRedisPublisher(redisClient, cfg.Relay.ChannelPrefix, slog.Default())
	defer publisher.Close()

	cursors := service.NewReadCursorService(service.NewTxRunner(database), waker)
	signals := service.NewGatewaySignals(cursors, publisher)

	wsHandler := gateway.NewHandler(hub, signals, gateway.ClientConfig{
		Secret:       cfg.Session.Secret,
		AuthTimeout:  cfg.Gateway.AuthTimeout,
		WriteTimeout: cfg.Gateway.WriteTimeout,
		PongTimeout:  cfg.Gateway.PongTimeout,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/ws", wsHandler.Serve)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "gateway listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down gateway...")

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}
	cancel()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}
