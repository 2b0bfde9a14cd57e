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

	"teamline.app/pulse/common/id"
	"teamline.app/pulse/common/logger"
	"teamline.app/pulse/common/otel"
	"teamline.app/pulse/core/config"
	"teamline.app/pulse/core/db"
	"teamline.app/pulse/internal/dispatcher"
	"teamline.app/pulse/internal/relay"
	"teamline.app/pulse/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeDispatcher)
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

	slog.InfoContext(ctx, "pulse dispatcher starting",
		"env", cfg.Env,
		"cursor", cfg.Dispatcher.CursorName,
		"poll_interval", cfg.Dispatcher.PollInterval)

	if err := id.Init(2); err != nil {
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

	healthSrv := startHealthServer(ctx, cfg.Port)

	// The cursor is exclusive mutable state; blocking on the advisory
	// lock means standby replicas take over the moment the leader dies.
	slog.InfoContext(ctx, "acquiring dispatcher leadership", "key", cfg.Dispatcher.LeaderKey)
	leader, err := dispatcher.AcquireLeader(ctx, database.Pool(), cfg.Dispatcher.LeaderKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire leadership", "error", err)
		os.Exit(1)
	}
	defer leader.Release(ctx)
	slog.InfoContext(ctx, "dispatcher leadership acquired")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	publisher := relay.NewRedisPublisher(redisClient, cfg.Relay.ChannelPrefix, slog.Default())
	defer publisher.Close()

	stores := store.NewStores(database.Pool())
	wake := dispatcher.ListenWake(runCtx, redisClient, cfg.Relay.WakeChannel)

	d := dispatcher.New(stores.Outbox(), stores.Cursors(), publisher, wake, dispatcher.Config{
		CursorName:   cfg.Dispatcher.CursorName,
		PollInterval: cfg.Dispatcher.PollInterval,
		BatchSize:    cfg.Dispatcher.BatchSize,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Run(runCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	stopped := false
	select {
	case <-quit:
		slog.InfoContext(ctx, "shutting down dispatcher...")
	case err := <-errCh:
		stopped = true
		if err != nil {
			slog.ErrorContext(ctx, "dispatcher stopped with error", "error", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 30*time.Second)
	defer cancelShutdown()

	if !stopped {
		d.Stop()
		<-errCh
	}
	cancel()

	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "health server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// startHealthServer answers liveness probes even while the process is
// blocked waiting for dispatcher leadership.
func startHealthServer(ctx context.Context, port string) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "health server error", "error", err)
		}
	}()
	return srv
}
