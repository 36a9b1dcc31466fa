package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maraichr/coursesync/internal/api"
	apihandler "github.com/maraichr/coursesync/internal/api/handler"
	"github.com/maraichr/coursesync/internal/app"
	"github.com/maraichr/coursesync/internal/config"
	"github.com/maraichr/coursesync/internal/logging"
	"github.com/maraichr/coursesync/internal/queue"
	minioclient "github.com/maraichr/coursesync/internal/store/minio"
	vk "github.com/maraichr/coursesync/internal/store/valkey"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Error("failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Store.Migrate(ctx); err != nil {
		logger.Error("failed to apply schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	deps := api.RouterDeps{
		DB:            a.Pool,
		Syncer:        a.Service,
		Courses:       a.Store,
		Jobs:          a.Store,
		WebhookSecret: cfg.Git.WebhookSecret,
	}

	// Valkey (optional: enables async jobs, uploads and webhooks)
	if a.Valkey != nil {
		deps.Producer = queue.NewProducer(a.Valkey)
		deps.Queue = apihandler.PingFunc(func(ctx context.Context) error { return vk.Ping(ctx, a.Valkey) })
	}

	// MinIO (optional: enables uploads)
	mc, err := minioclient.NewClient(cfg.MinIO)
	if err != nil {
		logger.Warn("minio connection failed, uploads disabled", slog.String("error", err.Error()))
	} else if err := mc.EnsureBucket(ctx); err != nil {
		logger.Warn("minio bucket unavailable, uploads disabled", slog.String("error", err.Error()))
	} else {
		deps.Uploads = mc
		logger.Info("connected to minio", slog.String("bucket", mc.Bucket()))
	}

	if deps.WebhookSecret == "" {
		logger.Info("GIT_WEBHOOK_SECRET not set, git webhooks disabled")
	}

	router := api.NewRouter(logger, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting API server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
