package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maraichr/coursesync/internal/app"
	"github.com/maraichr/coursesync/internal/config"
	"github.com/maraichr/coursesync/internal/connectors"
	"github.com/maraichr/coursesync/internal/logging"
	"github.com/maraichr/coursesync/internal/queue"
	minioclient "github.com/maraichr/coursesync/internal/store/minio"
	"github.com/maraichr/coursesync/internal/worker"
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

	a, err := app.Open(ctx, cfg, logger, app.Options{RequireValkey: true})
	if err != nil {
		logger.Error("failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	deps := worker.Deps{
		Syncer: a.Service,
		Jobs:   a.Store,
		Git:    connectors.NewGitConnector(cfg.Git.Token, cfg.Git.Branch, logger),
		Logger: logger,
	}

	// MinIO (optional: enables upload jobs)
	mc, err := minioclient.NewClient(cfg.MinIO)
	if err != nil {
		logger.Warn("minio connection failed, upload jobs will fail", slog.String("error", err.Error()))
	} else {
		deps.Upload = connectors.NewUploadConnector(mc)
		logger.Info("connected to minio")
	}

	// S3 connector (optional)
	if cfg.S3.Bucket != "" {
		s3Conn, err := connectors.NewS3Connector(ctx, cfg.S3)
		if err != nil {
			logger.Warn("s3 connector init failed", slog.String("error", err.Error()))
		} else {
			deps.S3 = s3Conn
			logger.Info("s3 connector enabled", slog.String("bucket", cfg.S3.Bucket))
		}
	}

	handler := worker.NewHandler(deps)

	hostname, _ := os.Hostname()
	consumer := queue.NewConsumer(a.Valkey, "worker-"+hostname, logger)
	if err := consumer.EnsureGroup(ctx); err != nil {
		logger.Error("failed to ensure consumer group", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("starting worker, consuming from stream", slog.String("stream", queue.StreamName))
	if err := consumer.Consume(ctx, handler.Handle); err != nil && ctx.Err() == nil {
		logger.Error("consumer error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
