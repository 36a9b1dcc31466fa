package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maraichr/coursesync/internal/config"
	"github.com/maraichr/coursesync/internal/logging"
	"github.com/maraichr/coursesync/internal/queue"
	"github.com/maraichr/coursesync/internal/scheduler"
	"github.com/maraichr/coursesync/internal/store"
	"github.com/maraichr/coursesync/internal/store/postgres"
	vk "github.com/maraichr/coursesync/internal/store/valkey"
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

	if len(cfg.Scheduler.CourseDirs) == 0 {
		logger.Error("SCHEDULER_COURSE_DIRS is empty, nothing to schedule")
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	vkClient, err := vk.NewClient(ctx, cfg.Valkey)
	if err != nil {
		logger.Error("failed to connect to valkey", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer vkClient.Close()
	logger.Info("connected to valkey")

	submitter := worker.NewSubmitter(store.New(pool), queue.NewProducer(vkClient), logger)
	sched := scheduler.New(submitter, cfg.Scheduler.CourseDirs, cfg.Scheduler.Interval, logger)

	logger.Info("starting scheduler",
		slog.Duration("interval", cfg.Scheduler.Interval),
		slog.Int("courses", len(cfg.Scheduler.CourseDirs)))
	sched.Run(ctx)
	logger.Info("scheduler stopped")
}
