// Package app assembles the sync service and its backing clients for the
// coursesync binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/maraichr/coursesync/internal/config"
	"github.com/maraichr/coursesync/internal/course"
	"github.com/maraichr/coursesync/internal/elements"
	"github.com/maraichr/coursesync/internal/fromdisk"
	"github.com/maraichr/coursesync/internal/lock"
	"github.com/maraichr/coursesync/internal/store"
	"github.com/maraichr/coursesync/internal/store/postgres"
	vk "github.com/maraichr/coursesync/internal/store/valkey"
	"github.com/maraichr/coursesync/internal/syncer"
)

// Options controls which optional backends Open insists on.
type Options struct {
	// RequireValkey fails Open when Valkey is unreachable instead of running
	// without the job queue and reload notifications.
	RequireValkey bool
}

type App struct {
	Pool     *pgxpool.Pool
	Store    *store.Store
	Valkey   valkey.Client // nil when not connected
	Elements *elements.Registry
	Service  *syncer.Service
}

// Open connects to Postgres and, when reachable, Valkey, then wires the sync
// service with the configured lock backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")

	a := &App{Pool: pool, Store: store.New(pool), Elements: elements.NewRegistry()}

	client, err := vk.NewClient(ctx, cfg.Valkey)
	switch {
	case err != nil && opts.RequireValkey:
		a.Close()
		return nil, fmt.Errorf("connect to valkey: %w", err)
	case err != nil:
		logger.Warn("valkey connection failed, job queue and reload notifications disabled", slog.String("error", err.Error()))
	default:
		a.Valkey = client
		logger.Info("connected to valkey")
	}

	locker, err := lock.New(cfg.Sync, lock.Backends{Pool: pool, Valkey: a.Valkey})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("lock backend: %w", err)
	}
	logger.Info("sync lock backend ready", slog.String("backend", cfg.Sync.LockBackend))

	a.Service = NewService(a.Store, locker, elements.NewReloader(a.Elements, a.Valkey), cfg.Sync, logger)
	return a, nil
}

// NewService wires the disk loader and per-kind syncers over s.
func NewService(s *store.Store, locker syncer.Locker, reload syncer.ReloadHook, cfg config.SyncConfig, logger *slog.Logger) *syncer.Service {
	return syncer.NewService(syncer.Deps{
		Loader:    course.NewDiskLoader(),
		Courses:   s,
		Integrity: s,
		Locker:    locker,
		Syncers:   fromdisk.NewSyncers(s, reload, logger),
		Logger:    logger,
	}, syncer.Options{
		ParallelInstances: cfg.ParallelInstances,
		Profile:           cfg.Profile,
	})
}

func (a *App) Close() {
	if a.Valkey != nil {
		a.Valkey.Close()
	}
	a.Pool.Close()
}
