// Package lock provides the named lock backends used to serialize full
// course syncs.
package lock

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/maraichr/coursesync/internal/config"
	"github.com/maraichr/coursesync/internal/syncer"
)

// Backends carries the clients a lock backend may need. Only the one
// selected by the config has to be set.
type Backends struct {
	Pool   *pgxpool.Pool
	Valkey valkey.Client
}

// New returns the Locker selected by cfg.LockBackend.
func New(cfg config.SyncConfig, b Backends) (syncer.Locker, error) {
	switch cfg.LockBackend {
	case config.LockBackendPostgres:
		if b.Pool == nil {
			return nil, fmt.Errorf("postgres lock backend requires a database pool")
		}
		return NewPostgres(b.Pool), nil
	case config.LockBackendValkey:
		if b.Valkey == nil {
			return nil, fmt.Errorf("valkey lock backend requires a valkey client")
		}
		return NewValkey(b.Valkey, cfg.LockTTL), nil
	case config.LockBackendFile:
		return NewFile(cfg.LockDir)
	case config.LockBackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.LockBackend)
	}
}
