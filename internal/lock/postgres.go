package lock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maraichr/coursesync/internal/syncer"
)

// Postgres holds session-level advisory locks. Each held lock pins one pool
// connection until it is released, since advisory locks belong to the
// session that took them.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) TryLock(ctx context.Context, name string) (syncer.Lock, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for lock %s: %w", name, err)
	}

	var ok bool
	if err := conn.QueryRow(ctx,
		`SELECT pg_try_advisory_lock(hashtextextended($1, 0))`, name,
	).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("try advisory lock %s: %w", name, err)
	}
	if !ok {
		conn.Release()
		return nil, nil
	}
	return &postgresLock{conn: conn, name: name}, nil
}

type postgresLock struct {
	conn *pgxpool.Conn
	name string
}

func (l *postgresLock) Name() string { return l.name }

// Release unlocks and returns the session to the pool. When the unlock
// query fails the session may still hold the lock, so it is closed instead;
// closing a session drops every advisory lock it holds.
func (l *postgresLock) Release(ctx context.Context) error {
	var ok bool
	if err := l.conn.QueryRow(ctx,
		`SELECT pg_advisory_unlock(hashtextextended($1, 0))`, l.name,
	).Scan(&ok); err != nil {
		if closeErr := l.conn.Hijack().Close(ctx); closeErr != nil {
			return errors.Join(fmt.Errorf("advisory unlock %s: %w", l.name, err),
				fmt.Errorf("close lock session: %w", closeErr))
		}
		return fmt.Errorf("advisory unlock %s: %w", l.name, err)
	}
	l.conn.Release()
	if !ok {
		return fmt.Errorf("advisory lock %s was not held", l.name)
	}
	return nil
}
