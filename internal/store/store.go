package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maraichr/coursesync/internal/store/postgres"
	"github.com/maraichr/coursesync/internal/syncer"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	*postgres.Queries
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{
		Queries: postgres.New(pool),
		pool:    pool,
	}
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) WithTx(ctx context.Context, fn func(*postgres.Queries) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.Queries.WithTx(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// QuestionIdentity implements syncer.IntegrityLookup.
func (s *Store) QuestionIdentity(ctx context.Context, coursePath, qid, uuid string) (syncer.IntegrityRow, error) {
	row, err := s.GetQuestionIdentity(ctx, coursePath, qid, uuid)
	if err != nil {
		return syncer.IntegrityRow{}, err
	}
	var out syncer.IntegrityRow
	if row.ExistingUUID != nil {
		out.ExistingUUID = *row.ExistingUUID
	}
	if row.ExistingQID != nil {
		out.ExistingID = *row.ExistingQID
	}
	return out, nil
}
