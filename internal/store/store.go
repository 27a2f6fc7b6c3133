// Package store is the PostgreSQL access layer: schema management, the
// Scan Orchestrator's transactional per-file upsert, and the read
// queries behind the Index Emitter. The Derived-Index Materializer's
// shadow-table swap lives in package materialize, which reaches the
// database through Pool.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aosc-dev/p-vector/internal/errs"
	"github.com/aosc-dev/p-vector/internal/utils/logger"
)

// Store wraps a pooled Postgres connection.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to connString, applies schema (idempotent), and
// returns a ready Store.
func Open(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("store: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: applying schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pgxpool.Pool for callers (materialize,
// the full command's snapshots) that need to run SQL directly.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// classify maps a Postgres driver error to errs.ErrDBTransient or
// errs.ErrDBFatal. Connection-level failures and a narrow set of
// retryable SQLSTATE classes (serialization failure, deadlock,
// connection exception) are transient; everything else - including
// constraint violations, which indicate a logic bug rather than a
// races-with-itself condition - is fatal.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code[:2] {
		case "40", "08": // transaction rollback, connection exception
			return fmt.Errorf("%w: %s", errs.ErrDBTransient, pgErr.Message)
		default:
			return fmt.Errorf("%w: %s", errs.ErrDBFatal, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", errs.ErrDBTransient, err)
}

// retryBackoff implements the 3-attempt, base-250ms-doubling retry
// spec.md §4.4 prescribes for transient DB errors during a scan.
func retryBackoff(ctx context.Context, op func() error) error {
	const attempts = 3
	base := 250 * time.Millisecond
	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, errs.ErrDBTransient) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}
		logger.Logger().Warnw("transient database error, retrying", "attempt", i+1, "error", lastErr)
		select {
		case <-time.After(base):
		case <-ctx.Done():
			return ctx.Err()
		}
		base *= 2
	}
	return lastErr
}
