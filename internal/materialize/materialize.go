// Package materialize implements the Derived-Index Materializer
// (spec.md §4.5): it refreshes latest, ranked, parsed_deps, so_breaks,
// and so_breaks_dep after every scan, each relation built into a
// shadow table and swapped into place atomically.
package materialize

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aosc-dev/p-vector/internal/store"
	"github.com/aosc-dev/p-vector/internal/utils/logger"
)

// Refresh runs all five relations in the order spec.md §4.5 requires:
// latest and ranked read only the base tables, parsed_deps depends on
// latest, so_breaks depends on latest and so_deps, so_breaks_dep
// depends on so_breaks.
func Refresh(ctx context.Context, st *store.Store) error {
	pool := st.Pool()

	if err := refreshLatest(ctx, pool); err != nil {
		return fmt.Errorf("materialize: latest: %w", err)
	}
	if err := refreshRanked(ctx, pool); err != nil {
		return fmt.Errorf("materialize: ranked: %w", err)
	}
	if err := refreshParsedDeps(ctx, pool); err != nil {
		return fmt.Errorf("materialize: parsed_deps: %w", err)
	}
	if err := refreshSoBreaks(ctx, pool); err != nil {
		return fmt.Errorf("materialize: so_breaks: %w", err)
	}
	if err := refreshSoBreaksDep(ctx, pool); err != nil {
		return fmt.Errorf("materialize: so_breaks_dep: %w", err)
	}
	logger.Logger().Info("materialized views refreshed")
	return nil
}

// swapTable builds a populated shadow table via buildSQL (expected to
// CREATE TABLE shadowName AS ...), then atomically renames it over
// liveName inside a single transaction, per spec.md §4.5's "build a
// new snapshot, then swap".
func swapTable(ctx context.Context, pool *pgxpool.Pool, liveName, shadowName, buildSQL string, indexSQL ...string) error {
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", shadowName)); err != nil {
		return fmt.Errorf("dropping stale shadow table: %w", err)
	}
	if _, err := pool.Exec(ctx, buildSQL); err != nil {
		return fmt.Errorf("building shadow table: %w", err)
	}
	for _, idx := range indexSQL {
		if _, err := pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("indexing shadow table: %w", err)
		}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning swap transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	oldName := liveName + "_old"
	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", oldName)); err != nil {
		return fmt.Errorf("clearing previous old table: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", liveName, oldName)); err != nil {
		return fmt.Errorf("renaming live table aside: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", shadowName, liveName)); err != nil {
		return fmt.Errorf("promoting shadow table: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing swap: %w", err)
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", oldName)); err != nil {
		logger.Logger().Warnw("failed to drop retired shadow table", "table", oldName, "error", err)
	}
	return nil
}
