package materialize

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// refreshLatest rebuilds latest: the row with maximum vercomp per
// (repo, package), restricted to rows with a known debtime, per
// spec.md §4.5 step 1. Ties break lexicographically on version.
func refreshLatest(ctx context.Context, pool *pgxpool.Pool) error {
	return swapTable(ctx, pool, "latest", "latest_new", `
		CREATE TABLE latest_new AS
		SELECT DISTINCT ON (repo_id, package) repo_id, package, id AS package_id
		FROM packages
		WHERE debtime IS NOT NULL
		ORDER BY repo_id, package, vercomp DESC, version DESC
	`, `ALTER TABLE latest_new ADD PRIMARY KEY (repo_id, package)`)
}
