package materialize

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// refreshRanked rebuilds ranked: every Package row with its rank
// (1 = latest) per (package, repo, architecture), per spec.md §4.5
// step 2. Ranks greater than 1 are outdated.
func refreshRanked(ctx context.Context, pool *pgxpool.Pool) error {
	return swapTable(ctx, pool, "ranked", "ranked_new", `
		CREATE TABLE ranked_new AS
		SELECT repo_id, package, id AS package_id,
		       rank() OVER (
		           PARTITION BY repo_id, package, architecture
		           ORDER BY vercomp DESC, version DESC
		       ) AS rank
		FROM packages
	`, `CREATE INDEX ranked_new_repo_package_idx ON ranked_new(repo_id, package)`)
}
