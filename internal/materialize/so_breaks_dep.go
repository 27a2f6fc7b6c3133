package materialize

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// refreshSoBreaksDep rebuilds so_breaks_dep per spec.md §4.5 step 5.
//
// so_breaks itself only carries the direct provider/consumer edge; this
// relation expands each consumer's deplist one hop further through the
// union of the external package_dependencies relation and the reverse
// of so_breaks, so a caller asking "what does X depend on, accounting
// for SO breaks" gets back more than the immediate break partner. The
// base edges (package=consumer, dep_package=provider) are materialized
// first, then the one-hop adjacency pass runs over them, matching
// spec.md §9's "materialize the base edges first, then compute the
// adjacency in a second pass".
func refreshSoBreaksDep(ctx context.Context, pool *pgxpool.Pool) error {
	return swapTable(ctx, pool, "so_breaks_dep", "so_breaks_dep_new", `
		CREATE TABLE so_breaks_dep_new AS
		WITH base AS (
			SELECT DISTINCT consumer_pkg AS package, provider_pkg AS dep_package
			FROM so_breaks
		),
		adjacency AS (
			SELECT package, dep_package
			FROM package_dependencies
			WHERE relationship IN ('PKGDEP', 'BUILDDEP')
			UNION
			SELECT package, dep_package FROM base
		),
		expanded AS (
			SELECT b.package, a.dep_package
			FROM base b
			JOIN adjacency a ON a.package = b.dep_package
			WHERE a.dep_package <> b.package
		)
		SELECT DISTINCT package, dep_package FROM base
		UNION
		SELECT DISTINCT package, dep_package FROM expanded
	`, `CREATE INDEX so_breaks_dep_new_package_idx ON so_breaks_dep_new(package)`)
}
