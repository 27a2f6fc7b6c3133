package materialize

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// refreshSoBreaks rebuilds so_breaks: edges between a SONAME provider
// and a consumer that links it, per spec.md §4.5 step 4. The first
// disjunct joins provider and consumer SoDep rows directly; the second
// pulls consumer candidates from errno=431 Issue rows (a missing-SONAME
// warning recorded before the providing package existed in the repo)
// whose recorded sover_provide prefix-matches the provider's version.
func refreshSoBreaks(ctx context.Context, pool *pgxpool.Pool) error {
	return swapTable(ctx, pool, "so_breaks", "so_breaks_new", `
		CREATE TABLE so_breaks_new AS
		WITH provider AS (
			SELECT p.package AS provider_pkg, rp.name AS provider_repo,
			       rp.architecture AS provider_arch, rp.testing AS provider_testing,
			       rp.component AS provider_component,
			       sd.name AS soname, sd.ver AS sover
			FROM so_deps sd
			JOIN packages p ON p.id = sd.package_id
			JOIN latest l ON l.package_id = p.id
			JOIN repos rp ON rp.id = p.repo_id
			WHERE sd.depends = false
		),
		consumer AS (
			SELECT p2.package AS consumer_pkg, rc.name AS consumer_repo,
			       rc.architecture AS consumer_arch, rc.testing AS consumer_testing,
			       rc.component AS consumer_component,
			       p2.version AS consumer_ver, sd2.name AS soname, sd2.ver AS sodepver
			FROM so_deps sd2
			JOIN packages p2 ON p2.id = sd2.package_id
			JOIN latest l2 ON l2.package_id = p2.id
			JOIN repos rc ON rc.id = p2.repo_id
			WHERE sd2.depends = true
		)
		SELECT provider.provider_pkg, provider.provider_repo, provider.soname, provider.sover,
		       consumer.consumer_pkg, consumer.consumer_repo, consumer.consumer_ver, consumer.sodepver
		FROM provider
		JOIN consumer ON consumer.soname = provider.soname
			AND (consumer.sodepver = provider.sover OR provider.sover LIKE consumer.sodepver || '.%')
			AND (consumer.consumer_arch = provider.provider_arch OR consumer.consumer_arch = 'all')
			AND provider.provider_testing <= consumer.consumer_testing
			AND provider.provider_component IN (consumer.consumer_component, 'main')
			AND provider.provider_pkg <> consumer.consumer_pkg

		UNION ALL

		SELECT provider.provider_pkg, provider.provider_repo, provider.soname, provider.sover,
		       i.package AS consumer_pkg, i.repo AS consumer_repo, i.version AS consumer_ver,
		       i.detail->>'sover_provide' AS sodepver
		FROM provider
		JOIN issues i ON i.errno = 431
		JOIN repos rc ON rc.name = i.repo
		WHERE i.detail->>'sover_provide' LIKE provider.sover || '%'
			AND (rc.architecture = provider.provider_arch OR rc.architecture = 'all')
			AND provider.provider_testing <= rc.testing
			AND provider.provider_component IN (rc.component, 'main')
			AND provider.provider_pkg <> i.package
	`, `CREATE INDEX so_breaks_new_provider_idx ON so_breaks_new(provider_pkg, provider_repo)`,
		`CREATE INDEX so_breaks_new_consumer_idx ON so_breaks_new(consumer_pkg)`)
}
