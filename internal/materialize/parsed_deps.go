package materialize

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aosc-dev/p-vector/internal/version"
)

// depItemPattern matches one alternative of a dependency list item,
// extracting (deppkg, deparch, relop, depver), per spec.md §4.5 step 3.
var depItemPattern = regexp.MustCompile(
	`^\s*([a-zA-Z0-9.+-]{2,})(?::([a-zA-Z0-9][a-zA-Z0-9-]*))?(?:\s*\(\s*([>=<]+)\s*([0-9a-zA-Z:+~.-]+)\s*\))?(?:\s*\[[\s!\w-]+\])?\s*(?:<.+>)?\s*$`,
)

type parsedDepRow struct {
	packageID    int64
	relationship string
	nr           int
	deppkg       string
	deparch      string
	relop        string
	depver       string
	depvercomp   string
}

// refreshParsedDeps rebuilds parsed_deps: for each Dependency row
// belonging to a package in latest, split its value on "," into
// ordered items, split each item on "|" into alternatives, and
// regex-parse each alternative. The split/parse work is done in Go
// (no SQL regex function the teacher or pack use for this), and the
// result is then bulk-loaded into the shadow table via CopyFrom.
func refreshParsedDeps(ctx context.Context, pool *pgxpool.Pool) error {
	rows, err := pool.Query(ctx, `
		SELECT d.package_id, d.relationship, d.value
		FROM dependencies d
		JOIN latest l ON l.package_id = d.package_id
	`)
	if err != nil {
		return fmt.Errorf("querying dependencies: %w", err)
	}
	defer rows.Close()

	var parsed []parsedDepRow
	for rows.Next() {
		var packageID int64
		var relationship, value string
		if err := rows.Scan(&packageID, &relationship, &value); err != nil {
			return fmt.Errorf("scanning dependency row: %w", err)
		}
		parsed = append(parsed, parseDependencyValue(packageID, relationship, value)...)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating dependencies: %w", err)
	}

	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS parsed_deps_new`); err != nil {
		return fmt.Errorf("dropping stale shadow table: %w", err)
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE parsed_deps_new (
			package_id   bigint NOT NULL,
			relationship text NOT NULL,
			nr           integer NOT NULL,
			deppkg       text NOT NULL,
			deparch      text NOT NULL DEFAULT '',
			relop        text NOT NULL DEFAULT '',
			depver       text NOT NULL DEFAULT '',
			depvercomp   text NOT NULL DEFAULT ''
		)
	`); err != nil {
		return fmt.Errorf("creating shadow table: %w", err)
	}

	if len(parsed) > 0 {
		_, err = pool.CopyFrom(ctx,
			pgx.Identifier{"parsed_deps_new"},
			[]string{"package_id", "relationship", "nr", "deppkg", "deparch", "relop", "depver", "depvercomp"},
			pgx.CopyFromSlice(len(parsed), func(i int) ([]any, error) {
				p := parsed[i]
				return []any{p.packageID, p.relationship, p.nr, p.deppkg, p.deparch, p.relop, p.depver, p.depvercomp}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("loading parsed dependencies: %w", err)
		}
	}
	if _, err := pool.Exec(ctx, `CREATE INDEX ON parsed_deps_new(deppkg)`); err != nil {
		return fmt.Errorf("indexing shadow table: %w", err)
	}

	return swapRelation(ctx, pool, "parsed_deps", "parsed_deps_new")
}

func parseDependencyValue(packageID int64, relationship, value string) []parsedDepRow {
	var out []parsedDepRow
	items := strings.Split(value, ",")
	for nr, item := range items {
		for _, alt := range strings.Split(item, "|") {
			m := depItemPattern.FindStringSubmatch(alt)
			if m == nil {
				continue
			}
			row := parsedDepRow{
				packageID:    packageID,
				relationship: relationship,
				nr:           nr + 1,
				deppkg:       m[1],
				deparch:      m[2],
				relop:        m[3],
				depver:       m[4],
			}
			if row.depver != "" {
				row.depvercomp = version.Encode(row.depver)
			}
			out = append(out, row)
		}
	}
	return out
}

// swapRelation is the bare rename-swap half of swapTable, for callers
// (like refreshParsedDeps) that build their shadow table's content
// with something other than a single CREATE TABLE AS SELECT.
func swapRelation(ctx context.Context, pool *pgxpool.Pool, liveName, shadowName string) error {
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
	_, _ = pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", oldName))
	return nil
}
