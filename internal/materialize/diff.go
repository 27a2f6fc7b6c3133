package materialize

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aosc-dev/p-vector/internal/notify"
)

// LatestSnapshot maps repo name to its package->version set in
// latest, at one point in time. Snapshot takes it before a scan;
// DiffSnapshots compares it against a second Snapshot taken after the
// scan's refresh, per spec.md §4.7.
type LatestSnapshot map[string]map[string]string

// Snapshot captures the current latest relation, joined out to repo
// names and package versions, for later comparison by DiffSnapshots.
func Snapshot(ctx context.Context, pool *pgxpool.Pool) (LatestSnapshot, error) {
	rows, err := pool.Query(ctx, `
		SELECT r.name, p.package, p.version
		FROM latest l
		JOIN repos r ON r.id = l.repo_id
		JOIN packages p ON p.id = l.package_id
	`)
	if err != nil {
		return nil, fmt.Errorf("materialize: snapshotting latest: %w", err)
	}
	defer rows.Close()

	snap := make(LatestSnapshot)
	for rows.Next() {
		var repoName, pkg, version string
		if err := rows.Scan(&repoName, &pkg, &version); err != nil {
			return nil, fmt.Errorf("materialize: scanning snapshot row: %w", err)
		}
		if snap[repoName] == nil {
			snap[repoName] = make(map[string]string)
		}
		snap[repoName][pkg] = version
	}
	return snap, rows.Err()
}

// DiffSnapshots computes the symmetric diff of before vs. after,
// grouped by repo, per spec.md §4.7. Repos with no change are omitted
// entirely.
func DiffSnapshots(before, after LatestSnapshot) []notify.RepoDiff {
	repoNames := make(map[string]bool)
	for r := range before {
		repoNames[r] = true
	}
	for r := range after {
		repoNames[r] = true
	}

	var diffs []notify.RepoDiff
	for repoName := range repoNames {
		b, a := before[repoName], after[repoName]
		d := notify.RepoDiff{Repo: repoName}

		for pkg, newVer := range a {
			oldVer, existed := b[pkg]
			if !existed {
				d.Added = append(d.Added, pkg+"="+newVer)
			} else if oldVer != newVer {
				d.Updated = append(d.Updated, notify.UpdateDiff{Name: pkg, Old: oldVer, New: newVer})
			}
		}
		for pkg, oldVer := range b {
			if _, stillPresent := a[pkg]; !stillPresent {
				d.Removed = append(d.Removed, pkg+"="+oldVer)
			}
		}

		if len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Updated) > 0 {
			diffs = append(diffs, d)
		}
	}
	return diffs
}
