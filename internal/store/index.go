package store

import (
	"context"
	"fmt"

	"github.com/aosc-dev/p-vector/internal/repo"
)

// LatestPackages returns every Package row currently in latest for
// repoID, the Index Emitter's source set for one (branch, component,
// architecture) Packages file per spec.md §4.6.
func (s *Store) LatestPackages(ctx context.Context, repoID int64) ([]repo.Package, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.package, p.version, p.architecture, p.filename, p.size, p.sha256,
		       p.mtime, p.debtime, p.section, p.installed_size, p.maintainer, p.description,
		       p.vercomp, p.features
		FROM latest l
		JOIN packages p ON p.id = l.package_id
		WHERE l.repo_id = $1
		ORDER BY p.package
	`, repoID)
	if err != nil {
		return nil, classify(fmt.Errorf("store: listing latest packages: %w", err))
	}
	defer rows.Close()

	var out []repo.Package
	for rows.Next() {
		var p repo.Package
		var debtime *int64
		if err := rows.Scan(&p.ID, &p.Package, &p.Version, &p.Architecture, &p.Filename, &p.Size, &p.SHA256,
			&p.Mtime, &debtime, &p.Section, &p.InstalledSize, &p.Maintainer, &p.Description,
			&p.VerComp, &p.Features); err != nil {
			return nil, fmt.Errorf("store: scanning latest package row: %w", err)
		}
		if debtime != nil {
			p.DebTime = *debtime
		}
		p.Repo = "" // left empty: every row belongs to repoID, which the caller already has
		out = append(out, p)
	}
	return out, rows.Err()
}

// DependenciesByPackage returns the Dependency rows for every package
// ID in ids, keyed by package ID, in control-field order within each
// package (spec.md §4.6's "one per dependency, in control-field
// order").
func (s *Store) DependenciesByPackage(ctx context.Context, ids []int64) (map[int64][]repo.Dependency, error) {
	out := make(map[int64][]repo.Dependency, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT package_id, relationship, value FROM dependencies WHERE package_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, classify(fmt.Errorf("store: listing dependencies: %w", err))
	}
	defer rows.Close()

	byPackage := make(map[int64]map[repo.Relationship]string)
	for rows.Next() {
		var packageID int64
		var relationship, value string
		if err := rows.Scan(&packageID, &relationship, &value); err != nil {
			return nil, fmt.Errorf("store: scanning dependency row: %w", err)
		}
		if byPackage[packageID] == nil {
			byPackage[packageID] = make(map[repo.Relationship]string)
		}
		byPackage[packageID][repo.Relationship(relationship)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for packageID, values := range byPackage {
		for _, rel := range repo.Relationships {
			if v, ok := values[rel]; ok {
				out[packageID] = append(out[packageID], repo.Dependency{Relationship: rel, Value: v})
			}
		}
	}
	return out, nil
}

// ContentsEntry is one file's ownership record for a Contents-<arch>
// file: a path owned by one or more "section/package" entries.
type ContentsEntry struct {
	Path    string
	Section string
	Package string
}

// ContentsForRepo returns every regular-file ownership record among
// repoID's latest packages, the Index Emitter's source for
// Contents-<arch>, per spec.md §4.6.
func (s *Store) ContentsForRepo(ctx context.Context, repoID int64) ([]ContentsEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT fe.path, p.section, p.package
		FROM latest l
		JOIN packages p ON p.id = l.package_id
		JOIN file_entries fe ON fe.package_id = p.id
		WHERE l.repo_id = $1 AND fe.ftype = $2
	`, repoID, repo.FileRegular)
	if err != nil {
		return nil, classify(fmt.Errorf("store: listing contents: %w", err))
	}
	defer rows.Close()

	var out []ContentsEntry
	for rows.Next() {
		var e ContentsEntry
		if err := rows.Scan(&e.Path, &e.Section, &e.Package); err != nil {
			return nil, fmt.Errorf("store: scanning contents row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
