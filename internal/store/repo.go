package store

import (
	"context"
	"fmt"

	"github.com/aosc-dev/p-vector/internal/repo"
)

// UpsertRepo inserts or updates a Repo row by name, returning its
// surrogate ID.
func (s *Store) UpsertRepo(ctx context.Context, r repo.Repo) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO repos (name, path, testing, branch, component, architecture, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			path = EXCLUDED.path,
			testing = EXCLUDED.testing,
			branch = EXCLUDED.branch,
			component = EXCLUDED.component,
			architecture = EXCLUDED.architecture
		RETURNING id
	`, r.Name, r.Path, r.Testing, r.Branch, r.Component, r.Architecture, r.Mtime).Scan(&id)
	if err != nil {
		return 0, classify(fmt.Errorf("store: upserting repo %s: %w", r.Name, err))
	}
	return id, nil
}

// UpdateRepoMtime sets a repo's mtime to the max mtime among its
// surviving packages, per spec.md §4.4 step 4.
func (s *Store) UpdateRepoMtime(ctx context.Context, repoID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE repos SET mtime = COALESCE((
			SELECT max(mtime) FROM packages WHERE repo_id = $1
		), 0) WHERE id = $1
	`, repoID)
	if err != nil {
		return classify(fmt.Errorf("store: updating repo mtime: %w", err))
	}
	return nil
}

// RepoByID fetches a repo's current name/testing/branch by surrogate
// ID.
func (s *Store) RepoByID(ctx context.Context, id int64) (repo.Repo, error) {
	var r repo.Repo
	r.ID = id
	err := s.pool.QueryRow(ctx, `
		SELECT name, path, testing, branch, component, architecture, mtime
		FROM repos WHERE id = $1
	`, id).Scan(&r.Name, &r.Path, &r.Testing, &r.Branch, &r.Component, &r.Architecture, &r.Mtime)
	if err != nil {
		return repo.Repo{}, classify(fmt.Errorf("store: fetching repo %d: %w", id, err))
	}
	return r, nil
}

// ListRepos returns every known Repo row.
func (s *Store) ListRepos(ctx context.Context) ([]repo.Repo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, path, testing, branch, component, architecture, mtime FROM repos
	`)
	if err != nil {
		return nil, classify(fmt.Errorf("store: listing repos: %w", err))
	}
	defer rows.Close()

	var out []repo.Repo
	for rows.Next() {
		var r repo.Repo
		if err := rows.Scan(&r.ID, &r.Name, &r.Path, &r.Testing, &r.Branch, &r.Component, &r.Architecture, &r.Mtime); err != nil {
			return nil, fmt.Errorf("store: scanning repo row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
