package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aosc-dev/p-vector/internal/repo"
)

// PackageStat is the subset of a stored Package row the Scan
// Orchestrator needs to decide whether an on-disk file is unchanged,
// renamed, or new, per spec.md §4.4 step 2.
type PackageStat struct {
	ID       int64
	RepoID   int64
	Filename string
	Size     int64
	Mtime    int64
	SHA256   string
}

// StatByFilename looks up a package by its on-disk filename, the
// first check the Scan Orchestrator makes for each file (spec.md §4.4
// step 1 keys its maps by absolute path, before the file's repo is
// known — the Inspector hasn't run yet).
func (s *Store) StatByFilename(ctx context.Context, filename string) (PackageStat, bool, error) {
	var st PackageStat
	err := s.pool.QueryRow(ctx, `
		SELECT id, repo_id, filename, size, mtime, sha256 FROM packages
		WHERE filename = $1
	`, filename).Scan(&st.ID, &st.RepoID, &st.Filename, &st.Size, &st.Mtime, &st.SHA256)
	if errors.Is(err, pgx.ErrNoRows) {
		return PackageStat{}, false, nil
	}
	if err != nil {
		return PackageStat{}, false, classify(fmt.Errorf("store: stat by filename: %w", err))
	}
	return st, true, nil
}

// StatBySHA256 looks up a package by content hash under any filename,
// used to detect a rename.
func (s *Store) StatBySHA256(ctx context.Context, sha256 string) (PackageStat, bool, error) {
	var st PackageStat
	err := s.pool.QueryRow(ctx, `
		SELECT id, repo_id, filename, size, mtime, sha256 FROM packages
		WHERE sha256 = $1
		LIMIT 1
	`, sha256).Scan(&st.ID, &st.RepoID, &st.Filename, &st.Size, &st.Mtime, &st.SHA256)
	if errors.Is(err, pgx.ErrNoRows) {
		return PackageStat{}, false, nil
	}
	if err != nil {
		return PackageStat{}, false, classify(fmt.Errorf("store: stat by sha256: %w", err))
	}
	return st, true, nil
}

// RenameInPlace updates filename/mtime on an existing Package row
// without reparsing it, per the "rename" branch of spec.md §4.4.
func (s *Store) RenameInPlace(ctx context.Context, packageID int64, filename string, mtime int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE packages SET filename = $2, mtime = $3, last_seen = now() WHERE id = $1
	`, packageID, filename, mtime)
	if err != nil {
		return classify(fmt.Errorf("store: renaming package %d: %w", packageID, err))
	}
	return nil
}

// UpsertResult reports what UpsertPackage actually did.
type UpsertResult struct {
	PackageID   int64
	IsDuplicate bool
}

// UpsertPackage runs the full "new or changed file" path of spec.md
// §4.4 step 2 in a single transaction: insert or conflict-fallback
// into package_duplicates, then replace the Dependency/SoDep/File-Entry
// children. Deferred FKs are not needed here since children are
// inserted after the parent row is committed-within-transaction and
// visible to itself.
func (s *Store) UpsertPackage(ctx context.Context, pkg repo.Package, repoID int64, deps []repo.Dependency, soDeps []repo.SoDep, files []repo.FileEntry) (UpsertResult, error) {
	var result UpsertResult
	err := retryBackoff(ctx, func() error {
		return s.pool.AcquireFunc(ctx, func(conn *pgxpool.Conn) error {
			tx, err := conn.Begin(ctx)
			if err != nil {
				return classify(fmt.Errorf("store: begin tx: %w", err))
			}
			defer tx.Rollback(ctx)

			existing, found, err := s.statByKeyTx(ctx, tx, repoID, pkg.Package, pkg.Version)
			if err != nil {
				return err
			}

			var pkgID int64
			isDup := false
			if found && existing.SHA256 != pkg.SHA256 {
				isDup = true
				err = tx.QueryRow(ctx, `
					INSERT INTO package_duplicates
						(package, version, repo_id, architecture, filename, size, sha256, mtime, debtime,
						 section, installed_size, maintainer, description, vercomp, features)
					VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
					ON CONFLICT (filename) DO UPDATE SET
						size = EXCLUDED.size, sha256 = EXCLUDED.sha256, mtime = EXCLUDED.mtime,
						last_seen = now()
					RETURNING id
				`, pkg.Package, pkg.Version, repoID, pkg.Architecture, pkg.Filename, pkg.Size, pkg.SHA256,
					pkg.Mtime, pkg.DebTime, pkg.Section, pkg.InstalledSize, pkg.Maintainer, pkg.Description, pkg.VerComp, pkg.Features,
				).Scan(&pkgID)
				if err != nil {
					return classify(fmt.Errorf("store: inserting package_duplicate: %w", err))
				}
				if err := tx.Commit(ctx); err != nil {
					return classify(fmt.Errorf("store: commit duplicate: %w", err))
				}
				result = UpsertResult{PackageID: pkgID, IsDuplicate: true}
				return nil
			}

			err = tx.QueryRow(ctx, `
				INSERT INTO packages
					(package, version, repo_id, architecture, filename, size, sha256, mtime, debtime,
					 section, installed_size, maintainer, description, vercomp, features)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
				ON CONFLICT (package, version, repo_id) DO UPDATE SET
					architecture = EXCLUDED.architecture, filename = EXCLUDED.filename,
					size = EXCLUDED.size, sha256 = EXCLUDED.sha256, mtime = EXCLUDED.mtime,
					debtime = EXCLUDED.debtime, section = EXCLUDED.section,
					installed_size = EXCLUDED.installed_size, maintainer = EXCLUDED.maintainer,
					description = EXCLUDED.description, vercomp = EXCLUDED.vercomp,
					features = EXCLUDED.features, last_seen = now()
				RETURNING id
			`, pkg.Package, pkg.Version, repoID, pkg.Architecture, pkg.Filename, pkg.Size, pkg.SHA256,
				pkg.Mtime, pkg.DebTime, pkg.Section, pkg.InstalledSize, pkg.Maintainer, pkg.Description, pkg.VerComp, pkg.Features,
			).Scan(&pkgID)
			if err != nil {
				return classify(fmt.Errorf("store: upserting package: %w", err))
			}

			if err := replaceChildrenTx(ctx, tx, pkgID, deps, soDeps, files); err != nil {
				return err
			}

			if err := tx.Commit(ctx); err != nil {
				return classify(fmt.Errorf("store: commit package: %w", err))
			}
			result = UpsertResult{PackageID: pkgID, IsDuplicate: isDup}
			return nil
		})
	})
	return result, err
}

func (s *Store) statByKeyTx(ctx context.Context, tx pgx.Tx, repoID int64, pkgName, version string) (PackageStat, bool, error) {
	var st PackageStat
	err := tx.QueryRow(ctx, `
		SELECT id, filename, size, mtime, sha256 FROM packages
		WHERE repo_id = $1 AND package = $2 AND version = $3
	`, repoID, pkgName, version).Scan(&st.ID, &st.Filename, &st.Size, &st.Mtime, &st.SHA256)
	if errors.Is(err, pgx.ErrNoRows) {
		return PackageStat{}, false, nil
	}
	if err != nil {
		return PackageStat{}, false, classify(fmt.Errorf("store: stat by key: %w", err))
	}
	return st, true, nil
}

// replaceChildrenTx deletes then re-inserts a package's Dependency,
// SoDep, and File-Entry rows, per spec.md §4.4 step 2's "replace
// (delete-then-insert)" instruction.
func replaceChildrenTx(ctx context.Context, tx pgx.Tx, packageID int64, deps []repo.Dependency, soDeps []repo.SoDep, files []repo.FileEntry) error {
	if _, err := tx.Exec(ctx, `DELETE FROM dependencies WHERE package_id = $1`, packageID); err != nil {
		return classify(fmt.Errorf("store: clearing dependencies: %w", err))
	}
	if _, err := tx.Exec(ctx, `DELETE FROM so_deps WHERE package_id = $1`, packageID); err != nil {
		return classify(fmt.Errorf("store: clearing so_deps: %w", err))
	}
	if _, err := tx.Exec(ctx, `DELETE FROM file_entries WHERE package_id = $1`, packageID); err != nil {
		return classify(fmt.Errorf("store: clearing file_entries: %w", err))
	}

	for _, d := range deps {
		if _, err := tx.Exec(ctx, `
			INSERT INTO dependencies (package_id, relationship, value) VALUES ($1, $2, $3)
		`, packageID, string(d.Relationship), d.Value); err != nil {
			return classify(fmt.Errorf("store: inserting dependency: %w", err))
		}
	}
	for _, sd := range soDeps {
		if _, err := tx.Exec(ctx, `
			INSERT INTO so_deps (package_id, depends, name, ver) VALUES ($1, $2, $3, $4)
		`, packageID, sd.Depends, sd.Name, sd.Ver); err != nil {
			return classify(fmt.Errorf("store: inserting so_dep: %w", err))
		}
	}
	for _, f := range files {
		if _, err := tx.Exec(ctx, `
			INSERT INTO file_entries (package_id, path, name, size, ftype, perm, uid, gid, uname, gname)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, packageID, f.Path, f.Name, f.Size, f.FType, f.Perm, f.UID, f.GID, f.UName, f.GName); err != nil {
			return classify(fmt.Errorf("store: inserting file_entry: %w", err))
		}
	}
	return nil
}

// DeleteMissingPackages removes every Package row in repoID whose
// filename is not in present, per spec.md §4.4 step 3. Deletion
// cascades to Dependency/SoDep/File-Entry via FK ON DELETE CASCADE.
func (s *Store) DeleteMissingPackages(ctx context.Context, repoID int64, present []string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM packages WHERE repo_id = $1 AND NOT (filename = ANY($2))
	`, repoID, present)
	if err != nil {
		return 0, classify(fmt.Errorf("store: deleting missing packages: %w", err))
	}
	return tag.RowsAffected(), nil
}

// InsertIssue records a QA finding, per spec.md §4.4's failure
// semantics and §4.5's so_breaks errno=431 disjunct.
func (s *Store) InsertIssue(ctx context.Context, issue repo.Issue) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO issues (package, version, repo, errno, filename, level, ctime, mtime, atime, detail)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (package, version, repo, errno, filename) DO UPDATE SET
			mtime = EXCLUDED.mtime, atime = EXCLUDED.atime, detail = EXCLUDED.detail
	`, issue.Package, issue.Version, issue.Repo, issue.Errno, issue.Filename, issue.Level,
		issue.CTime, issue.MTime, issue.ATime, issue.Detail)
	if err != nil {
		return classify(fmt.Errorf("store: inserting issue: %w", err))
	}
	return nil
}
