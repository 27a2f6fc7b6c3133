package scan

import (
	"context"
	"fmt"

	"github.com/aosc-dev/p-vector/internal/config"
	"github.com/aosc-dev/p-vector/internal/repo"
	"github.com/aosc-dev/p-vector/internal/store"
)

type writerOutcome struct {
	result  Result
	present map[int64][]string // repoID -> filenames seen this scan
	err     error
}

// runWriter is the single serialized database-writer goroutine spec.md
// §4.4 mandates: every worker's writeOp lands here, one at a time, so
// Package inserts and their Dependency/SoDep/File-Entry children never
// race with each other or with a concurrent repo creation.
func runWriter(ctx context.Context, st *store.Store, cfg *config.Config, writes <-chan writeOp) writerOutcome {
	out := writerOutcome{present: make(map[int64][]string)}
	repoIDs := make(map[string]int64)

	ensureRepo := func(branch, component, architecture string) (int64, error) {
		name := repo.Name(component, architecture, branch)
		if id, ok := repoIDs[name]; ok {
			return id, nil
		}
		id, err := st.UpsertRepo(ctx, repo.Repo{
			Name:         name,
			Path:         branch + "/" + component,
			Testing:      repo.TestingLevel(cfg, branch),
			Branch:       branch,
			Component:    component,
			Architecture: architecture,
		})
		if err != nil {
			return 0, err
		}
		repoIDs[name] = id
		return id, nil
	}

	for op := range writes {
		switch op.kind {
		case "unchanged":
			out.result.Unchanged++
			out.present[op.repoID] = append(out.present[op.repoID], op.filename)

		case "rename":
			if err := st.RenameInPlace(ctx, op.packageID, op.filename, op.mtime); err != nil {
				out.err = fmt.Errorf("scan: renaming %s: %w", op.filename, err)
				return out
			}
			out.result.Renamed++
			out.present[op.repoID] = append(out.present[op.repoID], op.filename)

		case "upsert":
			repoID, err := ensureRepo(op.branch, op.component, op.pkg.Architecture)
			if err != nil {
				out.err = fmt.Errorf("scan: ensuring repo for %s: %w", op.pkg.Filename, err)
				return out
			}
			result, err := st.UpsertPackage(ctx, op.pkg, repoID, op.deps, op.soDeps, op.files)
			if err != nil {
				out.err = fmt.Errorf("scan: upserting %s: %w", op.pkg.Filename, err)
				return out
			}
			if result.IsDuplicate {
				out.result.Duplicate++
			} else {
				out.result.Upserted++
			}
			out.present[repoID] = append(out.present[repoID], op.pkg.Filename)

		case "issue":
			if err := st.InsertIssue(ctx, op.issue); err != nil {
				out.err = fmt.Errorf("scan: recording issue for %s: %w", op.issue.Filename, err)
				return out
			}
			out.result.Failed++
		}
	}
	return out
}
