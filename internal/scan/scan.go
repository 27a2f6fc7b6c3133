// Package scan implements the Scan Orchestrator (spec.md §4.4): it
// reconciles the on-disk set of .deb files against the Package index,
// hashing and inspecting changed files concurrently while serializing
// every database write through a single writer goroutine.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/aosc-dev/p-vector/internal/config"
	"github.com/aosc-dev/p-vector/internal/debpkg"
	"github.com/aosc-dev/p-vector/internal/errs"
	"github.com/aosc-dev/p-vector/internal/repo"
	"github.com/aosc-dev/p-vector/internal/store"
	"github.com/aosc-dev/p-vector/internal/utils/logger"
	"github.com/aosc-dev/p-vector/internal/version"
)

// Result summarizes one Scan invocation.
type Result struct {
	Scanned   int
	Unchanged int
	Renamed   int
	Upserted  int
	Duplicate int
	Deleted   int
	Failed    int
}

// writeOp is what a worker hands to the single DB-writer goroutine.
// Exactly one of the "case" fields is meaningful, selected by kind.
type writeOp struct {
	kind string // "unchanged" | "rename" | "upsert" | "issue"

	// unchanged, rename: identify the already-stored row.
	repoID   int64
	filename string
	mtime    int64

	// rename only.
	packageID int64

	// upsert only: the file's repo is not known until after Inspect,
	// so the writer resolves/creates it itself.
	branch    string
	component string
	pkg       repo.Package
	deps      []repo.Dependency
	soDeps    []repo.SoDep
	files     []repo.FileEntry

	// issue only.
	issue repo.Issue
}

// Scan walks poolRoot, reconciles every discovered .deb against st,
// and returns a summary. Workers are bounded to min(CPUs, 16), per
// spec.md §4.4's concurrency model; all writes are serialized through
// one goroutine reading from a bounded channel so workers block (not
// race) when the writer falls behind.
func Scan(ctx context.Context, st *store.Store, cfg *config.Config, poolRoot string) (Result, error) {
	debs, err := repo.Discover(poolRoot, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("scan: discovering pool: %w", err)
	}

	workers := runtime.NumCPU()
	if workers > 16 {
		workers = 16
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan repo.DebFile, len(debs))
	writes := make(chan writeOp, workers*2)
	var wg sync.WaitGroup

	bar := progressbar.NewOptions(len(debs),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var res Result
	writerDone := make(chan writerOutcome, 1)
	go func() {
		writerDone <- runWriter(ctx, st, cfg, writes)
	}()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				bar.Describe(d.AbsPath)
				processOne(ctx, st, d, writes)
				_ = bar.Add(1)
			}
		}()
	}

	for _, d := range debs {
		jobs <- d
	}
	close(jobs)

	wg.Wait()
	close(writes)

	outcome := <-writerDone
	if outcome.err != nil {
		return outcome.result, outcome.err
	}
	res = outcome.result
	res.Scanned = len(debs)

	for repoID, filenames := range outcome.present {
		deleted, err := st.DeleteMissingPackages(ctx, repoID, filenames)
		if err != nil {
			return res, fmt.Errorf("scan: deleting missing packages for repo %d: %w", repoID, err)
		}
		res.Deleted += int(deleted)
		if err := st.UpdateRepoMtime(ctx, repoID); err != nil {
			return res, fmt.Errorf("scan: updating repo mtime for repo %d: %w", repoID, err)
		}
	}

	_ = bar.Finish()
	return res, nil
}

// processOne stats, hashes, and if needed inspects one file, emitting
// the appropriate writeOp. It only reads from the database
// (StatByFilename, StatBySHA256) and never writes to it —
// spec.md §4.4 requires all writes to serialize on one writer task.
func processOne(ctx context.Context, st *store.Store, d repo.DebFile, writes chan<- writeOp) {
	info, err := os.Stat(d.AbsPath)
	if err != nil {
		writes <- issueOp(d, errs.ErrnoIO, fmt.Sprintf("stat failed: %v", err))
		return
	}

	existing, found, err := st.StatByFilename(ctx, d.AbsPath)
	if err != nil {
		logger.Logger().Errorw("stat by filename failed", "file", d.AbsPath, "error", err)
		return
	}
	if found && existing.Size == info.Size() && existing.Mtime == info.ModTime().Unix() {
		writes <- writeOp{kind: "unchanged", repoID: existing.RepoID, filename: d.AbsPath}
		return
	}

	sum, err := sha256File(d.AbsPath)
	if err != nil {
		writes <- issueOp(d, errs.ErrnoIO, fmt.Sprintf("hashing failed: %v", err))
		return
	}

	if bySum, found, err := st.StatBySHA256(ctx, sum); err == nil && found {
		writes <- writeOp{
			kind:      "rename",
			repoID:    bySum.RepoID,
			filename:  d.AbsPath,
			mtime:     info.ModTime().Unix(),
			packageID: bySum.ID,
		}
		return
	}

	f, err := os.Open(d.AbsPath)
	if err != nil {
		writes <- issueOp(d, errs.ErrnoIO, fmt.Sprintf("open failed: %v", err))
		return
	}
	defer f.Close()

	// Inspect needs a repo name to stamp onto Dependency rows before
	// Architecture (and so the final repo name) is known; pass a
	// placeholder and correct it below once the control stanza has
	// been parsed.
	rec, err := debpkg.Inspect(f, "")
	if err != nil {
		writes <- issueOp(d, errnoFor(err), fmt.Sprintf("inspecting %s: %v", d.AbsPath, err))
		return
	}
	repoName := repo.Name(d.Component, rec.Architecture, d.Branch)
	for i := range rec.Dependencies {
		rec.Dependencies[i].Repo = repoName
	}

	pkg := repo.Package{
		Package:       rec.Package,
		Version:       rec.Version,
		Repo:          repoName,
		Architecture:  rec.Architecture,
		Filename:      d.AbsPath,
		Size:          info.Size(),
		SHA256:        sum,
		Mtime:         info.ModTime().Unix(),
		DebTime:       rec.DebTime,
		Section:       rec.Section,
		InstalledSize: rec.InstalledSize,
		Maintainer:    rec.Maintainer,
		Description:   rec.Description,
		VerComp:       version.Encode(rec.Version),
		Features:      rec.Features,
	}

	writes <- writeOp{
		kind:      "upsert",
		branch:    d.Branch,
		component: d.Component,
		pkg:       pkg,
		deps:      rec.Dependencies,
		soDeps:    rec.SoDeps,
		files:     rec.Files,
	}
}

func errnoFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrMissingControl):
		return errs.ErrnoMissingControl
	case errors.Is(err, errs.ErrControlParse):
		return errs.ErrnoControlParse
	case errors.Is(err, errs.ErrUnsupportedCompression):
		return errs.ErrnoUnsupportedCompression
	default:
		return errs.ErrnoMalformedArchive
	}
}

func issueOp(d repo.DebFile, errno int, detail string) writeOp {
	now := time.Now()
	return writeOp{
		kind: "issue",
		issue: repo.Issue{
			Repo:     d.Branch + "/" + d.Component,
			Errno:    errno,
			Filename: d.AbsPath,
			Level:    "error",
			CTime:    now,
			MTime:    now,
			ATime:    now,
			Detail:   map[string]any{"message": detail},
		},
	}
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
