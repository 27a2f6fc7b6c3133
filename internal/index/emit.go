package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aosc-dev/p-vector/internal/config"
	"github.com/aosc-dev/p-vector/internal/repo"
	"github.com/aosc-dev/p-vector/internal/sign"
	"github.com/aosc-dev/p-vector/internal/store"
	"github.com/aosc-dev/p-vector/internal/utils/logger"
)

// Emit renders and publishes the full dists/ tree for every branch
// present among st's repos, per spec.md §4.6. Each branch is staged in
// a temporary directory under dists/ and published by a single
// directory rename, so a reader never observes a half-written branch.
func Emit(ctx context.Context, st *store.Store, cfg *config.Config, poolRoot string, signer sign.Signer) error {
	repos, err := st.ListRepos(ctx)
	if err != nil {
		return fmt.Errorf("index: listing repos: %w", err)
	}

	byBranch := make(map[string][]repo.Repo)
	for _, r := range repos {
		byBranch[r.Branch] = append(byBranch[r.Branch], r)
	}

	for branch, branchRepos := range byBranch {
		if err := emitBranch(ctx, st, cfg, poolRoot, signer, branch, branchRepos); err != nil {
			return fmt.Errorf("index: emitting branch %s: %w", branch, err)
		}
	}
	return nil
}

func emitBranch(ctx context.Context, st *store.Store, cfg *config.Config, poolRoot string, signer sign.Signer, branch string, repos []repo.Repo) error {
	distsDir := filepath.Join(poolRoot, "dists", branch)
	stagingDir, err := os.MkdirTemp(filepath.Join(poolRoot, "dists"), ".staging-"+branch+"-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	release := &Release{
		Origin:        cfg.Origin,
		Label:         cfg.Label,
		Suite:         branch,
		Codename:      cfg.Codename,
		Date:          time.Now().UTC(),
		AcquireByHash: cfg.AcquireByHash != 0,
	}
	components := make(map[string]bool)
	architectures := make(map[string]bool)

	for _, r := range repos {
		components[r.Component] = true
		architectures[r.Architecture] = true

		componentDir := filepath.Join(stagingDir, r.Component, "binary-"+r.Architecture)
		if err := os.MkdirAll(componentDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", componentDir, err)
		}

		pkgs, err := st.LatestPackages(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("listing latest packages for %s: %w", r.Name, err)
		}
		ids := make([]int64, len(pkgs))
		for i, p := range pkgs {
			ids[i] = p.ID
		}
		deps, err := st.DependenciesByPackage(ctx, ids)
		if err != nil {
			return fmt.Errorf("listing dependencies for %s: %w", r.Name, err)
		}

		packagesPath := filepath.Join(componentDir, "Packages")
		if err := writePackagesFile(packagesPath, poolRoot, pkgs, deps); err != nil {
			return err
		}
		if err := compressVariants(packagesPath, true); err != nil {
			return fmt.Errorf("compressing %s: %w", packagesPath, err)
		}

		entries, err := st.ContentsForRepo(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("listing contents for %s: %w", r.Name, err)
		}
		contentsPath := filepath.Join(stagingDir, r.Component, "Contents-"+r.Architecture)
		if err := writeContentsFile(contentsPath, entries); err != nil {
			return err
		}
		if err := compressVariants(contentsPath, false); err != nil {
			return fmt.Errorf("compressing %s: %w", contentsPath, err)
		}

		for _, variant := range []string{"", ".gz", ".xz", ".zst"} {
			relPath := filepath.Join(r.Component, "binary-"+r.Architecture, "Packages"+variant)
			if err := release.AddIndexFile(packagesPath+variant, relPath); err != nil {
				if variant == "" {
					return err
				}
				continue
			}
		}
		for _, variant := range []string{"", ".gz"} {
			relPath := filepath.Join(r.Component, "Contents-"+r.Architecture+variant)
			if err := release.AddIndexFile(contentsPath+variant, relPath); err != nil {
				if variant == "" {
					return err
				}
				continue
			}
		}
	}

	release.Components = sortedKeys(components)
	release.Architectures = sortedKeys(architectures)

	if err := publishAcquireByHash(stagingDir, release, cfg.AcquireByHash); err != nil {
		return fmt.Errorf("publishing by-hash files: %w", err)
	}

	releasePath := filepath.Join(stagingDir, "Release")
	releaseFile, err := os.Create(releasePath)
	if err != nil {
		return fmt.Errorf("creating Release: %w", err)
	}
	if err := release.Render(releaseFile); err != nil {
		releaseFile.Close()
		return fmt.Errorf("rendering Release: %w", err)
	}
	if err := releaseFile.Close(); err != nil {
		return fmt.Errorf("closing Release: %w", err)
	}

	releaseBytes, err := os.ReadFile(releasePath)
	if err != nil {
		return fmt.Errorf("reading back Release: %w", err)
	}

	detached, err := signer.DetachedSign(releaseBytes)
	if err != nil {
		return fmt.Errorf("signing Release: %w", err)
	}
	if err := os.WriteFile(filepath.Join(stagingDir, "Release.gpg"), detached, 0o644); err != nil {
		return fmt.Errorf("writing Release.gpg: %w", err)
	}

	inRelease, err := signer.ClearSign(releaseBytes)
	if err != nil {
		return fmt.Errorf("clearsigning InRelease: %w", err)
	}
	if err := os.WriteFile(filepath.Join(stagingDir, "InRelease"), inRelease, 0o644); err != nil {
		return fmt.Errorf("writing InRelease: %w", err)
	}

	if err := os.RemoveAll(distsDir); err != nil {
		return fmt.Errorf("clearing previous %s: %w", distsDir, err)
	}
	if err := os.Rename(stagingDir, distsDir); err != nil {
		return fmt.Errorf("publishing %s: %w", distsDir, err)
	}

	logger.Logger().Infow("published branch", "branch", branch, "components", release.Components, "architectures", release.Architectures)
	return nil
}

func writePackagesFile(path, poolRoot string, pkgs []repo.Package, deps map[int64][]repo.Dependency) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return RenderPackagesFile(f, poolRoot, pkgs, deps)
}

func writeContentsFile(path string, entries []store.ContentsEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return RenderContents(f, entries)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
