package repo

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/aosc-dev/p-vector/internal/config"
)

// DebFile is one on-disk .deb discovered under pool/, before its
// control fields have been parsed.
type DebFile struct {
	AbsPath   string
	Branch    string
	Component string
	Mtime     int64
	Size      int64
}

// Discover walks poolRoot, grouping every *.deb it finds by the
// (branch, component) pair implied by its path. It does not build Repo
// values: repos are synthesized once the Inspector reports the
// package's architecture, so Discover returns only the raw deb listing,
// and Name maps a (component, architecture, branch) triple to the
// logical repo name, matching spec.md §4.3's rule that architecture is
// read from the control field, not the filename.
func Discover(poolRoot string, cfg *config.Config) ([]DebFile, error) {
	var debs []DebFile

	root := filepath.Join(poolRoot, "pool")
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".deb") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("repo: resolving relative path for %s: %w", path, err)
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			// depth < 3 relative to pool/: pool/<branch>/<component>/<file>
			// is the minimum; shallower entries are not valid pool members.
			return nil
		}
		branch, component := parts[0], parts[1]

		if !cfg.Discover {
			if _, ok := cfg.Branch(branch); !ok {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("repo: stat %s: %w", path, err)
		}

		debs = append(debs, DebFile{
			AbsPath:   path,
			Branch:    branch,
			Component: component,
			Mtime:     info.ModTime().Unix(),
			Size:      info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repo: walking %s: %w", root, err)
	}

	return debs, nil
}

// Name synthesizes the logical repo name for a (component,
// architecture) pair, per spec.md §4.3: "{arch}/{branch}" when
// component == "main", else "{component}-{arch}/{branch}".
func Name(component, arch, branch string) string {
	if component == "main" {
		return fmt.Sprintf("%s/%s", arch, branch)
	}
	return fmt.Sprintf("%s-%s/%s", component, arch, branch)
}

// TestingLevel derives the testing level for a branch against cfg's
// configured branch table. Branches absent from the table (only
// reachable when cfg.Discover is true) are auto-registered at
// TestingTopic.
func TestingLevel(cfg *config.Config, branch string) int {
	if b, ok := cfg.Branch(branch); ok {
		return b.TestingLevel()
	}
	return TestingTopic
}
