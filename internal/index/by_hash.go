package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// byHashManifest tracks, per published index file, the SHA256 digests
// published under by-hash/SHA256/ across runs, newest first, so
// publishAcquireByHash can enforce spec.md §4.6's retention depth
// without re-deriving history the atomic per-branch directory swap
// would otherwise discard.
type byHashManifest struct {
	// Digests maps a Release-relative index path (e.g.
	// "main/binary-amd64/Packages") to its digest history, newest first.
	Digests map[string][]string `json:"digests"`
}

const byHashManifestName = ".p-vector-by-hash-manifest.json"

func loadByHashManifest(distsDir string) byHashManifest {
	data, err := os.ReadFile(filepath.Join(distsDir, byHashManifestName))
	if err != nil {
		return byHashManifest{Digests: make(map[string][]string)}
	}
	var m byHashManifest
	if err := json.Unmarshal(data, &m); err != nil || m.Digests == nil {
		return byHashManifest{Digests: make(map[string][]string)}
	}
	return m
}

// publishAcquireByHash copies every hashed index file release has
// recorded into stagingDir/by-hash/SHA256/<digest>, carrying forward
// prior runs' digests (read from the currently-published dists/<branch>
// directory, a sibling of stagingDir) up to depth generations per file;
// depth == 0 disables publication entirely, depth == -1 means unlimited.
func publishAcquireByHash(stagingDir string, release *Release, depth int) error {
	if depth == 0 {
		return nil
	}

	// The live directory this branch is about to replace sits beside the
	// staging directory under the same dists/ parent, named after the
	// branch rather than ".staging-<branch>-...": reconstruct it from
	// the Release's Suite field, which is set to the branch name.
	liveDir := filepath.Join(filepath.Dir(stagingDir), release.Suite)
	manifest := loadByHashManifest(liveDir)

	for _, h := range release.sha256s {
		history := manifest.Digests[h.path]
		if len(history) == 0 || history[0] != h.digest {
			history = append([]string{h.digest}, history...)
		}
		if depth > 0 && len(history) > depth {
			history = history[:depth]
		}
		manifest.Digests[h.path] = history
	}

	srcDir := stagingDir
	for relPath, digests := range manifest.Digests {
		byHashDir := filepath.Join(srcDir, filepath.Dir(relPath), "by-hash", "SHA256")
		if err := os.MkdirAll(byHashDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", byHashDir, err)
		}
		for _, digest := range digests {
			srcPath := filepath.Join(srcDir, relPath)
			dstPath := filepath.Join(byHashDir, digest)
			if _, err := os.Stat(dstPath); err == nil {
				continue // already materialized (current generation, written below) or carried forward
			}
			if digest == currentDigestFor(release, relPath) {
				if err := copyFile(srcPath, dstPath); err != nil {
					return err
				}
				continue
			}
			// An older generation's bytes no longer exist in staging
			// (only the manifest remembers it existed); carry the prior
			// published copy forward verbatim if still present.
			oldCopy := filepath.Join(liveDir, filepath.Dir(relPath), "by-hash", "SHA256", digest)
			if _, err := os.Stat(oldCopy); err == nil {
				if err := copyFile(oldCopy, dstPath); err != nil {
					return err
				}
			}
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling by-hash manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(stagingDir, byHashManifestName), data, 0o644)
}

func currentDigestFor(release *Release, relPath string) string {
	for _, h := range release.sha256s {
		if h.path == relPath {
			return h.digest
		}
	}
	return ""
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}
