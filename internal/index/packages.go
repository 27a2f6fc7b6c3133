// Package index implements the Index Emitter (spec.md §4.6): it
// renders the Packages/Contents/Release family of files from the
// latest relation and publishes them atomically under dists/.
package index

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/aosc-dev/p-vector/internal/repo"
)

const defaultMaintainer = "Bot <bot@aosc.io>"

// RenderPackagesStanza writes one Packages-file entry for pkg, in the
// exact field order spec.md §4.6 mandates. filename is rendered
// relative to poolRoot (the repo root containing both pool/ and
// dists/), matching APT's convention of a Filename field relative to
// the archive root rather than to pool/ itself.
func RenderPackagesStanza(w io.Writer, poolRoot string, pkg repo.Package, deps []repo.Dependency) error {
	rel, err := filepath.Rel(poolRoot, pkg.Filename)
	if err != nil {
		return fmt.Errorf("index: relativizing filename %s: %w", pkg.Filename, err)
	}

	section := pkg.Section
	if section == "" {
		section = "unknown"
	}
	maintainer := pkg.Maintainer
	if maintainer == "" {
		maintainer = defaultMaintainer
	}

	if _, err := fmt.Fprintf(w,
		"Package: %s\nVersion: %s\nSection: %s\nArchitecture: %s\nInstalled-Size: %d\nMaintainer: %s\nFilename: %s\nSize: %d\nSHA256: %s\nDescription: %s\n",
		pkg.Package, pkg.Version, section, pkg.Architecture, pkg.InstalledSize, maintainer,
		filepath.ToSlash(rel), pkg.Size, pkg.SHA256, pkg.Description,
	); err != nil {
		return err
	}

	for _, d := range deps {
		if _, err := fmt.Fprintf(w, "%s: %s\n", d.Relationship, d.Value); err != nil {
			return err
		}
	}
	if pkg.Features != "" {
		if _, err := fmt.Fprintf(w, "X-AOSC-Features: %s\n", pkg.Features); err != nil {
			return err
		}
	}
	return nil
}

// RenderPackagesFile writes every stanza in pkgs (each paired with its
// Dependency rows via deps, keyed by Package.ID), separated by a
// single blank line, with a final newline terminating the file.
func RenderPackagesFile(w io.Writer, poolRoot string, pkgs []repo.Package, deps map[int64][]repo.Dependency) error {
	for i, pkg := range pkgs {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := RenderPackagesStanza(w, poolRoot, pkg, deps[pkg.ID]); err != nil {
			return err
		}
	}
	return nil
}
