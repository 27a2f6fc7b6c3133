package index

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aosc-dev/p-vector/internal/store"
)

// RenderContents writes a Contents-<arch> file: one line per path,
// followed by a TAB-separated list of its "section/package" owners,
// per spec.md §4.6. Paths are emitted in sorted order so a re-render
// of unchanged data is byte-identical.
func RenderContents(w io.Writer, entries []store.ContentsEntry) error {
	owners := make(map[string][]string)
	for _, e := range entries {
		section := e.Section
		if section == "" {
			section = "unknown"
		}
		owner := section + "/" + e.Package
		owners[e.Path] = append(owners[e.Path], owner)
	}

	paths := make([]string, 0, len(owners))
	for p := range owners {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		list := owners[p]
		sort.Strings(list)
		if _, err := fmt.Fprintf(w, "%s\t%s\n", p, strings.Join(list, ",")); err != nil {
			return err
		}
	}
	return nil
}
