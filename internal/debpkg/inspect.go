// Package debpkg implements the Deb Inspector: it opens a .deb archive
// and extracts its control metadata, dependency relationships, file
// listing, and ELF SONAME graph.
package debpkg

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"debug/elf"
	"fmt"
	"io"
	"net/textproto"
	"regexp"
	"strconv"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/aosc-dev/p-vector/internal/errs"
	"github.com/aosc-dev/p-vector/internal/repo"
	"github.com/aosc-dev/p-vector/internal/utils/security"
)

// requiredFields are the control-stanza fields the Inspector rejects a
// package for missing, per spec.md §4.2.
var requiredFields = []string{"Package", "Version", "Architecture", "Maintainer", "Description", "Installed-Size"}

// Record is the full result of inspecting one .deb file.
type Record struct {
	Package       string
	Version       string
	Architecture  string
	Section       string
	Maintainer    string
	Description   string
	InstalledSize int64
	DebTime       int64
	Features      string

	Dependencies []repo.Dependency
	SoDeps       []repo.SoDep
	Files        []repo.FileEntry
}

// Inspect opens r (the raw bytes of a .deb file) and returns its
// Record. repoName is stamped onto every Dependency row produced; the
// caller is expected to already know it from the Repo Discoverer.
func Inspect(r io.Reader, repoName string) (*Record, error) {
	rec := &Record{}
	arR := ar.NewReader(r)

	var sawControl bool
	for {
		hdr, err := arR.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading ar header: %v", errs.ErrMalformedArchive, err)
		}
		name := strings.TrimSpace(hdr.Name)

		switch {
		case strings.HasPrefix(name, "control.tar"):
			sawControl = true
			if err := parseControlMember(arR, name, rec, repoName); err != nil {
				return nil, err
			}
		case strings.HasPrefix(name, "data.tar"):
			if err := parseDataMember(arR, name, rec); err != nil {
				return nil, err
			}
		}
	}

	if !sawControl {
		return nil, fmt.Errorf("%w: no control.tar member found", errs.ErrMissingControl)
	}
	return rec, nil
}

// decompressor wraps r with the decompressor selected by member's
// suffix, or returns r unmodified for an uncompressed tar.
func decompressor(member string, r io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(member, ".gz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(member, ".xz"):
		return xz.NewReader(bufio.NewReader(r))
	case strings.HasSuffix(member, ".zst"):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return r, nil
	}
}

func parseControlMember(r io.Reader, member string, rec *Record, repoName string) error {
	dr, err := decompressor(member, r)
	if err != nil {
		return fmt.Errorf("%w: decompressing %s: %v", errs.ErrUnsupportedCompression, member, err)
	}
	tr := tar.NewReader(dr)

	for {
		th, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", errs.ErrMalformedArchive, member, err)
		}
		clean, err := security.SanitizeTarPath(th.Name)
		if err != nil {
			continue
		}
		if clean != "control" || th.Typeflag != tar.TypeReg {
			continue
		}

		rd := textproto.NewReader(bufio.NewReader(tr))
		h, err := rd.ReadMIMEHeader()
		if err != nil && err != io.EOF {
			return fmt.Errorf("%w: parsing control stanza: %v", errs.ErrControlParse, err)
		}

		for _, field := range requiredFields {
			if h.Get(field) == "" {
				return fmt.Errorf("%w: missing required field %q", errs.ErrMalformedArchive, field)
			}
		}

		rec.Package = h.Get("Package")
		rec.Version = h.Get("Version")
		rec.Architecture = h.Get("Architecture")
		rec.Maintainer = h.Get("Maintainer")
		rec.Description = h.Get("Description")
		rec.Section = h.Get("Section")
		if rec.Section == "" {
			rec.Section = "unknown"
		}
		instSize, convErr := strconv.ParseInt(h.Get("Installed-Size"), 10, 64)
		if convErr != nil {
			return fmt.Errorf("%w: Installed-Size %q is not an integer", errs.ErrMalformedArchive, h.Get("Installed-Size"))
		}
		rec.InstalledSize = instSize
		rec.DebTime = th.ModTime.Unix()
		rec.Features = h.Get("X-AOSC-Features")

		for _, rel := range repo.Relationships {
			val := h.Get(string(rel))
			if val == "" {
				continue
			}
			rec.Dependencies = append(rec.Dependencies, repo.Dependency{
				Package:      rec.Package,
				Version:      rec.Version,
				Repo:         repoName,
				Relationship: rel,
				Value:        val,
			})
		}
	}
	return nil
}

// elfProbeDirs are the path prefixes (after normalization, so never
// leading-slashed) the Inspector ELF-probes.
var elfProbeDirs = []string{"usr/lib", "lib"}

func parseDataMember(r io.Reader, member string, rec *Record) error {
	dr, err := decompressor(member, r)
	if err != nil {
		return fmt.Errorf("%w: decompressing %s: %v", errs.ErrUnsupportedCompression, member, err)
	}
	tr := tar.NewReader(dr)

	for {
		th, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", errs.ErrMalformedArchive, member, err)
		}
		clean, err := security.SanitizeTarPath(th.Name)
		if err != nil {
			continue
		}
		clean = strings.TrimSuffix(clean, "/")
		if clean == "" {
			continue
		}

		ftype, ok := fileType(th.Typeflag)
		if !ok {
			continue
		}

		fe := repo.FileEntry{
			Path:  clean,
			Name:  pathBase(clean),
			Size:  th.Size,
			FType: ftype,
			Perm:  th.Mode,
			UID:   th.Uid,
			GID:   th.Gid,
			UName: th.Uname,
			GName: th.Gname,
		}
		rec.Files = append(rec.Files, fe)

		if ftype == repo.FileRegular && underELFProbeDir(clean) {
			soDeps, probeErr := probeELF(tr, th.Size)
			if probeErr == nil {
				rec.SoDeps = append(rec.SoDeps, soDeps...)
			}
			// Non-ELF or unreadable files are silently ignored, per
			// spec.md §4.2: a probe failure here is not a MalformedArchive.
		}
	}
	return nil
}

func pathBase(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func underELFProbeDir(p string) bool {
	for _, dir := range elfProbeDirs {
		if p == dir || strings.HasPrefix(p, dir+"/") {
			return true
		}
	}
	return false
}

// fileType maps a tar type flag to the File-Entry ftype enumeration.
// Symlinks are folded into FileLink; unrecognized flags are skipped.
func fileType(flag byte) (repo.FileType, bool) {
	switch flag {
	case tar.TypeReg, tar.TypeRegA:
		return repo.FileRegular, true
	case tar.TypeSymlink, tar.TypeLink:
		return repo.FileLink, true
	case tar.TypeChar:
		return repo.FileChar, true
	case tar.TypeBlock:
		return repo.FileBlock, true
	case tar.TypeDir:
		return repo.FileDir, true
	case tar.TypeFifo:
		return repo.FileFIFO, true
	default:
		return 0, false
	}
}

// sonameVersionSuffix matches the longest trailing run of ".N" groups
// on a shared-object name, per spec.md §4.2.1.
var sonameVersionSuffix = regexp.MustCompile(`(\.[0-9]+)+$`)

// splitSoname separates a SONAME like "libfoo.so.1.2" into its base
// name ("libfoo.so") and version suffix (".1.2", or "" when the
// soname carries no trailing numeric suffix).
func splitSoname(soname string) (name, ver string) {
	loc := sonameVersionSuffix.FindStringIndex(soname)
	if loc == nil {
		return soname, ""
	}
	return soname[:loc[0]], soname[loc[0]:]
}

// probeELF reads an ELF file's dynamic section (at most size bytes
// from r) and returns one SoDep per DT_SONAME (provided) and
// DT_NEEDED (required) entry. Non-ELF content yields an error, which
// the caller treats as "silently ignored".
func probeELF(r io.Reader, size int64) ([]repo.SoDep, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	f, err := elf.NewFile(readerAt{buf})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var deps []repo.SoDep
	if sonames, err := f.DynString(elf.DT_SONAME); err == nil {
		for _, so := range sonames {
			name, ver := splitSoname(so)
			deps = append(deps, repo.SoDep{Depends: false, Name: name, Ver: ver})
		}
	}
	if needed, err := f.DynString(elf.DT_NEEDED); err == nil {
		for _, so := range needed {
			name, ver := splitSoname(so)
			deps = append(deps, repo.SoDep{Depends: true, Name: name, Ver: ver})
		}
	}
	return deps, nil
}

// readerAt adapts an in-memory byte slice to io.ReaderAt, since
// debug/elf.NewFile requires random access and tar.Reader only gives
// us a forward stream.
type readerAt struct {
	b []byte
}

func (r readerAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(r.b)) {
		return 0, io.EOF
	}
	n := copy(p, r.b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
