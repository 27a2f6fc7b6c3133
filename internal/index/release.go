package index

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// fileHash is one line of a Release hash block.
type fileHash struct {
	digest string
	size   int64
	path   string // relative to the branch's dists/<branch> directory
}

// Release holds everything needed to render dists/<branch>/Release,
// per spec.md §4.6.
type Release struct {
	Origin        string
	Label         string
	Suite         string
	Codename      string
	Date          time.Time
	Architectures []string
	Components    []string
	AcquireByHash bool

	md5sums  []fileHash
	sha1s    []fileHash
	sha256s  []fileHash
}

// AddIndexFile hashes path (md5, sha1, sha256) and records it under
// relPath (its path relative to dists/<branch>), for inclusion in the
// three hash blocks.
func (r *Release) AddIndexFile(path, relPath string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("index: hashing %s: %w", path, err)
	}
	defer f.Close()

	md5h, sha1h, sha256h := md5.New(), sha1.New(), sha256.New()
	size, err := io.Copy(io.MultiWriter(md5h, sha1h, sha256h), f)
	if err != nil {
		return fmt.Errorf("index: hashing %s: %w", path, err)
	}

	relPath = filepath.ToSlash(relPath)
	r.md5sums = append(r.md5sums, fileHash{digest: fmt.Sprintf("%x", md5h.Sum(nil)), size: size, path: relPath})
	r.sha1s = append(r.sha1s, fileHash{digest: fmt.Sprintf("%x", sha1h.Sum(nil)), size: size, path: relPath})
	r.sha256s = append(r.sha256s, fileHash{digest: fmt.Sprintf("%x", sha256h.Sum(nil)), size: size, path: relPath})
	return nil
}

// Render writes the Release control file, per spec.md §4.6: Origin,
// Label, Suite, Codename, Date (RFC 2822), Architectures, Components,
// then the three hash blocks in MD5Sum/SHA1/SHA256 order.
func (r *Release) Render(w io.Writer) error {
	archs := append([]string(nil), r.Architectures...)
	sort.Strings(archs)
	comps := append([]string(nil), r.Components...)
	sort.Strings(comps)

	if _, err := fmt.Fprintf(w,
		"Origin: %s\nLabel: %s\nSuite: %s\nCodename: %s\nDate: %s\nArchitectures: %s\nComponents: %s\n",
		r.Origin, r.Label, r.Suite, r.Codename, r.Date.Format(time.RFC1123Z),
		joinSpace(archs), joinSpace(comps),
	); err != nil {
		return err
	}
	if r.AcquireByHash {
		if _, err := fmt.Fprintf(w, "Acquire-By-Hash: yes\n"); err != nil {
			return err
		}
	}

	if err := renderHashBlock(w, "MD5Sum", r.md5sums); err != nil {
		return err
	}
	if err := renderHashBlock(w, "SHA1", r.sha1s); err != nil {
		return err
	}
	if err := renderHashBlock(w, "SHA256", r.sha256s); err != nil {
		return err
	}
	return nil
}

func renderHashBlock(w io.Writer, field string, hashes []fileHash) error {
	if len(hashes) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s:\n", field); err != nil {
		return err
	}
	sorted := append([]fileHash(nil), hashes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].path < sorted[j].path })
	for _, h := range sorted {
		if _, err := fmt.Fprintf(w, " %s %16d %s\n", h.digest, h.size, h.path); err != nil {
			return err
		}
	}
	return nil
}

func joinSpace(xs []string) string {
	out := ""
	for i, x := range xs {
		if i > 0 {
			out += " "
		}
		out += x
	}
	return out
}
