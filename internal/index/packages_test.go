package index

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aosc-dev/p-vector/internal/repo"
)

func TestRenderPackagesStanzaFieldOrder(t *testing.T) {
	pkg := repo.Package{
		ID:            1,
		Package:       "foo",
		Version:       "1.0-1",
		Section:       "utils",
		Architecture:  "amd64",
		InstalledSize: 42,
		Maintainer:    "Someone <someone@example.com>",
		Filename:      "/srv/repo/pool/main/f/foo/foo_1.0-1_amd64.deb",
		Size:          1024,
		SHA256:        "deadbeef",
		Description:   "a foo package",
	}
	deps := []repo.Dependency{
		{Relationship: "Depends", Value: "libc6 (>= 2.17)"},
		{Relationship: "Recommends", Value: "bar"},
	}

	var buf bytes.Buffer
	if err := RenderPackagesStanza(&buf, "/srv/repo", pkg, deps); err != nil {
		t.Fatalf("RenderPackagesStanza: %v", err)
	}

	want := "Package: foo\n" +
		"Version: 1.0-1\n" +
		"Section: utils\n" +
		"Architecture: amd64\n" +
		"Installed-Size: 42\n" +
		"Maintainer: Someone <someone@example.com>\n" +
		"Filename: pool/main/f/foo/foo_1.0-1_amd64.deb\n" +
		"Size: 1024\n" +
		"SHA256: deadbeef\n" +
		"Description: a foo package\n" +
		"Depends: libc6 (>= 2.17)\n" +
		"Recommends: bar\n"
	if got := buf.String(); got != want {
		t.Errorf("stanza mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderPackagesStanzaDefaultsSectionAndMaintainer(t *testing.T) {
	pkg := repo.Package{
		Package:      "foo",
		Version:      "1.0-1",
		Architecture: "amd64",
		Filename:     "/srv/repo/pool/main/f/foo/foo_1.0-1_amd64.deb",
	}

	var buf bytes.Buffer
	if err := RenderPackagesStanza(&buf, "/srv/repo", pkg, nil); err != nil {
		t.Fatalf("RenderPackagesStanza: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "Section: unknown\n") {
		t.Errorf("expected Section: unknown default, got:\n%s", got)
	}
	if !strings.Contains(got, "Maintainer: "+defaultMaintainer+"\n") {
		t.Errorf("expected default maintainer, got:\n%s", got)
	}
}

func TestRenderPackagesStanzaEmitsFeaturesOnlyWhenPresent(t *testing.T) {
	base := repo.Package{
		Package:      "foo",
		Version:      "1.0-1",
		Architecture: "amd64",
		Filename:     "/srv/repo/pool/main/f/foo/foo_1.0-1_amd64.deb",
	}

	var withoutFeatures bytes.Buffer
	if err := RenderPackagesStanza(&withoutFeatures, "/srv/repo", base, nil); err != nil {
		t.Fatalf("RenderPackagesStanza: %v", err)
	}
	if strings.Contains(withoutFeatures.String(), "X-AOSC-Features") {
		t.Errorf("did not expect X-AOSC-Features when absent, got:\n%s", withoutFeatures.String())
	}

	withFeatures := base
	withFeatures.Features = "BIG-OBSOLETE"
	var buf bytes.Buffer
	if err := RenderPackagesStanza(&buf, "/srv/repo", withFeatures, nil); err != nil {
		t.Fatalf("RenderPackagesStanza: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "X-AOSC-Features: BIG-OBSOLETE\n") {
		t.Errorf("expected trailing X-AOSC-Features line, got:\n%s", buf.String())
	}
}

func TestRenderPackagesFileSeparatesStanzasWithBlankLine(t *testing.T) {
	pkgs := []repo.Package{
		{ID: 1, Package: "foo", Version: "1.0-1", Architecture: "amd64", Filename: "/srv/repo/pool/main/f/foo/foo_1.0-1_amd64.deb"},
		{ID: 2, Package: "bar", Version: "2.0-1", Architecture: "amd64", Filename: "/srv/repo/pool/main/b/bar/bar_2.0-1_amd64.deb"},
	}

	var buf bytes.Buffer
	if err := RenderPackagesFile(&buf, "/srv/repo", pkgs, nil); err != nil {
		t.Fatalf("RenderPackagesFile: %v", err)
	}

	stanzas := strings.Split(buf.String(), "\n\n")
	if len(stanzas) != 2 {
		t.Fatalf("expected 2 stanzas separated by a blank line, got %d: %q", len(stanzas), buf.String())
	}
	if !strings.HasPrefix(stanzas[0], "Package: foo\n") {
		t.Errorf("expected first stanza to be foo, got %q", stanzas[0])
	}
	if !strings.HasPrefix(stanzas[1], "Package: bar\n") {
		t.Errorf("expected second stanza to be bar, got %q", stanzas[1])
	}
}
