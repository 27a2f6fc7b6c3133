package index

import (
	"bytes"
	"testing"

	"github.com/aosc-dev/p-vector/internal/store"
)

func TestRenderContentsGroupsAndSortsOwners(t *testing.T) {
	entries := []store.ContentsEntry{
		{Path: "usr/bin/zzz", Section: "utils", Package: "zzz-tool"},
		{Path: "usr/bin/foo", Section: "utils", Package: "foo"},
		{Path: "usr/bin/foo", Section: "libs", Package: "bar"},
	}

	var buf bytes.Buffer
	if err := RenderContents(&buf, entries); err != nil {
		t.Fatalf("RenderContents: %v", err)
	}

	want := "usr/bin/foo\tlibs/bar,utils/foo\n" +
		"usr/bin/zzz\tutils/zzz-tool\n"
	if got := buf.String(); got != want {
		t.Errorf("Contents mismatch:\ngot:\n%q\nwant:\n%q", got, want)
	}
}

func TestRenderContentsDefaultsMissingSection(t *testing.T) {
	entries := []store.ContentsEntry{
		{Path: "usr/bin/foo", Section: "", Package: "foo"},
	}

	var buf bytes.Buffer
	if err := RenderContents(&buf, entries); err != nil {
		t.Fatalf("RenderContents: %v", err)
	}

	want := "usr/bin/foo\tunknown/foo\n"
	if got := buf.String(); got != want {
		t.Errorf("Contents mismatch: got %q, want %q", got, want)
	}
}
