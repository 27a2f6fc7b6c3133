package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestConfigInitWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p-vector.toml")

	cmd := &cobra.Command{Use: "p-vector"}
	cmd.AddCommand(createConfigCommand())
	cmd.SetArgs([]string{"config", "init", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading generated config: %v", err)
	}
	for _, want := range []string{"origin", "codename", "qa_interval"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected generated config to mention %q, got:\n%s", want, string(data))
		}
	}
}
