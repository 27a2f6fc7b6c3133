package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestGenKeyWritesArmoredPrivateKey(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "key.asc")

	cmd := &cobra.Command{Use: "p-vector"}
	cmd.AddCommand(createGenKeyCommand())
	cmd.SetArgs([]string{"gen-key", "--name", "Test Signer", "--email", "test@example.com", "-o", out})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("gen-key: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading generated key: %v", err)
	}
	if !strings.Contains(string(data), "BEGIN PGP PRIVATE KEY BLOCK") {
		t.Errorf("expected an armored private key block, got:\n%s", string(data))
	}
}

func TestGenKeyWritesToStdoutByDefault(t *testing.T) {
	genKeyOutput = ""
	cmd := &cobra.Command{Use: "p-vector"}
	cmd.AddCommand(createGenKeyCommand())
	cmd.SetArgs([]string{"gen-key", "--name", "Test Signer", "--email", "test@example.com"})

	out := captureOutput(t, func() {
		_ = cmd.Execute()
	})
	if !strings.Contains(out, "BEGIN PGP PRIVATE KEY BLOCK") {
		t.Errorf("expected stdout to contain an armored private key block, got:\n%s", out)
	}
}
