package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTOML = `
db_pgconn = "postgres://p-vector@localhost/p-vector"
path = "/srv/repo"
discover = true
origin = "AOSC OS"
label = "AOSC OS"
codename = "aosc-os"
ttl = 5
acquire_by_hash = 2

[[branch]]
name = "stable"

[[branch]]
name = "testing"
testing = "testing"
ttl = 1
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "p-vector.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTemp(t, sampleTOML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBConnString != "postgres://p-vector@localhost/p-vector" {
		t.Errorf("unexpected db_pgconn: %q", cfg.DBConnString)
	}
	if len(cfg.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(cfg.Branches))
	}
	if cfg.TTL("testing") != 1 {
		t.Errorf("expected branch-level TTL override of 1, got %d", cfg.TTL("testing"))
	}
	if cfg.TTL("stable") != 5 {
		t.Errorf("expected top-level TTL fallback of 5, got %d", cfg.TTL("stable"))
	}
	if lvl := (BranchConfig{Testing: "testing"}).TestingLevel(); lvl != 1 {
		t.Errorf("expected testing level 1, got %d", lvl)
	}
}

func TestLoadMissingRequiredField(t *testing.T) {
	path := writeTemp(t, `path = "/srv/repo"`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected schema validation error for missing db_pgconn")
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") should not error: %v", err)
	}
	if cfg.TTLDays != 3 {
		t.Errorf("expected default TTL of 3, got %d", cfg.TTLDays)
	}
}

func TestValidateRejectsBadAcquireByHash(t *testing.T) {
	cfg := Default()
	cfg.DBConnString = "x"
	cfg.AcquireByHash = -2
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for acquire_by_hash = -2")
	}
}

func TestValidateRejectsDuplicateBranches(t *testing.T) {
	cfg := Default()
	cfg.DBConnString = "x"
	cfg.Branches = []BranchConfig{{Name: "stable"}, {Name: "stable"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for duplicate branch names")
	}
}

func TestGlobalSingleton(t *testing.T) {
	cfg := Default()
	cfg.Origin = "Test Origin"
	SetGlobal(cfg)
	if Global().Origin != "Test Origin" {
		t.Fatalf("Global() did not reflect SetGlobal()")
	}
}
