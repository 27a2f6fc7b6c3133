// Package config loads and validates the TOML configuration file that
// drives every p-vector command, and exposes it through a process-wide
// singleton the way the rest of the codebase expects to find it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/aosc-dev/p-vector/internal/utils/security"
	"github.com/aosc-dev/p-vector/internal/utils/slice"
)

// BranchConfig describes one configured release branch.
type BranchConfig struct {
	Name string `toml:"name"`
	Desc string `toml:"desc"`
	// Testing overrides the branch's testing level; recognized values
	// are "stable", "testing", "explosive". Empty means stable.
	Testing string `toml:"testing"`
	// TTL overrides the top-level ttl (days) for this branch alone.
	TTL int `toml:"ttl"`
}

// TestingLevel maps the branch's configured testing string to the
// integer ordering used throughout the materializer.
func (b BranchConfig) TestingLevel() int {
	switch strings.ToLower(b.Testing) {
	case "explosive":
		return 2
	case "testing", "topic":
		return 1
	default:
		return 0
	}
}

// Config is the top-level p-vector configuration.
type Config struct {
	DBConnString   string         `toml:"db_pgconn"`
	ChangeNotifier string         `toml:"change_notifier"`
	Path           string         `toml:"path"`
	Discover       bool           `toml:"discover"`
	Origin         string         `toml:"origin"`
	Label          string         `toml:"label"`
	Codename       string         `toml:"codename"`
	TTLDays        int            `toml:"ttl"`
	Certificate    string         `toml:"certificate"`
	AbbsSync       bool           `toml:"abbs_sync"`
	ExtraDistFiles string         `toml:"extra_dist_files"`
	AcquireByHash  int            `toml:"acquire_by_hash"`
	QAInterval     int            `toml:"qa_interval"`
	Branches       []BranchConfig `toml:"branch"`

	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
}

// Default returns a Config with sensible defaults for every field not
// mandated by the TOML file.
func Default() *Config {
	return &Config{
		Path:          ".",
		Discover:      false,
		Origin:        "AOSC OS",
		Label:         "AOSC OS",
		Codename:      "aosc-os",
		TTLDays:       3,
		AcquireByHash: 0,
		QAInterval:    3600,
		LogLevel:      "info",
	}
}

var (
	schemaOnce sync.Once
	compiled   *jsonschema.Schema
	schemaErr  error
)

const schemaText = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["db_pgconn", "path"],
  "properties": {
    "db_pgconn": {"type": "string", "minLength": 1},
    "change_notifier": {"type": "string"},
    "path": {"type": "string", "minLength": 1},
    "discover": {"type": "boolean"},
    "origin": {"type": "string"},
    "label": {"type": "string"},
    "codename": {"type": "string"},
    "ttl": {"type": "integer", "minimum": 0},
    "certificate": {"type": "string"},
    "abbs_sync": {"type": "boolean"},
    "extra_dist_files": {"type": "string"},
    "acquire_by_hash": {"type": "integer", "minimum": -1},
    "qa_interval": {"type": "integer", "minimum": 0},
    "branch": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "desc": {"type": "string"},
          "testing": {"type": "string"},
          "ttl": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("config.schema.json", strings.NewReader(schemaText)); err != nil {
			schemaErr = fmt.Errorf("config: compiling schema: %w", err)
			return
		}
		compiled, schemaErr = c.Compile("config.schema.json")
	})
	return compiled, schemaErr
}

// Load reads and validates a TOML configuration file at path, merging
// it over Default(). An empty path returns the defaults unmodified.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := security.SafeReadFile(path, security.ResolveSymlinks)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	// Schema-validate the raw document before unmarshalling so that
	// wrong types or unknown top-level shapes are caught even when
	// go-toml would otherwise coerce them.
	var rawDoc any
	if err := toml.Unmarshal(data, &rawDoc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(toJSONCompatible(rawDoc)); err != nil {
		return nil, fmt.Errorf("config: schema validation failed: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	if err := security.ValidateStructStrings(cfg, security.DefaultLimits()); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// toJSONCompatible converts TOML's map[string]interface{}/[]interface{}
// tree (already JSON-shaped except for time.Time leaves, unused here)
// into the form jsonschema expects.
func toJSONCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = toJSONCompatible(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = toJSONCompatible(val)
		}
		return out
	default:
		return v
	}
}

// Validate checks cross-field invariants Default()/the schema can't
// express, and applies defaults for zero-valued optional fields.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path must not be empty")
	}
	if c.TTLDays <= 0 {
		c.TTLDays = 3
	}
	if c.QAInterval <= 0 {
		c.QAInterval = 3600
	}
	if c.AcquireByHash < -1 {
		return fmt.Errorf("acquire_by_hash must be -1 (unlimited), 0 (disabled), or positive, got %d", c.AcquireByHash)
	}
	validLevels := []string{"debug", "info", "warn", "error"}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if !slice.Contains(validLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: %s", c.LogLevel, strings.Join(validLevels, ", "))
	}
	seen := make(map[string]bool, len(c.Branches))
	for _, b := range c.Branches {
		if b.Name == "" {
			return fmt.Errorf("branch entries must have a name")
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate branch name %q", b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

// Branch looks up a configured branch by name.
func (c *Config) Branch(name string) (BranchConfig, bool) {
	for _, b := range c.Branches {
		if b.Name == name {
			return b, true
		}
	}
	return BranchConfig{}, false
}

// TTL returns the effective TTL, in days, for the named branch,
// falling back to the top-level default when the branch has none set.
func (c *Config) TTL(branch string) int {
	if b, ok := c.Branch(branch); ok && b.TTL > 0 {
		return b.TTL
	}
	return c.TTLDays
}

// Global singleton, following the same pattern every command in
// cmd/p-vector expects: load once in PersistentPreRun / OnInitialize,
// then read it from anywhere via Global().
var (
	globalInstance *Config
	globalMutex    sync.RWMutex
	once           sync.Once
)

// SetGlobal installs config as the process-wide instance.
func SetGlobal(cfg *Config) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalInstance = cfg
}

// Global returns the process-wide Config instance, defaulting to
// Default() if nothing has been set yet.
func Global() *Config {
	once.Do(func() {
		globalMutex.Lock()
		defer globalMutex.Unlock()
		if globalInstance == nil {
			globalInstance = Default()
		}
	})
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return globalInstance
}

// FindConfigFile searches the standard locations for a p-vector.toml.
func FindConfigFile() string {
	candidates := []string{"p-vector.toml", ".p-vector.toml"}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".config", "p-vector", "config.toml"))
	}
	candidates = append(candidates, "/etc/p-vector/config.toml")

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
