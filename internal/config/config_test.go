package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/reactive/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Devtools.Port != DefaultDevtoolsPort {
		t.Errorf("Devtools.Port = %d, want %d", cfg.Devtools.Port, DefaultDevtoolsPort)
	}
	if cfg.Devtools.Host != DefaultDevtoolsHost {
		t.Errorf("Devtools.Host = %q, want %q", cfg.Devtools.Host, DefaultDevtoolsHost)
	}
	if cfg.Runtime.FlushBudget != DefaultFlushBudget {
		t.Errorf("Runtime.FlushBudget = %d, want %d", cfg.Runtime.FlushBudget, DefaultFlushBudget)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(tmpDir); err == nil {
		t.Error("Expected error for missing config")
	} else if !stderrors.Is(err, os.ErrNotExist) {
		t.Errorf("missing config error should wrap os.ErrNotExist, got %v", err)
	}

	configJSON := `{
  "runtime": {"flushBudget": 500, "goroutineCheck": true},
  "devtools": {"port": 9090, "publishInterval": "1s"},
  "snapshot": {"destination": "out/graph.json.zst", "compress": true}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, JSONFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Runtime.FlushBudget != 500 {
		t.Errorf("Runtime.FlushBudget = %d, want 500", cfg.Runtime.FlushBudget)
	}
	if !cfg.Runtime.GoroutineCheck {
		t.Error("Runtime.GoroutineCheck should be true")
	}
	if cfg.Devtools.Port != 9090 {
		t.Errorf("Devtools.Port = %d, want 9090", cfg.Devtools.Port)
	}
	if cfg.Devtools.Host != DefaultDevtoolsHost {
		t.Errorf("Devtools.Host should default, got %q", cfg.Devtools.Host)
	}
	if !cfg.Snapshot.Compress {
		t.Error("Snapshot.Compress should be true")
	}
	if d, _ := cfg.PublishInterval(); d != time.Second {
		t.Errorf("PublishInterval() = %v, want 1s", d)
	}
	if cfg.Path() != filepath.Join(tmpDir, JSONFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `runtime:
  flushBudget: 42
log:
  level: debug
  format: json
bench:
  profile: stress
  iterations: 3
`
	if err := os.WriteFile(filepath.Join(tmpDir, YAMLFileName), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Runtime.FlushBudget != 42 {
		t.Errorf("Runtime.FlushBudget = %d, want 42", cfg.Runtime.FlushBudget)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Bench.Profile != "stress" || cfg.Bench.Iterations != 3 {
		t.Errorf("Bench = %+v", cfg.Bench)
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, JSONFileName), []byte(`{"devtools":{"port":1111}}`), 0644)
	os.WriteFile(filepath.Join(tmpDir, YAMLFileName), []byte("devtools:\n  port: 2222\n"), 0644)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Devtools.Port != 1111 {
		t.Errorf("Devtools.Port = %d, want 1111 from reactive.json", cfg.Devtools.Port)
	}
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, JSONFileName), []byte(`{not json`), 0644)

	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if errors.CodeOf(err) != errors.CodeConfigRead {
		t.Errorf("code = %q, want %q", errors.CodeOf(err), errors.CodeConfigRead)
	}
	if !strings.Contains(err.(*errors.ReactiveError).Detail, JSONFileName) {
		t.Errorf("detail should name the file: %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("REACTIVE_DEVTOOLS_PORT", "8181")

	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Devtools.Port != 8181 {
		t.Errorf("env override not applied, port = %d", cfg.Devtools.Port)
	}
	if cfg.Path() != "" {
		t.Errorf("default config should have no path, got %q", cfg.Path())
	}
}

func TestLoadOrDefaultPropagatesParseErrors(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, YAMLFileName), []byte("runtime: [oops"), 0644)

	if _, err := LoadOrDefault(tmpDir); err == nil {
		t.Error("parse errors must not fall back to defaults")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"REACTIVE_FLUSH_BUDGET":         "7",
		"REACTIVE_GOROUTINE_CHECK":      "true",
		"REACTIVE_LOG_LEVEL":            "warn",
		"REACTIVE_SNAPSHOT_DESTINATION": "s3://bucket/key",
		"REACTIVE_SNAPSHOT_COMPRESS":    "1",
		"REACTIVE_TRACING_ENABLED":      "true",
	}
	cfg := New()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}

	if cfg.Runtime.FlushBudget != 7 {
		t.Errorf("FlushBudget = %d, want 7", cfg.Runtime.FlushBudget)
	}
	if !cfg.Runtime.GoroutineCheck || !cfg.Snapshot.Compress || !cfg.Tracing.Enabled {
		t.Errorf("bool overrides not applied: %+v", cfg)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Snapshot.Destination != "s3://bucket/key" {
		t.Errorf("Snapshot.Destination = %q", cfg.Snapshot.Destination)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := map[string]string{
		"REACTIVE_FLUSH_BUDGET":    "lots",
		"REACTIVE_GOROUTINE_CHECK": "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			err := New().ApplyEnv(func(k string) string {
				if k == key {
					return value
				}
				return ""
			})
			if errors.CodeOf(err) != errors.CodeConfigInvalid {
				t.Errorf("expected %s, got %v", errors.CodeConfigInvalid, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative budget", func(c *Config) { c.Runtime.FlushBudget = -1 }},
		{"port too high", func(c *Config) { c.Devtools.Port = 70000 }},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad interval", func(c *Config) { c.Devtools.PublishInterval = "soon" }},
		{"negative interval", func(c *Config) { c.Devtools.PublishInterval = "-1s" }},
		{"negative iterations", func(c *Config) { c.Bench.Iterations = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{JSONFileName, YAMLFileName} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			cfg := New()
			cfg.Devtools.Port = 4242
			cfg.Snapshot.Destination = "graph.json"
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error = %v", err)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if loaded.Devtools.Port != 4242 || loaded.Snapshot.Destination != "graph.json" {
				t.Errorf("round trip lost values: %+v", loaded)
			}

			loaded.Devtools.Port = 5353
			if err := loaded.Save(); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			again, _ := LoadFile(path)
			if again.Devtools.Port != 5353 {
				t.Errorf("Save() did not persist, port = %d", again.Devtools.Port)
			}
		})
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save() without a path should fail")
	}
}

func TestDevtoolsURL(t *testing.T) {
	cfg := New()
	cfg.Devtools.Host = "0.0.0.0"
	cfg.Devtools.Port = 8000

	if got := cfg.DevtoolsAddress(); got != "0.0.0.0:8000" {
		t.Errorf("DevtoolsAddress() = %q", got)
	}
	if got := cfg.DevtoolsURL(); got != "http://0.0.0.0:8000" {
		t.Errorf("DevtoolsURL() = %q", got)
	}
}
