package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/drfkit/drfkit/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNew(t *testing.T) {
	cfg := New()

	if !cfg.Debug {
		t.Error("Debug should default to true")
	}
	if !cfg.Git.Enabled || !cfg.Git.Fallback {
		t.Errorf("Git = %+v, want enabled with fallback", cfg.Git)
	}
	if cfg.GitTimeout() != 10*time.Second {
		t.Errorf("GitTimeout() = %v, want 10s", cfg.GitTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "drfkit.yaml", `
template: /srv/skeleton
exclude:
  - node_modules
debug: false
git:
  timeout: 30s
env:
  DATABASE_URL: sqlite:///db.sqlite3
metrics_file: /tmp/drfkit.prom
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}

	if cfg.Template != "/srv/skeleton" {
		t.Errorf("Template = %q", cfg.Template)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "node_modules" {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
	if cfg.Debug {
		t.Error("Debug should be false when set explicitly")
	}
	if cfg.GitTimeout() != 30*time.Second {
		t.Errorf("GitTimeout() = %v, want 30s", cfg.GitTimeout())
	}
	// Absent git fields keep their defaults.
	if !cfg.Git.Enabled || !cfg.Git.Fallback {
		t.Errorf("Git = %+v, absent fields should keep defaults", cfg.Git)
	}
	if cfg.Env["DATABASE_URL"] != "sqlite:///db.sqlite3" {
		t.Errorf("Env = %v", cfg.Env)
	}
	if cfg.MetricsFile != "/tmp/drfkit.prom" {
		t.Errorf("MetricsFile = %q", cfg.MetricsFile)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "drfkit.json", `{
  "git": {"enabled": false},
  "exclude": [".tox"]
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Git.Enabled {
		t.Error("Git.Enabled should be false")
	}
	if cfg.Git.Timeout != DefaultGitTimeout {
		t.Errorf("Git.Timeout = %q, want default", cfg.Git.Timeout)
	}
	if !cfg.Debug {
		t.Error("Debug should keep its default")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "drfkit.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
	if !cfg.Git.Enabled {
		t.Error("missing file should yield defaults")
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    string
	}{
		{"bad yaml", "drfkit.yaml", "git: [unclosed", errors.CodeInvalidConfig},
		{"bad json", "drfkit.json", "{", errors.CodeInvalidConfig},
		{"wrong type", "drfkit.yaml", "debug: maybe", errors.CodeInvalidConfig},
		{"zero timeout", "drfkit.yaml", "git:\n  timeout: 0s", errors.CodeInvalidConfigValue},
		{"bad timeout", "drfkit.yaml", "git:\n  timeout: soon", errors.CodeInvalidConfigValue},
		{"exclude with slash", "drfkit.yaml", "exclude: [app/venv]", errors.CodeInvalidConfigValue},
		{"empty exclude", "drfkit.yaml", "exclude: ['']", errors.CodeInvalidConfigValue},
		{"bad env key", "drfkit.yaml", "env:\n  1BAD: x", errors.CodeInvalidConfigValue},
		{"reserved env key", "drfkit.yaml", "env:\n  SECRET_KEY: x", errors.CodeInvalidConfigValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			_, err := LoadFile(path)
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
			if got := errors.CodeOf(err); got != tt.code {
				t.Errorf("CodeOf = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestLoad_Explicit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yml", "debug: false\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Debug {
		t.Error("Debug should come from the explicit file")
	}

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, errors.CodeInvalidConfig) {
		t.Errorf("missing explicit file: err = %v, want E100", err)
	}
}

func TestLoad_DefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	t.Setenv("AppData", home)

	dir, err := DefaultDir()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with no file: %v", err)
	}
	if !cfg.Debug {
		t.Error("expected defaults")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "drfkit.json", `{"metrics_file": "out.prom"}`)

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MetricsFile != "out.prom" {
		t.Errorf("MetricsFile = %q, want out.prom", cfg.MetricsFile)
	}
}

func TestLocate_Order(t *testing.T) {
	dir := t.TempDir()
	if got := Locate(dir); got != "" {
		t.Errorf("Locate(empty) = %q", got)
	}

	writeFile(t, dir, "drfkit.json", "{}")
	writeFile(t, dir, "drfkit.yaml", "")
	if got := Locate(dir); filepath.Base(got) != "drfkit.yaml" {
		t.Errorf("Locate = %q, want drfkit.yaml first", got)
	}
}

func TestValidateEnv(t *testing.T) {
	if err := ValidateEnv(map[string]string{"API_URL": "x", "_X": ""}); err != nil {
		t.Errorf("valid env rejected: %v", err)
	}
	if err := ValidateEnv(nil); err != nil {
		t.Errorf("nil env rejected: %v", err)
	}
	if err := ValidateEnv(map[string]string{"PROJECT_NAME": "x"}); !errors.Is(err, errors.CodeInvalidConfigValue) {
		t.Errorf("reserved key: err = %v", err)
	}
}

func TestGitTimeout_FallsBack(t *testing.T) {
	cfg := New()
	cfg.Git.Timeout = "nonsense"
	if cfg.GitTimeout() != 10*time.Second {
		t.Errorf("GitTimeout() = %v, want default", cfg.GitTimeout())
	}
}
