package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drfkit/drfkit/internal/envfile"
	"github.com/drfkit/drfkit/internal/errors"
)

const (
	// DirName is the directory under the user config dir holding drfkit files.
	DirName = "drfkit"

	// DefaultGitTimeout bounds repository initialization.
	DefaultGitTimeout = "10s"
)

// FileNames are the config file names searched, in order.
var FileNames = []string{"drfkit.yaml", "drfkit.yml", "drfkit.json"}

// Config is the user configuration.
type Config struct {
	// Template is a template directory used instead of the embedded bundle.
	Template string `yaml:"template,omitempty" json:"template,omitempty"`

	// Exclude lists extra entry names skipped during copy.
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	// Debug is written to .env as DEBUG.
	Debug bool `yaml:"debug" json:"debug"`

	// Git configures repository initialization.
	Git GitConfig `yaml:"git" json:"git"`

	// Env holds extra .env keys.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// MetricsFile is where run metrics are written, if set.
	MetricsFile string `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`

	configPath string
}

// GitConfig configures repository initialization.
type GitConfig struct {
	// Enabled runs git init in the new project.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Timeout is a time.ParseDuration string (e.g., "10s").
	Timeout string `yaml:"timeout" json:"timeout"`

	// Fallback initializes with the built-in git implementation when the
	// git binary is not installed.
	Fallback bool `yaml:"fallback" json:"fallback"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Debug: true,
		Git: GitConfig{
			Enabled:  true,
			Timeout:  DefaultGitTimeout,
			Fallback: true,
		},
	}
}

// partialConfig tells an absent field (nil) from one set to its zero value.
type partialConfig struct {
	Template    *string           `yaml:"template" json:"template"`
	Exclude     []string          `yaml:"exclude" json:"exclude"`
	Debug       *bool             `yaml:"debug" json:"debug"`
	Git         *partialGit       `yaml:"git" json:"git"`
	Env         map[string]string `yaml:"env" json:"env"`
	MetricsFile *string           `yaml:"metrics_file" json:"metrics_file"`
}

type partialGit struct {
	Enabled  *bool   `yaml:"enabled" json:"enabled"`
	Timeout  *string `yaml:"timeout" json:"timeout"`
	Fallback *bool   `yaml:"fallback" json:"fallback"`
}

// DefaultDir returns the directory searched when no --config is given.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

// Locate returns the first config file present in dir, or "" if none is.
func Locate(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads the file at explicit, or the default config file when explicit
// is empty. An explicit path must exist; a missing default file yields
// defaults.
func Load(explicit string) (*Config, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, errors.New(errors.CodeInvalidConfig).
				WithPath(explicit).
				WithDetail("The config file given with --config does not exist").
				Wrap(err)
		}
		return LoadFile(explicit)
	}

	dir, err := DefaultDir()
	if err != nil {
		// No home directory: nothing to load.
		return New(), nil
	}
	path := Locate(dir)
	if path == "" {
		return New(), nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path. A missing file yields defaults.
func LoadFile(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.New(errors.CodeInvalidConfig).WithPath(path).Wrap(err)
	}

	var partial partialConfig
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &partial)
	} else {
		err = yaml.Unmarshal(data, &partial)
	}
	if err != nil {
		return nil, errors.New(errors.CodeInvalidConfig).
			WithPath(path).
			WithDetail("Failed to parse config: " + err.Error()).
			WithSuggestion("Check the file is valid YAML, or JSON for .json files")
	}

	cfg.apply(&partial)
	cfg.configPath = path

	if err := cfg.validate(); err != nil {
		return nil, err.WithPath(path)
	}
	return cfg, nil
}

func (c *Config) apply(p *partialConfig) {
	if p.Template != nil {
		c.Template = *p.Template
	}
	if p.Exclude != nil {
		c.Exclude = p.Exclude
	}
	if p.Debug != nil {
		c.Debug = *p.Debug
	}
	if p.Git != nil {
		if p.Git.Enabled != nil {
			c.Git.Enabled = *p.Git.Enabled
		}
		if p.Git.Timeout != nil {
			c.Git.Timeout = *p.Git.Timeout
		}
		if p.Git.Fallback != nil {
			c.Git.Fallback = *p.Git.Fallback
		}
	}
	if p.Env != nil {
		c.Env = p.Env
	}
	if p.MetricsFile != nil {
		c.MetricsFile = *p.MetricsFile
	}
}

// Validate checks values that cannot be rejected by decoding alone.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() *errors.ScaffoldError {
	d, err := time.ParseDuration(c.Git.Timeout)
	if err != nil || d <= 0 {
		return errors.New(errors.CodeInvalidConfigValue).
			WithDetail(fmt.Sprintf("git.timeout must be a positive duration, got %q", c.Git.Timeout)).
			WithSuggestion(`Use a Go duration such as "10s" or "1m"`)
	}

	for _, name := range c.Exclude {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return errors.New(errors.CodeInvalidConfigValue).
				WithDetail(fmt.Sprintf("exclude entry %q must be a single file or directory name", name)).
				WithSuggestion("Exclusions match entry names at any depth; drop the path separators")
		}
	}

	return validateEnv(c.Env)
}

// ValidateEnv rejects keys that are not usable variable names or that drfkit
// writes itself.
func ValidateEnv(env map[string]string) error {
	if err := validateEnv(env); err != nil {
		return err
	}
	return nil
}

func validateEnv(env map[string]string) *errors.ScaffoldError {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !envfile.ValidKey(k) {
			return errors.New(errors.CodeInvalidConfigValue).
				WithDetail(fmt.Sprintf("env key %q is not a valid variable name", k))
		}
		if envfile.Reserved(k) {
			return errors.New(errors.CodeInvalidConfigValue).
				WithDetail(fmt.Sprintf("env key %q is generated by drfkit and cannot be set", k))
		}
	}
	return nil
}

// GitTimeout returns Git.Timeout parsed, or the default when it is invalid.
func (c *Config) GitTimeout() time.Duration {
	d, err := time.ParseDuration(c.Git.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultGitTimeout)
	}
	return d
}

// Path returns the file the config was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.configPath
}
