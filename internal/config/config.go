// Package config handles configuration loading and config file resolution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that points at the config file.
const EnvConfigPath = "MINIDB_CONFIG"

// ErrInvalid is returned when a config value is outside its allowed set.
var ErrInvalid = errors.New("invalid config value")

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// REPLConfig controls the interactive session.
type REPLConfig struct {
	Prompt string `yaml:"prompt"`
	Banner bool   `yaml:"banner"` // print the greeting and command summary
}

// ShowConfig controls how the `show` meta-command renders the store.
type ShowConfig struct {
	Format string `yaml:"format"` // "json" | "yaml"
}

// StoreConfig selects the store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "memory" | "sqlite"
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "text" | "json"
}

// Config is the root configuration.
type Config struct {
	REPL  REPLConfig  `yaml:"repl"`
	Show  ShowConfig  `yaml:"show"`
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		REPL: REPLConfig{
			Prompt: "MiniDB> ",
			Banner: true,
		},
		Show:  ShowConfig{Format: "json"},
		Store: StoreConfig{Backend: "memory"},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads a config.yaml from path.
// If the file does not exist it returns Default() with no error.
// Missing keys retain their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Unmarshal into a plain map so we can apply only the keys that are present.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config.Load %s: %w", path, err)
	}

	if repl, ok := raw["repl"].(map[string]any); ok {
		if v, ok := repl["prompt"].(string); ok {
			cfg.REPL.Prompt = v
		}
		if v, ok := repl["banner"].(bool); ok {
			cfg.REPL.Banner = v
		}
	}

	if show, ok := raw["show"].(map[string]any); ok {
		if v, ok := show["format"].(string); ok && v != "" {
			cfg.Show.Format = strings.ToLower(v)
		}
	}

	if st, ok := raw["store"].(map[string]any); ok {
		if v, ok := st["backend"].(string); ok && v != "" {
			cfg.Store.Backend = strings.ToLower(v)
		}
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v, ok := lg["level"].(string); ok && v != "" {
			cfg.Log.Level = strings.ToLower(v)
		}
		if v, ok := lg["format"].(string); ok && v != "" {
			cfg.Log.Format = strings.ToLower(v)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first field whose value is not one of its allowed values.
func (c *Config) Validate() error {
	checks := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"show.format", c.Show.Format, []string{"json", "yaml"}},
		{"store.backend", c.Store.Backend, []string{"memory", "sqlite"}},
		{"log.level", c.Log.Level, []string{"debug", "info", "warn", "error"}},
		{"log.format", c.Log.Format, []string{"text", "json"}},
	}
	for _, ch := range checks {
		if !contains(ch.allowed, ch.value) {
			return fmt.Errorf("%w: %s = %q (want one of %s)",
				ErrInvalid, ch.field, ch.value, strings.Join(ch.allowed, ", "))
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Config path resolution
// ---------------------------------------------------------------------------

// DefaultPath returns ~/.config/minidb/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "minidb", "config.yaml"), nil
}

// ResolvePath returns the config file path and the source of the resolution.
// Priority: flagPath → MINIDB_CONFIG env → ~/.config/minidb/config.yaml
// source is one of "flag", "env", or "default".
func ResolvePath(flagPath string) (path, source string) {
	if flagPath != "" {
		if p, err := normalizePath(flagPath); err == nil {
			return p, "flag"
		}
	}

	if env := os.Getenv(EnvConfigPath); env != "" {
		if p, err := normalizePath(env); err == nil {
			return p, "env"
		}
	}

	p, err := DefaultPath()
	if err != nil {
		return "", "default"
	}
	return p, "default"
}

// normalizePath expands ~ and makes the path absolute.
func normalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(os.ExpandEnv(path))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
