// Package shared holds the context passed to all CLI commands.
package shared

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-ports/minidb/internal/config"
	"github.com/go-ports/minidb/internal/executor"
	"github.com/go-ports/minidb/internal/logging"
	"github.com/go-ports/minidb/internal/store"
)

// Context carries global CLI state (flags set on the root command) and the
// configuration loaded from them.
type Context struct {
	// ConfigPath overrides the config file location.
	// When empty, resolution falls through to MINIDB_CONFIG env → ~/.config/minidb/config.yaml.
	ConfigPath string
	// LogLevel overrides log.level from the config file.
	LogLevel string
	// Backend overrides store.backend from the config file.
	Backend string

	// Config is populated by Load.
	Config *config.Config
}

// Load resolves and reads the config file, applies flag overrides, and
// installs the process logger writing to logOut.
func (c *Context) Load(logOut io.Writer) error {
	path, source := config.ResolvePath(c.ConfigPath)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.Backend != "" {
		cfg.Store.Backend = c.Backend
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg

	slog.SetDefault(logging.New(cfg.Log.Level, cfg.Log.Format, logOut))
	slog.Debug("config loaded", "path", path, "source", source, "backend", cfg.Store.Backend)
	return nil
}

// NewExecutor opens a fresh store for the configured backend and returns an
// executor that owns it. Callers must Close the executor.
func (c *Context) NewExecutor() (*executor.Executor, error) {
	backend := store.BackendMemory
	if c.Config != nil {
		backend = c.Config.Store.Backend
	}
	s, err := store.Open(backend)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return executor.New(s), nil
}
