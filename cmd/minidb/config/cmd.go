// Package configcmd implements the `minidb config` command group.
package configcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/minidb/cmd/minidb/shared"
	"github.com/go-ports/minidb/internal/config"
)

const configTemplate = `# MiniDB configuration

# Interactive session.
repl:
  prompt: "MiniDB> "
  banner: true                  # greeting and command summary at start

# How the "show" meta-command prints the store.
show:
  format: json                  # json | yaml

# Where values live for the duration of a session. Nothing touches disk.
store:
  backend: memory               # memory | sqlite

# Diagnostics, written to stderr.
log:
  level: warn                   # debug | info | warn | error
  format: text                  # text | json
`

// Command implements `minidb config`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the config command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		// The group reads the config file itself so that a broken file can
		// still be inspected and overwritten.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE:              c.runShow,
	}
	c.cmd.AddCommand(newConfigInit(ctx))
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	path, source := config.ResolvePath(c.ctx.ConfigPath)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	data := map[string]any{
		"repl": map[string]any{
			"prompt": cfg.REPL.Prompt,
			"banner": cfg.REPL.Banner,
		},
		"show": map[string]any{
			"format": cfg.Show.Format,
		},
		"store": map[string]any{
			"backend": cfg.Store.Backend,
		},
		"log": map[string]any{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
		},
		"config_path":   path,
		"config_source": source,
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(b))
	return nil
}

// ---------------------------------------------------------------------------
// config init
// ---------------------------------------------------------------------------

func newConfigInit(ctx *shared.Context) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter config.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := config.ResolvePath(ctx.ConfigPath)
			if cfgPath == "" {
				return fmt.Errorf("config init: cannot resolve a config path; pass --config")
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfgPath); err == nil && !force {
				fmt.Fprintf(out, "Config already exists at %s\n", cfgPath)
				fmt.Fprintln(out, "Use --force to overwrite.")
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(cfgPath, []byte(configTemplate), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(out, "Created %s\n", cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")
	return cmd
}
