// Package rootcmd wires the root cobra.Command for the minidb CLI binary.
package rootcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	configcmd "github.com/go-ports/minidb/cmd/minidb/config"
	mcpcmd "github.com/go-ports/minidb/cmd/minidb/mcp"
	"github.com/go-ports/minidb/cmd/minidb/shared"
	versioncmd "github.com/go-ports/minidb/cmd/minidb/version"
	"github.com/go-ports/minidb/internal/repl"
)

const long = `MiniDB — a tiny in-memory key-value store.

With no arguments, minidb starts an interactive session. Type "exit" to quit
and "show" to display all data.

With arguments, minidb joins them with spaces and runs them as one command:

  minidb STORE age 25
  minidb GET age

Commands:
  STORE [key] [value]   store a value; storing to an existing key builds a list
  GET [key]             read a value

Nothing is kept between runs.`

// Command implements the root `minidb` command.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates and returns the root cobra.Command for the minidb CLI.
func New() *cobra.Command {
	c := &Command{ctx: &shared.Context{}}

	root := &cobra.Command{
		Use:           "minidb [STORE key value | GET key]",
		Short:         "MiniDB — a tiny in-memory key-value store",
		Long:          long,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.ctx.Load(cmd.ErrOrStderr())
		},
		RunE: c.run,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	// Everything after the first word belongs to the command line, so values
	// such as -5 are not parsed as flags.
	root.Flags().SetInterspersed(false)

	pf := root.PersistentFlags()
	pf.StringVar(&c.ctx.ConfigPath, "config", "",
		"Config file (default: $MINIDB_CONFIG env → ~/.config/minidb/config.yaml)")
	pf.StringVar(&c.ctx.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&c.ctx.Backend, "backend", "", "Store backend: memory, sqlite")

	root.AddCommand(
		configcmd.New(c.ctx).Cmd(),
		mcpcmd.New(c.ctx).Cmd(),
		versioncmd.New(c.ctx).Cmd(),
	)

	c.cmd = root
	return root
}

func (c *Command) run(cmd *cobra.Command, args []string) error {
	ex, err := c.ctx.NewExecutor()
	if err != nil {
		return err
	}
	defer ex.Close()

	if len(args) == 0 {
		cfg := c.ctx.Config
		r := repl.New(ex, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), repl.Options{
			Prompt:     cfg.REPL.Prompt,
			Banner:     cfg.REPL.Banner,
			ShowFormat: cfg.Show.Format,
		})
		return r.Run(cmd.Context())
	}

	res, err := ex.Execute(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if !res.Empty() {
		fmt.Fprintln(cmd.OutOrStdout(), res.Message())
	}
	return nil
}
