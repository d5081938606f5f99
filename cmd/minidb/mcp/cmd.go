// Package mcpcmd implements the `minidb mcp` command.
package mcpcmd

import (
	"github.com/spf13/cobra"

	"github.com/go-ports/minidb/cmd/minidb/shared"
	internalmcp "github.com/go-ports/minidb/internal/mcp"
)

// Command implements `minidb mcp`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the mcp command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "mcp",
		Short: "Serve one MiniDB session as an MCP server (stdio transport)",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	ex, err := c.ctx.NewExecutor()
	if err != nil {
		return err
	}
	defer ex.Close()
	return internalmcp.Serve(cmd.Context(), ex)
}
