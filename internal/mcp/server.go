// Package mcp provides the stdio MCP server that exposes a MiniDB session to
// coding agents.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/minidb/internal/buildinfo"
	"github.com/go-ports/minidb/internal/executor"
	"github.com/go-ports/minidb/internal/render"
)

const executeDescription = `
Run one MiniDB command against this session's in-memory store.

Commands:
- STORE <key> <value>: store a value. Numeric literals are stored as numbers. Storing to an existing key turns its value into a list and appends.
- GET <key>: read the current value of a key.

Wrap keys or values that contain spaces in double quotes, e.g. STORE name "John Doe".`

const showDescription = `Return every key in the session store with its current value, as a JSON object in insertion order.`

// NewServer creates and registers all MiniDB tools on a new MCP server.
// It is separate from Serve so that tests and other callers can obtain a
// fully configured server without committing to the stdio transport.
func NewServer(ex *executor.Executor) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("minidb", buildinfo.Version)
	registerTools(s, ex)
	return s
}

// Serve runs the stdio MCP server over ex, blocking until stdin closes.
func Serve(_ context.Context, ex *executor.Executor) error {
	return mcpserver.ServeStdio(NewServer(ex))
}

// registerTools wires both MCP tools into the server.
func registerTools(s *mcpserver.MCPServer, ex *executor.Executor) {
	s.AddTool(mcp.NewTool("minidb_execute",
		mcp.WithDescription(executeDescription),
		mcp.WithString("command",
			mcp.Description(`A single command line, e.g. STORE age 25 or GET age.`),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExecute(ctx, ex, req)
	})

	s.AddTool(mcp.NewTool("minidb_show",
		mcp.WithDescription(showDescription),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleShow(ctx, ex, req)
	})
}

func handleExecute(_ context.Context, ex *executor.Executor, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command := req.GetString("command", "")

	res, err := ex.Execute(command)
	if err != nil {
		return errorResult(err), nil
	}

	var value any
	if !res.Empty() {
		value = res.Value
	}
	return jsonResult(map[string]any{
		"op":       res.Op.String(),
		"key":      res.Key,
		"value":    value,
		"appended": res.Appended,
		"message":  res.Message(),
	})
}

func handleShow(_ context.Context, ex *executor.Executor, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := ex.Entries()
	if err != nil {
		return errorResult(err), nil
	}
	obj, err := render.JSONObject(entries)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(string(obj)), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// errorResult reports err as a tool error whose text is a JSON object with
// the message and, for command errors, the error kind.
func errorResult(err error) *mcp.CallToolResult {
	body := map[string]any{"error": err.Error()}
	var ce *executor.CommandError
	if errors.As(err, &ce) {
		body["kind"] = ce.Kind.String()
	} else {
		slog.Warn("mcp: tool failed", "err", err)
	}
	b, mErr := json.Marshal(body)
	if mErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(b))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
