// Package mcp provides the runbot MCP server, exposing command execution
// and binary resolution to MCP clients.
package mcp

import (
	_ "embed"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/runbot"
	"github.com/deixis/runbot/internal/runner"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	runner *runner.Runner
}

// NewServer creates an MCP server with all runbot tools registered.
func NewServer(r *runner.Runner) *mcp.Server {
	h := &handler{runner: r}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "runbot", Version: runbot.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "run",
		Description: `Run an external command and return its exit code, stdout, and stderr.

Provide either command (a single shell-quoted string) or argv (a pre-split
argument list). No shell is involved: the first token is the binary, resolved
via PATH. Set realtime=true to drain output incrementally for long-running
commands.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "which",
		Description: "Resolve a binary on PATH. Use to check whether a tool is installed before running it.",
	}, h.whichHandler)

	return s
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
