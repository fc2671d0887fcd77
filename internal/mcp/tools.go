package mcp

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/runbot/internal/runner"
)

type runParams struct {
	Command  string            `json:"command,omitempty" jsonschema:"Command line as a single string; split with shell word-splitting rules. Mutually exclusive with argv."`
	Argv     []string          `json:"argv,omitempty" jsonschema:"Pre-split argument list; the first element is the binary. Takes precedence over command."`
	Dir      string            `json:"dir,omitempty" jsonschema:"Working directory for the command. Defaults to the server's cwd."`
	Env      map[string]string `json:"env,omitempty" jsonschema:"Environment variables set for the child only, overriding inherited ones."`
	Realtime bool              `json:"realtime,omitempty" jsonschema:"Drain output incrementally instead of waiting for the command to exit."`
}

func (h *handler) runHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params runParams) (*sdkmcp.CallToolResult, any, error) {
	var spec runner.CommandSpec
	switch {
	case len(params.Argv) > 0:
		spec = runner.Args(params.Argv...)
	case params.Command != "":
		var err error
		spec, err = runner.Command(params.Command)
		if err != nil {
			return errorResult(fmt.Sprintf("Failed to split command: %v", err))
		}
	default:
		return errorResult("Provide either command or argv.")
	}
	spec.Dir = params.Dir
	spec.Env = params.Env
	spec.Realtime = params.Realtime

	res, err := h.runner.Gather(ctx, spec)
	if err != nil {
		return errorResult(fmt.Sprintf("Execution failed: %v", err))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "rc: %d\n", res.ExitCode)
	fmt.Fprintf(&b, "run_id: %s\n", res.RunID)
	fmt.Fprintln(&b)
	if res.Stdout != "" {
		fmt.Fprintf(&b, "stdout:\n%s\n", res.Stdout)
	}
	if res.Stderr != "" {
		fmt.Fprintf(&b, "stderr:\n%s\n", res.Stderr)
	}

	if res.ExitCode != 0 {
		return errorResult(b.String())
	}
	return textResult(b.String())
}

type whichParams struct {
	Binary string `json:"binary" jsonschema:"Name of the binary to resolve on PATH."`
}

func (h *handler) whichHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params whichParams) (*sdkmcp.CallToolResult, any, error) {
	if params.Binary == "" {
		return errorResult("Provide a binary name.")
	}
	path, err := exec.LookPath(params.Binary)
	if err != nil {
		return errorResult(fmt.Sprintf("%s is not installed or not on PATH.", params.Binary))
	}
	return textResult(path)
}
