package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/runbot/internal/runner"
)

// setup creates a full runbot MCP server + client over in-memory transports.
func setup(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(&runner.Runner{})

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})

	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

func resultText(r *mcp.CallToolResult) string {
	var parts []string
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestRun_Command(t *testing.T) {
	cs := setup(t)

	res := callTool(t, cs, "run", map[string]any{"command": `echo "a b"`})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(res))
	}
	text := resultText(res)
	if !strings.Contains(text, "rc: 0") {
		t.Errorf("text = %q, want rc: 0", text)
	}
	if !strings.Contains(text, "a b") {
		t.Errorf("text = %q, want shell-split output 'a b'", text)
	}
}

func TestRun_Argv(t *testing.T) {
	cs := setup(t)

	res := callTool(t, cs, "run", map[string]any{"argv": []string{"echo", "hello"}})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), "hello") {
		t.Errorf("text = %q, want to contain 'hello'", resultText(res))
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	cs := setup(t)

	res := callTool(t, cs, "run", map[string]any{
		"argv": []string{"sh", "-c", "echo failing-output; exit 2"},
	})
	if !res.IsError {
		t.Fatal("expected tool error for non-zero exit")
	}
	text := resultText(res)
	if !strings.Contains(text, "rc: 2") {
		t.Errorf("text = %q, want rc: 2", text)
	}
	if !strings.Contains(text, "failing-output") {
		t.Errorf("text = %q, want captured output", text)
	}
}

func TestRun_MissingBinary(t *testing.T) {
	cs := setup(t)

	res := callTool(t, cs, "run", map[string]any{"argv": []string{"nonexistent-binary-xyz-123"}})
	if !res.IsError {
		t.Fatal("expected tool error for missing binary")
	}
	if !strings.Contains(resultText(res), "nonexistent-binary-xyz-123") {
		t.Errorf("text = %q, want to mention the binary", resultText(res))
	}
}

func TestRun_NoInput(t *testing.T) {
	cs := setup(t)

	res := callTool(t, cs, "run", map[string]any{})
	if !res.IsError {
		t.Fatal("expected tool error when neither command nor argv is given")
	}
}

func TestWhich(t *testing.T) {
	cs := setup(t)

	res := callTool(t, cs, "which", map[string]any{"binary": "sh"})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), "sh") {
		t.Errorf("text = %q, want a path to sh", resultText(res))
	}
}

func TestWhich_NotInstalled(t *testing.T) {
	cs := setup(t)

	res := callTool(t, cs, "which", map[string]any{"binary": "nonexistent-binary-xyz-123"})
	if !res.IsError {
		t.Fatal("expected tool error for missing binary")
	}
}
