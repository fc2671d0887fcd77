package runner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/shlex"
)

// CommandSpec describes one process invocation: the tokenized command, an
// optional working directory, environment overrides for the child, and the
// output-collection mode. A spec is not mutated during execution.
type CommandSpec struct {
	Argv     []string
	Dir      string            // working directory; empty means the caller's cwd
	Env      map[string]string // overrides applied on top of the parent environment
	Realtime bool              // drain output incrementally instead of waiting for exit
}

// Command tokenizes a single command line using shell word-splitting rules,
// so quoting and escaping behave as they would in a shell.
func Command(line string) (CommandSpec, error) {
	argv, err := shlex.Split(line)
	if err != nil {
		return CommandSpec{}, fmt.Errorf("splitting command %q: %w", line, err)
	}
	return CommandSpec{Argv: argv}, nil
}

// Args wraps an already-tokenized argument list.
func Args(argv ...string) CommandSpec {
	return CommandSpec{Argv: argv}
}

// String renders the spec for logs and diagnostics. Environment override
// values are elided; only the keys are shown.
func (s CommandSpec) String() string {
	var b strings.Builder
	if s.Dir != "" {
		fmt.Fprintf(&b, "[cwd=%s] ", s.Dir)
	}
	if len(s.Env) > 0 {
		keys := make([]string, 0, len(s.Env))
		for k := range s.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&b, "[env=%s] ", strings.Join(keys, ","))
	}
	b.WriteString(strings.Join(s.Argv, " "))
	return b.String()
}
