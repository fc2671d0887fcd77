package runner

import "fmt"

// ProcessError reports a process-management failure distinct from a plain
// non-zero exit: pipe setup, a Wait that fails for reasons other than the
// exit status, and similar. It carries whatever exit code and output were
// observed before the failure.
type ProcessError struct {
	Cmd      string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("process error running %s: %v", e.Cmd, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }
