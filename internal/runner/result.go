package runner

// Sentinel exit codes reported through Result rather than as errors.
const (
	// CodeLaunchFailed marks a child process that could not be started
	// at all (binary missing, permission denied). It is deliberately not
	// -1, which os/exec reports for a signal-killed child.
	CodeLaunchFailed = -127

	// CodeUnexpected is used by higher layers for failures that are not
	// tied to any process exit status.
	CodeUnexpected = -1000
)

// Result holds the outcome of one command invocation.
type Result struct {
	RunID    string // unique identifier for this invocation
	ExitCode int    // process exit status, or a Code* sentinel
	Stdout   string // decoded stdout
	Stderr   string // decoded stderr; launch failures carry their message here
}
