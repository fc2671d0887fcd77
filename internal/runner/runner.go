// Package runner executes external commands and captures their output,
// either buffered (wait for exit, then read) or realtime (drain output as
// the child produces it).
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Defaults applied when the corresponding Runner field is zero.
const (
	DefaultChunkSize   = 256
	DefaultPollTimeout = 100 * time.Millisecond
	DefaultLocale      = "en_US.UTF-8"
)

// Runner executes commands described by a CommandSpec.
//
// The zero value is usable: it logs nowhere and uses the default chunk
// size, poll timeout, and locale.
type Runner struct {
	Log         zerolog.Logger // no-op unless set
	ChunkSize   int            // realtime read size in bytes
	PollTimeout time.Duration  // upper bound on one realtime poll
	Locale      string         // forced LC_ALL for the child
}

// Gather executes the spec and returns its result.
//
// A command that cannot be started is not an error at this layer: the
// failure is folded into the Result with CodeLaunchFailed and a message in
// Stderr. Error returns are reserved for empty argv and for
// process-management failures (*ProcessError).
//
// Gather occupies the calling goroutine for the child's entire lifetime.
func (r *Runner) Gather(ctx context.Context, spec CommandSpec) (*Result, error) {
	if len(spec.Argv) == 0 {
		return nil, fmt.Errorf("empty argv")
	}

	runID := uuid.New().String()
	log := r.Log.With().Str("run_id", runID).Logger()
	log.Debug().Str("cmd", spec.String()).Bool("realtime", spec.Realtime).Msg("executing")

	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = childEnv(spec.Env, r.locale())

	var res *Result
	var err error
	if spec.Realtime {
		res, err = r.gatherRealtime(cmd, spec, log)
	} else {
		res, err = r.gatherBuffered(cmd, spec)
	}
	if err != nil {
		return nil, err
	}
	res.RunID = runID

	log.Debug().
		Int("rc", res.ExitCode).
		Str("stdout", res.Stdout).
		Str("stderr", res.Stderr).
		Msg("process exited")
	return res, nil
}

// gatherBuffered waits for the process to exit and reads both streams whole.
// No size limit is applied.
func (r *Runner) gatherBuffered(cmd *exec.Cmd, spec CommandSpec) (*Result, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return launchFailure(spec, err), nil
	}

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &ProcessError{
				Cmd:      spec.String(),
				ExitCode: exitCodeOf(cmd),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				Err:      err,
			}
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{ExitCode: exitCode, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// launchFailure folds an OS-level start error into a sentinel result: for
// this class of failure a missing binary is an answer, not a crash.
func launchFailure(spec CommandSpec, err error) *Result {
	msg := fmt.Sprintf("error starting %s: %v\nis %s installed?", spec, err, spec.Argv[0])
	return &Result{ExitCode: CodeLaunchFailed, Stderr: msg}
}

// childEnv snapshots the parent environment once, applies the overrides,
// and forces LC_ALL so child output is reliably decodable as UTF-8.
func childEnv(overrides map[string]string, locale string) []string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		env[k] = v
	}
	for k, v := range overrides {
		env[k] = v
	}
	env["LC_ALL"] = locale

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func exitCodeOf(cmd *exec.Cmd) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return CodeLaunchFailed
}

func (r *Runner) chunkSize() int {
	if r.ChunkSize > 0 {
		return r.ChunkSize
	}
	return DefaultChunkSize
}

func (r *Runner) pollTimeout() time.Duration {
	if r.PollTimeout > 0 {
		return r.PollTimeout
	}
	return DefaultPollTimeout
}

func (r *Runner) locale() string {
	if r.Locale != "" {
		return r.Locale
	}
	return DefaultLocale
}
