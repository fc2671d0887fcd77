// Package assert runs commands that are expected to succeed and escalates
// the ones that do not: full diagnostics go to the monitoring channel, the
// requesting user gets a short notice carrying a correlation error-id, and
// the caller gets an error.
package assert

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/deixis/runbot/internal/notify"
	"github.com/deixis/runbot/internal/runner"
)

// ErrCommandFailed marks a command that ran to completion with a non-zero
// exit status.
var ErrCommandFailed = errors.New("command failed")

// DefaultFilenamePrefix names monitoring snippets when none is configured.
const DefaultFilenamePrefix = "cmd-error"

// Asserter wraps a Runner with failure escalation.
type Asserter struct {
	Runner *runner.Runner
	Conv   notify.Conversation
	Log    zerolog.Logger

	// FilenamePrefix names monitoring snippet attachments; defaults to
	// DefaultFilenamePrefix.
	FilenamePrefix string
}

// Run executes the spec and escalates any failure.
//
// On success the underlying result is returned unchanged, with no side
// effects. Every failure path first mirrors diagnostics to the monitoring
// channel under a fresh error-id. A plain non-zero exit (which includes
// launch failures folded into the result) additionally tells the
// requesting user the error-id and is reported as ErrCommandFailed;
// process-management and unexpected failures are returned as-is for the
// caller to handle.
func (a *Asserter) Run(ctx context.Context, spec runner.CommandSpec) (*runner.Result, error) {
	errorID := newErrorID(a.Conv.FromUserID())

	res, err := a.Runner.Gather(ctx, spec)
	if err != nil {
		var pe *runner.ProcessError
		if errors.As(err, &pe) {
			a.sendDiagnostics(errorID, spec, pe.ExitCode, pe.Stdout, pe.Stderr)
			return nil, err
		}
		a.sendDiagnostics(errorID, spec, runner.CodeUnexpected, "",
			fmt.Sprintf("%v\n\n%s", err, debug.Stack()))
		return nil, err
	}

	if res.ExitCode != 0 {
		a.Log.Warn().
			Str("error_id", errorID).
			Str("cmd", spec.String()).
			Int("rc", res.ExitCode).
			Str("stdout", res.Stdout).
			Str("stderr", res.Stderr).
			Msg("non-zero return code")
		a.sendDiagnostics(errorID, spec, res.ExitCode, res.Stdout, res.Stderr)
		a.Conv.Say(fmt.Sprintf(
			"Sorry, but I encountered an error. Details have been sent to the operations team. Mention error-id=%s when requesting support.",
			errorID))
		return nil, fmt.Errorf("non-zero return code from %s: %w", spec, ErrCommandFailed)
	}

	return res, nil
}

// sendDiagnostics delivers a failure to the monitoring channel as a
// timestamped attachment.
func (a *Asserter) sendDiagnostics(errorID string, spec runner.CommandSpec, rc int, stdout, stderr string) {
	intro := fmt.Sprintf("Error running command (for user=%s error-id=%s): %s",
		a.Conv.FromUserMention(), errorID, spec)
	payload := fmt.Sprintf("rc=%d\n\nstdout=%s\n\nstderr=%s\n", rc, stdout, stderr)

	prefix := a.FilenamePrefix
	if prefix == "" {
		prefix = DefaultFilenamePrefix
	}
	filename := fmt.Sprintf("%s-%s.log", prefix, time.Now().Format("20060102-150405"))

	a.Conv.MonitoringSnippet(intro, filename, payload)
}
