//go:build !linux

package runner

import (
	"os/exec"

	"github.com/rs/zerolog"
)

// Realtime draining multiplexes the pipe descriptors with poll(2), which
// has no portable equivalent here; other platforms degrade to buffered
// collection.
func (r *Runner) gatherRealtime(cmd *exec.Cmd, spec CommandSpec, _ zerolog.Logger) (*Result, error) {
	return r.gatherBuffered(cmd, spec)
}
