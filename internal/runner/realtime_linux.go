//go:build linux

package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// gatherRealtime drains stdout and stderr as the child produces them.
//
// Both pipe read ends are switched to non-blocking and multiplexed with
// poll(2), together with an exit pipe whose write end is closed by the
// goroutine reaping the child. Each readable stream is drained in ChunkSize
// reads; the loop ends when both streams reach EOF or when the child exits,
// whichever comes first. Exit is observed directly rather than inferred
// from EOF because a grandchild inheriting the pipes can hold the write
// ends open long after the child is gone. A final non-blocking sweep picks
// up anything written between the last poll and the exit.
// Bytes are accumulated raw and converted to strings once at the end, so a
// multi-byte character split across two reads is harmless.
func (r *Runner) gatherRealtime(cmd *exec.Cmd, spec CommandSpec, log zerolog.Logger) (*Result, error) {
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, &ProcessError{Cmd: spec.String(), ExitCode: CodeLaunchFailed, Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, &ProcessError{Cmd: spec.String(), ExitCode: CodeLaunchFailed, Err: fmt.Errorf("stderr pipe: %w", err)}
	}
	exitR, exitW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		errR.Close()
		errW.Close()
		return nil, &ProcessError{Cmd: spec.String(), ExitCode: CodeLaunchFailed, Err: fmt.Errorf("exit pipe: %w", err)}
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		outR.Close()
		outW.Close()
		errR.Close()
		errW.Close()
		exitR.Close()
		exitW.Close()
		return launchFailure(spec, err), nil
	}

	// The child holds its own copies of the write ends; ours must go so
	// the read ends see EOF when the pipes are abandoned.
	outW.Close()
	errW.Close()
	defer outR.Close()
	defer errR.Close()
	defer exitR.Close()

	// Reap the child in the background; closing the exit pipe's write end
	// makes process exit pollable alongside the two streams.
	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
		exitW.Close()
	}()

	// Fd is captured once per pipe: os.File.Fd can switch the descriptor
	// back to blocking mode, so it must not be called after SetNonblock.
	outFd := int32(outR.Fd())
	errFd := int32(errR.Fd())
	exitFd := int32(exitR.Fd())
	for _, fd := range []int32{outFd, errFd} {
		if err := unix.SetNonblock(int(fd), true); err != nil {
			_ = cmd.Process.Kill()
			<-waitCh
			return nil, &ProcessError{Cmd: spec.String(), ExitCode: exitCodeOf(cmd), Err: fmt.Errorf("set nonblock: %w", err)}
		}
	}

	var stdout, stderr bytes.Buffer
	bufs := [2]*bytes.Buffer{&stdout, &stderr}
	buf := make([]byte, r.chunkSize())

	// readChunk performs one bounded read from stream i and logs it.
	// Returns 1 when data was read, 0 when nothing is available right
	// now, and -1 once the stream is exhausted or unreadable.
	readChunk := func(i int, fd int32) int {
		n, rerr := unix.Read(int(fd), buf)
		switch {
		case n > 0:
			bufs[i].Write(buf[:n])
			chunk := strings.TrimRight(string(buf[:n]), "\n")
			if i == 0 {
				log.Info().Str("stream", "stdout").Msg(chunk)
			} else {
				log.Warn().Str("stream", "stderr").Msg(chunk)
			}
			return 1
		case n == 0: // EOF
			return -1
		case errors.Is(rerr, unix.EAGAIN) || errors.Is(rerr, unix.EINTR):
			return 0
		default:
			return -1
		}
	}

	fds := []unix.PollFd{
		{Fd: outFd, Events: unix.POLLIN},
		{Fd: errFd, Events: unix.POLLIN},
		{Fd: exitFd, Events: unix.POLLIN},
	}

	open := 2
	exited := false
	for open > 0 && !exited {
		if _, err := unix.Poll(fds, int(r.pollTimeout().Milliseconds())); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			_ = cmd.Process.Kill()
			<-waitCh
			return nil, &ProcessError{
				Cmd:      spec.String(),
				ExitCode: exitCodeOf(cmd),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				Err:      fmt.Errorf("poll: %w", err),
			}
		}

		for i := range bufs {
			if fds[i].Fd < 0 || fds[i].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
				continue
			}
			if readChunk(i, fds[i].Fd) < 0 {
				fds[i].Fd = -1
				open--
			}
		}
		if fds[2].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			exited = true
		}
	}

	// Final sweep: the child may have written between the last poll and
	// exiting. A stream a surviving grandchild still holds open is
	// abandoned once it has nothing buffered; the contract ends at exit.
	for i := range bufs {
		for fds[i].Fd >= 0 {
			if readChunk(i, fds[i].Fd) <= 0 {
				break
			}
		}
	}

	exitCode := 0
	if werr := <-waitCh; werr != nil {
		var exitErr *exec.ExitError
		if !errors.As(werr, &exitErr) {
			return nil, &ProcessError{
				Cmd:      spec.String(),
				ExitCode: exitCodeOf(cmd),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				Err:      werr,
			}
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{ExitCode: exitCode, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}
