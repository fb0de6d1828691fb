// Package executor runs external tools and streams their combined output
// line by line.
//
// A started process always runs to completion: cancelling the context passed
// to Start only prevents new processes from being spawned. Callers are
// expected to consume Lines (or call Wait, which drains) so the child is never
// blocked on a full pipe.
package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"os/exec"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// maxLineSize bounds a single output line. A longer line ends the stream with
// TruncatedLine and the remainder of the output is discarded.
const maxLineSize = 1024 * 1024

// TruncatedLine is the last line of a stream cut short by an overlong line.
const TruncatedLine = "[output truncated: line longer than 1 MiB]"

// Command describes one invocation of an external tool.
type Command struct {
	// Argv is the program followed by its arguments. No shell is involved.
	Argv []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env is overlaid on the parent environment. Secrets must travel here
	// rather than in Argv.
	Env map[string]string
}

// String renders the command for logs. Env values are never included.
func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Stream is the output and terminal status of a started process.
type Stream interface {
	// Lines yields combined stdout and stderr, one line at a time. The
	// sequence is finite and can only be consumed once.
	Lines() iter.Seq[string]

	// Wait drains unread output and returns nil on exit code zero, or an
	// *Error otherwise.
	Wait() error
}

// Runner starts external processes.
type Runner interface {
	Start(ctx context.Context, cmd Command) (Stream, error)
	Probe(ctx context.Context, cmd Command) (bool, error)
}

// Executor is the os/exec backed Runner.
type Executor struct {
	logger zerolog.Logger
}

// New creates an Executor.
func New(logger zerolog.Logger) *Executor {
	return &Executor{logger: logger.With().Str("component", "executor").Logger()}
}

// Start spawns cmd with stdout and stderr merged into one stream.
func (e *Executor) Start(ctx context.Context, c Command) (Stream, error) {
	if len(c.Argv) == 0 {
		return nil, &Error{Kind: KindSpawn, Err: errors.New("empty command")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindSpawn, Argv: c.Argv, Err: err}
	}

	cmd := build(c)
	reader, writer := io.Pipe()
	cmd.Stdout = writer
	cmd.Stderr = writer

	start := time.Now()
	if err := cmd.Start(); err != nil {
		_ = writer.Close()
		e.logger.Debug().Err(err).Str("command", c.String()).Msg("Failed to start process")
		return nil, &Error{Kind: KindSpawn, Argv: c.Argv, Err: err}
	}
	e.logger.Debug().
		Str("command", c.String()).
		Str("dir", c.Dir).
		Int("pid", cmd.Process.Pid).
		Msg("Process started")

	p := &Process{
		argv:   c.Argv,
		reader: reader,
		done:   make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		_ = writer.Close()
		p.err = classify(c.Argv, err)
		e.logger.Debug().
			Str("command", c.String()).
			Dur("duration", time.Since(start)).
			AnErr("result", p.err).
			Msg("Process finished")
		close(p.done)
	}()

	return p, nil
}

// Probe runs cmd with its output discarded and reports whether it exited with
// code zero. Only a failure to start is returned as an error.
func (e *Executor) Probe(ctx context.Context, c Command) (bool, error) {
	if len(c.Argv) == 0 {
		return false, &Error{Kind: KindSpawn, Err: errors.New("empty command")}
	}
	if err := ctx.Err(); err != nil {
		return false, &Error{Kind: KindSpawn, Argv: c.Argv, Err: err}
	}

	err := build(c).Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, &Error{Kind: KindSpawn, Argv: c.Argv, Err: err}
}

// Process is a running child started by Executor.
type Process struct {
	argv     []string
	reader   *io.PipeReader
	consumed atomic.Bool
	done     chan struct{}
	err      error
}

// Lines implements Stream.
func (p *Process) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !p.consumed.CompareAndSwap(false, true) {
			return
		}
		defer p.drain()

		scanner := bufio.NewScanner(p.reader)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
		if errors.Is(scanner.Err(), bufio.ErrTooLong) {
			yield(TruncatedLine)
		}
	}
}

// Wait implements Stream.
func (p *Process) Wait() error {
	if p.consumed.CompareAndSwap(false, true) {
		p.drain()
	}
	<-p.done
	return p.err
}

func (p *Process) drain() {
	_, _ = io.Copy(io.Discard, p.reader)
}

func build(c Command) *exec.Cmd {
	cmd := exec.Command(c.Argv[0], c.Argv[1:]...) //nolint:gosec // argv is built from validated names
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = cmd.Environ()
		for _, k := range slices.Sorted(maps.Keys(c.Env)) {
			cmd.Env = append(cmd.Env, k+"="+c.Env[k])
		}
	}
	return cmd
}

func classify(argv []string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Error{Kind: KindExit, Argv: argv, ExitCode: exitErr.ExitCode(), Err: err}
	}
	return &Error{Kind: KindExit, Argv: argv, ExitCode: -1, Err: fmt.Errorf("process output failed: %w", err)}
}
