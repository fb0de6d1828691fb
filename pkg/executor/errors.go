package executor

import (
	"errors"
	"fmt"
	"strings"
)

// Kind separates processes that never ran from processes that ran and failed.
type Kind string

const (
	// KindSpawn means the process could not be started.
	KindSpawn Kind = "spawn"

	// KindExit means the process ran and terminated unsuccessfully.
	KindExit Kind = "exit"
)

// Error is returned by Start, Probe and Wait.
type Error struct {
	Kind     Kind
	Argv     []string
	ExitCode int
	Err      error
}

func (e *Error) Error() string {
	name := "command"
	if len(e.Argv) > 0 {
		name = e.Argv[0]
	}
	if e.Kind == KindExit {
		return fmt.Sprintf("%s exited with code %d", name, e.ExitCode)
	}
	return fmt.Sprintf("failed to start %s: %v", name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Command returns the failed command line.
func (e *Error) Command() string {
	return strings.Join(e.Argv, " ")
}

// IsSpawn reports whether err is a failure to start a process.
func IsSpawn(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindSpawn
}

// ExitCode returns the exit code carried by err, or -1 when err is not an
// exit failure.
func ExitCode(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindExit {
		return e.ExitCode
	}
	return -1
}
