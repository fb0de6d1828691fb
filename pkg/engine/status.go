package engine

import (
	"fmt"
)

// State is the last milestone a run has reached.
type State string

const (
	StateCreated           State = "created"
	StateFolderReady       State = "folder_ready"
	StateEnvReady          State = "env_ready"
	StatePackagesInstalled State = "packages_installed"
	StateSkeletonReady     State = "skeleton_ready"
	StateConfigured        State = "configured"
	StateModulesReady      State = "modules_ready"
	StateMigrationsApplied State = "migrations_applied"
	StateAccountReady      State = "account_ready"
	StateDoneSuccess       State = "done_success"
	StateDoneError         State = "done_error"
)

// IsTerminal returns true if no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateDoneSuccess || s == StateDoneError
}

// RunStatus is the recorded outcome of a run.
type RunStatus string

const (
	// RunStatusRunning indicates the run is currently executing.
	RunStatusRunning RunStatus = "running"

	// RunStatusSucceeded indicates the run reached Done(Success).
	RunStatusSucceeded RunStatus = "succeeded"

	// RunStatusFailed indicates a fatal step failure.
	RunStatusFailed RunStatus = "failed"

	// RunStatusCancelled indicates the observer went away or the context was
	// cancelled between steps.
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal returns true if the run status represents a final state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed || s == RunStatusCancelled
}

// Validate checks if the run status is valid.
func (s RunStatus) Validate() error {
	switch s {
	case RunStatusRunning, RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return nil
	default:
		return fmt.Errorf("invalid run status: %s", s)
	}
}

// Class tells the pipeline what a step failure means for the run.
type Class string

const (
	// ClassFatal failures stop the run with Done(Error).
	ClassFatal Class = "fatal"

	// ClassSkippable failures become warnings and the run continues.
	ClassSkippable Class = "skippable"
)
