package engine

import (
	"context"
	"fmt"
)

// StepName identifies a pipeline step.
type StepName string

// Pipeline steps, in execution order.
const (
	StepCreateFolder      StepName = "create-folder"
	StepCreateEnvironment StepName = "create-environment"
	StepInstallPackages   StepName = "install-packages"
	StepVerifyModules     StepName = "verify-modules"
	StepGenerateSkeleton  StepName = "generate-skeleton"
	StepPatchBootstrap    StepName = "patch-bootstrap"
	StepRegisterApps      StepName = "register-apps"
	StepSetTimezone       StepName = "set-timezone"
	StepCreateSubmodules  StepName = "create-submodules"
	StepEmitHelperScripts StepName = "emit-helper-scripts"
	StepApplyMigrations   StepName = "apply-migrations"
	StepCreateAccount     StepName = "create-account"
)

// StepValidate labels events produced before the first step runs.
const StepValidate StepName = "validate"

// Step is one unit of pipeline work.
type Step struct {
	Name StepName

	// Class decides whether a failure stops the run.
	Class Class

	// After lists the steps that must come earlier in the order.
	After []StepName

	// Reaches is the state recorded once the step has run. Empty leaves the
	// state unchanged.
	Reaches State

	when func(r *run) bool
	do   func(ctx context.Context, r *run) error
}

// validateOrder checks that step names are unique and every declared
// predecessor runs before the step that names it.
func validateOrder(steps []Step) error {
	position := make(map[StepName]int, len(steps))
	for i, s := range steps {
		if _, dup := position[s.Name]; dup {
			return fmt.Errorf("duplicate step %q", s.Name)
		}
		position[s.Name] = i
	}
	for i, s := range steps {
		for _, dep := range s.After {
			at, ok := position[dep]
			if !ok {
				return fmt.Errorf("step %q depends on unknown step %q", s.Name, dep)
			}
			if at >= i {
				return fmt.Errorf("step %q must run after %q", s.Name, dep)
			}
		}
	}
	return nil
}
