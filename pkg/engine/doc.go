// Package engine provides the provisioning pipeline of the scaffolder.
//
// # Overview
//
// A run turns a validated Request into a project directory holding an
// isolated environment and, when requested, a generated application
// skeleton. The pipeline drives external tools through an executor.Runner,
// edits the generated configuration through configedit, and reports every
// sub-step on a progress.Channel. The stream always ends with exactly one
// done record.
//
// # Steps
//
// Steps run strictly in order, one at a time:
//
//  1. create-folder - create the project root (must not exist)
//  2. create-environment - create the isolated environment
//  3. install-packages - install the framework and catalog packages
//  4. verify-modules - probe each catalog module for importability
//  5. generate-skeleton - run the skeleton generator
//  6. patch-bootstrap - inject the launcher and site-path preludes
//  7. register-apps - add verified modules to the list block
//  8. set-timezone - set the timezone key
//  9. create-submodules - generate and register each sub-module
//  10. emit-helper-scripts - write start.sh and start.bat
//  11. apply-migrations - run the schema migration tool
//  12. create-account - create the administrative account
//
// Fatal steps stop the run with a Failure event and Done(Error). Skippable
// steps report their failure as a Warning and the run continues. A run that
// fails is never rolled back; the partial target stays on disk.
//
// # Errors
//
// Failures are classified by EngineError:
//
//   - validation: unusable input or a request denied by admission policy
//   - execution: a tool that could not start or exited non-zero
//   - file_state: a generated file that is missing or could not be edited
//   - conflict: an existing target directory or importable sub-module name
//
// # Cancellation
//
// Cancelling the run context, or an observer that stops accepting events,
// stops the run before the next step starts. A tool that is already running
// is allowed to finish.
//
// # Usage
//
//	p, err := engine.NewPipeline(executor.New(logger), engine.DefaultToolchain(), "/srv/projects",
//	    engine.WithTelemetry(tel),
//	    engine.WithHistory(store),
//	)
//	if err != nil {
//	    return err
//	}
//	outcome, err := p.Provision(ctx, raw, engine.DefaultCatalog(), progress.NewConsole(os.Stdout))
package engine
