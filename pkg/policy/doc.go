// Package policy provides Open Policy Agent (OPA) admission checks for
// provisioning requests.
//
// Every request is evaluated before the pipeline touches the filesystem.
// Policies are Rego modules; each contributes findings through two rules of
// its package:
//
//   - deny: entries with error or critical severity reject the request, lower
//     severities are reported as warnings
//   - warn: entries are always warnings
//
// An entry is either a message string or an object:
//
//	{"message": "...", "severity": "error"}
//
// Policies see the request as `input.request` with the fields project,
// framework, packages, modules, timezone, submodules and account. The account
// carries username, email and default_password; the password itself never
// reaches a policy.
//
// # Usage
//
//	eng, err := policy.NewEngine(logger, policy.WithDefaults(defaults))
//	if err != nil {
//	    return err
//	}
//	if err := eng.LoadPolicies(ctx, []string{"/etc/scaffolder/policies"}); err != nil {
//	    return err
//	}
//
//	pipeline, err := engine.NewPipeline(runner, toolchain, root, engine.WithAdmission(eng))
//
// Watch reloads the policy directories when files change. A reload that fails
// to compile leaves the previous set in place.
//
// # Built-in Policies
//
//   - submodule-project-collision: sub-modules must not share the project name
//   - project-name-length: project names are at most 64 characters
//   - reserved-project-names: framework projects must not shadow well-known modules
//   - default-account-password: warns when the account keeps the default password
//
// Built-in policies can be disabled with DisablePolicy. A file policy with the
// same name replaces the built-in one.
package policy
