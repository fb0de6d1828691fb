package policy

import (
	"time"

	"github.com/openfroyo/scaffolder/pkg/engine"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for errors that should block operations.
	SeverityError Severity = "error"

	// SeverityCritical is for critical violations that must be addressed immediately.
	SeverityCritical Severity = "critical"
)

// Blocking reports whether a violation of severity s rejects the request.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// Policy represents a policy rule with its Rego code.
//
// A policy contributes findings through two rules of its package: entries of
// `deny` are reported with their own or the policy's severity, entries of
// `warn` are always warnings. An entry is either a message string or an
// object with "message" and optional "severity" keys.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for deny entries.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Builtin marks policies that ship with the binary.
	Builtin bool `json:"builtin"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Source is the file the policy was loaded from.
	Source string `json:"source,omitempty"`
}

// Violation is a single policy finding.
type Violation struct {
	// Policy is the name of the policy that produced the finding.
	Policy string `json:"policy"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`
}

// Result represents the result of policy evaluation.
type Result struct {
	// Allowed indicates if the request may run.
	Allowed bool `json:"allowed"`

	// Violations lists blocking findings.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists findings that don't block the request.
	Warnings []Violation `json:"warnings,omitempty"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// EvaluatedAt is when the policy was evaluated.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// Input is the document policies see as `input`.
type Input struct {
	Request *RequestInput `json:"request"`
	Context *Context      `json:"context"`
}

// RequestInput describes a provisioning request. Credentials never reach
// policies; only whether the default password is in use.
type RequestInput struct {
	Project    string        `json:"project"`
	Framework  bool          `json:"framework"`
	Packages   []string      `json:"packages"`
	Modules    []string      `json:"modules"`
	Timezone   string        `json:"timezone"`
	Submodules []string      `json:"submodules"`
	Account    *AccountInput `json:"account,omitempty"`
}

// AccountInput describes the requested administrative account.
type AccountInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	DefaultPassword bool   `json:"default_password"`
}

// Context provides context information for policy evaluation.
type Context struct {
	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`

	// Operation is the operation being checked, "provision" for runs.
	Operation string `json:"operation"`
}

// NewInput builds the policy input for req. defaults decides whether the
// account uses the default password.
func NewInput(req engine.Request, defaults engine.Defaults) *Input {
	in := &RequestInput{
		Project:    req.Project(),
		Framework:  req.Framework(),
		Packages:   nonNil(req.Packages()),
		Modules:    nonNil(req.Modules()),
		Timezone:   req.Timezone(),
		Submodules: nonNil(req.Submodules()),
	}
	if account, ok := req.Account(); ok {
		in.Account = &AccountInput{
			Username:        account.Username,
			Email:           account.Email,
			DefaultPassword: account.Password == defaults.AccountPassword,
		}
	}
	return &Input{
		Request: in,
		Context: &Context{Timestamp: time.Now().UTC(), Operation: "provision"},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
