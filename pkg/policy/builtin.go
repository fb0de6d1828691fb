package policy

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		submoduleCollisionPolicy(),
		projectNameLengthPolicy(),
		reservedProjectNamesPolicy(),
		defaultAccountPasswordPolicy(),
	}
}

// submoduleCollisionPolicy rejects sub-modules named like the project
// package, which the generator cannot create.
func submoduleCollisionPolicy() Policy {
	return Policy{
		Name:        "submodule-project-collision",
		Description: "Sub-modules must not share the project package name",
		Severity:    SeverityError,
		Enabled:     true,
		Builtin:     true,
		Tags:        []string{"naming"},
		Rego: `package scaffolder.policies.submodules

import rego.v1

deny contains violation if {
	some name in input.request.submodules
	name == input.request.project
	violation := {
		"message": sprintf("Sub-module '%s' has the same name as the project", [name]),
		"severity": "error",
	}
}
`,
	}
}

// projectNameLengthPolicy bounds the project name.
func projectNameLengthPolicy() Policy {
	return Policy{
		Name:        "project-name-length",
		Description: "Project names must be at most 64 characters",
		Severity:    SeverityError,
		Enabled:     true,
		Builtin:     true,
		Tags:        []string{"naming"},
		Rego: `package scaffolder.policies.naming

import rego.v1

max_length := 64

deny contains violation if {
	count(input.request.project) > max_length
	violation := {
		"message": sprintf("Project name is %d characters long; the limit is %d", [count(input.request.project), max_length]),
		"severity": "error",
	}
}
`,
	}
}

// reservedProjectNamesPolicy rejects framework projects that would shadow a
// module the framework or the interpreter already provides.
func reservedProjectNamesPolicy() Policy {
	return Policy{
		Name:        "reserved-project-names",
		Description: "Framework projects must not shadow existing modules",
		Severity:    SeverityError,
		Enabled:     true,
		Builtin:     true,
		Tags:        []string{"naming", "framework"},
		Rego: `package scaffolder.policies.reserved

import rego.v1

reserved := {
	"asyncio", "code", "collections", "django", "email", "json", "logging",
	"os", "pip", "random", "setuptools", "site", "string", "sys", "test",
	"time", "types", "typing", "venv",
}

deny contains violation if {
	input.request.framework
	lower(input.request.project) in reserved
	violation := {
		"message": sprintf("Project name '%s' conflicts with an existing module", [input.request.project]),
		"severity": "error",
	}
}
`,
	}
}

// defaultAccountPasswordPolicy warns when the account keeps the configured
// default password.
func defaultAccountPasswordPolicy() Policy {
	return Policy{
		Name:        "default-account-password",
		Description: "Warns when the administrative account uses the default password",
		Severity:    SeverityWarning,
		Enabled:     true,
		Builtin:     true,
		Tags:        []string{"security"},
		Rego: `package scaffolder.policies.account

import rego.v1

warn contains msg if {
	input.request.account.default_password
	msg := sprintf("Account '%s' uses the default password; change it before deploying", [input.request.account.username])
}
`,
	}
}
