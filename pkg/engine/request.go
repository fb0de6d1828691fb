package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/openfroyo/scaffolder/pkg/sanitize"
)

// DefaultTimezone is used when the requested timezone is empty or unknown.
const DefaultTimezone = "UTC"

var (
	validate = validator.New()

	// Timezone names end up quoted inside a generated source file, so only
	// the characters the tz database uses are accepted.
	timezonePattern = regexp.MustCompile(`^[A-Za-z0-9_+\-/]+$`)
)

// RawParams are the untrusted inputs of a provisioning request, exactly as
// the caller received them.
type RawParams struct {
	ProjectName     string   `json:"project_name" validate:"max=128"`
	Framework       bool     `json:"framework"`
	Packages        []string `json:"packages" validate:"max=64,dive,max=128"`
	Timezone        string   `json:"timezone" validate:"max=64"`
	Submodules      string   `json:"submodules" validate:"max=1024"`
	AccountUsername string   `json:"account_username" validate:"max=150"`
	AccountEmail    string   `json:"account_email" validate:"omitempty,email"`
	AccountPassword string   `json:"-" validate:"max=128"`
}

// Defaults fill request fields the caller left empty.
type Defaults struct {
	Timezone        string `yaml:"timezone" validate:"required"`
	AccountEmail    string `yaml:"account_email" validate:"required,email"`
	AccountPassword string `yaml:"account_password" validate:"required"`
}

// DefaultDefaults returns the built-in defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Timezone:        DefaultTimezone,
		AccountEmail:    "admin@example.com",
		AccountPassword: "admin",
	}
}

// Account holds the credentials of the administrative account created at the
// end of a run. The password never appears in String or JSON output.
type Account struct {
	Username string
	Email    string
	Password string
}

func (a Account) String() string {
	return fmt.Sprintf("%s <%s>", a.Username, a.Email)
}

// MarshalJSON implements json.Marshaler without the password.
func (a Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}{a.Username, a.Email})
}

// NoticeLevel says how a Notice reaches the outside world.
type NoticeLevel string

const (
	// NoticeInfo notices become info events.
	NoticeInfo NoticeLevel = "info"

	// NoticeWarning notices become warning events.
	NoticeWarning NoticeLevel = "warning"

	// NoticeLog notices are only logged.
	NoticeLog NoticeLevel = "log"
)

// Notice is a non-fatal remark produced while parsing a request.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Request is a validated, immutable provisioning request.
type Request struct {
	project    string
	framework  bool
	packages   []CatalogEntry
	timezone   string
	submodules []string
	account    *Account
}

// ParseParams validates raw input into a Request.
//
// An unusable project name is a validation error. Sub-module names that fail
// sanitization and packages outside the catalog are dropped with a warning
// notice, and an unknown timezone falls back to UTC with a log-only notice.
// Asking for sub-modules or an account turns the framework on.
func ParseParams(raw RawParams, catalog Catalog, defaults Defaults) (Request, []Notice, error) {
	if err := validate.Struct(raw); err != nil {
		return Request{}, nil, NewValidationError("invalid request parameters", err)
	}

	project, err := sanitize.ProjectName(strings.TrimSpace(raw.ProjectName))
	if err != nil {
		return Request{}, nil, NewValidationError("project name cannot be empty or invalid", err).
			WithDetail("input", raw.ProjectName)
	}

	var notices []Notice

	submodules, rejected := sanitize.ModuleNames(raw.Submodules)
	for _, r := range rejected {
		notices = append(notices, Notice{
			Level:   NoticeWarning,
			Message: fmt.Sprintf("Sub-module %q skipped: %s", r.Input, r.Reason),
		})
	}

	var packages []CatalogEntry
	for _, pkg := range raw.Packages {
		pkg = strings.TrimSpace(pkg)
		if pkg == "" || slices.ContainsFunc(packages, func(e CatalogEntry) bool { return e.Package == pkg }) {
			continue
		}
		module, ok := catalog.Lookup(pkg)
		if !ok {
			notices = append(notices, Notice{
				Level:   NoticeWarning,
				Message: fmt.Sprintf("Package %q is not in the catalog; skipped", pkg),
			})
			continue
		}
		packages = append(packages, CatalogEntry{Package: pkg, Module: module})
	}

	var account *Account
	if username := strings.TrimSpace(raw.AccountUsername); username != "" {
		account = &Account{
			Username: username,
			Email:    firstNonEmpty(strings.TrimSpace(raw.AccountEmail), defaults.AccountEmail),
			Password: firstNonEmpty(strings.TrimSpace(raw.AccountPassword), defaults.AccountPassword),
		}
	}

	framework := raw.Framework
	if !framework && (len(submodules) > 0 || account != nil) {
		framework = true
		notices = append(notices, Notice{
			Level:   NoticeInfo,
			Message: "Framework enabled because sub-modules or an account were requested",
		})
	}
	if framework && !sanitize.IsIdentifier(project) {
		return Request{}, nil, NewValidationError(
			fmt.Sprintf("project name %q must be a valid identifier when the framework is installed", project), nil)
	}

	timezone, ok := ResolveTimezone(firstNonEmpty(strings.TrimSpace(raw.Timezone), defaults.Timezone))
	if !ok {
		notices = append(notices, Notice{
			Level:   NoticeLog,
			Message: fmt.Sprintf("Invalid timezone %q, falling back to %s", raw.Timezone, DefaultTimezone),
		})
	}

	return Request{
		project:    project,
		framework:  framework,
		packages:   packages,
		timezone:   timezone,
		submodules: submodules,
		account:    account,
	}, notices, nil
}

// ResolveTimezone returns tz when it names a zone in the system tz database,
// and DefaultTimezone otherwise.
func ResolveTimezone(tz string) (string, bool) {
	if tz == "" || tz == "Local" || !timezonePattern.MatchString(tz) {
		return DefaultTimezone, false
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return DefaultTimezone, false
	}
	return tz, true
}

// Project returns the sanitized project name.
func (r Request) Project() string { return r.project }

// Framework reports whether the base framework is installed.
func (r Request) Framework() bool { return r.framework }

// Packages returns the selected catalog packages in request order.
func (r Request) Packages() []string {
	names := make([]string, 0, len(r.packages))
	for _, e := range r.packages {
		names = append(names, e.Package)
	}
	return names
}

// Modules returns the importable modules of the selected packages, skipping
// packages that have none.
func (r Request) Modules() []string {
	var modules []string
	for _, e := range r.packages {
		if e.Module != "" {
			modules = append(modules, e.Module)
		}
	}
	return modules
}

// Timezone returns the validated timezone.
func (r Request) Timezone() string { return r.timezone }

// Submodules returns the sanitized sub-module names.
func (r Request) Submodules() []string { return slices.Clone(r.submodules) }

// Account returns the account to create, if any.
func (r Request) Account() (Account, bool) {
	if r.account == nil {
		return Account{}, false
	}
	return *r.account, true
}

// MarshalJSON implements json.Marshaler. Credentials are redacted.
func (r Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Project    string   `json:"project"`
		Framework  bool     `json:"framework"`
		Packages   []string `json:"packages"`
		Timezone   string   `json:"timezone"`
		Submodules []string `json:"submodules"`
		Account    *Account `json:"account,omitempty"`
	}{r.project, r.framework, r.Packages(), r.timezone, r.submodules, r.account})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
