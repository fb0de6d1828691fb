package policy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openfroyo/scaffolder/pkg/engine"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(zerolog.New(nil).Level(zerolog.Disabled))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return eng
}

func parseRequest(t *testing.T, raw engine.RawParams) engine.Request {
	t.Helper()
	req, _, err := engine.ParseParams(raw, engine.DefaultCatalog(), engine.DefaultDefaults())
	if err != nil {
		t.Fatalf("Failed to parse request: %v", err)
	}
	return req
}

func TestNewEngine(t *testing.T) {
	eng := newTestEngine(t)

	policies := eng.ListPolicies()
	expected := []string{
		"default-account-password",
		"project-name-length",
		"reserved-project-names",
		"submodule-project-collision",
	}
	if len(policies) != len(expected) {
		t.Fatalf("Expected %d built-in policies, got %d", len(expected), len(policies))
	}
	for i, name := range expected {
		if policies[i].Name != name {
			t.Errorf("Policy %d: expected %s, got %s", i, name, policies[i].Name)
		}
		if !policies[i].Builtin {
			t.Errorf("Policy %s should be marked built-in", name)
		}
	}
}

func TestAdmit(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name         string
		raw          engine.RawParams
		wantDenied   bool
		wantWarnings int
	}{
		{
			name: "plain environment",
			raw:  engine.RawParams{ProjectName: "demo"},
		},
		{
			name:       "reserved framework project",
			raw:        engine.RawParams{ProjectName: "json", Framework: true},
			wantDenied: true,
		},
		{
			name: "reserved name without framework",
			raw:  engine.RawParams{ProjectName: "json"},
		},
		{
			name:       "sub-module named like the project",
			raw:        engine.RawParams{ProjectName: "shop", Framework: true, Submodules: "shop, cart"},
			wantDenied: true,
		},
		{
			name:       "project name too long",
			raw:        engine.RawParams{ProjectName: strings.Repeat("a", 70)},
			wantDenied: true,
		},
		{
			name:         "default account password",
			raw:          engine.RawParams{ProjectName: "shop", Framework: true, AccountUsername: "admin"},
			wantWarnings: 1,
		},
		{
			name: "explicit account password",
			raw: engine.RawParams{
				ProjectName:     "shop",
				Framework:       true,
				AccountUsername: "admin",
				AccountPassword: "s3cret-pass",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := eng.Admit(ctx, parseRequest(t, tt.raw))

			if tt.wantDenied {
				if err == nil {
					t.Fatal("Expected request to be denied")
				}
				var ee *engine.EngineError
				if !errors.As(err, &ee) {
					t.Fatalf("Expected *engine.EngineError, got %T", err)
				}
				if ee.Class != engine.ErrorClassValidation || ee.Code != engine.ErrCodePolicyDenied {
					t.Errorf("Expected validation/%s, got %s/%s", engine.ErrCodePolicyDenied, ee.Class, ee.Code)
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected request to be admitted: %v", err)
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("Expected %d warnings, got %d: %v", tt.wantWarnings, len(warnings), warnings)
			}
		})
	}
}

func TestEvaluate_InputCarriesNoPassword(t *testing.T) {
	req := parseRequest(t, engine.RawParams{
		ProjectName:     "shop",
		AccountUsername: "admin",
		AccountPassword: "hunter22",
	})

	input := NewInput(req, engine.DefaultDefaults())
	if input.Request.Account == nil {
		t.Fatal("Expected account input")
	}
	if input.Request.Account.DefaultPassword {
		t.Error("Explicit password reported as default")
	}
	if !input.Request.Framework {
		t.Error("Account requests enable the framework")
	}
	if input.Request.Submodules == nil || input.Request.Packages == nil {
		t.Error("List fields must never be nil")
	}
}

func TestEvaluate_CustomDenyWithWarningSeverity(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	err := eng.SetPolicies(ctx, []Policy{{
		Name:     "no-celery",
		Severity: SeverityWarning,
		Enabled:  true,
		Rego: `package custom.celery

import rego.v1

deny contains "celery is discouraged" if {
	"celery" in input.request.packages
}
`,
	}})
	if err != nil {
		t.Fatalf("Failed to set policies: %v", err)
	}

	req := parseRequest(t, engine.RawParams{ProjectName: "demo", Packages: []string{"celery"}})
	result, err := eng.Evaluate(ctx, NewInput(req, engine.DefaultDefaults()))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if !result.Allowed {
		t.Error("Warning severity deny entries must not block")
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Policy != "no-celery" {
		t.Errorf("Expected one warning from no-celery, got %+v", result.Warnings)
	}
	if len(result.EvaluatedPolicies) != 5 {
		t.Errorf("Expected 5 evaluated policies, got %d", len(result.EvaluatedPolicies))
	}
}

func TestSetPolicies_ReplacesCustomSet(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	first := Policy{Name: "first", Enabled: true, Rego: "package custom.first\n"}
	second := Policy{Name: "second", Enabled: true, Rego: "package custom.second\n"}

	if err := eng.SetPolicies(ctx, []Policy{first}); err != nil {
		t.Fatalf("Failed to set policies: %v", err)
	}
	if err := eng.SetPolicies(ctx, []Policy{second}); err != nil {
		t.Fatalf("Failed to set policies: %v", err)
	}

	if _, err := eng.GetPolicy("first"); err == nil {
		t.Error("Expected first policy to be replaced")
	}
	if _, err := eng.GetPolicy("second"); err != nil {
		t.Errorf("Expected second policy to be loaded: %v", err)
	}
	if _, err := eng.GetPolicy("project-name-length"); err != nil {
		t.Errorf("Built-in policies must survive a reload: %v", err)
	}
}

func TestSetPolicies_CompileErrorKeepsCurrentSet(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	good := Policy{Name: "good", Enabled: true, Rego: "package custom.good\n"}
	if err := eng.SetPolicies(ctx, []Policy{good}); err != nil {
		t.Fatalf("Failed to set policies: %v", err)
	}

	bad := Policy{Name: "bad", Enabled: true, Rego: "package custom.bad\n\ndeny contains if {"}
	if err := eng.SetPolicies(ctx, []Policy{bad}); err == nil {
		t.Fatal("Expected compile error")
	}

	if _, err := eng.GetPolicy("good"); err != nil {
		t.Errorf("Existing policies must survive a failed reload: %v", err)
	}
}

func TestEnableDisablePolicy(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	if err := eng.DisablePolicy("reserved-project-names"); err != nil {
		t.Fatalf("Failed to disable policy: %v", err)
	}

	req := parseRequest(t, engine.RawParams{ProjectName: "json", Framework: true})
	if _, err := eng.Admit(ctx, req); err != nil {
		t.Errorf("Disabled policy still denied the request: %v", err)
	}

	if err := eng.EnablePolicy("reserved-project-names"); err != nil {
		t.Fatalf("Failed to enable policy: %v", err)
	}
	if _, err := eng.Admit(ctx, req); err == nil {
		t.Error("Re-enabled policy did not deny the request")
	}

	if err := eng.EnablePolicy("missing"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}

func TestLoadPolicies(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	dir := t.TempDir()
	content := `# Forbids the demo project.
package custom.nodemo

import rego.v1

deny contains "demo is not allowed" if {
	input.request.project == "demo"
}
`
	if err := os.WriteFile(filepath.Join(dir, "no-demo.rego"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write policy: %v", err)
	}

	if err := eng.LoadPolicies(ctx, []string{dir}); err != nil {
		t.Fatalf("Failed to load policies: %v", err)
	}

	p, err := eng.GetPolicy("no-demo")
	if err != nil {
		t.Fatalf("Loaded policy not found: %v", err)
	}
	if p.Description != "Forbids the demo project." {
		t.Errorf("Unexpected description %q", p.Description)
	}

	_, err = eng.Admit(ctx, parseRequest(t, engine.RawParams{ProjectName: "demo"}))
	if err == nil || !strings.Contains(err.Error(), "demo is not allowed") {
		t.Errorf("Expected demo to be denied, got %v", err)
	}
}
