package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	t.Setenv(EnvProjectsRoot, "")
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "scaffolder.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_MissingOptionalFile(t *testing.T) {
	t.Setenv(EnvProjectsRoot, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !filepath.IsAbs(cfg.ProjectsRoot) {
		t.Errorf("expected absolute projects root, got %s", cfg.ProjectsRoot)
	}
	if cfg.Toolchain.FrameworkPackage != "django" {
		t.Errorf("expected default framework package, got %s", cfg.Toolchain.FrameworkPackage)
	}
	if cfg.Defaults.Timezone != "UTC" {
		t.Errorf("expected UTC default timezone, got %s", cfg.Defaults.Timezone)
	}
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true); err == nil {
		t.Error("expected error for missing required config")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, `
projects_root: `+root+`
catalog_path: /etc/scaffolder/catalog.cue
policy_paths:
  - /etc/scaffolder/policies
watch: true
toolchain:
  interpreter: python3.12
defaults:
  timezone: Europe/Paris
store:
  enabled: false
server:
  listen: 0.0.0.0:9000
  read_header_timeout: 3s
telemetry:
  logging:
    level: debug
`)

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ProjectsRoot != root {
		t.Errorf("expected projects root %s, got %s", root, cfg.ProjectsRoot)
	}
	if cfg.Toolchain.Interpreter != "python3.12" {
		t.Errorf("expected interpreter python3.12, got %s", cfg.Toolchain.Interpreter)
	}
	if cfg.Toolchain.EntryScript != "manage.py" {
		t.Errorf("unset toolchain fields must keep defaults, got entry script %q", cfg.Toolchain.EntryScript)
	}
	if cfg.Defaults.Timezone != "Europe/Paris" || cfg.Defaults.AccountPassword != "admin" {
		t.Errorf("unexpected defaults %+v", cfg.Defaults)
	}
	if cfg.Store.Enabled {
		t.Error("expected store to be disabled")
	}
	if cfg.Server.Listen != "0.0.0.0:9000" || cfg.Server.ReadHeaderTimeout != 3*time.Second {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if !cfg.Watch || len(cfg.PolicyPaths) != 1 {
		t.Errorf("unexpected watch/policy settings: %v %v", cfg.Watch, cfg.PolicyPaths)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.ServiceName != "scaffolder" {
		t.Errorf("unexpected telemetry config %+v", cfg.Telemetry.Logging)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvProjectsRoot, root)
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ProjectsRoot != root {
		t.Errorf("expected projects root %s, got %s", root, cfg.ProjectsRoot)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Telemetry.Logging.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "projects_root: [\n"},
		{name: "bad default email", content: "defaults:\n  account_email: nobody\n"},
		{name: "store without path", content: "store:\n  enabled: true\n  path: \"\"\n"},
		{name: "bad listen address", content: "server:\n  listen: nowhere\n"},
		{name: "bad log level", content: "telemetry:\n  logging:\n    level: loud\n"},
		{name: "env dir with separator", content: "toolchain:\n  env_dir: a/b\n"},
		{name: "unsupported goos", content: "toolchain:\n  goos: plan9\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content), true); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
