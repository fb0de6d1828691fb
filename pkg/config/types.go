package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/scaffolder/pkg/engine"
	"github.com/openfroyo/scaffolder/pkg/telemetry"
)

// Environment variables that override file settings.
const (
	EnvProjectsRoot = "SCAFFOLDER_PROJECTS_ROOT"
	EnvLogLevel     = "LOG_LEVEL"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "scaffolder.yaml"

// Config is the scaffolder configuration.
type Config struct {
	// ProjectsRoot is the directory new projects are created in.
	ProjectsRoot string `yaml:"projects_root" validate:"required"`

	// Toolchain describes the external tools and file layout.
	Toolchain engine.Toolchain `yaml:"toolchain"`

	// CatalogPath is a CUE catalog file. Empty uses the built-in catalog.
	CatalogPath string `yaml:"catalog_path"`

	// PolicyPaths are .rego/.json files or directories of admission policies.
	PolicyPaths []string `yaml:"policy_paths" validate:"dive,required"`

	// Watch reloads the catalog and policies when their files change.
	Watch bool `yaml:"watch"`

	// Defaults fill request fields left empty.
	Defaults engine.Defaults `yaml:"defaults"`

	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`

	Telemetry telemetry.Config `yaml:"telemetry"`
}

// StoreConfig configures run history.
type StoreConfig struct {
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file, or ":memory:".
	Path string `yaml:"path" validate:"required_if=Enabled true"`
}

// ServerConfig configures the HTTP front door.
type ServerConfig struct {
	// Listen is the host:port address to serve on.
	Listen string `yaml:"listen" validate:"required,hostname_port"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" validate:"gte=0"`
}

var validate = validator.New()

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		ProjectsRoot: ".",
		Toolchain:    engine.DefaultToolchain(),
		Defaults:     engine.DefaultDefaults(),
		Store: StoreConfig{
			Enabled: true,
			Path:    "scaffolder.db",
		},
		Server: ServerConfig{
			Listen:            "127.0.0.1:8000",
			ReadHeaderTimeout: 10 * time.Second,
		},
		Telemetry: *telemetry.DefaultConfig(),
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file is an error only when
// required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	root, err := filepath.Abs(cfg.ProjectsRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve projects root: %w", err)
	}
	cfg.ProjectsRoot = root

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvProjectsRoot); v != "" {
		c.ProjectsRoot = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Telemetry.Logging.Level = v
	}
}

// Validate checks field constraints and the telemetry settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if c.Toolchain.GOOS != "" && c.Toolchain.GOOS != "windows" && c.Toolchain.GOOS != "linux" && c.Toolchain.GOOS != "darwin" {
		return fmt.Errorf("unsupported toolchain goos %q", c.Toolchain.GOOS)
	}
	return nil
}
