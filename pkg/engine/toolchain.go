package engine

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/openfroyo/scaffolder/pkg/executor"
)

// Markers identify injected preludes so injection happens once.
const (
	LauncherMarker = "VENV LAUNCHER"
	SiteMarker     = "VENV SITE-PACKAGES HACK"
)

// Layout locates executables inside an isolated environment.
type Layout struct {
	// EnvDir is the environment root.
	EnvDir string

	// BinDir is the executables directory relative to EnvDir.
	BinDir string

	// ExeSuffix is appended to executable names.
	ExeSuffix string
}

// NewLayout returns the environment layout used on goos.
func NewLayout(envDir, goos string) Layout {
	if goos == "windows" {
		return Layout{EnvDir: envDir, BinDir: "Scripts", ExeSuffix: ".exe"}
	}
	return Layout{EnvDir: envDir, BinDir: "bin"}
}

// Executable returns the path of name inside the environment.
func (l Layout) Executable(name string) string {
	return filepath.Join(l.EnvDir, l.BinDir, name+l.ExeSuffix)
}

// Toolchain renders the commands and file locations of the external tools a
// run drives. The zero value is not usable; start from DefaultToolchain.
type Toolchain struct {
	// Interpreter creates environments (`<Interpreter> -m venv <dir>`).
	Interpreter string `yaml:"interpreter" validate:"required"`

	// FrameworkPackage is installed first when the framework is requested.
	FrameworkPackage string `yaml:"framework_package" validate:"required"`

	// EnvDirName is the environment directory inside the project root.
	EnvDirName string `yaml:"env_dir" validate:"required,excludesall=/\\"`

	// EntryScript is the management script created by the skeleton generator.
	EntryScript string `yaml:"entry_script" validate:"required"`

	// SettingsFile is the configuration file inside the project package.
	SettingsFile string `yaml:"settings_file" validate:"required"`

	// ListBlock is the list literal sub-modules are registered in.
	ListBlock string `yaml:"installed_apps_block" validate:"required"`

	// TimezoneKey is the scalar holding the timezone.
	TimezoneKey string `yaml:"timezone_key" validate:"required"`

	// TimezoneAnchor is the line a missing timezone assignment goes before.
	TimezoneAnchor string `yaml:"timezone_anchor" validate:"required"`

	// GOOS selects the environment layout. Empty means runtime.GOOS.
	GOOS string `yaml:"goos"`
}

// DefaultToolchain returns the profile for the host platform.
func DefaultToolchain() Toolchain {
	interpreter := "python3"
	if runtime.GOOS == "windows" {
		interpreter = "python"
	}
	return Toolchain{
		Interpreter:      interpreter,
		FrameworkPackage: "django",
		EnvDirName:       "venv",
		EntryScript:      "manage.py",
		SettingsFile:     "settings.py",
		ListBlock:        "INSTALLED_APPS",
		TimezoneKey:      "TIME_ZONE",
		TimezoneAnchor:   "USE_TZ = True",
	}
}

func (tc Toolchain) goos() string {
	if tc.GOOS != "" {
		return tc.GOOS
	}
	return runtime.GOOS
}

// Layout returns the environment layout for a project rooted at root.
func (tc Toolchain) Layout(root string) Layout {
	return NewLayout(filepath.Join(root, tc.EnvDirName), tc.goos())
}

// EntryScriptPath returns the management script of a project rooted at root.
func (tc Toolchain) EntryScriptPath(root string) string {
	return filepath.Join(root, tc.EntryScript)
}

// ConfigFilePath returns the configuration file of project under root.
func (tc Toolchain) ConfigFilePath(root, project string) string {
	return filepath.Join(root, project, tc.SettingsFile)
}

// CreateEnvironment renders the environment creation command.
func (tc Toolchain) CreateEnvironment(l Layout) executor.Command {
	return executor.Command{Argv: []string{tc.Interpreter, "-m", "venv", l.EnvDir}}
}

// Install renders the package install command.
func (tc Toolchain) Install(l Layout, packages []string) executor.Command {
	argv := append([]string{l.Executable("pip"), "install"}, packages...)
	return executor.Command{Argv: argv}
}

// ProbeImport renders a command that exits zero when module is importable
// from dir.
func (tc Toolchain) ProbeImport(l Layout, dir, module string) executor.Command {
	return executor.Command{
		Argv: []string{l.Executable("python"), "-c", "import " + module},
		Dir:  dir,
	}
}

// GenerateSkeleton renders the skeleton generator command.
func (tc Toolchain) GenerateSkeleton(t *Target) executor.Command {
	return executor.Command{
		Argv: []string{t.Layout.Executable("django-admin"), "startproject", t.Project, t.Root},
	}
}

// GenerateSubmodule renders the sub-module generator command.
func (tc Toolchain) GenerateSubmodule(t *Target, name string) executor.Command {
	return executor.Command{
		Argv: []string{t.Layout.Executable("python"), t.EntryScript, "startapp", name},
		Dir:  t.Root,
	}
}

// Migrate renders the migration command.
func (tc Toolchain) Migrate(t *Target) executor.Command {
	return executor.Command{
		Argv: []string{t.Layout.Executable("python"), t.EntryScript, "migrate"},
		Dir:  t.Root,
	}
}

// CreateAccount renders the account creation command. Credentials are passed
// through the environment only.
func (tc Toolchain) CreateAccount(t *Target, a Account) executor.Command {
	return executor.Command{
		Argv: []string{t.Layout.Executable("python"), t.EntryScript, "createsuperuser", "--noinput"},
		Dir:  t.Root,
		Env: map[string]string{
			"DJANGO_SUPERUSER_USERNAME": a.Username,
			"DJANGO_SUPERUSER_EMAIL":    a.Email,
			"DJANGO_SUPERUSER_PASSWORD": a.Password,
		},
	}
}

// LauncherPrelude returns the code that makes the entry script re-execute
// itself under the environment interpreter.
func (tc Toolchain) LauncherPrelude(l Layout) string {
	return fmt.Sprintf(`# ── %s ──
import os, sys
_proj = os.path.dirname(os.path.abspath(__file__))
_venv_py = os.path.join(_proj, '%s', '%s', 'python%s')
if os.path.exists(_venv_py) and os.path.abspath(sys.executable) != os.path.abspath(_venv_py):
    os.execv(_venv_py, [_venv_py] + sys.argv)
# ────────────────────────

`, LauncherMarker, tc.EnvDirName, l.BinDir, l.ExeSuffix)
}

// SitePrelude returns the code that puts the environment's site-packages on
// the import path of the configuration module.
func (tc Toolchain) SitePrelude() string {
	return fmt.Sprintf(`# ── %s ──
import os, sys
_proj = os.path.dirname(os.path.dirname(os.path.abspath(__file__)))
_venv = os.path.join(_proj, '%s')
if os.name == 'nt':
    _lib = os.path.join('Lib', 'site-packages')
else:
    _lib = os.path.join('lib', f"python{sys.version_info.major}.{sys.version_info.minor}", 'site-packages')
_site = os.path.join(_venv, _lib)
if os.path.isdir(_site) and _site not in sys.path:
    sys.path.insert(0, _site)
# ───────────────────────────────────

`, SiteMarker, tc.EnvDirName)
}

// QuoteValue renders s as a string literal for the configuration file.
func (tc Toolchain) QuoteValue(s string) string {
	return "'" + s + "'"
}
