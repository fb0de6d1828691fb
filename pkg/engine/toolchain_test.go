package engine

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	t.Parallel()

	unix := NewLayout("/p/venv", "linux")
	assert.Equal(t, filepath.Join("/p/venv", "bin", "pip"), unix.Executable("pip"))

	win := NewLayout("/p/venv", "windows")
	assert.Equal(t, "Scripts", win.BinDir)
	assert.Equal(t, filepath.Join("/p/venv", "Scripts", "python.exe"), win.Executable("python"))
}

func TestNewTarget(t *testing.T) {
	t.Parallel()

	tgt := NewTarget("/srv/projects", "demo", testToolchain())
	assert.Equal(t, filepath.Join("/srv/projects", "demo"), tgt.Root)
	assert.Equal(t, filepath.Join("/srv/projects", "demo", "manage.py"), tgt.EntryScript)
	assert.Equal(t, filepath.Join("/srv/projects", "demo", "demo", "settings.py"), tgt.ConfigFile)
	assert.Equal(t, filepath.Join("/srv/projects", "demo", "venv"), tgt.Layout.EnvDir)

	tgt.AddSubmodule("blog")
	subs := tgt.Submodules()
	subs[0] = "x"
	assert.Equal(t, []string{"blog"}, tgt.Submodules())
}

func TestToolchainCommands(t *testing.T) {
	t.Parallel()
	tc := testToolchain()
	tgt := NewTarget("/srv", "demo", tc)

	env := tc.CreateEnvironment(tgt.Layout)
	assert.Equal(t, []string{"python3", "-m", "venv", tgt.Layout.EnvDir}, env.Argv)

	install := tc.Install(tgt.Layout, []string{"django", "celery"})
	assert.Equal(t, []string{tgt.Layout.Executable("pip"), "install", "django", "celery"}, install.Argv)

	probe := tc.ProbeImport(tgt.Layout, tgt.Root, "rest_framework")
	assert.Equal(t, "import rest_framework", probe.Argv[2])
	assert.Equal(t, tgt.Root, probe.Dir)

	skel := tc.GenerateSkeleton(tgt)
	assert.Equal(t, []string{"startproject", "demo", tgt.Root}, skel.Argv[1:])

	sub := tc.GenerateSubmodule(tgt, "blog")
	assert.Equal(t, []string{tgt.EntryScript, "startapp", "blog"}, sub.Argv[1:])
	assert.Equal(t, tgt.Root, sub.Dir)

	acct := tc.CreateAccount(tgt, Account{Username: "admin", Email: "a@b.io", Password: "pw"})
	assert.NotContains(t, acct.Argv, "pw")
	assert.Equal(t, "pw", acct.Env["DJANGO_SUPERUSER_PASSWORD"])
	assert.NotContains(t, acct.String(), "pw")
}

func TestPreludes(t *testing.T) {
	t.Parallel()
	tc := testToolchain()

	launcher := tc.LauncherPrelude(NewLayout("/p/venv", "windows"))
	assert.Contains(t, launcher, LauncherMarker)
	assert.Contains(t, launcher, "'venv', 'Scripts', 'python.exe'")

	site := tc.SitePrelude()
	assert.Contains(t, site, SiteMarker)
	assert.Contains(t, site, "os.path.join('Lib', 'site-packages')")
	assert.Equal(t, "'Europe/Paris'", tc.QuoteValue("Europe/Paris"))
}

func TestRenderLaunchers(t *testing.T) {
	t.Parallel()

	launchers, err := RenderLaunchers(LauncherSpec{EnvDir: "venv", BinDir: "bin", EntryScript: "manage.py"})
	require.NoError(t, err)
	require.Len(t, launchers, 2)

	sh, bat := launchers[0], launchers[1]
	assert.Equal(t, "start.sh", sh.Name)
	assert.True(t, strings.HasPrefix(sh.Content, "#!/usr/bin/env bash\n"))
	assert.Contains(t, sh.Content, "source venv/bin/activate")
	assert.Contains(t, sh.Content, "python manage.py runserver")

	assert.Equal(t, "start.bat", bat.Name)
	assert.Contains(t, bat.Content, `call venv\bin\activate.bat`)

	again, err := RenderLaunchers(LauncherSpec{EnvDir: "venv", BinDir: "bin", EntryScript: "manage.py"})
	require.NoError(t, err)
	assert.Equal(t, launchers, again)
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	module, ok := c.Lookup("djangorestframework")
	assert.True(t, ok)
	assert.Equal(t, "rest_framework", module)

	module, ok = c.Lookup("gunicorn")
	assert.True(t, ok)
	assert.Empty(t, module)

	_, ok = c.Lookup("leftpad")
	assert.False(t, ok)

	pkgs := c.Packages()
	assert.Len(t, pkgs, c.Len())
	assert.IsNonDecreasing(t, pkgs)

	var zero Catalog
	_, ok = zero.Lookup("django")
	assert.False(t, ok)
	assert.Zero(t, zero.Len())
}

func TestDefaultStepOrder(t *testing.T) {
	t.Parallel()

	steps := defaultSteps()
	require.NoError(t, validateOrder(steps))

	names := make([]StepName, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	assert.Equal(t, []StepName{
		StepCreateFolder, StepCreateEnvironment, StepInstallPackages, StepVerifyModules,
		StepGenerateSkeleton, StepPatchBootstrap, StepRegisterApps, StepSetTimezone,
		StepCreateSubmodules, StepEmitHelperScripts, StepApplyMigrations, StepCreateAccount,
	}, names)
}

func TestValidateOrder(t *testing.T) {
	t.Parallel()

	assert.Error(t, validateOrder([]Step{{Name: "a"}, {Name: "a"}}))
	assert.Error(t, validateOrder([]Step{{Name: "a", After: []StepName{"b"}}, {Name: "b"}}))
	assert.Error(t, validateOrder([]Step{{Name: "a", After: []StepName{"missing"}}}))
	assert.NoError(t, validateOrder([]Step{{Name: "a"}, {Name: "b", After: []StepName{"a"}}}))
}

func TestEngineError(t *testing.T) {
	t.Parallel()

	cause := assert.AnError
	err := NewExecutionError("migrations failed", cause).WithStep(StepApplyMigrations).WithDetail("exit_code", 2)

	assert.Equal(t, "[execution] migrations failed: "+cause.Error()+" (step=apply-migrations)", err.Error())
	assert.Equal(t, "migrations failed: "+cause.Error(), err.UserMessage())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, &EngineError{Class: ErrorClassExecution, Code: ErrCodeNonZeroExit})
	assert.True(t, IsExecution(err))
	assert.False(t, IsConflict(err))
	assert.Equal(t, 2, err.Details["exit_code"])

	conflict := NewConflictError("exists", nil)
	assert.Equal(t, ErrCodeTargetExists, conflict.Code)
	assert.Equal(t, "exists", conflict.UserMessage())
	assert.False(t, IsValidation(cause))
}
