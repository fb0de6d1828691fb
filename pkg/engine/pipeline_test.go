package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/scaffolder/pkg/executor"
	"github.com/openfroyo/scaffolder/pkg/progress"
)

const generatedSettings = `from pathlib import Path

BASE_DIR = Path(__file__).resolve().parent.parent

INSTALLED_APPS = [
    'django.contrib.admin',
    'django.contrib.auth',
]

LANGUAGE_CODE = 'en-us'

TIME_ZONE = 'UTC'

USE_I18N = True

USE_TZ = True
`

// fakeRunner simulates the toolchain. Commands are identified by their verb
// (venv, install, startproject, startapp, migrate, createsuperuser).
type fakeRunner struct {
	mu      sync.Mutex
	started []executor.Command
	probed  []string

	importable map[string]bool
	output     map[string][]string
	exitCode   map[string]int
	spawnFail  map[string]bool
	settings   string
	onStart    func(verb string)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		importable: make(map[string]bool),
		output:     make(map[string][]string),
		exitCode:   make(map[string]int),
		spawnFail:  make(map[string]bool),
		settings:   generatedSettings,
	}
}

func verbOf(c executor.Command) string {
	for _, a := range c.Argv {
		switch a {
		case "venv", "install", "startproject", "startapp", "migrate", "createsuperuser":
			return a
		}
	}
	return ""
}

func (f *fakeRunner) Start(_ context.Context, c executor.Command) (executor.Stream, error) {
	verb := verbOf(c)

	f.mu.Lock()
	f.started = append(f.started, c)
	hook := f.onStart
	f.mu.Unlock()

	if hook != nil {
		hook(verb)
	}
	if f.spawnFail[verb] {
		return nil, &executor.Error{Kind: executor.KindSpawn, Argv: c.Argv, Err: os.ErrNotExist}
	}
	if code := f.exitCode[verb]; code != 0 {
		return executor.NewStaticStream(f.output[verb], &executor.Error{Kind: executor.KindExit, Argv: c.Argv, ExitCode: code}), nil
	}

	switch verb {
	case "venv":
		if err := os.MkdirAll(c.Argv[len(c.Argv)-1], 0o755); err != nil {
			return nil, err
		}
	case "startproject":
		project, root := c.Argv[2], c.Argv[3]
		if err := os.WriteFile(filepath.Join(root, "manage.py"), []byte("#!/usr/bin/env python\nimport sys\n"), 0o644); err != nil {
			return nil, err
		}
		if f.settings != "" {
			if err := os.MkdirAll(filepath.Join(root, project), 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(filepath.Join(root, project, "settings.py"), []byte(f.settings), 0o644); err != nil {
				return nil, err
			}
		}
	case "startapp":
		if err := os.MkdirAll(filepath.Join(c.Dir, c.Argv[len(c.Argv)-1]), 0o755); err != nil {
			return nil, err
		}
	}
	return executor.NewStaticStream(f.output[verb], nil), nil
}

func (f *fakeRunner) Probe(_ context.Context, c executor.Command) (bool, error) {
	module := strings.TrimPrefix(c.Argv[len(c.Argv)-1], "import ")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, module)
	return f.importable[module], nil
}

func (f *fakeRunner) verbs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.started))
	for _, c := range f.started {
		out = append(out, verbOf(c))
	}
	return out
}

func (f *fakeRunner) commands(verb string) []executor.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []executor.Command
	for _, c := range f.started {
		if verbOf(c) == verb {
			out = append(out, c)
		}
	}
	return out
}

type fakeHistory struct {
	mu       sync.Mutex
	started  []string
	events   []progress.Event
	outcomes []*Outcome
}

func (h *fakeHistory) RunStarted(_ context.Context, runID string, _ Request, _ time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, runID)
	return nil
}

func (h *fakeHistory) RunEvent(_ context.Context, _ string, ev progress.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return nil
}

func (h *fakeHistory) RunFinished(_ context.Context, o *Outcome) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outcomes = append(h.outcomes, o)
	return nil
}

type fakeAdmission struct {
	warnings []string
	err      error
}

func (a fakeAdmission) Admit(context.Context, Request) ([]string, error) {
	return a.warnings, a.err
}

// dropChannel records events but reports the observer as gone once limit
// events were delivered.
type dropChannel struct {
	*progress.Recorder
	limit int
	seen  int
}

func (d *dropChannel) Emit(ctx context.Context, ev progress.Event) error {
	d.seen++
	if d.seen > d.limit {
		return progress.ErrDisconnected
	}
	return d.Recorder.Emit(ctx, ev)
}

func testToolchain() Toolchain {
	tc := DefaultToolchain()
	tc.GOOS = "linux"
	return tc
}

func newTestPipeline(t *testing.T, runner executor.Runner, opts ...Option) (*Pipeline, string) {
	t.Helper()
	root := t.TempDir()
	opts = append([]Option{WithIDGenerator(func() string { return "run-1" })}, opts...)
	p, err := NewPipeline(runner, testToolchain(), root, opts...)
	require.NoError(t, err)
	return p, root
}

func TestNewPipelineRequiresRunnerAndRoot(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(nil, testToolchain(), t.TempDir())
	assert.Error(t, err)

	_, err = NewPipeline(newFakeRunner(), testToolchain(), "")
	assert.Error(t, err)
}

func TestStepPredecessors(t *testing.T) {
	t.Parallel()
	p, _ := newTestPipeline(t, newFakeRunner())

	want := map[StepName][]StepName{
		StepCreateFolder:      nil,
		StepCreateEnvironment: {StepCreateFolder},
		StepInstallPackages:   {StepCreateEnvironment},
		StepVerifyModules:     {StepInstallPackages},
		StepGenerateSkeleton:  {StepInstallPackages},
		StepPatchBootstrap:    {StepGenerateSkeleton},
		StepRegisterApps:      {StepPatchBootstrap, StepVerifyModules},
		StepSetTimezone:       {StepRegisterApps},
		StepCreateSubmodules:  {StepSetTimezone},
		StepEmitHelperScripts: {StepCreateSubmodules},
		StepApplyMigrations:   {StepEmitHelperScripts},
		StepCreateAccount:     {StepApplyMigrations},
	}

	steps := p.Steps()
	require.Len(t, steps, len(want))
	for _, s := range steps {
		assert.Equal(t, want[s.Name], s.After, s.Name)
	}
	require.NoError(t, validateOrder(steps))
}

func TestProvisionWithoutFramework(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	p, root := newTestPipeline(t, runner)
	rec := progress.NewRecorder()

	out, err := p.Provision(context.Background(), RawParams{ProjectName: "demo"}, DefaultCatalog(), rec)
	require.NoError(t, err)

	assert.Equal(t, []progress.Kind{progress.KindInfo, progress.KindInfo, progress.KindDone}, rec.Kinds())
	status, closed := rec.Status()
	assert.True(t, closed)
	assert.Equal(t, progress.StatusSuccess, status)

	assert.Equal(t, []string{"venv"}, runner.verbs())
	assert.Equal(t, RunStatusSucceeded, out.Status)
	assert.Equal(t, StateDoneSuccess, out.State)
	assert.Equal(t, StateEnvReady, out.Reached)
	assert.Equal(t, "run-1", out.RunID)

	assert.DirExists(t, filepath.Join(root, "demo"))
	assert.NoFileExists(t, filepath.Join(root, "demo", "demo", "settings.py"))
	assert.NoFileExists(t, filepath.Join(root, "demo", "start.sh"))
}

func TestProvisionFrameworkWithSubmodules(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	p, root := newTestPipeline(t, runner)
	rec := progress.NewRecorder()

	out, err := p.Provision(context.Background(), RawParams{
		ProjectName: "demo",
		Framework:   true,
		Timezone:    "Europe/Paris",
		Submodules:  "blog, 3bad",
	}, DefaultCatalog(), rec)
	require.NoError(t, err)

	status, _ := rec.Status()
	assert.Equal(t, progress.StatusSuccess, status)
	assert.Equal(t, RunStatusSucceeded, out.Status)
	assert.Equal(t, []string{"blog"}, out.Submodules)

	warnings := rec.Filter(progress.KindWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, string(StepValidate), warnings[0].Step)
	assert.Contains(t, warnings[0].Message, "3bad")

	assert.Equal(t, []string{"venv", "install", "startproject", "startapp", "migrate"}, runner.verbs())
	for _, c := range runner.commands("startapp") {
		assert.NotContains(t, c.Argv, "3bad")
	}
	install := runner.commands("install")[0]
	assert.Equal(t, "django", install.Argv[2])

	projectRoot := filepath.Join(root, "demo")
	settings, err := os.ReadFile(filepath.Join(projectRoot, "demo", "settings.py"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(settings), "'blog',"))
	assert.Equal(t, 1, strings.Count(string(settings), "TIME_ZONE ="))
	assert.Contains(t, string(settings), "TIME_ZONE = 'Europe/Paris'")
	assert.Equal(t, 1, strings.Count(string(settings), SiteMarker))

	manage, err := os.ReadFile(filepath.Join(projectRoot, "manage.py"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(manage), "#!/usr/bin/env python\n"))
	assert.Contains(t, string(manage), LauncherMarker)

	info, err := os.Stat(filepath.Join(projectRoot, "start.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	assert.FileExists(t, filepath.Join(projectRoot, "start.bat"))
	assert.DirExists(t, filepath.Join(projectRoot, "blog"))
}

func TestProvisionExistingTargetConflicts(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	p, _ := newTestPipeline(t, runner)
	ctx := context.Background()

	_, err := p.Provision(ctx, RawParams{ProjectName: "demo"}, DefaultCatalog(), progress.NewRecorder())
	require.NoError(t, err)
	calls := len(runner.verbs())

	rec := progress.NewRecorder()
	out, err := p.Provision(ctx, RawParams{ProjectName: "demo"}, DefaultCatalog(), rec)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var ee *EngineError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, ErrCodeTargetExists, ee.Code)
	assert.Equal(t, StepCreateFolder, ee.Step)

	assert.Equal(t, calls, len(runner.verbs()))
	assert.Equal(t, []progress.Kind{progress.KindFailure, progress.KindDone}, rec.Kinds())
	assert.Equal(t, StepCreateFolder, out.FailedStep)
	assert.Equal(t, StateCreated, out.Reached)
	assert.Equal(t, RunStatusFailed, out.Status)
}

func TestProvisionInvalidProjectName(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	p, root := newTestPipeline(t, runner)
	rec := progress.NewRecorder()

	out, err := p.Provision(context.Background(), RawParams{ProjectName: "   "}, DefaultCatalog(), rec)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, StepValidate, out.FailedStep)
	assert.Equal(t, []progress.Kind{progress.KindFailure, progress.KindDone}, rec.Kinds())
	assert.Empty(t, runner.verbs())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFatalMigrationFailureStopsRun(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	runner.exitCode["migrate"] = 3
	runner.output["migrate"] = []string{"no such table"}
	p, _ := newTestPipeline(t, runner)
	rec := progress.NewRecorder()

	out, err := p.Provision(context.Background(), RawParams{
		ProjectName:     "demo",
		Framework:       true,
		AccountUsername: "admin",
	}, DefaultCatalog(), rec)
	require.Error(t, err)
	assert.True(t, IsExecution(err))

	var ee *EngineError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, ErrCodeNonZeroExit, ee.Code)
	assert.Equal(t, 3, ee.Details["exit_code"])

	assert.Equal(t, StepApplyMigrations, out.FailedStep)
	assert.Equal(t, StateModulesReady, out.Reached)
	assert.Empty(t, runner.commands("createsuperuser"))

	events := rec.Events()
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, progress.KindFailure, events[len(events)-2].Kind)
	assert.Equal(t, string(StepApplyMigrations), events[len(events)-2].Step)
	assert.Equal(t, progress.Done(progress.StatusError).Status, events[len(events)-1].Status)

	var streamed bool
	for _, ev := range rec.Filter(progress.KindInfo) {
		if ev.Message == "no such table" {
			streamed = true
		}
	}
	assert.True(t, streamed, "tool output is forwarded before the failure")
}

func TestSpawnFailureIsClassified(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	runner.spawnFail["venv"] = true
	p, _ := newTestPipeline(t, runner)

	_, err := p.Provision(context.Background(), RawParams{ProjectName: "demo"}, DefaultCatalog(), progress.NewRecorder())
	var ee *EngineError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, ErrorClassExecution, ee.Class)
	assert.Equal(t, ErrCodeSpawnFailed, ee.Code)
	assert.Equal(t, StepCreateEnvironment, ee.Step)
}

func TestAccountFailureIsSkippable(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	runner.exitCode["createsuperuser"] = 1
	p, _ := newTestPipeline(t, runner)
	rec := progress.NewRecorder()

	out, err := p.Provision(context.Background(), RawParams{
		ProjectName:     "demo",
		AccountUsername: "admin",
		AccountPassword: "s3cret",
	}, DefaultCatalog(), rec)
	require.NoError(t, err)

	status, _ := rec.Status()
	assert.Equal(t, progress.StatusSuccess, status)
	assert.Equal(t, StateAccountReady, out.Reached)

	warnings := rec.Filter(progress.KindWarning)
	require.NotEmpty(t, warnings)
	assert.Equal(t, string(StepCreateAccount), warnings[len(warnings)-1].Step)

	cmds := runner.commands("createsuperuser")
	require.Len(t, cmds, 1)
	assert.NotContains(t, strings.Join(cmds[0].Argv, " "), "s3cret")
	assert.Equal(t, "s3cret", cmds[0].Env["DJANGO_SUPERUSER_PASSWORD"])
	assert.Equal(t, "admin@example.com", cmds[0].Env["DJANGO_SUPERUSER_EMAIL"])
}

func TestVerifiedModulesAreRegistered(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	runner.importable["rest_framework"] = true
	p, root := newTestPipeline(t, runner)
	rec := progress.NewRecorder()

	out, err := p.Provision(context.Background(), RawParams{
		ProjectName: "demo",
		Framework:   true,
		Packages:    []string{"djangorestframework", "django-debug-toolbar", "gunicorn"},
	}, DefaultCatalog(), rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"rest_framework"}, out.Modules)
	assert.Equal(t, []string{"rest_framework", "debug_toolbar"}, runner.probed)

	install := runner.commands("install")[0]
	assert.Equal(t, []string{"install", "django", "djangorestframework", "django-debug-toolbar", "gunicorn"}, install.Argv[1:])

	warnings := rec.Filter(progress.KindWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, string(StepVerifyModules), warnings[0].Step)
	assert.Contains(t, warnings[0].Message, "debug_toolbar")

	settings, err := os.ReadFile(filepath.Join(root, "demo", "demo", "settings.py"))
	require.NoError(t, err)
	assert.Contains(t, string(settings), "'rest_framework',")
	assert.NotContains(t, string(settings), "debug_toolbar")
}

func TestMissingListBlockIsSkippable(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	runner.importable["rest_framework"] = true
	runner.settings = "DEBUG = True\nUSE_TZ = True\n"
	p, _ := newTestPipeline(t, runner)
	rec := progress.NewRecorder()

	_, err := p.Provision(context.Background(), RawParams{
		ProjectName: "demo",
		Framework:   true,
		Packages:    []string{"djangorestframework"},
	}, DefaultCatalog(), rec)
	require.NoError(t, err)

	var found bool
	for _, w := range rec.Filter(progress.KindWarning) {
		if w.Step == string(StepRegisterApps) {
			found = true
			assert.Contains(t, w.Message, "not registered")
		}
	}
	assert.True(t, found)
	status, _ := rec.Status()
	assert.Equal(t, progress.StatusSuccess, status)
}

func TestMissingConfigFileIsFatal(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	runner.settings = ""
	p, _ := newTestPipeline(t, runner)

	out, err := p.Provision(context.Background(), RawParams{ProjectName: "demo", Framework: true}, DefaultCatalog(), progress.NewRecorder())
	require.Error(t, err)
	assert.True(t, IsFileState(err))
	assert.Equal(t, StepPatchBootstrap, out.FailedStep)
	assert.Empty(t, runner.commands("migrate"))
}

func TestSubmoduleConflictIsSkipped(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	runner.importable["json"] = true
	p, _ := newTestPipeline(t, runner)
	rec := progress.NewRecorder()

	out, err := p.Provision(context.Background(), RawParams{
		ProjectName: "demo",
		Submodules:  "json,shop",
	}, DefaultCatalog(), rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"shop"}, out.Submodules)
	startapps := runner.commands("startapp")
	require.Len(t, startapps, 1)
	assert.Equal(t, "shop", startapps[0].Argv[len(startapps[0].Argv)-1])

	var conflict bool
	for _, w := range rec.Filter(progress.KindWarning) {
		if w.Step == string(StepCreateSubmodules) && strings.Contains(w.Message, "json") {
			conflict = true
		}
	}
	assert.True(t, conflict)

	infos := rec.Filter(progress.KindInfo)
	require.NotEmpty(t, infos)
	assert.Equal(t, string(StepValidate), infos[0].Step, "sub-modules turn the framework on")
}

func TestCancellationStopsBetweenSteps(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.onStart = func(verb string) {
		if verb == "venv" {
			cancel()
		}
	}
	p, _ := newTestPipeline(t, runner)
	rec := progress.NewRecorder()

	out, err := p.Provision(ctx, RawParams{ProjectName: "demo", Framework: true}, DefaultCatalog(), rec)
	require.Error(t, err)

	var ee *EngineError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, ErrCodeCancelled, ee.Code)
	assert.Equal(t, RunStatusCancelled, out.Status)
	assert.Equal(t, StateEnvReady, out.Reached, "the in-flight step completes")
	assert.Equal(t, []string{"venv"}, runner.verbs())

	assert.Empty(t, rec.Filter(progress.KindFailure))
	status, closed := rec.Status()
	assert.True(t, closed)
	assert.Equal(t, progress.StatusError, status)
}

func TestDisconnectedObserverCancelsRun(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	p, _ := newTestPipeline(t, runner)
	ch := &dropChannel{Recorder: progress.NewRecorder(), limit: 0}

	out, err := p.Provision(context.Background(), RawParams{ProjectName: "demo", Framework: true}, DefaultCatalog(), ch)
	require.Error(t, err)
	assert.Equal(t, RunStatusCancelled, out.Status)
	assert.Equal(t, StateFolderReady, out.Reached)
	assert.Empty(t, runner.verbs())
}

func TestAdmissionDenied(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	p, root := newTestPipeline(t, runner, WithAdmission(fakeAdmission{
		warnings: []string{"default password in use"},
		err:      errors.New("project name is reserved"),
	}))
	rec := progress.NewRecorder()

	out, err := p.Provision(context.Background(), RawParams{ProjectName: "admin"}, DefaultCatalog(), rec)
	require.Error(t, err)

	var ee *EngineError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, ErrorClassValidation, ee.Class)
	assert.Equal(t, ErrCodePolicyDenied, ee.Code)
	assert.Equal(t, StepValidate, out.FailedStep)

	assert.Equal(t, []progress.Kind{progress.KindWarning, progress.KindFailure, progress.KindDone}, rec.Kinds())
	assert.Empty(t, runner.verbs())
	assert.NoDirExists(t, filepath.Join(root, "admin"))
}

func TestHistoryReceivesEveryEvent(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	history := &fakeHistory{}
	p, _ := newTestPipeline(t, runner, WithHistory(history))
	rec := progress.NewRecorder()

	out, err := p.Provision(context.Background(), RawParams{ProjectName: "demo"}, DefaultCatalog(), rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"run-1"}, history.started)
	require.Len(t, history.outcomes, 1)
	assert.Same(t, out, history.outcomes[0])

	require.Len(t, history.events, len(rec.Events()))
	for i, ev := range rec.Events() {
		assert.Equal(t, ev.Kind, history.events[i].Kind)
		assert.Equal(t, ev.Message, history.events[i].Message)
	}
}

func TestWithDefaults(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner()
	p, _ := newTestPipeline(t, runner, WithDefaults(Defaults{
		Timezone:        "UTC",
		AccountEmail:    "ops@example.org",
		AccountPassword: "changeme",
	}))

	_, err := p.Provision(context.Background(), RawParams{ProjectName: "demo", AccountUsername: "root"}, DefaultCatalog(), progress.NewRecorder())
	require.NoError(t, err)

	cmds := runner.commands("createsuperuser")
	require.Len(t, cmds, 1)
	assert.Equal(t, "ops@example.org", cmds[0].Env["DJANGO_SUPERUSER_EMAIL"])
	assert.Equal(t, "changeme", cmds[0].Env["DJANGO_SUPERUSER_PASSWORD"])
	assert.Equal(t, "ops@example.org", p.Defaults().AccountEmail)
}

func TestPlan(t *testing.T) {
	t.Parallel()
	p, _ := newTestPipeline(t, newFakeRunner())

	parse := func(raw RawParams) Request {
		req, _, err := ParseParams(raw, DefaultCatalog(), DefaultDefaults())
		require.NoError(t, err)
		return req
	}

	assert.Equal(t,
		[]StepName{StepCreateFolder, StepCreateEnvironment},
		p.Plan(parse(RawParams{ProjectName: "demo"})))

	assert.Equal(t,
		[]StepName{StepCreateFolder, StepCreateEnvironment, StepInstallPackages},
		p.Plan(parse(RawParams{ProjectName: "demo", Packages: []string{"pytest"}})))

	assert.Equal(t, []StepName{
		StepCreateFolder, StepCreateEnvironment, StepInstallPackages, StepVerifyModules,
		StepGenerateSkeleton, StepPatchBootstrap, StepRegisterApps, StepSetTimezone,
		StepCreateSubmodules, StepEmitHelperScripts, StepApplyMigrations, StepCreateAccount,
	}, p.Plan(parse(RawParams{
		ProjectName:     "shop",
		Framework:       true,
		Packages:        []string{"djangorestframework"},
		AccountUsername: "admin",
	})))
}
