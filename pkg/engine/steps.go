package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/openfroyo/scaffolder/pkg/configedit"
)

func defaultSteps() []Step {
	return []Step{
		{
			Name:    StepCreateFolder,
			Class:   ClassFatal,
			Reaches: StateFolderReady,
			do:      createFolder,
		},
		{
			Name:    StepCreateEnvironment,
			Class:   ClassFatal,
			After:   []StepName{StepCreateFolder},
			Reaches: StateEnvReady,
			do:      createEnvironment,
		},
		{
			Name:    StepInstallPackages,
			Class:   ClassFatal,
			After:   []StepName{StepCreateEnvironment},
			Reaches: StatePackagesInstalled,
			when:    func(r *run) bool { return len(r.installList()) > 0 },
			do:      installPackages,
		},
		{
			Name:  StepVerifyModules,
			Class: ClassSkippable,
			After: []StepName{StepInstallPackages},
			when:  func(r *run) bool { return len(r.req.Modules()) > 0 },
			do:    verifyModules,
		},
		{
			Name:    StepGenerateSkeleton,
			Class:   ClassFatal,
			After:   []StepName{StepInstallPackages},
			Reaches: StateSkeletonReady,
			when:    frameworkOn,
			do:      generateSkeleton,
		},
		{
			Name:  StepPatchBootstrap,
			Class: ClassFatal,
			After: []StepName{StepGenerateSkeleton},
			when:  frameworkOn,
			do:    patchBootstrap,
		},
		{
			Name:  StepRegisterApps,
			Class: ClassSkippable,
			After: []StepName{StepPatchBootstrap, StepVerifyModules},
			when:  func(r *run) bool { return r.req.Framework() && len(r.verified) > 0 },
			do:    registerApps,
		},
		{
			Name:    StepSetTimezone,
			Class:   ClassSkippable,
			After:   []StepName{StepRegisterApps},
			Reaches: StateConfigured,
			when:    frameworkOn,
			do:      setTimezone,
		},
		{
			Name:    StepCreateSubmodules,
			Class:   ClassSkippable,
			After:   []StepName{StepSetTimezone},
			Reaches: StateModulesReady,
			when:    frameworkOn,
			do:      createSubmodules,
		},
		{
			Name:  StepEmitHelperScripts,
			Class: ClassFatal,
			After: []StepName{StepCreateSubmodules},
			when:  frameworkOn,
			do:    emitHelperScripts,
		},
		{
			Name:    StepApplyMigrations,
			Class:   ClassFatal,
			After:   []StepName{StepEmitHelperScripts},
			Reaches: StateMigrationsApplied,
			when:    frameworkOn,
			do:      applyMigrations,
		},
		{
			Name:    StepCreateAccount,
			Class:   ClassSkippable,
			After:   []StepName{StepApplyMigrations},
			Reaches: StateAccountReady,
			when: func(r *run) bool {
				_, ok := r.req.Account()
				return r.req.Framework() && ok
			},
			do: createAccount,
		},
	}
}

func frameworkOn(r *run) bool {
	return r.req.Framework()
}

// installList is the framework package (when requested) followed by the
// selected catalog packages.
func (r *run) installList() []string {
	var pkgs []string
	if r.req.Framework() {
		pkgs = append(pkgs, r.toolchain.FrameworkPackage)
	}
	return append(pkgs, r.req.Packages()...)
}

func createFolder(ctx context.Context, r *run) error {
	if err := os.MkdirAll(filepath.Dir(r.target.Root), 0o755); err != nil {
		return NewFileStateError("failed to create projects root", err).WithCode(ErrCodeWriteFailed)
	}
	if err := os.Mkdir(r.target.Root, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return NewConflictError(fmt.Sprintf("folder `%s` already exists", r.target.Project), nil).
				WithDetail("path", r.target.Root)
		}
		return NewFileStateError("failed to create project folder", err).WithCode(ErrCodeWriteFailed)
	}
	r.info(ctx, StepCreateFolder, "Folder `%s` created", r.target.Project)
	return nil
}

func createEnvironment(ctx context.Context, r *run) error {
	cmd := r.toolchain.CreateEnvironment(r.target.Layout)
	if err := r.stream(ctx, StepCreateEnvironment, "environment creation failed", cmd); err != nil {
		return err
	}
	r.info(ctx, StepCreateEnvironment, "Environment created")
	return nil
}

func installPackages(ctx context.Context, r *run) error {
	pkgs := r.installList()
	r.info(ctx, StepInstallPackages, "Installing packages: %s", strings.Join(pkgs, ", "))
	if err := r.stream(ctx, StepInstallPackages, "package installation failed", r.toolchain.Install(r.target.Layout, pkgs)); err != nil {
		return err
	}
	r.info(ctx, StepInstallPackages, "Packages installed")
	return nil
}

func verifyModules(ctx context.Context, r *run) error {
	for _, module := range r.req.Modules() {
		ok, err := r.probe(ctx, r.toolchain.ProbeImport(r.target.Layout, r.target.Root, module))
		switch {
		case err != nil:
			r.warn(ctx, StepVerifyModules, "Module '%s' could not be checked (%v); skipped", module, err)
		case ok:
			r.verified = append(r.verified, module)
			r.info(ctx, StepVerifyModules, "Module '%s' is importable", module)
		default:
			r.warn(ctx, StepVerifyModules, "Module '%s' not found; skipped", module)
		}
	}
	return nil
}

func generateSkeleton(ctx context.Context, r *run) error {
	r.info(ctx, StepGenerateSkeleton, "Generating project skeleton")
	if err := r.stream(ctx, StepGenerateSkeleton, "skeleton generation failed", r.toolchain.GenerateSkeleton(r.target)); err != nil {
		return err
	}
	r.info(ctx, StepGenerateSkeleton, "Project skeleton created")
	return nil
}

func patchBootstrap(ctx context.Context, r *run) error {
	rel, _ := filepath.Rel(r.target.Root, r.target.ConfigFile)
	if _, err := os.Stat(r.target.ConfigFile); err != nil {
		return NewFileStateError(fmt.Sprintf("missing %s", rel), err)
	}

	entry := configedit.New(r.target.EntryScript)
	if _, err := entry.InjectPreludeOnce(LauncherMarker, r.toolchain.LauncherPrelude(r.target.Layout)); err != nil {
		return fileError(err, "failed to patch "+filepath.Base(r.target.EntryScript))
	}
	if err := os.Chmod(r.target.EntryScript, 0o755); err != nil {
		r.logger.WithError(err).Debug("Could not mark entry script executable")
	}
	r.info(ctx, StepPatchBootstrap, "%s now runs under the environment interpreter", filepath.Base(r.target.EntryScript))

	settings := configedit.New(r.target.ConfigFile)
	if _, err := settings.InjectPreludeOnce(SiteMarker, r.toolchain.SitePrelude()); err != nil {
		return fileError(err, "failed to patch "+rel)
	}
	r.info(ctx, StepPatchBootstrap, "Environment site-packages added to %s", rel)
	return nil
}

func registerApps(ctx context.Context, r *run) error {
	m := configedit.New(r.target.ConfigFile)
	res, err := m.AppendToListBlock(r.toolchain.ListBlock, r.verified)
	if err != nil {
		return fileError(err, "third-party apps not registered")
	}
	if len(res.Added) > 0 {
		r.info(ctx, StepRegisterApps, "Registered in %s: %s", r.toolchain.ListBlock, strings.Join(res.Added, ", "))
	}
	return nil
}

func setTimezone(ctx context.Context, r *run) error {
	m := configedit.New(r.target.ConfigFile, configedit.WithAnchor(r.toolchain.TimezoneAnchor))
	if _, err := m.SetScalar(r.toolchain.TimezoneKey, r.toolchain.QuoteValue(r.req.Timezone())); err != nil {
		return fileError(err, "timezone not set")
	}
	r.info(ctx, StepSetTimezone, "%s set to '%s'", r.toolchain.TimezoneKey, r.req.Timezone())
	return nil
}

// createSubmodules generates each requested sub-module. Every name is handled
// independently: a conflict or a generator failure skips only that name.
func createSubmodules(ctx context.Context, r *run) error {
	names := r.req.Submodules()
	if len(names) == 0 {
		return nil
	}
	r.info(ctx, StepCreateSubmodules, "Creating sub-modules: %s", strings.Join(names, ", "))

	m := configedit.New(r.target.ConfigFile)
	for _, name := range names {
		if ctx.Err() != nil {
			return nil
		}

		importable, err := r.probe(ctx, r.toolchain.ProbeImport(r.target.Layout, r.target.Root, name))
		if err != nil {
			r.warn(ctx, StepCreateSubmodules, "Could not check '%s' for conflicts (%v); skipped", name, err)
			continue
		}
		if importable {
			conflict := NewConflictError(fmt.Sprintf("'%s' already exists as a module", name), nil).
				WithCode(ErrCodeModuleConflict)
			r.warn(ctx, StepCreateSubmodules, "%s; skipped", conflict.UserMessage())
			continue
		}

		if err := r.stream(ctx, StepCreateSubmodules, fmt.Sprintf("creating '%s' failed", name), r.toolchain.GenerateSubmodule(r.target, name)); err != nil {
			r.warn(ctx, StepCreateSubmodules, "%s; skipped", userMessage(err))
			continue
		}
		r.target.AddSubmodule(name)

		if _, err := m.AppendToListBlock(r.toolchain.ListBlock, []string{name}); err != nil {
			r.warn(ctx, StepCreateSubmodules, "'%s' created but not registered: %v", name, err)
			continue
		}
		r.info(ctx, StepCreateSubmodules, "'%s' created and added to %s", name, r.toolchain.ListBlock)
	}
	return nil
}

func emitHelperScripts(ctx context.Context, r *run) error {
	envRel, err := filepath.Rel(r.target.Root, r.target.Layout.EnvDir)
	if err != nil {
		envRel = r.toolchain.EnvDirName
	}
	launchers, err := RenderLaunchers(LauncherSpec{
		EnvDir:      envRel,
		BinDir:      r.target.Layout.BinDir,
		EntryScript: filepath.Base(r.target.EntryScript),
	})
	if err != nil {
		return NewFileStateError("failed to render helper scripts", err).WithCode(ErrCodeWriteFailed)
	}

	names := make([]string, 0, len(launchers))
	for _, l := range launchers {
		path := filepath.Join(r.target.Root, l.Name)
		if err := configedit.WriteFileAtomic(path, []byte(l.Content), l.Mode); err != nil {
			return NewFileStateError("failed to write "+l.Name, err).WithCode(ErrCodeWriteFailed)
		}
		names = append(names, l.Name)
	}
	r.info(ctx, StepEmitHelperScripts, "Helper scripts written: %s", strings.Join(names, ", "))
	return nil
}

func applyMigrations(ctx context.Context, r *run) error {
	r.info(ctx, StepApplyMigrations, "Applying migrations")
	if err := r.stream(ctx, StepApplyMigrations, "migrations failed", r.toolchain.Migrate(r.target)); err != nil {
		return err
	}
	r.info(ctx, StepApplyMigrations, "Migrations applied")
	return nil
}

func createAccount(ctx context.Context, r *run) error {
	account, _ := r.req.Account()
	r.info(ctx, StepCreateAccount, "Creating administrative account '%s'", account.Username)
	if err := r.stream(ctx, StepCreateAccount, "account creation failed", r.toolchain.CreateAccount(r.target, account)); err != nil {
		return err
	}
	r.info(ctx, StepCreateAccount, "Account '%s' created", account.Username)
	return nil
}

// fileError maps configedit failures onto the error taxonomy.
func fileError(err error, what string) *EngineError {
	switch {
	case errors.Is(err, configedit.ErrBlockNotFound):
		return NewFileStateError(what, err).WithCode(ErrCodeBlockNotFound)
	case errors.Is(err, configedit.ErrFileMissing):
		return NewFileStateError(what, err)
	default:
		return NewFileStateError(what, err).WithCode(ErrCodeWriteFailed)
	}
}
