package engine

import (
	"path/filepath"
	"slices"
)

// Target is the on-disk project a run builds. It is owned by exactly one run.
type Target struct {
	// Project is the sanitized project name.
	Project string

	// Root is the project directory, <projects root>/<project>.
	Root string

	// Layout locates the environment executables.
	Layout Layout

	// EntryScript is the management script path.
	EntryScript string

	// ConfigFile is the configuration file path.
	ConfigFile string

	submodules []string
}

// NewTarget derives every path of project under projectsRoot.
func NewTarget(projectsRoot, project string, tc Toolchain) *Target {
	root := filepath.Join(projectsRoot, project)
	return &Target{
		Project:     project,
		Root:        root,
		Layout:      tc.Layout(root),
		EntryScript: tc.EntryScriptPath(root),
		ConfigFile:  tc.ConfigFilePath(root, project),
	}
}

// AddSubmodule records a generated sub-module.
func (t *Target) AddSubmodule(name string) {
	t.submodules = append(t.submodules, name)
}

// Submodules returns the sub-modules generated so far.
func (t *Target) Submodules() []string {
	return slices.Clone(t.submodules)
}
