package engine

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
)

// LauncherSpec parameterizes the helper scripts.
type LauncherSpec struct {
	// EnvDir is the environment directory relative to the project root.
	EnvDir string

	// BinDir is the executables directory inside the environment.
	BinDir string

	// EntryScript is the management script name relative to the project root.
	EntryScript string
}

// Launcher is a rendered helper script.
type Launcher struct {
	Name    string
	Content string
	Mode    os.FileMode
}

var (
	posixLauncher = template.Must(template.New("start.sh").Parse(`#!/usr/bin/env bash
cd "$(dirname "$0")"
source {{.EnvDir}}/{{.BinDir}}/activate
python {{.EntryScript}} runserver
`))

	windowsLauncher = template.Must(template.New("start.bat").Parse(`@echo off
cd /d %~dp0
call {{.EnvDir}}\{{.BinDir}}\activate.bat
python {{.EntryScript}} runserver
`))
)

// RenderLaunchers renders start.sh and start.bat for spec. Both are always
// produced so a project can be moved between platforms.
func RenderLaunchers(spec LauncherSpec) ([]Launcher, error) {
	posix, err := render(posixLauncher, spec)
	if err != nil {
		return nil, err
	}
	windows, err := render(windowsLauncher, spec)
	if err != nil {
		return nil, err
	}
	return []Launcher{
		{Name: "start.sh", Content: posix, Mode: 0o755},
		{Name: "start.bat", Content: windows, Mode: 0o644},
	}, nil
}

func render(tmpl *template.Template, spec LauncherSpec) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, spec); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
