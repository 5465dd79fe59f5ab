// uebuild is a configuration-driven Unreal Engine build orchestrator.
// Copyright (C) 2025 Matthew Burns
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"uebuild/internal/buildconfig"
	"uebuild/internal/layout"
	"uebuild/internal/logging"
	"uebuild/internal/settings"
	"uebuild/internal/validate"
)

// exitCodeConfig is returned for load, validation, usage and other
// configuration problems.
const exitCodeConfig = 2

// exitError carries a process exit code out of a cobra command. A nil err
// means the failure has already been reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitCode(code int) error { return &exitError{code: code} }

// app holds process-wide dependencies and persistent flag values.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	goos   string
	// detectBuildRoot locates the build root when no override is set.
	detectBuildRoot func() (string, error)
	homeDir         func() (string, error)

	configPath  string
	jsonConfig  string
	logLevel    string
	logFormat   string
	historyDB   string
	metricsFile string

	settings settings.Settings
	logger   *slog.Logger
	console  *console
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:          stdout,
		stderr:          stderr,
		getenv:          os.Getenv,
		goos:            runtime.GOOS,
		detectBuildRoot: layout.DetectBuildRoot,
		homeDir:         os.UserHomeDir,
		console:         newConsole(stdout),
	}
}

// run executes the CLI and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			a.console.Error(ee.err.Error())
		}
		return ee.code
	}
	fmt.Fprintf(a.stderr, "uebuild: %v\n", err)
	return exitCodeConfig
}

// init loads settings, applies flag overrides and builds the logger. It runs
// before every subcommand.
func (a *app) init(cmd *cobra.Command) error {
	s, err := settings.Load(a.getenv)
	if err != nil {
		return &exitError{code: exitCodeConfig, err: err}
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		s.LogLevel = strings.ToLower(a.logLevel)
	}
	if flags.Changed("log-format") {
		s.LogFormat = strings.ToLower(a.logFormat)
	}
	if flags.Changed("history-db") {
		s.HistoryDB = a.historyDB
	}
	if flags.Changed("metrics-file") {
		s.MetricsFile = a.metricsFile
	}
	if err := s.Validate(); err != nil {
		return &exitError{code: exitCodeConfig, err: err}
	}
	a.settings = s
	a.logger = logging.NewWithWriter(a.stderr, s.LogLevel, s.LogFormat)
	return nil
}

// paths are the locations one invocation works with.
type paths struct {
	BuildRoot  string
	ConfigPath string
	HooksDir   string
}

func (a *app) resolvePaths() (paths, error) {
	var p paths
	if a.settings.BuildRoot != "" {
		root, err := a.absPath(a.settings.BuildRoot)
		if err != nil {
			return p, err
		}
		p.BuildRoot = root
	} else {
		root, err := a.detectBuildRoot()
		if err != nil {
			return p, err
		}
		p.BuildRoot = root
	}

	override := a.configPath
	if override == "" {
		override = a.jsonConfig
	}
	if override != "" {
		cfg, err := a.absPath(override)
		if err != nil {
			return p, err
		}
		p.ConfigPath = cfg
	} else {
		p.ConfigPath = layout.DefaultConfigPath(p.BuildRoot)
	}

	if a.settings.HooksDir != "" {
		dir, err := a.absPath(a.settings.HooksDir)
		if err != nil {
			return p, err
		}
		p.HooksDir = dir
	} else {
		p.HooksDir = layout.HooksDir(p.BuildRoot)
	}
	return p, nil
}

// absPath expands a leading ~ and makes path absolute.
func (a *app) absPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := a.homeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", path, err)
		}
		path = filepath.Join(home, path[1:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}

func (a *app) host() validate.Host {
	return validate.Host{GOOS: a.goos, Stat: os.Stat}
}

// loadConfig reads the build config, mapping load failures to the config
// exit code.
func (a *app) loadConfig(path string) (buildconfig.Config, error) {
	cfg, err := buildconfig.Load(path)
	if err != nil {
		return cfg, &exitError{code: exitCodeConfig, err: err}
	}
	return cfg, nil
}
