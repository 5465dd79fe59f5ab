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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"uebuild/internal/ctxkeys"
	"uebuild/internal/history"
	"uebuild/internal/hooks"
	"uebuild/internal/metrics"
	"uebuild/internal/orchestrator"
	"uebuild/internal/plan"
	"uebuild/internal/runner"
)

// buildFlags are shared by build and plan.
type buildFlags struct {
	platform string
	config   string
	extra    []string
}

func (f *buildFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.platform, "platform", "", "target platform: Win64, Android, IOS, ...")
	fl.StringVar(&f.config, "config", "Development", "build configuration: Development, Shipping, ...")
	fl.StringArrayVar(&f.extra, "extra-uat-arg", nil, "append an extra RunUAT argument (repeatable)")
	_ = cmd.MarkFlagRequired("platform")
}

func (a *app) buildCommand() *cobra.Command {
	var (
		flags  buildFlags
		dryRun bool
		runID  string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run RunUAT BuildCookRun with PreBuild/PostBuild hooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.resolvePaths()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if runID != "" {
				ctx = ctxkeys.WithRunID(ctx, runID)
			}
			return a.runBuild(ctx, p, flags, dryRun)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print commands without executing")
	cmd.Flags().StringVar(&runID, "run-id", "", "ID recorded in build history (default: random UUID)")
	return cmd
}

func (a *app) runBuild(ctx context.Context, p paths, flags buildFlags, dryRun bool) error {
	exec := &runner.Runner{Stdout: a.stdout, Stderr: a.stderr, GOOS: a.goos, Logger: a.logger}
	pipeline := &orchestrator.Pipeline{
		Host:     a.host(),
		GOOS:     a.goos,
		Hooks:    a.hookRunner(exec),
		Exec:     exec,
		Reporter: a.console,
		Logger:   a.logger,
	}

	if !dryRun {
		if a.settings.MetricsFile != "" {
			metrics.Reset()
			pipeline.Observer = metrics.Observer{}
		}
		if store := a.openHistory(ctx); store != nil {
			defer func() { _ = store.Close() }()
			pipeline.Recorder = &history.Recorder{Store: store}
		}
	}

	res := pipeline.Run(ctx, orchestrator.Request{
		ConfigPath:   p.ConfigPath,
		Platform:     flags.platform,
		ClientConfig: flags.config,
		ExtraArgs:    flags.extra,
		BaseEnv:      plan.EnvFrom(os.Environ()),
		BuildRoot:    p.BuildRoot,
		HooksDir:     p.HooksDir,
		DryRun:       dryRun,
	})

	if pipeline.Observer != nil {
		if err := metrics.WriteTextfile(a.settings.MetricsFile); err != nil {
			a.logger.Warn("failed to write metrics", "path", a.settings.MetricsFile, "error", err)
		}
	}
	if res.ExitCode != 0 {
		return exitCode(res.ExitCode)
	}
	return nil
}

func (a *app) hookRunner(exec hooks.Executor) *hooks.Runner {
	return &hooks.Runner{Exec: exec, Python: a.settings.Python, GOOS: a.goos, Logger: a.logger}
}

// openHistory opens the history store when one is configured. Failures are
// logged and the build proceeds unrecorded.
func (a *app) openHistory(ctx context.Context) *history.Store {
	if a.settings.HistoryDB == "" {
		return nil
	}
	path, err := a.absPath(a.settings.HistoryDB)
	if err == nil {
		err = os.MkdirAll(filepath.Dir(path), 0o755)
	}
	if err != nil {
		a.logger.Warn("history unavailable", "error", err)
		return nil
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		a.logger.Warn("history unavailable", "path", path, "error", err)
		return nil
	}
	return store
}
