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

// Package orchestrator drives one build through validation, command
// construction, the pre-build hook, the main RunUAT run and the post-build
// hook. The pipeline is strictly linear and stops at the first failure.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"uebuild/internal/buildconfig"
	"uebuild/internal/ctxkeys"
	"uebuild/internal/hooks"
	"uebuild/internal/plan"
	"uebuild/internal/uat"
	"uebuild/internal/validate"
)

// ExitConfig is the exit code for load, validation and command-build failures.
const ExitConfig = 2

// State is a pipeline stage.
type State int

const (
	Validating State = iota
	BuildingCommand
	PreHook
	MainRun
	PostHook
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Validating:
		return "validating"
	case BuildingCommand:
		return "building-command"
	case PreHook:
		return "pre-hook"
	case MainRun:
		return "main-run"
	case PostHook:
		return "post-hook"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// HookRunner runs a lifecycle hook. *hooks.Runner satisfies it.
type HookRunner interface {
	Run(ctx context.Context, stage hooks.Stage, dir string, env plan.Env, dryRun bool) (int, error)
}

// Executor runs the main command. *runner.Runner satisfies it.
type Executor interface {
	Run(ctx context.Context, cmd plan.Command, dryRun bool) (int, error)
}

// Reporter receives user-facing validation output.
type Reporter interface {
	Warn(msg string)
	Error(msg string)
}

// Run describes a build as it starts, for recording.
type Run struct {
	ID           string
	Platform     string
	ClientConfig string
	ConfigPath   string
	ConfigDigest string
	Command      string
	StartedAt    time.Time
}

// Recorder persists build progress. Recording failures are logged and never
// fail the build.
type Recorder interface {
	BuildStarted(ctx context.Context, run Run) error
	StageFinished(ctx context.Context, runID, stage string, exitCode int, elapsed time.Duration) error
	BuildFinished(ctx context.Context, runID string, succeeded bool, failedStage string, exitCode int) error
}

// Observer receives timing and outcome measurements.
type Observer interface {
	ObserveStage(stage string, exitCode int, elapsed time.Duration)
	ObserveBuild(platform string, succeeded bool)
}

// Request is one orchestration pass.
type Request struct {
	ConfigPath   string
	Platform     string
	ClientConfig string
	ExtraArgs    []string
	BaseEnv      plan.Env
	BuildRoot    string
	HooksDir     string
	DryRun       bool
}

// Result is the outcome of a pass. ExitCode is 0 only when State is Done.
type Result struct {
	State       State
	FailedStage State
	ExitCode    int
	Command     plan.Command
	Validation  validate.Result
	RunID       string
	Err         error
}

// Pipeline composes the build stages. Hooks, Exec and Reporter are required;
// Recorder and Observer are optional and are not used in dry-run mode.
type Pipeline struct {
	Host     validate.Host
	GOOS     string
	Hooks    HookRunner
	Exec     Executor
	Reporter Reporter
	Recorder Recorder
	Observer Observer
	Logger   *slog.Logger

	// Load reads the config; defaults to buildconfig.Load.
	Load func(path string) (buildconfig.Config, error)
	// Now defaults to time.Now.
	Now func() time.Time
}

// pass carries the mutable state of a single Run call.
type pass struct {
	ctx    context.Context
	p      *Pipeline
	req    Request
	log    *slog.Logger
	res    Result
	record bool
}

// Run executes the pipeline for req.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	ps := &pass{
		// Recording outlives an interrupt so the failure is still stored.
		ctx: context.WithoutCancel(ctx),
		p:   p,
		req: req,
		log: p.logger().With("platform", req.Platform, "config", req.ClientConfig, "dry_run", req.DryRun),
	}

	ps.res.State = Validating
	cfg, ok := ps.validate()
	if !ok {
		return ps.res
	}

	ps.res.State = BuildingCommand
	cmd, err := uat.Build(cfg, uat.Request{
		ConfigPath:   req.ConfigPath,
		Platform:     req.Platform,
		ClientConfig: req.ClientConfig,
		ExtraArgs:    req.ExtraArgs,
		BaseEnv:      req.BaseEnv,
		GOOS:         p.goos(),
		BuildRoot:    req.BuildRoot,
	})
	if err != nil {
		p.Reporter.Error(err.Error())
		return ps.fail(ExitConfig, err)
	}
	ps.res.Command = cmd
	ps.start(cfg)
	if ps.res.RunID != "" {
		ctx = ctxkeys.WithRunID(ctx, ps.res.RunID)
	}

	ps.res.State = PreHook
	if !ps.stage(func() (int, error) {
		return p.Hooks.Run(ctx, hooks.PreBuild, req.HooksDir, cmd.Env, req.DryRun)
	}) {
		return ps.res
	}

	ps.res.State = MainRun
	if !ps.stage(func() (int, error) {
		return p.Exec.Run(ctx, cmd, req.DryRun)
	}) {
		return ps.res
	}

	ps.res.State = PostHook
	if !ps.stage(func() (int, error) {
		return p.Hooks.Run(ctx, hooks.PostBuild, req.HooksDir, cmd.Env, req.DryRun)
	}) {
		return ps.res
	}

	ps.res.State = Done
	ps.finish(true)
	ps.log.Info("build finished", "run_id", ps.res.RunID)
	return ps.res
}

func (ps *pass) validate() (buildconfig.Config, bool) {
	load := ps.p.Load
	if load == nil {
		load = buildconfig.Load
	}
	cfg, err := load(ps.req.ConfigPath)
	if err != nil {
		ps.p.Reporter.Error(err.Error())
		ps.fail(ExitConfig, err)
		return buildconfig.Config{}, false
	}

	res := validate.Config(cfg, ps.req.ConfigPath, ps.p.Host)
	ps.res.Validation = res
	for _, w := range res.Warnings {
		ps.p.Reporter.Warn(w)
	}
	if !res.OK() {
		for _, e := range res.Errors {
			ps.p.Reporter.Error(e)
		}
		ps.fail(ExitConfig, fmt.Errorf("%s: %d validation error(s)", ps.req.ConfigPath, len(res.Errors)))
		return buildconfig.Config{}, false
	}
	return cfg, true
}

// stage runs fn and records the outcome. It reports whether the pipeline
// may continue.
func (ps *pass) stage(fn func() (int, error)) bool {
	name := ps.res.State.String()
	start := ps.p.now()
	code, err := fn()
	elapsed := ps.p.now().Sub(start)

	if !ps.req.DryRun {
		if ps.p.Observer != nil {
			ps.p.Observer.ObserveStage(name, code, elapsed)
		}
		if ps.record {
			if rerr := ps.p.Recorder.StageFinished(ps.ctx, ps.res.RunID, name, code, elapsed); rerr != nil {
				ps.log.Warn("failed to record stage", "stage", name, "error", rerr)
			}
		}
	}

	if code == 0 && err == nil {
		return true
	}
	if code == 0 {
		code = 1
	}
	if err != nil {
		ps.p.Reporter.Error(err.Error())
	}
	ps.log.Error("stage failed", "stage", name, "exit_code", code, "error", err)
	ps.fail(code, err)
	return false
}

func (ps *pass) fail(code int, err error) Result {
	ps.res.FailedStage = ps.res.State
	ps.res.State = Failed
	ps.res.ExitCode = code
	ps.res.Err = err
	ps.finish(false)
	return ps.res
}

func (ps *pass) start(cfg buildconfig.Config) {
	if ps.req.DryRun || ps.p.Recorder == nil {
		return
	}
	id := ctxkeys.RunID(ps.ctx)
	if id == "" {
		id = uuid.NewString()
	}
	run := Run{
		ID:           id,
		Platform:     ps.req.Platform,
		ClientConfig: ps.req.ClientConfig,
		ConfigPath:   ps.req.ConfigPath,
		ConfigDigest: cfg.Digest(),
		Command:      ps.res.Command.Shell(),
		StartedAt:    ps.p.now(),
	}
	if err := ps.p.Recorder.BuildStarted(ps.ctx, run); err != nil {
		ps.log.Warn("failed to record build start", "error", err)
		return
	}
	ps.res.RunID = run.ID
	ps.record = true
}

func (ps *pass) finish(succeeded bool) {
	if ps.req.DryRun {
		return
	}
	if ps.p.Observer != nil {
		ps.p.Observer.ObserveBuild(ps.req.Platform, succeeded)
	}
	if !ps.record {
		return
	}
	failed := ""
	if !succeeded {
		failed = ps.res.FailedStage.String()
	}
	if err := ps.p.Recorder.BuildFinished(ps.ctx, ps.res.RunID, succeeded, failed, ps.res.ExitCode); err != nil {
		ps.log.Warn("failed to record build result", "error", err)
	}
}

// IsConfigFailure reports whether res failed before any process ran.
func (r Result) IsConfigFailure() bool {
	return r.State == Failed && (r.FailedStage == Validating || r.FailedStage == BuildingCommand)
}

func (p *Pipeline) goos() string {
	if p.GOOS != "" {
		return p.GOOS
	}
	if p.Host.GOOS != "" {
		return p.Host.GOOS
	}
	return validate.LocalHost().GOOS
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
