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


// Package hooks runs the optional per-stage scripts that surround a build.
// A hook is a file named <Stage>.<ext> in the hooks directory; a stage with
// no matching file is a no-op.
package hooks

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"uebuild/internal/ctxkeys"
	"uebuild/internal/plan"
)

// Stage names a hook point.
type Stage string

const (
	PreBuild  Stage = "PreBuild"
	PostBuild Stage = "PostBuild"
)

// Executor runs a resolved command. *runner.Runner satisfies it.
type Executor interface {
	Run(ctx context.Context, cmd plan.Command, dryRun bool) (int, error)
}

// Runner locates and executes hook scripts.
type Runner struct {
	Exec Executor
	// Python is the interpreter for .py hooks. Defaults to python3, or
	// python on Windows.
	Python string
	// GOOS selects candidate extensions; defaults to runtime.GOOS.
	GOOS   string
	Stat   func(name string) (fs.FileInfo, error)
	Logger *slog.Logger
}

// Extensions returns the hook file extensions tried for goos, in order.
func Extensions(goos string) []string {
	if goos == "windows" {
		return []string{".py", ".bat", ".cmd"}
	}
	return []string{".py", ".sh"}
}

// DefaultPython returns the interpreter name used when none is configured.
func DefaultPython(goos string) string {
	if goos == "windows" {
		return "python"
	}
	return "python3"
}

// Find returns the first hook script for stage in dir.
func (r *Runner) Find(stage Stage, dir string) (string, bool) {
	stat := r.Stat
	if stat == nil {
		stat = os.Stat
	}
	for _, ext := range Extensions(r.goos()) {
		path := filepath.Join(dir, string(stage)+ext)
		if info, err := stat(path); err == nil && (info == nil || !info.IsDir()) {
			return path, true
		}
	}
	return "", false
}

// Command returns the invocation for a hook script.
func (r *Runner) Command(script, dir string, env plan.Env) plan.Command {
	cmd := plan.Command{Dir: dir, Env: env, Description: "hook " + filepath.Base(script)}
	switch filepath.Ext(script) {
	case ".py":
		cmd.Program = r.python()
		cmd.Args = []string{script}
	case ".sh":
		cmd.Program = "sh"
		cmd.Args = []string{script}
	default:
		cmd.Program = script
	}
	return cmd
}

// Run executes the hook for stage in dir, if one exists, and returns its
// exit code. A missing hook returns 0 without spawning anything.
func (r *Runner) Run(ctx context.Context, stage Stage, dir string, env plan.Env, dryRun bool) (int, error) {
	log := r.logger().With("stage", string(stage), "hooks_dir", dir)
	if id := ctxkeys.RunID(ctx); id != "" {
		log = log.With("run_id", id)
	}

	script, ok := r.Find(stage, dir)
	if !ok {
		log.Debug("no hook script")
		return 0, nil
	}
	log.Info("running hook", "script", script)
	return r.Exec.Run(ctx, r.Command(script, dir, env), dryRun)
}

func (r *Runner) goos() string {
	if r.GOOS != "" {
		return r.GOOS
	}
	return runtime.GOOS
}

func (r *Runner) python() string {
	if r.Python != "" {
		return r.Python
	}
	return DefaultPython(r.goos())
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
