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

// Package runner executes planned commands as child processes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"uebuild/internal/ctxkeys"
	"uebuild/internal/plan"
)

const (
	// ExitNotFound is returned when the executable cannot be resolved.
	ExitNotFound = 127
	// ExitStartFailure is returned for any other spawn failure.
	ExitStartFailure = 1
)

// Runner prints and runs commands synchronously. The zero value uses the
// process's standard streams and host OS.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	// GOOS selects the batch-file wrapping; defaults to runtime.GOOS.
	GOOS   string
	Logger *slog.Logger
}

// Resolve returns cmd as it will actually be spawned. On Windows, batch
// scripts cannot be executed directly and are wrapped with cmd.exe /c.
func (r *Runner) Resolve(cmd plan.Command) plan.Command {
	if r.goos() != "windows" {
		return cmd
	}
	lower := strings.ToLower(cmd.Program)
	if !strings.HasSuffix(lower, ".bat") && !strings.HasSuffix(lower, ".cmd") {
		return cmd
	}
	wrapped := cmd
	wrapped.Program = "cmd.exe"
	wrapped.Args = append([]string{"/c", cmd.Program}, cmd.Args...)
	return wrapped
}

// Run prints the command line and, unless dryRun is set, runs it to
// completion. The child's exit code is returned unchanged. When the process
// cannot be started the code is ExitNotFound or ExitStartFailure and the
// cause is returned alongside it.
func (r *Runner) Run(ctx context.Context, cmd plan.Command, dryRun bool) (int, error) {
	actual := r.Resolve(cmd)
	fmt.Fprintln(r.stdout(), actual.Shell())

	log := r.logger().With("program", actual.Program, "dir", actual.Dir)
	if id := ctxkeys.RunID(ctx); id != "" {
		log = log.With("run_id", id)
	}
	if dryRun {
		log.Debug("dry run, not spawning")
		return 0, nil
	}

	if actual.Dir != "" {
		if _, err := os.Stat(actual.Dir); err != nil {
			log.Error("working directory unavailable", "error", err)
			return ExitStartFailure, fmt.Errorf("start %s: %w", actual.Program, err)
		}
	}

	c := exec.CommandContext(ctx, actual.Program, actual.Args...)
	c.Dir = actual.Dir
	if actual.Env.Len() > 0 {
		c.Env = actual.Env.Environ()
	}
	c.Stdout = r.stdout()
	c.Stderr = r.stderr()
	c.Stdin = r.Stdin
	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}

	log.Debug("starting process", "args", len(actual.Args))
	err := c.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Killed by a signal.
			code = ExitStartFailure
		}
		log.Debug("process exited", "code", code)
		return code, nil
	}

	code := ExitStartFailure
	var execErr *exec.Error
	if errors.As(err, &execErr) || errors.Is(err, os.ErrNotExist) {
		code = ExitNotFound
	}
	log.Error("failed to start process", "error", err, "code", code)
	return code, fmt.Errorf("start %s: %w", actual.Program, err)
}

func (r *Runner) goos() string {
	if r.GOOS != "" {
		return r.GOOS
	}
	return runtime.GOOS
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
