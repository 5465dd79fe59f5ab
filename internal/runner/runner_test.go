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


package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uebuild/internal/plan"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh scripts")
	}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestDryRunPrintsWithoutSpawning(t *testing.T) {
	var out bytes.Buffer
	r := &Runner{Stdout: &out, GOOS: "linux"}
	cmd := plan.Command{Program: "/definitely/missing/RunUAT.sh", Args: []string{"BuildCookRun", "-project=/a b/G.uproject"}}

	code, err := r.Run(context.Background(), cmd, true)
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Equal(t, "/definitely/missing/RunUAT.sh BuildCookRun \"-project=/a b/G.uproject\"\n", out.String())

	first := out.String()
	out.Reset()
	_, _ = r.Run(context.Background(), cmd, true)
	assert.Equal(t, first, out.String(), "dry runs are repeatable")
}

func TestResolveWrapsBatchFilesOnWindows(t *testing.T) {
	r := &Runner{GOOS: "windows"}

	for _, prog := range []string{`C:\UE\RunUAT.bat`, `C:\UE\Tool.CMD`} {
		got := r.Resolve(plan.Command{Program: prog, Args: []string{"x"}})
		assert.Equal(t, []string{"cmd.exe", "/c", prog, "x"}, got.Argv())
	}

	exe := plan.Command{Program: `C:\Python\python.exe`, Args: []string{"hook.py"}}
	assert.Equal(t, exe.Argv(), r.Resolve(exe).Argv())

	posix := &Runner{GOOS: "linux"}
	bat := plan.Command{Program: "RunUAT.bat"}
	assert.Equal(t, bat.Argv(), posix.Resolve(bat).Argv())
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	args := make([]string, 1, 4)
	args[0] = "a"
	cmd := plan.Command{Program: "x.bat", Args: args}

	(&Runner{GOOS: "windows"}).Resolve(cmd)
	assert.Equal(t, []string{"a"}, cmd.Args)
}

func TestDryRunPrintsWrappedCommand(t *testing.T) {
	var out bytes.Buffer
	r := &Runner{Stdout: &out, GOOS: "windows"}

	_, err := r.Run(context.Background(), plan.Command{Program: `C:\Program Files\UE\RunUAT.bat`, Args: []string{"BuildCookRun"}}, true)
	require.NoError(t, err)
	assert.Equal(t, "cmd.exe /c \"C:\\Program Files\\UE\\RunUAT.bat\" BuildCookRun\n", out.String())
}

func TestRunReturnsChildExitCode(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	script := writeScript(t, dir, "fail.sh", "exit 7")

	var out bytes.Buffer
	r := &Runner{Stdout: &out, Stderr: &out}
	code, err := r.Run(context.Background(), plan.Command{Program: script}, false)
	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

func TestRunPassesEnvAndDir(t *testing.T) {
	skipOnWindows(t)
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	script := writeScript(t, dir, "env.sh", `echo "dir=$(pwd) ddc=$UE_SHARED_DDC"`)

	var out bytes.Buffer
	r := &Runner{Stdout: &out}
	env := plan.EnvFrom(os.Environ()).With("UE_SHARED_DDC", "/mnt/ddc")
	code, err := r.Run(context.Background(), plan.Command{Program: script, Dir: dir, Env: env}, false)
	require.NoError(t, err)
	assert.Zero(t, code)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, script, lines[0])
	assert.Equal(t, "dir="+dir+" ddc=/mnt/ddc", lines[1])
}

func TestRunMissingExecutable(t *testing.T) {
	var out bytes.Buffer
	r := &Runner{Stdout: &out}

	code, err := r.Run(context.Background(), plan.Command{Program: "uebuild-no-such-tool-xyz"}, false)
	require.Error(t, err)
	assert.Equal(t, ExitNotFound, code)

	code, err = r.Run(context.Background(), plan.Command{Program: filepath.Join(t.TempDir(), "missing.sh")}, false)
	require.Error(t, err)
	assert.Equal(t, ExitNotFound, code)
}

func TestRunMissingWorkingDirectory(t *testing.T) {
	var out bytes.Buffer
	r := &Runner{Stdout: &out}

	code, err := r.Run(context.Background(), plan.Command{Program: "sh", Dir: filepath.Join(t.TempDir(), "gone")}, false)
	require.Error(t, err)
	assert.Equal(t, ExitStartFailure, code)
}
