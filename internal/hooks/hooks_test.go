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


package hooks

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uebuild/internal/plan"
	"uebuild/internal/runner"
)

type recordingExec struct {
	cmds []plan.Command
	code int
}

func (e *recordingExec) Run(_ context.Context, cmd plan.Command, _ bool) (int, error) {
	e.cmds = append(e.cmds, cmd)
	return e.code, nil
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func TestMissingHookIsNoop(t *testing.T) {
	exec := &recordingExec{code: 9}
	r := &Runner{Exec: exec, GOOS: "linux"}

	code, err := r.Run(context.Background(), PreBuild, t.TempDir(), plan.Env{}, false)
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Empty(t, exec.cmds)

	code, err = r.Run(context.Background(), PostBuild, filepath.Join(t.TempDir(), "missing"), plan.Env{}, false)
	require.NoError(t, err)
	assert.Zero(t, code)
}

func TestPythonHookPreferred(t *testing.T) {
	dir := t.TempDir()
	py := touch(t, dir, "PreBuild.py")
	touch(t, dir, "PreBuild.sh")

	exec := &recordingExec{}
	r := &Runner{Exec: exec, GOOS: "linux", Python: "/usr/bin/python3.12"}
	env := plan.Env{}.With("UE_BUILD_CONFIG_PATH", "/c.json")

	_, err := r.Run(context.Background(), PreBuild, dir, env, false)
	require.NoError(t, err)
	require.Len(t, exec.cmds, 1)

	got := exec.cmds[0]
	assert.Equal(t, []string{"/usr/bin/python3.12", py}, got.Argv())
	assert.Equal(t, dir, got.Dir)
	v, _ := got.Env.Get("UE_BUILD_CONFIG_PATH")
	assert.Equal(t, "/c.json", v)
}

func TestExtensionsByHost(t *testing.T) {
	assert.Equal(t, []string{".py", ".sh"}, Extensions("linux"))
	assert.Equal(t, []string{".py", ".bat", ".cmd"}, Extensions("windows"))
	assert.Equal(t, "python3", DefaultPython("darwin"))
	assert.Equal(t, "python", DefaultPython("windows"))
}

func TestFindHonorsHostExtensions(t *testing.T) {
	dir := t.TempDir()
	sh := touch(t, dir, "PostBuild.sh")
	bat := touch(t, dir, "PostBuild.bat")

	got, ok := (&Runner{GOOS: "linux"}).Find(PostBuild, dir)
	require.True(t, ok)
	assert.Equal(t, sh, got)

	got, ok = (&Runner{GOOS: "windows"}).Find(PostBuild, dir)
	require.True(t, ok)
	assert.Equal(t, bat, got)

	_, ok = (&Runner{GOOS: "linux"}).Find(PreBuild, dir)
	assert.False(t, ok)
}

func TestFindIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "PreBuild.py"), 0o755))

	_, ok := (&Runner{GOOS: "linux"}).Find(PreBuild, dir)
	assert.False(t, ok)
}

func TestCommandByExtension(t *testing.T) {
	r := &Runner{GOOS: "windows"}

	assert.Equal(t, []string{"python", "/h/PreBuild.py"}, r.Command("/h/PreBuild.py", "/h", plan.Env{}).Argv())
	assert.Equal(t, []string{"/h/PreBuild.cmd"}, r.Command("/h/PreBuild.cmd", "/h", plan.Env{}).Argv())
	assert.Equal(t, []string{"sh", "/h/PreBuild.sh"}, r.Command("/h/PreBuild.sh", "/h", plan.Env{}).Argv())
}

func TestHookExitCodePropagates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PreBuild.sh"), []byte("exit 3\n"), 0o644))

	var out bytes.Buffer
	r := &Runner{Exec: &runner.Runner{Stdout: &out, Stderr: &out}}
	code, err := r.Run(context.Background(), PreBuild, dir, plan.EnvFrom(os.Environ()), false)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestDryRunPrintsHook(t *testing.T) {
	dir := t.TempDir()
	py := touch(t, dir, "PostBuild.py")

	var out bytes.Buffer
	r := &Runner{Exec: &runner.Runner{Stdout: &out, GOOS: "linux"}, GOOS: "linux", Python: "python3"}
	code, err := r.Run(context.Background(), PostBuild, dir, plan.Env{}, true)
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Equal(t, plan.FormatArgs([]string{"python3", py})+"\n", out.String())
}
