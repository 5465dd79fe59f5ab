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


package ubaconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPath(t *testing.T) {
	env := map[string]string{"APPDATA": `C:\Users\dev\AppData\Roaming`}
	getenv := func(k string) string { return env[k] }

	got, err := DefaultPath("windows", getenv, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env["APPDATA"], "Unreal Engine", "UnrealBuildTool", "BuildConfiguration.xml"), got)

	got, err = DefaultPath("darwin", getenv, "/Users/dev")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/Users/dev", "Library", "Application Support", "Epic", "UnrealBuildTool", "BuildConfiguration.xml"), got)

	got, err = DefaultPath("linux", getenv, "/home/dev")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/dev", ".config", "Epic", "UnrealBuildTool", "BuildConfiguration.xml"), got)

	_, err = DefaultPath("windows", func(string) string { return "" }, "/home/dev")
	assert.Error(t, err)
	_, err = DefaultPath("linux", getenv, "")
	assert.Error(t, err)
}

func TestInjectCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "UnrealBuildTool", "BuildConfiguration.xml")

	require.NoError(t, Inject(path, " 10.0.0.5 "))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "<?xml"), text)
	assert.Contains(t, text, `xmlns="`+Namespace+`"`)
	assert.Contains(t, text, "<Coordinator>10.0.0.5</Coordinator>")

	ip, ok, err := Coordinator(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.5", ip)
}

func TestInjectPreservesExistingSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BuildConfiguration.xml")
	existing := `<?xml version="1.0" encoding="utf-8" ?>
<Configuration xmlns="https://www.unrealengine.com/BuildConfiguration">
  <BuildConfiguration>
    <MaxParallelActions>16</MaxParallelActions>
  </BuildConfiguration>
  <UnrealBuildAccelerator>
    <Coordinator>192.168.1.1</Coordinator>
    <bStoreObjFilesCompressed>true</bStoreObjFilesCompressed>
  </UnrealBuildAccelerator>
</Configuration>
`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	require.NoError(t, Inject(path, "10.1.2.3"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "<MaxParallelActions>16</MaxParallelActions>")
	assert.Contains(t, text, "<bStoreObjFilesCompressed>true</bStoreObjFilesCompressed>")
	assert.Contains(t, text, "<Coordinator>10.1.2.3</Coordinator>")
	assert.NotContains(t, text, "192.168.1.1")
	assert.Equal(t, 1, strings.Count(text, "<UnrealBuildAccelerator>"))
}

func TestInjectIntoBareConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BuildConfiguration.xml")
	require.NoError(t, os.WriteFile(path, []byte("<Configuration/>"), 0o644))

	require.NoError(t, Inject(path, "10.9.9.9"))

	ip, ok, err := Coordinator(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10.9.9.9", ip)
}

func TestInjectRejectsEmptyAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BuildConfiguration.xml")
	assert.Error(t, Inject(path, "  "))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing is written for an empty address")
}

func TestInjectMalformedXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BuildConfiguration.xml")
	require.NoError(t, os.WriteFile(path, []byte("<Configuration a=></Configuration>"), 0o644))
	assert.Error(t, Inject(path, "10.0.0.1"))
}

func TestCoordinatorMissingFile(t *testing.T) {
	_, ok, err := Coordinator(filepath.Join(t.TempDir(), "none.xml"))
	require.NoError(t, err)
	assert.False(t, ok)
}
