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

package validate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uebuild/internal/buildconfig"
	"uebuild/internal/uat"
)

const cfgPath = "/p/Config/BuildSystem/BuildConfig.json"

// fakeHost reports the given paths as existing.
func fakeHost(goos string, paths ...string) Host {
	existing := make(map[string]bool, len(paths))
	for _, p := range paths {
		existing[p] = true
	}
	return Host{
		GOOS: goos,
		Stat: func(name string) (fs.FileInfo, error) {
			if existing[name] {
				return nil, nil
			}
			return nil, fs.ErrNotExist
		},
	}
}

// engineHost is a Linux host with a complete engine install at /ue.
func engineHost(extra ...string) Host {
	return fakeHost("linux", append([]string{"/ue", uat.RunUATPath("/ue", "linux")}, extra...)...)
}

func parse(t *testing.T, body string) buildconfig.Config {
	t.Helper()
	cfg, err := buildconfig.Parse(cfgPath, []byte(body))
	require.NoError(t, err)
	return cfg
}

func countMentioning(msgs []string, word string) int {
	n := 0
	for _, m := range msgs {
		if strings.Contains(m, word) {
			n++
		}
	}
	return n
}

func TestValidConfigPasses(t *testing.T) {
	res := Config(parse(t, `{"EngineRoot": "/ue", "Platforms": {"Win64": {}}}`), cfgPath, engineHost())

	assert.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestEngineRootProblemsYieldExactlyOneError(t *testing.T) {
	bodies := map[string]string{
		"absent":      `{"Platforms": {"Win64": {}}}`,
		"blank":       `{"EngineRoot": "  ", "Platforms": {"Win64": {}}}`,
		"wrong type":  `{"EngineRoot": 12, "Platforms": {"Win64": {}}}`,
		"nonexistent": `{"EngineRoot": "/nowhere", "Platforms": {"Win64": {}}}`,
		"no RunUAT":   `{"EngineRoot": "/ue", "Platforms": {"Win64": {}}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			host := engineHost()
			if name == "no RunUAT" {
				host = fakeHost("linux", "/ue")
			}
			res := Config(parse(t, body), cfgPath, host)

			assert.False(t, res.OK())
			require.Len(t, res.Errors, 1)
			assert.Equal(t, 1, countMentioning(res.Errors, "EngineRoot"))
		})
	}
}

func TestRunUATFlavorFollowsHost(t *testing.T) {
	cfg := parse(t, `{"EngineRoot": "/ue", "Platforms": {"Win64": {}}}`)

	res := Config(cfg, cfgPath, fakeHost("windows", "/ue", uat.RunUATPath("/ue", "linux")))
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "RunUAT.bat")

	res = Config(cfg, cfgPath, fakeHost("windows", "/ue", uat.RunUATPath("/ue", "windows")))
	assert.True(t, res.OK())
}

func TestUBACoordinatorRequired(t *testing.T) {
	for _, body := range []string{
		`{"EngineRoot": "/ue", "UBA": {"Enabled": true}}`,
		`{"EngineRoot": "/ue", "UBA": {"Enabled": true, "CoordinatorIP": ""}}`,
		`{"EngineRoot": "/ue", "UBA": {"Enabled": true, "CoordinatorIP": "   "}}`,
		`{"EngineRoot": "/ue", "UBA": {"Enabled": true, "CoordinatorIP": 10}}`,
	} {
		res := Config(parse(t, body), cfgPath, engineHost())
		assert.False(t, res.OK(), body)
		assert.Equal(t, 1, countMentioning(res.Errors, "UBA.CoordinatorIP"), body)
	}

	res := Config(parse(t, `{"EngineRoot": "/ue", "UBA": {"Enabled": true, "CoordinatorIP": "10.1.1.1"}}`), cfgPath, engineHost())
	assert.Zero(t, countMentioning(res.Errors, "UBA.CoordinatorIP"))

	// The coordinator check is independent of other failures.
	res = Config(parse(t, `{"UBA": {"Enabled": true, "CoordinatorIP": "10.1.1.1"}, "UAT": {"ExtraArgs": 1}}`), cfgPath, engineHost())
	assert.Zero(t, countMentioning(res.Errors, "UBA.CoordinatorIP"))
}

func TestUBADisabledSkipsChecks(t *testing.T) {
	res := Config(parse(t, `{"EngineRoot": "/ue", "Platforms": {"A": {}}, "UBA": {"Enabled": false}}`), cfgPath, engineHost())
	assert.True(t, res.OK())
	assert.Empty(t, res.Warnings)

	res = Config(parse(t, `{"EngineRoot": "/ue", "Platforms": {"A": {}}, "UBA": {"Enabled": "true"}}`), cfgPath, engineHost())
	assert.True(t, res.OK(), "a non-boolean Enabled counts as off")
}

func TestUBAWarnsOffWindows(t *testing.T) {
	body := `{"EngineRoot": "/ue", "Platforms": {"Win64": {}}, "UBA": {"Enabled": true, "CoordinatorIP": "10.0.0.1"}}`

	res := Config(parse(t, body), cfgPath, engineHost())
	assert.True(t, res.OK(), "the host warning never blocks")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Windows-only")

	winHost := fakeHost("windows", "/ue", uat.RunUATPath("/ue", "windows"))
	res = Config(parse(t, body), cfgPath, winHost)
	assert.Empty(t, res.Warnings)
}

func TestEmptyPlatformsWarns(t *testing.T) {
	for _, body := range []string{
		`{"EngineRoot": "/ue"}`,
		`{"EngineRoot": "/ue", "Platforms": {}}`,
		`{"EngineRoot": "/ue", "Platforms": "Win64"}`,
	} {
		res := Config(parse(t, body), cfgPath, engineHost())
		assert.True(t, res.OK(), body)
		assert.Equal(t, 1, countMentioning(res.Warnings, "Platforms is empty"), body)
	}
}

func TestShapeErrors(t *testing.T) {
	res := Config(parse(t, `{
		"EngineRoot": "/ue",
		"ProjectName": 5,
		"ArtifactsDir": true,
		"SharedDDC": [],
		"Platforms": {"Win64": {}},
		"UAT": {"ExtraArgs": {"a": 1}}
	}`), cfgPath, engineHost())

	assert.Equal(t, []string{
		cfgPath + ": ProjectName must be a string if provided",
		cfgPath + ": ArtifactsDir must be a string if provided",
		cfgPath + ": SharedDDC must be a string if provided",
		cfgPath + ": UAT.ExtraArgs must be an array of strings",
	}, res.Errors)
}

func TestExtraArgsWithNonStringsIsAnError(t *testing.T) {
	res := Config(parse(t, `{"EngineRoot": "/ue", "UAT": {"ExtraArgs": ["-a", 2]}}`), cfgPath, engineHost())
	assert.Equal(t, 1, countMentioning(res.Errors, "UAT.ExtraArgs"))

	res = Config(parse(t, `{"EngineRoot": "/ue", "UAT": {"ExtraArgs": null}}`), cfgPath, engineHost())
	assert.True(t, res.OK())
}

func TestErrorsAccumulateAndArePrefixed(t *testing.T) {
	res := Config(parse(t, `{"ProjectName": 1, "UBA": {"Enabled": true}, "UAT": {"ExtraArgs": 1}}`), cfgPath, fakeHost("linux"))

	require.Len(t, res.Errors, 4)
	for _, e := range append(res.Errors, res.Warnings...) {
		assert.True(t, strings.HasPrefix(e, cfgPath+": "), e)
	}
	assert.Len(t, res.Warnings, 2)
}

func TestValidationIsRepeatable(t *testing.T) {
	cfg := parse(t, `{"UBA": {"Enabled": true}}`)
	host := engineHost()

	assert.Equal(t, Config(cfg, cfgPath, host), Config(cfg, cfgPath, host))
}

func TestProjectRootMustExist(t *testing.T) {
	res := Config(parse(t, `{"EngineRoot": "/ue", "ProjectRoot": "/gone", "Platforms": {"A": {}}}`), cfgPath, engineHost())
	assert.Equal(t, []string{cfgPath + ": ProjectRoot does not exist: /gone"}, res.Errors)

	res = Config(parse(t, `{"EngineRoot": "/ue", "ProjectRoot": "/proj", "Platforms": {"A": {}}}`), cfgPath, engineHost("/proj"))
	assert.True(t, res.OK())
}

func TestLocalHostChecksRealFilesystem(t *testing.T) {
	engine := t.TempDir()
	script := uat.RunUATPath(engine, LocalHost().GOOS)
	require.NoError(t, os.MkdirAll(filepath.Dir(script), 0o755))
	require.NoError(t, os.WriteFile(script, nil, 0o755))

	body := `{"EngineRoot": "` + filepath.ToSlash(engine) + `", "Platforms": {"Win64": {}}}`
	res := Config(parse(t, body), cfgPath, LocalHost())
	assert.True(t, res.OK(), "errors: %v", res.Errors)
}
