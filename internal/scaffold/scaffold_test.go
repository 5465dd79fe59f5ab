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


package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uebuild/internal/assets"
	"uebuild/internal/buildconfig"
)

func TestInitWritesTemplateFile(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "Templates", assets.ConfigTemplateName)
	require.NoError(t, os.MkdirAll(filepath.Dir(tmpl), 0o755))
	require.NoError(t, os.WriteFile(tmpl, []byte(`{"EngineRoot": "/ue"}`), 0o644))

	cfgPath := filepath.Join(dir, "Config", "BuildSystem", "BuildConfig.json")
	out, err := Init(cfgPath, tmpl, false)
	require.NoError(t, err)
	assert.True(t, out.Written)
	assert.Equal(t, tmpl, out.Source)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"EngineRoot": "/ue"}`, string(data))
}

func TestInitLeavesExistingConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "BuildConfig.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"mine": true}`), 0o644))

	out, err := Init(cfgPath, "", false)
	require.NoError(t, err)
	assert.False(t, out.Written)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, `{"mine": true}`, string(data))
}

func TestInitForceOverwrites(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "BuildConfig.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"mine": true}`), 0o644))

	out, err := Init(cfgPath, filepath.Join(t.TempDir(), "missing.json"), true)
	require.NoError(t, err)
	assert.True(t, out.Written)
	assert.Equal(t, "embedded", out.Source)

	cfg, err := buildconfig.Load(cfgPath)
	require.NoError(t, err)
	assert.True(t, cfg.EngineRoot.NonBlank(), "embedded template sets EngineRoot")
}
