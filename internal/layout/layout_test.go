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

package layout

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRoot(t *testing.T) {
	root := filepath.Join("/", "work", "Game", "Build")

	assert.Equal(t, root, BuildRoot(filepath.Join(root, "Tools", "uebuild")))
	assert.Equal(t, root, BuildRoot(filepath.Join(root, "bin", "uebuild")))
	assert.Equal(t, root, BuildRoot(filepath.Join(root, "uebuild")))
}

func TestDerivedPaths(t *testing.T) {
	root := filepath.Join("/", "work", "Game", "Build")
	project := filepath.Join("/", "work", "Game")

	assert.Equal(t, project, ProjectRoot(root))
	assert.Equal(t, filepath.Join(project, "Config", "BuildSystem", "BuildConfig.json"), DefaultConfigPath(root))
	assert.Equal(t, filepath.Join(root, "Hooks"), HooksDir(root))
	assert.Equal(t, filepath.Join(root, "Templates", "BuildConfig.template.json"), TemplatePath(root))
}

func TestConfigProjectRoot(t *testing.T) {
	project := filepath.Join("/", "work", "Game")

	got, ok := ConfigProjectRoot(filepath.Join(project, "Config", "BuildSystem", "Nightly.json"))
	assert.True(t, ok)
	assert.Equal(t, project, got)

	_, ok = ConfigProjectRoot(filepath.Join(project, "Config", "Nightly.json"))
	assert.False(t, ok)

	_, ok = ConfigProjectRoot(filepath.Join(project, "Settings", "BuildSystem", "Nightly.json"))
	assert.False(t, ok)
}
