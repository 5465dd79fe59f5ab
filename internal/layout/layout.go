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

// Package layout resolves the on-disk locations the build SDK relies on.
//
// The SDK is installed as <ProjectRoot>/Build, with the uebuild binary either
// directly inside it or in one of its tool subdirectories:
//
//	<ProjectRoot>/
//	  Build/                      build root
//	    Tools/uebuild
//	    Hooks/PreBuild.py
//	    Templates/BuildConfig.template.json
//	  Config/BuildSystem/BuildConfig.json
//	  MyGame.uproject
package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName    = "Config"
	buildSystemDir   = "BuildSystem"
	configFileName   = "BuildConfig.json"
	templateFileName = "BuildConfig.template.json"
)

// toolDirs are build root subdirectories the binary may live in.
var toolDirs = map[string]bool{
	"Scripts":   true,
	"Tools":     true,
	"Templates": true,
	"Hooks":     true,
	"Docs":      true,
	"Extras":    true,
	"bin":       true,
}

// BuildRoot returns the build root for a binary located at exe.
func BuildRoot(exe string) string {
	dir := filepath.Dir(filepath.Clean(exe))
	if toolDirs[filepath.Base(dir)] {
		return filepath.Dir(dir)
	}
	return dir
}

// DetectBuildRoot derives the build root from the running executable.
func DetectBuildRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return BuildRoot(exe), nil
}

// ProjectRoot returns the project that contains buildRoot.
func ProjectRoot(buildRoot string) string {
	return filepath.Dir(filepath.Clean(buildRoot))
}

// DefaultConfigPath returns <ProjectRoot>/Config/BuildSystem/BuildConfig.json.
func DefaultConfigPath(buildRoot string) string {
	return filepath.Join(ProjectRoot(buildRoot), configDirName, buildSystemDir, configFileName)
}

// HooksDir returns the directory lifecycle hooks are discovered in.
func HooksDir(buildRoot string) string {
	return filepath.Join(buildRoot, "Hooks")
}

// TemplatePath returns the config template shipped with the SDK.
func TemplatePath(buildRoot string) string {
	return filepath.Join(buildRoot, "Templates", templateFileName)
}

// ConfigProjectRoot returns the project root when configPath follows the
// canonical <ProjectRoot>/Config/BuildSystem/<file>.json layout.
func ConfigProjectRoot(configPath string) (string, bool) {
	dir := filepath.Dir(filepath.Clean(configPath))
	if filepath.Base(dir) != buildSystemDir {
		return "", false
	}
	parent := filepath.Dir(dir)
	if filepath.Base(parent) != configDirName {
		return "", false
	}
	return filepath.Dir(parent), true
}
