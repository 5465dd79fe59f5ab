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

package uat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"uebuild/internal/buildconfig"
	"uebuild/internal/layout"
	"uebuild/internal/plan"
)

// Request carries the per-invocation inputs that are not part of the config.
type Request struct {
	// ConfigPath is the resolved path of the loaded config.
	ConfigPath string
	// Platform is the target platform as given by the caller (e.g. Win64).
	Platform string
	// ClientConfig is the build configuration name (Development, Shipping).
	ClientConfig string
	// ExtraArgs are caller-supplied RunUAT arguments appended last.
	ExtraArgs []string
	// BaseEnv is the inherited environment the command starts from.
	BaseEnv plan.Env
	// GOOS selects the RunUAT script flavor.
	GOOS string
	// BuildRoot locates the project when the config lives outside the
	// canonical Config/BuildSystem directory.
	BuildRoot string
}

// Build resolves the RunUAT BuildCookRun command for cfg. The config is
// expected to have passed validation; Build only fails for problems that
// validation cannot see, such as a missing or ambiguous project file.
func Build(cfg buildconfig.Config, req Request) (plan.Command, error) {
	if !cfg.EngineRoot.NonBlank() {
		return plan.Command{}, configErrorf("EngineRoot is required (string)")
	}
	if strings.TrimSpace(req.Platform) == "" {
		return plan.Command{}, configErrorf("platform is required")
	}

	root, err := ResolveProjectRoot(cfg, req.ConfigPath, req.BuildRoot)
	if err != nil {
		return plan.Command{}, err
	}

	projectFile, err := FindProjectFile(root, ProjectName(cfg))
	if err != nil {
		return plan.Command{}, err
	}

	args := []string{
		Subcommand,
		"-project=" + projectFile,
		"-noP4",
		"-build",
		"-clientconfig=" + req.ClientConfig,
		"-archivedirectory=" + ArchiveDir(cfg, root, req.Platform),
	}
	args = append(args, BuildCookRunFlags(cfg.UAT.BuildCookRun)...)
	args = append(args, PlatformArgs(cfg, req.Platform)...)
	if cfg.UBA.On() {
		args = append(args, "-distributed", "-uba")
	}
	args = append(args, MergeExtraArgs(cfg, req.ExtraArgs)...)

	return plan.Command{
		Program:     RunUATPath(cfg.EngineRoot.Value, req.GOOS),
		Args:        args,
		Dir:         root,
		Env:         Environment(cfg, req.BaseEnv, req.ConfigPath),
		Description: fmt.Sprintf("%s %s %s", Subcommand, req.Platform, req.ClientConfig),
	}, nil
}

// Environment layers the shared DDC and config path variables over base.
func Environment(cfg buildconfig.Config, base plan.Env, configPath string) plan.Env {
	env := base
	if cfg.SharedDDC.NonBlank() {
		env = env.With(EnvSharedDDCLegacy, cfg.SharedDDC.Value).
			With(EnvSharedDDC, cfg.SharedDDC.Value)
	}
	return env.With(EnvConfigPath, configPath)
}

// ResolveProjectRoot picks the project directory: an explicit ProjectRoot
// setting, then the canonical config location, then the parent of buildRoot.
func ResolveProjectRoot(cfg buildconfig.Config, configPath, buildRoot string) (string, error) {
	var root string
	switch {
	case cfg.ProjectRoot.NonBlank():
		root = strings.TrimSpace(cfg.ProjectRoot.Value)
	default:
		if r, ok := layout.ConfigProjectRoot(configPath); ok {
			root = r
		} else if strings.TrimSpace(buildRoot) != "" {
			root = layout.ProjectRoot(buildRoot)
		} else {
			return "", configErrorf("cannot infer project root from %s; set ProjectRoot in the config", configPath)
		}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve project root %s: %w", root, err)
	}
	return abs, nil
}

// FindProjectFile locates the .uproject under root. A non-empty projectName
// must name an existing file; otherwise exactly one .uproject must exist.
func FindProjectFile(root, projectName string) (string, error) {
	if projectName != "" {
		candidate := filepath.Join(root, projectName+projectExt)
		if _, err := os.Stat(candidate); err != nil {
			return "", configErrorf("ProjectName %q does not match a project file: %s", projectName, candidate)
		}
		return candidate, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("list %s: %w", root, err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), projectExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	switch len(names) {
	case 1:
		return filepath.Join(root, names[0]), nil
	case 0:
		return "", configErrorf("No %s file found under %s", projectExt, root)
	default:
		return "", &ConfigError{
			Msg:        fmt.Sprintf("Multiple %s files found; set ProjectName in BuildConfig.json: %s", projectExt, strings.Join(names, ", ")),
			Candidates: names,
		}
	}
}

// ArchiveDir returns the per-platform archive directory: ArtifactsDir when
// set, else <root>/Saved/BuildArtifacts, with the platform appended.
func ArchiveDir(cfg buildconfig.Config, root, platform string) string {
	base := filepath.Join(root, "Saved", "BuildArtifacts")
	if cfg.ArtifactsDir.NonBlank() {
		base = strings.TrimSpace(cfg.ArtifactsDir.Value)
	}
	return filepath.Join(base, platform)
}
