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

// Package uat plans RunUAT BuildCookRun invocations from a build config.
package uat

import (
	"fmt"
	"path/filepath"
	"strings"

	"uebuild/internal/buildconfig"
)

const (
	// Subcommand is the RunUAT command every plan invokes.
	Subcommand = "BuildCookRun"

	// EnvSharedDDCLegacy and EnvSharedDDC point the engine at a shared
	// derived data cache. Older engine versions read the legacy name.
	EnvSharedDDCLegacy = "UE-SharedDataCachePath"
	EnvSharedDDC       = "UE_SHARED_DDC"

	// EnvConfigPath carries the resolved config path to hooks and tools.
	EnvConfigPath = "UE_BUILD_CONFIG_PATH"

	projectExt = ".uproject"
)

// ConfigError reports a config that validated but cannot produce a command,
// such as an ambiguous or missing project file.
type ConfigError struct {
	Msg string
	// Candidates lists the project files found when more than one matched.
	Candidates []string
}

func (e *ConfigError) Error() string { return e.Msg }

func configErrorf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// RunUATPath returns the RunUAT script under engineRoot for the given host OS.
func RunUATPath(engineRoot, goos string) string {
	script := "RunUAT.sh"
	if goos == "windows" {
		script = "RunUAT.bat"
	}
	return filepath.Join(engineRoot, "Engine", "Build", "BatchFiles", script)
}

// BuildCookRunFlags returns the enabled step flags in the fixed order
// cook, stage, package, archive, pak. Steps are opt-out: an absent or
// non-boolean setting counts as enabled.
func BuildCookRunFlags(bcr buildconfig.BuildCookRun) []string {
	steps := []struct {
		on   buildconfig.Bool
		flag string
	}{
		{bcr.Cook, "-cook"},
		{bcr.Stage, "-stage"},
		{bcr.Package, "-package"},
		{bcr.Archive, "-archive"},
		{bcr.Pak, "-pak"},
	}
	flags := make([]string, 0, len(steps))
	for _, s := range steps {
		if s.on.Or(true) {
			flags = append(flags, s.flag)
		}
	}
	return flags
}

// PlatformFlag maps a platform name to its -platform= flag. Known aliases are
// canonicalized; anything else is passed through unchanged.
func PlatformFlag(platform string) string {
	switch strings.ToUpper(platform) {
	case "WIN64", "WINDOWS":
		return "-platform=Win64"
	case "ANDROID":
		return "-platform=Android"
	case "IOS", "IOSSIMULATOR":
		return "-platform=IOS"
	default:
		return "-platform=" + platform
	}
}

// PlatformArgs returns the platform flag followed by the non-blank
// Platforms.<platform>.ExtraUATArgs entries. Many remote and mobile flags are
// engine-version specific, so anything beyond -platform belongs in config.
func PlatformArgs(cfg buildconfig.Config, platform string) []string {
	args := []string{PlatformFlag(platform)}
	if p, ok := cfg.Platforms[platform]; ok {
		args = append(args, p.ExtraUATArgs.NonBlank()...)
	}
	return args
}

// ProjectName returns the configured project name, or "" when it is unset or
// not a string.
func ProjectName(cfg buildconfig.Config) string {
	if cfg.ProjectName.Valid {
		return strings.TrimSpace(cfg.ProjectName.Value)
	}
	return ""
}

// MergeExtraArgs appends caller arguments to UAT.ExtraArgs, dropping blank
// entries and keeping order.
func MergeExtraArgs(cfg buildconfig.Config, extra []string) []string {
	merged := cfg.UAT.ExtraArgs.NonBlank()
	for _, arg := range extra {
		if strings.TrimSpace(arg) != "" {
			merged = append(merged, arg)
		}
	}
	return merged
}
