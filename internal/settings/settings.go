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


// Package settings holds the tool's own configuration: where it logs, where
// it keeps history and metrics, and how it locates hooks. It is distinct from
// the build config, which describes the project being built.
package settings

import (
	"fmt"
	"os"
	"strings"
)

// Environment variable names.
const (
	EnvLogLevel    = "UEBUILD_LOG_LEVEL"
	EnvLogFormat   = "UEBUILD_LOG_FORMAT"
	EnvHistoryDB   = "UEBUILD_HISTORY_DB"
	EnvMetricsFile = "UEBUILD_METRICS_FILE"
	EnvPython      = "UEBUILD_PYTHON"
	EnvBuildRoot   = "UEBUILD_BUILD_ROOT"
	EnvHooksDir    = "UEBUILD_HOOKS_DIR"
)

// Settings configures the uebuild process.
type Settings struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFormat is text or json.
	LogFormat string

	// HistoryDB is the SQLite file for build history. Empty disables history.
	HistoryDB string

	// MetricsFile receives Prometheus textfile output after each build.
	// Empty disables metrics export.
	MetricsFile string

	// Python is the interpreter for .py hooks. Empty selects the host default.
	Python string

	// BuildRoot overrides the directory detected from the executable.
	BuildRoot string

	// HooksDir overrides <BuildRoot>/Hooks.
	HooksDir string
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// FromEnv loads settings from the process environment.
func FromEnv() (Settings, error) {
	return Load(os.Getenv)
}

// Load applies environment overrides from getenv on top of the defaults.
func Load(getenv func(string) string) (Settings, error) {
	s := Default()

	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		s.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvLogFormat)); v != "" {
		s.LogFormat = strings.ToLower(v)
	}
	if v := getenv(EnvHistoryDB); v != "" {
		s.HistoryDB = v
	}
	if v := getenv(EnvMetricsFile); v != "" {
		s.MetricsFile = v
	}
	if v := getenv(EnvPython); v != "" {
		s.Python = v
	}
	if v := getenv(EnvBuildRoot); v != "" {
		s.BuildRoot = v
	}
	if v := getenv(EnvHooksDir); v != "" {
		s.HooksDir = v
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks the settings for consistency.
func (s Settings) Validate() error {
	switch s.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%s must be one of debug, info, warn, error; got %q", EnvLogLevel, s.LogLevel)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%s must be text or json; got %q", EnvLogFormat, s.LogFormat)
	}
	if s.HistoryDB != "" && strings.HasSuffix(s.HistoryDB, string(os.PathSeparator)) {
		return fmt.Errorf("%s must name a file, not a directory: %s", EnvHistoryDB, s.HistoryDB)
	}
	return nil
}
