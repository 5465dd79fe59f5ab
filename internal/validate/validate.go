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

// Package validate checks a build config against the host before anything
// expensive runs. Every rule is evaluated; problems accumulate rather than
// stopping at the first one.
package validate

import (
	"io/fs"
	"os"
	"runtime"

	"uebuild/internal/buildconfig"
	"uebuild/internal/uat"
)

// Host describes the machine the config is validated against.
type Host struct {
	GOOS string
	Stat func(name string) (fs.FileInfo, error)
}

// LocalHost returns the Host for the running process.
func LocalHost() Host {
	return Host{GOOS: runtime.GOOS, Stat: os.Stat}
}

func (h Host) exists(path string) bool {
	stat := h.Stat
	if stat == nil {
		stat = os.Stat
	}
	_, err := stat(path)
	return err == nil
}

// Result holds blocking errors and advisory warnings in the order found.
type Result struct {
	Errors   []string
	Warnings []string
}

// OK reports whether there are no errors. Warnings never block.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Config validates cfg. Messages are prefixed with configPath.
func Config(cfg buildconfig.Config, configPath string, host Host) Result {
	var errs, warns []string

	switch {
	case !cfg.EngineRoot.NonBlank():
		errs = append(errs, "EngineRoot is required (string)")
	case !host.exists(cfg.EngineRoot.Value):
		errs = append(errs, "EngineRoot does not exist: "+cfg.EngineRoot.Value)
	default:
		script := uat.RunUATPath(cfg.EngineRoot.Value, host.GOOS)
		if !host.exists(script) {
			errs = append(errs, "RunUAT not found under EngineRoot: "+script)
		}
	}

	if cfg.ProjectName.Present && !cfg.ProjectName.Valid {
		errs = append(errs, "ProjectName must be a string if provided")
	}

	if cfg.ProjectRoot.Present {
		switch {
		case !cfg.ProjectRoot.Valid:
			errs = append(errs, "ProjectRoot must be a string if provided")
		case cfg.ProjectRoot.NonBlank() && !host.exists(cfg.ProjectRoot.Value):
			errs = append(errs, "ProjectRoot does not exist: "+cfg.ProjectRoot.Value)
		}
	}
	if cfg.ArtifactsDir.Present && !cfg.ArtifactsDir.Valid {
		errs = append(errs, "ArtifactsDir must be a string if provided")
	}
	if cfg.SharedDDC.Present && !cfg.SharedDDC.Valid {
		errs = append(errs, "SharedDDC must be a string if provided")
	}

	if cfg.UBA.On() {
		if !cfg.UBA.CoordinatorIP.NonBlank() {
			errs = append(errs, "UBA.Enabled is true but UBA.CoordinatorIP is missing")
		}
		if host.GOOS != "windows" {
			warns = append(warns, "UBA is typically Windows-only; current host is non-Windows")
		}
	}

	if len(cfg.Platforms) == 0 {
		warns = append(warns, "Platforms is empty; build will still work but per-platform settings are unavailable")
	}

	if cfg.UAT.ExtraArgs.Present && !cfg.UAT.ExtraArgs.Valid {
		errs = append(errs, "UAT.ExtraArgs must be an array of strings")
	}

	return Result{
		Errors:   prefix(configPath, errs),
		Warnings: prefix(configPath, warns),
	}
}

func prefix(configPath string, msgs []string) []string {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = configPath + ": " + m
	}
	return out
}
