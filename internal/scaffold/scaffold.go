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


// Package scaffold creates a starting build config for a project.
package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"uebuild/internal/assets"
)

// Outcome describes what Init did.
type Outcome struct {
	// Path is the config path that was checked or written.
	Path string
	// Written is false when an existing config was left untouched.
	Written bool
	// Source is the template file copied, or "embedded".
	Source string
}

// Init copies the build config template to configPath. An existing config
// is left alone unless force is set. templatePath is preferred when it
// exists; otherwise the template built into the binary is used.
func Init(configPath, templatePath string, force bool) (Outcome, error) {
	out := Outcome{Path: configPath}

	if _, err := os.Stat(configPath); err == nil && !force {
		return out, nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return out, fmt.Errorf("stat %s: %w", configPath, err)
	}

	data, source, err := readTemplate(templatePath)
	if err != nil {
		return out, err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return out, fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return out, fmt.Errorf("write config: %w", err)
	}
	out.Written = true
	out.Source = source
	return out, nil
}

func readTemplate(path string) ([]byte, string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("read template: %w", err)
		}
	}
	return assets.ConfigTemplate(), "embedded", nil
}
