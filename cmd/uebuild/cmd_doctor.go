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

package main

import (
	"github.com/spf13/cobra"

	"uebuild/internal/layout"
	"uebuild/internal/uat"
	"uebuild/internal/validate"
)

func (a *app) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate the config and environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.resolvePaths()
			if err != nil {
				return err
			}
			projectRoot, ok := layout.ConfigProjectRoot(p.ConfigPath)
			if !ok {
				projectRoot = layout.ProjectRoot(p.BuildRoot)
			}
			a.console.Info("ProjectRoot: " + projectRoot)
			a.console.Info("BuildRoot:   " + p.BuildRoot)
			a.console.Info("ConfigPath:  " + p.ConfigPath)

			cfg, err := a.loadConfig(p.ConfigPath)
			if err != nil {
				return err
			}

			res := validate.Config(cfg, p.ConfigPath, a.host())
			for _, w := range res.Warnings {
				a.console.Warn(w)
			}
			for _, e := range res.Errors {
				a.console.Error(e)
			}
			if !res.OK() {
				return exitCode(exitCodeConfig)
			}

			// A project that cannot be resolved fails at build time; surface
			// it here without failing the check.
			if root, err := uat.ResolveProjectRoot(cfg, p.ConfigPath, p.BuildRoot); err != nil {
				a.console.Warn(err.Error())
			} else if project, err := uat.FindProjectFile(root, uat.ProjectName(cfg)); err != nil {
				a.console.Warn(err.Error())
			} else {
				a.console.Info("Project:     " + project)
			}

			a.console.OK("doctor passed")
			return nil
		},
	}
}
