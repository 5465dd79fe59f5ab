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
	"uebuild/internal/scaffold"
)

func (a *app) initCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create BuildConfig.json from the template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.resolvePaths()
			if err != nil {
				return err
			}
			out, err := scaffold.Init(p.ConfigPath, layout.TemplatePath(p.BuildRoot), force)
			if err != nil {
				return err
			}
			if !out.Written {
				a.console.OK("Config exists: " + out.Path)
				return nil
			}
			a.logger.Debug("config written", "path", out.Path, "template", out.Source)
			a.console.OK("Wrote config: " + out.Path)
			a.console.Next("Edit BuildConfig.json and run: uebuild doctor")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}
