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

	"uebuild/internal/ubaconfig"
)

func (a *app) injectUBACommand() *cobra.Command {
	var (
		forceNonWindows bool
		xmlPath         string
	)
	cmd := &cobra.Command{
		Use:   "inject-uba",
		Short: "Write the UBA coordinator into the user's BuildConfiguration.xml",
		Long: `inject-uba copies UBA.CoordinatorIP from the build config into the
UnrealBuildAccelerator section of the per-user BuildConfiguration.xml read by
UnrealBuildTool. Other settings in the file are preserved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.resolvePaths()
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig(p.ConfigPath)
			if err != nil {
				return err
			}

			if !cfg.UBA.On() {
				a.console.Info("UBA is disabled in config; nothing to inject.")
				return nil
			}
			if !cfg.UBA.CoordinatorIP.NonBlank() {
				a.console.Error("UBA.Enabled is true but UBA.CoordinatorIP is missing.")
				return exitCode(exitCodeConfig)
			}
			if a.goos != "windows" && !forceNonWindows {
				a.console.Info("Host is non-Windows; skip injection (use --force-non-windows to override).")
				return nil
			}

			path := xmlPath
			if path == "" {
				home, _ := a.homeDir()
				path, err = ubaconfig.DefaultPath(a.goos, a.getenv, home)
				if err != nil {
					return &exitError{code: exitCodeConfig, err: err}
				}
			} else if path, err = a.absPath(path); err != nil {
				return err
			}

			if err := ubaconfig.Inject(path, cfg.UBA.CoordinatorIP.Value); err != nil {
				return &exitError{code: 1, err: err}
			}
			a.logger.Info("injected UBA coordinator", "path", path, "coordinator", cfg.UBA.CoordinatorIP.Value)
			a.console.OK("Updated: " + path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&forceNonWindows, "force-non-windows", false, "inject even when the host is not Windows")
	cmd.Flags().StringVar(&xmlPath, "xml-path", "", "BuildConfiguration.xml to update (default: per-user location)")
	return cmd
}
