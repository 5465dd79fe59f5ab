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
)

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "uebuild",
		Short: "Configuration-driven Unreal Engine build orchestrator",
		Long: `uebuild reads Config/BuildSystem/BuildConfig.json, validates the engine
install and project against it, and runs RunUAT BuildCookRun with optional
PreBuild and PostBuild hooks from the build root's Hooks directory.

Exit codes: 0 on success, 2 for configuration and validation problems,
otherwise the exit code of the failing hook or RunUAT run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config-path", "", "override BuildConfig.json path")
	pf.StringVar(&a.jsonConfig, "json_config", "", "alias of --config-path")
	_ = pf.MarkHidden("json_config")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (env UEBUILD_LOG_LEVEL)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json (env UEBUILD_LOG_FORMAT)")
	pf.StringVar(&a.historyDB, "history-db", "", "SQLite file for build history (env UEBUILD_HISTORY_DB)")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "Prometheus textfile written after each build (env UEBUILD_METRICS_FILE)")

	root.AddCommand(
		a.initCommand(),
		a.doctorCommand(),
		a.buildCommand(),
		a.planCommand(),
		a.injectUBACommand(),
		a.historyCommand(),
	)
	return root
}
