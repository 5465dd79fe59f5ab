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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"uebuild/internal/hooks"
	"uebuild/internal/plan"
	"uebuild/internal/runner"
	"uebuild/internal/uat"
	"uebuild/internal/validate"
)

// planStep is one process the build would start, in order.
type planStep struct {
	Stage     string `json:"stage" yaml:"stage"`
	plan.View `yaml:",inline"`
}

func (a *app) planCommand() *cobra.Command {
	var (
		flags  buildFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the hook and RunUAT commands a build would run",
		Long: `plan validates the config and resolves the same commands build would run,
without executing anything. Output is one shell line per step, or the full
steps including working directory and added environment as JSON or YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch output {
			case "shell", "json", "yaml":
			default:
				return &exitError{code: exitCodeConfig, err: fmt.Errorf("unknown output format %q", output)}
			}

			p, err := a.resolvePaths()
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig(p.ConfigPath)
			if err != nil {
				return err
			}
			res := validate.Config(cfg, p.ConfigPath, a.host())
			for _, w := range res.Warnings {
				a.logger.Warn(w)
			}
			if !res.OK() {
				for _, e := range res.Errors {
					a.logger.Error(e)
				}
				return exitCode(exitCodeConfig)
			}

			uatCmd, err := uat.Build(cfg, uat.Request{
				ConfigPath:   p.ConfigPath,
				Platform:     flags.platform,
				ClientConfig: flags.config,
				ExtraArgs:    flags.extra,
				BaseEnv:      plan.EnvFrom(os.Environ()),
				GOOS:         a.goos,
				BuildRoot:    p.BuildRoot,
			})
			if err != nil {
				return &exitError{code: exitCodeConfig, err: err}
			}

			exec := &runner.Runner{GOOS: a.goos}
			hr := a.hookRunner(exec)
			var steps []planStep
			add := func(stage string, c plan.Command) {
				steps = append(steps, planStep{Stage: stage, View: exec.Resolve(c).View()})
			}
			if script, ok := hr.Find(hooks.PreBuild, p.HooksDir); ok {
				add(string(hooks.PreBuild), hr.Command(script, p.HooksDir, uatCmd.Env))
			}
			add("RunUAT", uatCmd)
			if script, ok := hr.Find(hooks.PostBuild, p.HooksDir); ok {
				add(string(hooks.PostBuild), hr.Command(script, p.HooksDir, uatCmd.Env))
			}
			return a.writePlan(output, steps)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&output, "output", "shell", "output format: shell, json or yaml")
	return cmd
}

func (a *app) writePlan(output string, steps []planStep) error {
	switch output {
	case "json":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(steps); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(steps); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		for _, s := range steps {
			fmt.Fprintln(a.stdout, s.Shell)
		}
	}
	return nil
}
