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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"uebuild/internal/history"
)

func (a *app) historyCommand() *cobra.Command {
	var (
		limit    int
		platform string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded builds, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withHistory(cmd.Context(), func(store *history.Store) error {
				builds, err := store.ListBuilds(cmd.Context(), platform, limit)
				if err != nil {
					return err
				}
				return a.writeRecords(output, builds, func() string { return buildsTable(builds) })
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", history.DefaultListLimit, "maximum number of builds to list")
	cmd.Flags().StringVar(&platform, "platform", "", "only list builds for this platform")
	cmd.PersistentFlags().StringVar(&output, "output", "table", "output format: table, json or yaml")
	cmd.AddCommand(a.historyShowCommand(&output))
	return cmd
}

// buildDetail is a build together with its stage events.
type buildDetail struct {
	history.Build `yaml:",inline"`
	Events        []history.Event `json:"events" yaml:"events"`
}

func (a *app) historyShowCommand(output *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <build-id>",
		Short: "Show one recorded build and its stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withHistory(cmd.Context(), func(store *history.Store) error {
				b, err := store.GetBuild(cmd.Context(), args[0])
				if errors.Is(err, history.ErrNotFound) {
					return &exitError{code: 1, err: fmt.Errorf("build %s not found", args[0])}
				}
				if err != nil {
					return err
				}
				events, err := store.ListBuildEvents(cmd.Context(), b.ID)
				if err != nil {
					return err
				}
				detail := buildDetail{Build: *b, Events: events}
				return a.writeRecords(*output, detail, func() string { return detailText(detail) })
			})
		},
	}
}

func (a *app) withHistory(ctx context.Context, fn func(*history.Store) error) error {
	if a.settings.HistoryDB == "" {
		return &exitError{code: exitCodeConfig, err: errors.New("build history is disabled; set UEBUILD_HISTORY_DB or --history-db")}
	}
	path, err := a.absPath(a.settings.HistoryDB)
	if err != nil {
		return err
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func (a *app) writeRecords(output string, v any, text func() string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		fmt.Fprintln(a.stdout, text())
		return nil
	default:
		return &exitError{code: exitCodeConfig, err: fmt.Errorf("unknown output format %q", output)}
	}
}

func buildsTable(builds []*history.Build) string {
	t := table.New().Headers("ID", "STARTED", "PLATFORM", "CONFIG", "STATUS", "EXIT", "DURATION")
	for _, b := range builds {
		t.Row(
			b.ID,
			b.StartedAt.Local().Format(time.DateTime),
			b.Platform,
			b.ClientConfig,
			outcome(b),
			exitText(b.ExitCode),
			durationText(b),
		)
	}
	return t.String()
}

func detailText(d buildDetail) string {
	b := &d.Build
	rows := [][]string{
		{"ID", b.ID},
		{"Platform", b.Platform},
		{"Config", b.ClientConfig},
		{"Status", outcome(b)},
		{"Exit", exitText(b.ExitCode)},
		{"Started", b.StartedAt.Local().Format(time.DateTime)},
		{"Duration", durationText(b)},
		{"ConfigPath", b.ConfigPath},
		{"Digest", b.ConfigDigest},
		{"Command", b.Command},
	}
	summary := table.New().Rows(rows...).String()

	stages := table.New().Headers("STAGE", "EXIT", "ELAPSED")
	for _, ev := range d.Events {
		stages.Row(ev.Stage, strconv.Itoa(ev.ExitCode), ev.Elapsed.Round(time.Millisecond).String())
	}
	return summary + "\n" + stages.String()
}

func outcome(b *history.Build) string {
	if b.FailedStage != nil {
		return fmt.Sprintf("%s (%s)", b.Status, *b.FailedStage)
	}
	return b.Status.String()
}

func exitText(code *int) string {
	if code == nil {
		return "-"
	}
	return strconv.Itoa(*code)
}

func durationText(b *history.Build) string {
	if b.FinishedAt == nil {
		return "-"
	}
	return b.Duration().Round(time.Second).String()
}
