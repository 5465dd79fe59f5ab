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


package history

import "time"

// Status is the lifecycle state of a recorded build:
// running → {succeeded|failed}.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Valid reports whether the status is one of the allowed states.
func (s Status) Valid() bool {
	switch s {
	case StatusRunning, StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are expected.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

func (s Status) String() string { return string(s) }

// Build is one recorded orchestration run. Fields align with the "builds"
// table.
type Build struct {
	ID           string     `json:"id" yaml:"id"`
	Platform     string     `json:"platform" yaml:"platform"`
	ClientConfig string     `json:"client_config" yaml:"client_config"`
	ConfigPath   string     `json:"config_path" yaml:"config_path"`
	ConfigDigest string     `json:"config_digest" yaml:"config_digest"`
	Command      string     `json:"command" yaml:"command"`
	Status       Status     `json:"status" yaml:"status"`
	FailedStage  *string    `json:"failed_stage,omitempty" yaml:"failed_stage,omitempty"`
	ExitCode     *int       `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	StartedAt    time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Duration returns how long the build ran, or zero while it is running.
func (b Build) Duration() time.Duration {
	if b.FinishedAt == nil {
		return 0
	}
	return b.FinishedAt.Sub(b.StartedAt)
}

// Event is a completed pipeline stage of a build.
type Event struct {
	ID       int64         `json:"id" yaml:"id"`
	BuildID  string        `json:"build_id" yaml:"build_id"`
	Time     time.Time     `json:"time" yaml:"time"`
	Stage    string        `json:"stage" yaml:"stage"`
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
}
