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

import (
	"context"
	"time"

	"uebuild/internal/orchestrator"
)

// Recorder adapts a Store to the orchestrator's recording hooks.
type Recorder struct {
	Store *Store
	// Now defaults to time.Now.
	Now func() time.Time
}

var _ orchestrator.Recorder = (*Recorder)(nil)

// BuildStarted inserts a running build.
func (r *Recorder) BuildStarted(ctx context.Context, run orchestrator.Run) error {
	return r.Store.InsertBuild(ctx, &Build{
		ID:           run.ID,
		Platform:     run.Platform,
		ClientConfig: run.ClientConfig,
		ConfigPath:   run.ConfigPath,
		ConfigDigest: run.ConfigDigest,
		Command:      run.Command,
		Status:       StatusRunning,
		StartedAt:    run.StartedAt,
	})
}

// StageFinished appends a stage event.
func (r *Recorder) StageFinished(ctx context.Context, runID, stage string, exitCode int, elapsed time.Duration) error {
	return r.Store.AppendBuildEvent(ctx, Event{
		BuildID:  runID,
		Time:     r.now(),
		Stage:    stage,
		ExitCode: exitCode,
		Elapsed:  elapsed,
	})
}

// BuildFinished marks the build succeeded or failed.
func (r *Recorder) BuildFinished(ctx context.Context, runID string, succeeded bool, failedStage string, exitCode int) error {
	status := StatusSucceeded
	if !succeeded {
		status = StatusFailed
	}
	return r.Store.FinishBuild(ctx, runID, status, failedStage, exitCode, r.now())
}

func (r *Recorder) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
