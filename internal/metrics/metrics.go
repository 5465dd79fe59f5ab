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


// Package metrics collects build timings and outcomes in a private
// Prometheus registry. A CLI run has no scrape endpoint, so the registry is
// written out in the node_exporter textfile format instead.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu  sync.RWMutex
	reg *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageResults  *prometheus.CounterVec
	buildsTotal   *prometheus.CounterVec
	lastBuild     *prometheus.GaugeVec
)

func init() {
	resetLocked()
}

// Reset clears and reinitializes all metrics collectors.
// Primarily used by tests to ensure clean state.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	resetLocked()
}

// Gatherer returns the registry holding the build metrics.
func Gatherer() prometheus.Gatherer {
	mu.RLock()
	defer mu.RUnlock()
	return reg
}

// ObserveStage records the duration and exit code of one pipeline stage.
func ObserveStage(stage string, exitCode int, duration time.Duration) {
	labelStage := sanitizeLabel(stage, "unknown")

	mu.RLock()
	defer mu.RUnlock()
	if stageDuration != nil {
		stageDuration.WithLabelValues(labelStage).Observe(durationSeconds(duration))
	}
	if stageResults != nil {
		stageResults.WithLabelValues(labelStage, strconv.Itoa(exitCode)).Inc()
	}
}

// ObserveBuild records the outcome of a whole build.
func ObserveBuild(platform string, succeeded bool) {
	labelPlatform := sanitizeLabel(platform, "unknown")
	outcome := "failed"
	if succeeded {
		outcome = "succeeded"
	}

	mu.RLock()
	defer mu.RUnlock()
	if buildsTotal != nil {
		buildsTotal.WithLabelValues(labelPlatform, outcome).Inc()
	}
	if lastBuild != nil {
		lastBuild.WithLabelValues(labelPlatform, outcome).SetToCurrentTime()
	}
}

// Observer forwards orchestrator measurements to the package collectors.
type Observer struct{}

func (Observer) ObserveStage(stage string, exitCode int, elapsed time.Duration) {
	ObserveStage(stage, exitCode, elapsed)
}

func (Observer) ObserveBuild(platform string, succeeded bool) {
	ObserveBuild(platform, succeeded)
}

// WriteTextfile writes the current metrics to path atomically, creating the
// parent directory if needed.
func WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, Gatherer()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func resetLocked() {
	registry := prometheus.NewRegistry()

	stageHist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "uebuild",
		Name:      "stage_duration_seconds",
		Help:      "Duration of build pipeline stages (hooks and the RunUAT run).",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200},
	}, []string{"stage"})

	stageTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uebuild",
		Name:      "stage_results_total",
		Help:      "Completed pipeline stages grouped by stage and exit code.",
	}, []string{"stage", "code"})

	builds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uebuild",
		Name:      "builds_total",
		Help:      "Builds grouped by platform and outcome.",
	}, []string{"platform", "outcome"})

	last := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "uebuild",
		Name:      "last_build_timestamp_seconds",
		Help:      "Unix time of the most recent build by platform and outcome.",
	}, []string{"platform", "outcome"})

	registry.MustRegister(stageHist, stageTotal, builds, last)

	reg = registry
	stageDuration = stageHist
	stageResults = stageTotal
	buildsTotal = builds
	lastBuild = last
}

func sanitizeLabel(v string, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	var b strings.Builder
	for _, r := range v {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ':' || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func durationSeconds(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return d.Seconds()
}
