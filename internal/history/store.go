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


// Package history records orchestration runs in a local SQLite database so
// past builds, their outcome and per-stage timings can be listed later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultBusyTimeout = 5 * time.Second

	schemaVersionKey = "schema_version"

	// DefaultListLimit caps ListBuilds when no limit is given.
	DefaultListLimit = 20
)

var (
	// ErrNotFound indicates no rows matched the query.
	ErrNotFound = errors.New("not found")
)

// Store wraps a SQLite database connection and provides typed accessors.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at path, runs migrations, and
// returns a ready Store.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", path, int(defaultBusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One CLI process, one writer.
	db.SetMaxOpenConns(1)

	if err := pingContext(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --------------- Migrations ---------------

func (s *Store) migrate(ctx context.Context) error {
	if err := s.ensureSettingsTable(ctx); err != nil {
		return err
	}

	cur, err := s.getSchemaVersion(ctx)
	if err != nil {
		return err
	}

	if cur < 1 {
		if err := s.migrateToV1(ctx); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
		if err := s.setSchemaVersion(ctx, 1); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensureSettingsTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS settings (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) getSchemaVersion(ctx context.Context) (int, error) {
	const q = `SELECT value FROM settings WHERE key=?`
	var val string
	err := s.db.QueryRowContext(ctx, q, schemaVersionKey).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	var v int
	if _, err := fmt.Sscanf(val, "%d", &v); err != nil {
		return 0, nil
	}
	return v, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, v int) error {
	const upsert = `
INSERT INTO settings(key, value) VALUES(?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value;`
	if _, err := s.db.ExecContext(ctx, upsert, schemaVersionKey, fmt.Sprintf("%d", v)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

func (s *Store) migrateToV1(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS builds (
  id             TEXT PRIMARY KEY,
  platform       TEXT NOT NULL,
  client_config  TEXT NOT NULL,
  config_path    TEXT NOT NULL,
  config_digest  TEXT NOT NULL,
  command        TEXT NOT NULL,
  status         TEXT NOT NULL CHECK (status IN ('running','succeeded','failed')),
  failed_stage   TEXT NULL,
  exit_code      INTEGER NULL,
  started_at     TIMESTAMP NOT NULL,
  finished_at    TIMESTAMP NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_builds_platform ON builds(platform);`,

		`CREATE TABLE IF NOT EXISTS build_events (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  build_id    TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
  time        TIMESTAMP NOT NULL,
  stage       TEXT NOT NULL,
  exit_code   INTEGER NOT NULL,
  elapsed_ms  INTEGER NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_build_events_build_time ON build_events(build_id, time);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// --------------- Builds ---------------

// InsertBuild inserts a new build. The caller sets ID and StartedAt; Status
// defaults to running.
func (s *Store) InsertBuild(ctx context.Context, b *Build) error {
	if b.Status == "" {
		b.Status = StatusRunning
	}
	if !b.Status.Valid() {
		return fmt.Errorf("invalid status: %s", b.Status)
	}
	const ins = `
INSERT INTO builds (id, platform, client_config, config_path, config_digest, command, status, started_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	_, err := s.db.ExecContext(ctx, ins,
		b.ID, b.Platform, b.ClientConfig, b.ConfigPath, b.ConfigDigest, b.Command, b.Status.String(), b.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// FinishBuild moves a running build to a terminal status. failedStage is
// stored only for failed builds. Returns ErrNotFound if the build is unknown
// or already finished.
func (s *Store) FinishBuild(ctx context.Context, id string, status Status, failedStage string, exitCode int, at time.Time) error {
	if !status.IsTerminal() {
		return fmt.Errorf("invalid terminal status: %s", status)
	}
	var stage any
	if status == StatusFailed {
		stage = nullIfEmpty(failedStage)
	}
	const upd = `UPDATE builds SET status=?, failed_stage=?, exit_code=?, finished_at=? WHERE id=? AND status='running'`
	res, err := s.db.ExecContext(ctx, upd, status.String(), stage, exitCode, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("finish build: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const buildColumns = `id, platform, client_config, config_path, config_digest, command, status, failed_stage, exit_code, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(sc rowScanner) (*Build, error) {
	var row struct {
		id, platform, clientConfig, configPath, digest, command, status string
		failedStage                                                     sql.NullString
		exitCode                                                        sql.NullInt64
		startedAt                                                       time.Time
		finishedAt                                                      sql.NullTime
	}
	if err := sc.Scan(&row.id, &row.platform, &row.clientConfig, &row.configPath, &row.digest, &row.command,
		&row.status, &row.failedStage, &row.exitCode, &row.startedAt, &row.finishedAt); err != nil {
		return nil, err
	}
	return &Build{
		ID:           row.id,
		Platform:     row.platform,
		ClientConfig: row.clientConfig,
		ConfigPath:   row.configPath,
		ConfigDigest: row.digest,
		Command:      row.command,
		Status:       Status(row.status),
		FailedStage:  fromNullStringPtr(row.failedStage),
		ExitCode:     fromNullIntPtr(row.exitCode),
		StartedAt:    row.startedAt.UTC(),
		FinishedAt:   fromNullTimePtr(row.finishedAt),
	}, nil
}

// GetBuild retrieves a build by ID.
func (s *Store) GetBuild(ctx context.Context, id string) (*Build, error) {
	q := `SELECT ` + buildColumns + ` FROM builds WHERE id=?`
	b, err := scanBuild(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get build: %w", err)
	}
	return b, nil
}

// ListBuilds returns the most recent builds first, optionally filtered by
// platform. If limit <= 0, DefaultListLimit applies.
func (s *Store) ListBuilds(ctx context.Context, platform string, limit int) ([]*Build, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := `SELECT ` + buildColumns + ` FROM builds`
	args := []any{}
	if platform != "" {
		q += ` WHERE platform=?`
		args = append(args, platform)
	}
	q += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var out []*Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return out, nil
}

// --------------- Build events ---------------

// AppendBuildEvent inserts a new stage event for a build.
func (s *Store) AppendBuildEvent(ctx context.Context, ev Event) error {
	const ins = `INSERT INTO build_events(build_id, time, stage, exit_code, elapsed_ms) VALUES(?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, ins, ev.BuildID, ev.Time.UTC(), ev.Stage, ev.ExitCode, ev.Elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert build event: %w", err)
	}
	return nil
}

// ListBuildEvents fetches events for a build in the order they happened.
func (s *Store) ListBuildEvents(ctx context.Context, buildID string) ([]Event, error) {
	const q = `SELECT id, build_id, time, stage, exit_code, elapsed_ms FROM build_events WHERE build_id=? ORDER BY time ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, q, buildID)
	if err != nil {
		return nil, fmt.Errorf("query build events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev        Event
			elapsedMS int64
		)
		if err := rows.Scan(&ev.ID, &ev.BuildID, &ev.Time, &ev.Stage, &ev.ExitCode, &elapsedMS); err != nil {
			return nil, fmt.Errorf("scan build event: %w", err)
		}
		ev.Time = ev.Time.UTC()
		ev.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build events: %w", err)
	}
	return out, nil
}

// --------------- Internal helpers ---------------

func pingContext(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		v := ns.String
		return &v
	}
	return nil
}

func fromNullIntPtr(ni sql.NullInt64) *int {
	if ni.Valid {
		v := int(ni.Int64)
		return &v
	}
	return nil
}

func fromNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time.UTC()
		return &t
	}
	return nil
}
