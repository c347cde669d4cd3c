// Package state persists the history of toolkit runs in a sqlite database.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Ning0612/fstools/internal/domain"
)

// Status is the outcome of a run
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Execution is one recorded run of sync, split or join
type Execution struct {
	ID        int64
	Operation string
	Job       string
	Source    string
	Target    string
	StartTime time.Time
	EndTime   time.Time
	Status    Status
	Files     int
	Bytes     int64
	Error     string
}

// Duration is the wall time the run took
func (e Execution) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Query filters History. Empty fields match everything.
type Query struct {
	Job       string
	Operation string
	Limit     int
}

// Manager handles execution history
type Manager struct {
	db *sql.DB
}

// NewManager opens (creating if needed) the database at dbPath
func NewManager(dbPath string) (*Manager, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: database path cannot be empty", domain.ErrInvalidArgument)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection avoids "database is locked" between writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	m := &Manager{db: db}
	if err := m.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return m, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		job TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		target TEXT NOT NULL DEFAULT '',
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		files INTEGER NOT NULL DEFAULT 0,
		bytes INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_executions_job_time ON executions(job, start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status);
	`
	_, err := m.db.Exec(schema)
	return err
}

// Save records an execution and returns its ID
func (m *Manager) Save(ctx context.Context, e Execution) (int64, error) {
	if !e.Status.Valid() {
		return 0, fmt.Errorf("%w: status %q (must be %q or %q)", domain.ErrInvalidArgument, e.Status, StatusSuccess, StatusFailed)
	}
	if e.Operation == "" {
		return 0, fmt.Errorf("%w: operation cannot be empty", domain.ErrInvalidArgument)
	}

	res, err := m.db.ExecContext(ctx, `
		INSERT INTO executions (operation, job, source, target, start_time, end_time, status, files, bytes, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Operation, e.Job, e.Source, e.Target,
		e.StartTime.UTC(), e.EndTime.UTC(),
		string(e.Status), e.Files, e.Bytes, e.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("save execution: %w", err)
	}
	return res.LastInsertId()
}

// History returns matching executions, most recent first
func (m *Manager) History(ctx context.Context, q Query) ([]Execution, error) {
	if q.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidArgument, q.Limit)
	}

	var (
		where []string
		args  []any
	)
	if q.Job != "" {
		where = append(where, "job = ?")
		args = append(args, q.Job)
	}
	if q.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, q.Operation)
	}

	query := "SELECT " + columns + " FROM executions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time DESC, id DESC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Execution
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// LastSuccess returns the latest successful run of job, or nil if none
func (m *Manager) LastSuccess(ctx context.Context, job string) (*Execution, error) {
	row := m.db.QueryRowContext(ctx,
		"SELECT "+columns+" FROM executions WHERE job = ? AND status = ? ORDER BY start_time DESC, id DESC LIMIT 1",
		job, string(StatusSuccess))

	e, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Prune deletes executions that started before cutoff and reports how many
func (m *Manager) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := m.db.ExecContext(ctx, "DELETE FROM executions WHERE start_time < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

const columns = "id, operation, job, source, target, start_time, end_time, status, files, bytes, error"

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (Execution, error) {
	var (
		e      Execution
		status string
	)
	err := s.Scan(&e.ID, &e.Operation, &e.Job, &e.Source, &e.Target,
		&e.StartTime, &e.EndTime, &status, &e.Files, &e.Bytes, &e.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan execution: %w", err)
	}
	e.Status = Status(status)
	return e, nil
}
