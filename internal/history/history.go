// Package history persists a ledger of overlay runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"overlayd/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var ErrNotFound = errors.New("history: run not found")

// Run is one row of the ledger.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	StartA     float64
	StartB     float64
	Mode       string
	Status     Status
	Error      string
	ResultID   string
	ResultSize int
}

// Outcome is what Finish records.
type Outcome struct {
	Err        error
	ResultID   string
	ResultSize int
}

type DB struct {
	conn   *sql.DB
	logger zerolog.Logger
}

const timeLayout = time.RFC3339Nano

// Open opens (creating when needed) the ledger at path. Use ":memory:" for
// a throwaway database.
func Open(path string, logger zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, logger: logging.WithComponent(logger, "history")}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if n, err := db.markInterrupted(); err != nil {
		db.logger.Warn().Err(err).Msg("failed to mark interrupted runs")
	} else if n > 0 {
		db.logger.Info().Int64("count", n).Msg("marked interrupted runs as failed")
	}
	return db, nil
}

func (d *DB) Close() error { return d.conn.Close() }

func (d *DB) migrate() error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	for _, m := range entries {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if d.isMigrationApplied(name) {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := d.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := d.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		d.logger.Debug().Str("name", name).Msg("applied migration")
	}
	return nil
}

func (d *DB) isMigrationApplied(name string) bool {
	var exists int
	if err := d.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists); err != nil {
		return false
	}
	var applied int
	err := d.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

func (d *DB) markInterrupted() (int64, error) {
	res, err := d.conn.Exec(
		`UPDATE runs SET status = ?, error = 'interrupted by restart', finished_at = ? WHERE status = ?`,
		StatusFailed, time.Now().UTC().Format(timeLayout), StatusRunning)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Begin inserts a running row.
func (d *DB) Begin(ctx context.Context, id string, startA, startB float64, mode string) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, start_a, start_b, mode, status) VALUES (?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(timeLayout), startA, startB, mode, StatusRunning)
	if err != nil {
		return fmt.Errorf("history begin %s: %w", id, err)
	}
	return nil
}

// Finish closes the row for id as succeeded or failed depending on o.Err.
func (d *DB) Finish(ctx context.Context, id string, o Outcome) error {
	status, msg := StatusSucceeded, ""
	if o.Err != nil {
		status, msg = StatusFailed, o.Err.Error()
	}
	res, err := d.conn.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, result_id = ?, result_size = ?, finished_at = ? WHERE id = ?`,
		status, msg, o.ResultID, o.ResultSize, time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("history finish %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns the most recent runs first. limit <= 0 means 50.
func (d *DB) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, started_at, finished_at, start_a, start_b, mode, status, error, result_id, result_size
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history list: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.StartA, &r.StartB, &r.Mode, &r.Status, &r.Error, &r.ResultID, &r.ResultSize); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		if finished.Valid {
			if t, err := time.Parse(timeLayout, finished.String); err == nil {
				r.FinishedAt = &t
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
