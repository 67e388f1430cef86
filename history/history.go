// Package history records buildergen runs and their per-shape outcomes in
// sqlite.
package history

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/buildergen/db"
	"github.com/teranos/buildergen/driver"
	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/logger"
)

// Run statuses
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Run is one recorded invocation.
type Run struct {
	ID         string
	Command    string
	Mode       string
	Patterns   []string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Error      string
	// Shapes is the number of processed shapes; Changed those created or updated.
	Shapes  int
	Changed int
}

// Store writes and reads run history.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
	now func() time.Time
}

// Open opens (and migrates) the history database at path.
func Open(path string) (*Store, error) {
	log := logger.ComponentLogger("history")
	conn, err := db.OpenWithMigrations(path, log)
	if err != nil {
		return nil, errors.WithHint(err, "set history.enabled = false to run without a history")
	}
	return &Store{db: conn, log: log, now: time.Now}, nil
}

// New wraps an already migrated database.
func New(conn *sql.DB) *Store {
	return &Store{db: conn, log: logger.ComponentLogger("history"), now: time.Now}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin records the start of a run and returns its ID.
func (s *Store) Begin(ctx context.Context, command, mode string, patterns []string, dryRun bool) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, mode, patterns, dry_run, started_at, status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, command, mode, strings.Join(patterns, " "), dryRun, s.now().UTC(), StatusRunning)
	if err != nil {
		return "", s.wrap(err, "failed to record run start")
	}
	return id, nil
}

// Record stores every result of report under runID.
func (s *Store) Record(ctx context.Context, runID string, report *driver.Report) error {
	if report == nil || len(report.Results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap(err, "failed to begin history transaction")
	}
	for i, res := range report.Results {
		msg := ""
		if res.Err != nil {
			msg = res.Err.Error()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_shapes (run_id, seq, shape_id, builder, path, outcome, depth, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, res.ShapeID, res.Builder, res.Path, string(res.Outcome), res.Depth, msg)
		if err != nil {
			tx.Rollback()
			return s.wrap(err, "failed to record "+res.ShapeID)
		}
	}
	if err := tx.Commit(); err != nil {
		return s.wrap(err, "failed to commit history")
	}
	return nil
}

// Finish stamps the run's end and status.
func (s *Store) Finish(ctx context.Context, runID string, runErr error) error {
	status, msg := StatusOK, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		s.now().UTC(), status, msg, runID)
	if err != nil {
		return s.wrap(err, "failed to record run end")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Newf("run %s not found", runID)
	}
	return nil
}

const listQuery = `SELECT r.id, r.command, r.mode, r.patterns, r.dry_run, r.started_at, r.finished_at, r.status, r.error,
	COUNT(s.seq), COALESCE(SUM(CASE WHEN s.outcome IN ('created', 'updated') THEN 1 ELSE 0 END), 0)
FROM runs r
LEFT JOIN run_shapes s ON s.run_id = r.id
GROUP BY r.id
ORDER BY r.started_at DESC
LIMIT ?`

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, listQuery, limit)
	if err != nil {
		return nil, s.wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			patterns string
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Command, &r.Mode, &patterns, &r.DryRun, &r.StartedAt,
			&finished, &r.Status, &r.Error, &r.Shapes, &r.Changed); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		if patterns != "" {
			r.Patterns = strings.Fields(patterns)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read runs")
	}
	return runs, nil
}

func (s *Store) wrap(err error, msg string) error {
	if db.IsDatabaseClosed(err) {
		return errors.Wrap(db.ErrDatabaseClosed, msg)
	}
	return errors.Wrap(err, msg)
}
