// internal/results/store.go
package results

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoResults is returned when the store holds no runs.
var ErrNoResults = errors.New("results: no runs recorded")

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("results: run not found")

// Run is one stored experiment run.
type Run struct {
	ID         uuid.UUID `json:"run_id"`
	Seed       int64     `json:"seed"`
	StartedAt  time.Time `json:"started_at"`
	Conditions int       `json:"conditions"`
	Completed  bool      `json:"completed"`
	Records    int       `json:"records"`
}

// Store persists runs and their records in SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenStore opens (or creates) the database at path and migrates it to the
// latest schema.
func OpenStore(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	// A single connection keeps in-memory databases coherent and avoids
	// SQLITE_BUSY between writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000; PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure results database: %w", err)
	}

	s := &Store{db: db, logger: logger.Named("store")}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// m is not closed: that would close the shared connection.
	m.Log = &migrateLogger{logger: s.logger}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger adapts zap to migrate.Logger.
type migrateLogger struct{ logger *zap.Logger }

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf("migrate: "+format, v...))
}

func (l *migrateLogger) Verbose() bool { return false }

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores run and its records, replacing any earlier copy of the run.
func (s *Store) SaveRun(ctx context.Context, run Run, records []schemas.ResultRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := run.ID.String()
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear records of run %s: %w", id, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, seed, started_at, conditions, completed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			seed = excluded.seed,
			started_at = excluded.started_at,
			conditions = excluded.conditions,
			completed = excluded.completed`,
		id, run.Seed, formatTime(run.StartedAt), run.Conditions, run.Completed)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", id, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (run_id, position, scene, condition, hits, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, id, i, r.SceneName, r.ConditionLabel, r.HitCount, formatTime(r.RecordedAt)); err != nil {
			return fmt.Errorf("failed to save record %d of run %s: %w", i, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", id, err)
	}
	s.logger.Debug("Run saved.", zap.String("run_id", id), zap.Int("records", len(records)))
	return nil
}

const runColumns = `
	SELECT r.run_id, r.seed, r.started_at, r.conditions, r.completed,
		(SELECT COUNT(*) FROM records WHERE records.run_id = r.run_id)
	FROM runs r`

// Runs lists every stored run, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, runColumns+` ORDER BY r.started_at DESC, r.run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, runColumns+` ORDER BY r.started_at DESC, r.run_id LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoResults
	}
	return run, err
}

// Records returns the records of a run in the order they were recorded.
func (s *Store) Records(ctx context.Context, id uuid.UUID) ([]schemas.ResultRecord, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, id.String()).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run %s: %w", id, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT scene, condition, hits, recorded_at
		FROM records WHERE run_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list records of run %s: %w", id, err)
	}
	defer rows.Close()

	var out []schemas.ResultRecord
	for rows.Next() {
		var r schemas.ResultRecord
		var recordedAt string
		if err := rows.Scan(&r.SceneName, &r.ConditionLabel, &r.HitCount, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if r.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var id, startedAt string
	if err := row.Scan(&id, &run.Seed, &startedAt, &run.Conditions, &run.Completed, &run.Records); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("stored run id %q is invalid: %w", id, err)
	}
	run.ID = parsed
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return Run{}, err
	}
	return run, nil
}

// storedTimeLayout keeps every stored time the same width so that text
// ordering in SQL matches chronological ordering.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored time %q is invalid: %w", s, err)
	}
	return t, nil
}
