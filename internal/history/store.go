package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"batterylog/internal/config"
)

const lockRetryDelay = 50 * time.Millisecond

// timestampLayout is fixed width so created_at sorts as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, run_id, source, mode, found, value, category, trace_path, trace_digest,
    anchor_offset, files_visited, files_skipped, deferred, final_state, elapsed_ms, created_at`

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the history database and creates the
// schema when needed.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureStateDir(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: cfg.History.Path, lock: flock.New(cfg.HistoryLockPath())}
	if err := store.withLock(ctx, store.initSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) withLock(ctx context.Context, fn func(context.Context) error) error {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire history lock: %w", err)
	}
	if !locked {
		return errors.New("history database is locked by another process")
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn(ctx)
}

// Record inserts run and returns it with ID and CreatedAt populated.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.RunID == "" {
		return Run{}, errors.New("run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	err := s.withLock(ctx, func(ctx context.Context) error {
		res, err := s.db.ExecContext(
			ctx,
			`INSERT INTO runs (
                run_id, source, mode, found, value, category, trace_path, trace_digest,
                anchor_offset, files_visited, files_skipped, deferred, final_state, elapsed_ms, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID,
			run.Source,
			string(run.Mode),
			boolToInt(run.Found),
			nullableString(run.Value),
			nullableString(run.Category),
			nullableString(run.TracePath),
			nullableString(run.TraceDigest),
			int64(run.AnchorOffset),
			run.FilesVisited,
			run.FilesSkipped,
			run.Deferred,
			run.FinalState,
			run.Elapsed.Milliseconds(),
			run.CreatedAt.UTC().Format(timestampLayout),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		run.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// List returns the most recent runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
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

// LatestValue returns the most recent run that found a value.
func (s *Store) LatestValue(ctx context.Context) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE found = 1 ORDER BY created_at DESC, id DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                                Run
		mode, finalState, createdAt        string
		found                              int
		value, category, tracePath, digest sql.NullString
		anchor, elapsedMS                  int64
	)
	err := row.Scan(
		&run.ID, &run.RunID, &run.Source, &mode, &found, &value, &category, &tracePath, &digest,
		&anchor, &run.FilesVisited, &run.FilesSkipped, &run.Deferred, &finalState, &elapsedMS, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Mode = Mode(mode)
	run.Found = found != 0
	run.Value = value.String
	run.Category = category.String
	run.TracePath = tracePath.String
	run.TraceDigest = digest.String
	run.AnchorOffset = uint32(anchor)
	run.FinalState = finalState
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
