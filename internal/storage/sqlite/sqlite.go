// Package sqlite stores changepoint runs in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/changepoints/internal/log"
	"github.com/chrissnell/changepoints/internal/storage"
	"github.com/chrissnell/changepoints/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationTable tracks the applied run-store schema version
const MigrationTable = "run_schema_migrations"

// timeLayout is fixed width so that created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Storage is a storage.Store backed by SQLite
type Storage struct {
	db *sql.DB
}

// New opens (creating if needed) the SQLite database at path and makes sure
// the schema exists
func New(ctx context.Context, path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	log.Info("migrating SQLite run tables...")
	if err := NewMigrator(db).MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// NewMigrator returns a migrator for the run-store schema on db
func NewMigrator(db *sql.DB) *migrate.Migrator {
	// The embedded directory and driver are fixed, so this cannot fail.
	provider, err := migrate.NewFSProvider(migrations, "migrations", MigrationTable, "sqlite")
	if err != nil {
		panic(err)
	}
	return migrate.NewMigrator(db, provider)
}

// SaveRun stores r and its changepoints in one transaction
func (s *Storage) SaveRun(ctx context.Context, r *storage.Run) error {
	storage.PrepareRun(r)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, method, penalty_type, penalty, min_seg_len, smoothing_window, n, cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(timeLayout), r.Method, r.PenaltyType, r.Penalty,
		r.MinSegLen, r.SmoothingWindow, r.N, r.Cost)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_changepoints (run_id, position, idx) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare changepoint insert: %w", err)
	}
	defer stmt.Close()

	for i, cp := range r.Changepoints {
		if _, err := stmt.ExecContext(ctx, r.ID, i, cp); err != nil {
			return fmt.Errorf("failed to insert changepoint: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun loads the run with the given ID
func (s *Storage) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, method, penalty_type, penalty, min_seg_len, smoothing_window, n, cost
		FROM runs WHERE id = ?`, id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	if r.Changepoints, err = s.changepoints(ctx, r.ID); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRuns returns the newest runs first
func (s *Storage) ListRuns(ctx context.Context, limit int) ([]storage.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, method, penalty_type, penalty, min_seg_len, smoothing_window, n, cost
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, storage.ListLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	runs := []storage.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	rows.Close()

	// The single connection is free again only after rows is closed.
	for i := range runs {
		if runs[i].Changepoints, err = s.changepoints(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Ping checks that the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) changepoints(ctx context.Context, id string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT idx FROM run_changepoints WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query changepoints: %w", err)
	}
	defer rows.Close()

	cps := []int{}
	for rows.Next() {
		var cp int
		if err := rows.Scan(&cp); err != nil {
			return nil, fmt.Errorf("failed to scan changepoint: %w", err)
		}
		cps = append(cps, cp)
	}
	return cps, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*storage.Run, error) {
	var r storage.Run
	var createdAt string
	err := row.Scan(&r.ID, &createdAt, &r.Method, &r.PenaltyType, &r.Penalty,
		&r.MinSegLen, &r.SmoothingWindow, &r.N, &r.Cost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	r.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("bad created_at %q for run %s: %w", createdAt, r.ID, err)
	}
	return &r, nil
}
