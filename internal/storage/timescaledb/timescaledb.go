// Package timescaledb stores changepoint runs in PostgreSQL/TimescaleDB
// through GORM.
package timescaledb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/changepoints/internal/database"
	"github.com/chrissnell/changepoints/internal/log"
	"github.com/chrissnell/changepoints/internal/storage"
	"gorm.io/gorm"
)

// Storage is a storage.Store backed by TimescaleDB
type Storage struct {
	TimescaleDBConn *gorm.DB
}

// We declare the Tabler interface for purposes of customizing the table name in the DB
type Tabler interface {
	TableName() string
}

type runRecord struct {
	ID              string    `gorm:"primaryKey;type:uuid"`
	CreatedAt       time.Time `gorm:"not null;index"`
	Method          string    `gorm:"not null"`
	PenaltyType     string    `gorm:"not null"`
	Penalty         float64   `gorm:"not null"`
	MinSegLen       int       `gorm:"not null"`
	SmoothingWindow int       `gorm:"not null"`
	N               int       `gorm:"not null"`
	Cost            float64   `gorm:"not null"`

	Changepoints []changepointRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

func (runRecord) TableName() string {
	return "changepoint_runs"
}

type changepointRecord struct {
	RunID    string `gorm:"primaryKey;type:uuid"`
	Position int    `gorm:"primaryKey"`
	Index    int    `gorm:"column:idx;not null"`
}

func (changepointRecord) TableName() string {
	return "changepoint_run_changepoints"
}

var (
	_ Tabler = runRecord{}
	_ Tabler = changepointRecord{}
)

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, connectionString string) (*Storage, error) {
	conn, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	log.Info("migrating changepoint run tables...")
	if err := conn.WithContext(ctx).AutoMigrate(&runRecord{}, &changepointRecord{}); err != nil {
		log.Warnf("could not migrate changepoint run tables: %v", err)
		return nil, err
	}

	return &Storage{TimescaleDBConn: conn}, nil
}

// SaveRun stores r and its changepoints
func (t *Storage) SaveRun(ctx context.Context, r *storage.Run) error {
	storage.PrepareRun(r)

	rec := toRecord(r)
	if err := t.TimescaleDBConn.WithContext(ctx).Create(&rec).Error; err != nil {
		log.Errorf("could not store run %s: %v", r.ID, err)
		return err
	}
	return nil
}

// GetRun loads the run with the given ID
func (t *Storage) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	if !storage.ValidRunID(id) {
		return nil, storage.ErrRunNotFound
	}

	var rec runRecord
	err := t.TimescaleDBConn.WithContext(ctx).
		Preload("Changepoints", orderByPosition).
		First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying run %s: %w", id, err)
	}

	r := fromRecord(rec)
	return &r, nil
}

// ListRuns returns the newest runs first
func (t *Storage) ListRuns(ctx context.Context, limit int) ([]storage.Run, error) {
	var recs []runRecord
	err := t.TimescaleDBConn.WithContext(ctx).
		Preload("Changepoints", orderByPosition).
		Order("created_at DESC").Order("id").
		Limit(storage.ListLimit(limit)).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("error querying runs: %w", err)
	}

	runs := make([]storage.Run, len(recs))
	for i, rec := range recs {
		runs[i] = fromRecord(rec)
	}
	return runs, nil
}

// Ping checks that the database is reachable
func (t *Storage) Ping(ctx context.Context) error {
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool
func (t *Storage) Close() error {
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func toRecord(r *storage.Run) runRecord {
	rec := runRecord{
		ID:              r.ID,
		CreatedAt:       r.CreatedAt,
		Method:          r.Method,
		PenaltyType:     r.PenaltyType,
		Penalty:         r.Penalty,
		MinSegLen:       r.MinSegLen,
		SmoothingWindow: r.SmoothingWindow,
		N:               r.N,
		Cost:            r.Cost,
		Changepoints:    make([]changepointRecord, len(r.Changepoints)),
	}
	for i, cp := range r.Changepoints {
		rec.Changepoints[i] = changepointRecord{RunID: r.ID, Position: i, Index: cp}
	}
	return rec
}

func fromRecord(rec runRecord) storage.Run {
	r := storage.Run{
		ID:              rec.ID,
		CreatedAt:       rec.CreatedAt.UTC(),
		Method:          rec.Method,
		PenaltyType:     rec.PenaltyType,
		Penalty:         rec.Penalty,
		MinSegLen:       rec.MinSegLen,
		SmoothingWindow: rec.SmoothingWindow,
		N:               rec.N,
		Cost:            rec.Cost,
		Changepoints:    make([]int, len(rec.Changepoints)),
	}
	for i, cp := range rec.Changepoints {
		r.Changepoints[i] = cp.Index
	}
	return r
}
