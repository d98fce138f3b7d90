// Package storage defines the run record and the interface implemented by the
// changepoint run storage backends.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned by GetRun when no run has the requested ID
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit caps ListRuns when the caller passes a non-positive limit
const DefaultListLimit = 50

// Run is one stored detection: the parameters it ran with and what it found
type Run struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"createdAt"`
	Method          string    `json:"method"`
	PenaltyType     string    `json:"penaltyType"`
	Penalty         float64   `json:"penalty"`
	MinSegLen       int       `json:"minSegLen"`
	SmoothingWindow int       `json:"smoothingWindow"`
	N               int       `json:"n"`
	Cost            float64   `json:"cost"`
	Changepoints    []int     `json:"changepoints"`
}

// Store is implemented by every run storage backend
type Store interface {
	// SaveRun persists r, filling in ID and CreatedAt when they are empty
	SaveRun(ctx context.Context, r *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns up to limit runs, newest first
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Ping(ctx context.Context) error
	Close() error
}

// PrepareRun assigns a fresh UUID and creation time to r where missing
func PrepareRun(r *Run) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Changepoints == nil {
		r.Changepoints = []int{}
	}
}

// ValidRunID reports whether id is a well-formed run ID
func ValidRunID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ListLimit normalizes a caller-supplied list limit
func ListLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
