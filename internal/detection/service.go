// Package detection runs changepoint detection requests end to end: parameter
// resolution, smoothing, segmentation, summaries and optional persistence.
package detection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chrissnell/changepoints/internal/preprocess"
	"github.com/chrissnell/changepoints/internal/storage"
	"github.com/chrissnell/changepoints/pkg/changepoint"
	"github.com/chrissnell/changepoints/pkg/config"
	"go.uber.org/zap"
)

// ErrNoStore is returned when a request needs run storage but none is configured
var ErrNoStore = errors.New("run storage is not configured")

// Request is one detection job. Zero-valued fields fall back to the service
// defaults; a Penalty without a PenaltyType implies a manual penalty.
type Request struct {
	Series          []float64 `json:"series" yaml:"series"`
	Method          string    `json:"method,omitempty" yaml:"method,omitempty"`
	PenaltyType     string    `json:"penaltyType,omitempty" yaml:"penalty_type,omitempty"`
	Penalty         *float64  `json:"penalty,omitempty" yaml:"penalty,omitempty"`
	MinSegLen       int       `json:"minSegLen,omitempty" yaml:"min_seg_len,omitempty"`
	SmoothingWindow int       `json:"smoothingWindow,omitempty" yaml:"smoothing_window,omitempty"`
	Store           bool      `json:"store,omitempty" yaml:"store,omitempty"`
}

// Response carries the segmentation together with the parameters that were
// actually used to produce it
type Response struct {
	RunID           string                  `json:"runId,omitempty" yaml:"run_id,omitempty"`
	PenaltyType     changepoint.PenaltyType `json:"penaltyType" yaml:"penalty_type"`
	SmoothingWindow int                     `json:"smoothingWindow" yaml:"smoothing_window"`
	Cost            float64                 `json:"cost" yaml:"cost"`
	Result          *changepoint.Result     `json:"result" yaml:"result"`
	Segments        []changepoint.Segment   `json:"segments" yaml:"segments"`
}

// Service holds the detection defaults and the optional run store
type Service struct {
	defaults config.DetectionData
	store    storage.Store
	logger   *zap.SugaredLogger
}

// NewService creates a detection service. store may be nil, in which case
// requests asking for persistence fail with ErrNoStore.
func NewService(defaults config.DetectionData, store storage.Store, logger *zap.SugaredLogger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Service{
		defaults: defaults,
		store:    store,
		logger:   logger,
	}

	// Surface bad defaults at startup instead of on the first request.
	if _, err := s.resolve(Request{}); err != nil {
		return nil, fmt.Errorf("invalid detection defaults: %w", err)
	}
	return s, nil
}

// HasStore reports whether runs can be persisted
func (s *Service) HasStore() bool {
	return s.store != nil
}

type params struct {
	method          changepoint.Method
	penaltyType     changepoint.PenaltyType
	manualPenalty   float64
	minSegLen       int
	smoothingWindow int
}

func (s *Service) resolve(req Request) (params, error) {
	var p params
	var err error

	method := req.Method
	if method == "" {
		method = s.defaults.Method
	}
	if p.method, err = changepoint.ParseMethod(method); err != nil {
		return p, err
	}

	penaltyType := req.PenaltyType
	p.manualPenalty = s.defaults.Penalty
	if req.Penalty != nil {
		p.manualPenalty = *req.Penalty
		if penaltyType == "" {
			penaltyType = string(changepoint.PenaltyManual)
		}
	}
	if penaltyType == "" {
		penaltyType = s.defaults.PenaltyType
	}
	if p.penaltyType, err = changepoint.ParsePenaltyType(penaltyType); err != nil {
		return p, err
	}

	p.minSegLen = req.MinSegLen
	if p.minSegLen == 0 {
		p.minSegLen = s.defaults.MinSegLen
	}
	if p.minSegLen == 0 {
		p.minSegLen = changepoint.DefaultMinSegLen
	}
	if p.minSegLen < 1 {
		return p, fmt.Errorf("%w: minimum segment length must be at least 1, got %d", changepoint.ErrInvalidParameter, p.minSegLen)
	}

	p.smoothingWindow = req.SmoothingWindow
	if p.smoothingWindow == 0 {
		p.smoothingWindow = s.defaults.SmoothingWindow
	}
	if p.smoothingWindow == 0 {
		p.smoothingWindow = 1
	}
	if p.smoothingWindow < 1 || p.smoothingWindow%2 == 0 {
		return p, fmt.Errorf("%w: smoothing window must be a positive odd integer, got %d", changepoint.ErrInvalidParameter, p.smoothingWindow)
	}

	return p, nil
}

// Run executes one detection request
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Store && s.store == nil {
		return nil, ErrNoStore
	}
	for i, v := range req.Series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: series element %d is not finite", changepoint.ErrInvalidParameter, i)
		}
	}

	p, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	x := req.Series
	if p.smoothingWindow > 1 {
		if x, err = preprocess.MedianFilter(req.Series, p.smoothingWindow); err != nil {
			return nil, fmt.Errorf("%w: %v", changepoint.ErrInvalidParameter, err)
		}
		s.logger.Debugf("applied median filter: window=%d readings", p.smoothingWindow)
	}

	penalty, err := changepoint.ResolvePenalty(p.penaltyType, p.manualPenalty, x)
	if err != nil {
		return nil, err
	}

	detector, err := changepoint.NewDetector(p.method, penalty, p.minSegLen)
	if err != nil {
		return nil, err
	}
	result, err := detector.Detect(x)
	if err != nil {
		return nil, err
	}

	// Segment statistics describe the observations, not the smoothed copy.
	segments, err := changepoint.Summarize(req.Series, result.Changepoints)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		PenaltyType:     p.penaltyType,
		SmoothingWindow: p.smoothingWindow,
		Cost:            result.Cost(),
		Result:          result,
		Segments:        segments,
	}

	s.logger.Infow("detection complete",
		"method", p.method,
		"penalty_type", p.penaltyType,
		"penalty", penalty,
		"min_seg_len", p.minSegLen,
		"n", result.N,
		"segments", result.Segments(),
		"duration", time.Since(start),
	)

	if req.Store {
		run := &storage.Run{
			Method:          string(p.method),
			PenaltyType:     string(p.penaltyType),
			Penalty:         penalty,
			MinSegLen:       p.minSegLen,
			SmoothingWindow: p.smoothingWindow,
			N:               result.N,
			Cost:            resp.Cost,
			Changepoints:    result.Changepoints,
		}
		if err := s.store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to store run: %w", err)
		}
		resp.RunID = run.ID
		s.logger.Debugf("stored run %s", run.ID)
	}

	return resp, nil
}

// GetRun returns a stored run
func (s *Service) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if !storage.ValidRunID(id) {
		return nil, storage.ErrRunNotFound
	}
	return s.store.GetRun(ctx, id)
}

// ListRuns returns the most recent stored runs
func (s *Service) ListRuns(ctx context.Context, limit int) ([]storage.Run, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.ListRuns(ctx, limit)
}
