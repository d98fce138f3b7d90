// Package changepoint detects changes in the mean of a univariate series.
//
// Two exact engines minimise the penalised residual sum of squares of a
// piecewise-constant fit: OptimalPartitioning, an exhaustive O(n²) dynamic
// program, and PELT, which prunes split points that can never again be
// optimal and runs in expected linear time. Both are pure functions of their
// input and safe to call concurrently.
package changepoint

import (
	"fmt"
	"strings"
)

// Method identifies a segmentation engine
type Method string

const (
	// MethodPELT uses the Pruned Exact Linear Time engine
	MethodPELT Method = "pelt"

	// MethodOptimalPartitioning uses the exhaustive O(n²) engine
	MethodOptimalPartitioning Method = "op"
)

// ParseMethod maps a method name to a Method. The empty string selects PELT.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "pelt":
		return MethodPELT, nil
	case "op", "optimal", "optimal_partitioning", "optimal-partitioning":
		return MethodOptimalPartitioning, nil
	default:
		return "", fmt.Errorf("%w: unknown method %q", ErrInvalidParameter, name)
	}
}

// Detector segments series with a fixed engine, penalty and minimum segment length
type Detector interface {
	Detect(x []float64) (*Result, error)
}

type engineFunc func(x []float64, penalty float64, opts ...Option) (*Result, error)

type detector struct {
	engine    engineFunc
	penalty   float64
	minSegLen int
}

// NewDetector returns a Detector for the given method. The parameters are
// validated up front so that a misconfigured detector fails before it sees data.
func NewDetector(method Method, penalty float64, minSegLen int) (Detector, error) {
	if _, err := buildOptions([]Option{WithMinSegLen(minSegLen)}); err != nil {
		return nil, err
	}
	if err := validatePenalty(penalty); err != nil {
		return nil, err
	}

	var engine engineFunc
	switch method {
	case MethodPELT:
		if penalty < 0 {
			return nil, fmt.Errorf("%w: PELT requires a non-negative penalty, got %v", ErrInvalidParameter, penalty)
		}
		engine = PELT
	case MethodOptimalPartitioning:
		engine = OptimalPartitioning
	default:
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidParameter, method)
	}

	return &detector{
		engine:    engine,
		penalty:   penalty,
		minSegLen: minSegLen,
	}, nil
}

// Detect implements Detector
func (d *detector) Detect(x []float64) (*Result, error) {
	return d.engine(x, d.penalty, WithMinSegLen(d.minSegLen))
}
