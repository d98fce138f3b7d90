package changepoint

import (
	"fmt"
	"math"
)

// DefaultMinSegLen is the shortest segment either engine produces unless told otherwise
const DefaultMinSegLen = 1

type options struct {
	minSegLen int
}

// Option adjusts how an engine segments a series
type Option func(*options)

// WithMinSegLen sets the minimum number of observations in every segment
func WithMinSegLen(n int) Option {
	return func(o *options) {
		o.minSegLen = n
	}
}

func buildOptions(opts []Option) (options, error) {
	o := options{minSegLen: DefaultMinSegLen}
	for _, opt := range opts {
		opt(&o)
	}
	if o.minSegLen < 1 {
		return o, fmt.Errorf("%w: minimum segment length must be at least 1, got %d", ErrInvalidParameter, o.minSegLen)
	}
	return o, nil
}

func validatePenalty(penalty float64) error {
	if math.IsNaN(penalty) || math.IsInf(penalty, 0) {
		return fmt.Errorf("%w: penalty must be finite, got %v", ErrInvalidParameter, penalty)
	}
	return nil
}

// checkLength rejects series that cannot hold a single segment of the
// minimum length. An empty series is segmented trivially.
func checkLength(n, minSegLen int) error {
	if n > 0 && minSegLen > n {
		return fmt.Errorf("%w: minimum segment length %d exceeds series length %d", ErrInfeasible, minSegLen, n)
	}
	return nil
}
