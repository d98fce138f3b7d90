package changepoint

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned when a penalty or minimum segment length
	// cannot be used to segment a series.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInfeasible is returned when no segmentation of the whole series
	// satisfies the minimum segment length. It is a kind of
	// ErrInvalidParameter.
	ErrInfeasible = fmt.Errorf("%w: no feasible segmentation", ErrInvalidParameter)
)
