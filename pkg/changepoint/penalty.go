package changepoint

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// PenaltyType selects how the per-segment penalty is chosen
type PenaltyType string

const (
	// PenaltyManual uses the caller's value unchanged
	PenaltyManual PenaltyType = "manual"

	// PenaltyBIC is the Schwarz criterion, 2σ²·ln n
	PenaltyBIC PenaltyType = "bic"

	// PenaltyMBIC is the modified BIC, 3σ²·ln n
	PenaltyMBIC PenaltyType = "mbic"

	// PenaltyAIC is the Akaike criterion, 4σ²
	PenaltyAIC PenaltyType = "aic"

	// PenaltyHQ is the Hannan-Quinn criterion, 4σ²·ln ln n
	PenaltyHQ PenaltyType = "hq"
)

// madScale converts the median absolute deviation of a normal sample to its
// standard deviation.
const madScale = 1.4826

// ParsePenaltyType maps a name to a PenaltyType. The empty string selects
// PenaltyManual.
func ParsePenaltyType(name string) (PenaltyType, error) {
	switch pt := PenaltyType(strings.ToLower(strings.TrimSpace(name))); pt {
	case "":
		return PenaltyManual, nil
	case PenaltyManual, PenaltyBIC, PenaltyMBIC, PenaltyAIC, PenaltyHQ:
		return pt, nil
	case "sic":
		return PenaltyBIC, nil
	default:
		return "", fmt.Errorf("%w: unknown penalty type %q", ErrInvalidParameter, name)
	}
}

// NoiseVariance estimates the variance of the noise around a piecewise
// constant mean. It uses the first differences of x, which cancel the mean
// everywhere except at changepoints, and a median absolute deviation so that
// the few differences spanning a change do not inflate the estimate. When the
// MAD is zero it falls back to the plain variance of the differences.
func NoiseVariance(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}

	diffs := make([]float64, len(x)-1)
	for i := range diffs {
		diffs[i] = x[i+1] - x[i]
	}

	sorted := append([]float64(nil), diffs...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	deviations := make([]float64, len(sorted))
	for i, d := range sorted {
		deviations[i] = math.Abs(d - median)
	}
	sort.Float64s(deviations)
	mad := stat.Quantile(0.5, stat.Empirical, deviations, nil)

	// A difference of two independent draws has twice the noise variance.
	if mad > 0 {
		sigma := madScale * mad
		return sigma * sigma / 2
	}
	if len(diffs) < 2 {
		return 0
	}
	return stat.Variance(diffs, nil) / 2
}

// ResolvePenalty returns the per-segment penalty for series x. PenaltyManual
// returns manual unchanged; the information criteria scale with the estimated
// noise variance so that they match the residual-sum-of-squares cost. The
// result is never negative for the criteria.
func ResolvePenalty(pt PenaltyType, manual float64, x []float64) (float64, error) {
	if pt == PenaltyManual || pt == "" {
		if err := validatePenalty(manual); err != nil {
			return 0, err
		}
		return manual, nil
	}

	n := float64(len(x))
	if n < 2 {
		return 0, nil
	}
	variance := NoiseVariance(x)

	var penalty float64
	switch pt {
	case PenaltyBIC:
		penalty = 2 * variance * math.Log(n)
	case PenaltyMBIC:
		penalty = 3 * variance * math.Log(n)
	case PenaltyAIC:
		penalty = 4 * variance
	case PenaltyHQ:
		penalty = 4 * variance * math.Log(math.Log(n))
	default:
		return 0, fmt.Errorf("%w: unknown penalty type %q", ErrInvalidParameter, pt)
	}

	if penalty < 0 || math.IsNaN(penalty) {
		penalty = 0
	}
	return penalty, nil
}
