package changepoint

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CumulativeStats holds prefix sums of a series and of its squares so that the
// residual sum of squares of any segment is available in constant time.
type CumulativeStats struct {
	sum   []float64 // sum[i] = x[0] + ... + x[i-1]
	sumSq []float64 // sumSq[i] = x[0]² + ... + x[i-1]²
}

// NewCumulativeStats computes the prefix sums of x. Both tables have length
// len(x)+1 and start at zero.
func NewCumulativeStats(x []float64) *CumulativeStats {
	n := len(x)
	sum := make([]float64, n+1)
	sumSq := make([]float64, n+1)

	squares := make([]float64, n)
	floats.MulTo(squares, x, x)
	floats.CumSum(sum[1:], x)
	floats.CumSum(sumSq[1:], squares)

	return &CumulativeStats{
		sum:   sum,
		sumSq: sumSq,
	}
}

// Len returns the length of the underlying series
func (c *CumulativeStats) Len() int {
	return len(c.sum) - 1
}

// Sum returns the sum of x[s:t]
func (c *CumulativeStats) Sum(s, t int) float64 {
	return c.sum[t] - c.sum[s]
}

// Mean returns the mean of x[s:t], or NaN for an empty or invalid range
func (c *CumulativeStats) Mean(s, t int) float64 {
	if !c.valid(s, t) {
		return math.NaN()
	}
	return c.Sum(s, t) / float64(t-s)
}

// SegmentCost returns the residual sum of squares of a constant-mean fit to
// the half-open segment [s, t):
//
//	(Σx² over [s,t)) - (Σx over [s,t))² / (t-s)
//
// Empty or out-of-range segments have no cost and yield NaN. Rounding can push
// a homogeneous segment slightly below zero; such results are clamped to 0.
func (c *CumulativeStats) SegmentCost(s, t int) float64 {
	if !c.valid(s, t) {
		return math.NaN()
	}

	sum := c.sum[t] - c.sum[s]
	cost := (c.sumSq[t] - c.sumSq[s]) - sum*sum/float64(t-s)
	if cost < 0 {
		return 0
	}
	return cost
}

func (c *CumulativeStats) valid(s, t int) bool {
	return s >= 0 && t <= c.Len() && t > s
}
