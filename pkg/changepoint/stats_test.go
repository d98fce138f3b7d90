package changepoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCumulativeStats(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	stats := NewCumulativeStats(x)

	require.Equal(t, 4, stats.Len())
	assert.Equal(t, 10.0, stats.Sum(0, 4))
	assert.Equal(t, 5.0, stats.Sum(1, 3))
	assert.InDelta(t, 2.5, stats.Mean(0, 4), 1e-12)

	// RSS of {1,2,3,4} around 2.5 is 2.25+0.25+0.25+2.25
	assert.InDelta(t, 5.0, stats.SegmentCost(0, 4), 1e-12)
	assert.InDelta(t, 0.5, stats.SegmentCost(1, 3), 1e-12)
}

func TestSegmentCost(t *testing.T) {
	tests := []struct {
		name     string
		x        []float64
		s, t     int
		expected float64
	}{
		{name: "single point", x: []float64{7}, s: 0, t: 1, expected: 0},
		{name: "constant block", x: []float64{5, 5, 5, 5, 5}, s: 1, t: 5, expected: 0},
		{name: "two values", x: []float64{0, 2}, s: 0, t: 2, expected: 2},
		{name: "mean shift", x: []float64{1, 1, 1, 10, 10, 10}, s: 0, t: 6, expected: 121.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := NewCumulativeStats(tt.x)
			cost := stats.SegmentCost(tt.s, tt.t)
			assert.InDelta(t, tt.expected, cost, 1e-9)
			assert.GreaterOrEqual(t, cost, 0.0)
		})
	}
}

func TestSegmentCostRejectsEmptySegments(t *testing.T) {
	stats := NewCumulativeStats([]float64{1, 2, 3})

	assert.True(t, math.IsNaN(stats.SegmentCost(2, 2)))
	assert.True(t, math.IsNaN(stats.SegmentCost(2, 1)))
	assert.True(t, math.IsNaN(stats.SegmentCost(-1, 2)))
	assert.True(t, math.IsNaN(stats.SegmentCost(0, 4)))
	assert.True(t, math.IsNaN(stats.Mean(1, 1)))
}

func TestCumulativeStatsEmpty(t *testing.T) {
	stats := NewCumulativeStats(nil)
	assert.Equal(t, 0, stats.Len())
	assert.True(t, math.IsNaN(stats.SegmentCost(0, 0)))
}
