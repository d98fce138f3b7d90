package changepoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	x := []float64{1, 1, 1, 10, 10, 10, 4, 6}

	segments, err := Summarize(x, []int{3, 6, 8})
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, Segment{Start: 0, End: 3, Length: 3, Mean: 1, Kind: SegmentInitial}, segments[0])

	assert.Equal(t, 3, segments[1].Start)
	assert.Equal(t, 6, segments[1].End)
	assert.InDelta(t, 10, segments[1].Mean, 1e-12)
	assert.InDelta(t, 9, segments[1].Shift, 1e-12)
	assert.Equal(t, SegmentIncrease, segments[1].Kind)

	assert.Equal(t, 2, segments[2].Length)
	assert.InDelta(t, 5, segments[2].Mean, 1e-12)
	assert.InDelta(t, 1, segments[2].Variance, 1e-12)
	assert.InDelta(t, 2, segments[2].Cost, 1e-12)
	assert.Equal(t, SegmentDecrease, segments[2].Kind)
}

func TestSummarizeDetectorOutput(t *testing.T) {
	x := []float64{2, 2, 2, 2, 7, 7, 7, 7}
	res, err := PELT(x, 1)
	require.NoError(t, err)

	segments, err := Summarize(x, res.Changepoints)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	total := 0.0
	for _, seg := range segments {
		total += seg.Cost + res.Penalty
	}
	assert.InDelta(t, res.Cost(), total, 1e-9)
}

func TestSummarizeRejectsMalformedChangepoints(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	for name, cps := range map[string][]int{
		"missing end":     {2},
		"empty":           {},
		"not increasing":  {2, 2, 4},
		"beyond series":   {2, 5},
		"zero length run": {0, 4},
	} {
		_, err := Summarize(x, cps)
		assert.ErrorIs(t, err, ErrInvalidParameter, name)
	}

	segments, err := Summarize(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, segments)
}
