package changepoint

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePenaltyType(t *testing.T) {
	for name, expected := range map[string]PenaltyType{
		"":       PenaltyManual,
		"manual": PenaltyManual,
		"BIC":    PenaltyBIC,
		"sic":    PenaltyBIC,
		"mbic":   PenaltyMBIC,
		"aic":    PenaltyAIC,
		"hq":     PenaltyHQ,
	} {
		pt, err := ParsePenaltyType(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, pt, name)
	}

	_, err := ParsePenaltyType("cv")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestNoiseVariance(t *testing.T) {
	assert.Equal(t, 0.0, NoiseVariance(nil))
	assert.Equal(t, 0.0, NoiseVariance([]float64{3}))
	assert.Equal(t, 0.0, NoiseVariance([]float64{4, 4, 4, 4}))

	rng := rand.New(rand.NewSource(3))
	x := make([]float64, 5000)
	for i := range x {
		// two level shifts must not disturb the estimate
		level := 0.0
		if i > 1500 {
			level = 25
		}
		if i > 3500 {
			level = -10
		}
		x[i] = level + 2*rng.NormFloat64()
	}
	assert.InDelta(t, 4.0, NoiseVariance(x), 0.6)
}

func TestResolvePenalty(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	x := make([]float64, 1000)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	variance := NoiseVariance(x)
	n := float64(len(x))

	tests := []struct {
		pt       PenaltyType
		expected float64
	}{
		{pt: PenaltyBIC, expected: 2 * variance * math.Log(n)},
		{pt: PenaltyMBIC, expected: 3 * variance * math.Log(n)},
		{pt: PenaltyAIC, expected: 4 * variance},
		{pt: PenaltyHQ, expected: 4 * variance * math.Log(math.Log(n))},
	}
	for _, tt := range tests {
		t.Run(string(tt.pt), func(t *testing.T) {
			penalty, err := ResolvePenalty(tt.pt, 123, x)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, penalty, 1e-12)
		})
	}

	penalty, err := ResolvePenalty(PenaltyManual, 7.5, x)
	require.NoError(t, err)
	assert.Equal(t, 7.5, penalty)

	_, err = ResolvePenalty(PenaltyManual, math.NaN(), x)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = ResolvePenalty(PenaltyType("bogus"), 1, x)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestResolvePenaltyShortSeries(t *testing.T) {
	penalty, err := ResolvePenalty(PenaltyHQ, 0, []float64{1, 5})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, penalty, 0.0)

	penalty, err = ResolvePenalty(PenaltyBIC, 0, []float64{1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, penalty)
}

func TestMBICPenaltyRecoversShifts(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	x := make([]float64, 300)
	for i := range x {
		x[i] = float64(5*(i/100)) + rng.NormFloat64()
	}

	penalty, err := ResolvePenalty(PenaltyMBIC, 0, x)
	require.NoError(t, err)

	res, err := PELT(x, penalty)
	require.NoError(t, err)
	require.Len(t, res.Changepoints, 3)
	assert.InDelta(t, 100, res.Changepoints[0], 3)
	assert.InDelta(t, 200, res.Changepoints[1], 3)
	assert.Equal(t, 300, res.Changepoints[2])
}
