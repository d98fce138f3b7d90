package changepoint

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// SegmentKind describes how a segment's mean relates to the one before it
type SegmentKind string

const (
	SegmentInitial  SegmentKind = "initial"
	SegmentIncrease SegmentKind = "increase"
	SegmentDecrease SegmentKind = "decrease"
	SegmentFlat     SegmentKind = "flat"
)

// Segment summarises one homogeneous stretch of a series
type Segment struct {
	Start    int         `json:"start" yaml:"start"`
	End      int         `json:"end" yaml:"end"`
	Length   int         `json:"length" yaml:"length"`
	Mean     float64     `json:"mean" yaml:"mean"`
	Variance float64     `json:"variance" yaml:"variance"`
	Cost     float64     `json:"cost" yaml:"cost"`
	Shift    float64     `json:"shift" yaml:"shift"` // mean minus the previous segment's mean
	Kind     SegmentKind `json:"kind" yaml:"kind"`
}

// Summarize splits x at the given changepoints (ascending segment ends, the
// last equal to len(x)) and describes each segment.
func Summarize(x []float64, changepoints []int) ([]Segment, error) {
	if len(x) == 0 {
		if len(changepoints) != 0 {
			return nil, fmt.Errorf("%w: changepoints given for an empty series", ErrInvalidParameter)
		}
		return []Segment{}, nil
	}
	if len(changepoints) == 0 || changepoints[len(changepoints)-1] != len(x) {
		return nil, fmt.Errorf("%w: last changepoint must equal the series length %d", ErrInvalidParameter, len(x))
	}

	stats := NewCumulativeStats(x)
	segments := make([]Segment, 0, len(changepoints))

	start := 0
	for i, end := range changepoints {
		if end <= start {
			return nil, fmt.Errorf("%w: changepoints must be strictly increasing (position %d: %d after %d)", ErrInvalidParameter, i, end, start)
		}

		mean, variance := stat.PopMeanVariance(x[start:end], nil)
		seg := Segment{
			Start:    start,
			End:      end,
			Length:   end - start,
			Mean:     mean,
			Variance: variance,
			Cost:     stats.SegmentCost(start, end),
			Kind:     SegmentInitial,
		}

		if i > 0 {
			seg.Shift = mean - segments[i-1].Mean
			switch {
			case seg.Shift > 0:
				seg.Kind = SegmentIncrease
			case seg.Shift < 0:
				seg.Kind = SegmentDecrease
			default:
				seg.Kind = SegmentFlat
			}
		}

		segments = append(segments, seg)
		start = end
	}

	return segments, nil
}
