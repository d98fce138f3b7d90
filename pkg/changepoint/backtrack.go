package changepoint

import (
	"fmt"
	"iter"
	"slices"
)

// SegmentEnds walks a last-changepoint table backward from its final position,
// yielding the exclusive end of each segment, last segment first. The walk
// stops after the segment that starts at 0, or early at the first pointer that
// does not move strictly backward.
func SegmentEnds(lastChange []int) iter.Seq[int] {
	return func(yield func(int) bool) {
		t := len(lastChange) - 1
		for t > 0 {
			if !yield(t) {
				return
			}
			prev := lastChange[t]
			if prev < 0 || prev >= t {
				return
			}
			t = prev
		}
	}
}

// Backtrack reconstructs the ascending list of segment ends from a
// last-changepoint table. The final element is always len(lastChange)-1. An
// error is returned if the chain of pointers does not lead back to 0.
func Backtrack(lastChange []int) ([]int, error) {
	ends := slices.Collect(SegmentEnds(lastChange))
	if len(ends) == 0 {
		return []int{}, nil
	}

	first := ends[len(ends)-1]
	if start := lastChange[first]; start != 0 {
		return nil, fmt.Errorf("%w: prefix %d has no valid predecessor (got %d)", ErrInfeasible, first, start)
	}

	slices.Reverse(ends)
	return ends, nil
}
