package changepoint

import (
	"fmt"
	"math"
)

// peltState is the working state of one PELT run. Every table is owned by the
// run and threaded through the forward pass one step at a time.
type peltState struct {
	stats      *CumulativeStats
	penalty    float64
	minSegLen  int
	q          []float64
	lastChange []int
	candidates []int // ascending
	nb         []int
}

func newPELTState(x []float64, penalty float64, minSegLen int) *peltState {
	n := len(x)
	st := &peltState{
		stats:      NewCumulativeStats(x),
		penalty:    penalty,
		minSegLen:  minSegLen,
		q:          make([]float64, n+1),
		lastChange: make([]int, n+1),
		candidates: make([]int, 1, 16),
		nb:         make([]int, n),
	}
	st.q[0] = -penalty
	for t := 1; t <= n; t++ {
		st.q[t] = math.Inf(1)
	}
	return st
}

// step advances the pass to prefix t: it evaluates Q[t] over the live
// candidates, prunes the candidate set and admits t as a future segment start.
func (st *peltState) step(t int) {
	st.evaluate(t)
	st.prune(t)
	if !math.IsInf(st.q[t], 1) {
		st.candidates = append(st.candidates, t)
	}
	st.nb[t-1] = len(st.candidates)
}

func (st *peltState) evaluate(t int) {
	best := math.Inf(1)
	bestIndex := -1
	for _, s := range st.candidates {
		if t-s < st.minSegLen {
			continue
		}
		total := st.q[s] + st.stats.SegmentCost(s, t) + st.penalty
		if total < best {
			best = total
			bestIndex = s
		}
	}
	st.q[t] = best
	st.lastChange[t] = bestIndex
}

// prune drops every candidate s that can no longer be the optimal start of a
// segment ending after t. With tau = t-minSegLen+1, tau is an admissible
// start for every later end, so s is dominated by tau once
//
//	Q[s] + C(s, tau) > Q[tau] + penalty
//
// For minSegLen = 1 this is the usual test against Q[t]. Candidates younger
// than the minimum segment length cannot be tested yet and are kept.
func (st *peltState) prune(t int) {
	tau := t - st.minSegLen + 1
	if tau <= 0 {
		return
	}
	bound := st.q[tau] + st.penalty

	kept := st.candidates[:0]
	for _, s := range st.candidates {
		if s >= tau || st.q[s]+st.stats.SegmentCost(s, tau) <= bound {
			kept = append(kept, s)
		}
	}
	st.candidates = kept
}

// PELT segments x with the Pruned Exact Linear Time algorithm. It finds the
// same optimum as OptimalPartitioning but discards split points that can never
// be optimal again, giving expected linear time. The penalty must be finite
// and non-negative; WithMinSegLen sets the minimum segment length (default 1).
//
// If no segmentation satisfies the minimum segment length the call fails with
// ErrInfeasible.
func PELT(x []float64, penalty float64, opts ...Option) (*Result, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := validatePenalty(penalty); err != nil {
		return nil, err
	}
	if penalty < 0 {
		return nil, fmt.Errorf("%w: PELT requires a non-negative penalty, got %v", ErrInvalidParameter, penalty)
	}

	n := len(x)
	if err := checkLength(n, o.minSegLen); err != nil {
		return nil, err
	}

	st := newPELTState(x, penalty, o.minSegLen)
	for t := 1; t <= n; t++ {
		st.step(t)
	}

	if n > 0 && st.lastChange[n] < 0 {
		return nil, fmt.Errorf("%w: no admissible segment ends at %d with minimum length %d", ErrInfeasible, n, o.minSegLen)
	}

	changepoints, err := Backtrack(st.lastChange)
	if err != nil {
		return nil, err
	}

	return &Result{
		Method:       MethodPELT,
		Penalty:      penalty,
		MinSegLen:    o.minSegLen,
		N:            n,
		Changepoints: changepoints,
		LastIndexSet: st.candidates,
		NB:           st.nb,
		CostQ:        st.q,
	}, nil
}
