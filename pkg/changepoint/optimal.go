package changepoint

import (
	"math"
	"slices"
)

// opState is the working state of one Optimal Partitioning run
type opState struct {
	stats      *CumulativeStats
	beta       float64
	minSegLen  int
	q          []float64
	lastChange []int
}

func newOPState(x []float64, beta float64, minSegLen int) *opState {
	n := len(x)
	st := &opState{
		stats:      NewCumulativeStats(x),
		beta:       beta,
		minSegLen:  minSegLen,
		q:          make([]float64, n+1),
		lastChange: make([]int, n+1),
	}
	for t := 1; t <= n; t++ {
		st.q[t] = math.Inf(1)
	}
	return st
}

// step computes Q[t] by trying every admissible segment start s in
// increasing order. Ties keep the earliest s.
func (st *opState) step(t int) {
	for s := 0; s <= t-st.minSegLen; s++ {
		cost := st.q[s] + st.stats.SegmentCost(s, t) + st.beta
		if cost < st.q[t] {
			st.q[t] = cost
			st.lastChange[t] = s
		}
	}
	if math.IsInf(st.q[t], 1) {
		st.lastChange[t] = -1
	}
}

// OptimalPartitioning segments x by exhaustive dynamic programming over every
// split point, charging beta per segment. It runs in O(n²) time and serves as
// the reference optimum for PELT.
//
// An empty series yields an empty segmentation.
func OptimalPartitioning(x []float64, beta float64, opts ...Option) (*Result, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := validatePenalty(beta); err != nil {
		return nil, err
	}

	n := len(x)
	if err := checkLength(n, o.minSegLen); err != nil {
		return nil, err
	}

	st := newOPState(x, beta, o.minSegLen)
	for t := 1; t <= n; t++ {
		st.step(t)
	}

	changepoints, err := Backtrack(st.lastChange)
	if err != nil {
		return nil, err
	}

	// Nothing is ever pruned: after step t all of 1..t have been visited.
	visited := make([]int, n)
	for i := range visited {
		visited[i] = i + 1
	}

	return &Result{
		Method:       MethodOptimalPartitioning,
		Penalty:      beta,
		MinSegLen:    o.minSegLen,
		N:            n,
		Changepoints: changepoints,
		LastIndexSet: visited,
		NB:           slices.Clone(visited),
		CostQ:        st.q,
	}, nil
}
