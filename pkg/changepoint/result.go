package changepoint

import (
	"encoding/json"
	"math"
	"strconv"
)

// Result is the segmentation produced by one engine run
type Result struct {
	Method    Method  `json:"method" yaml:"method"`
	Penalty   float64 `json:"penalty" yaml:"penalty"`
	MinSegLen int     `json:"minSegLen" yaml:"min_seg_len"`
	N         int     `json:"n" yaml:"n"`

	// Changepoints holds the exclusive end of every segment in ascending
	// order. The last element is always N.
	Changepoints []int `json:"changepoints" yaml:"changepoints"`

	// LastIndexSet is the engine's final candidate set, ascending
	LastIndexSet []int `json:"lastIndexSet" yaml:"last_index_set"`

	// NB records the number of live candidates after each step t = 1..N
	NB []int `json:"nb" yaml:"nb"`

	// CostQ is the optimal-cost table Q[0..N]. Infeasible prefixes are +Inf.
	CostQ Costs `json:"costQ" yaml:"cost_q"`
}

// Cost returns the value of the objective for the whole series: the sum of
// segment costs plus one penalty per segment. Unlike CostQ[N] it does not
// depend on the engine's Q[0] convention.
func (r *Result) Cost() float64 {
	if len(r.CostQ) == 0 {
		return 0
	}
	return r.CostQ[len(r.CostQ)-1] - r.CostQ[0]
}

// Segments returns the number of segments in the result
func (r *Result) Segments() int {
	return len(r.Changepoints)
}

// Costs is a cost table. It marshals infinite and NaN entries as the JSON
// strings "Inf", "-Inf" and "NaN" since JSON numbers cannot represent them.
type Costs []float64

// MarshalJSON implements json.Marshaler
func (c Costs) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(c)*12)
	buf = append(buf, '[')
	for i, v := range c {
		if i > 0 {
			buf = append(buf, ',')
		}
		switch {
		case math.IsInf(v, 1):
			buf = append(buf, `"Inf"`...)
		case math.IsInf(v, -1):
			buf = append(buf, `"-Inf"`...)
		case math.IsNaN(v):
			buf = append(buf, `"NaN"`...)
		default:
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
	}
	buf = append(buf, ']')
	return buf, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Costs) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*c = nil
		return nil
	}

	out := make(Costs, len(raw))
	for i, item := range raw {
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			out[i] = v
			continue
		}
		if err := json.Unmarshal(item, &out[i]); err != nil {
			return err
		}
	}
	*c = out
	return nil
}
