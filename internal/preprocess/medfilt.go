// Package preprocess conditions raw series before changepoint detection.
package preprocess

import (
	"fmt"
	"sort"
)

// MedianFilter replaces every point with the median of the kernelSize points
// centred on it. Near the ends the window is padded by repeating the first and
// last observations, so a level series stays level all the way to its edges.
// kernelSize must be a positive odd integer; 1 returns a copy of data.
func MedianFilter(data []float64, kernelSize int) ([]float64, error) {
	if kernelSize < 1 || kernelSize%2 == 0 {
		return nil, fmt.Errorf("median filter kernel size must be a positive odd integer, got %d", kernelSize)
	}

	n := len(data)
	result := make([]float64, n)
	if kernelSize == 1 || n == 0 {
		copy(result, data)
		return result, nil
	}

	half := kernelSize / 2
	window := make([]float64, kernelSize)

	for i := 0; i < n; i++ {
		for j := -half; j <= half; j++ {
			idx := min(max(i+j, 0), n-1)
			window[j+half] = data[idx]
		}
		sort.Float64s(window)
		result[i] = window[half]
	}
	return result, nil
}
