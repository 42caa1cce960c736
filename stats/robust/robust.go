// Package robust provides outlier-resistant statistics on plain float64
// slices: NaN-aware median, median absolute deviation and helpers for
// picking the lowest or highest valued samples of a series.
package robust

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MADConstant converts a median absolute deviation into an estimate of the
// standard deviation of a Gaussian population.
const MADConstant = 0.6745

// ErrEmpty is returned when a statistic is requested on a series without
// any valid (non-NaN) samples.
var ErrEmpty = errors.New("robust: no valid samples")

// finite returns a copy of x with NaN values removed.
func finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// medianSorted returns the median of an already sorted, non-empty slice.
func medianSorted(s []float64) float64 {
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Median returns the median of x, ignoring NaN values. An even number of
// samples yields the mean of the two central values.
func Median(x []float64) (float64, error) {
	v := finite(x)
	if len(v) == 0 {
		return 0, ErrEmpty
	}
	sort.Float64s(v)
	return medianSorted(v), nil
}

// MAD returns the median absolute deviation of x scaled by 1/MADConstant.
func MAD(x []float64) (float64, error) {
	return MADWithConstant(x, MADConstant)
}

// MADWithConstant returns median(|x - median(x)|) / c, ignoring NaNs.
func MADWithConstant(x []float64, c float64) (float64, error) {
	v := finite(x)
	if len(v) == 0 {
		return 0, ErrEmpty
	}
	sort.Float64s(v)
	med := medianSorted(v)
	for i := range v {
		v[i] = math.Abs(v[i] - med)
	}
	sort.Float64s(v)
	return medianSorted(v) / c, nil
}

// PopStdDev returns the population standard deviation (divide by n) of x.
// It returns 0 for fewer than two samples.
func PopStdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.PopStdDev(x, nil)
}

// NanMin returns the smallest non-NaN value of x.
func NanMin(x []float64) (float64, error) {
	found := false
	minVal := math.Inf(1)
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		found = true
		if v < minVal {
			minVal = v
		}
	}
	if !found {
		return 0, ErrEmpty
	}
	return minVal, nil
}

// CountNaN returns the number of NaN entries in x.
func CountNaN(x []float64) int {
	var n int
	for _, v := range x {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// ArgSort returns the indices of x ordered by ascending value. Ties keep
// their original order.
func ArgSort(x []float64) []int {
	sorted := make([]float64, len(x))
	copy(sorted, x)
	idx := make([]int, len(x))
	floats.ArgsortStable(sorted, idx)
	return idx
}

// LowestK returns the indices of the k lowest values of x in ascending
// value order. k is clamped to len(x).
func LowestK(x []float64, k int) []int {
	idx := ArgSort(x)
	if k > len(idx) {
		k = len(idx)
	}
	if k < 0 {
		k = 0
	}
	return idx[:k]
}

// HighestK returns the indices of the k highest values of x, lowest of them
// first. k is clamped to len(x).
func HighestK(x []float64, k int) []int {
	idx := ArgSort(x)
	if k > len(idx) {
		k = len(idx)
	}
	if k < 0 {
		k = 0
	}
	return idx[len(idx)-k:]
}

// Gather returns x[idx[0]], x[idx[1]], ...
func Gather(x []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}
