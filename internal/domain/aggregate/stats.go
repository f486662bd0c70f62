package aggregate

import (
	"math"
	"sort"

	"github.com/okian/foodlca/internal/domain/model"
)

// Percentile returns the p-quantile of values using linear interpolation
// between closest ranks: position p*(n-1) in the sorted values. It agrees
// with Median at p=0.5 and is non-decreasing in p. values is not modified.
func Percentile(values []float64, p float64) (float64, error) {
	if p <= 0 || p > 1 || math.IsNaN(p) {
		return 0, &model.RangeError{Field: "percentile", Value: p, Want: "in (0, 1]"}
	}
	if len(values) == 0 {
		return math.NaN(), nil
	}
	s := sorted(values)
	return interpolate(s, p), nil
}

// Median returns the middle value of values, averaging the two middle values
// for even counts. It returns NaN for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return interpolate(sorted(values), 0.5)
}

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sorted(values []float64) []float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	return s
}

func interpolate(s []float64, p float64) float64 {
	pos := p * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	frac := pos - float64(lo)
	return s[lo] + (s[hi]-s[lo])*frac
}
