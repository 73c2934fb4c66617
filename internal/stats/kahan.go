// Package stats implements the numeric core shared by the analysis commands:
// compensated summation, summary statistics over sorted samples, contiguous
// binning of time-ordered series, and 2D shape (PCA) analysis.
package stats

// Number is the set of sample types accepted by the statistics routines.
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}

// KahanSum sums values using Kahan compensated summation, which bounds the
// floating-point error independent of input order or magnitude.
// See https://en.wikipedia.org/wiki/Kahan_summation_algorithm.
func KahanSum[T Number](values []T) float64 {
	var sum, c float64
	for _, v := range values {
		y := float64(v) - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

// kahanSumFunc is KahanSum over a derived term per element, so callers can sum
// squared deviations without materialising an intermediate slice.
func kahanSumFunc[T Number](values []T, term func(T) float64) float64 {
	var sum, c float64
	for _, v := range values {
		y := term(v) - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

// Float64s converts a sample slice to float64 values.
func Float64s[T Number](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
