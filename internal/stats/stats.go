package stats

import (
	"fmt"
	"math"
	"sort"
)

// Statistics is a read-only summary of a sample set. It is never mutated
// after construction.
type Statistics[T Number] struct {
	// Count is the number of samples.
	Count int
	// Min and Max keep the native sample type so integer nanosecond inputs
	// survive without rounding.
	Min T
	Max T
	// Mean is the arithmetic mean, computed with compensated summation.
	Mean float64
	// Median is the middle value, or the average of the two middle values
	// for an even sample count.
	Median float64
	// Q1 and Q3 are the medians of the lower and upper halves. For a
	// singleton input both equal the median.
	Q1 float64
	Q3 float64
	// IQR is Q3 - Q1.
	IQR float64
	// StdDev is the population standard deviation (divide by n).
	StdDev float64
}

// Compute summarises a slice that is already sorted ascending. It does not
// sort the input. An empty slice yields a zero-valued record with Count = 0,
// which is valid output, not an error.
func Compute[T Number](sorted []T) Statistics[T] {
	var s Statistics[T]
	s.Count = len(sorted)
	if s.Count == 0 {
		return s
	}
	s.Min = sorted[0]
	s.Max = sorted[s.Count-1]

	mean := KahanSum(sorted) / float64(s.Count)
	s.Mean = mean

	sumOfSquares := kahanSumFunc(sorted, func(v T) float64 {
		delta := float64(v) - mean
		return delta * delta
	})
	s.StdDev = math.Sqrt(sumOfSquares / float64(s.Count))

	s.Median = Median(sorted)
	half := s.Count / 2
	if half == 0 {
		s.Q1 = s.Median
		s.Q3 = s.Median
	} else {
		s.Q1 = Median(sorted[:half])
		s.Q3 = Median(sorted[len(sorted)-half:])
	}
	s.IQR = s.Q3 - s.Q1
	return s
}

// Median returns the median of a sorted slice. For an even number of elements
// it averages the two middle elements. Panics on an empty slice; callers
// guard with Count checks the way Compute does.
func Median[T Number](sorted []T) float64 {
	n := len(sorted)
	if n%2 == 0 {
		return (float64(sorted[n/2]) + float64(sorted[n/2-1])) / 2.0
	}
	return float64(sorted[n/2])
}

// PerBin computes one Statistics record per bin. Each bin must already be
// sorted ascending (see SortBins).
func PerBin[T Number](bins [][]T) []Statistics[T] {
	out := make([]Statistics[T], 0, len(bins))
	for _, bin := range bins {
		out = append(out, Compute(bin))
	}
	return out
}

// SortBins sorts the elements within each bin in place. The order of the
// bins themselves is not changed.
func SortBins[T Number](bins [][]T) {
	for _, bin := range bins {
		sort.Slice(bin, func(i, j int) bool { return bin[i] < bin[j] })
	}
}

// Aggregation selects which statistic Extract pulls out of a Statistics
// record. The set is closed; ParseAggregation rejects anything else.
type Aggregation int

const (
	AggMean Aggregation = iota
	AggMin
	AggQ1
	AggMedian
	AggQ3
	AggMax
	AggCount
)

// ParseAggregation maps a configuration string to an Aggregation.
func ParseAggregation(s string) (Aggregation, error) {
	switch s {
	case "mean":
		return AggMean, nil
	case "min":
		return AggMin, nil
	case "q1":
		return AggQ1, nil
	case "median":
		return AggMedian, nil
	case "q3":
		return AggQ3, nil
	case "max":
		return AggMax, nil
	case "count":
		return AggCount, nil
	}
	return 0, fmt.Errorf("unknown aggregation %q (want mean, min, q1, median, q3, max or count)", s)
}

// String returns the configuration spelling of the aggregation.
func (a Aggregation) String() string {
	switch a {
	case AggMean:
		return "mean"
	case AggMin:
		return "min"
	case AggQ1:
		return "q1"
	case AggMedian:
		return "median"
	case AggQ3:
		return "q3"
	case AggMax:
		return "max"
	case AggCount:
		return "count"
	}
	return fmt.Sprintf("Aggregation(%d)", int(a))
}

// Extract pulls the requested statistic from each record.
func Extract[T Number](records []Statistics[T], mode Aggregation) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		switch mode {
		case AggMean:
			out = append(out, r.Mean)
		case AggMin:
			out = append(out, float64(r.Min))
		case AggQ1:
			out = append(out, r.Q1)
		case AggMedian:
			out = append(out, r.Median)
		case AggQ3:
			out = append(out, r.Q3)
		case AggMax:
			out = append(out, float64(r.Max))
		case AggCount:
			out = append(out, float64(r.Count))
		}
	}
	return out
}
