package stats

import (
	"cmp"
	"fmt"
)

// ErrUnsortedBins reports a grouping input whose bin keys decreased. The
// grouping pass cannot reorder silently without corrupting which samples land
// in which bin, so this is surfaced as an error instead.
var ErrUnsortedBins = fmt.Errorf("samples are not sorted by bin index")

// GroupByX partitions a (x, y) series into contiguous groups of equal bin
// key, where mapToBin(x) must be non-decreasing over the input. Groups with
// fewer than minCount members are dropped, except the trailing group, which
// is always kept. minCount <= 1 keeps everything.
//
// Returns the bin key per kept group and the grouped y values.
func GroupByX[X, Y any, B cmp.Ordered](x []X, y []Y, minCount int, mapToBin func(X) B) ([]B, [][]Y, error) {
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("length mismatch: %d x values, %d y values", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, nil, nil
	}

	var binKeys []B
	var binValues [][]Y
	current := mapToBin(x[0])
	currentValues := []Y{y[0]}

	for i := 1; i < len(x); i++ {
		key := mapToBin(x[i])
		if key == current {
			currentValues = append(currentValues, y[i])
			continue
		}
		if key < current {
			return nil, nil, fmt.Errorf("%w: bin %v follows bin %v at sample %d", ErrUnsortedBins, key, current, i)
		}
		if len(currentValues) >= minCount {
			binKeys = append(binKeys, current)
			binValues = append(binValues, currentValues)
		}
		current = key
		currentValues = []Y{y[i]}
	}

	binKeys = append(binKeys, current)
	binValues = append(binValues, currentValues)
	return binKeys, binValues, nil
}

// Series is one drawable run of (x, y) points with no internal gap.
type Series struct {
	X []int64
	Y []float64
}

// SplitGaps splits a grouped series into maximal runs of consecutive bin
// indices. Presentation layers draw each run separately so unrelated groups
// are never visually connected.
func SplitGaps(bins []int64, y []float64) []Series {
	if len(bins) != len(y) {
		panic(fmt.Sprintf("length mismatch: %d bins, %d values", len(bins), len(y)))
	}
	if len(bins) == 0 {
		return nil
	}

	var segments []Series
	start := 0
	for i := 1; i < len(bins); i++ {
		if bins[i] == bins[i-1]+1 {
			continue
		}
		segments = append(segments, Series{X: bins[start:i], Y: y[start:i]})
		start = i
	}
	segments = append(segments, Series{X: bins[start:], Y: y[start:]})
	return segments
}

// MapX maps each segment's x values through fn, typically to convert bin
// indices back to the timestamp at which the bin starts. The y values are
// shared with the input segments.
func MapX(segments []Series, fn func(int64) int64) []Series {
	out := make([]Series, 0, len(segments))
	for _, seg := range segments {
		mapped := make([]int64, len(seg.X))
		for i, x := range seg.X {
			mapped[i] = fn(x)
		}
		out = append(out, Series{X: mapped, Y: seg.Y})
	}
	return out
}
