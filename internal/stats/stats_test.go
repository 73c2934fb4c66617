package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEmpty(t *testing.T) {
	s := Compute([]float64{})
	assert.Equal(t, 0, s.Count)
	assert.Zero(t, s.Mean)
	assert.Zero(t, s.Median)
	assert.Zero(t, s.StdDev)
}

func TestComputeSingleton(t *testing.T) {
	s := Compute([]int64{5})
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, int64(5), s.Min)
	assert.Equal(t, int64(5), s.Max)
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 5.0, s.Median)
	assert.Equal(t, 5.0, s.Q1)
	assert.Equal(t, 5.0, s.Q3)
	assert.Equal(t, 0.0, s.IQR)
	assert.Equal(t, 0.0, s.StdDev)
}

func TestComputeQuartileConvention(t *testing.T) {
	s := Compute([]int{1, 2, 3, 4, 5, 6, 7, 8})
	assert.Equal(t, 8, s.Count)
	assert.Equal(t, 4.5, s.Median)
	assert.Equal(t, 2.5, s.Q1)
	assert.Equal(t, 6.5, s.Q3)
	assert.Equal(t, 4.0, s.IQR)
	assert.Equal(t, 1, s.Min)
	assert.Equal(t, 8, s.Max)
	assert.Equal(t, 4.5, s.Mean)
}

func TestComputeOddLength(t *testing.T) {
	s := Compute([]float64{1, 2, 3, 4, 5})
	assert.Equal(t, 3.0, s.Median)
	// Halves exclude the middle element.
	assert.Equal(t, 1.5, s.Q1)
	assert.Equal(t, 4.5, s.Q3)
}

func TestComputeStdDevPopulation(t *testing.T) {
	// Variance of [2,4,4,4,5,5,7,9] is 4 with the population (divide by n)
	// convention.
	s := Compute([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 2.0, s.StdDev, 1e-12)
	assert.Equal(t, 5.0, s.Mean)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, Median([]int{1, 2, 3}))
	assert.Equal(t, 2.5, Median([]int{1, 2, 3, 4}))
	assert.Equal(t, 7.0, Median([]uint64{7}))
}

func TestKahanSumCompensation(t *testing.T) {
	// One large value followed by many tiny ones. A naive sum drops every
	// tiny term; the compensated sum keeps them.
	values := make([]float64, 0, 10_001)
	values = append(values, 1e16)
	for i := 0; i < 10_000; i++ {
		values = append(values, 0.5)
	}
	assert.InDelta(t, 1e16+5_000, KahanSum(values), 1.0)
}

func TestKahanSumIntegers(t *testing.T) {
	assert.Equal(t, 15.0, KahanSum([]int64{1, 2, 3, 4, 5}))
	assert.Equal(t, 0.0, KahanSum([]uint32{}))
}

func TestPerBin(t *testing.T) {
	records := PerBin([][]int64{{1, 2, 3}, {10}, {}})
	require.Len(t, records, 3)
	assert.Equal(t, 2.0, records[0].Median)
	assert.Equal(t, 10.0, records[1].Median)
	assert.Equal(t, 0, records[2].Count)
}

func TestSortBins(t *testing.T) {
	bins := [][]float64{{3, 1, 2}, {9, 7}}
	SortBins(bins)
	assert.Equal(t, []float64{1, 2, 3}, bins[0])
	assert.Equal(t, []float64{7, 9}, bins[1])
}

func TestParseAggregation(t *testing.T) {
	for _, name := range []string{"mean", "min", "q1", "median", "q3", "max", "count"} {
		mode, err := ParseAggregation(name)
		require.NoError(t, err)
		assert.Equal(t, name, mode.String())
	}
	_, err := ParseAggregation("p99")
	assert.Error(t, err)
}

func TestExtract(t *testing.T) {
	records := []Statistics[int64]{
		Compute([]int64{1, 2, 3, 4}),
		Compute([]int64{10, 20}),
	}
	assert.Equal(t, []float64{2.5, 15}, Extract(records, AggMedian))
	assert.Equal(t, []float64{1, 10}, Extract(records, AggMin))
	assert.Equal(t, []float64{4, 20}, Extract(records, AggMax))
	assert.Equal(t, []float64{4, 2}, Extract(records, AggCount))
}

func TestFloat64s(t *testing.T) {
	out := Float64s([]uint64{1, 2, 3})
	assert.Equal(t, []float64{1, 2, 3}, out)
}

func TestComputeLargeNanosecondValues(t *testing.T) {
	// Epoch-nanosecond scale inputs must not lose precision in the mean.
	base := int64(1_700_000_000_000_000_000)
	s := Compute([]int64{base, base + 2})
	assert.InDelta(t, float64(base+1), s.Mean, 1.0)
	assert.False(t, math.IsNaN(s.StdDev))
}
