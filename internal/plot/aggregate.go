package plot

import (
	"fmt"

	"github.com/banshee-data/trace.report/internal/stats"
	"github.com/banshee-data/trace.report/internal/units"
)

// AggregateSeries bins a timestamp-ordered sample series into time windows,
// summarises each bin, extracts one statistic per bin, and splits the result
// at bin gaps. Segment x values are the timestamps at which each window
// starts.
func AggregateSeries(timestamps []int64, values []uint64, window units.TimeWindow,
	minCount int, mode stats.Aggregation) ([]stats.Series, error) {

	bins, grouped, err := stats.GroupByX(timestamps, values, minCount, window.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to bin samples: %w", err)
	}
	if len(bins) == 0 {
		return nil, nil
	}

	stats.SortBins(grouped)
	records := stats.PerBin(grouped)
	y := stats.Extract(records, mode)

	segments := stats.SplitGaps(bins, y)
	return stats.MapX(segments, window.BucketStart), nil
}
