package stats

import "time"

// Workday keeps only the samples whose timestamp falls inside work hours,
// defined as 08:00 to 17:00 local time on weekdays. The two slices are
// parallel; the filtered pair is returned.
func Workday[T any](timestamps []int64, values []T) ([]int64, []T) {
	outTS := make([]int64, 0, len(timestamps))
	outVals := make([]T, 0, len(values))
	for i, ts := range timestamps {
		if isWorkHours(ts) {
			outTS = append(outTS, ts)
			outVals = append(outVals, values[i])
		}
	}
	return outTS, outVals
}

func isWorkHours(ns int64) bool {
	local := time.Unix(0, ns)
	hour := local.Hour()
	weekday := local.Weekday()
	return hour >= 8 && hour < 17 && weekday != time.Saturday && weekday != time.Sunday
}
