// Package units provides the closed set of time units used for bucketing
// timestamps into windows and converting nanosecond durations for display.
package units

import (
	"fmt"
	"strings"
)

// TimeUnit is one of the supported time units. The set is fixed and small,
// so per-unit behavior is dispatched on the value rather than through
// closures.
type TimeUnit int

const (
	Nanoseconds TimeUnit = iota
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
)

// nanosPer maps each unit to its length in nanoseconds.
var nanosPer = [...]int64{
	Nanoseconds:  1,
	Microseconds: 1_000,
	Milliseconds: 1_000_000,
	Seconds:      1_000_000_000,
	Minutes:      60_000_000_000,
	Hours:        3_600_000_000_000,
	Days:         86_400_000_000_000,
}

var unitNames = [...]string{
	Nanoseconds:  "ns",
	Microseconds: "us",
	Milliseconds: "ms",
	Seconds:      "s",
	Minutes:      "m",
	Hours:        "h",
	Days:         "d",
}

// ParseTimeUnit maps a configuration string to a TimeUnit. Both short ("ms")
// and long ("milliseconds") spellings are accepted.
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ns", "nanosecond", "nanoseconds":
		return Nanoseconds, nil
	case "us", "microsecond", "microseconds":
		return Microseconds, nil
	case "ms", "millisecond", "milliseconds":
		return Milliseconds, nil
	case "s", "sec", "second", "seconds":
		return Seconds, nil
	case "m", "min", "minute", "minutes":
		return Minutes, nil
	case "h", "hour", "hours":
		return Hours, nil
	case "d", "day", "days":
		return Days, nil
	}
	return 0, fmt.Errorf("unknown time unit %q", s)
}

// String returns the short spelling of the unit.
func (u TimeUnit) String() string {
	if u < Nanoseconds || u > Days {
		return fmt.Sprintf("TimeUnit(%d)", int(u))
	}
	return unitNames[u]
}

// Nanos returns the length of one unit in nanoseconds.
func (u TimeUnit) Nanos() int64 {
	if u < Nanoseconds || u > Days {
		panic(fmt.Sprintf("invalid time unit %d", int(u)))
	}
	return nanosPer[u]
}

// TimeWindow is a bucketing window of Quantity units, e.g. {15, Minutes}.
type TimeWindow struct {
	Quantity int64
	Unit     TimeUnit
}

// Bucket maps an epoch-nanosecond timestamp to its window index.
func (w TimeWindow) Bucket(ts int64) int64 {
	return ts / (w.Quantity * w.Unit.Nanos())
}

// BucketStart is the inverse of Bucket: the timestamp at which the given
// window starts.
func (w TimeWindow) BucketStart(bin int64) int64 {
	return bin * w.Quantity * w.Unit.Nanos()
}

// DurationsToUnit converts nanosecond durations to the given unit as
// float64 values.
func DurationsToUnit[T ~int64 | ~uint64 | ~float64](durations []T, unit TimeUnit) []float64 {
	factor := float64(unit.Nanos())
	out := make([]float64, len(durations))
	for i, d := range durations {
		out[i] = float64(d) / factor
	}
	return out
}

// DurationsToSeconds converts nanosecond durations to seconds.
func DurationsToSeconds[T ~int64 | ~uint64 | ~float64](durations []T) []float64 {
	return DurationsToUnit(durations, Seconds)
}

// EpochToChartMillis converts epoch-nanosecond timestamps to fractional
// milliseconds, the time axis convention the chart layer expects.
func EpochToChartMillis(timestamps []int64) []float64 {
	out := make([]float64, len(timestamps))
	for i, ts := range timestamps {
		out[i] = float64(ts) / 1_000_000.0
	}
	return out
}
