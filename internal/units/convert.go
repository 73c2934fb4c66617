package units

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	durationPattern  = regexp.MustCompile(`^\s*(\d+)\s*([A-Za-z]+)\s*$`)
	timestampPattern = regexp.MustCompile(`^\s*(\d+)\s*$`)
)

// dateLayouts are the accepted datetime spellings, most precise first. A
// layout that omits trailing components denotes a range: "2024-03" means the
// whole month.
var dateLayouts = []struct {
	layout string
	span   func(t time.Time) time.Time
}{
	{"2006-01-02T15:04:05.999999999Z07:00", func(t time.Time) time.Time { return t }},
	{"2006-01-02 15:04:05", func(t time.Time) time.Time { return t }},
	{"2006-01-02 15:04", func(t time.Time) time.Time { return t.Add(time.Minute) }},
	{"2006-01-02", func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
	{"2006-01", func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }},
	{"2006", func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }},
}

// ParseDateTimeRange parses a full or partial datetime string and returns
// the nanosecond timestamps of the start (inclusive) and end (exclusive) of
// the period it denotes. A fully specified datetime yields start == end.
// Naive datetimes are interpreted in UTC.
func ParseDateTimeRange(s string) (start, end int64, err error) {
	for _, dl := range dateLayouts {
		t, perr := time.Parse(dl.layout, s)
		if perr != nil {
			continue
		}
		upper := dl.span(t)
		if upper.Equal(t) {
			return t.UnixNano(), t.UnixNano(), nil
		}
		return t.UnixNano(), upper.UnixNano(), nil
	}
	return 0, 0, fmt.Errorf("cannot parse %q as a datetime", s)
}

// ConvertValue interprets a manual query helper value: a datetime string
// becomes epoch nanoseconds (or a range for partial dates), a number with a
// unit suffix becomes a nanosecond duration, and a bare number is treated as
// an epoch-nanosecond timestamp and echoed back as UTC datetime.
func ConvertValue(value string) (string, error) {
	if start, end, err := ParseDateTimeRange(value); err == nil {
		if start == end {
			return strconv.FormatInt(start, 10), nil
		}
		return fmt.Sprintf("%d - %d\n(%s - %s)",
			start, end,
			time.Unix(0, start).UTC().Format(time.RFC3339),
			time.Unix(0, end).UTC().Format(time.RFC3339)), nil
	}

	if m := durationPattern.FindStringSubmatch(value); m != nil {
		quantity, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return "", fmt.Errorf("cannot parse quantity %q: %w", m[1], err)
		}
		unit, err := ParseTimeUnit(m[2])
		if err != nil {
			return "", err
		}
		factor := unit.Nanos()
		if quantity > 0 && quantity > (1<<63-1)/factor {
			return "", fmt.Errorf("%d%s overflows a nanosecond duration", quantity, m[2])
		}
		return fmt.Sprintf("%d nanoseconds", quantity*factor), nil
	}

	if m := timestampPattern.FindStringSubmatch(value); m != nil {
		ts, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return "", fmt.Errorf("cannot parse timestamp %q: %w", m[1], err)
		}
		return time.Unix(0, ts).UTC().Format(time.RFC3339Nano), nil
	}

	return "", fmt.Errorf("unable to parse %q as a timestamp or a duration", value)
}
