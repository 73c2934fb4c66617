package units

import "testing"

func TestParseTimeUnit(t *testing.T) {
	tests := []struct {
		in   string
		want TimeUnit
	}{
		{"ns", Nanoseconds},
		{"nanoseconds", Nanoseconds},
		{"us", Microseconds},
		{"ms", Milliseconds},
		{"MILLISECONDS", Milliseconds},
		{" s ", Seconds},
		{"sec", Seconds},
		{"m", Minutes},
		{"minute", Minutes},
		{"h", Hours},
		{"hours", Hours},
		{"d", Days},
		{"day", Days},
	}
	for _, tt := range tests {
		got, err := ParseTimeUnit(tt.in)
		if err != nil {
			t.Errorf("ParseTimeUnit(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeUnit(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseTimeUnit("fortnight"); err == nil {
		t.Error("ParseTimeUnit(fortnight) expected error")
	}
}

func TestTimeUnitNanos(t *testing.T) {
	if got := Seconds.Nanos(); got != 1_000_000_000 {
		t.Errorf("Seconds.Nanos() = %d", got)
	}
	if got := Days.Nanos(); got != 86_400_000_000_000 {
		t.Errorf("Days.Nanos() = %d", got)
	}
}

func TestTimeUnitString(t *testing.T) {
	if got := Milliseconds.String(); got != "ms" {
		t.Errorf("Milliseconds.String() = %q", got)
	}
	if got := TimeUnit(99).String(); got != "TimeUnit(99)" {
		t.Errorf("TimeUnit(99).String() = %q", got)
	}
}

func TestTimeWindowBucket(t *testing.T) {
	w := TimeWindow{Quantity: 15, Unit: Minutes}
	width := int64(15) * 60_000_000_000

	tests := []struct {
		ts   int64
		want int64
	}{
		{0, 0},
		{width - 1, 0},
		{width, 1},
		{3*width + 5, 3},
	}
	for _, tt := range tests {
		if got := w.Bucket(tt.ts); got != tt.want {
			t.Errorf("Bucket(%d) = %d, want %d", tt.ts, got, tt.want)
		}
	}
}

func TestTimeWindowBucketStart(t *testing.T) {
	w := TimeWindow{Quantity: 1, Unit: Hours}
	for _, ts := range []int64{0, 1, 3_599_999_999_999, 3_600_000_000_000, 7_300_000_000_000} {
		bin := w.Bucket(ts)
		start := w.BucketStart(bin)
		if start > ts {
			t.Errorf("BucketStart(%d) = %d exceeds timestamp %d", bin, start, ts)
		}
		if w.Bucket(start) != bin {
			t.Errorf("Bucket(BucketStart(%d)) = %d", bin, w.Bucket(start))
		}
	}
}

func TestDurationsToUnit(t *testing.T) {
	got := DurationsToUnit([]uint64{1_500_000_000, 250_000_000}, Seconds)
	want := []float64{1.5, 0.25}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DurationsToUnit[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	ms := DurationsToUnit([]int64{2_000_000}, Milliseconds)
	if ms[0] != 2.0 {
		t.Errorf("DurationsToUnit ms = %v, want 2", ms[0])
	}
}

func TestEpochToChartMillis(t *testing.T) {
	got := EpochToChartMillis([]int64{1_000_000, 1_500_000})
	if got[0] != 1.0 || got[1] != 1.5 {
		t.Errorf("EpochToChartMillis = %v", got)
	}
}
