// Package overlap implements a single-pass sweep over start-time-ordered
// execution intervals. For every interval it accumulates how much wall-clock
// time the interval spent running concurrently with other intervals and how
// many distinct intervals it overlapped with, and it records the number of
// simultaneously active intervals at every interval boundary.
package overlap

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnsorted reports input not ordered by (start time, ordinal). Tolerating
// unsorted input would silently corrupt overlap accounting, so the sweep
// stops at the first offending interval.
var ErrUnsorted = errors.New("intervals are not sorted by (start_time, ordinal)")

// ErrNegativeDuration reports an interval whose duration is negative.
var ErrNegativeDuration = errors.New("interval has negative duration")

// Interval is one timed execution delivered to the sweep. Ordinal breaks
// ties between intervals sharing the same start time and must be unique
// within a start time.
type Interval struct {
	StartTime int64 // nanoseconds since epoch
	Ordinal   uint32
	Duration  int64 // nanoseconds, >= 0
}

// Result is the finalized accounting for one interval. Results are emitted
// in non-decreasing end-time order, which is generally not input order.
type Result struct {
	StartTime    int64
	Ordinal      uint32
	EndTime      int64
	Overlap      uint64 // cumulative nanoseconds spent overlapping partners
	OverlapCount uint32 // number of distinct overlap partners
}

// CountSample is one point on the active-interval-count timeline. One sample
// is emitted after every insertion and after every expiry, in non-decreasing
// timestamp order.
type CountSample struct {
	Timestamp int64
	Count     uint32
}

// active is a member of the sweep's working set. Its accumulators stay
// mutable until the sweep position reaches its end time.
type active struct {
	startTime    int64
	ordinal      uint32
	endTime      int64
	overlap      uint64
	overlapCount uint32
}

// Sweep processes intervals ordered by (start time, ordinal) and owns the
// active set exclusively. A Sweep is single-use: Push intervals in order,
// then Flush once. It is not safe for concurrent use, and does not need to
// be; independent input streams get independent Sweep values.
type Sweep struct {
	emit  func(Result)
	count func(CountSample)

	// activeSet is ordered by (endTime, ordinal). The composite key matters:
	// end times are not unique, and keying by end time alone would merge or
	// drop one of two intervals that happen to end at the same instant.
	activeSet []*active

	started     bool
	lastStart   int64
	lastOrdinal uint32
	flushed     bool
}

// NewSweep returns a sweep that hands finalized intervals to emit and
// active-count samples to count. Either callback may be nil to discard that
// output stream.
func NewSweep(emit func(Result), count func(CountSample)) *Sweep {
	if emit == nil {
		emit = func(Result) {}
	}
	if count == nil {
		count = func(CountSample) {}
	}
	return &Sweep{emit: emit, count: count}
}

// Push advances the sweep to iv.StartTime: it expires every active interval
// that has ended, attributes pairwise overlap between iv and each interval
// still active, and inserts iv into the active set.
func (s *Sweep) Push(iv Interval) error {
	if s.flushed {
		return errors.New("sweep already flushed")
	}
	if iv.Duration < 0 {
		return fmt.Errorf("%w: start=%d ordinal=%d duration=%d",
			ErrNegativeDuration, iv.StartTime, iv.Ordinal, iv.Duration)
	}
	if s.started {
		if iv.StartTime < s.lastStart ||
			(iv.StartTime == s.lastStart && iv.Ordinal <= s.lastOrdinal) {
			return fmt.Errorf("%w: (%d, %d) after (%d, %d)",
				ErrUnsorted, iv.StartTime, iv.Ordinal, s.lastStart, s.lastOrdinal)
		}
	}
	s.started = true
	s.lastStart = iv.StartTime
	s.lastOrdinal = iv.Ordinal

	s.expire(iv.StartTime)

	// Attribute overlap symmetrically with everything still active. Every
	// survivor ends strictly after iv starts, so the overlap is positive
	// except for zero-duration intervals. Each unordered pair meets exactly
	// once: here, when the later-starting member arrives.
	end := iv.StartTime + iv.Duration
	var initialOverlap uint64
	for _, a := range s.activeSet {
		o := min64(end, a.endTime) - max64(iv.StartTime, a.startTime)
		a.overlap += uint64(o)
		a.overlapCount++
		initialOverlap += uint64(o)
	}

	entry := &active{
		startTime:    iv.StartTime,
		ordinal:      iv.Ordinal,
		endTime:      end,
		overlap:      initialOverlap,
		overlapCount: uint32(len(s.activeSet)),
	}
	s.insert(entry)
	s.count(CountSample{Timestamp: iv.StartTime, Count: uint32(len(s.activeSet))})
	return nil
}

// Flush finalizes every remaining active interval in end-time order. Must be
// called exactly once, after the last Push.
func (s *Sweep) Flush() {
	if s.flushed {
		return
	}
	s.flushed = true
	for len(s.activeSet) > 0 {
		s.pop()
	}
}

// expire removes every active interval with endTime <= now, oldest end time
// first. Each removal finalizes the interval and emits one count sample at
// that interval's end time with the post-removal count, so several
// expirations at the same instant each produce their own decreasing sample.
func (s *Sweep) expire(now int64) {
	for len(s.activeSet) > 0 && s.activeSet[0].endTime <= now {
		s.pop()
	}
}

func (s *Sweep) pop() {
	a := s.activeSet[0]
	s.activeSet = s.activeSet[1:]
	s.emit(Result{
		StartTime:    a.startTime,
		Ordinal:      a.ordinal,
		EndTime:      a.endTime,
		Overlap:      a.overlap,
		OverlapCount: a.overlapCount,
	})
	s.count(CountSample{Timestamp: a.endTime, Count: uint32(len(s.activeSet))})
}

// insert places entry into the active set keeping (endTime, ordinal) order.
func (s *Sweep) insert(entry *active) {
	i := sort.Search(len(s.activeSet), func(i int) bool {
		a := s.activeSet[i]
		if a.endTime != entry.endTime {
			return a.endTime > entry.endTime
		}
		return a.ordinal > entry.ordinal
	})
	s.activeSet = append(s.activeSet, nil)
	copy(s.activeSet[i+1:], s.activeSet[i:])
	s.activeSet[i] = entry
}

// Run sweeps a complete input slice and collects both output streams.
func Run(intervals []Interval) ([]Result, []CountSample, error) {
	results := make([]Result, 0, len(intervals))
	var counts []CountSample
	sweep := NewSweep(
		func(r Result) { results = append(results, r) },
		func(c CountSample) { counts = append(counts, c) },
	)
	for _, iv := range intervals {
		if err := sweep.Push(iv); err != nil {
			return nil, nil, err
		}
	}
	sweep.Flush()
	return results, counts, nil
}

// ToPercent normalises overlap against wall-clock duration, as a percentage.
// 100% is equivalent to executing concurrently with exactly one other
// interval for the entire execution time; with multiple simultaneous
// partners the value exceeds 100%. A zero duration yields NaN (its overlap
// is necessarily zero too); callers that feed the percentages into numeric
// analysis should drop such samples.
func ToPercent(durations, overlaps []uint64) ([]float64, error) {
	if len(durations) != len(overlaps) {
		return nil, fmt.Errorf("length mismatch: %d durations, %d overlaps", len(durations), len(overlaps))
	}
	out := make([]float64, len(durations))
	for i := range durations {
		out[i] = float64(overlaps[i]) / float64(durations[i]) * 100.0
	}
	return out, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
