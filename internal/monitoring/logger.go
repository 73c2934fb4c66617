// Package monitoring carries the replaceable diagnostic logger shared by the
// batch commands, plus a progress reporter for long row scans.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Progress reports row-scan progress through Logf. It logs every interval
// rows and once more at completion when Done is called.
type Progress struct {
	label    string
	total    int64
	interval int64
	seen     int64
}

// NewProgress returns a progress reporter for total rows (0 if unknown),
// logging every interval rows.
func NewProgress(label string, total, interval int64) *Progress {
	if interval <= 0 {
		interval = 100_000
	}
	return &Progress{label: label, total: total, interval: interval}
}

// Inc counts one processed row.
func (p *Progress) Inc() {
	p.seen++
	if p.seen%p.interval != 0 {
		return
	}
	if p.total > 0 {
		Logf("%s: %d/%d rows", p.label, p.seen, p.total)
		return
	}
	Logf("%s: %d rows", p.label, p.seen)
}

// Done logs the final row count.
func (p *Progress) Done() {
	Logf("%s: finished, %d rows", p.label, p.seen)
}
