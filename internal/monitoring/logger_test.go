package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	Logf("hello %d", 42)
	if len(lines) != 1 || lines[0] != "hello 42" {
		t.Errorf("captured lines = %v", lines)
	}
}

func TestProgress(t *testing.T) {
	defer SetLogger(nil)

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	p := NewProgress("scan", 0, 10)
	for i := 0; i < 25; i++ {
		p.Inc()
	}
	p.Done()

	want := []string{"scan: 10 rows", "scan: 20 rows", "scan: finished, 25 rows"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestProgressWithTotal(t *testing.T) {
	defer SetLogger(nil)

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	p := NewProgress("scan", 100, 50)
	for i := 0; i < 50; i++ {
		p.Inc()
	}
	if len(lines) != 1 || lines[0] != "scan: 50/100 rows" {
		t.Errorf("lines = %v", lines)
	}
}
