package plot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trace.report/internal/stats"
	"github.com/banshee-data/trace.report/internal/units"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plots.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database: trace.db
output: out
renderer: html
filter:
  start: "2024-03"
  end: "2024-04"
  work_hours: true
plots:
  - type: time_scatter
    title: Execution times
    table: executions
    column: wallclock_time_ns
    window:
      quantity: 15
      unit: m
    min_count: 5
    aggregations: [median, q3]
    unit: ms
  - type: overlap
    view_id: 7
    x_bins: 64
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "trace.db", cfg.Database)
	assert.Equal(t, "html", cfg.Renderer)
	require.NotNil(t, cfg.Filter)
	assert.True(t, cfg.Filter.WorkHours)
	require.Len(t, cfg.Plots, 2)

	spec := cfg.Plots[0]
	assert.Equal(t, "time_scatter", spec.Type)
	assert.Equal(t, "executions", spec.Table)
	assert.Equal(t, 5, spec.MinCount)

	window, err := spec.window()
	require.NoError(t, err)
	assert.Equal(t, units.TimeWindow{Quantity: 15, Unit: units.Minutes}, window)

	modes, err := spec.aggregations()
	require.NoError(t, err)
	assert.Equal(t, []stats.Aggregation{stats.AggMedian, stats.AggQ3}, modes)

	unit, err := spec.displayUnit()
	require.NoError(t, err)
	assert.Equal(t, units.Milliseconds, unit)

	heatmap := cfg.Plots[1]
	require.NotNil(t, heatmap.ViewID)
	assert.Equal(t, int64(7), *heatmap.ViewID)
	assert.Equal(t, 64, heatmap.XBins)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database: trace.db
plots:
  - type: count_scatter
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "html", cfg.Renderer)

	spec := cfg.Plots[0]
	window, err := spec.window()
	require.NoError(t, err)
	assert.Equal(t, units.TimeWindow{Quantity: 1, Unit: units.Hours}, window)

	modes, err := spec.aggregations()
	require.NoError(t, err)
	assert.Equal(t, []stats.Aggregation{stats.AggMedian}, modes)

	unit, err := spec.displayUnit()
	require.NoError(t, err)
	assert.Equal(t, units.Seconds, unit)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(writeConfig(t, "plots:\n  - type: overlap\n"))
	assert.Error(t, err) // missing database

	_, err = Load(writeConfig(t, "database: trace.db\n"))
	assert.Error(t, err) // no plots

	_, err = Load(writeConfig(t, "database: trace.db\nrenderer: svg\nplots:\n  - type: overlap\n"))
	assert.Error(t, err) // unknown renderer
}

func TestFilterTimeRange(t *testing.T) {
	f := &Filter{Start: "2024-03", End: "2024-03"}
	tr, err := f.TimeRange()
	require.NoError(t, err)
	require.NotNil(t, tr)

	wantStart, wantEnd, err := units.ParseDateTimeRange("2024-03")
	require.NoError(t, err)
	assert.Equal(t, wantStart, *tr.Start)
	// The end bound extends to the end of the denoted period.
	assert.Equal(t, wantEnd, *tr.End)

	tr, err = (&Filter{}).TimeRange()
	require.NoError(t, err)
	assert.Nil(t, tr)

	var nilFilter *Filter
	tr, err = nilFilter.TimeRange()
	require.NoError(t, err)
	assert.Nil(t, tr)

	_, err = (&Filter{Start: "whenever"}).TimeRange()
	assert.Error(t, err)
}
