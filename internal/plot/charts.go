package plot

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trace.report/internal/db"
	"github.com/banshee-data/trace.report/internal/overlap"
	"github.com/banshee-data/trace.report/internal/stats"
	"github.com/banshee-data/trace.report/internal/units"
)

// RenderHTML builds every chart in the configuration and renders them as a
// single HTML page.
func RenderHTML(d *db.DB, cfg *Config, w io.Writer) error {
	page := components.NewPage()

	for i := range cfg.Plots {
		spec := &cfg.Plots[i]
		switch spec.Type {
		case "time_scatter", "count_scatter":
			line, err := buildSeriesChart(d, cfg, spec)
			if err != nil {
				return fmt.Errorf("plot %d (%s): %w", i, spec.Type, err)
			}
			page.AddCharts(line)
		case "overlap":
			hm, err := buildOverlapHeatmap(d, cfg, spec)
			if err != nil {
				return fmt.Errorf("plot %d (overlap): %w", i, err)
			}
			page.AddCharts(hm)
		default:
			return fmt.Errorf("plot %d: unknown plot type %q", i, spec.Type)
		}
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// loadSeries reads and filters the sample series a scatter spec points at.
func loadSeries(d *db.DB, cfg *Config, spec *Spec) ([]int64, []uint64, error) {
	tr, err := cfg.Filter.TimeRange()
	if err != nil {
		return nil, nil, err
	}
	var extraWhere string
	if cfg.Filter != nil {
		extraWhere = cfg.Filter.SQLWhere
	}

	table, column := spec.Table, spec.Column
	if table == "" {
		if spec.Type == "count_scatter" {
			table, column = "active_query_count", "count"
		} else {
			table, column = "executions", "wallclock_time_ns"
		}
	}

	timestamps, values, err := d.Samples(table, column, tr, extraWhere)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Filter != nil && cfg.Filter.WorkHours {
		timestamps, values = stats.Workday(timestamps, values)
	}
	return timestamps, values, nil
}

// buildSeriesChart renders one aggregated line per (aggregation, segment).
// Gap segments become separate series so the chart never draws a connecting
// line across missing windows.
func buildSeriesChart(d *db.DB, cfg *Config, spec *Spec) (*charts.Line, error) {
	timestamps, values, err := loadSeries(d, cfg, spec)
	if err != nil {
		return nil, err
	}

	window, err := spec.window()
	if err != nil {
		return nil, err
	}
	modes, err := spec.aggregations()
	if err != nil {
		return nil, err
	}
	unit, err := spec.displayUnit()
	if err != nil {
		return nil, err
	}
	// Counts are unitless; durations are converted for display.
	convert := spec.Type == "time_scatter"

	yName := "count"
	if convert {
		yName = unit.String()
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: spec.Title, Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time", Name: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)

	for _, mode := range modes {
		segments, err := AggregateSeries(timestamps, values, window, spec.MinCount, mode)
		if err != nil {
			return nil, err
		}
		for i, seg := range segments {
			y := seg.Y
			if convert {
				y = units.DurationsToUnit(seg.Y, unit)
			}
			x := units.EpochToChartMillis(seg.X)

			data := make([]opts.LineData, len(x))
			for j := range x {
				data[j] = opts.LineData{Value: []interface{}{x[j], y[j]}}
			}
			name := mode.String()
			if i > 0 {
				name = fmt.Sprintf("%s (%d)", mode, i+1)
			}
			line.AddSeries(name, data)
		}
	}
	return line, nil
}

// buildOverlapHeatmap renders a log-scaled 2D histogram of execution
// duration against overlap percentage.
func buildOverlapHeatmap(d *db.DB, cfg *Config, spec *Spec) (*charts.HeatMap, error) {
	tr, err := cfg.Filter.TimeRange()
	if err != nil {
		return nil, err
	}
	byView, err := d.OverlapSamplesByView(spec.ViewID, tr)
	if err != nil {
		return nil, err
	}

	var durations, overlaps []uint64
	for _, samples := range byView {
		durations = append(durations, samples.Durations...)
		overlaps = append(overlaps, samples.Overlaps...)
	}
	if len(durations) == 0 {
		return nil, fmt.Errorf("no overlap samples; run compute-overlap first")
	}

	percent, err := overlap.ToPercent(durations, overlaps)
	if err != nil {
		return nil, err
	}
	seconds := units.DurationsToSeconds(durations)

	xBins, yBins := spec.XBins, spec.YBins
	if xBins <= 0 {
		xBins = 256
	}
	if yBins <= 0 {
		yBins = 256
	}
	xLabels, yLabels, counts := histogram2D(seconds, percent, xBins, yBins)

	data := make([]opts.HeatMapData, 0, xBins*yBins)
	maxZ := 0.0
	for xi := range counts {
		for yi, n := range counts[xi] {
			if n == 0 {
				continue
			}
			// Log scale emphasises sparse cells.
			z := math.Log1p(float64(n))
			if z > maxZ {
				maxZ = z
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{xi, yi, z}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: spec.Title, Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "duration (s)", Data: xLabels}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "overlap (%)", Data: yLabels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxZ),
			InRange:    &opts.VisualMapInRange{Color: []string{"black", "white", "orange", "red"}},
		}),
	)
	hm.AddSeries("overlap", data)
	return hm, nil
}

// histogram2D bins (x, y) pairs onto an xBins by yBins grid and returns the
// axis labels (bin lower bounds) and the per-cell counts.
func histogram2D(x, y []float64, xBins, yBins int) ([]string, []string, [][]int64) {
	xMin, xMax := minMax(x)
	yMin, yMax := minMax(y)

	xSize := (xMax - xMin) / float64(xBins)
	ySize := (yMax - yMin) / float64(yBins)

	counts := make([][]int64, xBins)
	for i := range counts {
		counts[i] = make([]int64, yBins)
	}
	for i := range x {
		xi := clampBin(x[i], xMin, xSize, xBins)
		yi := clampBin(y[i], yMin, ySize, yBins)
		counts[xi][yi]++
	}

	xLabels := make([]string, xBins)
	for i := range xLabels {
		xLabels[i] = fmt.Sprintf("%.3g", xMin+float64(i)*xSize)
	}
	yLabels := make([]string, yBins)
	for i := range yLabels {
		yLabels[i] = fmt.Sprintf("%.3g", yMin+float64(i)*ySize)
	}
	return xLabels, yLabels, counts
}

func clampBin(v, min, size float64, bins int) int {
	if size <= 0 {
		return 0
	}
	bin := int((v - min) / size)
	if bin < 0 {
		bin = 0
	}
	if bin >= bins {
		bin = bins - 1
	}
	return bin
}

func minMax(values []float64) (float64, float64) {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
