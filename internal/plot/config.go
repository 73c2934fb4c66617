// Package plot turns stored trace series into charts: binned time scatter
// plots, active-count plots, and duration-vs-overlap heatmaps. Chart
// descriptions are loaded from a YAML configuration file.
package plot

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/banshee-data/trace.report/internal/db"
	"github.com/banshee-data/trace.report/internal/stats"
	"github.com/banshee-data/trace.report/internal/units"
)

// Filter restricts which samples a plot reads.
type Filter struct {
	// Start and End are full or partial datetimes ("2024-03-01",
	// "2024-03-01 14:00"). A partial datetime is interpreted as the start
	// of the period it denotes.
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
	// SQLWhere is an extra SQL condition appended to the sample query.
	SQLWhere string `mapstructure:"sql_where"`
	// WorkHours keeps only samples from 08:00-17:00 local time on weekdays.
	WorkHours bool `mapstructure:"work_hours"`
}

// Window is a YAML-friendly time window, e.g. {quantity: 15, unit: m}.
type Window struct {
	Quantity int64  `mapstructure:"quantity"`
	Unit     string `mapstructure:"unit"`
}

// Spec describes one chart.
type Spec struct {
	// Type is one of "time_scatter", "count_scatter" or "overlap".
	Type  string `mapstructure:"type"`
	Title string `mapstructure:"title"`

	// Table and Column select the sample series for scatter plots.
	Table  string `mapstructure:"table"`
	Column string `mapstructure:"column"`

	// Window and MinCount control binning; bins with fewer samples are
	// dropped.
	Window   Window `mapstructure:"window"`
	MinCount int    `mapstructure:"min_count"`

	// Aggregations lists the per-bin statistics to draw (mean, median, q3,
	// ...). Defaults to median.
	Aggregations []string `mapstructure:"aggregations"`

	// Unit converts nanosecond y values for display. Defaults to seconds.
	Unit string `mapstructure:"unit"`

	// ViewID restricts an overlap heatmap to one view.
	ViewID *int64 `mapstructure:"view_id"`
	// XBins and YBins size the overlap histogram. Default 256 each.
	XBins int `mapstructure:"x_bins"`
	YBins int `mapstructure:"y_bins"`
}

// Config is a complete plot configuration file.
type Config struct {
	Database string  `mapstructure:"database"`
	Output   string  `mapstructure:"output"`
	Renderer string  `mapstructure:"renderer"` // "html" (default) or "png"
	Filter   *Filter `mapstructure:"filter"`
	Plots    []Spec  `mapstructure:"plots"`
}

// Load reads a YAML plot configuration.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read plot config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse plot config %s: %w", path, err)
	}

	if cfg.Database == "" {
		return nil, fmt.Errorf("plot config %s: database is required", path)
	}
	if len(cfg.Plots) == 0 {
		return nil, fmt.Errorf("plot config %s: no plots defined", path)
	}
	if cfg.Renderer == "" {
		cfg.Renderer = "html"
	}
	if cfg.Renderer != "html" && cfg.Renderer != "png" {
		return nil, fmt.Errorf("plot config %s: unknown renderer %q", path, cfg.Renderer)
	}
	return &cfg, nil
}

// TimeRange converts the filter bounds to a query range. The inclusive end
// of a partial datetime is extended to the end of the period it denotes.
func (f *Filter) TimeRange() (*db.TimeRange, error) {
	if f == nil {
		return nil, nil
	}
	var tr db.TimeRange
	if f.Start != "" {
		start, _, err := units.ParseDateTimeRange(f.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid filter start: %w", err)
		}
		tr.Start = &start
	}
	if f.End != "" {
		_, end, err := units.ParseDateTimeRange(f.End)
		if err != nil {
			return nil, fmt.Errorf("invalid filter end: %w", err)
		}
		tr.End = &end
	}
	if tr.Start == nil && tr.End == nil {
		return nil, nil
	}
	return &tr, nil
}

// window converts the YAML window to a units.TimeWindow, defaulting to one
// hour.
func (s *Spec) window() (units.TimeWindow, error) {
	if s.Window.Quantity == 0 && s.Window.Unit == "" {
		return units.TimeWindow{Quantity: 1, Unit: units.Hours}, nil
	}
	unit, err := units.ParseTimeUnit(s.Window.Unit)
	if err != nil {
		return units.TimeWindow{}, fmt.Errorf("invalid window unit: %w", err)
	}
	quantity := s.Window.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	return units.TimeWindow{Quantity: quantity, Unit: unit}, nil
}

// aggregations parses the requested aggregation modes, defaulting to median.
func (s *Spec) aggregations() ([]stats.Aggregation, error) {
	if len(s.Aggregations) == 0 {
		return []stats.Aggregation{stats.AggMedian}, nil
	}
	modes := make([]stats.Aggregation, 0, len(s.Aggregations))
	for _, name := range s.Aggregations {
		mode, err := stats.ParseAggregation(name)
		if err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

// displayUnit parses the y-axis unit, defaulting to seconds.
func (s *Spec) displayUnit() (units.TimeUnit, error) {
	if s.Unit == "" {
		return units.Seconds, nil
	}
	return units.ParseTimeUnit(s.Unit)
}
