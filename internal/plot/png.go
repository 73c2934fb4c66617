package plot

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/trace.report/internal/db"
	"github.com/banshee-data/trace.report/internal/monitoring"
	"github.com/banshee-data/trace.report/internal/units"
)

// RenderPNGs renders each scatter plot in the configuration as its own PNG
// file next to the configured output path. Heatmap plots need the HTML
// renderer.
func RenderPNGs(d *db.DB, cfg *Config, outputPath string) error {
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))

	for i := range cfg.Plots {
		spec := &cfg.Plots[i]
		if spec.Type == "overlap" {
			return fmt.Errorf("plot %d: overlap heatmaps require the html renderer", i)
		}

		path := fmt.Sprintf("%s-%d.png", base, i)
		if err := renderSeriesPNG(d, cfg, spec, path); err != nil {
			return fmt.Errorf("plot %d (%s): %w", i, spec.Type, err)
		}
		monitoring.Logf("wrote %s", path)
	}
	return nil
}

func renderSeriesPNG(d *db.DB, cfg *Config, spec *Spec, path string) error {
	timestamps, values, err := loadSeries(d, cfg, spec)
	if err != nil {
		return err
	}
	window, err := spec.window()
	if err != nil {
		return err
	}
	modes, err := spec.aggregations()
	if err != nil {
		return err
	}
	unit, err := spec.displayUnit()
	if err != nil {
		return err
	}
	convert := spec.Type == "time_scatter"

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = "time"
	p.X.Tick.Marker = plot.TimeTicks{Format: time.RFC3339}
	if convert {
		p.Y.Label.Text = unit.String()
	} else {
		p.Y.Label.Text = "count"
	}

	for _, mode := range modes {
		segments, err := AggregateSeries(timestamps, values, window, spec.MinCount, mode)
		if err != nil {
			return err
		}
		for _, seg := range segments {
			y := seg.Y
			if convert {
				y = units.DurationsToUnit(seg.Y, unit)
			}
			pts := make(plotter.XYs, len(seg.X))
			for j := range seg.X {
				// gonum's TimeTicks expect seconds since epoch.
				pts[j].X = float64(seg.X[j]) / 1e9
				pts[j].Y = y[j]
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return fmt.Errorf("failed to build line: %w", err)
			}
			p.Add(line)
		}
		p.Legend.Add(mode.String())
	}

	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
