package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/banshee-data/trace.report/internal/db"
	"github.com/banshee-data/trace.report/internal/ingest"
	"github.com/banshee-data/trace.report/internal/monitoring"
	"github.com/banshee-data/trace.report/internal/overlap"
	"github.com/banshee-data/trace.report/internal/plot"
	"github.com/banshee-data/trace.report/internal/sqlnorm"
	"github.com/banshee-data/trace.report/internal/stats"
	"github.com/banshee-data/trace.report/internal/units"
)

// openDatabase opens the trace database and brings the schema up to date.
func openDatabase(path string) (*db.DB, error) {
	d, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := d.MigrateUp(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// parseRange turns optional -start/-end flag values into a query range.
// Partial datetimes widen naturally: -end 2024-03 covers all of March.
func parseRange(start, end string) (*db.TimeRange, error) {
	var tr db.TimeRange
	if start != "" {
		lo, _, err := units.ParseDateTimeRange(start)
		if err != nil {
			return nil, fmt.Errorf("invalid -start: %w", err)
		}
		tr.Start = &lo
	}
	if end != "" {
		_, hi, err := units.ParseDateTimeRange(end)
		if err != nil {
			return nil, fmt.Errorf("invalid -end: %w", err)
		}
		tr.End = &hi
	}
	if tr.Start == nil && tr.End == nil {
		return nil, nil
	}
	return &tr, nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: tracetool import <database> <source>...")
	}

	d, err := openDatabase(fs.Arg(0))
	if err != nil {
		return err
	}
	defer d.Close()

	var total int64
	for _, source := range fs.Args()[1:] {
		info, err := os.Stat(source)
		if err != nil {
			return err
		}
		var n int64
		if info.IsDir() {
			n, err = ingest.ImportDirs(d, []string{source})
		} else {
			n, err = ingest.ImportFile(d, source)
		}
		if err != nil {
			return err
		}
		total += n
	}
	monitoring.Logf("import complete: %d rows", total)
	return nil
}

func runComputeOverlap(args []string) error {
	fs := flag.NewFlagSet("compute-overlap", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: tracetool compute-overlap <database>")
	}

	d, err := openDatabase(fs.Arg(0))
	if err != nil {
		return err
	}
	defer d.Close()

	total, err := d.CountExecutions()
	if err != nil {
		return err
	}

	writer, err := d.NewSweepWriter()
	if err != nil {
		return err
	}

	progress := monitoring.NewProgress("compute-overlap", total, 100_000)
	sweep := overlap.NewSweep(writer.WriteResult, writer.WriteCount)
	err = d.StreamExecutions(func(ts int64, ordinal uint32, wallclockNS int64) error {
		progress.Inc()
		return sweep.Push(overlap.Interval{StartTime: ts, Ordinal: ordinal, Duration: wallclockNS})
	})
	if err != nil {
		writer.Rollback()
		return err
	}
	sweep.Flush()
	progress.Done()
	return writer.Commit()
}

// minPCASamples is the smallest per-view sample count worth shape analysis;
// smaller groups give unstable covariance estimates.
const minPCASamples = 20

func runOverlapPCA(args []string) error {
	fs := flag.NewFlagSet("overlap-pca", flag.ExitOnError)
	start := fs.String("start", "", "start of time period")
	end := fs.String("end", "", "end of time period")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: tracetool overlap-pca [-start t] [-end t] <database>")
	}

	tr, err := parseRange(*start, *end)
	if err != nil {
		return err
	}

	d, err := openDatabase(fs.Arg(0))
	if err != nil {
		return err
	}
	defer d.Close()

	byView, err := d.OverlapSamplesByView(nil, tr)
	if err != nil {
		return err
	}

	type viewShape struct {
		viewID        int64
		samples       int
		q3            float64
		varianceRatio float64
	}
	results := make([]viewShape, 0, len(byView))

	for viewID, samples := range byView {
		if len(samples.Durations) < minPCASamples {
			continue
		}
		percent, err := overlap.ToPercent(samples.Durations, samples.Overlaps)
		if err != nil {
			return err
		}
		durations := stats.Float64s(samples.Durations)

		shape, err := stats.ComputeShape(durations, percent)
		if err != nil {
			return fmt.Errorf("view %d: %w", viewID, err)
		}

		sorted := append([]float64(nil), durations...)
		sort.Float64s(sorted)
		summary := stats.Compute(sorted)

		results = append(results, viewShape{
			viewID:        viewID,
			samples:       len(durations),
			q3:            summary.Q3,
			varianceRatio: shape.VarianceRatio,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].varianceRatio < results[j].varianceRatio
	})

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"view ID", "sample count", "Q3 (ms)", "variance ratio"}); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			strconv.FormatInt(r.viewID, 10),
			strconv.Itoa(r.samples),
			strconv.FormatFloat(r.q3/1e6, 'f', -1, 64),
			strconv.FormatFloat(r.varianceRatio, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// runGroupStatistics prints per-view or per-form duration statistics as CSV,
// ranked ascending by Q3.
func runGroupStatistics(args []string, groupColumn, label string) error {
	fs := flag.NewFlagSet(label, flag.ExitOnError)
	start := fs.String("start", "", "start of time period")
	end := fs.String("end", "", "end of time period")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: tracetool %s-statistics [-start t] [-end t] <database>",
			groupColumn[:4])
	}

	tr, err := parseRange(*start, *end)
	if err != nil {
		return err
	}

	d, err := openDatabase(fs.Arg(0))
	if err != nil {
		return err
	}
	defer d.Close()

	byGroup, err := d.SamplesByGroup(groupColumn, tr, "")
	if err != nil {
		return err
	}

	monitoring.Logf("calculating statistics for %d groups", len(byGroup))
	type groupStats struct {
		id      int64
		summary stats.Statistics[float64]
	}
	results := make([]groupStats, 0, len(byGroup))
	for id, values := range byGroup {
		seconds := units.DurationsToSeconds(values)
		sort.Float64s(seconds)
		results = append(results, groupStats{id: id, summary: stats.Compute(seconds)})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].summary.Q3 < results[j].summary.Q3
	})

	w := csv.NewWriter(os.Stdout)
	header := []string{label, "count", "min", "max", "mean", "median", "Q1", "Q3", "IQR", "standard deviation"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		s := r.summary
		record := []string{
			strconv.FormatInt(r.id, 10),
			strconv.Itoa(s.Count),
			strconv.FormatFloat(s.Min, 'f', -1, 64),
			strconv.FormatFloat(s.Max, 'f', -1, 64),
			strconv.FormatFloat(s.Mean, 'f', -1, 64),
			strconv.FormatFloat(s.Median, 'f', -1, 64),
			strconv.FormatFloat(s.Q1, 'f', -1, 64),
			strconv.FormatFloat(s.Q3, 'f', -1, 64),
			strconv.FormatFloat(s.IQR, 'f', -1, 64),
			strconv.FormatFloat(s.StdDev, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func runPlot(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: tracetool plot <config.yaml>")
	}

	cfg, err := plot.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	d, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer d.Close()

	output := cfg.Output
	if output == "" {
		output = "plots.html"
	}

	if cfg.Renderer == "png" {
		return plot.RenderPNGs(d, cfg, output)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer f.Close()
	if err := plot.RenderHTML(d, cfg, f); err != nil {
		return err
	}
	monitoring.Logf("wrote %s", output)
	return nil
}

func runConvertUnit(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tracetool convert-unit <value>")
	}
	out, err := units.ConvertValue(args[0])
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runGetCell(args []string) error {
	fs := flag.NewFlagSet("get-cell", flag.ExitOnError)
	delimiter := fs.String("delimiter", ",", "CSV delimiter")
	headers := fs.Bool("headers", false, "the CSV file has a header row")
	fs.Parse(args)
	if fs.NArg() != 3 {
		return fmt.Errorf("usage: tracetool get-cell [-delimiter d] [-headers] <file> <row> <column>")
	}
	row, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("invalid row: %w", err)
	}
	column, err := strconv.Atoi(fs.Arg(2))
	if err != nil {
		return fmt.Errorf("invalid column: %w", err)
	}
	if len(*delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character")
	}

	cell, err := ingest.GetCell(fs.Arg(0), row, column, rune((*delimiter)[0]), *headers)
	if err != nil {
		return err
	}
	fmt.Println(cell)
	return nil
}

func runNormalizeSQL(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: tracetool normalize-sql < query.sql")
	}
	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	normalized, err := sqlnorm.Normalize(string(input))
	if err != nil {
		return err
	}
	fmt.Println(normalized)
	return nil
}

func runBuildViewSQLIndex(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tracetool build-view-sql-index <database>")
	}

	d, err := openDatabase(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	sources, err := d.ViewSQLSources()
	if err != nil {
		return err
	}

	indexed := 0
	for viewID, text := range sources {
		normalized, err := sqlnorm.Normalize(text)
		if err != nil {
			monitoring.Logf("skipping view %d: %v", viewID, err)
			continue
		}
		if err := d.UpsertViewSQL(viewID, normalized); err != nil {
			return err
		}
		indexed++
	}
	monitoring.Logf("indexed %d views", indexed)
	return nil
}

func runMatchQueryView(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tracetool match-query-view <database> < query.sql")
	}

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	normalized, err := sqlnorm.Normalize(string(input))
	if err != nil {
		return err
	}

	d, err := openDatabase(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	ids, err := d.MatchViews(normalized)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no matching views")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func runMigrate(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: tracetool migrate <database> <up|down|status|force <v>|to <v>>")
	}

	d, err := db.Open(args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	switch action := args[1]; action {
	case "up":
		if err := d.MigrateUp(); err != nil {
			return err
		}
	case "down":
		if err := d.MigrateDown(); err != nil {
			return err
		}
	case "status":
		version, dirty, err := d.MigrateVersion()
		if err != nil {
			return err
		}
		fmt.Printf("version: %d dirty: %v\n", version, dirty)
		return nil
	case "force":
		if len(args) != 3 {
			return fmt.Errorf("usage: tracetool migrate <database> force <version>")
		}
		version, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		if err := d.MigrateForce(version); err != nil {
			return err
		}
	case "to":
		if len(args) != 3 {
			return fmt.Errorf("usage: tracetool migrate <database> to <version>")
		}
		version, err := strconv.ParseUint(args[2], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		if err := d.MigrateTo(uint(version)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}

	version, dirty, err := d.MigrateVersion()
	if err != nil {
		return err
	}
	monitoring.Logf("migration complete: version %d (dirty: %v)", version, dirty)
	return nil
}
