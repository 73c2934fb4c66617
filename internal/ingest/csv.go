// Package ingest imports CSV trace exports into the trace database.
package ingest

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/trace.report/internal/db"
	"github.com/banshee-data/trace.report/internal/monitoring"
)

// column names recognised in trace CSV headers. timestamp and
// wallclock_time_ns are required; the rest are optional.
const (
	colTimestamp = "timestamp"
	colWallclock = "wallclock_time_ns"
	colViewID    = "view_id"
	colFormID    = "form_id"
	colSQL       = "sql"
)

// batchSize bounds the number of rows buffered before a transactional
// insert.
const batchSize = 10_000

// ImportFile imports one CSV trace file and records an import run. Returns
// the number of imported rows.
func ImportFile(d *db.DB, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	runID := uuid.NewString()
	rows, err := importRecords(d, f, runID)
	if err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", path, err)
	}
	if err := d.RecordImportRun(runID, path, rows); err != nil {
		return 0, err
	}
	monitoring.Logf("imported %d rows from %s (run %s)", rows, path, runID)
	return rows, nil
}

// ImportDirs imports every .csv file under the given directories.
func ImportDirs(d *db.DB, sources []string) (int64, error) {
	var total int64
	for _, source := range sources {
		err := filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
				return nil
			}
			n, err := ImportFile(d, path)
			if err != nil {
				return err
			}
			total += n
			return nil
		})
		if err != nil {
			return total, fmt.Errorf("failed to import from %s: %w", source, err)
		}
	}
	return total, nil
}

// importRecords parses header-mapped CSV records and inserts them in
// batches. Ordinals are assigned by the store, continuing from whatever is
// already recorded per timestamp, so rows sharing a timestamp stay
// distinguishable across batches and across imports.
func importRecords(d *db.DB, r io.Reader, runID string) (int64, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	fields := make(map[string]int, len(header))
	for i, name := range header {
		fields[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colTimestamp, colWallclock} {
		if _, ok := fields[required]; !ok {
			return 0, fmt.Errorf("missing required column %q", required)
		}
	}

	var batch []db.Execution
	var total int64
	progress := monitoring.NewProgress("import", 0, 100_000)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := d.ImportExecutions(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		ts, err := parseTimestamp(record[fields[colTimestamp]])
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		wallclock, err := strconv.ParseInt(strings.TrimSpace(record[fields[colWallclock]]), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("line %d: invalid wallclock_time_ns: %w", line, err)
		}
		if wallclock < 0 {
			return 0, fmt.Errorf("line %d: negative wallclock_time_ns %d", line, wallclock)
		}

		exec := db.Execution{
			Timestamp:   ts,
			WallclockNS: wallclock,
			ImportRun:   runID,
		}

		if idx, ok := fields[colViewID]; ok {
			exec.ViewID, err = parseNullableID(record[idx])
			if err != nil {
				return 0, fmt.Errorf("line %d: invalid view_id: %w", line, err)
			}
		}
		if idx, ok := fields[colFormID]; ok {
			exec.FormID, err = parseNullableID(record[idx])
			if err != nil {
				return 0, fmt.Errorf("line %d: invalid form_id: %w", line, err)
			}
		}
		if idx, ok := fields[colSQL]; ok {
			if text := record[idx]; text != "" {
				exec.SQLText = sql.NullString{String: text, Valid: true}
			}
		}

		batch = append(batch, exec)
		total++
		progress.Inc()
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}
	progress.Done()
	return total, nil
}

// parseTimestamp accepts epoch nanoseconds or an RFC3339 datetime.
func parseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if ns, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ns, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	return t.UnixNano(), nil
}

func parseNullableID(s string) (sql.NullInt64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullInt64{}, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}
