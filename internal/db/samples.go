package db

import (
	"fmt"

	"github.com/banshee-data/trace.report/internal/monitoring"
)

// sampleTables and sampleColumns are the tables and columns the plot layer
// may read. Table and column names arrive from configuration files, so they
// are checked against an allow list rather than interpolated blindly.
var sampleTables = map[string]bool{
	"executions":         true,
	"execution_overlap":  true,
	"active_query_count": true,
}

var sampleColumns = map[string]bool{
	"wallclock_time_ns": true,
	"overlap":           true,
	"overlap_count":     true,
	"count":             true,
}

// Samples reads a (timestamp, value) series from the named table and column
// in timestamp order, optionally restricted by tr and extraWhere.
func (db *DB) Samples(table, column string, tr *TimeRange, extraWhere string) ([]int64, []uint64, error) {
	if !sampleTables[table] {
		return nil, nil, fmt.Errorf("unknown sample table %q", table)
	}
	if !sampleColumns[column] {
		return nil, nil, fmt.Errorf("unknown sample column %q", column)
	}

	where, args := criteria(tr, extraWhere)
	query := fmt.Sprintf("SELECT timestamp, %s FROM %s%s ORDER BY timestamp", column, table, where)
	monitoring.Logf("executing query: %s", query)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var timestamps []int64
	var values []uint64
	for rows.Next() {
		var ts int64
		var v uint64
		if err := rows.Scan(&ts, &v); err != nil {
			return nil, nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		timestamps = append(timestamps, ts)
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	monitoring.Logf("loaded %d data points", len(timestamps))
	return timestamps, values, nil
}

// SamplesByGroup reads wallclock durations grouped by view_id or form_id
// (the groupColumn), in timestamp order within each group.
func (db *DB) SamplesByGroup(groupColumn string, tr *TimeRange, extraWhere string) (map[int64][]uint64, error) {
	if groupColumn != "view_id" && groupColumn != "form_id" {
		return nil, fmt.Errorf("unknown group column %q", groupColumn)
	}

	where, args := criteria(tr, extraWhere)
	if where == "" {
		where = fmt.Sprintf(" WHERE %s IS NOT NULL", groupColumn)
	} else {
		where += fmt.Sprintf(" AND %s IS NOT NULL", groupColumn)
	}
	query := fmt.Sprintf(
		"SELECT %s, wallclock_time_ns FROM executions%s ORDER BY timestamp", groupColumn, where)
	monitoring.Logf("executing query: %s", query)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grouped samples: %w", err)
	}
	defer rows.Close()

	byGroup := make(map[int64][]uint64)
	for rows.Next() {
		var id int64
		var wallclock uint64
		if err := rows.Scan(&id, &wallclock); err != nil {
			return nil, fmt.Errorf("failed to scan grouped sample: %w", err)
		}
		byGroup[id] = append(byGroup[id], wallclock)
	}
	return byGroup, rows.Err()
}

// DurationVsOverlap pairs each execution's wallclock duration with its
// accumulated overlap, per view. The two slices per view are parallel.
type DurationVsOverlap struct {
	Durations []uint64
	Overlaps  []uint64
}

// OverlapSamplesByView joins executions with their overlap records and
// groups the (duration, overlap) pairs by view. viewID restricts the result
// to one view when non-nil.
func (db *DB) OverlapSamplesByView(viewID *int64, tr *TimeRange) (map[int64]DurationVsOverlap, error) {
	query := `SELECT e.view_id, e.wallclock_time_ns, o.overlap
		FROM executions e
		JOIN execution_overlap o ON o.timestamp = e.timestamp AND o.ordinal = e.ordinal
		WHERE e.view_id IS NOT NULL`
	var args []interface{}
	if viewID != nil {
		query += " AND e.view_id = ?"
		args = append(args, *viewID)
	}
	if tr != nil {
		if tr.Start != nil {
			query += " AND e.timestamp >= ?"
			args = append(args, *tr.Start)
		}
		if tr.End != nil {
			query += " AND e.timestamp < ?"
			args = append(args, *tr.End)
		}
	}
	query += " ORDER BY e.timestamp, e.ordinal"
	monitoring.Logf("executing query: %s", query)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlap samples: %w", err)
	}
	defer rows.Close()

	byView := make(map[int64]DurationVsOverlap)
	for rows.Next() {
		var id int64
		var duration, ov uint64
		if err := rows.Scan(&id, &duration, &ov); err != nil {
			return nil, fmt.Errorf("failed to scan overlap sample: %w", err)
		}
		entry := byView[id]
		entry.Durations = append(entry.Durations, duration)
		entry.Overlaps = append(entry.Overlaps, ov)
		byView[id] = entry
	}
	return byView, rows.Err()
}
