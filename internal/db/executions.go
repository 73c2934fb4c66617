package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Execution is one raw interval record: an operation that started at
// Timestamp (epoch ns) and ran for WallclockNS nanoseconds. Ordinal breaks
// ties between executions sharing a timestamp.
type Execution struct {
	Timestamp   int64
	Ordinal     uint32
	ViewID      sql.NullInt64
	FormID      sql.NullInt64
	WallclockNS int64
	SQLText     sql.NullString
	ImportRun   string
}

// InsertExecutions writes a batch of execution records inside one
// transaction.
func (db *DB) InsertExecutions(executions []Execution) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO executions
		(timestamp, ordinal, view_id, form_id, wallclock_time_ns, sql_text, import_run)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range executions {
		if _, err := stmt.Exec(e.Timestamp, e.Ordinal, e.ViewID, e.FormID,
			e.WallclockNS, e.SQLText, e.ImportRun); err != nil {
			return fmt.Errorf("failed to insert execution (%d, %d): %w", e.Timestamp, e.Ordinal, err)
		}
	}
	return tx.Commit()
}

// ImportExecutions writes a batch of execution records inside one
// transaction, assigning each ordinal as one past the largest already stored
// for its timestamp. Rows inserted earlier in the same transaction are
// visible to the subselect, so a timestamp that repeats within the batch,
// contiguously or not, gets consecutive ordinals, and a later import
// continues where a previous one left off.
func (db *DB) ImportExecutions(executions []Execution) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO executions
		(timestamp, ordinal, view_id, form_id, wallclock_time_ns, sql_text, import_run)
		VALUES (?,
			COALESCE((SELECT MAX(ordinal) FROM executions WHERE timestamp = ?), -1) + 1,
			?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range executions {
		if _, err := stmt.Exec(e.Timestamp, e.Timestamp, e.ViewID, e.FormID,
			e.WallclockNS, e.SQLText, e.ImportRun); err != nil {
			return fmt.Errorf("failed to insert execution at %d: %w", e.Timestamp, err)
		}
	}
	return tx.Commit()
}

// CountExecutions returns the number of execution records.
func (db *DB) CountExecutions() (int64, error) {
	var count int64
	if err := db.QueryRow("SELECT count(1) FROM executions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count executions: %w", err)
	}
	return count, nil
}

// StreamExecutions reads every execution in (timestamp, ordinal) order and
// hands each to fn. Iteration stops at the first error from fn.
func (db *DB) StreamExecutions(fn func(timestamp int64, ordinal uint32, wallclockNS int64) error) error {
	rows, err := db.Query(
		"SELECT timestamp, ordinal, wallclock_time_ns FROM executions ORDER BY timestamp, ordinal")
	if err != nil {
		return fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts, wallclock int64
		var ordinal uint32
		if err := rows.Scan(&ts, &ordinal, &wallclock); err != nil {
			return fmt.Errorf("failed to scan execution: %w", err)
		}
		if err := fn(ts, ordinal, wallclock); err != nil {
			return err
		}
	}
	return rows.Err()
}

// RecordImportRun stores one row per imported source file.
func (db *DB) RecordImportRun(id, source string, rowCount int64) error {
	_, err := db.Exec(
		"INSERT INTO import_runs (id, source, rows) VALUES (?, ?, ?)", id, source, rowCount)
	if err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}
	return nil
}

// TimeRange restricts sample queries to [Start, End) epoch nanoseconds.
// A nil bound leaves that side open.
type TimeRange struct {
	Start *int64
	End   *int64
}

// criteria assembles WHERE conditions for a timestamp column plus an
// optional extra SQL condition supplied by configuration.
func criteria(tr *TimeRange, extraWhere string) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if tr != nil {
		if tr.Start != nil {
			conds = append(conds, "timestamp >= ?")
			args = append(args, *tr.Start)
		}
		if tr.End != nil {
			conds = append(conds, "timestamp < ?")
			args = append(args, *tr.End)
		}
	}
	if extraWhere != "" {
		conds = append(conds, "("+extraWhere+")")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
