package db

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/trace.report/internal/overlap"
)

// SweepWriter streams sweep output into the database inside one transaction.
// Results land in execution_overlap; count samples land in
// active_query_count with last-write-wins semantics per timestamp, so when
// several boundary events share an instant the final count is the one kept.
type SweepWriter struct {
	tx        *sql.Tx
	insertOv  *sql.Stmt
	insertCnt *sql.Stmt
	err       error
}

// NewSweepWriter clears previous sweep output and prepares the insert
// statements. The caller must finish with Commit or Rollback.
func (db *DB) NewSweepWriter() (*SweepWriter, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Re-running the sweep replaces previous output entirely.
	for _, table := range []string{"execution_overlap", "active_query_count"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	insertOv, err := tx.Prepare(`INSERT INTO execution_overlap
		(timestamp, ordinal, overlap, overlap_count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to prepare overlap insert: %w", err)
	}
	insertCnt, err := tx.Prepare(`INSERT OR REPLACE INTO active_query_count
		(timestamp, count) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to prepare count insert: %w", err)
	}

	return &SweepWriter{tx: tx, insertOv: insertOv, insertCnt: insertCnt}, nil
}

// WriteResult records one finalized interval. Write errors are sticky and
// reported by Commit, which lets the writer be used directly as a sweep
// emit callback.
func (w *SweepWriter) WriteResult(r overlap.Result) {
	if w.err != nil {
		return
	}
	if _, err := w.insertOv.Exec(r.StartTime, r.Ordinal, r.Overlap, r.OverlapCount); err != nil {
		w.err = fmt.Errorf("failed to insert overlap (%d, %d): %w", r.StartTime, r.Ordinal, err)
	}
}

// WriteCount records one active-count timeline sample.
func (w *SweepWriter) WriteCount(c overlap.CountSample) {
	if w.err != nil {
		return
	}
	if _, err := w.insertCnt.Exec(c.Timestamp, c.Count); err != nil {
		w.err = fmt.Errorf("failed to insert active count at %d: %w", c.Timestamp, err)
	}
}

// Commit finishes the transaction, or rolls back and returns the first
// write error if any write failed.
func (w *SweepWriter) Commit() error {
	if w.err != nil {
		w.tx.Rollback()
		return w.err
	}
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sweep output: %w", err)
	}
	return nil
}

// Rollback abandons the transaction.
func (w *SweepWriter) Rollback() error {
	return w.tx.Rollback()
}
