package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trace.report/internal/overlap"
	"github.com/banshee-data/trace.report/internal/testutil"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	handle, err := Open(testutil.TempDBPath(t))
	require.NoError(t, err)
	t.Cleanup(func() { handle.Close() })
	require.NoError(t, handle.MigrateUp())
	return handle
}

func someInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

func someString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestMigrateUpIdempotent(t *testing.T) {
	handle := openTestDB(t)
	require.NoError(t, handle.MigrateUp())

	version, dirty, err := handle.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(3), version)
}

func TestMigrateDown(t *testing.T) {
	handle := openTestDB(t)
	require.NoError(t, handle.MigrateDown())

	version, dirty, err := handle.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)
}

func TestInsertAndStreamExecutions(t *testing.T) {
	handle := openTestDB(t)

	// Deliberately out of storage order: the stream must come back sorted by
	// (timestamp, ordinal).
	executions := []Execution{
		{Timestamp: 200, Ordinal: 1, WallclockNS: 10, ImportRun: "run-1"},
		{Timestamp: 100, Ordinal: 2, WallclockNS: 20, ImportRun: "run-1"},
		{Timestamp: 100, Ordinal: 1, WallclockNS: 30, ViewID: someInt64(7), ImportRun: "run-1"},
	}
	require.NoError(t, handle.InsertExecutions(executions))

	count, err := handle.CountExecutions()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	type row struct {
		ts      int64
		ordinal uint32
		ns      int64
	}
	var got []row
	err = handle.StreamExecutions(func(ts int64, ordinal uint32, ns int64) error {
		got = append(got, row{ts, ordinal, ns})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []row{{100, 1, 30}, {100, 2, 20}, {200, 1, 10}}, got)
}

func TestImportExecutionsAssignsOrdinals(t *testing.T) {
	handle := openTestDB(t)

	// Timestamp 100 appears twice with timestamp 200 in between; the store
	// continues its ordinal sequence anyway.
	first := []Execution{
		{Timestamp: 100, WallclockNS: 1, ImportRun: "a"},
		{Timestamp: 200, WallclockNS: 2, ImportRun: "a"},
		{Timestamp: 100, WallclockNS: 3, ImportRun: "a"},
	}
	require.NoError(t, handle.ImportExecutions(first))

	// A second batch reusing both timestamps continues where the first
	// left off instead of colliding on the primary key.
	second := []Execution{
		{Timestamp: 100, WallclockNS: 4, ImportRun: "b"},
		{Timestamp: 200, WallclockNS: 5, ImportRun: "b"},
	}
	require.NoError(t, handle.ImportExecutions(second))

	type row struct {
		ts      int64
		ordinal uint32
		ns      int64
	}
	var got []row
	err := handle.StreamExecutions(func(ts int64, ordinal uint32, ns int64) error {
		got = append(got, row{ts, ordinal, ns})
		return nil
	})
	require.NoError(t, err)
	want := []row{
		{100, 0, 1}, {100, 1, 3}, {100, 2, 4},
		{200, 0, 2}, {200, 1, 5},
	}
	assert.Equal(t, want, got)
}

func TestInsertExecutionsDuplicateKey(t *testing.T) {
	handle := openTestDB(t)

	first := []Execution{{Timestamp: 1, Ordinal: 1, WallclockNS: 5, ImportRun: "a"}}
	require.NoError(t, handle.InsertExecutions(first))

	dup := []Execution{{Timestamp: 1, Ordinal: 1, WallclockNS: 9, ImportRun: "b"}}
	assert.Error(t, handle.InsertExecutions(dup))

	// The failed batch must not leave partial rows behind.
	count, err := handle.CountExecutions()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRecordImportRun(t *testing.T) {
	handle := openTestDB(t)
	require.NoError(t, handle.RecordImportRun("run-id", "file.csv", 42))

	var source string
	var rowCount int64
	err := handle.QueryRow("SELECT source, rows FROM import_runs WHERE id = ?", "run-id").
		Scan(&source, &rowCount)
	require.NoError(t, err)
	assert.Equal(t, "file.csv", source)
	assert.Equal(t, int64(42), rowCount)
}

func TestSweepWriterRoundTrip(t *testing.T) {
	handle := openTestDB(t)

	writer, err := handle.NewSweepWriter()
	require.NoError(t, err)

	writer.WriteResult(overlap.Result{StartTime: 0, Ordinal: 1, EndTime: 10, Overlap: 5, OverlapCount: 1})
	writer.WriteResult(overlap.Result{StartTime: 5, Ordinal: 1, EndTime: 15, Overlap: 8, OverlapCount: 2})
	writer.WriteCount(overlap.CountSample{Timestamp: 0, Count: 1})
	writer.WriteCount(overlap.CountSample{Timestamp: 15, Count: 1})
	writer.WriteCount(overlap.CountSample{Timestamp: 15, Count: 0})
	require.NoError(t, writer.Commit())

	timestamps, overlaps, err := handle.Samples("execution_overlap", "overlap", nil, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 5}, timestamps)
	assert.Equal(t, []uint64{5, 8}, overlaps)

	// Count samples sharing a timestamp resolve last-write-wins.
	timestamps, counts, err := handle.Samples("active_query_count", "count", nil, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 15}, timestamps)
	assert.Equal(t, []uint64{1, 0}, counts)
}

func TestSweepWriterReplacesPreviousRun(t *testing.T) {
	handle := openTestDB(t)

	writer, err := handle.NewSweepWriter()
	require.NoError(t, err)
	writer.WriteResult(overlap.Result{StartTime: 1, Ordinal: 1, EndTime: 2, Overlap: 0})
	require.NoError(t, writer.Commit())

	writer, err = handle.NewSweepWriter()
	require.NoError(t, err)
	writer.WriteResult(overlap.Result{StartTime: 9, Ordinal: 1, EndTime: 10, Overlap: 3})
	require.NoError(t, writer.Commit())

	timestamps, _, err := handle.Samples("execution_overlap", "overlap", nil, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, timestamps)
}

func TestSweepWriterRollback(t *testing.T) {
	handle := openTestDB(t)

	writer, err := handle.NewSweepWriter()
	require.NoError(t, err)
	writer.WriteResult(overlap.Result{StartTime: 1, Ordinal: 1, EndTime: 2})
	require.NoError(t, writer.Rollback())

	timestamps, _, err := handle.Samples("execution_overlap", "overlap", nil, "")
	require.NoError(t, err)
	assert.Empty(t, timestamps)
}

func TestSamplesTimeRangeAndFilter(t *testing.T) {
	handle := openTestDB(t)

	executions := []Execution{
		{Timestamp: 10, Ordinal: 1, WallclockNS: 1, ImportRun: "r"},
		{Timestamp: 20, Ordinal: 1, WallclockNS: 2, ImportRun: "r"},
		{Timestamp: 30, Ordinal: 1, WallclockNS: 3, ImportRun: "r"},
	}
	require.NoError(t, handle.InsertExecutions(executions))

	start, end := int64(15), int64(30)
	timestamps, values, err := handle.Samples("executions", "wallclock_time_ns",
		&TimeRange{Start: &start, End: &end}, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{20}, timestamps)
	assert.Equal(t, []uint64{2}, values)

	timestamps, _, err = handle.Samples("executions", "wallclock_time_ns", nil,
		"wallclock_time_ns >= 2")
	require.NoError(t, err)
	assert.Equal(t, []int64{20, 30}, timestamps)
}

func TestSamplesRejectsUnknownNames(t *testing.T) {
	handle := openTestDB(t)

	_, _, err := handle.Samples("sqlite_master", "count", nil, "")
	assert.Error(t, err)
	_, _, err = handle.Samples("executions", "sql_text", nil, "")
	assert.Error(t, err)
}

func TestSamplesByGroup(t *testing.T) {
	handle := openTestDB(t)

	executions := []Execution{
		{Timestamp: 1, Ordinal: 1, WallclockNS: 10, ViewID: someInt64(7), ImportRun: "r"},
		{Timestamp: 2, Ordinal: 1, WallclockNS: 20, ViewID: someInt64(7), ImportRun: "r"},
		{Timestamp: 3, Ordinal: 1, WallclockNS: 30, ViewID: someInt64(8), ImportRun: "r"},
		{Timestamp: 4, Ordinal: 1, WallclockNS: 40, ImportRun: "r"}, // no view
	}
	require.NoError(t, handle.InsertExecutions(executions))

	byView, err := handle.SamplesByGroup("view_id", nil, "")
	require.NoError(t, err)
	assert.Equal(t, map[int64][]uint64{7: {10, 20}, 8: {30}}, byView)

	_, err = handle.SamplesByGroup("import_run", nil, "")
	assert.Error(t, err)
}

func TestOverlapSamplesByView(t *testing.T) {
	handle := openTestDB(t)

	executions := []Execution{
		{Timestamp: 1, Ordinal: 1, WallclockNS: 100, ViewID: someInt64(7), ImportRun: "r"},
		{Timestamp: 2, Ordinal: 1, WallclockNS: 200, ViewID: someInt64(8), ImportRun: "r"},
		{Timestamp: 3, Ordinal: 1, WallclockNS: 300, ImportRun: "r"},
	}
	require.NoError(t, handle.InsertExecutions(executions))

	writer, err := handle.NewSweepWriter()
	require.NoError(t, err)
	writer.WriteResult(overlap.Result{StartTime: 1, Ordinal: 1, EndTime: 101, Overlap: 50, OverlapCount: 1})
	writer.WriteResult(overlap.Result{StartTime: 2, Ordinal: 1, EndTime: 202, Overlap: 60, OverlapCount: 1})
	writer.WriteResult(overlap.Result{StartTime: 3, Ordinal: 1, EndTime: 303, Overlap: 70, OverlapCount: 1})
	require.NoError(t, writer.Commit())

	byView, err := handle.OverlapSamplesByView(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[int64]DurationVsOverlap{
		7: {Durations: []uint64{100}, Overlaps: []uint64{50}},
		8: {Durations: []uint64{200}, Overlaps: []uint64{60}},
	}, byView)

	only := int64(7)
	byView, err = handle.OverlapSamplesByView(&only, nil)
	require.NoError(t, err)
	require.Len(t, byView, 1)
	assert.Equal(t, []uint64{50}, byView[7].Overlaps)
}

func TestViewSQLIndex(t *testing.T) {
	handle := openTestDB(t)

	executions := []Execution{
		{Timestamp: 1, Ordinal: 1, WallclockNS: 1, ViewID: someInt64(7),
			SQLText: someString("SELECT Id FROM Users"), ImportRun: "r"},
		{Timestamp: 2, Ordinal: 1, WallclockNS: 1, ViewID: someInt64(8), ImportRun: "r"},
	}
	require.NoError(t, handle.InsertExecutions(executions))

	sources, err := handle.ViewSQLSources()
	require.NoError(t, err)
	// View 8 has no recorded SQL and is skipped.
	assert.Equal(t, map[int64]string{7: "SELECT Id FROM Users"}, sources)

	require.NoError(t, handle.UpsertViewSQL(7, "select id from users"))
	require.NoError(t, handle.UpsertViewSQL(7, "select id from users")) // replace is fine

	ids, err := handle.MatchViews("select id from users")
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)

	ids, err = handle.MatchViews("select nothing")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
