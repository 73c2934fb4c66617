package db

import "fmt"

// UpsertViewSQL stores the normalized SQL for a view, replacing any previous
// entry.
func (db *DB) UpsertViewSQL(viewID int64, normalized string) error {
	_, err := db.Exec(
		"INSERT OR REPLACE INTO view_sql (view_id, normalized_sql) VALUES (?, ?)",
		viewID, normalized)
	if err != nil {
		return fmt.Errorf("failed to upsert view sql for view %d: %w", viewID, err)
	}
	return nil
}

// ViewSQLSources yields one representative raw SQL text per view, for
// building the normalized index. Views without recorded SQL are skipped.
func (db *DB) ViewSQLSources() (map[int64]string, error) {
	rows, err := db.Query(`SELECT view_id, sql_text FROM executions
		WHERE view_id IS NOT NULL AND sql_text IS NOT NULL
		GROUP BY view_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query view sql sources: %w", err)
	}
	defer rows.Close()

	sources := make(map[int64]string)
	for rows.Next() {
		var id int64
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("failed to scan view sql source: %w", err)
		}
		sources[id] = text
	}
	return sources, rows.Err()
}

// MatchViews returns the view IDs whose indexed normalized SQL equals the
// given normalized query.
func (db *DB) MatchViews(normalized string) ([]int64, error) {
	rows, err := db.Query(
		"SELECT view_id FROM view_sql WHERE normalized_sql = ? ORDER BY view_id", normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to match views: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan view id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
