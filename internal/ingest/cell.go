package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// GetCell extracts the cell at row and column (0-based) from a CSV file.
// When hasHeaders is true the header line is not counted as a row.
func GetCell(path string, row, column int, delimiter rune, hasHeaders bool) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	if hasHeaders {
		if _, err := reader.Read(); err != nil {
			return "", fmt.Errorf("failed to read header: %w", err)
		}
	}

	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			return "", fmt.Errorf("row %d is beyond the end of %s", row, path)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read row %d: %w", i, err)
		}
		if i < row {
			continue
		}
		if column >= len(record) {
			return "", fmt.Errorf("row %d has %d columns, want column %d", row, len(record), column)
		}
		return record[column], nil
	}
}
