// JSONL loading for startup.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// jsonlTableMapping maps JSONL files to their SQLite tables and column
// lists. Parents come before children: rows load in this order and are
// persisted in reverse.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
	records func(q querier) ([]any, error)
}{
	{blocksJSONL, "blocks", []string{"block_id", "name", "start_date"}, blockRecords},
	{weeksJSONL, "weeks", []string{"week_id", "block_id", "week_number", "goal"}, weekRecords},
	{daysJSONL, "days", []string{"day_id", "date", "day_number", "miles", "block_id", "week_id"}, dayRecords},
	{racesJSONL, "races", []string{"race_id", "day_id", "miles", "name", "url", "block_id"}, raceRecords},
}

// loadAllJSONL reads each JSONL file from dataDir and inserts its records
// into the matching table, then repairs weeks left incomplete by an
// interrupted write. Loading is transactional. Rows that are malformed or
// violate a constraint (an orphan day, a second block with the same name)
// are skipped. It reports whether the repair pass changed anything.
func loadAllJSONL(db *sql.DB, dataDir string, log *zap.Logger) (bool, error) {
	var repaired bool
	err := runInTx(db, func(tx *sql.Tx) error {
		for _, mapping := range jsonlTableMapping {
			path := filepath.Join(dataDir, mapping.file)
			records, err := readJSONL(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", mapping.file, err)
			}
			if len(records) == 0 {
				continue
			}
			skipped, err := insertRecords(tx, mapping.table, mapping.columns, records)
			if err != nil {
				return fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
			}
			if skipped > 0 {
				log.Warn("skipped unloadable records",
					zap.String("file", mapping.file),
					zap.Int("skipped", skipped),
				)
			}
		}

		n, err := repairWeeks(tx, log)
		if err != nil {
			return err
		}
		repaired = n > 0
		return nil
	})
	return repaired, err
}

// insertRecords inserts parsed JSONL records into a SQLite table. Only the
// listed columns are extracted, so unknown fields are ignored. It returns
// the number of records skipped.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) (int, error) {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	skipped := 0
	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			skipped++
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = obj[col]
		}

		if _, err := stmt.Exec(args...); err != nil {
			skipped++
			continue
		}
	}
	return skipped, nil
}
