package sqlite

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// persistAll rewrites every JSONL file from the current database state.
// Children are written before parents so an interrupted rewrite leaves at
// worst orphans, which the loader skips.
func persistAll(q querier, dataDir string) error {
	for i := len(jsonlTableMapping) - 1; i >= 0; i-- {
		m := jsonlTableMapping[i]
		records, err := m.records(q)
		if err != nil {
			return fmt.Errorf("reading %s for persist: %w", m.table, err)
		}
		lines := make([]json.RawMessage, 0, len(records))
		for _, rec := range records {
			line, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encoding %s record: %w", m.table, err)
			}
			lines = append(lines, line)
		}
		if err := writeJSONL(filepath.Join(dataDir, m.file), lines); err != nil {
			return fmt.Errorf("persisting %s: %w", m.file, err)
		}
	}
	return nil
}

func blockRecords(q querier) ([]any, error) {
	rows, err := fetchBlocks(q, nil)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = dehydrateBlock(r)
	}
	return out, nil
}

func weekRecords(q querier) ([]any, error) {
	rows, err := fetchWeeks(q, nil)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = dehydrateWeek(r)
	}
	return out, nil
}

func dayRecords(q querier) ([]any, error) {
	rows, err := fetchDays(q, nil)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = dehydrateDay(r)
	}
	return out, nil
}

func raceRecords(q querier) ([]any, error) {
	rows, err := fetchRaces(q, nil)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = dehydrateRace(r)
	}
	return out, nil
}
