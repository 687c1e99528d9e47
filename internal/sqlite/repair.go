package sqlite

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/miles/pkg/types"
)

// repairWeeks removes every week that does not own exactly seven days.
// The week's surviving days are detached, races on them lose their block,
// and detached days that no race uses are dropped. It returns the number
// of weeks removed.
func repairWeeks(tx *sql.Tx, log *zap.Logger) (int, error) {
	rows, err := tx.Query(`SELECT w.week_id, w.block_id, w.week_number,
	    (SELECT COUNT(*) FROM days d WHERE d.week_id = w.week_id)
	  FROM weeks w
	  WHERE (SELECT COUNT(*) FROM days d WHERE d.week_id = w.week_id) <> ?`, types.DaysPerWeek)
	if err != nil {
		return 0, fmt.Errorf("finding incomplete weeks: %w", err)
	}
	type broken struct {
		weekID, blockID string
		number, days    int
	}
	var weeks []broken
	for rows.Next() {
		var w broken
		if err := rows.Scan(&w.weekID, &w.blockID, &w.number, &w.days); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning incomplete week: %w", err)
		}
		weeks = append(weeks, w)
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, w := range weeks {
		stmts := []string{
			`UPDATE races SET block_id = NULL
			  WHERE day_id IN (SELECT day_id FROM days WHERE week_id = ?)`,
			`UPDATE days SET week_id = NULL, block_id = NULL, day_number = 0
			  WHERE week_id = ?`,
			`DELETE FROM weeks WHERE week_id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt, w.weekID); err != nil {
				return 0, fmt.Errorf("repairing week %s: %w", w.weekID, err)
			}
		}
		log.Warn("removed incomplete week",
			zap.String("week_id", w.weekID),
			zap.String("block_id", w.blockID),
			zap.Int("week_number", w.number),
			zap.Int("days", w.days),
		)
	}

	if len(weeks) > 0 {
		if _, err := tx.Exec(`DELETE FROM days
		  WHERE week_id IS NULL
		    AND day_id NOT IN (SELECT day_id FROM races)`); err != nil {
			return 0, fmt.Errorf("dropping unused detached days: %w", err)
		}
	}
	return len(weeks), nil
}
