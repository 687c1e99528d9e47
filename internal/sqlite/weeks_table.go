package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/miles/pkg/types"
)

const weekColumns = "week_id, block_id, week_number, goal"

var weekFilters = filterColumns{
	"week_id":     filterText,
	"block_id":    filterText,
	"week_number": filterInt,
}

func scanWeek(s scanner) (*types.Week, error) {
	var w types.Week
	if err := s.Scan(&w.WeekID, &w.BlockID, &w.WeekNumber, &w.Goal); err != nil {
		return nil, noRows(err)
	}
	return &w, nil
}

func getWeek(q querier, id string) (*types.Week, error) {
	w, err := scanWeek(q.QueryRow("SELECT "+weekColumns+" FROM weeks WHERE week_id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("getting week %s: %w", id, err)
	}
	return w, nil
}

func setWeek(q querier, id string, data any) (string, error) {
	w, ok := data.(*types.Week)
	if !ok || w == nil {
		return "", types.ErrInvalidData
	}
	if w.BlockID == "" {
		return "", fmt.Errorf("%w: week without block", types.ErrInvalidData)
	}
	if w.WeekNumber < 1 || w.WeekNumber > types.MaxWeeks {
		return "", fmt.Errorf("%w: week number %d", types.ErrInvalidData, w.WeekNumber)
	}
	if w.Goal < 0 {
		return "", fmt.Errorf("%w: negative goal", types.ErrInvalidData)
	}

	id = resolveID(id, w.WeekID)
	_, err := q.Exec(`INSERT INTO weeks (week_id, block_id, week_number, goal) VALUES (?, ?, ?, ?)
	  ON CONFLICT(week_id) DO UPDATE SET block_id = excluded.block_id,
	    week_number = excluded.week_number, goal = excluded.goal`,
		id, w.BlockID, w.WeekNumber, w.Goal)
	if err != nil {
		return "", fmt.Errorf("saving week %d: %w", w.WeekNumber, constraintError(err))
	}
	w.WeekID = id
	return id, nil
}

// fetchWeeks returns weeks ordered by block then week number.
func fetchWeeks(q querier, filter types.Filter) ([]*types.Week, error) {
	where, args, err := weekFilters.where(filter)
	if err != nil {
		return nil, err
	}
	rows, err := queryRows(q, "SELECT "+weekColumns+" FROM weeks"+where+" ORDER BY block_id, week_number", args, scanWeek)
	if err != nil {
		return nil, fmt.Errorf("fetching weeks: %w", err)
	}
	return rows, nil
}
