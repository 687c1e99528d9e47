package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/miles/pkg/types"
)

const dayColumns = "day_id, date, day_number, miles, block_id, week_id"

var dayFilters = filterColumns{
	"day_id":     filterText,
	"date":       filterDate,
	"day_number": filterInt,
	"block_id":   filterText,
	"week_id":    filterText,
}

func scanDay(s scanner) (*types.Day, error) {
	var (
		d               types.Day
		date            string
		blockID, weekID sql.NullString
	)
	if err := s.Scan(&d.DayID, &date, &d.DayNumber, &d.Miles, &blockID, &weekID); err != nil {
		return nil, noRows(err)
	}
	parsed, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	d.Date = parsed
	d.BlockID = blockID.String
	d.WeekID = weekID.String
	return &d, nil
}

func getDay(q querier, id string) (*types.Day, error) {
	d, err := scanDay(q.QueryRow("SELECT "+dayColumns+" FROM days WHERE day_id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("getting day %s: %w", id, err)
	}
	return d, nil
}

func setDay(q querier, id string, data any) (string, error) {
	d, ok := data.(*types.Day)
	if !ok || d == nil {
		return "", types.ErrInvalidData
	}
	if !d.Date.IsValid() {
		return "", fmt.Errorf("%w: invalid date", types.ErrInvalidData)
	}
	if d.Miles < 0 {
		return "", fmt.Errorf("%w: negative miles", types.ErrInvalidData)
	}
	if d.Detached() {
		if d.DayNumber != 0 || d.BlockID != "" {
			return "", fmt.Errorf("%w: detached day with block position", types.ErrInvalidData)
		}
	} else if d.DayNumber < 1 || d.DayNumber > types.DaysPerWeek || d.BlockID == "" {
		return "", fmt.Errorf("%w: day number %d", types.ErrInvalidData, d.DayNumber)
	}

	id = resolveID(id, d.DayID)
	_, err := q.Exec(`INSERT INTO days (day_id, date, day_number, miles, block_id, week_id)
	  VALUES (?, ?, ?, ?, ?, ?)
	  ON CONFLICT(day_id) DO UPDATE SET date = excluded.date, day_number = excluded.day_number,
	    miles = excluded.miles, block_id = excluded.block_id, week_id = excluded.week_id`,
		id, d.Date.String(), d.DayNumber, d.Miles, nullable(d.BlockID), nullable(d.WeekID))
	if err != nil {
		return "", fmt.Errorf("saving day %s: %w", d.Date, constraintError(err))
	}
	d.DayID = id
	return id, nil
}

// fetchDays returns days ordered by date, detached days first on a date.
func fetchDays(q querier, filter types.Filter) ([]*types.Day, error) {
	where, args, err := dayFilters.where(filter)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + dayColumns + " FROM days" + where + " ORDER BY date, day_number, day_id"
	rows, err := queryRows(q, query, args, scanDay)
	if err != nil {
		return nil, fmt.Errorf("fetching days: %w", err)
	}
	return rows, nil
}
