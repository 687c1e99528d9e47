// Package records provides typed access to the training tables of a
// types.Tables view, either the backend itself or one transaction.
package records

import (
	"errors"
	"fmt"

	"github.com/golang-sql/civil"

	"github.com/mesh-intelligence/miles/pkg/types"
)

func fetch[T any](tables types.Tables, name string, filter types.Filter) ([]*T, error) {
	tbl, err := tables.GetTable(name)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Fetch(filter)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(rows))
	for _, r := range rows {
		v, ok := r.(*T)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected %T in %s", types.ErrInvalidData, r, name)
		}
		out = append(out, v)
	}
	return out, nil
}

func get[T any](tables types.Tables, name, id string) (*T, error) {
	tbl, err := tables.GetTable(name)
	if err != nil {
		return nil, err
	}
	row, err := tbl.Get(id)
	if err != nil {
		return nil, err
	}
	v, ok := row.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected %T in %s", types.ErrInvalidData, row, name)
	}
	return v, nil
}

func first[T any](rows []*T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

// Save writes an entity through the named table and returns its ID.
func Save(tables types.Tables, name string, entity any) (string, error) {
	tbl, err := tables.GetTable(name)
	if err != nil {
		return "", err
	}
	return tbl.Set("", entity)
}

// Remove deletes an entity by ID from the named table.
func Remove(tables types.Tables, name, id string) error {
	tbl, err := tables.GetTable(name)
	if err != nil {
		return err
	}
	return tbl.Delete(id)
}

// GetBlock returns the block with id.
func GetBlock(tables types.Tables, id string) (*types.Block, error) {
	return get[types.Block](tables, types.BlocksTable, id)
}

// BlockByName returns the block called name.
func BlockByName(tables types.Tables, name string) (*types.Block, error) {
	b, err := first(fetch[types.Block](tables, types.BlocksTable, types.Filter{"name": name}))
	if err != nil {
		return nil, fmt.Errorf("block %q: %w", name, err)
	}
	return b, nil
}

// ListBlocks returns all blocks sorted by name.
func ListBlocks(tables types.Tables) ([]*types.Block, error) {
	return fetch[types.Block](tables, types.BlocksTable, nil)
}

// WeeksOf returns the weeks of a block sorted by week number.
func WeeksOf(tables types.Tables, blockID string) ([]*types.Week, error) {
	return fetch[types.Week](tables, types.WeeksTable, types.Filter{"block_id": blockID})
}

// WeekByNumber returns week n of a block.
func WeekByNumber(tables types.Tables, blockID string, n int) (*types.Week, error) {
	w, err := first(fetch[types.Week](tables, types.WeeksTable, types.Filter{"block_id": blockID, "week_number": n}))
	if err != nil {
		return nil, fmt.Errorf("week %d: %w", n, err)
	}
	return w, nil
}

// GetWeek returns the week with id.
func GetWeek(tables types.Tables, id string) (*types.Week, error) {
	return get[types.Week](tables, types.WeeksTable, id)
}

// LastWeek returns the highest-numbered week of a block, or ErrNotFound
// when it has none.
func LastWeek(tables types.Tables, blockID string) (*types.Week, error) {
	weeks, err := WeeksOf(tables, blockID)
	if err != nil {
		return nil, err
	}
	if len(weeks) == 0 {
		return nil, types.ErrNotFound
	}
	return weeks[len(weeks)-1], nil
}

// DaysOf returns the days of a week sorted by date.
func DaysOf(tables types.Tables, weekID string) ([]*types.Day, error) {
	return fetch[types.Day](tables, types.DaysTable, types.Filter{"week_id": weekID})
}

// DaysOfBlock returns every day owned by a block sorted by date.
func DaysOfBlock(tables types.Tables, blockID string) ([]*types.Day, error) {
	return fetch[types.Day](tables, types.DaysTable, types.Filter{"block_id": blockID})
}

// DayAt returns day n of a week.
func DayAt(tables types.Tables, weekID string, n int) (*types.Day, error) {
	d, err := first(fetch[types.Day](tables, types.DaysTable, types.Filter{"week_id": weekID, "day_number": n}))
	if err != nil {
		return nil, fmt.Errorf("day %d: %w", n, err)
	}
	return d, nil
}

// GetDay returns the day with id.
func GetDay(tables types.Tables, id string) (*types.Day, error) {
	return get[types.Day](tables, types.DaysTable, id)
}

// DayInBlock returns the block's day on date.
func DayInBlock(tables types.Tables, blockID string, date civil.Date) (*types.Day, error) {
	return first(fetch[types.Day](tables, types.DaysTable, types.Filter{"block_id": blockID, "date": date}))
}

// DaysOnDate returns every day on date, detached days first.
func DaysOnDate(tables types.Tables, date civil.Date) ([]*types.Day, error) {
	return fetch[types.Day](tables, types.DaysTable, types.Filter{"date": date})
}

// AnchorDay returns a detached day on date, creating a 0-mile one when
// none exists. The bool reports whether a day was created.
func AnchorDay(tables types.Tables, date civil.Date) (*types.Day, bool, error) {
	loose, err := fetch[types.Day](tables, types.DaysTable, types.Filter{"date": date, "week_id": ""})
	if err != nil {
		return nil, false, err
	}
	if len(loose) > 0 {
		return loose[0], false, nil
	}
	d := &types.Day{Date: date}
	if _, err := Save(tables, types.DaysTable, d); err != nil {
		return nil, false, fmt.Errorf("creating anchor day %s: %w", date, err)
	}
	return d, true, nil
}

// GetRace returns the race with id.
func GetRace(tables types.Tables, id string) (*types.Race, error) {
	return get[types.Race](tables, types.RacesTable, id)
}

// RaceByName returns the race called name.
func RaceByName(tables types.Tables, name string) (*types.Race, error) {
	r, err := first(fetch[types.Race](tables, types.RacesTable, types.Filter{"name": name}))
	if err != nil {
		return nil, fmt.Errorf("race %q: %w", name, err)
	}
	return r, nil
}

// ListRaces returns races sorted by name, limited to a block when blockID
// is set.
func ListRaces(tables types.Tables, blockID string) ([]*types.Race, error) {
	var filter types.Filter
	if blockID != "" {
		filter = types.Filter{"block_id": blockID}
	}
	return fetch[types.Race](tables, types.RacesTable, filter)
}

// RacesOnDay returns the races placed on a day.
func RacesOnDay(tables types.Tables, dayID string) ([]*types.Race, error) {
	return fetch[types.Race](tables, types.RacesTable, types.Filter{"day_id": dayID})
}

// Exists interprets the error of a lookup: nil means found, ErrNotFound
// means absent, and any other error is returned.
func Exists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, types.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
