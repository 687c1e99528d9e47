package sqlite

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/mesh-intelligence/miles/pkg/types"
)

const raceColumns = "race_id, day_id, miles, name, url, block_id"

var raceFilters = filterColumns{
	"race_id":  filterText,
	"day_id":   filterText,
	"name":     filterText,
	"block_id": filterText,
}

func scanRace(s scanner) (*types.Race, error) {
	var (
		r       types.Race
		blockID sql.NullString
	)
	if err := s.Scan(&r.RaceID, &r.DayID, &r.Miles, &r.Name, &r.URL, &blockID); err != nil {
		return nil, noRows(err)
	}
	r.BlockID = blockID.String
	return &r, nil
}

func getRace(q querier, id string) (*types.Race, error) {
	r, err := scanRace(q.QueryRow("SELECT "+raceColumns+" FROM races WHERE race_id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("getting race %s: %w", id, err)
	}
	return r, nil
}

func setRace(q querier, id string, data any) (string, error) {
	r, ok := data.(*types.Race)
	if !ok || r == nil {
		return "", types.ErrInvalidData
	}
	if r.Name == "" {
		return "", types.ErrInvalidName
	}
	if r.DayID == "" {
		return "", fmt.Errorf("%w: race without day", types.ErrInvalidData)
	}
	if r.Miles < 0 || math.IsNaN(r.Miles) || math.IsInf(r.Miles, 0) {
		return "", fmt.Errorf("%w: race miles %v", types.ErrInvalidData, r.Miles)
	}

	id = resolveID(id, r.RaceID)
	_, err := q.Exec(`INSERT INTO races (race_id, day_id, miles, name, url, block_id)
	  VALUES (?, ?, ?, ?, ?, ?)
	  ON CONFLICT(race_id) DO UPDATE SET day_id = excluded.day_id, miles = excluded.miles,
	    name = excluded.name, url = excluded.url, block_id = excluded.block_id`,
		id, r.DayID, r.Miles, r.Name, r.URL, nullable(r.BlockID))
	if err != nil {
		return "", fmt.Errorf("saving race %q: %w", r.Name, constraintError(err))
	}
	r.RaceID = id
	return id, nil
}

// fetchRaces returns races ordered by name.
func fetchRaces(q querier, filter types.Filter) ([]*types.Race, error) {
	where, args, err := raceFilters.where(filter)
	if err != nil {
		return nil, err
	}
	rows, err := queryRows(q, "SELECT "+raceColumns+" FROM races"+where+" ORDER BY name", args, scanRace)
	if err != nil {
		return nil, fmt.Errorf("fetching races: %w", err)
	}
	return rows, nil
}
