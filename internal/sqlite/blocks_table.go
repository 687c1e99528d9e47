package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/miles/pkg/types"
)

const blockColumns = "block_id, name, start_date"

var blockFilters = filterColumns{
	"block_id": filterText,
	"name":     filterText,
}

func scanBlock(s scanner) (*types.Block, error) {
	var (
		b     types.Block
		start string
	)
	if err := s.Scan(&b.BlockID, &b.Name, &start); err != nil {
		return nil, noRows(err)
	}
	d, err := parseDate(start)
	if err != nil {
		return nil, err
	}
	b.StartDate = d
	return &b, nil
}

func getBlock(q querier, id string) (*types.Block, error) {
	b, err := scanBlock(q.QueryRow("SELECT "+blockColumns+" FROM blocks WHERE block_id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("getting block %s: %w", id, err)
	}
	return b, nil
}

func setBlock(q querier, id string, data any) (string, error) {
	b, ok := data.(*types.Block)
	if !ok || b == nil {
		return "", types.ErrInvalidData
	}
	if b.Name == "" {
		return "", types.ErrInvalidName
	}
	if !b.StartDate.IsValid() {
		return "", fmt.Errorf("%w: invalid start date", types.ErrInvalidData)
	}

	id = resolveID(id, b.BlockID)
	_, err := q.Exec(`INSERT INTO blocks (block_id, name, start_date) VALUES (?, ?, ?)
	  ON CONFLICT(block_id) DO UPDATE SET name = excluded.name, start_date = excluded.start_date`,
		id, b.Name, b.StartDate.String())
	if err != nil {
		return "", fmt.Errorf("saving block %q: %w", b.Name, constraintError(err))
	}
	b.BlockID = id
	return id, nil
}

// fetchBlocks returns blocks ordered by name.
func fetchBlocks(q querier, filter types.Filter) ([]*types.Block, error) {
	where, args, err := blockFilters.where(filter)
	if err != nil {
		return nil, err
	}
	rows, err := queryRows(q, "SELECT "+blockColumns+" FROM blocks"+where+" ORDER BY name", args, scanBlock)
	if err != nil {
		return nil, fmt.Errorf("fetching blocks: %w", err)
	}
	return rows, nil
}
