package block

import (
	"errors"
	"fmt"

	"github.com/golang-sql/civil"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/miles/internal/records"
	"github.com/mesh-intelligence/miles/pkg/types"
)

// Position locates a date inside a block.
type Position struct {
	WeekNumber int
	DayNumber  int
	Date       civil.Date
}

// Get returns the block with id.
func (b *Builder) Get(id string) (*types.Block, error) {
	return records.GetBlock(b.store, id)
}

// ByName returns the block called name.
func (b *Builder) ByName(name string) (*types.Block, error) {
	return records.BlockByName(b.store, name)
}

// List returns all blocks sorted by name.
func (b *Builder) List() ([]*types.Block, error) {
	return records.ListBlocks(b.store)
}

// Weeks returns the number of weeks a block has.
func (b *Builder) Weeks(blockID string) (int, error) {
	weeks, err := records.WeeksOf(b.store, blockID)
	if err != nil {
		return 0, err
	}
	return len(weeks), nil
}

// SetGoal sets the mileage goal of week weekNumber.
func (b *Builder) SetGoal(blockID string, weekNumber, goal int) error {
	if goal < 0 {
		return types.Invalid("goal %d must not be negative", goal)
	}
	err := b.store.Transact(func(tx types.Tables) error {
		w, err := records.WeekByNumber(tx, blockID, weekNumber)
		if err != nil {
			return err
		}
		w.Goal = goal
		_, err = records.Save(tx, types.WeeksTable, w)
		return err
	})
	if err != nil {
		return fmt.Errorf("setting goal: %w", err)
	}
	b.log.Debug("set goal",
		zap.String("block_id", blockID),
		zap.Int("week", weekNumber),
		zap.Int("goal", goal),
	)
	return nil
}

// SetMiles records the miles run on day dayNumber of week weekNumber.
func (b *Builder) SetMiles(blockID string, weekNumber, dayNumber, miles int) error {
	if miles < 0 {
		return types.Invalid("miles %d must not be negative", miles)
	}
	if err := checkDayNumber(dayNumber); err != nil {
		return err
	}
	err := b.store.Transact(func(tx types.Tables) error {
		w, err := records.WeekByNumber(tx, blockID, weekNumber)
		if err != nil {
			return err
		}
		d, err := records.DayAt(tx, w.WeekID, dayNumber)
		if err != nil {
			return err
		}
		d.Miles = miles
		_, err = records.Save(tx, types.DaysTable, d)
		return err
	})
	if err != nil {
		return fmt.Errorf("logging miles: %w", err)
	}
	b.log.Debug("logged miles",
		zap.String("block_id", blockID),
		zap.Int("week", weekNumber),
		zap.Int("day", dayNumber),
		zap.Int("miles", miles),
	)
	return nil
}

// DateAt returns the date of day dayNumber in week weekNumber.
func (b *Builder) DateAt(blockID string, weekNumber, dayNumber int) (civil.Date, error) {
	if err := checkDayNumber(dayNumber); err != nil {
		return civil.Date{}, err
	}
	w, err := records.WeekByNumber(b.store, blockID, weekNumber)
	if errors.Is(err, types.ErrNotFound) {
		return civil.Date{}, fmt.Errorf("%w: week %d", types.ErrDayNotFound, weekNumber)
	}
	if err != nil {
		return civil.Date{}, err
	}
	d, err := records.DayAt(b.store, w.WeekID, dayNumber)
	if err != nil {
		return civil.Date{}, err
	}
	return d.Date, nil
}

// Locate returns the week and day numbers of date within a block.
// Dates outside the block return ErrDayNotFound.
func (b *Builder) Locate(blockID string, date civil.Date) (Position, error) {
	d, err := records.DayInBlock(b.store, blockID, date)
	if errors.Is(err, types.ErrNotFound) {
		return Position{}, fmt.Errorf("%w: %s", types.ErrDayNotFound, date)
	}
	if err != nil {
		return Position{}, err
	}
	w, err := records.GetWeek(b.store, d.WeekID)
	if err != nil {
		return Position{}, err
	}
	return Position{WeekNumber: w.WeekNumber, DayNumber: d.DayNumber, Date: d.Date}, nil
}

func checkDayNumber(n int) error {
	if n < 1 || n > types.DaysPerWeek {
		return types.Invalid("day %d not in 1..%d", n, types.DaysPerWeek)
	}
	return nil
}
