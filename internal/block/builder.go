// Package block builds training blocks: it creates a block with its weeks
// and days, grows or shrinks it from the tail, and removes it.
package block

import (
	"errors"
	"fmt"

	"github.com/golang-sql/civil"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/miles/internal/records"
	"github.com/mesh-intelligence/miles/internal/sequence"
	"github.com/mesh-intelligence/miles/pkg/types"
)

// Builder creates and edits training blocks in a record store.
type Builder struct {
	store types.Cupboard
	log   *zap.Logger
}

// NewBuilder returns a Builder writing to store.
func NewBuilder(store types.Cupboard, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{store: store, log: log}
}

// Create writes a block named name starting on start with weeks weeks of
// seven days each, all in one transaction. It returns the block ID.
func (b *Builder) Create(name string, start civil.Date, weeks int) (string, error) {
	if err := types.ValidateName(name); err != nil {
		return "", err
	}
	if !start.IsValid() {
		return "", types.Invalid("invalid start date %s", start)
	}
	if weeks < 1 || weeks > types.MaxWeeks {
		return "", types.Invalid("week count %d not in 1..%d", weeks, types.MaxWeeks)
	}

	var blockID string
	err := b.store.Transact(func(tx types.Tables) error {
		_, err := records.BlockByName(tx, name)
		taken, err := records.Exists(err)
		if err != nil {
			return err
		}
		if taken {
			return types.DuplicateName("block", name)
		}

		blk := &types.Block{Name: name, StartDate: start}
		if _, err := records.Save(tx, types.BlocksTable, blk); err != nil {
			return fmt.Errorf("saving block: %w", err)
		}
		blockID = blk.BlockID
		_, err = appendWeeks(tx, blockID, 1, start, weeks)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("creating block %q: %w", name, err)
	}

	b.log.Info("created block",
		zap.String("block_id", blockID),
		zap.String("name", name),
		zap.Stringer("start", start),
		zap.Int("weeks", weeks),
	)
	return blockID, nil
}

// appendWeeks writes count weeks numbered from first, laying their days
// out from cursor. It returns the date after the last day written.
func appendWeeks(tx types.Tables, blockID string, first int, cursor civil.Date, count int) (civil.Date, error) {
	for i := 0; i < count; i++ {
		w := &types.Week{BlockID: blockID, WeekNumber: first + i}
		if _, err := records.Save(tx, types.WeeksTable, w); err != nil {
			return cursor, fmt.Errorf("saving week %d: %w", w.WeekNumber, err)
		}
		slots := sequence.Week(cursor)
		for _, s := range slots {
			d := &types.Day{Date: s.Date, DayNumber: s.DayNumber, BlockID: blockID, WeekID: w.WeekID}
			if _, err := records.Save(tx, types.DaysTable, d); err != nil {
				return cursor, fmt.Errorf("saving week %d day %d: %w", w.WeekNumber, s.DayNumber, err)
			}
		}
		cursor = sequence.Next(cursor, slots)
	}
	return cursor, nil
}

// Extend appends k weeks to the tail of a block and returns how many were
// added. When the block would pass MaxWeeks the weeks that fit are kept
// and a *types.CapacityError is returned with the count.
func (b *Builder) Extend(blockID string, k int) (int, error) {
	if k < 1 {
		return 0, types.Invalid("week count %d must be at least 1", k)
	}

	var added int
	err := b.store.Transact(func(tx types.Tables) error {
		blk, err := records.GetBlock(tx, blockID)
		if err != nil {
			return err
		}

		cursor, next := blk.StartDate, 1
		last, err := records.LastWeek(tx, blockID)
		switch {
		case err == nil:
			end, err := records.DayAt(tx, last.WeekID, types.DaysPerWeek)
			if err != nil {
				return fmt.Errorf("week %d: %w", last.WeekNumber, err)
			}
			cursor, next = end.Date.AddDays(1), last.WeekNumber+1
		case !errors.Is(err, types.ErrNotFound):
			return err
		}

		added = min(k, types.MaxWeeks-(next-1))
		if added <= 0 {
			added = 0
			return nil
		}
		_, err = appendWeeks(tx, blockID, next, cursor, added)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("extending block: %w", err)
	}

	b.log.Info("extended block",
		zap.String("block_id", blockID),
		zap.Int("requested", k),
		zap.Int("added", added),
	)
	if added < k {
		return added, &types.CapacityError{Requested: k, Added: added}
	}
	return added, nil
}

// Shrink removes k weeks from the tail of a block and returns how many
// were removed. A block with fewer than k weeks loses all of them and a
// *types.EmptyError is returned; the block itself is kept.
func (b *Builder) Shrink(blockID string, k int) (int, error) {
	if k < 1 {
		return 0, types.Invalid("week count %d must be at least 1", k)
	}

	var removed, moved int
	err := b.store.Transact(func(tx types.Tables) error {
		if _, err := records.GetBlock(tx, blockID); err != nil {
			return err
		}
		weeks, err := records.WeeksOf(tx, blockID)
		if err != nil {
			return err
		}
		n := min(k, len(weeks))
		for i := 0; i < n; i++ {
			m, err := removeWeek(tx, weeks[len(weeks)-1-i])
			if err != nil {
				return err
			}
			moved += m
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("shrinking block: %w", err)
	}

	b.log.Info("shrank block",
		zap.String("block_id", blockID),
		zap.Int("requested", k),
		zap.Int("removed", removed),
		zap.Int("races_reanchored", moved),
	)
	if removed < k {
		return removed, &types.EmptyError{Requested: k, Removed: removed}
	}
	return removed, nil
}

// Destroy removes a block with all its weeks and days in one transaction.
// Races on removed days move to detached days and lose the block.
func (b *Builder) Destroy(blockID string) error {
	var moved int
	err := b.store.Transact(func(tx types.Tables) error {
		blk, err := records.GetBlock(tx, blockID)
		if err != nil {
			return err
		}
		weeks, err := records.WeeksOf(tx, blockID)
		if err != nil {
			return err
		}
		for i := len(weeks) - 1; i >= 0; i-- {
			m, err := removeWeek(tx, weeks[i])
			if err != nil {
				return err
			}
			moved += m
		}

		races, err := records.ListRaces(tx, blockID)
		if err != nil {
			return err
		}
		for _, r := range races {
			r.BlockID = ""
			if _, err := records.Save(tx, types.RacesTable, r); err != nil {
				return fmt.Errorf("clearing block of race %q: %w", r.Name, err)
			}
		}

		if err := records.Remove(tx, types.BlocksTable, blk.BlockID); err != nil {
			return fmt.Errorf("deleting block %q: %w", blk.Name, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("destroying block: %w", err)
	}

	b.log.Info("destroyed block",
		zap.String("block_id", blockID),
		zap.Int("races_reanchored", moved),
	)
	return nil
}
