package block

import (
	"fmt"

	"github.com/mesh-intelligence/miles/internal/records"
	"github.com/mesh-intelligence/miles/pkg/types"
)

// removeWeek deletes a week and its days. Races on those days are moved
// to a detached day on the same date first. It returns the number of
// races moved.
func removeWeek(tx types.Tables, w *types.Week) (int, error) {
	days, err := records.DaysOf(tx, w.WeekID)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, d := range days {
		n, err := reanchorRaces(tx, d)
		if err != nil {
			return moved, err
		}
		moved += n
		if err := records.Remove(tx, types.DaysTable, d.DayID); err != nil {
			return moved, fmt.Errorf("deleting week %d day %d: %w", w.WeekNumber, d.DayNumber, err)
		}
	}
	if err := records.Remove(tx, types.WeeksTable, w.WeekID); err != nil {
		return moved, fmt.Errorf("deleting week %d: %w", w.WeekNumber, err)
	}
	return moved, nil
}

// reanchorRaces moves every race on day onto a detached day with the same
// date and clears its block.
func reanchorRaces(tx types.Tables, day *types.Day) (int, error) {
	races, err := records.RacesOnDay(tx, day.DayID)
	if err != nil || len(races) == 0 {
		return 0, err
	}

	anchor, _, err := records.AnchorDay(tx, day.Date)
	if err != nil {
		return 0, err
	}
	for _, r := range races {
		r.DayID = anchor.DayID
		r.BlockID = ""
		if _, err := records.Save(tx, types.RacesTable, r); err != nil {
			return 0, fmt.Errorf("moving race %q: %w", r.Name, err)
		}
	}
	return len(races), nil
}
