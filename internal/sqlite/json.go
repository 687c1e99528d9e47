// JSON record structures that define the JSONL file format.
package sqlite

import (
	"github.com/mesh-intelligence/miles/pkg/types"
)

// blockJSON represents a block in blocks.jsonl.
type blockJSON struct {
	BlockID   string `json:"block_id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
}

// weekJSON represents a week in weeks.jsonl.
type weekJSON struct {
	WeekID     string `json:"week_id"`
	BlockID    string `json:"block_id"`
	WeekNumber int    `json:"week_number"`
	Goal       int    `json:"goal"`
}

// dayJSON represents a day in days.jsonl. Detached days carry null
// block_id and week_id.
type dayJSON struct {
	DayID     string  `json:"day_id"`
	Date      string  `json:"date"`
	DayNumber int     `json:"day_number"`
	Miles     int     `json:"miles"`
	BlockID   *string `json:"block_id"`
	WeekID    *string `json:"week_id"`
}

// raceJSON represents a race in races.jsonl.
type raceJSON struct {
	RaceID  string  `json:"race_id"`
	DayID   string  `json:"day_id"`
	Miles   float64 `json:"miles"`
	Name    string  `json:"name"`
	URL     string  `json:"url"`
	BlockID *string `json:"block_id"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func dehydrateBlock(b *types.Block) blockJSON {
	return blockJSON{BlockID: b.BlockID, Name: b.Name, StartDate: b.StartDate.String()}
}

func dehydrateWeek(w *types.Week) weekJSON {
	return weekJSON{WeekID: w.WeekID, BlockID: w.BlockID, WeekNumber: w.WeekNumber, Goal: w.Goal}
}

func dehydrateDay(d *types.Day) dayJSON {
	return dayJSON{
		DayID:     d.DayID,
		Date:      d.Date.String(),
		DayNumber: d.DayNumber,
		Miles:     d.Miles,
		BlockID:   optional(d.BlockID),
		WeekID:    optional(d.WeekID),
	}
}

func dehydrateRace(r *types.Race) raceJSON {
	return raceJSON{
		RaceID:  r.RaceID,
		DayID:   r.DayID,
		Miles:   r.Miles,
		Name:    r.Name,
		URL:     r.URL,
		BlockID: optional(r.BlockID),
	}
}
