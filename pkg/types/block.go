package types

import (
	"fmt"
	"unicode/utf8"

	"github.com/golang-sql/civil"
)

// Training block limits.
const (
	MaxWeeks      = 99
	DaysPerWeek   = 7
	MaxNameLength = 64
)

// Block is a named training block. It owns its weeks, which own their days.
type Block struct {
	BlockID   string     `json:"block_id"`
	Name      string     `json:"name"`
	StartDate civil.Date `json:"start_date"`
}

// Week is one numbered week of a block. Week numbers run 1..W with no gaps.
type Week struct {
	WeekID     string `json:"week_id"`
	BlockID    string `json:"block_id"`
	WeekNumber int    `json:"week_number"`
	Goal       int    `json:"goal"`
}

// Day is one calendar date. Days created by a block carry the block and
// week IDs and a DayNumber of 1..7. A detached day has neither ID and a
// DayNumber of 0; it exists only to anchor races.
type Day struct {
	DayID     string     `json:"day_id"`
	Date      civil.Date `json:"date"`
	DayNumber int        `json:"day_number"`
	Miles     int        `json:"miles"`
	BlockID   string     `json:"block_id,omitempty"`
	WeekID    string     `json:"week_id,omitempty"`
}

// Detached reports whether the day belongs to no week.
func (d *Day) Detached() bool {
	return d.WeekID == ""
}

// Race is a named race placed on a Day. BlockID mirrors the block of that
// day, if any, so races can be listed per block without a join.
type Race struct {
	RaceID  string  `json:"race_id"`
	DayID   string  `json:"day_id"`
	Miles   float64 `json:"miles"`
	Name    string  `json:"name"`
	URL     string  `json:"url,omitempty"`
	BlockID string  `json:"block_id,omitempty"`
}

// ValidateName checks a block or race name: non-empty and at most
// MaxNameLength characters.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return fmt.Errorf("%w: name is %d characters (max %d)", ErrValidation, n, MaxNameLength)
	}
	return nil
}
