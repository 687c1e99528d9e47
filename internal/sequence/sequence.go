// Package sequence lays out the calendar dates of a training week.
package sequence

import (
	"github.com/golang-sql/civil"

	"github.com/mesh-intelligence/miles/pkg/types"
)

// Slot is one day position: its 1-based day number and calendar date.
type Slot struct {
	DayNumber int
	Date      civil.Date
}

// Week returns the seven slots of a week starting on start.
func Week(start civil.Date) []Slot {
	return Days(start, types.DaysPerWeek)
}

// Days returns n consecutive slots starting on start, numbered from 1.
func Days(start civil.Date, n int) []Slot {
	if n <= 0 {
		return nil
	}
	slots := make([]Slot, n)
	for i := range slots {
		slots[i] = Slot{DayNumber: i + 1, Date: start.AddDays(i)}
	}
	return slots
}

// WeekStart returns the first date of week number n in a block starting on
// start.
func WeekStart(start civil.Date, n int) civil.Date {
	return start.AddDays((n - 1) * types.DaysPerWeek)
}

// Next returns the day after the last slot, or start when slots is empty.
func Next(start civil.Date, slots []Slot) civil.Date {
	if len(slots) == 0 {
		return start
	}
	return slots[len(slots)-1].Date.AddDays(1)
}
