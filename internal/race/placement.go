package race

import "fmt"

// Placement says how a race finds the day it lands on.
type Placement int

const (
	// PlaceInBlock puts the race on the block's day for the date.
	PlaceInBlock Placement = iota + 1
	// PlaceOnExisting reuses a day already stored for the date.
	PlaceOnExisting
	// PlaceOnNewDay creates a detached 0-mile day for the date.
	PlaceOnNewDay
)

func (p Placement) String() string {
	switch p {
	case PlaceInBlock:
		return "in-block"
	case PlaceOnExisting:
		return "existing-day"
	case PlaceOnNewDay:
		return "new-day"
	default:
		return fmt.Sprintf("Placement(%d)", int(p))
	}
}

// decide picks a placement. A block whose dates miss the race has no
// placement and the caller reports ErrDayNotFound.
func decide(blockGiven, dayFound bool) (Placement, bool) {
	switch {
	case blockGiven && dayFound:
		return PlaceInBlock, true
	case blockGiven:
		return 0, false
	case dayFound:
		return PlaceOnExisting, true
	default:
		return PlaceOnNewDay, true
	}
}
