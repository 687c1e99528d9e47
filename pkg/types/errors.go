package types

import (
	"errors"
	"fmt"
)

// Training errors. All are recoverable by the caller.
var (
	ErrValidation    = errors.New("validation failed")
	ErrDuplicateName = errors.New("name already in use")
	ErrCapacity      = errors.New("week capacity exceeded")
	ErrEmpty         = errors.New("no weeks left to remove")
	ErrDayNotFound   = errors.New("day not found in training block")
)

// CapacityError reports an extend that hit MaxWeeks. Added weeks were kept.
type CapacityError struct {
	Requested int
	Added     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: added %d of %d weeks (max %d)", ErrCapacity, e.Added, e.Requested, MaxWeeks)
}

// Is matches ErrCapacity.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}

// EmptyError reports a shrink that ran out of weeks. Removed weeks stay removed.
type EmptyError struct {
	Requested int
	Removed   int
}

func (e *EmptyError) Error() string {
	return fmt.Sprintf("%s: removed %d of %d weeks", ErrEmpty, e.Removed, e.Requested)
}

// Is matches ErrEmpty.
func (e *EmptyError) Is(target error) bool {
	return target == ErrEmpty
}

// DuplicateName returns an error for a taken block or race name. It matches
// both ErrDuplicateName and ErrValidation.
func DuplicateName(kind, name string) error {
	return fmt.Errorf("%w: %w: %s %q", ErrValidation, ErrDuplicateName, kind, name)
}

// Invalid returns an error matching ErrValidation with a formatted detail.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
