package block

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/miles/internal/records"
	"github.com/mesh-intelligence/miles/internal/sqlite"
	"github.com/mesh-intelligence/miles/pkg/types"
)

func setupBuilder(t *testing.T) (*Builder, *sqlite.Backend) {
	t.Helper()
	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { store.Detach() })
	return NewBuilder(store, zaptest.NewLogger(t)), store
}

func d(y int, m time.Month, day int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: day}
}

func mustDate(t *testing.T, b *Builder, blockID string, week, day int) civil.Date {
	t.Helper()
	date, err := b.DateAt(blockID, week, day)
	require.NoError(t, err)
	return date
}

func TestCreate_DateSpan(t *testing.T) {
	tests := []struct {
		name  string
		start civil.Date
		weeks int
	}{
		{"one week", d(2024, 1, 1), 1},
		{"three weeks", d(2024, 1, 1), 3},
		{"across new year", d(2024, 12, 2), 6},
		{"across leap day", d(2024, 2, 20), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := setupBuilder(t)
			id, err := b.Create("block", tt.start, tt.weeks)
			require.NoError(t, err)

			assert.Equal(t, tt.start, mustDate(t, b, id, 1, 1))
			assert.Equal(t, tt.start.AddDays(7*tt.weeks-1), mustDate(t, b, id, tt.weeks, 7))
		})
	}
}

func TestCreate_DaysAreContiguous(t *testing.T) {
	b, store := setupBuilder(t)
	id, err := b.Create("spring", d(2024, 2, 25), 2)
	require.NoError(t, err)

	assert.Equal(t, d(2024, 3, 9), mustDate(t, b, id, 2, 7))
	assert.Equal(t, mustDate(t, b, id, 1, 7).AddDays(1), mustDate(t, b, id, 2, 1))

	days, err := records.DaysOfBlock(store, id)
	require.NoError(t, err)
	require.Len(t, days, 14)
	for i := 1; i < len(days); i++ {
		assert.Equal(t, 1, days[i].Date.DaysSince(days[i-1].Date))
	}

	weeks, err := records.WeeksOf(store, id)
	require.NoError(t, err)
	for i, w := range weeks {
		assert.Equal(t, i+1, w.WeekNumber)
		assert.Zero(t, w.Goal)
		wd, err := records.DaysOf(store, w.WeekID)
		require.NoError(t, err)
		require.Len(t, wd, 7)
		for j, day := range wd {
			assert.Equal(t, j+1, day.DayNumber)
			assert.Zero(t, day.Miles)
		}
	}
}

func TestCreate_Validation(t *testing.T) {
	b, store := setupBuilder(t)
	_, err := b.Create("taken", d(2024, 1, 1), 1)
	require.NoError(t, err)

	tests := []struct {
		name     string
		block    string
		start    civil.Date
		weeks    int
		wantDupe bool
	}{
		{name: "empty name", block: "", start: d(2024, 1, 1), weeks: 1},
		{name: "name too long", block: strings.Repeat("x", 65), start: d(2024, 1, 1), weeks: 1},
		{name: "zero weeks", block: "a", start: d(2024, 1, 1), weeks: 0},
		{name: "too many weeks", block: "a", start: d(2024, 1, 1), weeks: 100},
		{name: "invalid date", block: "a", start: civil.Date{Year: 2024, Month: 2, Day: 30}, weeks: 1},
		{name: "duplicate name", block: "taken", start: d(2024, 6, 1), weeks: 1, wantDupe: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Create(tt.block, tt.start, tt.weeks)
			assert.ErrorIs(t, err, types.ErrValidation)
			if tt.wantDupe {
				assert.ErrorIs(t, err, types.ErrDuplicateName)
			}
		})
	}

	blocks, err := records.ListBlocks(store)
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestCreate_NameAtLimit(t *testing.T) {
	b, _ := setupBuilder(t)
	_, err := b.Create(strings.Repeat("é", types.MaxNameLength), d(2024, 1, 1), 1)
	assert.NoError(t, err)
}

func TestExtendShrinkRoundTrip(t *testing.T) {
	b, store := setupBuilder(t)
	id, err := b.Create("base", d(2024, 1, 1), 2)
	require.NoError(t, err)

	added, err := b.Extend(id, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Equal(t, mustDate(t, b, id, 2, 7).AddDays(1), mustDate(t, b, id, 3, 1))
	assert.Equal(t, d(2024, 2, 4), mustDate(t, b, id, 5, 7))

	removed, err := b.Shrink(id, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	n, err := b.Weeks(id)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	days, err := records.DaysOfBlock(store, id)
	require.NoError(t, err)
	assert.Len(t, days, 14, "no orphan days")
	loose, err := records.DaysOnDate(store, d(2024, 1, 20))
	require.NoError(t, err)
	assert.Empty(t, loose)
}

func TestExtend_Capacity(t *testing.T) {
	b, _ := setupBuilder(t)
	id, err := b.Create("long", d(2024, 1, 1), 97)
	require.NoError(t, err)

	added, err := b.Extend(id, 5)
	assert.Equal(t, 2, added)
	require.ErrorIs(t, err, types.ErrCapacity)
	var capErr *types.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, types.CapacityError{Requested: 5, Added: 2}, *capErr)

	n, err := b.Weeks(id)
	require.NoError(t, err)
	assert.Equal(t, types.MaxWeeks, n, "weeks that fit are committed")

	added, err = b.Extend(id, 1)
	assert.Zero(t, added)
	assert.ErrorIs(t, err, types.ErrCapacity)
}

func TestExtendShrink_RejectBadCounts(t *testing.T) {
	b, _ := setupBuilder(t)
	id, err := b.Create("base", d(2024, 1, 1), 1)
	require.NoError(t, err)

	_, err = b.Extend(id, 0)
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = b.Shrink(id, -1)
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = b.Extend("missing", 1)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestShrink_PastEmpty(t *testing.T) {
	b, _ := setupBuilder(t)
	id, err := b.Create("short", d(2024, 5, 6), 2)
	require.NoError(t, err)

	removed, err := b.Shrink(id, 3)
	assert.Equal(t, 2, removed)
	require.ErrorIs(t, err, types.ErrEmpty)
	var emptyErr *types.EmptyError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, 2, emptyErr.Removed)

	blk, err := b.Get(id)
	require.NoError(t, err, "block row survives")
	assert.Equal(t, "short", blk.Name)

	added, err := b.Extend(id, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, d(2024, 5, 6), mustDate(t, b, id, 1, 1), "empty block restarts at its start date")
}

func TestDestroy(t *testing.T) {
	b, store := setupBuilder(t)
	keep, err := b.Create("keep", d(2024, 1, 1), 1)
	require.NoError(t, err)
	id, err := b.Create("gone", d(2024, 1, 1), 3)
	require.NoError(t, err)

	require.NoError(t, b.Destroy(id))

	_, err = b.Get(id)
	assert.ErrorIs(t, err, types.ErrNotFound)
	weeks, err := records.WeeksOf(store, id)
	require.NoError(t, err)
	assert.Empty(t, weeks)
	days, err := records.DaysOfBlock(store, id)
	require.NoError(t, err)
	assert.Empty(t, days)

	n, err := b.Weeks(keep)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "other blocks are untouched")

	assert.ErrorIs(t, b.Destroy(id), types.ErrNotFound)
}

func TestDestroyAndShrink_ReanchorRaces(t *testing.T) {
	b, store := setupBuilder(t)
	id, err := b.Create("season", d(2024, 3, 4), 2)
	require.NoError(t, err)

	placeRace := func(name string, date civil.Date) *types.Race {
		day, err := records.DayInBlock(store, id, date)
		require.NoError(t, err)
		r := &types.Race{Name: name, DayID: day.DayID, Miles: 3.1, BlockID: id}
		_, err = records.Save(store, types.RacesTable, r)
		require.NoError(t, err)
		return r
	}
	late := placeRace("late 5k", d(2024, 3, 16))
	early := placeRace("early 5k", d(2024, 3, 5))

	_, err = b.Shrink(id, 1)
	require.NoError(t, err)

	moved, err := records.GetRace(store, late.RaceID)
	require.NoError(t, err)
	assert.Empty(t, moved.BlockID)
	day, err := records.GetDay(store, moved.DayID)
	require.NoError(t, err)
	assert.True(t, day.Detached())
	assert.Equal(t, d(2024, 3, 16), day.Date)

	kept, err := records.GetRace(store, early.RaceID)
	require.NoError(t, err)
	assert.Equal(t, early.DayID, kept.DayID, "races in surviving weeks stay put")

	require.NoError(t, b.Destroy(id))
	kept, err = records.GetRace(store, early.RaceID)
	require.NoError(t, err)
	assert.Empty(t, kept.BlockID)
	day, err = records.GetDay(store, kept.DayID)
	require.NoError(t, err)
	assert.True(t, day.Detached())
	assert.Equal(t, d(2024, 3, 5), day.Date)
}

func TestGoalsAndMiles(t *testing.T) {
	b, store := setupBuilder(t)
	id, err := b.Create("base", d(2024, 1, 1), 2)
	require.NoError(t, err)

	require.NoError(t, b.SetGoal(id, 2, 40))
	w, err := records.WeekByNumber(store, id, 2)
	require.NoError(t, err)
	assert.Equal(t, 40, w.Goal)

	require.NoError(t, b.SetMiles(id, 2, 3, 8))
	day, err := records.DayAt(store, w.WeekID, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, day.Miles)

	assert.ErrorIs(t, b.SetGoal(id, 1, -1), types.ErrValidation)
	assert.ErrorIs(t, b.SetMiles(id, 1, 8, 5), types.ErrValidation)
	assert.ErrorIs(t, b.SetMiles(id, 1, 1, -2), types.ErrValidation)
	assert.ErrorIs(t, b.SetGoal(id, 3, 10), types.ErrNotFound)
}

func TestLocate(t *testing.T) {
	b, _ := setupBuilder(t)
	id, err := b.Create("base", d(2024, 1, 1), 2)
	require.NoError(t, err)

	pos, err := b.Locate(id, d(2024, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, Position{WeekNumber: 2, DayNumber: 3, Date: d(2024, 1, 10)}, pos)

	_, err = b.Locate(id, d(2024, 1, 15))
	assert.ErrorIs(t, err, types.ErrDayNotFound)

	_, err = b.DateAt(id, 3, 1)
	assert.ErrorIs(t, err, types.ErrDayNotFound)
}
