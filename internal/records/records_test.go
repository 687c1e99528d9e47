package records

import (
	"errors"
	"testing"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/miles/internal/sqlite"
	"github.com/mesh-intelligence/miles/pkg/types"
)

func setupBackend(t *testing.T) *sqlite.Backend {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBlockLookups(t *testing.T) {
	b := setupBackend(t)
	start := civil.Date{Year: 2024, Month: 4, Day: 1}

	for _, name := range []string{"zeta", "alpha"} {
		_, err := Save(b, types.BlocksTable, &types.Block{Name: name, StartDate: start})
		require.NoError(t, err)
	}

	blocks, err := ListBlocks(b)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "alpha", blocks[0].Name)

	got, err := BlockByName(b, "zeta")
	require.NoError(t, err)
	byID, err := GetBlock(b, got.BlockID)
	require.NoError(t, err)
	assert.Equal(t, got, byID)

	_, err = BlockByName(b, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLastWeek(t *testing.T) {
	b := setupBackend(t)
	blockID, err := Save(b, types.BlocksTable, &types.Block{Name: "base", StartDate: civil.Date{Year: 2024, Month: 1, Day: 1}})
	require.NoError(t, err)

	_, err = LastWeek(b, blockID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	for _, n := range []int{2, 1, 3} {
		_, err := Save(b, types.WeeksTable, &types.Week{BlockID: blockID, WeekNumber: n})
		require.NoError(t, err)
	}
	last, err := LastWeek(b, blockID)
	require.NoError(t, err)
	assert.Equal(t, 3, last.WeekNumber)

	w2, err := WeekByNumber(b, blockID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, w2.WeekNumber)
}

func TestAnchorDay(t *testing.T) {
	b := setupBackend(t)
	date := civil.Date{Year: 2024, Month: 9, Day: 15}

	d1, created, err := AnchorDay(b, date)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, d1.Detached())
	assert.Zero(t, d1.Miles)

	d2, created, err := AnchorDay(b, date)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, d1.DayID, d2.DayID)

	onDate, err := DaysOnDate(b, date)
	require.NoError(t, err)
	assert.Len(t, onDate, 1)
}

func TestRaceLookups(t *testing.T) {
	b := setupBackend(t)
	day, _, err := AnchorDay(b, civil.Date{Year: 2024, Month: 10, Day: 6})
	require.NoError(t, err)

	_, err = Save(b, types.RacesTable, &types.Race{Name: "half", DayID: day.DayID, Miles: 13.1})
	require.NoError(t, err)

	r, err := RaceByName(b, "half")
	require.NoError(t, err)
	onDay, err := RacesOnDay(b, day.DayID)
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.Equal(t, r.RaceID, onDay[0].RaceID)

	all, err := ListRaces(b, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestExists(t *testing.T) {
	found, err := Exists(nil)
	assert.True(t, found)
	assert.NoError(t, err)

	found, err = Exists(types.ErrNotFound)
	assert.False(t, found)
	assert.NoError(t, err)

	boom := errors.New("boom")
	_, err = Exists(boom)
	assert.ErrorIs(t, err, boom)
}
