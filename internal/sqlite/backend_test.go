package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/miles/pkg/types"
)

func setupBackend(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { b.Detach() })
	return b, dir
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

// seedWeek creates a week with seven days starting at start.
func seedWeek(t *testing.T, b *Backend, blockID string, number int, start civil.Date) string {
	t.Helper()
	var weekID string
	err := b.Transact(func(tx types.Tables) error {
		weeks, err := tx.GetTable(types.WeeksTable)
		if err != nil {
			return err
		}
		days, err := tx.GetTable(types.DaysTable)
		if err != nil {
			return err
		}
		weekID, err = weeks.Set("", &types.Week{BlockID: blockID, WeekNumber: number})
		if err != nil {
			return err
		}
		for i := 0; i < types.DaysPerWeek; i++ {
			d := &types.Day{Date: start.AddDays(i), DayNumber: i + 1, BlockID: blockID, WeekID: weekID}
			if _, err := days.Set("", d); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return weekID
}

func seedBlock(t *testing.T, b *Backend, name string, start civil.Date) string {
	t.Helper()
	blocks, err := b.GetTable(types.BlocksTable)
	require.NoError(t, err)
	id, err := blocks.Set("", &types.Block{Name: name, StartDate: start})
	require.NoError(t, err)
	return id
}

func TestBackend_AttachDetach(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	require.NoError(t, b.Attach(config))

	_, err := os.Stat(filepath.Join(dir, dbFileName))
	assert.NoError(t, err, "database file should exist")
	for _, m := range jsonlTableMapping {
		_, err := os.Stat(filepath.Join(dir, m.file))
		assert.NoError(t, err, "%s should exist", m.file)
	}

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "Detach is idempotent")

	_, err = b.GetTable(types.BlocksTable)
	assert.ErrorIs(t, err, types.ErrCupboardDetached)
	err = b.Transact(func(types.Tables) error { return nil })
	assert.ErrorIs(t, err, types.ErrCupboardDetached)
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestBackend_GetTable(t *testing.T) {
	b, _ := setupBackend(t)

	for _, name := range types.StandardTableNames {
		tbl, err := b.GetTable(name)
		require.NoError(t, err, name)
		assert.NotNil(t, tbl, name)
	}

	_, err := b.GetTable("laps")
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}

func TestBlocksTable_CRUD(t *testing.T) {
	b, _ := setupBackend(t)
	blocks, err := b.GetTable(types.BlocksTable)
	require.NoError(t, err)

	blk := &types.Block{Name: "spring", StartDate: date(2024, 2, 25)}
	id, err := blocks.Set("", blk)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, blk.BlockID)

	got, err := blocks.Get(id)
	require.NoError(t, err)
	assert.Equal(t, blk, got.(*types.Block))

	blk.Name = "spring build"
	_, err = blocks.Set(id, blk)
	require.NoError(t, err)

	found, err := blocks.Fetch(types.Filter{"name": "spring build"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].(*types.Block).BlockID)

	_, err = blocks.Set("", &types.Block{Name: "spring build", StartDate: date(2024, 6, 1)})
	assert.ErrorIs(t, err, types.ErrDuplicateName)

	require.NoError(t, blocks.Delete(id))
	_, err = blocks.Get(id)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, blocks.Delete(id), types.ErrNotFound)
}

func TestTable_SetRejectsInvalidData(t *testing.T) {
	b, _ := setupBackend(t)
	blockID := seedBlock(t, b, "base", date(2024, 1, 1))

	tests := []struct {
		name    string
		table   string
		data    any
		wantErr error
	}{
		{"wrong type", types.BlocksTable, &types.Week{}, types.ErrInvalidData},
		{"block without name", types.BlocksTable, &types.Block{StartDate: date(2024, 1, 1)}, types.ErrInvalidName},
		{"block without date", types.BlocksTable, &types.Block{Name: "x"}, types.ErrInvalidData},
		{"week number zero", types.WeeksTable, &types.Week{BlockID: blockID}, types.ErrInvalidData},
		{"week number over max", types.WeeksTable, &types.Week{BlockID: blockID, WeekNumber: 100}, types.ErrInvalidData},
		{"week of unknown block", types.WeeksTable, &types.Week{BlockID: "nope", WeekNumber: 1}, types.ErrReferenced},
		{"negative miles", types.DaysTable, &types.Day{Date: date(2024, 1, 1), Miles: -1}, types.ErrInvalidData},
		{"detached day with number", types.DaysTable, &types.Day{Date: date(2024, 1, 1), DayNumber: 3}, types.ErrInvalidData},
		{"race without day", types.RacesTable, &types.Race{Name: "5k"}, types.ErrInvalidData},
		{"race on unknown day", types.RacesTable, &types.Race{Name: "5k", DayID: "nope"}, types.ErrReferenced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := b.GetTable(tt.table)
			require.NoError(t, err)
			_, err = tbl.Set("", tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDaysTable_FetchDetached(t *testing.T) {
	b, _ := setupBackend(t)
	blockID := seedBlock(t, b, "base", date(2024, 1, 1))
	seedWeek(t, b, blockID, 1, date(2024, 1, 1))

	days, err := b.GetTable(types.DaysTable)
	require.NoError(t, err)
	loose := &types.Day{Date: date(2024, 1, 3)}
	_, err = days.Set("", loose)
	require.NoError(t, err)

	onDate, err := days.Fetch(types.Filter{"date": date(2024, 1, 3)})
	require.NoError(t, err)
	require.Len(t, onDate, 2)
	assert.True(t, onDate[0].(*types.Day).Detached(), "detached days sort first on a date")

	detached, err := days.Fetch(types.Filter{"week_id": ""})
	require.NoError(t, err)
	require.Len(t, detached, 1)
	assert.Equal(t, loose.DayID, detached[0].(*types.Day).DayID)

	inBlock, err := days.Fetch(types.Filter{"block_id": blockID})
	require.NoError(t, err)
	assert.Len(t, inBlock, 7)
}

func TestTable_FetchInvalidFilter(t *testing.T) {
	b, _ := setupBackend(t)

	tests := []struct {
		name   string
		table  string
		filter types.Filter
	}{
		{"unknown key", types.BlocksTable, types.Filter{"color": "red"}},
		{"int key with string", types.WeeksTable, types.Filter{"week_number": "1"}},
		{"bad date", types.DaysTable, types.Filter{"date": "2024-13-40"}},
		{"text key with int", types.RacesTable, types.Filter{"name": 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := b.GetTable(tt.table)
			require.NoError(t, err)
			_, err = tbl.Fetch(tt.filter)
			assert.ErrorIs(t, err, types.ErrInvalidFilter)
		})
	}
}

func TestTable_DeleteReferenced(t *testing.T) {
	b, _ := setupBackend(t)
	blockID := seedBlock(t, b, "base", date(2024, 1, 1))
	seedWeek(t, b, blockID, 1, date(2024, 1, 1))

	blocks, err := b.GetTable(types.BlocksTable)
	require.NoError(t, err)
	assert.ErrorIs(t, blocks.Delete(blockID), types.ErrReferenced)
}

func TestBackend_TransactRollsBack(t *testing.T) {
	b, _ := setupBackend(t)
	boom := errors.New("boom")

	err := b.Transact(func(tx types.Tables) error {
		blocks, err := tx.GetTable(types.BlocksTable)
		if err != nil {
			return err
		}
		if _, err := blocks.Set("", &types.Block{Name: "ghost", StartDate: date(2024, 1, 1)}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	blocks, err := b.GetTable(types.BlocksTable)
	require.NoError(t, err)
	all, err := blocks.Fetch(nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBackend_ReattachRestoresRecords(t *testing.T) {
	b, dir := setupBackend(t)
	blockID := seedBlock(t, b, "marathon", date(2024, 2, 25))
	weekID := seedWeek(t, b, blockID, 1, date(2024, 2, 25))

	days, err := b.GetTable(types.DaysTable)
	require.NoError(t, err)
	found, err := days.Fetch(types.Filter{"week_id": weekID, "day_number": 3})
	require.NoError(t, err)
	require.Len(t, found, 1)
	day := found[0].(*types.Day)
	day.Miles = 8
	_, err = days.Set(day.DayID, day)
	require.NoError(t, err)

	races, err := b.GetTable(types.RacesTable)
	require.NoError(t, err)
	_, err = races.Set("", &types.Race{Name: "tune-up 10k", DayID: day.DayID, Miles: 6.2, BlockID: blockID, URL: "https://example.com/10k"})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b2.Detach()

	days2, err := b2.GetTable(types.DaysTable)
	require.NoError(t, err)
	got, err := days2.Get(day.DayID)
	require.NoError(t, err)
	assert.Equal(t, day, got.(*types.Day))

	races2, err := b2.GetTable(types.RacesTable)
	require.NoError(t, err)
	all, err := races2.Fetch(types.Filter{"block_id": blockID})
	require.NoError(t, err)
	require.Len(t, all, 1)
	race := all[0].(*types.Race)
	assert.Equal(t, "tune-up 10k", race.Name)
	assert.InDelta(t, 6.2, race.Miles, 1e-9)
	assert.Equal(t, "https://example.com/10k", race.URL)
}
