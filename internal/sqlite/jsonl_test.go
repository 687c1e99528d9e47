package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/miles/pkg/types"
)

func TestWriteReadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	records := []json.RawMessage{
		json.RawMessage(`{"a":1}`),
		json.RawMessage(`{"b":"two"}`),
	}
	require.NoError(t, writeJSONL(path, records))

	got, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"a":1}`, string(got[0]))
	assert.JSONEq(t, `{"b":"two"}`, string(got[1]))

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".jsonl-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files are renamed away")
}

func TestReadJSONLSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	content := "{\"ok\":1}\n\nnot json\n{\"ok\":2}\n{\"truncated\":\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := readJSONL(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBackend_PersistsJSONLOnWrite(t *testing.T) {
	b, dir := setupBackend(t)
	blockID := seedBlock(t, b, "base", date(2024, 3, 4))
	seedWeek(t, b, blockID, 1, date(2024, 3, 4))

	data, err := os.ReadFile(filepath.Join(dir, blocksJSONL))
	require.NoError(t, err)
	assert.Equal(t, `{"block_id":"`+blockID+`","name":"base","start_date":"2024-03-04"}`+"\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, daysJSONL))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, types.DaysPerWeek)

	var first dayJSON
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "2024-03-04", first.Date)
	assert.Equal(t, 1, first.DayNumber)
	require.NotNil(t, first.BlockID)
	assert.Equal(t, blockID, *first.BlockID)
}

func TestBackend_DetachedDayPersistsNulls(t *testing.T) {
	b, dir := setupBackend(t)
	days, err := b.GetTable(types.DaysTable)
	require.NoError(t, err)
	_, err = days.Set("", &types.Day{Date: date(2024, 5, 5)})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, daysJSONL))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"block_id":null`)
	assert.Contains(t, string(data), `"week_id":null`)
}
