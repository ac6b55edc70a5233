package processor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDataset(t *testing.T, fields []string, rows ...map[string]string) *Dataset {
	t.Helper()
	ds := NewDataset(fields)
	for _, row := range rows {
		require.NoError(t, ds.AppendRow(row))
	}
	return ds
}

func TestSyncDataset(t *testing.T) {
	tests := []struct {
		name      string
		oldFields []string
		oldRows   []map[string]string
		newFields []string
		wantRows  []Row
	}{
		{
			name:      "empty dataset takes new fields",
			oldFields: []string{"A", "B"},
			newFields: []string{"C"},
			wantRows:  []Row{},
		},
		{
			name:      "intersecting values are preserved",
			oldFields: []string{"A", "B"},
			oldRows:   []map[string]string{{"A": "1", "B": "2"}},
			newFields: []string{"B", "C"},
			wantRows:  []Row{{"B": "2", "C": ""}},
		},
		{
			name:      "removed field is dropped",
			oldFields: []string{"A", "B"},
			oldRows:   []map[string]string{{"A": "x", "B": "y"}},
			newFields: []string{"B"},
			wantRows:  []Row{{"B": "y"}},
		},
		{
			name:      "row order and count preserved",
			oldFields: []string{"Name"},
			oldRows: []map[string]string{
				{"Name": "Goblin"},
				{"Name": "Orc"},
				{"Name": "Troll"},
			},
			newFields: []string{"Name", "Level"},
			wantRows: []Row{
				{"Name": "Goblin", "Level": ""},
				{"Name": "Orc", "Level": ""},
				{"Name": "Troll", "Level": ""},
			},
		},
		{
			name:      "all fields removed",
			oldFields: []string{"A"},
			oldRows:   []map[string]string{{"A": "1"}, {"A": "2"}},
			newFields: []string{},
			wantRows:  []Row{{}, {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := newTestDataset(t, tt.oldFields, tt.oldRows...)

			got := SyncDataset(old, tt.newFields)

			assert.Equal(t, tt.newFields, got.Fields())
			if diff := cmp.Diff(tt.wantRows, got.Rows()); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
			// the source dataset is never modified
			assert.Equal(t, tt.oldFields, old.Fields())
			assert.Equal(t, len(tt.oldRows), old.Len())
		})
	}
}

func TestSyncDatasetSameFieldsIsNoop(t *testing.T) {
	ds := newTestDataset(t, []string{"A", "B"},
		map[string]string{"A": "1", "B": "2"},
		map[string]string{"A": "3"},
	)

	synced := ds.Sync([]string{"A", "B"})

	assert.True(t, ds.Equal(synced))
	assert.NotSame(t, ds, synced)
}

func TestDatasetRowEditing(t *testing.T) {
	ds := NewDataset([]string{"Title", "Description"})

	require.NoError(t, ds.AppendRow(map[string]string{"Title": "Goblin"}))
	require.NoError(t, ds.AppendRow(nil))
	assert.Equal(t, 2, ds.Len())

	row, err := ds.Row(0)
	require.NoError(t, err)
	assert.Equal(t, Row{"Title": "Goblin", "Description": ""}, row)

	require.NoError(t, ds.SetCell(1, "Description", "Sneaky"))
	values, err := ds.Values(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "Sneaky"}, values)

	require.NoError(t, ds.UpdateRow(0, map[string]string{"Description": "Small"}))
	row, _ = ds.Row(0)
	assert.Equal(t, Row{"Title": "Goblin", "Description": "Small"}, row)

	require.NoError(t, ds.DeleteRow(0))
	assert.Equal(t, 1, ds.Len())
	row, _ = ds.Row(0)
	assert.Equal(t, "Sneaky", row["Description"])
}

func TestDatasetRejectsInvalidEdits(t *testing.T) {
	ds := newTestDataset(t, []string{"A"}, map[string]string{"A": "1"})

	err := ds.AppendRow(map[string]string{"B": "2"})
	assert.True(t, errors.Is(err, ErrUnknownField))
	assert.Equal(t, 1, ds.Len())

	err = ds.SetCell(0, "Z", "v")
	assert.True(t, errors.Is(err, ErrUnknownField))

	assert.True(t, errors.Is(ds.DeleteRow(5), ErrRowIndex))
	assert.True(t, errors.Is(ds.UpdateRow(-1, nil), ErrRowIndex))
	_, err = ds.Row(1)
	assert.True(t, errors.Is(err, ErrRowIndex))
}

func TestDatasetRowsAreCopies(t *testing.T) {
	ds := newTestDataset(t, []string{"A"}, map[string]string{"A": "1"})

	rows := ds.Rows()
	rows[0]["A"] = "changed"

	row, _ := ds.Row(0)
	assert.Equal(t, "1", row["A"])
}
