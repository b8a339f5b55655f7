package tableview

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recdeck/recdeck/internal/errors"
	"github.com/recdeck/recdeck/internal/record"
)

func findRow(t *testing.T, table *Table, key int) *Row {
	t.Helper()
	for _, row := range table.Rows() {
		if row.Key == key {
			return row
		}
	}
	t.Fatalf("no row with key %d", key)
	return nil
}

func TestBeginEdit_Transitions(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)

	require.NoError(t, table.BeginEdit(1))
	assert.Equal(t, Editing, findRow(t, table, 1).State())

	// Other rows are untouched
	assert.Equal(t, ReadOnly, findRow(t, table, 2).State())

	// Repeat edit is a no-op
	require.NoError(t, table.BeginEdit(1))
	assert.Equal(t, Editing, findRow(t, table, 1).State())
}

func TestBeginEdit_UnknownRow(t *testing.T) {
	table := newTestTable(t, &fakeStore{records: sampleRecords()})
	err := table.BeginEdit(99)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestSetCell_RequiresEditing(t *testing.T) {
	table := newTestTable(t, &fakeStore{records: sampleRecords()})

	err := table.SetCell(1, ColumnStatus, "changed")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
	assert.Equal(t, "active", findRow(t, table, 1).Cell(ColumnStatus))
}

func TestSave_ValidInput(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)

	require.NoError(t, table.BeginEdit(1))
	require.NoError(t, table.SetCell(1, ColumnRating, "4"))
	require.NoError(t, table.SetCell(1, ColumnStatus, "updated"))
	require.NoError(t, table.Save(t.Context(), 1))

	assert.Equal(t, 1, store.updateCalls, "exactly one update call")
	assert.Equal(t, 1, store.lastUpdateID)
	assert.Equal(t, record.Record{ID: 1, ExternalID: 100, Rating: 4, Status: "updated"}, store.lastUpdateRec)
	assert.Equal(t, 1, store.listCalls, "update must trigger a reload")
	assert.Equal(t, ReadOnly, findRow(t, table, 1).State())
}

func TestSave_EditedIDCellDoesNotMoveTarget(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)

	require.NoError(t, table.BeginEdit(1))
	require.NoError(t, table.SetCell(1, ColumnID, "42"))
	require.NoError(t, table.Save(t.Context(), 1))

	// The body carries the edited id, but the store is addressed by the key
	// captured when the row was rendered.
	assert.Equal(t, 1, store.lastUpdateID)
	assert.Equal(t, 42, store.lastUpdateRec.ID)
}

func TestSave_InvalidRating(t *testing.T) {
	tests := []struct {
		name   string
		rating string
	}{
		{"too_high", "7"},
		{"too_low", "0"},
		{"negative", "-1"},
		{"not_a_number", "five"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{records: sampleRecords()}
			table := newTestTable(t, store)

			require.NoError(t, table.BeginEdit(1))
			require.NoError(t, table.SetCell(1, ColumnRating, tt.rating))

			err := table.Save(t.Context(), 1)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Zero(t, store.updateCalls, "invalid input must not reach the store")

			row := findRow(t, table, 1)
			assert.Equal(t, Editing, row.State(), "row stays in editing")
			assert.Equal(t, tt.rating, row.Cell(ColumnRating), "provisional text retained")
		})
	}
}

func TestSave_TransportFailureEntersSaveFailed(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)
	store.updateErr = transportErr()

	require.NoError(t, table.BeginEdit(1))
	require.NoError(t, table.SetCell(1, ColumnStatus, "provisional"))

	err := table.Save(t.Context(), 1)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))

	row := findRow(t, table, 1)
	assert.Equal(t, SaveFailed, row.State())
	assert.Equal(t, "provisional", row.Cell(ColumnStatus), "user input survives the failure")
	assert.Equal(t, "active", row.Record().Status, "stored record unchanged")

	// Retry succeeds once the store recovers
	store.updateErr = nil
	require.NoError(t, table.Save(t.Context(), 1))
	assert.Equal(t, ReadOnly, findRow(t, table, 1).State())
	assert.Equal(t, "provisional", store.lastUpdateRec.Status)
}

func TestCancelEdit_RevertsCells(t *testing.T) {
	table := newTestTable(t, &fakeStore{records: sampleRecords()})

	require.NoError(t, table.BeginEdit(1))
	require.NoError(t, table.SetCell(1, ColumnStatus, "scratch"))
	require.NoError(t, table.CancelEdit(1))

	row := findRow(t, table, 1)
	assert.Equal(t, ReadOnly, row.State())
	assert.Equal(t, "active", row.Cell(ColumnStatus))
}

func TestCancelEdit_FromSaveFailed(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)
	store.updateErr = transportErr()

	require.NoError(t, table.BeginEdit(1))
	require.NoError(t, table.SetCell(1, ColumnStatus, "scratch"))
	require.Error(t, table.Save(t.Context(), 1))
	require.Equal(t, SaveFailed, findRow(t, table, 1).State())

	require.NoError(t, table.CancelEdit(1))
	row := findRow(t, table, 1)
	assert.Equal(t, ReadOnly, row.State())
	assert.Equal(t, "active", row.Cell(ColumnStatus))
}

func TestDelete_RemovesLocallyWithoutReload(t *testing.T) {
	store := &fakeStore{records: []record.Record{
		{ID: 4, Rating: 1, Status: "a"},
		{ID: 5, Rating: 2, Status: "b"},
		{ID: 6, Rating: 3, Status: "c"},
	}}
	table := newTestTable(t, store)

	require.NoError(t, table.Delete(t.Context(), 5))

	assert.Equal(t, 1, store.deleteCalls, "exactly one delete call")
	assert.Zero(t, store.listCalls, "delete must not reload")
	assert.Equal(t, []int{4, 6}, rowKeys(table.Rows()))
}

func TestDelete_AvailableWhileEditing(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)

	require.NoError(t, table.BeginEdit(1))
	require.NoError(t, table.Delete(t.Context(), 1))

	assert.Equal(t, 1, store.deleteCalls)
	for _, row := range table.Rows() {
		assert.NotEqual(t, 1, row.Key)
	}
}

func TestDelete_TransportFailureKeepsRow(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)
	store.deleteErr = transportErr()

	err := table.Delete(t.Context(), 2)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	assert.NotNil(t, findRow(t, table, 2))
	assert.Len(t, table.Rows(), 3)
}

func TestParseCells_RoundTrip(t *testing.T) {
	rec := record.Record{ID: 7, ExternalID: 70, Rating: 5, Status: "ok"}
	cells := [numColumns]string{
		ColumnID:         strconv.Itoa(rec.ID),
		ColumnExternalID: strconv.Itoa(rec.ExternalID),
		ColumnRating:     strconv.Itoa(rec.Rating),
		ColumnStatus:     rec.Status,
	}

	parsed, err := parseCells(cells)
	require.NoError(t, err)
	assert.Equal(t, rec, parsed)
}
