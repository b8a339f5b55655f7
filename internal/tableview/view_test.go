package tableview

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recdeck/recdeck/internal/errors"
	"github.com/recdeck/recdeck/internal/record"
)

// fakeStore is an in-memory Store that counts calls, so tests can assert
// exactly which remote operations a table action generates.
type fakeStore struct {
	mu      sync.Mutex
	records []record.Record

	listCalls   int
	createCalls int
	updateCalls int
	deleteCalls int

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	lastUpdateID  int
	lastUpdateRec record.Record
}

func (f *fakeStore) List(ctx context.Context) ([]record.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]record.Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, rec record.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStore) Update(ctx context.Context, id int, rec record.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastUpdateID = id
	f.lastUpdateRec = rec
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i] = rec
			break
		}
	}
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			break
		}
	}
	return nil
}

func transportErr() error {
	return errors.Newf("connection refused").
		Category(errors.CategoryNetwork).
		Component("store").
		Build()
}

func sampleRecords() []record.Record {
	return []record.Record{
		{ID: 1, ExternalID: 100, Rating: 3, Status: "active"},
		{ID: 2, ExternalID: 200, Rating: 1, Status: "inactive"},
		{ID: 3, ExternalID: 300, Rating: 5, Status: "pending"},
	}
}

// newTestTable returns a table pre-rendered from the fake store's records.
func newTestTable(t *testing.T, store *fakeStore) *Table {
	t.Helper()
	table := New(store)
	require.NoError(t, table.Reload(t.Context()))
	store.mu.Lock()
	store.listCalls = 0
	store.mu.Unlock()
	return table
}

func rowKeys(rows []*Row) []int {
	keys := make([]int, len(rows))
	for i, row := range rows {
		keys[i] = row.Key
	}
	return keys
}

func TestRender_SortsAscendingByRating(t *testing.T) {
	table := New(&fakeStore{})
	table.Render(sampleRecords())

	// rating 1 (id 2), rating 3 (id 1), rating 5 (id 3)
	assert.Equal(t, []int{2, 1, 3}, rowKeys(table.Rows()))
}

func TestRender_StableOnRatingTies(t *testing.T) {
	table := New(&fakeStore{})
	table.Render([]record.Record{
		{ID: 10, Rating: 2, Status: "a"},
		{ID: 11, Rating: 2, Status: "b"},
		{ID: 12, Rating: 1, Status: "c"},
		{ID: 13, Rating: 2, Status: "d"},
	})

	assert.Equal(t, []int{12, 10, 11, 13}, rowKeys(table.Rows()))
}

func TestRender_Idempotent(t *testing.T) {
	table := New(&fakeStore{})
	records := sampleRecords()

	table.Render(records)
	first := rowKeys(table.Rows())
	table.Render(records)
	second := rowKeys(table.Rows())

	assert.Equal(t, first, second)
}

func TestRender_DiscardsEditState(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)

	require.NoError(t, table.BeginEdit(1))
	table.Render(sampleRecords())

	for _, row := range table.Rows() {
		assert.Equal(t, ReadOnly, row.State())
	}
}

func TestReload_TransportErrorKeepsRows(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)

	store.listErr = transportErr()
	err := table.Reload(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	assert.Len(t, table.Rows(), 3)
}

func TestCreate_ReloadsByDefault(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)

	rec := record.Record{ID: 4, ExternalID: 400, Rating: 2, Status: "new"}
	require.NoError(t, table.Create(t.Context(), rec))

	assert.Equal(t, 1, store.createCalls)
	assert.Equal(t, 1, store.listCalls, "create must trigger a reload")
	// rating 1 (id 2), rating 2 (id 4), rating 3 (id 1), rating 5 (id 3)
	assert.Equal(t, []int{2, 4, 1, 3}, rowKeys(table.Rows()))
}

func TestCreate_InvalidRatingMakesNoCalls(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)

	err := table.Create(t.Context(), record.Record{ID: 4, Rating: 6})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, store.createCalls)
	assert.Zero(t, store.listCalls)
	assert.Len(t, table.Rows(), 3)
}

func TestCreate_TransportErrorLeavesTableUnchanged(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := newTestTable(t, store)
	store.createErr = transportErr()

	before := rowKeys(table.Rows())
	err := table.Create(t.Context(), record.Record{ID: 4, Rating: 2, Status: "new"})
	require.Error(t, err)
	assert.Zero(t, store.listCalls, "failed create must not reload")
	assert.Equal(t, before, rowKeys(table.Rows()))
}

func TestPolicy_NoneSkipsPostOperations(t *testing.T) {
	store := &fakeStore{records: sampleRecords()}
	table := NewWithPolicy(store, Policy{Create: PostOpNone, Update: PostOpNone, Delete: PostOpNone})
	require.NoError(t, table.Reload(t.Context()))
	store.listCalls = 0

	require.NoError(t, table.Create(t.Context(), record.Record{ID: 4, Rating: 2}))
	require.NoError(t, table.Delete(t.Context(), 1))

	assert.Zero(t, store.listCalls)
	assert.Len(t, table.Rows(), 3, "local remove disabled, row stays until next reload")
}
