package devstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recdeck/recdeck/internal/conf"
	"github.com/recdeck/recdeck/internal/errors"
	"github.com/recdeck/recdeck/internal/record"
)

// backends runs a subtest against every store implementation so both stay
// behaviorally identical.
func backends(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Open())
		t.Cleanup(func() { _ = store.Close() })
		fn(t, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		store := NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"))
		require.NoError(t, store.Open())
		t.Cleanup(func() { _ = store.Close() })
		fn(t, store)
	})
}

func TestStore_InsertAndAll(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := t.Context()

		require.NoError(t, store.Insert(ctx, record.Record{ID: 2, ExternalID: 200, Rating: 1, Status: "inactive"}))
		require.NoError(t, store.Insert(ctx, record.Record{ID: 1, ExternalID: 100, Rating: 3, Status: "active"}))

		all, err := store.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, 1, all[0].ID, "All returns records ordered by id")
		assert.Equal(t, 2, all[1].ID)
		assert.Equal(t, "active", all[0].Status)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestStore_InsertDuplicate(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := t.Context()
		rec := record.Record{ID: 1, Rating: 3, Status: "active"}

		require.NoError(t, store.Insert(ctx, rec))
		err := store.Insert(ctx, rec)
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryConflict))
	})
}

func TestStore_Replace(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := t.Context()
		require.NoError(t, store.Insert(ctx, record.Record{ID: 1, ExternalID: 100, Rating: 3, Status: "active"}))

		updated := record.Record{ID: 1, ExternalID: 100, Rating: 5, Status: "archived"}
		require.NoError(t, store.Replace(ctx, 1, updated))

		all, err := store.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, updated, all[0])
	})
}

func TestStore_ReplaceMovesID(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := t.Context()
		require.NoError(t, store.Insert(ctx, record.Record{ID: 1, Rating: 3, Status: "active"}))

		require.NoError(t, store.Replace(ctx, 1, record.Record{ID: 9, Rating: 3, Status: "active"}))

		all, err := store.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, 9, all[0].ID)
	})
}

func TestStore_ReplaceMissing(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		err := store.Replace(t.Context(), 42, record.Record{ID: 42, Rating: 1})
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestStore_Remove(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := t.Context()
		require.NoError(t, store.Insert(ctx, record.Record{ID: 1, Rating: 1}))
		require.NoError(t, store.Insert(ctx, record.Record{ID: 2, Rating: 2}))

		require.NoError(t, store.Remove(ctx, 1))

		all, err := store.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, 2, all[0].ID)
	})
}

func TestStore_RemoveMissing(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		err := store.Remove(t.Context(), 42)
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")

	store := NewSQLiteStore(path)
	require.NoError(t, store.Open())
	require.NoError(t, store.Insert(t.Context(), record.Record{ID: 1, Rating: 4, Status: "kept"}))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(path)
	require.NoError(t, reopened.Open())
	t.Cleanup(func() { _ = reopened.Close() })

	all, err := reopened.All(t.Context())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "kept", all[0].Status)
}

func TestNew_BackendSelection(t *testing.T) {
	tests := []struct {
		backend string
		want    any
		wantErr bool
	}{
		{backend: "memory", want: &MemoryStore{}},
		{backend: "", want: &MemoryStore{}},
		{backend: "sqlite", want: &SQLiteStore{}},
		{backend: "postgres", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("backend_"+tt.backend, func(t *testing.T) {
			settings := &conf.Settings{}
			settings.DevServer.Backend = tt.backend
			settings.DevServer.Database = filepath.Join(t.TempDir(), "records.db")

			store, err := New(settings)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
		})
	}
}
