package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rainbowlabs/notionpush/src/store"
	"github.com/stretchr/testify/assert"
)

func getSqliteStore(t *testing.T) store.RecordStore {
	recordStore, err := store.GetSqliteStore(
		filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		assert.Nil(t, recordStore.Close())
	})
	return recordStore
}

func TestSqliteStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	recordStore := getSqliteStore(t)

	t.Run("Load missing record", func(t *testing.T) {
		_, _, err := recordStore.Load(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrRecordNotFound)
	})

	t.Run("Create and load record", func(t *testing.T) {
		revision, err := recordStore.Save(ctx, "error_log",
			[]byte(`{"errors":[]}`), store.NoRevision)
		assert.Nil(t, err)
		assert.NotEqual(t, store.NoRevision, revision)

		data, loadedRevision, err := recordStore.Load(ctx, "error_log")
		assert.Nil(t, err)
		assert.Equal(t, `{"errors":[]}`, string(data))
		assert.Equal(t, revision, loadedRevision)
	})
}

func TestSqliteStoreRevisionConflicts(t *testing.T) {
	ctx := context.Background()
	recordStore := getSqliteStore(t)

	revision, err := recordStore.Save(ctx, "sync_status", []byte(`{}`),
		store.NoRevision)
	assert.Nil(t, err)

	t.Run("Create over existing record", func(t *testing.T) {
		_, err := recordStore.Save(ctx, "sync_status", []byte(`{}`),
			store.NoRevision)
		assert.ErrorIs(t, err, store.ErrRevisionConflict)
	})

	t.Run("Save with matching revision", func(t *testing.T) {
		updated, err := recordStore.Save(ctx, "sync_status",
			[]byte(`{"success_count":1}`), revision)
		assert.Nil(t, err)
		assert.NotEqual(t, revision, updated)
	})

	t.Run("Save with stale revision", func(t *testing.T) {
		_, err := recordStore.Save(ctx, "sync_status", []byte(`{}`), revision)
		assert.ErrorIs(t, err, store.ErrRevisionConflict)
	})
}

func TestSqliteStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	recordStore := getSqliteStore(t)

	for _, key := range []string{"tasks/beta", "tasks/alpha", "tasks_other"} {
		_, err := recordStore.Save(ctx, key, []byte(`{}`), store.NoRevision)
		assert.Nil(t, err)
	}

	t.Run("List with prefix", func(t *testing.T) {
		keys, err := recordStore.List(ctx, "tasks/")
		assert.Nil(t, err)
		assert.Equal(t, []string{"tasks/alpha", "tasks/beta"}, keys)
	})

	t.Run("Delete record", func(t *testing.T) {
		err := recordStore.Delete(ctx, "tasks/alpha")
		assert.Nil(t, err)

		_, _, err = recordStore.Load(ctx, "tasks/alpha")
		assert.ErrorIs(t, err, store.ErrRecordNotFound)
	})

	t.Run("Delete missing record", func(t *testing.T) {
		err := recordStore.Delete(ctx, "tasks/alpha")
		assert.ErrorIs(t, err, store.ErrRecordNotFound)
	})
}
