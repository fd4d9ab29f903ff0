package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbets/workbets-server/internal/store"
)

func newTestBackend(t *testing.T, path string) *Backend {
	t.Helper()
	b, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestOpen_UsesWAL(t *testing.T) {
	b := newTestBackend(t, filepath.Join(t.TempDir(), "test.db"))

	var journalMode string
	require.NoError(t, b.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)
}

func TestBackend_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	b, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, b.Update(ctx, func(kv store.KV) error {
		return kv.Set([]byte("doc:wagers:wgr-1"), []byte(`{"id":"wgr-1"}`))
	}))
	require.NoError(t, b.Close())

	b = newTestBackend(t, path)
	require.NoError(t, b.View(ctx, func(kv store.KV) error {
		v, err := kv.Get([]byte("doc:wagers:wgr-1"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"wgr-1"}`, string(v))
		return nil
	}))
}

func TestBackend_FailedUpdateRollsBack(t *testing.T) {
	b := newTestBackend(t, ":memory:")
	ctx := context.Background()

	err := b.Update(ctx, func(kv store.KV) error {
		if err := kv.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return store.ErrConflict
	})
	require.ErrorIs(t, err, store.ErrConflict)

	require.NoError(t, b.View(ctx, func(kv store.KV) error {
		_, err := kv.Get([]byte("k"))
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	}))
}

func TestBackend_ScanIsPrefixBoundedAndOrdered(t *testing.T) {
	b := newTestBackend(t, ":memory:")
	ctx := context.Background()

	require.NoError(t, b.Update(ctx, func(kv store.KV) error {
		for _, k := range []string{"idx:b", "doc:b", "doc:a", "doc;", "do"} {
			if err := kv.Set([]byte(k), nil); err != nil {
				return err
			}
		}
		return nil
	}))

	var keys []string
	require.NoError(t, b.Update(ctx, func(kv store.KV) error {
		return kv.Scan([]byte("doc:"), func(key, _ []byte) error {
			keys = append(keys, string(key))
			// Writing during a scan is allowed.
			return kv.Delete(key)
		})
	}))
	assert.Equal(t, []string{"doc:a", "doc:b"}, keys)

	require.NoError(t, b.View(ctx, func(kv store.KV) error {
		_, err := kv.Get([]byte("doc;"))
		assert.NoError(t, err)
		_, err = kv.Get([]byte("doc:a"))
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	}))
}
