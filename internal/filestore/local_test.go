package filestore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func newLocal(t *testing.T) Store {
	t.Helper()
	store, err := createLocalStore(map[string]interface{}{"dir": t.TempDir()})
	require.NoError(t, err)
	return store
}

func TestLocalStoreSaveOpenExists(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	key := "owner/doc/v1"

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	require.False(t, exists)

	data := []byte("hello")
	require.NoError(t, store.Save(ctx, key, memFile{bytes.NewReader(data)}, int64(len(data))))

	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	require.True(t, exists)

	reader, err := store.Open(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	require.Equal(t, data, got)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	data := []byte("x")
	err := store.Save(ctx, "../outside", memFile{bytes.NewReader(data)}, 1)
	require.Error(t, err)

	_, err = store.Open(ctx, "../../etc/passwd")
	require.Error(t, err)
}

func TestLocalStoreRequiresDir(t *testing.T) {
	_, err := createLocalStore(map[string]interface{}{})
	require.Error(t, err)
}
