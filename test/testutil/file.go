package testutil

import (
	"bytes"
	"testing"

	"github.com/docuvault/docuvault/internal/config"
	"github.com/docuvault/docuvault/internal/filestore"
)

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func NewMemFile(data []byte) filestore.ReadSeekCloser {
	return memFile{bytes.NewReader(data)}
}

func NewLocalStore(t *testing.T) filestore.Store {
	t.Helper()
	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	if err != nil {
		t.Fatalf("init local store: %v", err)
	}
	return store
}
