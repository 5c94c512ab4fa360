package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/williamfzc/gossiphs/internal/types"
)

func TestLocalBackendMissesOnEmptyDir(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	key := Key{Language: "go", Hash: HashContent([]byte("package a"))}
	entry, hit, err := backend.Get(context.Background(), key)
	require.NoError(t, err)
	require.False(t, hit)
	require.Nil(t, entry)
}

func TestLocalBackendRoundTripsAnEntry(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	key := Key{Language: "go", Hash: HashContent([]byte("package a"))}
	want := &Entry{Sites: []types.Site{
		{ID: 1, Name: "foo", Kind: types.SiteKindDef},
	}}
	require.NoError(t, backend.Put(context.Background(), key, want))

	got, hit, err := backend.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, want.Sites, got.Sites)
	require.Equal(t, schemaVersion, got.SchemaVersion)
}

func TestLocalBackendIgnoresCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewLocalBackend(dir)
	require.NoError(t, err)

	key := Key{Language: "go", Hash: HashContent([]byte("x"))}
	path := filepath.Join(dir, key.Language, key.hexHash()+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	entry, hit, err := backend.Get(context.Background(), key)
	require.NoError(t, err)
	require.False(t, hit)
	require.Nil(t, entry)
}

func TestLocalBackendIgnoresMismatchedSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewLocalBackend(dir)
	require.NoError(t, err)

	key := Key{Language: "go", Hash: HashContent([]byte("x"))}
	path := filepath.Join(dir, key.Language, key.hexHash()+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version":99,"sites":[]}`), 0o644))

	_, hit, err := backend.Get(context.Background(), key)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestNopBackendAlwaysMisses(t *testing.T) {
	var backend NopBackend
	key := Key{Language: "go", Hash: HashContent([]byte("x"))}
	require.NoError(t, backend.Put(context.Background(), key, &Entry{}))

	entry, hit, err := backend.Get(context.Background(), key)
	require.NoError(t, err)
	require.False(t, hit)
	require.Nil(t, entry)
	require.NoError(t, backend.Close())
}
