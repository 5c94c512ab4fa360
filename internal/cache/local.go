package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/williamfzc/gossiphs/internal/xerrors"
)

// LocalBackend persists entries under
// cache_dir/<language_tag>/<hex(content_hash)>.json, written via a
// temp-file-then-rename so concurrent writers never observe a
// partial file, per spec §5's "written atomically (temp-file +
// rename)."
type LocalBackend struct {
	dir string
}

// NewLocalBackend creates the cache directory if needed.
func NewLocalBackend(dir string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, xerrors.New(xerrors.KindCacheError, "mkdir", err).WithFile(dir)
	}
	return &LocalBackend{dir: dir}, nil
}

func (b *LocalBackend) pathFor(key Key) string {
	return filepath.Join(b.dir, key.Language, key.hexHash()+".json")
}

func (b *LocalBackend) Get(ctx context.Context, key Key) (*Entry, bool, error) {
	path := b.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, xerrors.New(xerrors.KindCacheError, "read", err).WithFile(path)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A mismatching schema header or corrupt entry invalidates it
		// silently rather than failing the run.
		return nil, false, nil
	}
	if entry.SchemaVersion != schemaVersion {
		return nil, false, nil
	}
	return &entry, true, nil
}

func (b *LocalBackend) Put(ctx context.Context, key Key, entry *Entry) error {
	entry.SchemaVersion = schemaVersion
	data, err := json.Marshal(entry)
	if err != nil {
		return xerrors.New(xerrors.KindCacheError, "marshal", err)
	}

	path := b.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return xerrors.New(xerrors.KindCacheError, "mkdir", err).WithFile(path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return xerrors.New(xerrors.KindCacheError, "create temp", err).WithFile(path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return xerrors.New(xerrors.KindCacheError, "write temp", err).WithFile(path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return xerrors.New(xerrors.KindCacheError, "close temp", err).WithFile(path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return xerrors.New(xerrors.KindCacheError, "rename", err).WithFile(path)
	}
	return nil
}

func (b *LocalBackend) Close() error { return nil }
