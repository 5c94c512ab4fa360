// Package cache implements the persisted extraction cache of spec §6:
// entries are pure functions of (language_tag, content_hash), so
// concurrent writers for the same key are harmless last-writer-wins,
// and a read/write failure bypasses the cache rather than failing the
// run (spec §7, CacheError).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/williamfzc/gossiphs/internal/types"
)

// Key identifies one cache entry.
type Key struct {
	Language string
	Hash     [32]byte
}

// HashContent computes the SHA-256 content hash used as half of a
// cache key, per spec §4.2's implementation hint.
func HashContent(content []byte) [32]byte {
	return sha256.Sum256(content)
}

func (k Key) hexHash() string {
	return hex.EncodeToString(k.Hash[:])
}

// Entry is the cached extraction output for one file.
type Entry struct {
	SchemaVersion int          `json:"schema_version"`
	Sites         []types.Site `json:"sites"`
}

const schemaVersion = 1

// Backend is a pluggable store for cache entries. Implementations must
// be safe for concurrent Get/Put from many extractor goroutines.
type Backend interface {
	Get(ctx context.Context, key Key) (*Entry, bool, error)
	Put(ctx context.Context, key Key, entry *Entry) error
	// Close releases any resources held by the backend (connections,
	// file handles). A no-op for stateless backends.
	Close() error
}

// NopBackend disables caching entirely: every Get misses, every Put
// succeeds without doing anything. Used when cache_dir is disabled.
type NopBackend struct{}

func (NopBackend) Get(context.Context, Key) (*Entry, bool, error) { return nil, false, nil }
func (NopBackend) Put(context.Context, Key, *Entry) error         { return nil }
func (NopBackend) Close() error                                   { return nil }
