package cache

import (
	"context"
	"encoding/json"

	"github.com/valkey-io/valkey-go"

	"github.com/williamfzc/gossiphs/internal/xerrors"
)

// ValkeyBackend backs the cache with a Redis-protocol store, for a
// long-lived indexing daemon sharing state with other processes on
// the same host or cluster.
type ValkeyBackend struct {
	client valkey.Client
	prefix string
}

// NewValkeyBackend connects to addr (host:port) and verifies
// connectivity with a PING, matching the connect-then-ping pattern
// used elsewhere in the example corpus for this client.
func NewValkeyBackend(addr, password, prefix string) (*ValkeyBackend, error) {
	opts := valkey.ClientOption{InitAddress: []string{addr}}
	if password != "" {
		opts.Password = password
	}
	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, xerrors.New(xerrors.KindCacheError, "connect valkey", err)
	}
	if err := client.Do(context.Background(), client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, xerrors.New(xerrors.KindCacheError, "ping valkey", err)
	}
	return &ValkeyBackend{client: client, prefix: prefix}, nil
}

func (b *ValkeyBackend) redisKey(key Key) string {
	return b.prefix + ":" + key.Language + ":" + key.hexHash()
}

func (b *ValkeyBackend) Get(ctx context.Context, key Key) (*Entry, bool, error) {
	resp := b.client.Do(ctx, b.client.B().Get().Key(b.redisKey(key)).Build())
	if resp.Error() != nil {
		if valkey.IsValkeyNil(resp.Error()) {
			return nil, false, nil
		}
		return nil, false, xerrors.New(xerrors.KindCacheError, "get", resp.Error())
	}
	data, err := resp.AsBytes()
	if err != nil {
		return nil, false, xerrors.New(xerrors.KindCacheError, "decode", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.SchemaVersion != schemaVersion {
		return nil, false, nil
	}
	return &entry, true, nil
}

func (b *ValkeyBackend) Put(ctx context.Context, key Key, entry *Entry) error {
	entry.SchemaVersion = schemaVersion
	data, err := json.Marshal(entry)
	if err != nil {
		return xerrors.New(xerrors.KindCacheError, "marshal", err)
	}
	cmd := b.client.B().Set().Key(b.redisKey(key)).Value(string(data)).Build()
	if err := b.client.Do(ctx, cmd).Error(); err != nil {
		return xerrors.New(xerrors.KindCacheError, "set", err)
	}
	return nil
}

func (b *ValkeyBackend) Close() error {
	b.client.Close()
	return nil
}
