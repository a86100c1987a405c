package model

import (
	"context"
	"sync"
)

// memoryBackend is an in-process Backend with the same versioning semantics
// as the etcd backend, used in tests and single-node runs.
type memoryBackend struct {
	lock    sync.Mutex
	version int64
	values  map[string]KV
}

func NewMemoryBackend() Backend {
	return &memoryBackend{values: make(map[string]KV)}
}

func (b *memoryBackend) Get(_ context.Context, key string) (*KV, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	kv, found := b.values[key]
	if !found {
		return nil, nil
	}
	out := KV{Value: append([]byte(nil), kv.Value...), Version: kv.Version}
	return &out, nil
}

func (b *memoryBackend) Update(_ context.Context, key string, value []byte, ifVersion int64) (bool, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	// Versions start at 1, so ifVersion 0 matches only a missing key.
	kv, found := b.values[key]
	if !found && ifVersion != 0 {
		return false, nil
	}
	if found && kv.Version != ifVersion {
		return false, nil
	}
	b.version++
	b.values[key] = KV{Value: append([]byte(nil), value...), Version: b.version}
	return true, nil
}

func (b *memoryBackend) Delete(_ context.Context, key string) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	delete(b.values, key)
	return nil
}
