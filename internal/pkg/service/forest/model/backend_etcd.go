package model

import (
	"context"

	etcd "go.etcd.io/etcd/client/v3"
)

// etcdBackend stores records in etcd, the version is the key mod revision.
type etcdBackend struct {
	client *etcd.Client
	prefix string
}

func NewEtcdBackend(client *etcd.Client, prefix string) Backend {
	return &etcdBackend{client: client, prefix: prefix}
}

func (b *etcdBackend) key(key string) string {
	return b.prefix + key
}

func (b *etcdBackend) Get(ctx context.Context, key string) (*KV, error) {
	resp, err := b.client.Get(ctx, b.key(key))
	if err != nil {
		return nil, err
	}
	if resp.Count == 0 {
		return nil, nil
	}
	kv := resp.Kvs[0]
	return &KV{Value: kv.Value, Version: kv.ModRevision}, nil
}

func (b *etcdBackend) Update(ctx context.Context, key string, value []byte, ifVersion int64) (bool, error) {
	// The mod revision of a missing key is 0, so ifVersion 0 creates the key
	// only if it does not exist, and a concurrently deleted key fails the compare.
	resp, err := b.client.Txn(ctx).
		If(etcd.Compare(etcd.ModRevision(b.key(key)), "=", ifVersion)).
		Then(etcd.OpPut(b.key(key), string(value))).
		Commit()
	if err != nil {
		return false, err
	}
	return resp.Succeeded, nil
}

func (b *etcdBackend) Delete(ctx context.Context, key string) error {
	_, err := b.client.Delete(ctx, b.key(key))
	return err
}
