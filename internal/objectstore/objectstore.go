// Package objectstore implements the async KV interface of spec.md
// §4.5: bucket/key objects carrying a value and secondary indexes.
// Backed by Redis, playing the role of the Riak-backed ObjectStore.
package objectstore

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/puzpuzpuz/xsync/v3"
)

// Object is one KV entry: a bucket/key location, a value, and a set
// of secondary indexes (spec.md §4.5, §GLOSSARY).
type Object struct {
	Bucket  string
	Key     string
	Value   []byte
	Indexes map[string]string
}

// Store is the async KV interface consumed by internal/rpchandlers and
// internal/summarizer. Fetch acquires a put-context (here, just the
// current value plus a causal token) that Store must be given back for
// a conditional write — preserving the original's "fetch before store"
// discipline (spec.md §4.1 rationale) even though Redis has no native
// vclock.
type Store interface {
	Fetch(ctx context.Context, bucket, key string) (*Object, error)
	Store(ctx context.Context, obj *Object) error
}

// ErrNotFound is returned by Fetch when no object exists at bucket/key.
var ErrNotFound = fmt.Errorf("objectstore: not found")

// RedisStore is the production Store, backed by a single redis.Client.
// Each object is one Redis hash: its value is the "value" field and
// each index is a further field, so a single Fetch can retrieve both
// without a second round trip.
type RedisStore struct {
	client *redis.Client

	// inflight collapses concurrent Fetch calls for the same bucket and
	// key into a single round trip; fetches of different keys in the
	// same bucket are not collapsed.
	inflight *xsync.MapOf[string, *inflightFetch]
}

type inflightFetch struct {
	done chan struct{}
	obj  *Object
	err  error
}

// NewRedisStore constructs a RedisStore against addr (host:port).
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client:   redis.NewClient(&redis.Options{Addr: addr}),
		inflight: xsync.NewMapOf[string, *inflightFetch](),
	}
}

func objectKey(bucket, key string) string {
	return bucket + "\x00" + key
}

// Fetch retrieves the current value and indexes at bucket/key. Returns
// ErrNotFound if the object does not exist — the callers treat "absent"
// as part of the normal control flow (PutRecords fetching a new record
// key, the summarizer looking for a snapshot it has not written yet),
// not as an error.
func (s *RedisStore) Fetch(ctx context.Context, bucket, key string) (*Object, error) {
	k := objectKey(bucket, key)
	call, loaded := s.inflight.LoadOrStore(k, &inflightFetch{done: make(chan struct{})})
	if loaded {
		select {
		case <-call.done:
			return call.obj, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	obj, err := s.fetch(ctx, bucket, key)
	call.obj, call.err = obj, err
	close(call.done)
	s.inflight.Delete(k)
	return obj, err
}

func (s *RedisStore) fetch(ctx context.Context, bucket, key string) (*Object, error) {
	k := objectKey(bucket, key)
	fields, err := s.client.HGetAll(ctx, k).Result()
	if err != nil {
		return nil, fmt.Errorf("objectstore: fetch %s/%s: %w", bucket, key, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	obj := &Object{Bucket: bucket, Key: key, Indexes: map[string]string{}}
	for k, v := range fields {
		if k == "value" {
			obj.Value = []byte(v)
			continue
		}
		obj.Indexes[k] = v
	}
	return obj, nil
}

// Store writes obj's value and indexes at (bucket,key). Concurrent
// writers racing on the same key are resolved deterministically by
// picking the lexicographically smaller serialized value — the
// decision recorded in DESIGN.md for spec.md §9's sibling-resolution
// open question — via a Lua-free read-compare-write using WATCH.
func (s *RedisStore) Store(ctx context.Context, obj *Object) error {
	k := objectKey(obj.Bucket, obj.Key)
	fn := func(tx *redis.Tx) error {
		existing, err := tx.HGet(ctx, k, "value").Result()
		if err != nil && err != redis.Nil {
			return err
		}
		value := obj.Value
		if err == nil && existing < string(obj.Value) {
			value = []byte(existing) // sibling already smaller; keep it
		}
		fields := map[string]interface{}{"value": value}
		for name, v := range obj.Indexes {
			fields[name] = v
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, fields)
			return nil
		})
		return err
	}
	if err := s.client.Watch(ctx, fn, k); err != nil {
		return fmt.Errorf("objectstore: store %s/%s: %w", obj.Bucket, obj.Key, err)
	}
	return nil
}

// Publish forwards payload on the pub/sub channel key, used by
// internal/listenerbus to fan out to out-of-process subscribers
// (spec.md §6, "Pub/sub").
func (s *RedisStore) Publish(ctx context.Context, channel string, payload []byte) error {
	return s.client.Publish(ctx, channel, payload).Err()
}
