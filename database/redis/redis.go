// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package redis

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/utils"
)

var (
	_ database.TreeDB  = (*Database)(nil)
	_ database.Batcher = (*batch)(nil)
)

type Database struct {
	client     RedisClient
	namespace  string
	ctx        context.Context
	sharedPipe redis.Pipeliner
}

// New connects to the single node or cluster described by config and checks
// it answers within the dial timeout.
func New(config *RedisConfig, opts ...Option) (*Database, error) {
	client := config.newClient()
	ctx, cancel := context.WithTimeout(context.Background(), config.dialTimeout())
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return NewFromExistRedisClient(client, opts...), nil
}

// NewFromExistRedisClient returns a wrapped Redis object.
func NewFromExistRedisClient(client RedisClient, opts ...Option) *Database {
	db := &Database{
		client: client,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// WrapWithNamespace returns a view of db whose keys live under namespace.
func WrapWithNamespace(db *Database, namespace string) *Database {
	wrapped := *db
	wrapped.namespace = namespace
	return &wrapped
}

func (db *Database) key(key []byte) string {
	if db.namespace == "" {
		return utils.BytesToString(key)
	}
	return db.namespace + ":" + utils.BytesToString(key)
}

// Close closes the client, which may be shared with other namespaces.
func (db *Database) Close() error {
	return db.client.Close()
}

func (db *Database) Has(key []byte) (bool, error) {
	n, err := db.client.Exists(db.ctx, db.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (db *Database) Get(key []byte) ([]byte, error) {
	dat, err := db.client.Get(db.ctx, db.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, database.ErrDatabaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return utils.StringToBytes(dat), nil
}

// GetMany reads the present keys in one round trip. Cluster clients pipeline
// single GETs since MGET cannot span hash slots.
func (db *Database) GetMany(keys [][]byte) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return values, nil
	}
	wrapped := make([]string, len(keys))
	for i, key := range keys {
		wrapped[i] = db.key(key)
	}

	if _, cluster := db.client.(*redis.ClusterClient); cluster {
		cmds := make([]*redis.StringCmd, len(wrapped))
		_, err := db.client.Pipelined(db.ctx, func(pipe redis.Pipeliner) error {
			for i, key := range wrapped {
				cmds[i] = pipe.Get(db.ctx, key)
			}
			return nil
		})
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		for i, cmd := range cmds {
			dat, err := cmd.Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return nil, err
			}
			values[string(keys[i])] = utils.StringToBytes(dat)
		}
		return values, nil
	}

	dat, err := db.client.MGet(db.ctx, wrapped...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range dat {
		if s, ok := v.(string); ok {
			values[string(keys[i])] = utils.StringToBytes(s)
		}
	}
	return values, nil
}

func (db *Database) Set(key []byte, value []byte) error {
	return db.client.Set(db.ctx, db.key(key), value, 0).Err()
}

func (db *Database) Delete(key []byte) error {
	return db.client.Del(db.ctx, db.key(key)).Err()
}

// NewBatch queues writes on a pipeline, the shared one when configured.
func (db *Database) NewBatch() database.Batcher {
	pipe := db.sharedPipe
	if pipe == nil {
		pipe = db.client.Pipeline()
	}
	return &batch{db: db, pipe: pipe}
}

// batch is a write-only redis pipeline that commits changes to its host database
// when Write is called.
type batch struct {
	db   *Database
	pipe redis.Pipeliner
	size int
	lock sync.Mutex
}

func (b *batch) Set(key, value []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.pipe.Set(b.db.ctx, b.db.key(key), value, 0)
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.pipe.Del(b.db.ctx, b.db.key(key))
	b.size += len(key)
	return nil
}

// Write executes the queued commands.
func (b *batch) Write() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.size == 0 {
		return nil
	}
	if _, err := b.pipe.Exec(b.db.ctx); err != nil {
		return err
	}
	b.size = 0
	return nil
}

func (b *batch) ValueSize() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.size
}

func (b *batch) Reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.pipe.Discard()
	b.size = 0
}
