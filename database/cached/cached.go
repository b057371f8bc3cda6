// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

// Package cached puts an LRU read cache in front of any store.
package cached

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pbnjay/memory"
	"github.com/pkg/errors"

	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/utils"
)

var (
	_ database.TreeDB  = (*Database)(nil)
	_ database.Batcher = (*batch)(nil)
)

const (
	// entrySize approximates a cached tree node: key, hex hash and overhead.
	entrySize = 256

	minSize = 1 << 10
	maxSize = 1 << 22
)

// DefaultSize spends about 1/64 of the machine memory on cached entries.
func DefaultSize() int {
	size := memory.TotalMemory() / 64 / entrySize
	if size < minSize {
		return minSize
	}
	if size > maxSize {
		return maxSize
	}
	return int(size)
}

// Database caches values read from and written through it. Writes that
// bypass the wrapper are not seen until the entry is evicted.
type Database struct {
	db    database.TreeDB
	cache *lru.Cache
}

func New(db database.TreeDB, size int) (*Database, error) {
	if size <= 0 {
		size = DefaultSize()
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "create lru cache")
	}
	return &Database{db: db, cache: cache}, nil
}

func (db *Database) Has(key []byte) (bool, error) {
	if db.cache.Contains(string(key)) {
		return true, nil
	}
	return db.db.Has(key)
}

func (db *Database) Get(key []byte) ([]byte, error) {
	if v, ok := db.cache.Get(string(key)); ok {
		return utils.CopyBytes(v.([]byte)), nil
	}
	value, err := db.db.Get(key)
	if err != nil {
		return nil, err
	}
	db.cache.Add(string(key), utils.CopyBytes(value))
	return value, nil
}

func (db *Database) GetMany(keys [][]byte) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))
	var missing [][]byte
	for _, key := range keys {
		if v, ok := db.cache.Get(string(key)); ok {
			values[string(key)] = utils.CopyBytes(v.([]byte))
			continue
		}
		missing = append(missing, key)
	}
	if len(missing) == 0 {
		return values, nil
	}
	fetched, err := db.db.GetMany(missing)
	if err != nil {
		return nil, err
	}
	for key, value := range fetched {
		db.cache.Add(key, utils.CopyBytes(value))
		values[key] = value
	}
	return values, nil
}

func (db *Database) Set(key []byte, value []byte) error {
	if err := db.db.Set(key, value); err != nil {
		db.cache.Remove(string(key))
		return err
	}
	db.cache.Add(string(key), utils.CopyBytes(value))
	return nil
}

func (db *Database) Delete(key []byte) error {
	db.cache.Remove(string(key))
	return db.db.Delete(key)
}

func (db *Database) NewBatch() database.Batcher {
	return &batch{
		db:    db,
		inner: db.db.NewBatch(),
	}
}

// Close purges the cache and closes the wrapped store.
func (db *Database) Close() error {
	db.cache.Purge()
	return db.db.Close()
}

// Len returns the number of cached entries.
func (db *Database) Len() int {
	return db.cache.Len()
}

type keyvalue struct {
	key    string
	value  []byte
	delete bool
}

// batch forwards to a batch of the wrapped store and replays its writes
// into the cache once they are flushed.
type batch struct {
	db     *Database
	inner  database.Batcher
	writes []keyvalue
}

func (b *batch) Set(key, value []byte) error {
	if err := b.inner.Set(key, value); err != nil {
		return err
	}
	b.writes = append(b.writes, keyvalue{string(key), utils.CopyBytes(value), false})
	return nil
}

func (b *batch) Delete(key []byte) error {
	if err := b.inner.Delete(key); err != nil {
		return err
	}
	b.writes = append(b.writes, keyvalue{key: string(key), delete: true})
	return nil
}

func (b *batch) Write() error {
	err := b.inner.Write()
	for _, kv := range b.writes {
		if kv.delete || err != nil {
			b.db.cache.Remove(kv.key)
			continue
		}
		b.db.cache.Add(kv.key, kv.value)
	}
	return err
}

func (b *batch) ValueSize() int {
	return b.inner.ValueSize()
}

func (b *batch) Reset() {
	b.inner.Reset()
	b.writes = b.writes[:0]
}
