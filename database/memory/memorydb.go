// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

// Package memory is a map backed store for tests and short lived ranges.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/utils"
)

var (
	_ database.TreeDB  = (*MemoryDB)(nil)
	_ database.Batcher = (*batch)(nil)
)

// MemoryDB keeps copies of every value in a map. A closed MemoryDB answers
// every call with database.ErrDatabaseClosed.
type MemoryDB struct {
	lock    sync.RWMutex
	entries map[string][]byte
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{entries: make(map[string][]byte)}
}

func (db *MemoryDB) read(fn func(entries map[string][]byte) error) error {
	db.lock.RLock()
	defer db.lock.RUnlock()
	if db.entries == nil {
		return database.ErrDatabaseClosed
	}
	return fn(db.entries)
}

func (db *MemoryDB) write(fn func(entries map[string][]byte)) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.entries == nil {
		return database.ErrDatabaseClosed
	}
	fn(db.entries)
	return nil
}

func (db *MemoryDB) Has(key []byte) (found bool, err error) {
	err = db.read(func(entries map[string][]byte) error {
		_, found = entries[string(key)]
		return nil
	})
	return found, err
}

func (db *MemoryDB) Get(key []byte) (value []byte, err error) {
	err = db.read(func(entries map[string][]byte) error {
		stored, ok := entries[string(key)]
		if !ok {
			return database.ErrDatabaseNotFound
		}
		value = utils.CopyBytes(stored)
		return nil
	})
	return value, err
}

func (db *MemoryDB) GetMany(keys [][]byte) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))
	err := db.read(func(entries map[string][]byte) error {
		for _, key := range keys {
			if stored, ok := entries[string(key)]; ok {
				values[string(key)] = utils.CopyBytes(stored)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (db *MemoryDB) Set(key []byte, value []byte) error {
	value = utils.CopyBytes(value)
	return db.write(func(entries map[string][]byte) {
		entries[string(key)] = value
	})
}

func (db *MemoryDB) Delete(key []byte) error {
	return db.write(func(entries map[string][]byte) {
		delete(entries, string(key))
	})
}

func (db *MemoryDB) NewBatch() database.Batcher {
	return &batch{db: db}
}

// Len returns the number of stored keys.
func (db *MemoryDB) Len() int {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return len(db.entries)
}

// Keys returns the sorted stored keys starting with prefix.
func (db *MemoryDB) Keys(prefix string) []string {
	db.lock.RLock()
	defer db.lock.RUnlock()

	keys := lo.Filter(lo.Keys(db.entries), func(key string, _ int) bool {
		return strings.HasPrefix(key, prefix)
	})
	sort.Strings(keys)
	return keys
}

func (db *MemoryDB) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.entries = nil
	return nil
}

// op is a queued write; a nil value with del set removes the key.
type op struct {
	key   string
	value []byte
	del   bool
}

// batch queues writes and applies them in order under one lock.
type batch struct {
	db   *MemoryDB
	ops  []op
	size int
}

func (b *batch) Set(key, value []byte) error {
	b.ops = append(b.ops, op{key: string(key), value: utils.CopyBytes(value)})
	b.size += len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, op{key: string(key), del: true})
	b.size += len(key)
	return nil
}

func (b *batch) Write() error {
	return b.db.write(func(entries map[string][]byte) {
		for _, o := range b.ops {
			if o.del {
				delete(entries, o.key)
			} else {
				entries[o.key] = o.value
			}
		}
	})
}

func (b *batch) ValueSize() int {
	return b.size
}

func (b *batch) Reset() {
	b.ops = b.ops[:0]
	b.size = 0
}
