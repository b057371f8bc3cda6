// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package badger

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/utils"
)

var (
	_ database.TreeDB  = (*Database)(nil)
	_ database.Batcher = (*batch)(nil)
)

// Options configures a badger backed store. An empty Dir keeps the whole
// store in memory.
type Options struct {
	Dir string `yaml:"Dir"`
}

type Database struct {
	db *badger.DB
}

func New(cfg Options) (*Database, error) {
	opts := badger.DefaultOptions(cfg.Dir).WithLoggingLevel(badger.ERROR)
	if cfg.Dir == "" {
		opts = opts.WithInMemory(true)
	}
	return NewCustom(opts)
}

// NewCustom opens badger with caller supplied options.
func NewCustom(opts badger.Options) (*Database, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Database{db: db}, nil
}

// NewFromExistBadgerDB wraps an open badger instance.
func NewFromExistBadgerDB(db *badger.DB) *Database {
	return &Database{db: db}
}

func (db *Database) Has(key []byte) (bool, error) {
	err := db.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (db *Database) Get(key []byte) (val []byte, err error) {
	err = db.db.View(func(txn *badger.Txn) error {
		val, err = get(txn, key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, database.ErrDatabaseNotFound
	}
	return
}

func get(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// GetMany reads all keys from one read transaction.
func (db *Database) GetMany(keys [][]byte) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))
	err := db.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			val, err := get(txn, key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			values[string(key)] = val
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (db *Database) Set(key []byte, value []byte) error {
	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (db *Database) Delete(key []byte) error {
	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (db *Database) NewBatch() database.Batcher {
	return &batch{db: db.db}
}

func (db *Database) Close() error {
	return db.db.Close()
}

type keyvalue struct {
	key    []byte
	value  []byte
	delete bool
}

// batch buffers writes until Write. Badger splits batches that exceed a
// single transaction, so very large batches are not atomic.
type batch struct {
	db     *badger.DB
	writes []keyvalue
	size   int
}

func (b *batch) Set(key, value []byte) error {
	b.writes = append(b.writes, keyvalue{utils.CopyBytes(key), utils.CopyBytes(value), false})
	b.size += len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.writes = append(b.writes, keyvalue{utils.CopyBytes(key), nil, true})
	b.size += len(key)
	return nil
}

func (b *batch) Write() error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, kv := range b.writes {
		var err error
		if kv.delete {
			err = wb.Delete(kv.key)
		} else {
			err = wb.Set(kv.key, kv.value)
		}
		if err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *batch) ValueSize() int {
	return b.size
}

func (b *batch) Reset() {
	b.writes = b.writes[:0]
	b.size = 0
}
