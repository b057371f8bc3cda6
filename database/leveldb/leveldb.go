// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package leveldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bnb-chain/zkbnb-accumulator/database"
)

var (
	_ database.TreeDB  = (*Database)(nil)
	_ database.Batcher = (*batch)(nil)
)

const (
	// minCache is the minimum amount of memory in megabytes to allocate to leveldb
	// read and write caching, split half and half.
	minCache = 16

	// minHandles is the minimum number of files handles to allocate to the open
	// database files.
	minHandles = 16
)

// Options describes an on-disk LevelDB store.
type Options struct {
	DataDirectoryPath string `yaml:"DataDirectoryPath"`
	// Cache is the read and write cache budget in megabytes.
	Cache    int  `yaml:"Cache"`
	Handles  int  `yaml:"Handles"`
	ReadOnly bool `yaml:"ReadOnly"`
}

type Database struct {
	namespace []byte
	db        *leveldb.DB
}

// New opens or creates the store at o.DataDirectoryPath.
func New(o Options) (*Database, error) {
	cache, handles := o.Cache, o.Handles
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	return NewCustom(o.DataDirectoryPath, func(options *opt.Options) {
		options.OpenFilesCacheCapacity = handles
		options.BlockCacheCapacity = cache / 2 * opt.MiB
		options.WriteBuffer = cache / 4 * opt.MiB // Two of these are used internally
		options.ReadOnly = o.ReadOnly
	})
}

// NewFromExistLevelDB returns a wrapped LevelDB object.
func NewFromExistLevelDB(db *leveldb.DB) *Database {
	return &Database{db: db}
}

// NewCustom opens the store at file, letting customize adjust the options.
// A corrupted store is recovered before use.
func NewCustom(file string, customize func(options *opt.Options)) (*Database, error) {
	options := &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		DisableSeeksCompaction: true,
	}
	if customize != nil {
		customize(options)
	}

	db, err := leveldb.OpenFile(file, options)
	if leveldbErrors.IsCorrupted(err) {
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", file)
	}
	return NewFromExistLevelDB(db), nil
}

// WrapWithNamespace returns a view of db whose keys live under namespace.
func WrapWithNamespace(db *Database, namespace string) *Database {
	return &Database{namespace: []byte(namespace), db: db.db}
}

func (db *Database) key(key []byte) []byte {
	if len(db.namespace) == 0 {
		return key
	}
	wrapped := make([]byte, 0, len(db.namespace)+1+len(key))
	wrapped = append(wrapped, db.namespace...)
	wrapped = append(wrapped, ':')
	return append(wrapped, key...)
}

// Close flushes any pending data to disk and closes
// all io accesses to the underlying key-value store.
func (db *Database) Close() error {
	return db.db.Close()
}

func (db *Database) Has(key []byte) (bool, error) {
	return db.db.Has(db.key(key), nil)
}

func (db *Database) Get(key []byte) ([]byte, error) {
	dat, err := db.db.Get(db.key(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, database.ErrDatabaseNotFound
	}
	return dat, err
}

// GetMany reads all keys from one snapshot.
func (db *Database) GetMany(keys [][]byte) (map[string][]byte, error) {
	snap, err := db.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()

	values := make(map[string][]byte, len(keys))
	for _, key := range keys {
		dat, err := snap.Get(db.key(key), nil)
		if errors.Is(err, leveldb.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		values[string(key)] = dat
	}
	return values, nil
}

func (db *Database) Set(key []byte, value []byte) error {
	return db.db.Put(db.key(key), value, nil)
}

func (db *Database) Delete(key []byte) error {
	return db.db.Delete(db.key(key), nil)
}

// NewBatch creates a write-only key-value store that buffers changes to its host
// database until a final write is called.
func (db *Database) NewBatch() database.Batcher {
	return &batch{db: db, b: new(leveldb.Batch)}
}

// batch is a write-only leveldb batch that commits changes to its host database
// when Write is called. A batch cannot be used concurrently.
type batch struct {
	db   *Database
	b    *leveldb.Batch
	size int
}

func (b *batch) Set(key, value []byte) error {
	b.b.Put(b.db.key(key), value)
	b.size += len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(b.db.key(key))
	b.size += len(key)
	return nil
}

// Write applies the batch atomically.
func (b *batch) Write() error {
	return b.db.db.Write(b.b, nil)
}

func (b *batch) ValueSize() int {
	return b.size
}

func (b *batch) Reset() {
	b.b.Reset()
	b.size = 0
}
