// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package boltdb

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/utils"
)

var (
	_ database.TreeDB  = (*Database)(nil)
	_ database.Batcher = (*batch)(nil)
)

// Bucket holds every key of the store.
var Bucket = []byte("accumulator")

// Options configures a bolt backed store.
type Options struct {
	FilePath string `yaml:"FilePath"`
}

type Database struct {
	db *bbolt.DB
}

// New opens (or creates) the bolt file at cfg.FilePath.
func New(cfg Options) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "could not create dir for BoltDB")
	}
	db, err := bbolt.Open(cfg.FilePath, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		return errors.Wrap(err, "could not create root bucket")
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db}, nil
}

// lookup distinguishes an empty value from an absent key, which a plain
// bucket Get cannot.
func lookup(b *bbolt.Bucket, key []byte) ([]byte, bool) {
	k, v := b.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, false
	}
	return utils.CopyBytes(v), true
}

func (db *Database) Has(key []byte) (has bool, err error) {
	err = db.db.View(func(tx *bbolt.Tx) error {
		_, has = lookup(tx.Bucket(Bucket), key)
		return nil
	})
	return
}

func (db *Database) Get(key []byte) (val []byte, err error) {
	var ok bool
	err = db.db.View(func(tx *bbolt.Tx) error {
		val, ok = lookup(tx.Bucket(Bucket), key)
		return nil
	})
	if err == nil && !ok {
		err = database.ErrDatabaseNotFound
	}
	return
}

// GetMany reads all keys in one read transaction.
func (db *Database) GetMany(keys [][]byte) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))
	err := db.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		for _, key := range keys {
			if val, ok := lookup(b, key); ok {
				values[string(key)] = val
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (db *Database) Set(key []byte, value []byte) error {
	return db.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).Put(key, nonNil(value))
	})
}

func (db *Database) Delete(key []byte) error {
	return db.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).Delete(key)
	})
}

func (db *Database) NewBatch() database.Batcher {
	return &batch{db: db.db}
}

func (db *Database) Close() error {
	return db.db.Close()
}

func nonNil(value []byte) []byte {
	if value == nil {
		return []byte{}
	}
	return value
}

type keyvalue struct {
	key    []byte
	value  []byte
	delete bool
}

// batch buffers writes and applies them in a single bolt transaction.
type batch struct {
	db     *bbolt.DB
	writes []keyvalue
	size   int
}

func (b *batch) Set(key, value []byte) error {
	b.writes = append(b.writes, keyvalue{utils.CopyBytes(key), nonNil(utils.CopyBytes(value)), false})
	b.size += len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.writes = append(b.writes, keyvalue{utils.CopyBytes(key), nil, true})
	b.size += len(key)
	return nil
}

func (b *batch) Write() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Bucket)
		for _, kv := range b.writes {
			var err error
			if kv.delete {
				err = bucket.Delete(kv.key)
			} else {
				err = bucket.Put(kv.key, kv.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *batch) ValueSize() int {
	return b.size
}

func (b *batch) Reset() {
	b.writes = b.writes[:0]
	b.size = 0
}
