// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package metadata

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/bnb-chain/zkbnb-accumulator/database"
)

// Table is a family of string values sharing a key prefix.
type Table struct {
	db     database.TreeDB
	prefix string
}

func NewTable(db database.TreeDB, prefix string) *Table {
	return &Table{db: db, prefix: prefix}
}

func (t *Table) Key(suffix string) string {
	return t.prefix + separator + suffix
}

func (t *Table) Get(suffix string) (string, bool, error) {
	raw, err := t.db.Get([]byte(t.Key(suffix)))
	if errors.Is(err, database.ErrDatabaseNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(raw), true, nil
}

// GetMany returns the present values keyed by suffix.
func (t *Table) GetMany(suffixes []string) (map[string]string, error) {
	keys := make([][]byte, len(suffixes))
	for i, suffix := range suffixes {
		keys[i] = []byte(t.Key(suffix))
	}
	raw, err := t.db.GetMany(keys)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(raw))
	for i, suffix := range suffixes {
		if v, ok := raw[string(keys[i])]; ok {
			values[suffix] = string(v)
		}
	}
	return values, nil
}

func (t *Table) Set(suffix, value string) error {
	return t.db.Set([]byte(t.Key(suffix)), []byte(value))
}

func (t *Table) SetMany(values map[string]string) error {
	entries := make(map[string][]byte, len(values))
	for suffix, value := range values {
		entries[t.Key(suffix)] = []byte(value)
	}
	return database.SetMany(t.db, entries)
}

func (t *Table) DeleteMany(suffixes []string) error {
	keys := make([][]byte, len(suffixes))
	for i, suffix := range suffixes {
		keys[i] = []byte(t.Key(suffix))
	}
	return database.DeleteMany(t.db, keys)
}

// HashTable stores node hashes by element index.
type HashTable interface {
	Get(index uint64) (string, bool, error)
	// GetMany omits absent indexes from the result.
	GetMany(indexes []uint64) (map[uint64]string, error)
	Set(index uint64, value string) error
	SetMany(values map[uint64]string) error
	DeleteMany(indexes []uint64) error
	Key(index uint64) string
}

var _ HashTable = (*IndexedTable)(nil)

// IndexedTable is a Table keyed by decimal indexes.
type IndexedTable struct {
	table *Table
}

func NewIndexedTable(db database.TreeDB, prefix string) *IndexedTable {
	return &IndexedTable{table: NewTable(db, prefix)}
}

func (t *IndexedTable) Key(index uint64) string {
	return t.table.Key(strconv.FormatUint(index, 10))
}

func (t *IndexedTable) Get(index uint64) (string, bool, error) {
	return t.table.Get(strconv.FormatUint(index, 10))
}

func (t *IndexedTable) GetMany(indexes []uint64) (map[uint64]string, error) {
	suffixes := make([]string, len(indexes))
	for i, index := range indexes {
		suffixes[i] = strconv.FormatUint(index, 10)
	}
	raw, err := t.table.GetMany(suffixes)
	if err != nil {
		return nil, err
	}
	values := make(map[uint64]string, len(raw))
	for i, index := range indexes {
		if v, ok := raw[suffixes[i]]; ok {
			values[index] = v
		}
	}
	return values, nil
}

func (t *IndexedTable) Set(index uint64, value string) error {
	return t.table.Set(strconv.FormatUint(index, 10), value)
}

func (t *IndexedTable) SetMany(values map[uint64]string) error {
	entries := make(map[string]string, len(values))
	for index, value := range values {
		entries[strconv.FormatUint(index, 10)] = value
	}
	return t.table.SetMany(entries)
}

// DeleteMany removes the given indexes.
func (t *IndexedTable) DeleteMany(indexes []uint64) error {
	suffixes := make([]string, len(indexes))
	for i, index := range indexes {
		suffixes[i] = strconv.FormatUint(index, 10)
	}
	return t.table.DeleteMany(suffixes)
}
