// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

// Package database is the key-value store port the accumulators persist
// their nodes and metadata through.
package database

type (
	KeyValueReader interface {
		// Has retrieves if a key is present in the key-value data store.
		Has(key []byte) (bool, error)

		// Get retrieves the given key if it's present in the key-value data store.
		Get(key []byte) ([]byte, error)

		// GetMany retrieves every present key, keyed by its string form.
		// Absent keys are omitted from the result.
		GetMany(keys [][]byte) (map[string][]byte, error)
	}
	KeyValueWriter interface {
		// Set inserts the given value into the key-value data store.
		Set(key []byte, value []byte) error

		// Delete removes the key from the key-value data store.
		Delete(key []byte) error
	}
	TreeDB interface {
		KeyValueReader
		KeyValueWriter
		// NewBatch creates a write-only database that buffers changes to its host db
		// until a final write is called.
		NewBatch() Batcher
		Close() error
	}

	Batcher interface {
		KeyValueWriter

		// Write flushes any accumulated data to disk.
		Write() error

		// Reset resets the batch for reuse.
		Reset()

		// ValueSize retrieves the amount of data queued up for writing.
		ValueSize() int
	}
)

// SetMany writes all entries in a single batch.
func SetMany(db TreeDB, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	b := db.NewBatch()
	for key, value := range entries {
		if err := b.Set([]byte(key), value); err != nil {
			return err
		}
	}
	return b.Write()
}

// DeleteMany removes all keys in a single batch.
func DeleteMany(db TreeDB, keys [][]byte) error {
	if len(keys) == 0 {
		return nil
	}
	b := db.NewBatch()
	for _, key := range keys {
		if err := b.Delete(key); err != nil {
			return err
		}
	}
	return b.Write()
}
