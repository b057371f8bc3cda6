// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

// Package dbtest holds the conformance suite every store backend runs.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/zkbnb-accumulator/database"
)

// TestDatabaseSuite runs the store conformance checks against fresh
// databases built by newDB.
func TestDatabaseSuite(t *testing.T, newDB func() database.TreeDB) {
	open := func(t *testing.T) database.TreeDB {
		db := newDB()
		t.Cleanup(func() { _ = db.Close() })
		return db
	}

	t.Run("KeyValueOperations", func(t *testing.T) {
		db := open(t)
		key, value := []byte("acc:leaves_count"), []byte("42")

		requireHas(t, db, key, false)
		_, err := db.Get(key)
		require.ErrorIs(t, err, database.ErrDatabaseNotFound)

		require.NoError(t, db.Set(key, value))
		requireHas(t, db, key, true)
		got, err := db.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, got)

		require.NoError(t, db.Delete(key))
		requireHas(t, db, key, false)
		require.NoError(t, db.Delete(key), "deleting an absent key")
	})

	t.Run("GetMany", func(t *testing.T) {
		db := open(t)

		got, err := db.GetMany(nil)
		require.NoError(t, err)
		assert.Empty(t, got)

		require.NoError(t, database.SetMany(db, map[string][]byte{
			"a": []byte("1"),
			"b": []byte("2"),
			"c": []byte("3"),
		}))
		got, err = db.GetMany([][]byte{[]byte("a"), []byte("missing"), []byte("c")})
		require.NoError(t, err)
		assert.Equal(t, map[string][]byte{"a": []byte("1"), "c": []byte("3")}, got)

		require.NoError(t, database.DeleteMany(db, [][]byte{[]byte("a"), []byte("b")}))
		requireHas(t, db, []byte("a"), false)
		requireHas(t, db, []byte("b"), false)
		requireValue(t, db, []byte("c"), []byte("3"))
	})

	t.Run("Batch", func(t *testing.T) {
		db := open(t)

		b := db.NewBatch()
		for _, k := range []string{"1", "2", "3", "4"} {
			require.NoError(t, b.Set([]byte(k), []byte("v"+k)))
		}
		assert.Positive(t, b.ValueSize())
		requireHas(t, db, []byte("1"), false)
		require.NoError(t, b.Write())

		b.Reset()
		assert.Zero(t, b.ValueSize())

		// later ops on a key win
		require.NoError(t, b.Set([]byte("5"), []byte("v5")))
		require.NoError(t, b.Delete([]byte("1")))
		require.NoError(t, b.Delete([]byte("3")))
		require.NoError(t, b.Set([]byte("3"), []byte("test3")))
		require.NoError(t, b.Write())

		requireHas(t, db, []byte("1"), false)
		for key, want := range map[string]string{"2": "v2", "3": "test3", "4": "v4", "5": "v5"} {
			requireValue(t, db, []byte(key), []byte(want))
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		db := open(t)
		key := []byte("acc:root_hash")
		require.NoError(t, db.Set(key, []byte("0x1")))
		require.NoError(t, db.Set(key, []byte("0x2")))
		requireValue(t, db, key, []byte("0x2"))
	})

	t.Run("NodeTable", func(t *testing.T) {
		db := open(t)

		const count = 1500
		entries := make(map[string][]byte, count)
		keys := make([][]byte, 0, count+1)
		for i := 1; i <= count; i++ {
			key := fmt.Sprintf("acc:hashes:%d", i)
			entries[key] = []byte(fmt.Sprintf("0x%x", i))
			keys = append(keys, []byte(key))
		}
		keys = append(keys, []byte(fmt.Sprintf("acc:hashes:%d", count+1)))
		require.NoError(t, database.SetMany(db, entries))

		got, err := db.GetMany(keys)
		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})
}

func requireHas(t *testing.T, db database.TreeDB, key []byte, want bool) {
	t.Helper()
	got, err := db.Has(key)
	require.NoError(t, err)
	require.Equal(t, want, got, "has %q", key)
}

func requireValue(t *testing.T, db database.TreeDB, key, want []byte) {
	t.Helper()
	got, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, want, got, "value of %q", key)
}
