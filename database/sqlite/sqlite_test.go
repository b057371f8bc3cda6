// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/database/dbtest"
)

func TestSQLite(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() database.TreeDB {
			db, err := New(Options{FilePath: filepath.Join(t.TempDir(), "store.db")})
			if err != nil {
				t.Fatal(err)
			}
			return db
		})
	})
}

func TestSQLiteUpsertAndLargeGetMany(t *testing.T) {
	db, err := New(Options{FilePath: filepath.Join(t.TempDir(), "store.db")})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Set([]byte("k"), []byte("1")))
	require.NoError(t, db.Set([]byte("k"), []byte("2")))
	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)

	entries := make(map[string][]byte)
	keys := make([][]byte, 0, 1200)
	for i := 0; i < 1200; i++ {
		key := fmt.Sprintf("key-%d", i)
		entries[key] = []byte(key)
		keys = append(keys, []byte(key))
	}
	require.NoError(t, database.SetMany(db, entries))

	values, err := db.GetMany(keys)
	require.NoError(t, err)
	require.Equal(t, entries, values)
}
