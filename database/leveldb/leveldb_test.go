// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package leveldb

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/database/dbtest"
)

func TestLevelDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() database.TreeDB {
			db, err := leveldb.Open(storage.NewMemStorage(), nil)
			if err != nil {
				t.Fatal(err)
			}
			return NewFromExistLevelDB(db)
		})
	})
}

func TestLevelDBWithNamespace(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() database.TreeDB {
			db, err := leveldb.Open(storage.NewMemStorage(), nil)
			if err != nil {
				t.Fatal(err)
			}

			return WrapWithNamespace(NewFromExistLevelDB(db), "test")
		})
	})
}

func TestLevelDBNamespacesAreIsolated(t *testing.T) {
	raw, err := leveldb.Open(storage.NewMemStorage(), nil)
	require.NoError(t, err)
	defer raw.Close()

	a := WrapWithNamespace(NewFromExistLevelDB(raw), "a")
	b := WrapWithNamespace(NewFromExistLevelDB(raw), "b")
	require.NoError(t, a.Set([]byte("k"), []byte("1")))

	has, err := b.Has([]byte("k"))
	require.NoError(t, err)
	require.False(t, has)

	dat, err := raw.Get([]byte("a:k"), nil)
	require.NoError(t, err)
	require.Equal(t, []byte("1"), dat)
}

func TestLevelDBReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Options{DataDirectoryPath: dir})
	require.NoError(t, err)
	require.NoError(t, db.Set([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = New(Options{DataDirectoryPath: dir, ReadOnly: true})
	require.NoError(t, err)
	defer db.Close()
	dat, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), dat)
}
