// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package badger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/database/dbtest"
)

func TestBadger(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() database.TreeDB {
			db, err := New(Options{})
			if err != nil {
				t.Fatal(err)
			}
			return db
		})
	})
}

func TestBadgerOnDisk(t *testing.T) {
	dir := t.TempDir()
	db, err := New(Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, database.SetMany(db, map[string][]byte{"a": []byte("1"), "b": []byte("2")}))
	require.NoError(t, db.Close())

	db, err = New(Options{Dir: dir})
	require.NoError(t, err)
	defer db.Close()

	got, err := db.GetMany([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(t, err)
	require.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)
}
