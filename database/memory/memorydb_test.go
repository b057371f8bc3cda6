// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/database/dbtest"
)

func TestMemoryDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() database.TreeDB {
			return NewMemoryDB()
		})
	})
}

func TestMemoryDBClosed(t *testing.T) {
	db := NewMemoryDB()
	require.NoError(t, db.Set([]byte("k"), []byte("v")))
	require.Equal(t, 1, db.Len())
	require.NoError(t, db.Close())

	_, err := db.Get([]byte("k"))
	require.ErrorIs(t, err, database.ErrDatabaseClosed)
	_, err = db.GetMany([][]byte{[]byte("k")})
	require.ErrorIs(t, err, database.ErrDatabaseClosed)
	require.ErrorIs(t, db.Set([]byte("k"), nil), database.ErrDatabaseClosed)
}

func TestMemoryDBReturnsCopies(t *testing.T) {
	db := NewMemoryDB()
	value := []byte("value")
	require.NoError(t, db.Set([]byte("k"), value))
	value[0] = 'x'

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)
	got[0] = 'y'

	again, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), again)
}

func TestMemoryDBKeys(t *testing.T) {
	db := NewMemoryDB()
	for _, key := range []string{"b:2", "a:1", "b:1", "c"} {
		require.NoError(t, db.Set([]byte(key), nil))
	}
	require.Equal(t, []string{"b:1", "b:2"}, db.Keys("b:"))
	require.Equal(t, []string{"a:1", "b:1", "b:2", "c"}, db.Keys(""))
	require.Empty(t, db.Keys("d"))
}
