// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package mmr

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/zkbnb-accumulator"
	"github.com/bnb-chain/zkbnb-accumulator/database/memory"
	"github.com/bnb-chain/zkbnb-accumulator/hasher"
)

type snapshot struct {
	elementsCount, leavesCount uint64
	rootHash                   string
	keys                       int
}

func takeSnapshot(t *testing.T, m *MMR, db *memory.MemoryDB) snapshot {
	t.Helper()
	elementsCount, err := m.ElementsCount()
	require.NoError(t, err)
	leavesCount, err := m.LeavesCount()
	require.NoError(t, err)
	rootHash, err := m.RootHash()
	require.NoError(t, err)
	return snapshot{elementsCount, leavesCount, rootHash, db.Len()}
}

func TestDraftDoesNotTouchParent(t *testing.T) {
	parent, db, _ := newTestMMR(t, WithID("parent"))
	appendAll(t, parent, "1", "2", "3")
	before := takeSnapshot(t, parent, db)

	draftDB := memory.NewMemoryDB()
	draft, err := NewDraft(parent, draftDB, WithID("draft"))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), draft.ParentEndIdx())

	draftRoot, err := draft.RootHash()
	require.NoError(t, err)
	assert.Equal(t, before.rootHash, draftRoot)

	appendAll(t, draft, "4", "5")
	assert.Equal(t, before, takeSnapshot(t, parent, db))

	// the draft proves elements of the shared prefix and its own
	for idx, value := range map[uint64]string{1: "1", 4: "3", 8: "5"} {
		proof, err := draft.GetProof(idx, nil)
		require.NoError(t, err)
		valid, err := draft.VerifyProof(proof, value, nil)
		require.NoError(t, err)
		assert.True(t, valid, "element %d", idx)
	}

	require.NoError(t, draft.Discard())
	assert.Equal(t, before, takeSnapshot(t, parent, db))
	assert.Zero(t, draftDB.Len())
}

func TestDraftApplyMatchesDirectAppends(t *testing.T) {
	parent, db, h := newTestMMR(t, WithID("parent"))
	appendAll(t, parent, "1", "2", "3")

	draft, err := NewDraft(parent, nil, WithID("draft"))
	require.NoError(t, err)
	results := appendAll(t, draft, "4", "5", "6")
	require.NoError(t, draft.Apply(true))

	direct := New(memory.NewMemoryDB(), h, WithID("direct"))
	expected := appendAll(t, direct, "1", "2", "3", "4", "5", "6")

	got := takeSnapshot(t, parent, db)
	assert.Equal(t, expected[5].ElementsCount, got.elementsCount)
	assert.Equal(t, expected[5].LeavesCount, got.leavesCount)
	assert.Equal(t, expected[5].RootHash, got.rootHash)
	assert.Equal(t, results[2].RootHash, got.rootHash)

	directPeaks, err := direct.GetPeaks(nil)
	require.NoError(t, err)
	parentPeaks, err := parent.GetPeaks(nil)
	require.NoError(t, err)
	assert.Equal(t, directPeaks, parentPeaks)

	// the cleared draft left only the parent's keys behind
	for idx := draft.ParentEndIdx() + 1; idx <= 10; idx++ {
		has, err := db.Has([]byte(fmt.Sprintf("draft:hashes:%d", idx)))
		require.NoError(t, err)
		assert.False(t, has)
	}
	has, err := db.Has([]byte("draft:elements_count"))
	require.NoError(t, err)
	assert.False(t, has)

	proof, err := parent.GetProof(9, nil)
	require.NoError(t, err)
	valid, err := parent.VerifyProof(proof, "6", nil)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestDraftApplyWithoutClear(t *testing.T) {
	parent, _, _ := newTestMMR(t, WithID("parent"))
	appendAll(t, parent, "1")

	draftDB := memory.NewMemoryDB()
	draft, err := NewDraft(parent, draftDB)
	require.NoError(t, err)
	appendAll(t, draft, "2")
	require.NoError(t, draft.Apply(false))

	draftCount, err := draft.ElementsCount()
	require.NoError(t, err)
	parentCount, err := parent.ElementsCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), parentCount)
	assert.Equal(t, parentCount, draftCount)
	assert.NotZero(t, draftDB.Len())

	require.NoError(t, draft.Clear())
	assert.Zero(t, draftDB.Len())
	parentCount, err = parent.ElementsCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), parentCount)
}

func TestDraftOfEmptyParent(t *testing.T) {
	parent, _, _ := newTestMMR(t)
	draft, err := NewDraft(parent, memory.NewMemoryDB())
	require.NoError(t, err)
	assert.Zero(t, draft.ParentEndIdx())

	root, err := draft.RootHash()
	require.NoError(t, err)
	assert.Empty(t, root)

	appendAll(t, draft, "1", "2")
	require.NoError(t, draft.Apply(true))

	peaks, err := parent.GetPeaks(nil)
	require.NoError(t, err)
	assert.Len(t, peaks, 1)
}

func TestDraftRejectsParentID(t *testing.T) {
	parent, _, _ := newTestMMR(t, WithID("parent"))
	_, err := NewDraft(parent, nil, WithID("parent"))
	assert.True(t, errors.Is(err, ErrDraftConflict))

	// a separate store may reuse the id
	_, err = NewDraft(parent, memory.NewMemoryDB(), WithID("parent"))
	assert.NoError(t, err)
}

func TestDraftTableRefusesParentWrites(t *testing.T) {
	parent := New(memory.NewMemoryDB(), hasher.NewKeccak(), WithID("parent"))
	appendAll(t, parent, "1", "2")

	draft, err := NewDraft(parent, nil)
	require.NoError(t, err)
	err = draft.hashes.Set(2, "0x2")
	assert.True(t, errors.Is(err, accumulator.ErrIndexOutOfRange))
	err = draft.hashes.SetMany(map[uint64]string{3: "0x3", 4: "0x4"})
	assert.True(t, errors.Is(err, accumulator.ErrIndexOutOfRange))
	assert.Equal(t, "parent:hashes:3", draft.hashes.Key(3))
	assert.Equal(t, draft.ID()+":hashes:4", draft.hashes.Key(4))
}

func TestDraftRangeClearKeepsParent(t *testing.T) {
	parent, db, _ := newTestMMR(t, WithID("parent"))
	appendAll(t, parent, "1", "2", "3")
	before := takeSnapshot(t, parent, db)
	peaks, err := parent.GetPeaks(nil)
	require.NoError(t, err)

	draft, err := NewDraft(parent, nil, WithID("draft"))
	require.NoError(t, err)
	appendAll(t, draft, "4")

	// the embedded range clears only draft owned keys
	var m accumulator.MerkleMountainRange = draft.MMR
	require.NoError(t, m.Clear())

	assert.Equal(t, before, takeSnapshot(t, parent, db))
	assert.Empty(t, db.Keys("draft:"))
	after, err := parent.GetPeaks(nil)
	require.NoError(t, err)
	assert.Equal(t, peaks, after)
}
