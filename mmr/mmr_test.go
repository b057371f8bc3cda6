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

func newTestMMR(t *testing.T, opts ...Option) (*MMR, *memory.MemoryDB, hasher.Hasher) {
	t.Helper()
	db := memory.NewMemoryDB()
	h := hasher.NewKeccak(hasher.WithArity(2))
	return New(db, h, opts...), db, h
}

func mustHash(t *testing.T, h hasher.Hasher, left, right string) string {
	t.Helper()
	out, err := h.Hash([]string{left, right})
	require.NoError(t, err)
	return out
}

func appendAll(t *testing.T, m accumulator.MerkleMountainRange, values ...string) []*AppendResult {
	t.Helper()
	results := make([]*AppendResult, len(values))
	for i, value := range values {
		result, err := m.Append(value)
		require.NoError(t, err)
		results[i] = result
	}
	return results
}

func TestAppendAndPeaks(t *testing.T) {
	m, _, h := newTestMMR(t)

	results := appendAll(t, m, "1", "2", "3", "4", "5")
	last := results[len(results)-1]
	assert.Equal(t, uint64(5), last.LeavesCount)
	assert.Equal(t, uint64(8), last.ElementsCount)
	assert.Equal(t, uint64(8), last.ElementIndex)

	node7 := mustHash(t, h, mustHash(t, h, "1", "2"), mustHash(t, h, "3", "4"))
	peaks, err := m.GetPeaks(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{node7, "5"}, peaks)

	bag, err := m.BagThePeaks()
	require.NoError(t, err)
	assert.Equal(t, mustHash(t, h, node7, "5"), bag)
	assert.Equal(t, mustHash(t, h, "5", bag), last.RootHash)

	proof, err := m.GetProof(last.ElementIndex, nil)
	require.NoError(t, err)
	assert.Equal(t, "5", proof.ElementHash)
	assert.Empty(t, proof.SiblingsHashes)
	valid, err := m.VerifyProof(proof, "5", nil)
	require.NoError(t, err)
	assert.True(t, valid)
	valid, err = m.VerifyProof(proof, "6", nil)
	require.NoError(t, err)
	assert.False(t, valid)

	result, err := m.Append("6")
	require.NoError(t, err)
	assert.Equal(t, uint64(6), result.LeavesCount)
	assert.Equal(t, uint64(10), result.ElementsCount)
	assert.Equal(t, uint64(9), result.ElementIndex)

	node10 := mustHash(t, h, "5", "6")
	peaks, err = m.GetPeaks(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{node7, node10}, peaks)

	bag, err = m.BagThePeaks()
	require.NoError(t, err)
	assert.Equal(t, mustHash(t, h, node7, node10), bag)

	root, err := m.RootHash()
	require.NoError(t, err)
	assert.Equal(t, mustHash(t, h, "6", bag), root)
	assert.Equal(t, result.RootHash, root)

	proof, err = m.GetProof(8, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"6"}, proof.SiblingsHashes)
	valid, err = m.VerifyProof(proof, "5", nil)
	require.NoError(t, err)
	assert.True(t, valid)
	valid, err = m.VerifyProof(proof, "7", nil)
	require.NoError(t, err)
	assert.False(t, valid)

	// peaks of an older state stay reachable
	bag, err = m.BagThePeaksAt(8)
	require.NoError(t, err)
	assert.Equal(t, mustHash(t, h, node7, "5"), bag)
}

func TestBagThePeaksShapes(t *testing.T) {
	m, _, h := newTestMMR(t)

	bag, err := m.BagThePeaks()
	require.NoError(t, err)
	assert.Equal(t, EmptyBag, bag)

	appendAll(t, m, "1")
	bag, err = m.BagThePeaks()
	require.NoError(t, err)
	assert.Equal(t, "1", bag)

	// 7 leaves: peaks 7, 10, 11
	appendAll(t, m, "2", "3", "4", "5", "6", "7")
	peaks, err := m.GetPeaks(nil)
	require.NoError(t, err)
	require.Len(t, peaks, 3)
	bag, err = m.BagThePeaks()
	require.NoError(t, err)
	assert.Equal(t, mustHash(t, h, peaks[0], mustHash(t, h, peaks[1], peaks[2])), bag)

	_, err = m.BagThePeaksAt(5)
	assert.True(t, errors.Is(err, accumulator.ErrInvalidElementsCount))
}

func TestAppendRejectsOversizedElement(t *testing.T) {
	m, _, _ := newTestMMR(t)
	_, err := m.Append("0x1" + fmt.Sprintf("%064x", 0))
	assert.True(t, errors.Is(err, accumulator.ErrElementSizeTooBig))

	count, err := m.ElementsCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProofsForEveryLeaf(t *testing.T) {
	m, _, _ := newTestMMR(t)
	var (
		indexes []uint64
		values  []string
	)
	for i := 1; i <= 37; i++ {
		value := fmt.Sprintf("0x%x", i*1000+7)
		result, err := m.Append(value)
		require.NoError(t, err)
		indexes = append(indexes, result.ElementIndex)
		values = append(values, value)
	}

	proofs, err := m.GetProofs(indexes, nil)
	require.NoError(t, err)
	require.Len(t, proofs, len(indexes))
	for i, proof := range proofs {
		single, err := m.GetProof(indexes[i], nil)
		require.NoError(t, err)
		assert.Equal(t, single, proof)

		valid, err := m.VerifyProof(proof, values[i], nil)
		require.NoError(t, err)
		assert.True(t, valid, "leaf %d", indexes[i])
	}

	valid, err := m.VerifyProofs(proofs, values, nil)
	require.NoError(t, err)
	assert.True(t, valid)

	// order of the batch does not matter
	reversed := make([]*Proof, len(proofs))
	reversedValues := make([]string, len(values))
	for i := range proofs {
		reversed[len(proofs)-1-i] = proofs[i]
		reversedValues[len(values)-1-i] = values[i]
	}
	valid, err = m.VerifyProofs(reversed, reversedValues, nil)
	require.NoError(t, err)
	assert.True(t, valid)

	values[3] = "0xdead"
	valid, err = m.VerifyProofs(proofs, values, nil)
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = m.VerifyProofs(proofs, values[1:], nil)
	assert.True(t, errors.Is(err, accumulator.ErrLengthMismatch))
}

func TestProofAtHistoricalSize(t *testing.T) {
	m, _, _ := newTestMMR(t, WithParallelism(2))
	appendAll(t, m, "1", "2", "3")
	count, err := m.ElementsCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	proof, err := m.GetProof(2, nil)
	require.NoError(t, err)
	appendAll(t, m, "4", "5", "6", "7", "8")

	// the proof carries its own size
	valid, err := m.VerifyProof(proof, "2", nil)
	require.NoError(t, err)
	assert.True(t, valid)

	// against the current size it has too few siblings
	valid, err = m.VerifyProof(proof, "2", &ProofOptions{ElementsCount: 15})
	require.NoError(t, err)
	assert.False(t, valid)

	current, err := m.GetProof(2, nil)
	require.NoError(t, err)
	assert.Len(t, current.SiblingsHashes, 3)
	assert.Equal(t, uint64(15), current.ElementsCount)
	valid, err = m.VerifyProof(current, "2", nil)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestProofErrors(t *testing.T) {
	m, _, _ := newTestMMR(t)
	appendAll(t, m, "1", "2", "3")

	_, err := m.GetProof(0, nil)
	assert.True(t, errors.Is(err, accumulator.ErrIndexOutOfRange))
	_, err = m.GetProof(5, nil)
	assert.True(t, errors.Is(err, accumulator.ErrIndexOutOfRange))
	_, err = m.GetProof(3, nil)
	assert.True(t, errors.Is(err, accumulator.ErrNotALeaf))

	_, err = m.VerifyProof(&Proof{ElementIndex: 0}, "1", nil)
	assert.True(t, errors.Is(err, accumulator.ErrIndexOutOfRange))
	_, err = m.VerifyProof(&Proof{ElementIndex: 9, ElementsCount: 4}, "1", nil)
	assert.True(t, errors.Is(err, accumulator.ErrIndexOutOfRange))
	_, err = m.VerifyProof(nil, "1", nil)
	assert.True(t, errors.Is(err, accumulator.ErrInvalidProof))
}

func TestFormattedProofs(t *testing.T) {
	m, _, _ := newTestMMR(t)
	appendAll(t, m, "1", "2", "3", "4", "5")

	opts := &ProofOptions{
		Formatting: &ProofFormat{
			Proof: Format{OutputSize: 4, NullValue: "0x0"},
			Peaks: Format{OutputSize: 3, NullValue: "0x0"},
		},
	}
	proof, err := m.GetProof(2, opts)
	require.NoError(t, err)
	require.Len(t, proof.SiblingsHashes, 4)
	require.Len(t, proof.PeaksHashes, 3)
	assert.Equal(t, []string{"0x0", "0x0"}, proof.SiblingsHashes[2:])
	assert.Equal(t, "0x0", proof.PeaksHashes[2])

	siblings := append([]string(nil), proof.SiblingsHashes...)
	valid, err := m.VerifyProof(proof, "2", opts)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, siblings, proof.SiblingsHashes)

	// without the formatting the padding is read as siblings
	valid, err = m.VerifyProof(proof, "2", nil)
	require.NoError(t, err)
	assert.False(t, valid)

	peaks, err := m.GetPeaks(&PeaksOptions{Formatting: &Format{OutputSize: 4, NullValue: "0x0"}})
	require.NoError(t, err)
	assert.Len(t, peaks, 4)

	tooSmall := &ProofOptions{Formatting: &ProofFormat{
		Proof: Format{OutputSize: 1, NullValue: "0x0"},
		Peaks: Format{OutputSize: 3, NullValue: "0x0"},
	}}
	_, err = m.GetProof(2, tooSmall)
	assert.True(t, errors.Is(err, accumulator.ErrFormatting))

	notHex := &ProofOptions{Formatting: &ProofFormat{
		Proof: Format{OutputSize: 4, NullValue: "null"},
		Peaks: Format{OutputSize: 3, NullValue: "0x0"},
	}}
	_, err = m.GetProof(2, notHex)
	assert.True(t, errors.Is(err, accumulator.ErrFormatting))
}

func TestCreateWithGenesis(t *testing.T) {
	db := memory.NewMemoryDB()
	h := hasher.NewKeccak()

	m, err := CreateWithGenesis(db, h, WithID("genesis"))
	require.NoError(t, err)
	assert.Equal(t, "genesis", m.ID())

	genesis, err := h.Genesis()
	require.NoError(t, err)
	proof, err := m.GetProof(1, nil)
	require.NoError(t, err)
	assert.Equal(t, genesis, proof.ElementHash)

	_, err = CreateWithGenesis(db, h, WithID("genesis"))
	assert.True(t, errors.Is(err, accumulator.ErrNonEmptyTree))
}

func TestClear(t *testing.T) {
	m, db, _ := newTestMMR(t, WithID("tree"))
	other := New(db, hasher.NewKeccak(), WithID("other"))
	appendAll(t, other, "1")
	before := db.Len()

	appendAll(t, m, "1", "2", "3", "4", "5", "6", "7")
	require.NoError(t, m.Clear())
	assert.Equal(t, before, db.Len())
	assert.Empty(t, db.Keys("tree:"))
	assert.NotEmpty(t, db.Keys("other:"))

	peaks, err := m.GetPeaks(nil)
	require.NoError(t, err)
	assert.Empty(t, peaks)
	root, err := m.RootHash()
	require.NoError(t, err)
	assert.Empty(t, root)

	// the id is reusable after a clear
	result, err := m.Append("1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.ElementIndex)
}

func TestReopen(t *testing.T) {
	m, db, h := newTestMMR(t, WithID("persisted"))
	appendAll(t, m, "1", "2", "3")
	root, err := m.RootHash()
	require.NoError(t, err)

	reopened := New(db, h, WithID("persisted"))
	leaves, err := reopened.LeavesCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), leaves)

	result, err := reopened.Append("4")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), result.ElementsCount)
	assert.NotEqual(t, root, result.RootHash)
}

func TestMissingNodeIsReported(t *testing.T) {
	m, db, _ := newTestMMR(t, WithID("broken"))
	appendAll(t, m, "1", "2")
	require.NoError(t, db.Delete([]byte("broken:hashes:3")))

	_, err := m.GetPeaks(nil)
	assert.True(t, errors.Is(err, accumulator.ErrMissingNode))
	_, err = m.Append("3")
	assert.True(t, errors.Is(err, accumulator.ErrMissingNode))
}

func TestDefaultIDsAreUnique(t *testing.T) {
	db := memory.NewMemoryDB()
	a := New(db, hasher.NewKeccak())
	b := New(db, hasher.NewKeccak())
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestFormattedProofWithNullValuedSibling(t *testing.T) {
	m, _, _ := newTestMMR(t)
	appendAll(t, m, "0x1", "0x0")

	opts := &ProofOptions{
		Formatting: &ProofFormat{
			Proof: Format{OutputSize: 3, NullValue: "0x0"},
			Peaks: Format{OutputSize: 2, NullValue: "0x0"},
		},
	}
	proof, err := m.GetProof(1, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"0x0", "0x0", "0x0"}, proof.SiblingsHashes)

	valid, err := m.VerifyProof(proof, "0x1", opts)
	require.NoError(t, err)
	assert.True(t, valid)
}
