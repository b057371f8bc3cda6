// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package mmr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/zkbnb-accumulator"
)

func TestFindPeaks(t *testing.T) {
	for _, n := range []uint64{0, 2, 5, 6, 9, 12, 13, 14} {
		assert.Empty(t, FindPeaks(n), "n=%d", n)
	}
	testCases := []struct {
		elementsCount uint64
		peaks         []uint64
	}{
		{1, []uint64{1}},
		{3, []uint64{3}},
		{4, []uint64{3, 4}},
		{7, []uint64{7}},
		{8, []uint64{7, 8}},
		{10, []uint64{7, 10}},
		{11, []uint64{7, 10, 11}},
		{15, []uint64{15}},
		{19, []uint64{15, 18, 19}},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.peaks, FindPeaks(tc.elementsCount), "n=%d", tc.elementsCount)
	}
	assert.Empty(t, FindPeaks(MaxElementsCount+1))
}

func TestElementsCountToLeafCount(t *testing.T) {
	const invalid = -1
	expected := []int{0, 1, invalid, 2, 3, invalid, invalid, 4, 5, invalid, 6, 7, invalid, invalid, invalid, 8}
	for n, want := range expected {
		leaves, err := ElementsCountToLeafCount(uint64(n))
		if want == invalid {
			assert.True(t, errors.Is(err, accumulator.ErrInvalidElementsCount), "n=%d", n)
			continue
		}
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, uint64(want), leaves, "n=%d", n)
	}
}

func TestLeafIndexMapping(t *testing.T) {
	leaves := []uint64{1, 2, 4, 5, 8, 9, 11, 12, 16, 17, 19}
	for rank, elementIndex := range leaves {
		assert.Equal(t, elementIndex, MapLeafIndexToElementIndex(uint64(rank)))

		leafIndex, err := MapElementIndexToLeafIndex(elementIndex)
		require.NoError(t, err)
		assert.Equal(t, uint64(rank), leafIndex)

		leafIndex, err = ElementIndexToLeafIndex(elementIndex)
		require.NoError(t, err)
		assert.Equal(t, uint64(rank), leafIndex)
	}

	for _, merge := range []uint64{3, 6, 7, 10, 13, 14, 15, 18} {
		_, err := MapElementIndexToLeafIndex(merge)
		assert.True(t, errors.Is(err, accumulator.ErrNotALeaf), "index=%d", merge)
		_, err = ElementIndexToLeafIndex(merge)
		assert.True(t, errors.Is(err, accumulator.ErrNotALeaf), "index=%d", merge)
	}

	_, err := MapElementIndexToLeafIndex(0)
	assert.True(t, errors.Is(err, accumulator.ErrIndexOutOfRange))
	_, err = ElementIndexToLeafIndex(0)
	assert.True(t, errors.Is(err, accumulator.ErrIndexOutOfRange))
}

func TestFindSiblings(t *testing.T) {
	siblings, err := FindSiblings(33, 49)
	require.NoError(t, err)
	assert.Equal(t, []uint64{32, 37, 45}, siblings)

	siblings, err = FindSiblings(1, 1)
	require.NoError(t, err)
	assert.Empty(t, siblings)

	siblings, err = FindSiblings(1, 7)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 6}, siblings)

	siblings, err = FindSiblings(8, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{9}, siblings)

	_, err = FindSiblings(3, 7)
	assert.True(t, errors.Is(err, accumulator.ErrNotALeaf))
}

func TestGetPeakInfo(t *testing.T) {
	testCases := []struct {
		elementsCount, elementIndex uint64
		peakIndex, peakHeight       int
	}{
		{1, 1, 0, 0},
		{3, 2, 0, 1},
		{4, 4, 1, 0},
		{11, 1, 0, 2},
		{11, 8, 1, 1},
		{11, 9, 1, 1},
		{11, 11, 2, 0},
		{15, 12, 0, 3},
	}
	for _, tc := range testCases {
		peakIndex, peakHeight, err := GetPeakInfo(tc.elementsCount, tc.elementIndex)
		require.NoError(t, err)
		assert.Equal(t, tc.peakIndex, peakIndex, "%d/%d", tc.elementIndex, tc.elementsCount)
		assert.Equal(t, tc.peakHeight, peakHeight, "%d/%d", tc.elementIndex, tc.elementsCount)
	}

	for _, tc := range [][2]uint64{{0, 0}, {3, 0}, {3, 4}} {
		_, _, err := GetPeakInfo(tc[0], tc[1])
		assert.True(t, errors.Is(err, accumulator.ErrIndexOutOfRange))
	}
	// 5 elements is not a size a range can have
	_, _, err := GetPeakInfo(5, 5)
	assert.True(t, errors.Is(err, accumulator.ErrInvalidElementsCount))
}

func TestHeight(t *testing.T) {
	heights := map[uint64]int{1: 0, 2: 0, 3: 1, 4: 0, 5: 0, 6: 1, 7: 2, 10: 1, 14: 2, 15: 3, 18: 1, 22: 2, 31: 4}
	for idx, h := range heights {
		assert.Equal(t, h, Height(idx), "index=%d", idx)
	}
}

func TestBitHelpers(t *testing.T) {
	assert.Equal(t, 0, BitLength(0))
	assert.Equal(t, 4, BitLength(15))
	assert.Equal(t, 3, CountOnes(11))
	assert.Equal(t, 2, CountTrailingOnes(11))
	assert.Equal(t, 0, CountTrailingOnes(0))
	assert.True(t, AllOnes(7))
	assert.False(t, AllOnes(0))
	assert.False(t, AllOnes(10))
	assert.Equal(t, 3, LeafCountToAppendNoMerges(7))
	assert.True(t, IsPeak(10, FindPeaks(11)))
	assert.False(t, IsPeak(9, FindPeaks(11)))
}
