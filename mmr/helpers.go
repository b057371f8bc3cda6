// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package mmr

import (
	"math/bits"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/bnb-chain/zkbnb-accumulator"
)

// MaxElementsCount bounds every element index and count so that the bit
// arithmetic below never shifts past 63 bits.
const MaxElementsCount uint64 = 1<<62 - 1

// BitLength returns the number of bits needed to represent n.
func BitLength(n uint64) int {
	return bits.Len64(n)
}

func CountOnes(n uint64) int {
	return bits.OnesCount64(n)
}

func CountTrailingOnes(n uint64) int {
	return bits.TrailingZeros64(^n)
}

// AllOnes reports whether n is a non-zero run of 1 bits.
func AllOnes(n uint64) bool {
	return n != 0 && n&(n+1) == 0
}

// Height returns how many merges produced the node at elementIndex.
// Stepping to the left sibling subtree keeps the height, and the leftmost
// branch of each mountain holds indices of the form 2^k-1.
func Height(elementIndex uint64) int {
	if elementIndex == 0 {
		return 0
	}
	h := elementIndex
	for !AllOnes(h) {
		h -= (1 << (BitLength(h) - 1)) - 1
	}
	return BitLength(h) - 1
}

// FindPeaks returns the index of every mountain top of a range holding
// elementsCount elements, tallest first. It returns nil when elementsCount
// is not a size a range can have.
func FindPeaks(elementsCount uint64) []uint64 {
	if elementsCount > MaxElementsCount {
		return nil
	}
	var (
		remaining = elementsCount
		shift     uint64
		peaks     []uint64
	)
	for mountain := uint64(1)<<BitLength(elementsCount) - 1; mountain > 0; mountain >>= 1 {
		if mountain <= remaining {
			shift += mountain
			peaks = append(peaks, shift)
			remaining -= mountain
		}
	}
	if remaining > 0 {
		return nil
	}
	return peaks
}

// IsPeak reports whether elementIndex is one of peaks.
func IsPeak(elementIndex uint64, peaks []uint64) bool {
	return lo.Contains(peaks, elementIndex)
}

// ElementsCountToLeafCount converts a range size into its number of leaves.
func ElementsCountToLeafCount(elementsCount uint64) (uint64, error) {
	if elementsCount > MaxElementsCount {
		return 0, errors.Wrapf(accumulator.ErrInvalidElementsCount, "%d exceeds %d", elementsCount, MaxElementsCount)
	}
	var (
		remaining = elementsCount
		leaves    uint64
	)
	for mountainLeaves := uint64(1) << BitLength(elementsCount); mountainLeaves > 0; mountainLeaves >>= 1 {
		mountainElements := 2*mountainLeaves - 1
		if mountainElements <= remaining {
			leaves += mountainLeaves
			remaining -= mountainElements
		}
	}
	if remaining > 0 {
		return 0, errors.Wrapf(accumulator.ErrInvalidElementsCount, "%d", elementsCount)
	}
	return leaves, nil
}

// ElementIndexToLeafIndex returns the 0-based rank of the leaf stored at
// elementIndex.
func ElementIndexToLeafIndex(elementIndex uint64) (uint64, error) {
	if elementIndex == 0 {
		return 0, errors.Wrap(accumulator.ErrIndexOutOfRange, "element index must be greater than 0")
	}
	leafIndex, err := ElementsCountToLeafCount(elementIndex - 1)
	if err != nil {
		return 0, errors.Wrapf(accumulator.ErrNotALeaf, "element %d", elementIndex)
	}
	return leafIndex, nil
}

// MapLeafIndexToElementIndex returns the element index of the leaf of rank
// leafIndex: every earlier leaf adds itself plus one merge, minus the
// merges still pending on the current peaks.
func MapLeafIndexToElementIndex(leafIndex uint64) uint64 {
	return 2*leafIndex + 1 - uint64(CountOnes(leafIndex))
}

// MapElementIndexToLeafIndex is the inverse of MapLeafIndexToElementIndex.
func MapElementIndexToLeafIndex(elementIndex uint64) (uint64, error) {
	if elementIndex == 0 || elementIndex > MaxElementsCount {
		return 0, errors.Wrapf(accumulator.ErrIndexOutOfRange, "element %d", elementIndex)
	}
	remaining := elementIndex - 1
	var leafIndex uint64
	for i := BitLength(remaining) - 1; i >= 0; i-- {
		subtree := uint64(2)<<i - 1
		if subtree <= remaining {
			remaining -= subtree
			leafIndex += 1 << i
		}
	}
	if remaining != 0 {
		return 0, errors.Wrapf(accumulator.ErrNotALeaf, "element %d", elementIndex)
	}
	return leafIndex, nil
}

// FindSiblings lists the sibling indices on the path from the leaf at
// elementIndex up to its peak in a range of elementsCount elements.
func FindSiblings(elementIndex, elementsCount uint64) ([]uint64, error) {
	if elementsCount > MaxElementsCount {
		return nil, errors.Wrapf(accumulator.ErrInvalidElementsCount, "%d exceeds %d", elementsCount, MaxElementsCount)
	}
	leafIndex, err := ElementIndexToLeafIndex(elementIndex)
	if err != nil {
		return nil, err
	}
	var siblings []uint64
	for height := 0; elementIndex <= elementsCount; height++ {
		offset := uint64(2)<<height - 1
		if leafIndex%2 == 1 {
			siblings = append(siblings, elementIndex-offset)
			elementIndex++
		} else {
			siblings = append(siblings, elementIndex+offset)
			elementIndex += offset + 1
		}
		leafIndex /= 2
	}
	// the last hop climbed past the peak
	if len(siblings) > 0 {
		siblings = siblings[:len(siblings)-1]
	}
	return siblings, nil
}

// GetPeakInfo returns the ordinal of the mountain holding elementIndex and
// that mountain's height, which is also the length of its proofs.
func GetPeakInfo(elementsCount, elementIndex uint64) (peakIndex int, peakHeight int, err error) {
	if elementIndex == 0 || elementIndex > elementsCount || elementsCount > MaxElementsCount {
		return 0, 0, errors.Wrapf(accumulator.ErrIndexOutOfRange, "element %d of %d", elementIndex, elementsCount)
	}
	mountainHeight := BitLength(elementsCount)
	for mountain := uint64(1)<<mountainHeight - 1; mountain > 0; mountain >>= 1 {
		if mountain <= elementsCount {
			if elementIndex <= mountain {
				return peakIndex, mountainHeight - 1, nil
			}
			elementsCount -= mountain
			elementIndex -= mountain
			peakIndex++
		}
		mountainHeight--
	}
	return 0, 0, errors.Wrapf(accumulator.ErrInvalidElementsCount, "element %d is past the last mountain", elementIndex)
}

// LeafCountToAppendNoMerges returns how many merge nodes the next append
// creates on a range with leafCount leaves.
func LeafCountToAppendNoMerges(leafCount uint64) int {
	return CountTrailingOnes(leafCount)
}
