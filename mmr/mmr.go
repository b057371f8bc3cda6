// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

// Package mmr implements a Merkle Mountain Range over a key-value store.
//
// Elements are numbered from 1 in creation order, leaves and merge nodes
// alike. After every append the range is a list of perfect binary trees
// (mountains) whose tops are bagged into a single hash, and the root hash
// commits to that bag together with the number of leaves.
package mmr

import (
	"runtime"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bnb-chain/zkbnb-accumulator"
	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/hasher"
	"github.com/bnb-chain/zkbnb-accumulator/metadata"
	"github.com/bnb-chain/zkbnb-accumulator/metrics"
)

const (
	leavesCountField   = "leaves_count"
	elementsCountField = "elements_count"
	rootHashField      = "root_hash"
	hashesField        = "hashes"

	// EmptyBag is the bag of a range without elements.
	EmptyBag = "0x0"

	// clearBatchSize bounds the keys deleted per batch by Clear.
	clearBatchSize = 1 << 14
)

var _ accumulator.MerkleMountainRange = (*MMR)(nil)

type (
	AppendResult = accumulator.AppendResult
	Proof        = accumulator.Proof
	ProofOptions = accumulator.ProofOptions
	PeaksOptions = accumulator.PeaksOptions
	ProofFormat  = accumulator.ProofFormat
	Format       = accumulator.Format
)

type MMR struct {
	id          string
	db          database.TreeDB
	hasher      hasher.Hasher
	log         *zap.Logger
	metrics     metrics.Metrics
	parallelism int

	leavesCount   *metadata.Counter
	elementsCount *metadata.Counter
	rootHash      *metadata.Value
	hashes        metadata.HashTable
}

// New attaches a range to db. Nothing is written until the first append.
func New(db database.TreeDB, h hasher.Hasher, opts ...Option) *MMR {
	m := &MMR{
		db:          db,
		hasher:      h,
		log:         zap.NewNop(),
		metrics:     metrics.Nop{},
		parallelism: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.id == "" {
		m.id = uuid.NewString()
	}
	m.leavesCount = metadata.NewCounter(db, metadata.Key(m.id, leavesCountField))
	m.elementsCount = metadata.NewCounter(db, metadata.Key(m.id, elementsCountField))
	m.rootHash = metadata.NewValue(db, metadata.Key(m.id, rootHashField))
	m.hashes = metadata.NewIndexedTable(db, metadata.Key(m.id, hashesField))
	return m
}

// CreateWithGenesis creates a range whose first element is the hasher's
// genesis element. The id must not hold any element yet.
func CreateWithGenesis(db database.TreeDB, h hasher.Hasher, opts ...Option) (*MMR, error) {
	m := New(db, h, opts...)
	count, err := m.elementsCount.Get()
	if err != nil {
		return nil, err
	}
	if count != 0 {
		return nil, errors.Wrapf(accumulator.ErrNonEmptyTree, "%s holds %d elements", m.id, count)
	}
	genesis, err := h.Genesis()
	if err != nil {
		return nil, err
	}
	if _, err := m.Append(genesis); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MMR) ID() string {
	return m.id
}

func (m *MMR) ElementsCount() (uint64, error) {
	return m.elementsCount.Get()
}

func (m *MMR) LeavesCount() (uint64, error) {
	return m.leavesCount.Get()
}

// RootHash returns the root after the last append, or an empty string for
// an empty range.
func (m *MMR) RootHash() (string, error) {
	root, _, err := m.rootHash.Get()
	return root, err
}

func (m *MMR) Append(value string) (*AppendResult, error) {
	if !m.hasher.IsElementSizeValid(value) {
		return nil, errors.Wrapf(accumulator.ErrElementSizeTooBig, "%s", value)
	}
	elementsCount, err := m.elementsCount.Get()
	if err != nil {
		return nil, err
	}
	leavesCount, err := m.leavesCount.Get()
	if err != nil {
		return nil, err
	}
	merges := LeafCountToAppendNoMerges(leavesCount)
	if elementsCount+1+uint64(merges) > MaxElementsCount {
		return nil, errors.Wrapf(accumulator.ErrInvalidElementsCount, "range is full at %d elements", elementsCount)
	}
	peakIndexes := FindPeaks(elementsCount)
	if elementsCount > 0 && len(peakIndexes) == 0 {
		return nil, errors.Wrapf(accumulator.ErrInvalidElementsCount, "%d", elementsCount)
	}
	peaks, err := m.retrievePeaksHashes(peakIndexes)
	if err != nil {
		return nil, err
	}

	lastElementIdx := elementsCount + 1
	leafElementIdx := lastElementIdx
	writes := map[uint64]string{lastElementIdx: value}
	peaks = append(peaks, value)

	for i := 0; i < merges; i++ {
		if len(peaks) < 2 {
			return nil, errors.Wrapf(accumulator.ErrInvalidElementsCount,
				"%d leaves do not match %d elements", leavesCount, elementsCount)
		}
		lastElementIdx++
		right, left := peaks[len(peaks)-1], peaks[len(peaks)-2]
		parent, err := m.hasher.Hash([]string{left, right})
		if err != nil {
			return nil, err
		}
		writes[lastElementIdx] = parent
		peaks = append(peaks[:len(peaks)-2], parent)
	}

	if err := m.hashes.SetMany(writes); err != nil {
		return nil, err
	}
	if err := m.elementsCount.Set(lastElementIdx); err != nil {
		return nil, err
	}
	leaves := leavesCount + 1
	if err := m.leavesCount.Set(leaves); err != nil {
		return nil, err
	}

	bag, err := m.bag(peaks)
	if err != nil {
		return nil, err
	}
	rootHash, err := m.CalculateRootHash(bag, leaves)
	if err != nil {
		return nil, err
	}
	if err := m.rootHash.Set(rootHash); err != nil {
		return nil, err
	}

	m.metrics.AppendNodes(len(writes))
	m.metrics.ElementsCount(lastElementIdx)
	m.metrics.LeavesCount(leaves)
	m.log.Debug("append",
		zap.String("id", m.id),
		zap.Uint64("elementIndex", leafElementIdx),
		zap.Uint64("elementsCount", lastElementIdx),
		zap.Int("merges", merges))

	return &AppendResult{
		LeavesCount:   leaves,
		ElementsCount: lastElementIdx,
		ElementIndex:  leafElementIdx,
		RootHash:      rootHash,
	}, nil
}

// GetPeaks returns the peak hashes at opts.ElementsCount, or at the current
// size when unset.
func (m *MMR) GetPeaks(opts *PeaksOptions) ([]string, error) {
	var elementsCount uint64
	if opts != nil {
		elementsCount = opts.ElementsCount
	}
	treeSize, err := m.treeSize(elementsCount)
	if err != nil {
		return nil, err
	}
	peaks, err := m.peaksAt(treeSize)
	if err != nil {
		return nil, err
	}
	if opts != nil && opts.Formatting != nil {
		return FormatPeaks(peaks, *opts.Formatting)
	}
	return peaks, nil
}

// BagThePeaks bags the peaks of the current range.
func (m *MMR) BagThePeaks() (string, error) {
	count, err := m.elementsCount.Get()
	if err != nil {
		return "", err
	}
	return m.BagThePeaksAt(count)
}

// BagThePeaksAt bags the peaks the range had at elementsCount elements.
func (m *MMR) BagThePeaksAt(elementsCount uint64) (string, error) {
	peaks, err := m.peaksAt(elementsCount)
	if err != nil {
		return "", err
	}
	return m.bag(peaks)
}

// CalculateRootHash commits bag to the number of leaves.
func (m *MMR) CalculateRootHash(bag string, leavesCount uint64) (string, error) {
	return m.hasher.Hash([]string{strconv.FormatUint(leavesCount, 10), bag})
}

// Clear deletes every key of the range.
func (m *MMR) Clear() error {
	count, err := m.elementsCount.Get()
	if err != nil {
		return err
	}
	if err := m.deleteHashes(1, count); err != nil {
		return err
	}
	return m.deleteMetadata()
}

func (m *MMR) deleteMetadata() error {
	return database.DeleteMany(m.db, [][]byte{
		[]byte(m.elementsCount.Key()),
		[]byte(m.leavesCount.Key()),
		[]byte(m.rootHash.Key()),
	})
}

// deleteHashes removes the hashes of elements from..to in bounded batches.
func (m *MMR) deleteHashes(from, to uint64) error {
	indexes := make([]uint64, 0, clearBatchSize)
	for idx := from; idx <= to && idx != 0; idx++ {
		indexes = append(indexes, idx)
		if len(indexes) == clearBatchSize {
			if err := m.hashes.DeleteMany(indexes); err != nil {
				return err
			}
			indexes = indexes[:0]
		}
	}
	if len(indexes) == 0 {
		return nil
	}
	return m.hashes.DeleteMany(indexes)
}

func (m *MMR) treeSize(elementsCount uint64) (uint64, error) {
	if elementsCount != 0 {
		return elementsCount, nil
	}
	return m.elementsCount.Get()
}

func (m *MMR) peaksAt(elementsCount uint64) ([]string, error) {
	peakIndexes := FindPeaks(elementsCount)
	if elementsCount > 0 && len(peakIndexes) == 0 {
		return nil, errors.Wrapf(accumulator.ErrInvalidElementsCount, "%d", elementsCount)
	}
	return m.retrievePeaksHashes(peakIndexes)
}

func (m *MMR) retrievePeaksHashes(peakIndexes []uint64) ([]string, error) {
	return m.retrieveHashes(peakIndexes)
}

// retrieveHashes reads the hashes of indexes in order.
func (m *MMR) retrieveHashes(indexes []uint64) ([]string, error) {
	if len(indexes) == 0 {
		return []string{}, nil
	}
	found, err := m.hashes.GetMany(indexes)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(indexes))
	for i, idx := range indexes {
		h, ok := found[idx]
		if !ok {
			return nil, errors.Wrapf(accumulator.ErrMissingNode, "%s element %d", m.id, idx)
		}
		hashes[i] = h
	}
	return hashes, nil
}

// bag folds peaks right to left into a single hash.
func (m *MMR) bag(peaks []string) (string, error) {
	switch len(peaks) {
	case 0:
		return EmptyBag, nil
	case 1:
		return peaks[0], nil
	}
	acc, err := m.hasher.Hash([]string{peaks[len(peaks)-2], peaks[len(peaks)-1]})
	if err != nil {
		return "", err
	}
	for i := len(peaks) - 3; i >= 0; i-- {
		if acc, err = m.hasher.Hash([]string{peaks[i], acc}); err != nil {
			return "", err
		}
	}
	return acc, nil
}
