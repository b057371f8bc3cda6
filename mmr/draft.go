// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package mmr

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/bnb-chain/zkbnb-accumulator"
	"github.com/bnb-chain/zkbnb-accumulator/database"
	"github.com/bnb-chain/zkbnb-accumulator/metadata"
)

var (
	_ accumulator.MerkleMountainRange = (*Draft)(nil)
	_ metadata.HashTable              = (*draftTable)(nil)
)

var ErrDraftConflict = errors.New("draft cannot share the parent's id on the parent's store")

// Draft is a speculative continuation of a parent range. It reads the
// elements the parent had when the draft was created from the parent and
// keeps everything appended afterwards to itself, so the parent is left
// untouched until Apply.
type Draft struct {
	*MMR
	parent       *MMR
	parentEndIdx uint64
	local        *metadata.IndexedTable
}

// NewDraft forks parent at its current size. The draft keeps its own keys
// in db, the parent's store when db is nil.
func NewDraft(parent *MMR, db database.TreeDB, opts ...Option) (*Draft, error) {
	if db == nil {
		db = parent.db
	}
	elementsCount, err := parent.elementsCount.Get()
	if err != nil {
		return nil, err
	}
	leavesCount, err := parent.leavesCount.Get()
	if err != nil {
		return nil, err
	}
	rootHash, hasRoot, err := parent.rootHash.Get()
	if err != nil {
		return nil, err
	}

	inherited := []Option{
		WithLogger(parent.log),
		EnableMetrics(parent.metrics),
		WithParallelism(parent.parallelism),
	}
	m := New(db, parent.hasher, append(inherited, opts...)...)
	if m.id == parent.id && db == parent.db {
		return nil, errors.Wrapf(ErrDraftConflict, "%s", m.id)
	}
	local := metadata.NewIndexedTable(db, metadata.Key(m.id, hashesField))
	m.hashes = &draftTable{
		parent:       parent.hashes,
		local:        local,
		parentEndIdx: elementsCount,
	}

	if err := m.elementsCount.Set(elementsCount); err != nil {
		return nil, err
	}
	if err := m.leavesCount.Set(leavesCount); err != nil {
		return nil, err
	}
	if hasRoot {
		if err := m.rootHash.Set(rootHash); err != nil {
			return nil, err
		}
	}
	m.log.Info("draft created",
		zap.String("id", m.id),
		zap.String("parent", parent.id),
		zap.Uint64("parentEndIdx", elementsCount))

	return &Draft{
		MMR:          m,
		parent:       parent,
		parentEndIdx: elementsCount,
		local:        local,
	}, nil
}

// ParentEndIdx is the parent's size when the draft was created.
func (d *Draft) ParentEndIdx() uint64 {
	return d.parentEndIdx
}

// Clear deletes the draft's own keys. The parent is never touched.
func (d *Draft) Clear() error {
	count, err := d.elementsCount.Get()
	if err != nil {
		return err
	}
	if count > d.parentEndIdx {
		if err := d.deleteHashes(d.parentEndIdx+1, count); err != nil {
			return err
		}
	}
	return d.deleteMetadata()
}

// Discard drops every change made through the draft.
func (d *Draft) Discard() error {
	if err := d.Clear(); err != nil {
		return err
	}
	d.log.Info("draft discarded", zap.String("id", d.id), zap.String("parent", d.parent.id))
	return nil
}

// Apply writes the draft's elements, counters and root into the parent in
// one batch, then clears the draft when clearAfter is set. Applying drafts of
// the same parent concurrently is last writer wins.
func (d *Draft) Apply(clearAfter bool) error {
	count, err := d.elementsCount.Get()
	if err != nil {
		return err
	}
	leaves, err := d.leavesCount.Get()
	if err != nil {
		return err
	}
	rootHash, hasRoot, err := d.rootHash.Get()
	if err != nil {
		return err
	}

	var indexes []uint64
	for idx := d.parentEndIdx + 1; idx <= count; idx++ {
		indexes = append(indexes, idx)
	}
	hashes, err := d.local.GetMany(indexes)
	if err != nil {
		return err
	}

	entries := make(map[string][]byte, len(indexes)+3)
	for _, idx := range indexes {
		h, ok := hashes[idx]
		if !ok {
			return errors.Wrapf(accumulator.ErrMissingNode, "%s element %d", d.id, idx)
		}
		entries[d.parent.hashes.Key(idx)] = []byte(h)
	}
	entries[d.parent.elementsCount.Key()] = metadata.EncodeCounter(count)
	entries[d.parent.leavesCount.Key()] = metadata.EncodeCounter(leaves)
	if hasRoot {
		entries[d.parent.rootHash.Key()] = []byte(rootHash)
	}
	if err := database.SetMany(d.parent.db, entries); err != nil {
		return err
	}

	d.metrics.DraftApplied(len(indexes))
	d.log.Info("draft applied",
		zap.String("id", d.id),
		zap.String("parent", d.parent.id),
		zap.Int("elements", len(indexes)),
		zap.Bool("clear", clearAfter))

	if !clearAfter {
		return nil
	}
	return d.Clear()
}

// draftTable serves indexes up to parentEndIdx from the parent and the rest
// from the draft's own table.
type draftTable struct {
	parent       metadata.HashTable
	local        *metadata.IndexedTable
	parentEndIdx uint64
}

func (t *draftTable) table(idx uint64) metadata.HashTable {
	if idx > t.parentEndIdx {
		return t.local
	}
	return t.parent
}

func (t *draftTable) Key(idx uint64) string {
	return t.table(idx).Key(idx)
}

func (t *draftTable) Get(idx uint64) (string, bool, error) {
	return t.table(idx).Get(idx)
}

func (t *draftTable) GetMany(indexes []uint64) (map[uint64]string, error) {
	var local, parent []uint64
	for _, idx := range indexes {
		if idx > t.parentEndIdx {
			local = append(local, idx)
		} else {
			parent = append(parent, idx)
		}
	}
	values := make(map[uint64]string, len(indexes))
	for _, part := range []struct {
		table   metadata.HashTable
		indexes []uint64
	}{{t.local, local}, {t.parent, parent}} {
		if len(part.indexes) == 0 {
			continue
		}
		found, err := part.table.GetMany(part.indexes)
		if err != nil {
			return nil, err
		}
		for idx, v := range found {
			values[idx] = v
		}
	}
	return values, nil
}

// Set refuses indexes of the parent's prefix.
func (t *draftTable) Set(idx uint64, value string) error {
	if idx <= t.parentEndIdx {
		return errors.Wrapf(accumulator.ErrIndexOutOfRange, "element %d belongs to the parent", idx)
	}
	return t.local.Set(idx, value)
}

func (t *draftTable) SetMany(values map[uint64]string) error {
	for idx := range values {
		if idx <= t.parentEndIdx {
			return errors.Wrapf(accumulator.ErrIndexOutOfRange, "element %d belongs to the parent", idx)
		}
	}
	return t.local.SetMany(values)
}

// DeleteMany drops indexes of the parent's prefix, which stay owned by the
// parent, and deletes the rest from the draft's table.
func (t *draftTable) DeleteMany(indexes []uint64) error {
	return t.local.DeleteMany(lo.Filter(indexes, func(idx uint64, _ int) bool {
		return idx > t.parentEndIdx
	}))
}
