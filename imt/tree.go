// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

// Package imt implements a fixed capacity binary Merkle tree whose leaves are
// updated in place.
//
// Depth 0 holds the leaves and depth Depth() holds the single root node.
// A level of odd width is padded on the right with the null value, so a
// sibling past the populated width of its level is the null value both in
// proofs and when parents are recomputed.
package imt

import (
	"math/bits"
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
	sizeField      = "size"
	nullValueField = "null_value"
	rootHashField  = "root_hash"
	nodesField     = "nodes"

	defaultBatchSizeLimit = 1 << 12
)

var _ accumulator.IncrementalMerkleTree = (*Tree)(nil)

type nodeRef struct {
	depth uint64
	index uint64
}

func (r nodeRef) suffix() string {
	return metadata.Key(strconv.FormatUint(r.depth, 10), strconv.FormatUint(r.index, 10))
}

type Tree struct {
	id             string
	db             database.TreeDB
	hasher         hasher.Hasher
	log            *zap.Logger
	metrics        metrics.Metrics
	batchSizeLimit int

	size      uint64
	depth     uint64
	nullValue string
	// widths[d] is the number of populated nodes at depth d.
	widths []uint64

	sizeCounter *metadata.Counter
	nullMeta    *metadata.Value
	rootHash    *metadata.Value
	nodes       *metadata.Table
}

func newTree(db database.TreeDB, h hasher.Hasher, opts ...Option) *Tree {
	t := &Tree{
		db:             db,
		hasher:         h,
		log:            zap.NewNop(),
		metrics:        metrics.Nop{},
		batchSizeLimit: defaultBatchSizeLimit,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.id == "" {
		t.id = uuid.NewString()
	}
	t.sizeCounter = metadata.NewCounter(db, metadata.Key(t.id, sizeField))
	t.nullMeta = metadata.NewValue(db, metadata.Key(t.id, nullValueField))
	t.rootHash = metadata.NewValue(db, metadata.Key(t.id, rootHashField))
	t.nodes = metadata.NewTable(db, metadata.Key(t.id, nodesField))
	return t
}

func (t *Tree) setShape(size uint64, nullValue string) {
	t.size = size
	t.depth = treeDepth(size)
	t.nullValue = nullValue
	t.widths = make([]uint64, t.depth+1)
	width := size
	for d := range t.widths {
		t.widths[d] = width
		width = (width + 1) / 2
	}
}

// treeDepth is ceil(log2(size)).
func treeDepth(size uint64) uint64 {
	return uint64(bits.Len64(size - 1))
}

// Initialize persists a tree of size null leaves together with every
// internal node above them.
func Initialize(size uint64, nullValue string, h hasher.Hasher, db database.TreeDB, opts ...Option) (*Tree, error) {
	if size == 0 {
		return nil, accumulator.ErrInvalidTreeSize
	}
	if !h.IsElementSizeValid(nullValue) {
		return nil, errors.Wrapf(accumulator.ErrElementSizeTooBig, "null value %s", nullValue)
	}
	t := newTree(db, h, opts...)
	existing, err := t.sizeCounter.Get()
	if err != nil {
		return nil, err
	}
	if existing != 0 {
		return nil, errors.Wrapf(accumulator.ErrNonEmptyTree, "%s already holds %d leaves", t.id, existing)
	}
	t.setShape(size, nullValue)

	root, err := t.renderEmptyTree()
	if err != nil {
		return nil, err
	}
	if err := database.SetMany(t.db, map[string][]byte{
		t.sizeCounter.Key(): metadata.EncodeCounter(size),
		t.nullMeta.Key():    []byte(nullValue),
		t.rootHash.Key():    []byte(root),
	}); err != nil {
		return nil, err
	}

	t.log.Info("initialize",
		zap.String("id", t.id),
		zap.Uint64("size", size),
		zap.Uint64("depth", t.depth),
		zap.String("root", root))
	return t, nil
}

// Open attaches to a tree persisted by Initialize. The id must be given with
// WithID.
func Open(h hasher.Hasher, db database.TreeDB, opts ...Option) (*Tree, error) {
	t := newTree(db, h, opts...)
	size, err := t.sizeCounter.Get()
	if err != nil {
		return nil, err
	}
	nullValue, ok, err := t.nullMeta.Get()
	if err != nil {
		return nil, err
	}
	if size == 0 || !ok {
		return nil, errors.Wrapf(ErrTreeNotFound, "%s", t.id)
	}
	t.setShape(size, nullValue)
	return t, nil
}

// renderEmptyTree writes every level of an all null tree and returns its
// root. All nodes of a level share one hash except possibly the last one, so
// only two hashes per level are computed.
func (t *Tree) renderEmptyTree() (string, error) {
	w := newBatchWriter(t)
	common, last := t.nullValue, t.nullValue
	for d := uint64(0); ; d++ {
		width := t.widths[d]
		for i := uint64(0); i < width; i++ {
			value := common
			if i == width-1 {
				value = last
			}
			if err := w.put(nodeRef{depth: d, index: i}, value); err != nil {
				return "", err
			}
		}
		if d == t.depth {
			break
		}

		var err error
		nextCommon := common
		if width > 2 {
			if nextCommon, err = t.hashPair(common, common); err != nil {
				return "", err
			}
		}
		var nextLast string
		if width%2 == 0 {
			nextLast, err = t.hashPair(common, last)
		} else {
			nextLast, err = t.hashPair(last, t.nullValue)
		}
		if err != nil {
			return "", err
		}
		common, last = nextCommon, nextLast
	}
	if err := w.flush(); err != nil {
		return "", err
	}
	return last, nil
}

func (t *Tree) ID() string {
	return t.id
}

// Size is the leaf capacity.
func (t *Tree) Size() uint64 {
	return t.size
}

func (t *Tree) Depth() uint64 {
	return t.depth
}

func (t *Tree) NullValue() string {
	return t.nullValue
}

func (t *Tree) GetRoot() (string, error) {
	root, ok, err := t.rootHash.Get()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.Wrapf(accumulator.ErrMissingNode, "%s root", t.id)
	}
	return root, nil
}

func (t *Tree) GetNode(depth, index uint64) (string, error) {
	if depth > t.depth || index >= t.widths[depth] {
		return "", errors.Wrapf(accumulator.ErrIndexOutOfRange, "node %d at depth %d", index, depth)
	}
	nodes, err := t.fetch([]nodeRef{{depth: depth, index: index}})
	if err != nil {
		return "", err
	}
	return nodes[0], nil
}

// GetInclusionProof returns the sibling of every node on the path from the
// leaf to the root, leaf level first.
func (t *Tree) GetInclusionProof(index uint64) ([]string, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}
	proof, err := t.fetch(t.siblings(index))
	if err != nil {
		return nil, err
	}
	t.metrics.ProofsGenerated(1)
	return proof, nil
}

func (t *Tree) VerifyProof(index uint64, value string, proof []string) (bool, error) {
	if err := t.checkIndex(index); err != nil {
		return false, err
	}
	ok, err := t.verify(index, value, proof)
	if err != nil {
		return false, err
	}
	t.metrics.VerifyResult(ok)
	return ok, nil
}

func (t *Tree) verify(index uint64, value string, proof []string) (bool, error) {
	if uint64(len(proof)) != t.depth {
		return false, nil
	}
	path, err := t.computePath(index, value, proof)
	if err != nil {
		return false, err
	}
	root, err := t.GetRoot()
	if err != nil {
		return false, err
	}
	return path[len(path)-1] == root, nil
}

// Update replaces the leaf at index after checking oldValue and proof
// against the current root. It returns the new root.
func (t *Tree) Update(index uint64, oldValue, newValue string, proof []string) (string, error) {
	if err := t.checkIndex(index); err != nil {
		return "", err
	}
	if !t.hasher.IsElementSizeValid(newValue) {
		return "", errors.Wrapf(accumulator.ErrElementSizeTooBig, "%s", newValue)
	}
	ok, err := t.verify(index, oldValue, proof)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.Wrapf(accumulator.ErrInvalidProof, "leaf %d", index)
	}
	return t.writePath(index, newValue, proof)
}

// UpdateAuthenticated replaces the leaf at index using the siblings held by
// the store.
func (t *Tree) UpdateAuthenticated(index uint64, value string) (string, error) {
	if err := t.checkIndex(index); err != nil {
		return "", err
	}
	if !t.hasher.IsElementSizeValid(value) {
		return "", errors.Wrapf(accumulator.ErrElementSizeTooBig, "%s", value)
	}
	siblings, err := t.fetch(t.siblings(index))
	if err != nil {
		return "", err
	}
	return t.writePath(index, value, siblings)
}

// Clear deletes every node and the metadata of the tree.
func (t *Tree) Clear() error {
	suffixes := make([]string, 0, t.batchSizeLimit)
	for d := uint64(0); d <= t.depth; d++ {
		for i := uint64(0); i < t.widths[d]; i++ {
			suffixes = append(suffixes, nodeRef{depth: d, index: i}.suffix())
			if len(suffixes) == t.batchSizeLimit {
				if err := t.nodes.DeleteMany(suffixes); err != nil {
					return err
				}
				suffixes = suffixes[:0]
			}
		}
	}
	if err := t.nodes.DeleteMany(suffixes); err != nil {
		return err
	}
	return database.DeleteMany(t.db, [][]byte{
		[]byte(t.sizeCounter.Key()),
		[]byte(t.nullMeta.Key()),
		[]byte(t.rootHash.Key()),
	})
}

func (t *Tree) checkIndex(index uint64) error {
	if index >= t.size {
		return errors.Wrapf(accumulator.ErrIndexOutOfRange, "leaf %d of %d", index, t.size)
	}
	return nil
}

// siblings lists the nodes of the authentication path of a leaf.
func (t *Tree) siblings(index uint64) []nodeRef {
	refs := make([]nodeRef, t.depth)
	for d := uint64(0); d < t.depth; d++ {
		refs[d] = nodeRef{depth: d, index: index ^ 1}
		index >>= 1
	}
	return refs
}

// fetch reads refs in order. Nodes past the width of their level read as the
// null value.
func (t *Tree) fetch(refs []nodeRef) ([]string, error) {
	values := make([]string, len(refs))
	suffixes := make([]string, 0, len(refs))
	for i, ref := range refs {
		if ref.index >= t.widths[ref.depth] {
			values[i] = t.nullValue
			continue
		}
		suffixes = append(suffixes, ref.suffix())
	}
	if len(suffixes) == 0 {
		return values, nil
	}
	found, err := t.nodes.GetMany(suffixes)
	if err != nil {
		return nil, err
	}
	for i, ref := range refs {
		if ref.index >= t.widths[ref.depth] {
			continue
		}
		v, ok := found[ref.suffix()]
		if !ok {
			return nil, errors.Wrapf(accumulator.ErrMissingNode, "%s node %d at depth %d", t.id, ref.index, ref.depth)
		}
		values[i] = v
	}
	return values, nil
}

// computePath hashes value up to the root. The result holds one node per
// depth, the leaf first.
func (t *Tree) computePath(index uint64, value string, siblings []string) ([]string, error) {
	path := make([]string, 0, len(siblings)+1)
	path = append(path, value)
	current := value
	for _, sibling := range siblings {
		var err error
		if index%2 == 0 {
			current, err = t.hashPair(current, sibling)
		} else {
			current, err = t.hashPair(sibling, current)
		}
		if err != nil {
			return nil, err
		}
		path = append(path, current)
		index >>= 1
	}
	return path, nil
}

func (t *Tree) writePath(index uint64, value string, siblings []string) (string, error) {
	path, err := t.computePath(index, value, siblings)
	if err != nil {
		return "", err
	}
	root := path[len(path)-1]
	entries := make(map[string][]byte, len(path)+1)
	for d, node := range path {
		ref := nodeRef{depth: uint64(d), index: index >> uint(d)}
		entries[t.nodes.Key(ref.suffix())] = []byte(node)
	}
	entries[t.rootHash.Key()] = []byte(root)
	if err := database.SetMany(t.db, entries); err != nil {
		return "", err
	}

	t.metrics.TreeUpdate(len(path))
	t.log.Debug("update",
		zap.String("id", t.id),
		zap.Uint64("index", index),
		zap.String("root", root))
	return root, nil
}

func (t *Tree) hashPair(left, right string) (string, error) {
	return t.hasher.Hash([]string{left, right})
}

// batchWriter buffers node writes up to the tree's batch size limit.
type batchWriter struct {
	tree    *Tree
	pending map[string]string
}

func newBatchWriter(t *Tree) *batchWriter {
	return &batchWriter{tree: t, pending: make(map[string]string, t.batchSizeLimit)}
}

func (w *batchWriter) put(ref nodeRef, value string) error {
	w.pending[ref.suffix()] = value
	if len(w.pending) >= w.tree.batchSizeLimit {
		return w.flush()
	}
	return nil
}

func (w *batchWriter) flush() error {
	if len(w.pending) == 0 {
		return nil
	}
	if err := w.tree.nodes.SetMany(w.pending); err != nil {
		return err
	}
	w.pending = make(map[string]string, w.tree.batchSizeLimit)
	return nil
}
