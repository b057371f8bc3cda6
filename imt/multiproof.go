// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package imt

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/bnb-chain/zkbnb-accumulator"
)

type leaf struct {
	index uint64
	value string
}

// GetInclusionMultiProof returns the nodes needed to authenticate the leaves
// at indexes together. Nodes are ordered level by level from the leaves up
// and by index within a level. A node whose both children are known is
// derived by the verifier and never included.
func (t *Tree) GetInclusionMultiProof(indexes []uint64) ([]string, error) {
	known, err := t.sortIndexes(indexes)
	if err != nil {
		return nil, err
	}

	var refs []nodeRef
	for d := uint64(0); d < t.depth; d++ {
		parents := make([]uint64, 0, (len(known)+1)/2)
		for i := 0; i < len(known); i++ {
			idx := known[i]
			if idx%2 == 0 && i+1 < len(known) && known[i+1] == idx+1 {
				i++
			} else {
				refs = append(refs, nodeRef{depth: d, index: idx ^ 1})
			}
			parents = append(parents, idx/2)
		}
		known = parents
	}

	proof, err := t.fetch(refs)
	if err != nil {
		return nil, err
	}
	t.metrics.ProofsGenerated(len(indexes))
	return proof, nil
}

// VerifyMultiProof recomputes the root from the given leaves and proof. The
// proof must be consumed exactly.
func (t *Tree) VerifyMultiProof(indexes []uint64, values []string, proof []string) (bool, error) {
	if len(indexes) != len(values) {
		return false, errors.Wrapf(accumulator.ErrLengthMismatch, "%d indexes, %d values", len(indexes), len(values))
	}
	if _, err := t.sortIndexes(indexes); err != nil {
		return false, err
	}
	level := make([]leaf, len(indexes))
	for i := range indexes {
		level[i] = leaf{index: indexes[i], value: values[i]}
	}
	slices.SortFunc(level, func(a, b leaf) int {
		return cmp.Compare(a.index, b.index)
	})

	ok, err := t.verifyLevels(level, proof)
	if err != nil {
		return false, err
	}
	t.metrics.VerifyResult(ok)
	return ok, nil
}

func (t *Tree) verifyLevels(level []leaf, proof []string) (bool, error) {
	consumed := 0
	for d := uint64(0); d < t.depth; d++ {
		parents := make([]leaf, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i++ {
			node := level[i]
			var sibling string
			if node.index%2 == 0 && i+1 < len(level) && level[i+1].index == node.index+1 {
				sibling = level[i+1].value
				i++
			} else {
				if consumed == len(proof) {
					return false, nil
				}
				sibling = proof[consumed]
				consumed++
			}

			var (
				parent string
				err    error
			)
			if node.index%2 == 0 {
				parent, err = t.hashPair(node.value, sibling)
			} else {
				parent, err = t.hashPair(sibling, node.value)
			}
			if err != nil {
				return false, err
			}
			parents = append(parents, leaf{index: node.index / 2, value: parent})
		}
		level = parents
	}
	if consumed != len(proof) || len(level) != 1 {
		return false, nil
	}
	root, err := t.GetRoot()
	if err != nil {
		return false, err
	}
	return level[0].value == root, nil
}

// sortIndexes returns a sorted copy of indexes after checking every index is
// a leaf and none repeats.
func (t *Tree) sortIndexes(indexes []uint64) ([]uint64, error) {
	if len(indexes) == 0 {
		return nil, errors.Wrap(accumulator.ErrIndexOutOfRange, "no leaf index given")
	}
	if len(lo.Uniq(indexes)) != len(indexes) {
		return nil, errors.Wrapf(ErrDuplicateIndex, "%v", lo.FindDuplicates(indexes))
	}
	for _, idx := range indexes {
		if err := t.checkIndex(idx); err != nil {
			return nil, err
		}
	}
	sorted := slices.Clone(indexes)
	slices.Sort(sorted)
	return sorted, nil
}
