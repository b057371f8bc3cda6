// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package mmr

import (
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/bnb-chain/zkbnb-accumulator"
)

// GetProof proves the leaf at elementIndex against the range of
// opts.ElementsCount elements, the current size when unset.
func (m *MMR) GetProof(elementIndex uint64, opts *ProofOptions) (*Proof, error) {
	proofs, err := m.GetProofs([]uint64{elementIndex}, opts)
	if err != nil {
		return nil, err
	}
	return proofs[0], nil
}

// GetProofs proves several leaves of the same range, reading every shared
// sibling once.
func (m *MMR) GetProofs(elementIndexes []uint64, opts *ProofOptions) ([]*Proof, error) {
	if opts == nil {
		opts = &ProofOptions{}
	}
	if err := validateProofFormat(opts.Formatting); err != nil {
		return nil, err
	}
	treeSize, err := m.treeSize(opts.ElementsCount)
	if err != nil {
		return nil, err
	}
	for _, elementIndex := range elementIndexes {
		if err := checkIndex(elementIndex, treeSize); err != nil {
			return nil, err
		}
	}

	peaks, err := m.peaksAt(treeSize)
	if err != nil {
		return nil, err
	}
	if opts.Formatting != nil {
		if peaks, err = FormatPeaks(peaks, opts.Formatting.Peaks); err != nil {
			return nil, err
		}
	}

	siblingsPerElement := make([][]uint64, len(elementIndexes))
	for i, elementIndex := range elementIndexes {
		if siblingsPerElement[i], err = FindSiblings(elementIndex, treeSize); err != nil {
			return nil, err
		}
	}
	toGet := lo.Uniq(append(lo.Flatten(siblingsPerElement), elementIndexes...))
	hashes, err := m.hashes.GetMany(toGet)
	if err != nil {
		return nil, err
	}
	lookup := func(idx uint64) (string, error) {
		h, ok := hashes[idx]
		if !ok {
			return "", errors.Wrapf(accumulator.ErrMissingNode, "%s element %d", m.id, idx)
		}
		return h, nil
	}

	proofs := make([]*Proof, len(elementIndexes))
	for i, elementIndex := range elementIndexes {
		elementHash, err := lookup(elementIndex)
		if err != nil {
			return nil, err
		}
		siblingsHashes := make([]string, len(siblingsPerElement[i]))
		for j, sibling := range siblingsPerElement[i] {
			if siblingsHashes[j], err = lookup(sibling); err != nil {
				return nil, err
			}
		}
		if opts.Formatting != nil {
			if siblingsHashes, err = FormatProof(siblingsHashes, opts.Formatting.Proof); err != nil {
				return nil, err
			}
		}
		proofs[i] = &Proof{
			ElementIndex:   elementIndex,
			ElementHash:    elementHash,
			SiblingsHashes: siblingsHashes,
			PeaksHashes:    append([]string(nil), peaks...),
			ElementsCount:  treeSize,
		}
	}
	m.metrics.ProofsGenerated(len(proofs))
	return proofs, nil
}

// verification is a proof reduced to what folding it needs.
type verification struct {
	siblings  []string
	treeSize  uint64
	peakIndex int
	leafIndex uint64
	// shaped is false when the sibling count cannot match the peak height.
	shaped bool
}

// VerifyProof checks that elementValue is the leaf proof refers to. The
// range size is opts.ElementsCount, then proof.ElementsCount, then the
// current size. A malformed index is an error while a proof that does not
// hash up to the stored peak is reported as false.
func (m *MMR) VerifyProof(proof *Proof, elementValue string, opts *ProofOptions) (bool, error) {
	v, err := m.prepare(proof, opts)
	if err != nil {
		return false, err
	}
	peaks, err := m.peaksAt(v.treeSize)
	if err != nil {
		return false, err
	}
	valid, err := m.verify(v, elementValue, peaks)
	if err != nil {
		return false, err
	}
	m.metrics.VerifyResult(valid)
	return valid, nil
}

// VerifyProofs verifies proofs[i] against elementValues[i] on a worker
// pool. It is true only if every proof is valid.
func (m *MMR) VerifyProofs(proofs []*Proof, elementValues []string, opts *ProofOptions) (bool, error) {
	if len(proofs) != len(elementValues) {
		return false, errors.Wrapf(accumulator.ErrLengthMismatch, "%d proofs, %d values", len(proofs), len(elementValues))
	}
	verifications := make([]*verification, len(proofs))
	peaksBySize := make(map[uint64][]string)
	for i, proof := range proofs {
		v, err := m.prepare(proof, opts)
		if err != nil {
			return false, err
		}
		if _, ok := peaksBySize[v.treeSize]; !ok {
			if peaksBySize[v.treeSize], err = m.peaksAt(v.treeSize); err != nil {
				return false, err
			}
		}
		verifications[i] = v
	}

	pool, err := ants.NewPool(m.parallelism)
	if err != nil {
		return false, err
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		allValid = true
		firstErr error
	)
	for i := range verifications {
		v, value := verifications[i], elementValues[i]
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			valid, err := m.verify(v, value, peaksBySize[v.treeSize])
			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			allValid = allValid && valid
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return false, err
		}
	}
	wg.Wait()
	if firstErr != nil {
		return false, firstErr
	}
	m.metrics.VerifyResult(allValid)
	m.log.Debug("verify proofs", zap.String("id", m.id), zap.Int("proofs", len(proofs)), zap.Bool("valid", allValid))
	return allValid, nil
}

func (m *MMR) prepare(proof *Proof, opts *ProofOptions) (*verification, error) {
	if proof == nil {
		return nil, errors.Wrap(accumulator.ErrInvalidProof, "nil proof")
	}
	if opts == nil {
		opts = &ProofOptions{}
	}
	if err := validateProofFormat(opts.Formatting); err != nil {
		return nil, err
	}
	elementsCount := opts.ElementsCount
	if elementsCount == 0 {
		elementsCount = proof.ElementsCount
	}
	treeSize, err := m.treeSize(elementsCount)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(proof.ElementIndex, treeSize); err != nil {
		return nil, err
	}
	peakIndex, peakHeight, err := GetPeakInfo(treeSize, proof.ElementIndex)
	if err != nil {
		return nil, err
	}
	leafIndex, err := ElementIndexToLeafIndex(proof.ElementIndex)
	if err != nil {
		return nil, err
	}
	siblings := proof.SiblingsHashes
	if opts.Formatting != nil {
		siblings = trimNullValues(siblings, opts.Formatting.Proof.NullValue, peakHeight)
	}
	return &verification{
		siblings:  siblings,
		treeSize:  treeSize,
		peakIndex: peakIndex,
		leafIndex: leafIndex,
		shaped:    len(siblings) == peakHeight,
	}, nil
}

// verify hashes elementValue up through the siblings, the leaf index
// parity at each level telling on which side the sibling sits.
func (m *MMR) verify(v *verification, elementValue string, peaks []string) (bool, error) {
	if !v.shaped || v.peakIndex >= len(peaks) {
		return false, nil
	}
	hash := elementValue
	leafIndex := v.leafIndex
	for _, sibling := range v.siblings {
		var err error
		if leafIndex%2 == 1 {
			hash, err = m.hasher.Hash([]string{sibling, hash})
		} else {
			hash, err = m.hasher.Hash([]string{hash, sibling})
		}
		if err != nil {
			return false, err
		}
		leafIndex /= 2
	}
	return peaks[v.peakIndex] == hash, nil
}

func checkIndex(elementIndex, treeSize uint64) error {
	if elementIndex == 0 {
		return errors.Wrap(accumulator.ErrIndexOutOfRange, "element index must be greater than 0")
	}
	if elementIndex > treeSize {
		return errors.Wrapf(accumulator.ErrIndexOutOfRange, "element %d is beyond the tree size %d", elementIndex, treeSize)
	}
	return nil
}

func validateProofFormat(format *ProofFormat) error {
	if format == nil {
		return nil
	}
	if err := ValidateFormat(format.Proof); err != nil {
		return err
	}
	return ValidateFormat(format.Peaks)
}
