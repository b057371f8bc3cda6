// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

// Package accumulator holds the public surface shared by the append-only
// accumulators of this module: the Merkle Mountain Range in package mmr and
// the fixed-capacity incremental Merkle tree in package imt.
package accumulator

type (
	// AppendResult describes the state of a Merkle Mountain Range right after
	// an append.
	AppendResult struct {
		LeavesCount   uint64
		ElementsCount uint64
		// ElementIndex is the index of the appended leaf.
		ElementIndex uint64
		RootHash     string
	}

	// Proof is a self-contained inclusion proof, valid for the stated
	// ElementsCount.
	Proof struct {
		ElementIndex   uint64   `json:"elementIndex"`
		ElementHash    string   `json:"elementHash"`
		SiblingsHashes []string `json:"siblingsHashes"`
		PeaksHashes    []string `json:"peaksHashes"`
		ElementsCount  uint64   `json:"elementsCount"`
	}

	// Format right pads a list of hashes with NullValue up to OutputSize.
	Format struct {
		OutputSize int    `yaml:"OutputSize"`
		NullValue  string `yaml:"NullValue"`
	}

	// ProofFormat is the formatting applied to both lists of a Proof.
	ProofFormat struct {
		Proof Format
		Peaks Format
	}

	// ProofOptions selects the tree state a proof refers to. A zero
	// ElementsCount means the current one.
	ProofOptions struct {
		ElementsCount uint64
		Formatting    *ProofFormat
	}

	// PeaksOptions selects the tree state peaks are read at.
	PeaksOptions struct {
		ElementsCount uint64
		Formatting    *Format
	}

	MerkleMountainRange interface {
		ID() string
		Append(value string) (*AppendResult, error)
		GetProof(elementIndex uint64, opts *ProofOptions) (*Proof, error)
		GetProofs(elementIndexes []uint64, opts *ProofOptions) ([]*Proof, error)
		VerifyProof(proof *Proof, elementValue string, opts *ProofOptions) (bool, error)
		VerifyProofs(proofs []*Proof, elementValues []string, opts *ProofOptions) (bool, error)
		GetPeaks(opts *PeaksOptions) ([]string, error)
		BagThePeaks() (string, error)
		BagThePeaksAt(elementsCount uint64) (string, error)
		CalculateRootHash(bag string, leavesCount uint64) (string, error)
		RootHash() (string, error)
		ElementsCount() (uint64, error)
		LeavesCount() (uint64, error)
		Clear() error
	}

	IncrementalMerkleTree interface {
		ID() string
		Size() uint64
		Depth() uint64
		GetRoot() (string, error)
		GetNode(depth, index uint64) (string, error)
		GetInclusionProof(index uint64) ([]string, error)
		VerifyProof(index uint64, value string, proof []string) (bool, error)
		Update(index uint64, oldValue, newValue string, proof []string) (string, error)
		UpdateAuthenticated(index uint64, value string) (string, error)
		GetInclusionMultiProof(indexes []uint64) ([]string, error)
		VerifyMultiProof(indexes []uint64, values []string, proof []string) (bool, error)
		Clear() error
	}
)
