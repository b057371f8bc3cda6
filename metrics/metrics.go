// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package metrics

type Metrics interface {
	// The current number of elements of a mountain range
	ElementsCount(uint64)
	// The current number of leaves of a mountain range
	LeavesCount(uint64)
	// The number of nodes written by each append
	AppendNodes(int)
	// The number of inclusion proofs generated
	ProofsGenerated(int)
	// The outcome of each proof verification
	VerifyResult(valid bool)
	// The number of nodes written by each tree update
	TreeUpdate(nodes int)
	// The number of nodes flushed by each draft apply
	DraftApplied(nodes int)
}

var _ Metrics = Nop{}

// Nop discards everything.
type Nop struct{}

func (Nop) ElementsCount(uint64) {}

func (Nop) LeavesCount(uint64) {}

func (Nop) AppendNodes(int) {}

func (Nop) ProofsGenerated(int) {}

func (Nop) VerifyResult(bool) {}

func (Nop) TreeUpdate(int) {}

func (Nop) DraftApplied(int) {}
