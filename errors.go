// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package accumulator

import (
	"github.com/pkg/errors"
)

var (
	ErrElementSizeTooBig = errors.New("element size is too big to hash with this hasher")

	ErrIndexOutOfRange = errors.New("index out of range")

	ErrInvalidElementsCount = errors.New("invalid elements count")

	ErrNotALeaf = errors.New("provided index is not a leaf")

	ErrInvalidProof = errors.New("invalid proof")

	ErrNonEmptyTree = errors.New("cannot create with genesis on a non-empty tree")

	ErrFormatting = errors.New("formatting: expected output size is smaller than the actual size")

	ErrMissingNode = errors.New("tree node not found")

	ErrInvalidTreeSize = errors.New("tree size must be greater than 0")

	ErrLengthMismatch = errors.New("the number of indexes does not match the number of values")
)
