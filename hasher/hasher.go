// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

// Package hasher provides the hash functions accumulators are built with.
//
// Elements are hex strings with an optional 0x prefix. A leaf is stored as
// the raw appended element: hashers never mix the element index in, so
// callers that need a leaf bound to its position hash (index, value) before
// appending it.
package hasher

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// GenesisString is the preimage of the genesis element.
const GenesisString = "brave new world"

var (
	ErrInvalidArity = errors.New("hasher: unexpected number of elements")

	ErrInvalidElement = errors.New("hasher: element is not a hex string")

	ErrElementTooBig = errors.New("hasher: element exceeds the block size")
)

type Hasher interface {
	// Hash hashes an ordered list of elements into a single element.
	Hash(elements []string) (string, error)
	HashSingle(element string) (string, error)
	// IsElementSizeValid reports whether element fits the hasher block size.
	IsElementSizeValid(element string) bool
	// Genesis is the hash of GenesisString.
	Genesis() (string, error)
}

// Options are the constraints a hasher enforces on its input.
type Options struct {
	// BlockSizeBits bounds the bit length of every element.
	BlockSizeBits int
	// Arity is the exact number of elements Hash accepts, 0 for any.
	Arity int
}

type Option func(*Options)

func WithBlockSizeBits(bits int) Option {
	return func(o *Options) {
		o.BlockSizeBits = bits
	}
}

func WithArity(arity int) Option {
	return func(o *Options) {
		o.Arity = arity
	}
}

func newOptions(blockSizeBits int, opts []Option) Options {
	o := Options{BlockSizeBits: blockSizeBits}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o Options) checkArity(n int) error {
	if o.Arity > 0 && n != o.Arity {
		return errors.Wrapf(ErrInvalidArity, "expected %d, got %d", o.Arity, n)
	}
	return nil
}

func (o Options) isElementSizeValid(element string) bool {
	b, err := Decode(element)
	if err != nil {
		return false
	}
	return new(big.Int).SetBytes(b).BitLen() <= o.BlockSizeBits
}

// Decode converts a hex element into bytes. The 0x prefix is optional and
// odd lengths are left padded with a zero nibble.
func Decode(element string) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(element, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidElement, "%q", element)
	}
	return b, nil
}

// EncodeString returns the hex element whose bytes are s.
func EncodeString(s string) string {
	return "0x" + hex.EncodeToString([]byte(s))
}

func genesis(h Hasher) (string, error) {
	return h.HashSingle(EncodeString(GenesisString))
}
