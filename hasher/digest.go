// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package hasher

import (
	"hash"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
)

const wordSize = 32

var (
	_ Hasher = (*Digest)(nil)
	_ Hasher = (*MiMC)(nil)
)

// Digest hashes the concatenation of its elements, each left padded to a
// 32 byte word, with a byte oriented hash function.
type Digest struct {
	opts Options
	pool *Pool
}

// NewKeccak returns the Keccak-256 hasher used by EVM verifiers.
func NewKeccak(opts ...Option) *Digest {
	return NewDigest(func() hash.Hash { return crypto.NewKeccakState() }, opts...)
}

func NewSHA256(opts ...Option) *Digest {
	return NewDigest(sha256.New, opts...)
}

func NewDigest(newHash func() hash.Hash, opts ...Option) *Digest {
	return &Digest{
		opts: newOptions(wordSize*8, opts),
		pool: NewPool(newHash),
	}
}

func (h *Digest) Hash(elements []string) (string, error) {
	if err := h.opts.checkArity(len(elements)); err != nil {
		return "", err
	}
	inputs := make([][]byte, len(elements))
	for i, element := range elements {
		b, err := Decode(element)
		if err != nil {
			return "", err
		}
		if len(b) > wordSize {
			return "", errors.Wrapf(ErrElementTooBig, "%d bytes", len(b))
		}
		inputs[i] = common.LeftPadBytes(b, wordSize)
	}
	return hexutil.Encode(h.pool.Hash(inputs...)), nil
}

func (h *Digest) HashSingle(element string) (string, error) {
	return h.Hash([]string{element})
}

func (h *Digest) IsElementSizeValid(element string) bool {
	return h.opts.isElementSizeValid(element)
}

func (h *Digest) Genesis() (string, error) {
	return genesis(h)
}
