// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package hasher

import (
	"hash"
	"sync"
)

// Pool shares hash.Hash states between goroutines.
type Pool struct {
	pool sync.Pool
}

func NewPool(newHash func() hash.Hash) *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() interface{} {
				return newHash()
			},
		},
	}
}

func (p *Pool) Hash(inputs ...[]byte) []byte {
	hasher := p.pool.Get().(hash.Hash)
	defer p.pool.Put(hasher)

	hasher.Reset()
	for i := range inputs {
		hasher.Write(inputs[i])
	}
	return hasher.Sum(nil)
}
