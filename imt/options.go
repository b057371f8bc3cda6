// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package imt

import (
	"go.uber.org/zap"

	"github.com/bnb-chain/zkbnb-accumulator/metrics"
)

// Option is a function that configures a Tree.
type Option func(*Tree)

// WithID binds the tree to an instance id. A random id is used otherwise.
func WithID(id string) Option {
	return func(t *Tree) {
		t.id = id
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(t *Tree) {
		if log != nil {
			t.log = log
		}
	}
}

func EnableMetrics(metrics metrics.Metrics) Option {
	return func(t *Tree) {
		if metrics != nil {
			t.metrics = metrics
		}
	}
}

// BatchSizeLimit bounds the nodes written per store batch while the empty
// tree is built and while it is cleared.
func BatchSizeLimit(limit int) Option {
	return func(t *Tree) {
		if limit > 0 {
			t.batchSizeLimit = limit
		}
	}
}
