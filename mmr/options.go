// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package mmr

import (
	"go.uber.org/zap"

	"github.com/bnb-chain/zkbnb-accumulator/metrics"
)

// Option is a function that configures an MMR.
type Option func(*MMR)

// WithID binds the range to an existing instance id. A random id is used
// otherwise.
func WithID(id string) Option {
	return func(m *MMR) {
		m.id = id
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(m *MMR) {
		if log != nil {
			m.log = log
		}
	}
}

func EnableMetrics(metrics metrics.Metrics) Option {
	return func(m *MMR) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithParallelism bounds the workers used to verify batches of proofs.
func WithParallelism(workers int) Option {
	return func(m *MMR) {
		if workers > 0 {
			m.parallelism = workers
		}
	}
}
