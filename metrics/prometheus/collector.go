// Copyright 2022 bnb-chain. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bnb-chain/zkbnb-accumulator/metrics"
)

var _ metrics.Metrics = (*Collector)(nil)

// NewCollector creates the accumulator metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	elementsCount := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mmr_elements_count",
		Help: "The current number of elements of the mountain range",
	})
	leavesCount := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mmr_leaves_count",
		Help: "The current number of leaves of the mountain range",
	})
	appendNodes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mmr_append_nodes",
		Help:    "The number of nodes written by each append",
		Buckets: prometheus.LinearBuckets(1, 4, 16),
	})
	proofs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accumulator_proofs_generated_total",
		Help: "The number of inclusion proofs generated",
	})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "accumulator_verifications_total",
		Help: "The number of proof verifications by outcome",
	}, []string{"result"})
	treeUpdates := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "imt_update_nodes",
		Help:    "The number of nodes written by each tree update",
		Buckets: prometheus.LinearBuckets(1, 4, 16),
	})
	draftNodes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mmr_draft_applied_nodes_total",
		Help: "The number of nodes flushed by draft applies",
	})
	reg.MustRegister(
		elementsCount,
		leavesCount,
		appendNodes,
		proofs,
		verifications,
		treeUpdates,
		draftNodes)

	return &Collector{
		elementsCount: elementsCount,
		leavesCount:   leavesCount,
		appendNodes:   appendNodes,
		proofs:        proofs,
		verifications: verifications,
		treeUpdates:   treeUpdates,
		draftNodes:    draftNodes,
	}
}

type Collector struct {
	elementsCount prometheus.Gauge
	leavesCount   prometheus.Gauge
	appendNodes   prometheus.Histogram
	proofs        prometheus.Counter
	verifications *prometheus.CounterVec
	treeUpdates   prometheus.Histogram
	draftNodes    prometheus.Counter
}

func (c *Collector) ElementsCount(n uint64) {
	c.elementsCount.Set(float64(n))
}

func (c *Collector) LeavesCount(n uint64) {
	c.leavesCount.Set(float64(n))
}

func (c *Collector) AppendNodes(n int) {
	c.appendNodes.Observe(float64(n))
}

func (c *Collector) ProofsGenerated(n int) {
	c.proofs.Add(float64(n))
}

func (c *Collector) VerifyResult(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	c.verifications.WithLabelValues(result).Inc()
}

func (c *Collector) TreeUpdate(nodes int) {
	c.treeUpdates.Observe(float64(nodes))
}

func (c *Collector) DraftApplied(nodes int) {
	c.draftNodes.Add(float64(nodes))
}
