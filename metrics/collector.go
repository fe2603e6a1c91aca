// Package metrics exposes simulation progress as prometheus gauges.
package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"beacon-sim/models"
)

const namespace = "beacon_sim"

// Collector records the latest tick of the running simulation. Undefined
// aggregates are exported as NaN.
type Collector struct {
	ticks        prometheus.Counter
	activeNodes  prometheus.Gauge
	activeGroups prometheus.Gauge
	groups       prometheus.Gauge
	signatures   prometheus.Gauge
	skipped      prometheus.Gauge

	groupRatios     *prometheus.GaugeVec
	signatureRatios *prometheus.GaugeVec
}

// NewCollector registers the simulation metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Simulation ticks stepped.",
		}),
		activeNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_nodes",
			Help:      "Connected nodes after the last tick.",
		}),
		activeGroups: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_groups",
			Help:      "Groups able to sign after the last tick.",
		}),
		groups: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "groups",
			Help:      "Groups formed so far.",
		}),
		signatures: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signatures",
			Help:      "Signatures requested so far.",
		}),
		skipped: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "skipped_relay_requests",
			Help:      "Relay requests that found no active group.",
		}),
		groupRatios: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "group_ratio",
			Help:      "Group aggregates of the last tick.",
		}, []string{"aggregate"}),
		signatureRatios: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signature_ratio",
			Help:      "Signature aggregates of the last tick.",
		}, []string{"aggregate"}),
	}
}

// TickCompleted implements beacon.Reporter.
func (c *Collector) TickCompleted(m models.TickMetrics) {
	c.ticks.Inc()
	c.activeNodes.Set(float64(m.ActiveNodes))
	c.activeGroups.Set(float64(m.ActiveGroups))
	c.groups.Set(float64(m.TotalGroups))
	c.signatures.Set(float64(m.TotalSignatures))
	c.skipped.Set(float64(m.SkippedSignatures))

	c.groupRatios.WithLabelValues("compromised").Set(value(m.CompromisedGroupsPercent))
	c.groupRatios.WithLabelValues("median_malicious").Set(value(m.MedianMaliciousGroupPercent))

	c.signatureRatios.WithLabelValues("dominated").Set(value(m.DominatedSignaturesPercent))
	c.signatureRatios.WithLabelValues("failed").Set(value(m.FailedSignaturesPercent))
	c.signatureRatios.WithLabelValues("lynchpinned").Set(value(m.LynchpinnedSignaturesPercent))
	c.signatureRatios.WithLabelValues("median_dominator").Set(value(m.MedianDominatorPercent))
	c.signatureRatios.WithLabelValues("median_offline").Set(value(m.MedianOfflinePercent))
}

func value(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
