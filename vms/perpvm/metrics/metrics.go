// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"

	dto "github.com/prometheus/client_model/go"

	"github.com/luxfi/perps/utils/wrappers"
	"github.com/luxfi/perps/vms/perpvm/fixed"
)

const (
	// Namespace prefixes every ledger metric.
	Namespace = "perps"

	opLabel      = "op"
	outcomeLabel = "outcome"
	verdictLabel = "verdict"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics of the ledger.
type Metrics struct {
	transitions   metric.CounterVec
	liquidations  metric.CounterVec
	feesCollected metric.Counter
	rebatesPaid   metric.Counter
	openPositions metric.Gauge
}

func New(namespace string, registerer metric.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: metric.NewCounterVec(
			metric.CounterOpts{
				Name: namespace + "_transitions_total",
				Help: "Ledger transitions by operation and outcome",
			},
			[]string{opLabel, outcomeLabel},
		),
		liquidations: metric.NewCounterVec(
			metric.CounterOpts{
				Name: namespace + "_liquidations_total",
				Help: "Liquidations by verdict",
			},
			[]string{verdictLabel},
		),
		feesCollected: metric.NewCounter(metric.CounterOpts{
			Name: namespace + "_fees_collected_usd",
			Help: "Margin and liquidation fees collected in USD",
		}),
		rebatesPaid: metric.NewCounter(metric.CounterOpts{
			Name: namespace + "_rebates_credited_usd",
			Help: "Skew and referral rebates credited in USD",
		}),
		openPositions: metric.NewGauge(metric.GaugeOpts{
			Name: namespace + "_open_positions",
			Help: "Number of open positions",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(metric.AsCollector(m.transitions)),
		registerer.Register(metric.AsCollector(m.liquidations)),
		registerer.Register(metric.AsCollector(m.feesCollected)),
		registerer.Register(metric.AsCollector(m.rebatesPaid)),
		registerer.Register(metric.AsCollector(m.openPositions)),
	)
	return m, errs.Err
}

// NewGatherer exposes g to Prometheus handlers.
func NewGatherer(g metric.Gatherer) prometheus.Gatherer {
	return prometheus.GathererFunc(func() ([]*dto.MetricFamily, error) {
		families, err := g.Gather()
		return metric.NativeToDTO(families), err
	})
}

// Transition records the outcome of op.
func (m *Metrics) Transition(op string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.transitions.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Liquidation(verdict string) {
	m.liquidations.WithLabelValues(verdict).Inc()
}

func (m *Metrics) FeesCollected(usd fixed.USD) {
	m.feesCollected.Add(usd.Float64())
}

func (m *Metrics) RebatesCredited(usd fixed.USD) {
	m.rebatesPaid.Add(usd.Float64())
}

func (m *Metrics) PositionOpened() {
	m.openPositions.Inc()
}

func (m *Metrics) PositionClosed() {
	m.openPositions.Dec()
}

// Value reads the counter or gauge called name whose labels include labels.
// A series that was never written reads as zero.
func Value(g prometheus.Gatherer, name string, labels map[string]string) (float64, error) {
	families, err := g.Gather()
	if err != nil {
		return 0, err
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if !hasLabels(m, labels) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue(), nil
			}
			return m.GetGauge().GetValue(), nil
		}
	}
	return 0, nil
}

func hasLabels(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, l := range m.GetLabel() {
		if v, ok := labels[l.GetName()]; ok && v == l.GetValue() {
			matched++
		}
	}
	return matched == len(labels)
}
