// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"
	"testing"

	"github.com/luxfi/metric"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/perps/vms/perpvm/fixed"
)

func TestMetrics(t *testing.T) {
	require := require.New(t)

	registry := metric.NewRegistry()
	m, err := New("perps", registry)
	require.NoError(err)

	m.Transition("increase", nil)
	m.Transition("increase", nil)
	m.Transition("increase", errors.New("boom"))
	m.Liquidation("liquidatable")
	m.FeesCollected(fixed.Dollars(12))
	m.RebatesCredited(fixed.Dollars(3))
	m.PositionOpened()
	m.PositionOpened()
	m.PositionClosed()

	tests := []struct {
		name     string
		labels   map[string]string
		expected float64
	}{
		{
			name:     "perps_transitions_total",
			labels:   map[string]string{opLabel: "increase", outcomeLabel: OutcomeSuccess},
			expected: 2,
		},
		{
			name:     "perps_transitions_total",
			labels:   map[string]string{opLabel: "increase", outcomeLabel: OutcomeFailure},
			expected: 1,
		},
		{
			name:     "perps_liquidations_total",
			labels:   map[string]string{verdictLabel: "liquidatable"},
			expected: 1,
		},
		{
			name:     "perps_fees_collected_usd",
			expected: 12,
		},
		{
			name:     "perps_rebates_credited_usd",
			expected: 3,
		},
		{
			name:     "perps_open_positions",
			expected: 1,
		},
	}
	for _, tt := range tests {
		value, err := Value(NewGatherer(registry), tt.name, tt.labels)
		require.NoError(err)
		require.InDelta(tt.expected, value, 1e-9, tt.name)
	}
}

func TestValueOfMissingMetric(t *testing.T) {
	require := require.New(t)

	registry := metric.NewRegistry()
	_, err := New("perps", registry)
	require.NoError(err)

	value, err := Value(NewGatherer(registry), "perps_liquidations_total", map[string]string{
		verdictLabel: "liquidatable",
	})
	require.NoError(err)
	require.Zero(value)
}
