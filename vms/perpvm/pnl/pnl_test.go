// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pnl

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/perps/vms/perpvm/fixed"
)

func TestDelta(t *testing.T) {
	tests := []struct {
		name   string
		isLong bool
		mark   uint64
		want   fixed.SignedUSD
	}{
		{name: "long up", isLong: true, mark: 110, want: fixed.Profit(fixed.Dollars(100))},
		{name: "long down", isLong: true, mark: 90, want: fixed.Loss(fixed.Dollars(100))},
		{name: "short up", isLong: false, mark: 110, want: fixed.Loss(fixed.Dollars(100))},
		{name: "short down", isLong: false, mark: 90, want: fixed.Profit(fixed.Dollars(100))},
		{name: "flat", isLong: true, mark: 100, want: fixed.SignedUSD{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			got, err := Delta(fixed.Dollars(1000), fixed.NewPrice(100), fixed.NewPrice(tt.mark), tt.isLong)
			require.NoError(err)
			require.Equal(tt.want, got)
		})
	}

	_, err := Delta(fixed.Dollars(1), fixed.Price{}, fixed.NewPrice(1), true)
	require.ErrorIs(t, err, ErrZeroAveragePrice)
}

func TestMinProfit(t *testing.T) {
	rule := MinProfit{Bps: 150, Window: 3600}
	size := fixed.Dollars(1000)

	tests := []struct {
		name  string
		delta fixed.SignedUSD
		now   uint64
		want  fixed.SignedUSD
	}{
		{name: "small profit inside window", delta: fixed.Profit(fixed.Dollars(15)), now: 100, want: fixed.SignedUSD{}},
		{name: "large profit inside window", delta: fixed.Profit(fixed.Dollars(16)), now: 100, want: fixed.Profit(fixed.Dollars(16))},
		{name: "small profit after window", delta: fixed.Profit(fixed.Dollars(15)), now: 3601, want: fixed.Profit(fixed.Dollars(15))},
		{name: "loss is never hidden", delta: fixed.Loss(fixed.Dollars(5)), now: 100, want: fixed.Loss(fixed.Dollars(5))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			got, err := rule.Apply(tt.delta, size, 0, tt.now)
			require.NoError(err)
			require.Equal(tt.want, got)
		})
	}
}

func TestNextAveragePriceKeepsDelta(t *testing.T) {
	// rounding slack in 1e-30 USD units
	tolerance := uint256.NewInt(1_000)

	tests := []struct {
		name   string
		isLong bool
		avg    uint64
		fill   uint64
	}{
		{name: "long in profit", isLong: true, avg: 100, fill: 110},
		{name: "long in loss", isLong: true, avg: 100, fill: 93},
		{name: "short in profit", isLong: false, avg: 100, fill: 87},
		{name: "short in loss", isLong: false, avg: 100, fill: 104},
		{name: "flat", isLong: true, avg: 100, fill: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			size := fixed.Dollars(1000)
			sizeDelta := fixed.Dollars(777)
			avg, fill := fixed.NewPrice(tt.avg), fixed.NewPrice(tt.fill)

			before, err := Delta(size, avg, fill, tt.isLong)
			require.NoError(err)

			next, err := NextAveragePrice(size, sizeDelta, fill, before, tt.isLong)
			require.NoError(err)

			nextSize, err := size.Add(sizeDelta)
			require.NoError(err)
			after, err := Delta(nextSize, next, fill, tt.isLong)
			require.NoError(err)

			if !before.Abs.IsZero() {
				require.Equal(before.IsNeg(), after.IsNeg())
			}
			var diff fixed.USD
			if before.Abs.Lt(after.Abs) {
				diff, err = after.Abs.Sub(before.Abs)
			} else {
				diff, err = before.Abs.Sub(after.Abs)
			}
			require.NoError(err)
			require.True(diff.Int().Cmp(tolerance) <= 0, "delta drifted by %s", diff)
		})
	}
}

func TestNextAveragePriceExact(t *testing.T) {
	require := require.New(t)

	// long 1000 @ 100, add 500 @ 110: 110 * 1500 / (1500 + 100)
	next, err := NextAveragePrice(
		fixed.Dollars(1000),
		fixed.Dollars(500),
		fixed.NewPrice(110),
		fixed.Profit(fixed.Dollars(100)),
		true,
	)
	require.NoError(err)
	require.Equal("103.125", next.String())

	_, err = NextAveragePrice(
		fixed.Dollars(10),
		fixed.Dollars(0),
		fixed.NewPrice(1),
		fixed.Loss(fixed.Dollars(10)),
		true,
	)
	require.ErrorIs(err, ErrInvalidDivisor)
}
