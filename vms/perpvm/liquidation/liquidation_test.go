// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package liquidation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/pnl"
	"github.com/luxfi/perps/vms/perpvm/state"
)

func mustPrice(t *testing.T, s string) fixed.Price {
	p, err := fixed.ParsePrice(s)
	require.NoError(t, err)
	return p
}

func newPosition(isLong bool) *state.Position {
	pos := state.NewPosition(state.PositionID{IsLong: isLong}, 18)
	pos.Size = fixed.Dollars(1_000)
	pos.Collateral = fixed.Dollars(100)
	pos.AveragePrice = fixed.NewPrice(100)
	return &pos
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name          string
		isLong        bool
		mark          string
		want          Verdict
		wantRemaining string
	}{
		{
			name:   "loss exceeds collateral net of fees",
			isLong: true, mark: "90.4",
			want: Liquidatable, wantRemaining: "-1",
		},
		{
			name:   "remaining exactly zero",
			isLong: true, mark: "90.5",
			want: Liquidatable, wantRemaining: "0",
		},
		{
			name:   "solvent but over max leverage",
			isLong: true, mark: "95",
			want: LiquidatableSoft, wantRemaining: "45",
		},
		{
			name:   "healthy",
			isLong: true, mark: "100",
			want: NotLiquidatable, wantRemaining: "95",
		},
		{
			name:   "short in loss",
			isLong: false, mark: "109.6",
			want: Liquidatable, wantRemaining: "-1",
		},
		{
			name:   "short in profit",
			isLong: false, mark: "90",
			want: NotLiquidatable, wantRemaining: "195",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			res, err := Evaluate(newPosition(tt.isLong), Input{
				Mark:           mustPrice(t, tt.mark),
				AccruedFee:     fixed.Dollars(5),
				MaxLeverageBps: 200_000,
			})
			require.NoError(err)
			require.Equal(tt.want, res.Verdict)
			require.Equal(tt.wantRemaining, res.Remaining.String())
		})
	}
}

func TestEvaluateMonotonic(t *testing.T) {
	for _, isLong := range []bool{true, false} {
		pos := newPosition(isLong)
		prev := Verdict(0)
		for i := 0; i <= 40; i++ {
			// walk the mark from best to worst for the position
			mark := fixed.NewPrice(uint64(120 - i))
			if !isLong {
				mark = fixed.NewPrice(uint64(80 + i))
			}
			res, err := Evaluate(pos, Input{
				Mark:           mark,
				AccruedFee:     fixed.Dollars(5),
				MaxLeverageBps: 200_000,
			})
			require.NoError(t, err)
			require.GreaterOrEqual(t, severity(res.Verdict), severity(prev), "mark %s", mark)
			prev = res.Verdict
		}
		require.Equal(t, Liquidatable, prev)
	}
}

func severity(v Verdict) int {
	switch v {
	case LiquidatableSoft:
		return 1
	case Liquidatable:
		return 2
	default:
		return 0
	}
}

func TestEvaluateMinProfit(t *testing.T) {
	require := require.New(t)

	pos := newPosition(true)
	pos.LastIncreaseTime = 1_000
	in := Input{
		Mark:           mustPrice(t, "100.5"),
		MaxLeverageBps: 500_000,
		MinProfit:      pnl.MinProfit{Bps: 100, Window: 300},
		Now:            1_100,
	}

	// $5 profit is under 1% of size inside the window
	res, err := Evaluate(pos, in)
	require.NoError(err)
	require.Equal("100", res.Remaining.String())

	in.Now = 1_301
	res, err = Evaluate(pos, in)
	require.NoError(err)
	require.Equal("105", res.Remaining.String())
}

func TestEvaluateEmpty(t *testing.T) {
	require := require.New(t)

	pos := state.Position{}
	res, err := Evaluate(&pos, Input{})
	require.NoError(err)
	require.Equal(NotLiquidatable, res.Verdict)
}

func TestExceedsLeverage(t *testing.T) {
	require := require.New(t)

	over, err := ExceedsLeverage(fixed.Dollars(1_000), fixed.Dollars(50), 200_000)
	require.NoError(err)
	require.False(over)

	over, err = ExceedsLeverage(fixed.Dollars(1_001), fixed.Dollars(50), 200_000)
	require.NoError(err)
	require.True(over)
}
