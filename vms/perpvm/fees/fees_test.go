// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fees

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/state"
)

type staticReferrals map[ids.ShortID]ids.ShortID

func (r staticReferrals) Discount(account ids.ShortID) (fixed.BPS, fixed.BPS, ids.ShortID, bool) {
	referrer, ok := r[account]
	return 1_000, 2_000, referrer, ok
}

func mustIndex(t *testing.T, s string) fixed.Index {
	x, err := fixed.ParseIndex(s)
	require.NoError(t, err)
	return x
}

func TestMarginFee(t *testing.T) {
	require := require.New(t)

	e := New(10, nil)
	m, err := e.MarginFee(
		ids.GenerateTestShortID(),
		fixed.Dollars(2_000),
		fixed.Dollars(1_000),
		mustIndex(t, "0.001"),
		mustIndex(t, "0.002"),
	)
	require.NoError(err)
	require.Equal(fixed.Dollars(1), m.Position)
	require.Equal(fixed.Dollars(2), m.Funding)
	require.Equal(fixed.Dollars(3), m.Charged)
	require.True(m.Discount.IsZero())
	require.True(m.Rebate.IsZero())
}

func TestMarginFeeWithReferral(t *testing.T) {
	require := require.New(t)

	var (
		trader   = ids.GenerateTestShortID()
		referrer = ids.GenerateTestShortID()
		e        = New(100, staticReferrals{trader: referrer})
	)

	// $10 fee, 10% discount, 20% of the charged $9 to the referrer
	m, err := e.MarginFee(trader, fixed.USD{}, fixed.Dollars(1_000), fixed.Index{}, fixed.Index{})
	require.NoError(err)
	require.Equal(fixed.Dollars(1), m.Discount)
	require.Equal(fixed.Dollars(9), m.Charged)
	require.Equal("1.8", m.Rebate.String())
	require.Equal(referrer, m.Referrer)

	// accounts without a referrer pay the full fee
	m, err = e.MarginFee(ids.GenerateTestShortID(), fixed.USD{}, fixed.Dollars(1_000), fixed.Index{}, fixed.Index{})
	require.NoError(err)
	require.Equal(fixed.Dollars(10), m.Charged)
}

func TestMarginFeeIndexBehindEntry(t *testing.T) {
	e := New(10, nil)
	_, err := e.MarginFee(ids.GenerateTestShortID(), fixed.Dollars(1), fixed.USD{}, mustIndex(t, "0.2"), mustIndex(t, "0.1"))
	require.ErrorIs(t, err, fixed.ErrUnderflow)
}

func TestSkewFee(t *testing.T) {
	tests := []struct {
		name   string
		isLong bool
		long   uint64
		short  uint64
		want   Skew
	}{
		{
			name:   "long on majority pays long accrual",
			isLong: true, long: 3_000, short: 1_000,
			want: Skew{USD: fixed.Dollars(30)},
		},
		{
			name:   "short on minority earns long accrual",
			isLong: false, long: 3_000, short: 1_000,
			want: Skew{Rebate: true, USD: fixed.Dollars(30)},
		},
		{
			name:   "long on minority earns short accrual",
			isLong: true, long: 1_000, short: 3_000,
			want: Skew{Rebate: true, USD: fixed.Dollars(10)},
		},
		{
			name:   "balanced short pays short accrual",
			isLong: false, long: 2_000, short: 2_000,
			want: Skew{USD: fixed.Dollars(10)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			pos := state.NewPosition(state.PositionID{IsLong: tt.isLong}, 6)
			pos.Size = fixed.Dollars(1_000)
			pos.EntryLongSkewIndex = mustIndex(t, "0.01")
			pos.EntryShortSkewIndex = mustIndex(t, "0.02")

			idx := state.NewPool(ids.Empty, ids.Empty, 18)
			idx.LongSkewIndex = mustIndex(t, "0.04")
			idx.ShortSkewIndex = mustIndex(t, "0.03")
			idx.GlobalLongSize = fixed.Dollars(tt.long)
			idx.GlobalShortSize = fixed.Dollars(tt.short)

			got, err := SkewFee(&pos, &idx)
			require.NoError(err)
			require.Equal(tt.want, got)
			if got.Rebate {
				require.True(got.Charge().IsZero())
			} else {
				require.Equal(got.USD, got.Charge())
			}
		})
	}
}

func TestSkewFeeEmptyPosition(t *testing.T) {
	require := require.New(t)

	pos := state.Position{}
	idx := state.NewPool(ids.Empty, ids.Empty, 18)
	got, err := SkewFee(&pos, &idx)
	require.NoError(err)
	require.Equal(Skew{}, got)
}
