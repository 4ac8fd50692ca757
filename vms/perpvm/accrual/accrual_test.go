// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accrual

import (
	"testing"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/perps/vms/perpvm/config"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/state"
	"github.com/luxfi/perps/vms/perpvm/vault"
)

func mustIndex(t *testing.T, s string) fixed.Index {
	x, err := fixed.ParseIndex(s)
	require.NoError(t, err)
	return x
}

func TestFundingIncrement(t *testing.T) {
	tests := []struct {
		name     string
		reserved uint64
		pool     uint64
		elapsed  uint64
		want     string
	}{
		{name: "half utilized one interval", reserved: 50, pool: 100, elapsed: 3600, want: "0.00005"},
		{name: "fully utilized two intervals", reserved: 100, pool: 100, elapsed: 7200, want: "0.0002"},
		{name: "partial interval", reserved: 100, pool: 100, elapsed: 900, want: "0.000025"},
		{name: "nothing reserved", reserved: 0, pool: 100, elapsed: 3600, want: "0"},
		{name: "empty pool", reserved: 0, pool: 0, elapsed: 3600, want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			got, err := FundingIncrement(
				mustIndex(t, "0.0001"),
				fixed.Tokens(tt.reserved, 6),
				fixed.Tokens(tt.pool, 6),
				tt.elapsed,
				3600,
			)
			require.NoError(err)
			require.Equal(tt.want, got.String())
		})
	}
}

func TestSkewIncrement(t *testing.T) {
	tests := []struct {
		name      string
		long      uint64
		short     uint64
		wantLong  string
		wantShort string
	}{
		{name: "long heavy", long: 3000, short: 1000, wantLong: "0.001", wantShort: "0"},
		{name: "short heavy", long: 1000, short: 3000, wantLong: "0", wantShort: "0.001"},
		{name: "balanced", long: 2000, short: 2000, wantLong: "0", wantShort: "0"},
		{name: "one sided", long: 0, short: 500, wantLong: "0", wantShort: "0.002"},
		{name: "no interest", long: 0, short: 0, wantLong: "0", wantShort: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			longInc, shortInc, err := SkewIncrement(
				mustIndex(t, "0.001"),
				fixed.Dollars(tt.long),
				fixed.Dollars(tt.short),
				7200,
				3600,
			)
			require.NoError(err)
			require.Equal(tt.wantLong, longInc.String())
			require.Equal(tt.wantShort, shortInc.String())
		})
	}
}

func TestAdvance(t *testing.T) {
	require := require.New(t)

	cfg := config.DefaultConfig()
	cfg.Tokens = []config.Token{
		{Symbol: "USDC", Decimals: 6, Stable: true, FundingRateFactor: mustIndex(t, "0.0001")},
		{Symbol: "ETH", Decimals: 18, Shortable: true, SkewRateFactor: mustIndex(t, "0.001")},
	}
	var (
		poolID = config.PoolID("main")
		usdc   = config.AssetID("USDC")
		eth    = config.AssetID("ETH")
	)

	s := state.New(memdb.New())
	usdcPool := state.NewPool(poolID, usdc, 6)
	usdcPool.PoolAmount = fixed.Tokens(100, 6)
	usdcPool.ReservedAmount = fixed.Tokens(100, 6)
	ethPool := state.NewPool(poolID, eth, 18)
	ethPool.GlobalShortSize = fixed.Dollars(500)
	require.NoError(s.PutPool(&usdcPool))
	require.NoError(s.PutPool(&ethPool))

	x := New(&cfg, log.NoLog{})
	a := vault.New(s, log.NoLog{})

	// first touch only records the time
	require.NoError(x.Advance(a, poolID, usdc, eth, 1_000))
	coll, err := a.Pool(poolID, usdc)
	require.NoError(err)
	idx, err := a.Pool(poolID, eth)
	require.NoError(err)
	require.True(coll.FundingIndex.IsZero())
	require.Equal(uint64(1_000), coll.LastFundingTime)
	require.Equal(uint64(1_000), idx.LastSkewTime)

	require.NoError(x.Advance(a, poolID, usdc, eth, 1_000+3_600))
	require.Equal("0.0001", coll.FundingIndex.String())
	require.Equal("0.001", idx.ShortSkewIndex.String())
	require.True(idx.LongSkewIndex.IsZero())

	// same timestamp is idempotent
	require.NoError(x.Advance(a, poolID, usdc, eth, 1_000+3_600))
	require.Equal("0.0001", coll.FundingIndex.String())

	// a clock behind the last update changes nothing
	require.NoError(x.Advance(a, poolID, usdc, eth, 10))
	require.Equal("0.0001", coll.FundingIndex.String())
	require.Equal(uint64(1_000+3_600), coll.LastFundingTime)
}

func TestAdvanceUnknownToken(t *testing.T) {
	require := require.New(t)

	cfg := config.DefaultConfig()
	poolID := config.PoolID("main")
	token := config.AssetID("DOGE")

	s := state.New(memdb.New())
	p := state.NewPool(poolID, token, 8)
	p.LastFundingTime = 1
	require.NoError(s.PutPool(&p))

	x := New(&cfg, log.NoLog{})
	err := x.Advance(vault.New(s, log.NoLog{}), poolID, token, token, 100)
	require.ErrorIs(err, ErrUnknownToken)
}
