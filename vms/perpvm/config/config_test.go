// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/perps/vms/perpvm/fixed"
)

func TestParseDefaults(t *testing.T) {
	require := require.New(t)

	cfg, err := Parse(nil)
	require.NoError(err)
	require.Equal(DefaultConfig(), cfg)
}

func TestParseOverlay(t *testing.T) {
	require := require.New(t)

	cfg, err := Parse([]byte(`{
		"marginFeeBps": 30,
		"liquidationFeeUsd": "2.5",
		"tokens": [
			{"symbol": "ETH", "decimals": 18, "shortable": true, "fundingRateFactor": "0.0001", "minProfitBps": 150, "minProfitTime": 3600000000000},
			{"symbol": "USDC", "decimals": 6, "stable": true}
		],
		"pools": [{"name": "main", "tokens": ["ETH", "USDC"]}]
	}`))
	require.NoError(err)
	require.Equal(fixed.BPS(30), cfg.MarginFeeBps)
	require.Equal("2.5", cfg.LiquidationFeeUSD.String())
	require.Equal(DefaultConfig().MaxLeverageBps, cfg.MaxLeverageBps)

	eth, ok := cfg.TokenBySymbol("ETH")
	require.True(ok)
	require.Equal("0.0001", eth.FundingRateFactor.String())
	require.Equal(time.Hour, eth.MinProfitTime)

	byID, ok := cfg.Token(AssetID("USDC"))
	require.True(ok)
	require.True(byID.Stable)

	require.True(cfg.PoolHolds(PoolID("main"), AssetID("ETH")))
	require.False(cfg.PoolHolds(PoolID("main"), AssetID("BTC")))
	require.False(cfg.PoolHolds(PoolID("other"), AssetID("ETH")))
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "default",
			mutate: func(*Config) {},
		},
		{
			name:    "leverage at 1x",
			mutate:  func(c *Config) { c.MaxLeverageBps = fixed.BPSDenominator },
			wantErr: ErrInvalidLeverage,
		},
		{
			name:    "fee at 100%",
			mutate:  func(c *Config) { c.MarginFeeBps = fixed.BPSDenominator },
			wantErr: ErrInvalidFee,
		},
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.FundingInterval = 0 },
			wantErr: ErrInvalidInterval,
		},
		{
			name: "duplicate token",
			mutate: func(c *Config) {
				c.Tokens = []Token{{Symbol: "ETH"}, {Symbol: "ETH"}}
			},
			wantErr: ErrDuplicateToken,
		},
		{
			name: "pool with unknown token",
			mutate: func(c *Config) {
				c.Pools = []Pool{{Name: "main", Tokens: []string{"BTC"}}}
			},
			wantErr: ErrUnknownToken,
		},
		{
			name: "inverted session",
			mutate: func(c *Config) {
				c.Tokens = []Token{{Symbol: "AAPL"}}
				c.Sessions = []Session{{Token: "AAPL", OpenMinute: 600, CloseMinute: 570}}
			},
			wantErr: ErrInvalidSession,
		},
		{
			name:    "spread at 100%",
			mutate:  func(c *Config) { c.Oracle.SpreadBps = fixed.BPSDenominator },
			wantErr: ErrInvalidOracleSpread,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Verify(), tt.wantErr)
		})
	}
}

func TestDerivedIDsAreDistinct(t *testing.T) {
	require := require.New(t)

	require.NotEqual(AssetID("ETH"), PoolID("ETH"))
	require.Equal(AssetID("ETH"), Token{Symbol: "ETH"}.ID())
	require.Equal(PoolID("main"), Pool{Name: "main"}.ID())
}
