// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/perps/vms/perpvm/config"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/liquidation"
	"github.com/luxfi/perps/vms/perpvm/state"
)

type fakeReader struct {
	positions map[state.PositionID]state.Position
	pools     map[[2]ids.ID]state.Pool
	claims    map[state.ClaimKind]fixed.Amount
	verdict   liquidation.Result
}

func (f *fakeReader) Position(id state.PositionID) (state.Position, error) {
	p, ok := f.positions[id]
	if !ok {
		return state.Position{}, errNotFound
	}
	return p, nil
}

func (f *fakeReader) AccountPositions(account ids.ShortID) ([]state.Position, error) {
	var positions []state.Position
	for id, p := range f.positions {
		if id.Account == account {
			positions = append(positions, p)
		}
	}
	return positions, nil
}

func (f *fakeReader) Pool(pool, token ids.ID) (state.Pool, error) {
	p, ok := f.pools[[2]ids.ID{pool, token}]
	if !ok {
		return state.Pool{}, state.ErrPoolNotFound
	}
	return p, nil
}

func (f *fakeReader) Claim(kind state.ClaimKind, _ ids.ShortID, _, _ ids.ID) (fixed.Amount, error) {
	return f.claims[kind], nil
}

func (f *fakeReader) LiquidationState(id state.PositionID) (liquidation.Result, error) {
	if _, ok := f.positions[id]; !ok {
		return liquidation.Result{}, errNotFound
	}
	return f.verdict, nil
}

var errNotFound = errors.New("not found")

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Tokens = []config.Token{
		{Symbol: "USDC", Decimals: 6, Stable: true},
		{Symbol: "ETH", Decimals: 18, Shortable: true},
	}
	cfg.Pools = []config.Pool{
		{Name: "main", Tokens: []string{"USDC", "ETH"}},
	}
	return &cfg
}

func call(t *testing.T, h http.Handler, method string, args, reply any) error {
	body, err := json2.EncodeClientRequest(ServiceName+"."+method, args)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return json2.DecodeClientResponse(rec.Body, reply)
}

func newTestHandler(t *testing.T, reader Reader) http.Handler {
	h, err := NewHandler(NewService(testConfig(), reader, &sync.Mutex{}, log.NoLog{}))
	require.NoError(t, err)
	return h
}

func TestGetPosition(t *testing.T) {
	require := require.New(t)

	account := ids.GenerateTestShortID()
	id := state.PositionID{
		Account:    account,
		Pool:       config.PoolID("main"),
		Collateral: config.AssetID("USDC"),
		Index:      config.AssetID("ETH"),
		IsLong:     true,
	}
	pos := state.NewPosition(id, 6)
	pos.Size = fixed.Dollars(1_000)
	pos.Collateral = fixed.Dollars(14)
	pos.CollateralAmount = fixed.Tokens(14, 6)
	pos.AveragePrice = fixed.NewPrice(100)
	pos.RealizedPnL = fixed.Loss(fixed.Dollars(3))

	h := newTestHandler(t, &fakeReader{
		positions: map[state.PositionID]state.Position{id: pos},
	})

	args := &PositionArgs{
		Account:    account,
		Pool:       "main",
		Collateral: "USDC",
		Index:      "ETH",
		IsLong:     true,
	}
	var reply struct {
		Size             string `json:"size"`
		Collateral       string `json:"collateral"`
		CollateralAmount string `json:"collateralAmount"`
		AveragePrice     string `json:"averagePrice"`
		RealizedPnL      string `json:"realizedPnl"`
	}
	require.NoError(call(t, h, "GetPosition", args, &reply))
	require.Equal("1000", reply.Size)
	require.Equal("14", reply.Collateral)
	require.Equal("14", reply.CollateralAmount)
	require.Equal("100", reply.AveragePrice)
	require.Equal("-3", reply.RealizedPnL)

	var positions struct {
		Positions []struct {
			Size string `json:"size"`
		} `json:"positions"`
	}
	require.NoError(call(t, h, "GetAccountPositions", &AccountArgs{Account: account}, &positions))
	require.Len(positions.Positions, 1)
	require.Equal("1000", positions.Positions[0].Size)

	args.IsLong = false
	require.Error(call(t, h, "GetPosition", args, &reply))
}

func TestUnknownSymbols(t *testing.T) {
	tests := []struct {
		name   string
		method string
		args   any
	}{
		{
			name:   "unknown pool",
			method: "GetPool",
			args:   &PoolArgs{Pool: "other", Token: "USDC"},
		},
		{
			name:   "unknown token",
			method: "GetPool",
			args:   &PoolArgs{Pool: "main", Token: "BTC"},
		},
		{
			name:   "unknown index",
			method: "GetLiquidationState",
			args:   &PositionArgs{Pool: "main", Collateral: "USDC", Index: "BTC"},
		},
		{
			name:   "unknown claim kind",
			method: "GetClaim",
			args:   &ClaimArgs{Kind: "bonus", Pool: "main", Token: "USDC"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &fakeReader{})
			var reply map[string]any
			require.Error(t, call(t, h, tt.method, tt.args, &reply))
		})
	}
}

func TestGetPool(t *testing.T) {
	require := require.New(t)

	pool, token := config.PoolID("main"), config.AssetID("USDC")
	agg := state.NewPool(pool, token, 6)
	agg.PoolAmount = fixed.Tokens(10_000, 6)
	agg.GuaranteedUSD = fixed.Dollars(986)

	h := newTestHandler(t, &fakeReader{
		pools: map[[2]ids.ID]state.Pool{{pool, token}: agg},
	})
	var reply struct {
		PoolAmount    string `json:"poolAmount"`
		GuaranteedUSD string `json:"guaranteedUsd"`
		FeeReserves   string `json:"feeReserves"`
	}
	require.NoError(call(t, h, "GetPool", &PoolArgs{Pool: "main", Token: "USDC"}, &reply))
	require.Equal("10000", reply.PoolAmount)
	require.Equal("986", reply.GuaranteedUSD)
	require.Equal("0", reply.FeeReserves)
}

func TestGetLiquidationStateAndClaim(t *testing.T) {
	require := require.New(t)

	account := ids.GenerateTestShortID()
	id := state.PositionID{
		Account:    account,
		Pool:       config.PoolID("main"),
		Collateral: config.AssetID("USDC"),
		Index:      config.AssetID("ETH"),
		IsLong:     true,
	}
	h := newTestHandler(t, &fakeReader{
		positions: map[state.PositionID]state.Position{id: state.NewPosition(id, 6)},
		claims: map[state.ClaimKind]fixed.Amount{
			state.ReferralClaim: fixed.Tokens(2, 6),
		},
		verdict: liquidation.Result{
			Verdict:   liquidation.Liquidatable,
			PnL:       fixed.Loss(fixed.Dollars(96)),
			Remaining: fixed.Loss(fixed.Dollars(1)),
		},
	})

	var liq LiquidationStateReply
	require.NoError(call(t, h, "GetLiquidationState", &PositionArgs{
		Account:    account,
		Pool:       "main",
		Collateral: "USDC",
		Index:      "ETH",
		IsLong:     true,
	}, &liq))
	require.Equal(LiquidationStateReply{
		Verdict:   "liquidatable",
		PnL:       "-96",
		Remaining: "-1",
	}, liq)

	var claim struct {
		Amount string `json:"amount"`
	}
	require.NoError(call(t, h, "GetClaim", &ClaimArgs{
		Kind:    "referral",
		Account: account,
		Pool:    "main",
		Token:   "USDC",
	}, &claim))
	require.Equal("2", claim.Amount)
}
