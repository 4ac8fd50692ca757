// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/perps/vms/perpvm/auth"
	"github.com/luxfi/perps/vms/perpvm/config"
	"github.com/luxfi/perps/vms/perpvm/events"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/referral"
	"github.com/luxfi/perps/vms/perpvm/state"
	"github.com/luxfi/perps/vms/perpvm/vault"
)

func TestLiquidityLifecycle(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, testConfig())
	minted, err := env.ledger.AddLiquidity(actingAs(env.lp), AddLiquidityRequest{
		Account: env.lp,
		Pool:    mainPool,
		Token:   usdc,
		Amount:  usdcTokens(1_000),
	})
	require.NoError(err)
	require.Equal("1000", minted.String())

	share, err := env.ledger.Claim(state.LiquidityClaim, env.lp, mainPool, usdc)
	require.NoError(err)
	require.Equal("1000", share.String())

	_, err = env.ledger.RemoveLiquidity(actingAs(env.lp), RemoveLiquidityRequest{
		Account:   env.lp,
		Pool:      mainPool,
		Token:     usdc,
		Synthetic: fixed.Dollars(1_500),
	})
	require.ErrorIs(err, ErrInsufficientFunds)

	out, err := env.ledger.RemoveLiquidity(actingAs(env.lp), RemoveLiquidityRequest{
		Account:   env.lp,
		Pool:      mainPool,
		Token:     usdc,
		Synthetic: fixed.Dollars(400),
	})
	require.NoError(err)
	require.Equal("400", out.String())
	require.Equal([]sent{{asset: usdc, receiver: env.lp, amount: "400"}}, env.sent)

	share, err = env.ledger.Claim(state.LiquidityClaim, env.lp, mainPool, usdc)
	require.NoError(err)
	require.Equal("600", share.String())
	p := env.pool(t, usdc)
	require.Equal("600", p.PoolAmount.String())
	require.Equal("600", p.SyntheticSupply.String())
	require.Len(env.recorder.OfType(events.LiquidityType), 2)
}

func TestRemoveLiquidityKeepsReserves(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, testConfig())
	env.seed(t, 600)
	trader := ids.GenerateTestShortID()
	env.open(t, trader, 500, 15)

	_, err := env.ledger.RemoveLiquidity(actingAs(env.lp), RemoveLiquidityRequest{
		Account:   env.lp,
		Pool:      mainPool,
		Token:     usdc,
		Synthetic: fixed.Dollars(200),
	})
	require.ErrorIs(err, vault.ErrInsufficientLiquidity)

	out, err := env.ledger.RemoveLiquidity(actingAs(env.lp), RemoveLiquidityRequest{
		Account:   env.lp,
		Pool:      mainPool,
		Token:     usdc,
		Synthetic: fixed.Dollars(100),
	})
	require.NoError(err)
	require.Equal("100", out.String())
}

func TestLiquidityValidation(t *testing.T) {
	tests := []struct {
		name        string
		caller      func(lp ids.ShortID) ids.ShortID
		token       ids.ID
		amount      fixed.Amount
		expectedErr error
	}{
		{
			name:        "unauthorized",
			caller:      func(ids.ShortID) ids.ShortID { return ids.GenerateTestShortID() },
			token:       usdc,
			amount:      usdcTokens(1),
			expectedErr: ErrUnauthorized,
		},
		{
			name:        "token not in pool",
			token:       config.AssetID("BTC"),
			amount:      fixed.Tokens(1, 8),
			expectedErr: ErrUnknownInstrument,
		},
		{
			name:        "zero amount",
			token:       usdc,
			amount:      usdcTokens(0),
			expectedErr: ErrInvalidRequest,
		},
		{
			name:        "decimals mismatch",
			token:       usdc,
			amount:      fixed.Tokens(1, 6),
			expectedErr: ErrInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, testConfig())
			caller := env.lp
			if tt.caller != nil {
				caller = tt.caller(env.lp)
			}
			_, err := env.ledger.AddLiquidity(actingAs(caller), AddLiquidityRequest{
				Account: env.lp,
				Pool:    mainPool,
				Token:   tt.token,
				Amount:  tt.amount,
			})
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestWithdrawFees(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, testConfig())
	env.seed(t, 10_000)
	env.open(t, ids.GenerateTestShortID(), 1_000, 15)

	treasury := ids.GenerateTestShortID()
	_, err := env.ledger.WithdrawFees(actingAs(treasury), mainPool, usdc, treasury)
	require.ErrorIs(err, ErrUnauthorized)

	ctx := auth.WithCapabilities(context.Background(), auth.Capabilities{
		Caller:  treasury,
		Manager: true,
	})
	out, err := env.ledger.WithdrawFees(ctx, mainPool, usdc, treasury)
	require.NoError(err)
	require.Equal("1", out.String())
	require.Equal([]sent{{asset: usdc, receiver: treasury, amount: "1"}}, env.sent)
	require.True(env.pool(t, usdc).FeeReserves.IsZero())

	out, err = env.ledger.WithdrawFees(ctx, mainPool, usdc, treasury)
	require.NoError(err)
	require.True(out.IsZero())
	require.Len(env.sent, 1)
}

func TestWithdrawFeesDefaultsToCaller(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, testConfig())
	env.seed(t, 10_000)
	env.open(t, ids.GenerateTestShortID(), 1_000, 15)

	treasury := ids.GenerateTestShortID()
	ctx := auth.WithCapabilities(context.Background(), auth.Capabilities{
		Caller:  treasury,
		Manager: true,
	})
	out, err := env.ledger.WithdrawFees(ctx, mainPool, usdc, ids.ShortEmpty)
	require.NoError(err)
	require.Equal("1", out.String())
	require.Equal([]sent{{asset: usdc, receiver: treasury, amount: "1"}}, env.sent)
}

func TestReferralRebates(t *testing.T) {
	require := require.New(t)

	referrals := referral.New(nil)
	env := newTestEnv(t, testConfig(), func(c *Collaborators) {
		c.Referrals = referrals
	})
	env.seed(t, 10_000)

	owner, trader := ids.GenerateTestShortID(), ids.GenerateTestShortID()
	require.NoError(referrals.CreateCode(owner, "LUX"))
	require.NoError(referrals.UseCode(trader, "LUX"))

	// 1 fee - 5% discount = 0.95 charged, 5% of which is rebated.
	env.open(t, trader, 1_000, 15)
	pos, err := env.ledger.Position(longETH(trader).PositionID())
	require.NoError(err)
	require.Equal("14.05", pos.Collateral.String())

	p := env.pool(t, usdc)
	require.Equal("0.9025", p.FeeReserves.String())
	require.Equal("0.0475", p.ClaimableRebates.String())

	owed, err := env.ledger.Claim(state.ReferralClaim, owner, mainPool, usdc)
	require.NoError(err)
	require.Equal("0.0475", owed.String())

	_, err = env.ledger.ClaimReferral(actingAs(trader), owner, mainPool, usdc, trader)
	require.ErrorIs(err, ErrUnauthorized)

	out, err := env.ledger.ClaimReferral(actingAs(owner), owner, mainPool, usdc, ids.ShortEmpty)
	require.NoError(err)
	require.Equal("0.0475", out.String())
	require.Equal([]sent{{asset: usdc, receiver: owner, amount: "0.0475"}}, env.sent)

	owed, err = env.ledger.Claim(state.ReferralClaim, owner, mainPool, usdc)
	require.NoError(err)
	require.True(owed.IsZero())
	require.True(env.pool(t, usdc).ClaimableRebates.IsZero())
	require.Len(env.recorder.OfType(events.ClaimRebateType), 1)

	r, ok := referrals.Referrer(owner)
	require.True(ok)
	require.Equal(uint32(1), r.Referrals)
}

func TestClaimRebatesWithNothingOwed(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, testConfig())
	trader := ids.GenerateTestShortID()
	out, err := env.ledger.ClaimRebates(actingAs(trader), trader, mainPool, usdc, ids.ShortEmpty)
	require.NoError(err)
	require.True(out.IsZero())
	require.Empty(env.sent)
	require.Empty(env.recorder.OfType(events.ClaimRebateType))
}
