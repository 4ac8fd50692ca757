// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/perps/vms/perpvm/auth"
	"github.com/luxfi/perps/vms/perpvm/config"
	"github.com/luxfi/perps/vms/perpvm/events"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/state"
)

func (l *Ledger) validateLiquidity(ctx context.Context, account ids.ShortID, pool, token ids.ID) (config.Token, error) {
	caps := auth.FromContext(ctx)
	if !caps.CanActFor(account) {
		return config.Token{}, fmt.Errorf("%w: %s may not act for %s", ErrUnauthorized, caps.Caller, account)
	}
	if !l.cfg.PoolHolds(pool, token) {
		return config.Token{}, fmt.Errorf("%w: pool %s does not hold %s", ErrUnknownInstrument, pool, token)
	}
	t, ok := l.cfg.Token(token)
	if !ok {
		return config.Token{}, fmt.Errorf("%w: %s", ErrUnknownInstrument, token)
	}
	return t, nil
}

// AddLiquidity deposits req.Amount, already received by custody, into the
// pool and mints synthetic supply worth it at the min price. It returns the
// supply minted.
func (l *Ledger) AddLiquidity(ctx context.Context, req AddLiquidityRequest) (fixed.USD, error) {
	token, err := l.validateLiquidity(ctx, req.Account, req.Pool, req.Token)
	if err != nil {
		return fixed.USD{}, err
	}
	if req.Amount.Decimals() != token.Decimals || req.Amount.IsZero() {
		return fixed.USD{}, fmt.Errorf("%w: amount %s", ErrInvalidRequest, req.Amount)
	}

	var minted fixed.USD
	err = l.transition(ctx, opAddLiquidity, func(t *tx) error {
		price, err := t.oracle.MinPrice(req.Token)
		if err != nil {
			return err
		}
		if minted, err = fixed.ToUSD(req.Amount, price); err != nil {
			return err
		}
		if err := t.vault.IncreasePoolAmount(req.Pool, req.Token, req.Amount); err != nil {
			return err
		}
		if err := t.vault.IncreaseSyntheticSupply(req.Pool, req.Token, minted); err != nil {
			return err
		}
		if err := t.credit(state.LiquidityClaim, req.Account, req.Pool, req.Token, usdAmount(minted)); err != nil {
			return err
		}
		t.log.Debug("added liquidity",
			log.Stringer("account", req.Account),
			log.Stringer("token", req.Token),
			log.Stringer("amount", req.Amount),
			log.Stringer("minted", minted),
		)
		t.emit(events.Liquidity{
			Base:      events.Base{Timestamp: t.now},
			Account:   req.Account,
			Pool:      req.Pool,
			Token:     req.Token,
			Amount:    req.Amount,
			Synthetic: minted,
		})
		return nil
	})
	return minted, err
}

// RemoveLiquidity burns req.Synthetic of the account's supply and pays out
// its worth in tokens at the max price. Reserved liquidity cannot be
// withdrawn.
func (l *Ledger) RemoveLiquidity(ctx context.Context, req RemoveLiquidityRequest) (fixed.Amount, error) {
	token, err := l.validateLiquidity(ctx, req.Account, req.Pool, req.Token)
	if err != nil {
		return fixed.Amount{}, err
	}
	if req.Synthetic.IsZero() {
		return fixed.Amount{}, fmt.Errorf("%w: nothing to remove", ErrInvalidRequest)
	}
	receiver := req.Receiver
	if receiver == ids.ShortEmpty {
		receiver = req.Account
	}

	var amountOut fixed.Amount
	err = l.transition(ctx, opRemoveLiquidity, func(t *tx) error {
		held, err := t.state.GetClaim(state.LiquidityClaim, req.Account, req.Pool, req.Token, fixed.USDDecimals)
		if err != nil {
			return err
		}
		left, err := held.Sub(usdAmount(req.Synthetic))
		if err != nil {
			return fmt.Errorf("%w: holds %s, burning %s", ErrInsufficientFunds, held, req.Synthetic)
		}
		if amountOut, err = t.usdToTokens(req.Token, req.Synthetic, token.Decimals); err != nil {
			return err
		}
		if err := t.vault.CheckWithdraw(req.Pool, req.Token, amountOut); err != nil {
			return err
		}
		if err := t.vault.DecreasePoolAmount(req.Pool, req.Token, amountOut); err != nil {
			return err
		}
		if err := t.vault.DecreaseSyntheticSupply(req.Pool, req.Token, req.Synthetic); err != nil {
			return err
		}
		if err := t.state.PutClaim(state.LiquidityClaim, req.Account, req.Pool, req.Token, left); err != nil {
			return err
		}
		t.transferOut(req.Token, receiver, amountOut)
		t.emit(events.Liquidity{
			Base:      events.Base{Timestamp: t.now},
			Account:   req.Account,
			Pool:      req.Pool,
			Token:     req.Token,
			Withdraw:  true,
			Amount:    amountOut,
			Synthetic: req.Synthetic,
		})
		return nil
	})
	if err != nil {
		return fixed.Amount{}, err
	}
	return amountOut, nil
}

// usdAmount holds a USD value as an amount at USD precision.
func usdAmount(u fixed.USD) fixed.Amount {
	return fixed.NewAmount(u.Int(), fixed.USDDecimals)
}
