// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/perps/vms/perpvm/auth"
	"github.com/luxfi/perps/vms/perpvm/events"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/state"
)

// ClaimRebates pays out the skew rebates account has earned in token.
func (l *Ledger) ClaimRebates(ctx context.Context, account ids.ShortID, pool, token ids.ID, receiver ids.ShortID) (fixed.Amount, error) {
	return l.claim(ctx, state.SkewRebateClaim, account, pool, token, receiver)
}

// ClaimReferral pays out the referral rebates owed to referrer in token.
func (l *Ledger) ClaimReferral(ctx context.Context, referrer ids.ShortID, pool, token ids.ID, receiver ids.ShortID) (fixed.Amount, error) {
	return l.claim(ctx, state.ReferralClaim, referrer, pool, token, receiver)
}

func (l *Ledger) claim(ctx context.Context, kind state.ClaimKind, account ids.ShortID, pool, token ids.ID, receiver ids.ShortID) (fixed.Amount, error) {
	if _, err := l.validateLiquidity(ctx, account, pool, token); err != nil {
		return fixed.Amount{}, err
	}
	if receiver == ids.ShortEmpty {
		receiver = account
	}

	var amount fixed.Amount
	err := l.transition(ctx, opClaim, func(t *tx) error {
		agg, err := t.vault.Pool(pool, token)
		if err != nil {
			return err
		}
		if amount, err = t.state.GetClaim(kind, account, pool, token, agg.Decimals()); err != nil {
			return err
		}
		if amount.IsZero() {
			return nil
		}
		if err := t.vault.DecreaseClaimableRebates(pool, token, amount); err != nil {
			return err
		}
		if err := t.state.PutClaim(kind, account, pool, token, fixed.ZeroAmount(agg.Decimals())); err != nil {
			return err
		}
		t.transferOut(token, receiver, amount)
		t.emit(events.ClaimRebate{
			Base:    events.Base{Timestamp: t.now},
			Kind:    kind,
			Account: account,
			Pool:    pool,
			Token:   token,
			Amount:  amount,
		})
		return nil
	})
	if err != nil {
		return fixed.Amount{}, err
	}
	return amount, nil
}

// WithdrawFees pays the fee reserves of token to receiver, or to the caller
// when receiver is empty. The caller must hold the manager capability.
func (l *Ledger) WithdrawFees(ctx context.Context, pool, token ids.ID, receiver ids.ShortID) (fixed.Amount, error) {
	caps := auth.FromContext(ctx)
	if !caps.Manager {
		return fixed.Amount{}, fmt.Errorf("%w: %s is not a manager", ErrUnauthorized, caps.Caller)
	}
	if !l.cfg.PoolHolds(pool, token) {
		return fixed.Amount{}, fmt.Errorf("%w: pool %s does not hold %s", ErrUnknownInstrument, pool, token)
	}
	if receiver == ids.ShortEmpty {
		receiver = caps.Caller
	}

	var amount fixed.Amount
	err := l.transition(ctx, opWithdrawFees, func(t *tx) error {
		agg, err := t.vault.Pool(pool, token)
		if err != nil {
			return err
		}
		amount = agg.FeeReserves
		if amount.IsZero() {
			return nil
		}
		if err := t.vault.DecreaseFeeReserves(pool, token, amount); err != nil {
			return err
		}
		t.transferOut(token, receiver, amount)
		return nil
	})
	if err != nil {
		return fixed.Amount{}, err
	}
	return amount, nil
}
