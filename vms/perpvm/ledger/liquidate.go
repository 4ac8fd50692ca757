// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/perps/vms/perpvm/auth"
	"github.com/luxfi/perps/vms/perpvm/events"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/liquidation"
	"github.com/luxfi/perps/vms/perpvm/state"
)

// Liquidate closes a position the evaluator marks as liquidatable. A soft
// verdict closes it like a full decrease paying the remainder to the
// account. A hard verdict seizes the collateral for the pool and pays the
// liquidation fee to req.FeeReceiver.
func (l *Ledger) Liquidate(ctx context.Context, req LiquidateRequest) error {
	caps := auth.FromContext(ctx)
	if l.cfg.PrivateLiquidation && !caps.Liquidator {
		return fmt.Errorf("%w: %s is not a liquidator", ErrUnauthorized, caps.Caller)
	}
	// Anyone may liquidate on behalf of the account.
	caps.Router = true
	collateral, err := l.validateInstrument(caps, req.Instrument)
	if err != nil {
		return err
	}
	feeReceiver := req.FeeReceiver
	if feeReceiver == ids.ShortEmpty {
		feeReceiver = caps.Caller
	}

	var verdict liquidation.Verdict
	err = l.transition(ctx, opLiquidate, func(t *tx) error {
		id := req.PositionID()
		if err := t.accrual.Advance(t.vault, id.Pool, id.Collateral, id.Index, t.now); err != nil {
			return err
		}
		pos, err := t.state.GetPosition(id)
		if err != nil {
			return err
		}
		if pos.IsZero() {
			return ErrEmptyPosition
		}
		res, err := t.evaluate(&pos)
		if err != nil {
			return err
		}
		verdict = res.Verdict
		mark, err := t.markPrice(id.Index, id.IsLong)
		if err != nil {
			return err
		}
		t.emit(events.LiquidatePosition{
			Base:        events.Base{Timestamp: t.now},
			Position:    id,
			Size:        pos.Size,
			Collateral:  pos.Collateral,
			Mark:        mark,
			Soft:        verdict == liquidation.LiquidatableSoft,
			FeeReceiver: feeReceiver,
		})

		switch verdict {
		case liquidation.NotLiquidatable:
			return fmt.Errorf("%w: remaining collateral %s", ErrNotLiquidatable, res.Remaining)
		case liquidation.LiquidatableSoft:
			_, err := t.decrease(&pos, pos.Size, fixed.USD{}, id.Account, collateral.Decimals)
			return err
		default:
			return t.seize(&pos, feeReceiver, collateral.Decimals)
		}
	})
	if err != nil {
		return err
	}
	l.metrics.Liquidation(verdict.String())
	return nil
}

// seize closes an insolvent position. The accrued fee is collected in full,
// any collateral left over goes to the pool, and the liquidation fee is paid
// out of the pool.
func (t *tx) seize(pos *state.Position, feeReceiver ids.ShortID, decimals uint8) error {
	id := pos.ID
	margin, skew, err := t.accruedFee(pos)
	if err != nil {
		return err
	}
	fee, err := margin.Charged.Add(skew.Charge())
	if err != nil {
		return err
	}
	feeTokens, err := t.collectFees(pos, fee, margin, decimals)
	if err != nil {
		return err
	}

	if err := t.vault.DecreaseReserved(id.Pool, id.Collateral, pos.ReserveAmount); err != nil {
		return err
	}
	if id.IsLong {
		if err := t.vault.DecreasePoolAmount(id.Pool, id.Collateral, feeTokens); err != nil {
			return err
		}
		guaranteed, err := pos.Size.Sub(pos.Collateral)
		if err != nil {
			return err
		}
		if err := t.vault.DecreaseGuaranteedUSD(id.Pool, id.Collateral, guaranteed); err != nil {
			return err
		}
		if err := t.vault.DecreaseGlobalLongSize(id.Pool, id.Index, pos.Size); err != nil {
			return err
		}
	} else {
		if fee.Lt(pos.Collateral) {
			remaining, err := pos.Collateral.Sub(fee)
			if err != nil {
				return err
			}
			tokens, err := t.usdToTokens(id.Collateral, remaining, decimals)
			if err != nil {
				return err
			}
			if err := t.vault.IncreasePoolAmount(id.Pool, id.Collateral, tokens); err != nil {
				return err
			}
		}
		if err := t.vault.DecreaseGlobalShortSize(id.Pool, id.Index, pos.Size); err != nil {
			return err
		}
		idx, err := t.vault.Pool(id.Pool, id.Index)
		if err != nil {
			return err
		}
		if idx.GlobalShortSize.IsZero() {
			if err := t.vault.SetGlobalShortAveragePrice(id.Pool, id.Index, fixed.Price{}); err != nil {
				return err
			}
		}
	}

	if err := t.state.DeletePosition(id); err != nil {
		return err
	}
	t.closed++

	liquidationFee, err := t.usdToTokens(id.Collateral, t.cfg.LiquidationFeeUSD, decimals)
	if err != nil {
		return err
	}
	if err := t.vault.DecreasePoolAmount(id.Pool, id.Collateral, liquidationFee); err != nil {
		return err
	}
	if t.feesUSD, err = t.feesUSD.Add(t.cfg.LiquidationFeeUSD); err != nil {
		return err
	}
	t.transferOut(id.Collateral, feeReceiver, liquidationFee)

	t.log.Debug("liquidated position",
		log.Stringer("account", id.Account),
		log.Bool("isLong", id.IsLong),
		log.Stringer("size", pos.Size),
		log.Stringer("collateral", pos.Collateral),
		log.Stringer("fee", fee),
		log.Stringer("feeReceiver", feeReceiver),
	)
	return nil
}
