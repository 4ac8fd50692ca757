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
	"github.com/luxfi/perps/vms/perpvm/fees"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/pnl"
	"github.com/luxfi/perps/vms/perpvm/state"
)

// Decrease removes req.SizeDelta from the position and withdraws
// req.CollateralDelta of its margin. It returns the collateral tokens paid
// to the receiver. Decreases are allowed outside trading sessions.
func (l *Ledger) Decrease(ctx context.Context, req DecreaseRequest) (fixed.Amount, error) {
	collateral, err := l.validateInstrument(auth.FromContext(ctx), req.Instrument)
	if err != nil {
		return fixed.Amount{}, err
	}
	if req.SizeDelta.IsZero() && req.CollateralDelta.IsZero() {
		return fixed.Amount{}, fmt.Errorf("%w: nothing to decrease", ErrInvalidRequest)
	}
	receiver := req.Receiver
	if receiver == ids.ShortEmpty {
		receiver = req.Account
	}

	var amountOut fixed.Amount
	err = l.transition(ctx, opDecrease, func(t *tx) error {
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
		if pos.Size.Lt(req.SizeDelta) {
			return fmt.Errorf("%w: size %s < %s", ErrInsufficientFunds, pos.Size, req.SizeDelta)
		}
		if pos.Collateral.Lt(req.CollateralDelta) {
			return fmt.Errorf("%w: collateral %s < %s", ErrInsufficientFunds, pos.Collateral, req.CollateralDelta)
		}
		amountOut, err = t.decrease(&pos, req.SizeDelta, req.CollateralDelta, receiver, collateral.Decimals)
		return err
	})
	if err != nil {
		return fixed.Amount{}, err
	}
	l.recordVolume(req.Account, req.SizeDelta)
	return amountOut, nil
}

// decrease applies a validated decrease to pos. A full close deletes the
// position and pays out the remaining collateral.
func (t *tx) decrease(pos *state.Position, sizeDelta, collateralDelta fixed.USD, receiver ids.ShortID, decimals uint8) (fixed.Amount, error) {
	id := pos.ID
	coll, err := t.vault.Pool(id.Pool, id.Collateral)
	if err != nil {
		return fixed.Amount{}, err
	}
	idx, err := t.vault.Pool(id.Pool, id.Index)
	if err != nil {
		return fixed.Amount{}, err
	}
	fullClose := sizeDelta.Cmp(pos.Size) == 0

	reserveDelta, err := pos.ReserveAmount.MulDiv(sizeDelta.Int(), pos.Size.Int())
	if err != nil {
		return fixed.Amount{}, err
	}
	if fullClose {
		reserveDelta = pos.ReserveAmount
	}
	if pos.ReserveAmount, err = pos.ReserveAmount.Sub(reserveDelta); err != nil {
		return fixed.Amount{}, err
	}
	if err := t.vault.DecreaseReserved(id.Pool, id.Collateral, reserveDelta); err != nil {
		return fixed.Amount{}, err
	}

	collateralBefore := pos.Collateral
	r, err := t.reduceCollateral(pos, sizeDelta, collateralDelta, fullClose, decimals)
	if err != nil {
		return fixed.Amount{}, err
	}

	if id.IsLong {
		released, err := collateralBefore.Sub(pos.Collateral)
		if err != nil {
			return fixed.Amount{}, err
		}
		if err := t.vault.IncreaseGuaranteedUSD(id.Pool, id.Collateral, released); err != nil {
			return fixed.Amount{}, err
		}
		if err := t.vault.DecreaseGuaranteedUSD(id.Pool, id.Collateral, sizeDelta); err != nil {
			return fixed.Amount{}, err
		}
		if err := t.vault.DecreaseGlobalLongSize(id.Pool, id.Index, sizeDelta); err != nil {
			return fixed.Amount{}, err
		}
	} else {
		if err := t.vault.DecreaseGlobalShortSize(id.Pool, id.Index, sizeDelta); err != nil {
			return fixed.Amount{}, err
		}
		if idx.GlobalShortSize.IsZero() {
			if err := t.vault.SetGlobalShortAveragePrice(id.Pool, id.Index, fixed.Price{}); err != nil {
				return fixed.Amount{}, err
			}
		}
	}

	if fullClose {
		if err := t.state.DeletePosition(id); err != nil {
			return fixed.Amount{}, err
		}
		t.closed++
		t.emit(events.ClosePosition{
			Base:         events.Base{Timestamp: t.now},
			Position:     id,
			AveragePrice: pos.AveragePrice,
			RealizedPnL:  pos.RealizedPnL,
		})
	} else {
		if pos.Size, err = pos.Size.Sub(sizeDelta); err != nil {
			return fixed.Amount{}, err
		}
		pos.EntryFundingIndex = coll.FundingIndex
		pos.EntryLongSkewIndex = idx.LongSkewIndex
		pos.EntryShortSkewIndex = idx.ShortSkewIndex
		if err := t.validatePosition(pos); err != nil {
			return fixed.Amount{}, err
		}
		if err := t.state.PutPosition(pos); err != nil {
			return fixed.Amount{}, err
		}
	}

	amountOut := fixed.ZeroAmount(decimals)
	if !r.usdOut.IsZero() {
		if id.IsLong {
			released, err := t.usdToTokens(id.Collateral, r.usdOut, decimals)
			if err != nil {
				return fixed.Amount{}, err
			}
			if err := t.vault.DecreasePoolAmount(id.Pool, id.Collateral, released); err != nil {
				return fixed.Amount{}, err
			}
		}
		if amountOut, err = t.usdToTokens(id.Collateral, r.usdOutAfterFee, decimals); err != nil {
			return fixed.Amount{}, err
		}
		t.transferOut(id.Collateral, receiver, amountOut)
	}

	t.log.Debug("decreased position",
		log.Stringer("account", id.Account),
		log.Bool("isLong", id.IsLong),
		log.Stringer("sizeDelta", sizeDelta),
		log.Stringer("collateralDelta", collateralDelta),
		log.Stringer("fee", r.fee),
		log.Stringer("amountOut", amountOut),
		log.Bool("closed", fullClose),
	)
	t.emit(events.DecreasePosition{
		Base:            events.Base{Timestamp: t.now},
		Position:        id,
		CollateralDelta: collateralDelta,
		SizeDelta:       sizeDelta,
		Price:           r.mark,
		Fee:             r.fee,
		Receiver:        receiver,
		AmountOut:       amountOut,
	})
	return amountOut, nil
}

type reduction struct {
	mark           fixed.Price
	fee            fixed.USD
	usdOut         fixed.USD
	usdOutAfterFee fixed.USD
}

// reduceCollateral realizes the PnL of sizeDelta, withdraws collateralDelta
// and charges the accrued fees, taking them from the payout when it covers
// them and from the remaining collateral otherwise.
func (t *tx) reduceCollateral(pos *state.Position, sizeDelta, collateralDelta fixed.USD, fullClose bool, decimals uint8) (reduction, error) {
	id := pos.ID
	coll, err := t.vault.Pool(id.Pool, id.Collateral)
	if err != nil {
		return reduction{}, err
	}
	idx, err := t.vault.Pool(id.Pool, id.Index)
	if err != nil {
		return reduction{}, err
	}
	margin, err := t.fees.MarginFee(id.Account, pos.Size, sizeDelta, pos.EntryFundingIndex, coll.FundingIndex)
	if err != nil {
		return reduction{}, err
	}
	skew, err := fees.SkewFee(pos, idx)
	if err != nil {
		return reduction{}, err
	}
	fee, err := margin.Charged.Add(skew.Charge())
	if err != nil {
		return reduction{}, err
	}

	mark, err := t.markPrice(id.Index, id.IsLong)
	if err != nil {
		return reduction{}, err
	}
	delta, err := pnl.Delta(pos.Size, pos.AveragePrice, mark, id.IsLong)
	if err != nil {
		return reduction{}, err
	}
	delta, err = t.minProfit(id.Index).Apply(delta, pos.Size, pos.LastIncreaseTime, t.now)
	if err != nil {
		return reduction{}, err
	}
	adjusted, err := delta.Abs.MulDiv(sizeDelta.Int(), pos.Size.Int())
	if err != nil {
		return reduction{}, err
	}
	realized := fixed.SignedUSD{Neg: delta.IsNeg(), Abs: adjusted}
	if realized.Abs.IsZero() {
		realized = fixed.SignedUSD{}
	}

	r := reduction{mark: mark, fee: fee}
	switch {
	case realized.IsPositive():
		r.usdOut = realized.Abs
		if !id.IsLong {
			tokens, err := t.usdToTokens(id.Collateral, realized.Abs, decimals)
			if err != nil {
				return reduction{}, err
			}
			if err := t.vault.DecreasePoolAmount(id.Pool, id.Collateral, tokens); err != nil {
				return reduction{}, err
			}
		}
	case realized.IsNeg():
		if pos.Collateral, err = pos.Collateral.Sub(realized.Abs); err != nil {
			return reduction{}, fmt.Errorf("%w: loss %s > collateral %s", ErrInsufficientFunds, realized.Abs, pos.Collateral)
		}
		if !id.IsLong {
			tokens, err := t.usdToTokens(id.Collateral, realized.Abs, decimals)
			if err != nil {
				return reduction{}, err
			}
			if err := t.vault.IncreasePoolAmount(id.Pool, id.Collateral, tokens); err != nil {
				return reduction{}, err
			}
		}
	}
	if !realized.Abs.IsZero() {
		if pos.RealizedPnL, err = pos.RealizedPnL.Add(realized); err != nil {
			return reduction{}, err
		}
		t.emit(events.UpdatePnL{
			Base:     events.Base{Timestamp: t.now},
			Position: id,
			Delta:    realized,
		})
	}

	if !collateralDelta.IsZero() {
		if r.usdOut, err = r.usdOut.Add(collateralDelta); err != nil {
			return reduction{}, err
		}
		if pos.Collateral, err = pos.Collateral.Sub(collateralDelta); err != nil {
			return reduction{}, fmt.Errorf("%w: withdrawal %s > collateral %s", ErrInsufficientFunds, collateralDelta, pos.Collateral)
		}
	}
	if fullClose {
		if r.usdOut, err = r.usdOut.Add(pos.Collateral); err != nil {
			return reduction{}, err
		}
		pos.Collateral = fixed.USD{}
	}

	if r.usdOut.Gt(fee) {
		if r.usdOutAfterFee, err = r.usdOut.Sub(fee); err != nil {
			return reduction{}, err
		}
	} else {
		r.usdOutAfterFee = r.usdOut
		if pos.Collateral, err = pos.Collateral.Sub(fee); err != nil {
			return reduction{}, fmt.Errorf("%w: fee %s > collateral %s", ErrInsufficientCollateralForFees, fee, pos.Collateral)
		}
		if id.IsLong {
			tokens, err := t.usdToTokens(id.Collateral, fee, decimals)
			if err != nil {
				return reduction{}, err
			}
			if err := t.vault.DecreasePoolAmount(id.Pool, id.Collateral, tokens); err != nil {
				return reduction{}, err
			}
		}
	}

	if _, err := t.collectFees(pos, fee, margin, decimals); err != nil {
		return reduction{}, err
	}
	if err := t.creditSkewRebate(pos, skew, decimals); err != nil {
		return reduction{}, err
	}
	if err := t.syncCollateralAmount(pos, decimals); err != nil {
		return reduction{}, err
	}
	return r, nil
}

// syncCollateralAmount re-derives the token balance of the margin from its
// USD value after a reduction.
func (t *tx) syncCollateralAmount(pos *state.Position, decimals uint8) error {
	if pos.Collateral.IsZero() {
		pos.CollateralAmount = fixed.ZeroAmount(decimals)
		return nil
	}
	tokens, err := t.usdToTokens(pos.ID.Collateral, pos.Collateral, decimals)
	if err != nil {
		return err
	}
	pos.CollateralAmount = tokens
	return nil
}
