// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"fmt"

	"github.com/luxfi/log"

	"github.com/luxfi/perps/vms/perpvm/auth"
	"github.com/luxfi/perps/vms/perpvm/events"
	"github.com/luxfi/perps/vms/perpvm/fees"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/pnl"
	"github.com/luxfi/perps/vms/perpvm/state"
)

// Increase adds req.SizeDelta to the position and req.CollateralIn to its
// margin, opening the position if it is absent.
func (l *Ledger) Increase(ctx context.Context, req IncreaseRequest) error {
	collateral, err := l.validateInstrument(auth.FromContext(ctx), req.Instrument)
	if err != nil {
		return err
	}
	if req.CollateralIn.Decimals() != collateral.Decimals {
		return fmt.Errorf("%w: collateral has %d decimals, want %d", ErrInvalidRequest, req.CollateralIn.Decimals(), collateral.Decimals)
	}
	if req.SizeDelta.IsZero() && req.CollateralIn.IsZero() {
		return fmt.Errorf("%w: nothing to increase", ErrInvalidRequest)
	}
	if !l.gate.IsOpen(req.Index) {
		return fmt.Errorf("%w: %s", ErrMarketClosed, req.Index)
	}

	err = l.transition(ctx, opIncrease, func(t *tx) error {
		return t.increase(req, collateral.Decimals)
	})
	if err == nil {
		l.recordVolume(req.Account, req.SizeDelta)
	}
	return err
}

func (t *tx) increase(req IncreaseRequest, decimals uint8) error {
	id := req.PositionID()
	if err := t.accrual.Advance(t.vault, id.Pool, id.Collateral, id.Index, t.now); err != nil {
		return err
	}
	coll, err := t.vault.Pool(id.Pool, id.Collateral)
	if err != nil {
		return err
	}
	idx, err := t.vault.Pool(id.Pool, id.Index)
	if err != nil {
		return err
	}

	pos, err := t.state.GetPosition(id)
	if err != nil {
		return err
	}
	isNew := pos.IsZero()
	if isNew {
		pos = state.NewPosition(id, decimals)
	}

	fill, err := t.fillPrice(id.Index, id.IsLong)
	if err != nil {
		return err
	}
	switch {
	case isNew:
		pos.AveragePrice = fill
	case !req.SizeDelta.IsZero():
		delta, err := pnl.Delta(pos.Size, pos.AveragePrice, fill, id.IsLong)
		if err != nil {
			return err
		}
		delta, err = t.minProfit(id.Index).Apply(delta, pos.Size, pos.LastIncreaseTime, t.now)
		if err != nil {
			return err
		}
		if pos.AveragePrice, err = pnl.NextAveragePrice(pos.Size, req.SizeDelta, fill, delta, id.IsLong); err != nil {
			return err
		}
	}

	collateralPrice, err := t.oracle.MinPrice(id.Collateral)
	if err != nil {
		return err
	}
	depositUSD, err := fixed.ToUSD(req.CollateralIn, collateralPrice)
	if err != nil {
		return err
	}

	margin, err := t.fees.MarginFee(id.Account, pos.Size, req.SizeDelta, pos.EntryFundingIndex, coll.FundingIndex)
	if err != nil {
		return err
	}
	skew, err := fees.SkewFee(&pos, idx)
	if err != nil {
		return err
	}
	fee, err := margin.Charged.Add(skew.Charge())
	if err != nil {
		return err
	}

	available, err := pos.Collateral.Add(depositUSD)
	if err != nil {
		return err
	}
	if !fee.Lt(available) {
		return fmt.Errorf("%w: fee %s >= collateral %s", ErrInsufficientCollateralForFees, fee, available)
	}
	if pos.Collateral, err = available.Sub(fee); err != nil {
		return err
	}

	feeTokens, err := t.collectFees(&pos, fee, margin, decimals)
	if err != nil {
		return err
	}
	if pos.CollateralAmount, err = pos.CollateralAmount.Add(req.CollateralIn); err != nil {
		return err
	}
	if pos.CollateralAmount, err = pos.CollateralAmount.Sub(feeTokens); err != nil {
		return fmt.Errorf("%w: fee %s > collateral %s", ErrInsufficientCollateralForFees, feeTokens, pos.CollateralAmount)
	}

	pos.EntryFundingIndex = coll.FundingIndex
	pos.EntryLongSkewIndex = idx.LongSkewIndex
	pos.EntryShortSkewIndex = idx.ShortSkewIndex
	if pos.Size, err = pos.Size.Add(req.SizeDelta); err != nil {
		return err
	}
	pos.LastIncreaseTime = t.now
	if pos.Size.IsZero() {
		return ErrInvalidPositionSize
	}

	// The skew rebate is earned on the size held before this increase.
	if err := t.creditSkewRebate(&pos, skew, decimals); err != nil {
		return err
	}

	if id.IsLong {
		guaranteed, err := req.SizeDelta.Add(fee)
		if err != nil {
			return err
		}
		if err := t.vault.IncreaseGuaranteedUSD(id.Pool, id.Collateral, guaranteed); err != nil {
			return err
		}
		if err := t.vault.DecreaseGuaranteedUSD(id.Pool, id.Collateral, depositUSD); err != nil {
			return err
		}
		if err := t.vault.IncreasePoolAmount(id.Pool, id.Collateral, req.CollateralIn); err != nil {
			return err
		}
		if err := t.vault.DecreasePoolAmount(id.Pool, id.Collateral, feeTokens); err != nil {
			return err
		}
		if err := t.vault.IncreaseGlobalLongSize(id.Pool, id.Index, req.SizeDelta); err != nil {
			return err
		}
	} else if !req.SizeDelta.IsZero() {
		avg, err := t.vault.NextGlobalShortAveragePrice(id.Pool, id.Index, fill, req.SizeDelta)
		if err != nil {
			return err
		}
		if err := t.vault.SetGlobalShortAveragePrice(id.Pool, id.Index, avg); err != nil {
			return err
		}
		if err := t.vault.IncreaseGlobalShortSize(id.Pool, id.Index, req.SizeDelta); err != nil {
			return err
		}
	}

	reserveDelta, err := fixed.ToAmount(req.SizeDelta, collateralPrice, decimals)
	if err != nil {
		return err
	}
	if err := t.vault.IncreaseReserved(id.Pool, id.Collateral, reserveDelta); err != nil {
		return err
	}
	if pos.ReserveAmount, err = pos.ReserveAmount.Add(reserveDelta); err != nil {
		return err
	}

	if err := t.validatePosition(&pos); err != nil {
		return err
	}
	if err := t.state.PutPosition(&pos); err != nil {
		return err
	}
	if isNew {
		t.opened++
	}

	t.log.Debug("increased position",
		log.Stringer("account", id.Account),
		log.Bool("isLong", id.IsLong),
		log.Stringer("sizeDelta", req.SizeDelta),
		log.Stringer("size", pos.Size),
		log.Stringer("collateral", pos.Collateral),
		log.Stringer("averagePrice", pos.AveragePrice),
		log.Stringer("fee", fee),
	)
	t.emit(events.IncreasePosition{
		Base:            events.Base{Timestamp: t.now},
		Position:        id,
		CollateralDelta: req.CollateralIn,
		SizeDelta:       req.SizeDelta,
		Price:           fill,
		Fee:             fee,
	})
	return nil
}
