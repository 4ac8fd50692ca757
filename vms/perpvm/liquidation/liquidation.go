// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package liquidation decides whether a position may be liquidated.
package liquidation

import (
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/pnl"
	"github.com/luxfi/perps/vms/perpvm/state"
)

// Verdict is the outcome of an evaluation.
type Verdict uint8

const (
	NotLiquidatable Verdict = iota
	// Liquidatable positions have exhausted their collateral.
	Liquidatable
	// LiquidatableSoft positions are solvent but over max leverage. They
	// are closed and the remainder is returned to the account.
	LiquidatableSoft
)

func (v Verdict) String() string {
	switch v {
	case NotLiquidatable:
		return "not_liquidatable"
	case Liquidatable:
		return "liquidatable"
	case LiquidatableSoft:
		return "liquidatable_soft"
	default:
		return "unknown"
	}
}

// Input is what an evaluation needs besides the position.
type Input struct {
	// Mark is the min price of the index for longs and the max price for
	// shorts.
	Mark fixed.Price
	// AccruedFee is funding and skew charged since entry plus the taker fee
	// of closing the full size.
	AccruedFee     fixed.USD
	MaxLeverageBps fixed.BPS
	MinProfit      pnl.MinProfit
	// Now is the unix second the evaluation happens at.
	Now uint64
}

// Result is a verdict with the figures behind it.
type Result struct {
	Verdict Verdict
	PnL     fixed.SignedUSD
	// Remaining is collateral + PnL - AccruedFee.
	Remaining fixed.SignedUSD
}

// Evaluate is pure. For a fixed position it is monotonic in in.Mark: a
// worse mark never yields a less severe verdict.
func Evaluate(pos *state.Position, in Input) (Result, error) {
	if pos.IsZero() {
		return Result{}, nil
	}
	delta, err := pnl.Delta(pos.Size, pos.AveragePrice, in.Mark, pos.ID.IsLong)
	if err != nil {
		return Result{}, err
	}
	delta, err = in.MinProfit.Apply(delta, pos.Size, pos.LastIncreaseTime, in.Now)
	if err != nil {
		return Result{}, err
	}
	remaining, err := fixed.Profit(pos.Collateral).Add(delta)
	if err != nil {
		return Result{}, err
	}
	remaining, err = remaining.Sub(fixed.Profit(in.AccruedFee))
	if err != nil {
		return Result{}, err
	}
	res := Result{
		PnL:       delta,
		Remaining: remaining,
	}
	if !remaining.IsPositive() {
		res.Verdict = Liquidatable
		return res, nil
	}
	overLeveraged, err := ExceedsLeverage(pos.Size, remaining.Abs, in.MaxLeverageBps)
	if err != nil {
		return Result{}, err
	}
	if overLeveraged {
		res.Verdict = LiquidatableSoft
	}
	return res, nil
}

// ExceedsLeverage reports size * 10000 > collateral * maxLeverageBps.
func ExceedsLeverage(size, collateral fixed.USD, maxLeverageBps fixed.BPS) (bool, error) {
	limit, err := collateral.MulBPS(maxLeverageBps)
	if err != nil {
		return false, err
	}
	return size.Gt(limit), nil
}
