// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pnl computes unrealized profit and loss and entry-price averaging.
package pnl

import (
	"errors"

	"github.com/luxfi/perps/vms/perpvm/fixed"
)

var (
	ErrZeroAveragePrice = errors.New("average price is zero")
	ErrInvalidDivisor   = errors.New("average price divisor is not positive")
)

// Delta returns the unrealized PnL of size opened at avg and marked at mark.
func Delta(size fixed.USD, avg, mark fixed.Price, isLong bool) (fixed.SignedUSD, error) {
	if avg.IsZero() {
		return fixed.SignedUSD{}, ErrZeroAveragePrice
	}
	priceDelta := avg.AbsDiff(mark)
	abs, err := size.MulDiv(priceDelta.Int(), avg.Int())
	if err != nil {
		return fixed.SignedUSD{}, err
	}
	hasProfit := mark.Gt(avg)
	if !isLong {
		hasProfit = avg.Gt(mark)
	}
	if hasProfit {
		return fixed.Profit(abs), nil
	}
	return fixed.Loss(abs), nil
}

// MinProfit ignores small profits for a while after each increase so that
// a position cannot be opened and closed around a known price update.
type MinProfit struct {
	Bps fixed.BPS
	// Window is in seconds.
	Window uint64
}

// Apply zeroes delta if it is a profit of at most Bps of size realized
// within Window seconds of lastIncrease.
func (m MinProfit) Apply(delta fixed.SignedUSD, size fixed.USD, lastIncrease, now uint64) (fixed.SignedUSD, error) {
	if !delta.IsPositive() || m.Bps == 0 || now > lastIncrease+m.Window {
		return delta, nil
	}
	threshold, err := size.MulBPS(m.Bps)
	if err != nil {
		return fixed.SignedUSD{}, err
	}
	if delta.Abs.Gt(threshold) {
		return delta, nil
	}
	return fixed.SignedUSD{}, nil
}

// NextAveragePrice returns the entry price after adding sizeDelta at fill to
// size with unrealized PnL delta (measured at fill). The result keeps delta
// unchanged at fill:
//
//	next = fill * (size + sizeDelta) / divisor
//
// where divisor is nextSize + |delta| for a long in profit or a short in
// loss, and nextSize - |delta| otherwise.
func NextAveragePrice(size, sizeDelta fixed.USD, fill fixed.Price, delta fixed.SignedUSD, isLong bool) (fixed.Price, error) {
	nextSize, err := size.Add(sizeDelta)
	if err != nil {
		return fixed.Price{}, err
	}
	widen := delta.IsPositive() == isLong
	if delta.Abs.IsZero() {
		widen = true
	}
	var divisor fixed.USD
	if widen {
		divisor, err = nextSize.Add(delta.Abs)
	} else {
		divisor, err = nextSize.Sub(delta.Abs)
	}
	if err != nil || divisor.IsZero() {
		return fixed.Price{}, ErrInvalidDivisor
	}
	return fill.MulDiv(nextSize.Int(), divisor.Int())
}
