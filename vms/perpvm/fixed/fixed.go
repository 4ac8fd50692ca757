// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixed provides the unsigned fixed-point scalars used by the perp
// vault. Every scale has its own type so that USD, prices, native token
// amounts and cumulative indices cannot be mixed without an explicit,
// checked conversion.
package fixed

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	safemath "github.com/luxfi/perps/utils/math"
)

const (
	// USDDecimals is the precision of USD values and prices.
	USDDecimals = 30
	// IndexDecimals is the precision of cumulative funding and skew indices.
	IndexDecimals = 18
	// BPSDenominator is 100% in basis points.
	BPSDenominator = 10_000
)

var (
	ErrOverflow         = safemath.ErrOverflow
	ErrUnderflow        = safemath.ErrUnderflow
	ErrDivisionByZero   = safemath.ErrDivisionByZero
	ErrDecimalsMismatch = errors.New("token decimals mismatch")
	ErrNegative         = errors.New("negative value")
	ErrPrecision        = errors.New("value exceeds precision")

	usdUnit   = safemath.Pow10(USDDecimals)
	indexUnit = safemath.Pow10(IndexDecimals)
	bpsUnit   = uint256.NewInt(BPSDenominator)
)

// BPS is a ratio in basis points. Values above BPSDenominator are allowed
// (leverage is expressed as BPS too).
type BPS uint64

func (b BPS) Int() *uint256.Int {
	return uint256.NewInt(uint64(b))
}

// parseScaled parses a human written decimal into an integer scaled by
// 10^exp. Digits beyond the precision are rejected rather than truncated.
func parseScaled(s string, exp int32) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegative, s)
	}
	shifted := d.Shift(exp)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("%w: %s", ErrPrecision, s)
	}
	v, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrOverflow, s)
	}
	return v, nil
}

func format(v *uint256.Int, exp int32) string {
	return decimal.NewFromBigInt(v.ToBig(), -exp).String()
}

func scaled(n uint64, unit *uint256.Int) uint256.Int {
	var z uint256.Int
	z.Mul(uint256.NewInt(n), unit)
	return z
}
