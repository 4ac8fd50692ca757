// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixed

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	safemath "github.com/luxfi/perps/utils/math"
)

// USD is a dollar value scaled by 10^30.
type USD struct {
	v uint256.Int
}

// Dollars returns n whole dollars.
func Dollars(n uint64) USD {
	return USD{v: scaled(n, usdUnit)}
}

// USDFromInt wraps a raw 10^30 scaled integer.
func USDFromInt(v *uint256.Int) USD {
	var u USD
	u.v.Set(v)
	return u
}

// USDFromBytes32 decodes the big-endian form produced by Bytes32.
func USDFromBytes32(b [32]byte) USD {
	var u USD
	u.v.SetBytes32(b[:])
	return u
}

// ParseUSD parses a decimal dollar string such as "12.5".
func ParseUSD(s string) (USD, error) {
	v, err := parseScaled(s, USDDecimals)
	if err != nil {
		return USD{}, err
	}
	return USDFromInt(v), nil
}

func (u USD) Int() *uint256.Int { return new(uint256.Int).Set(&u.v) }

func (u USD) Bytes32() [32]byte { return u.v.Bytes32() }

func (u USD) IsZero() bool { return u.v.IsZero() }

func (u USD) Cmp(o USD) int { return u.v.Cmp(&o.v) }

func (u USD) Lt(o USD) bool { return u.v.Lt(&o.v) }

func (u USD) Gt(o USD) bool { return u.v.Gt(&o.v) }

func (u USD) Add(o USD) (USD, error) {
	z, err := safemath.Add256(&u.v, &o.v)
	if err != nil {
		return USD{}, err
	}
	return USD{v: *z}, nil
}

// Sub returns u - o or ErrUnderflow.
func (u USD) Sub(o USD) (USD, error) {
	z, err := safemath.Sub256(&u.v, &o.v)
	if err != nil {
		return USD{}, err
	}
	return USD{v: *z}, nil
}

// MulBPS returns u * b / 10000.
func (u USD) MulBPS(b BPS) (USD, error) {
	return u.MulDiv(b.Int(), bpsUnit)
}

// MulDiv returns u * num / den rounded down.
func (u USD) MulDiv(num, den *uint256.Int) (USD, error) {
	z, err := safemath.MulDiv(&u.v, num, den)
	if err != nil {
		return USD{}, err
	}
	return USD{v: *z}, nil
}

// MinUSD returns the smaller of a and b.
func MinUSD(a, b USD) USD {
	if a.Lt(b) {
		return a
	}
	return b
}

func (u USD) String() string { return format(&u.v, USDDecimals) }

// Float64 is lossy and only meant for metrics.
func (u USD) Float64() float64 {
	return decimal.NewFromBigInt(u.v.ToBig(), -USDDecimals).InexactFloat64()
}

func (u USD) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *USD) UnmarshalText(text []byte) error {
	parsed, err := ParseUSD(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
