// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixed

import (
	"github.com/holiman/uint256"

	safemath "github.com/luxfi/perps/utils/math"
)

// Price is the USD value of one whole token, scaled by 10^30.
type Price struct {
	v uint256.Int
}

// NewPrice returns a price of n whole dollars per token.
func NewPrice(n uint64) Price {
	return Price{v: scaled(n, usdUnit)}
}

func PriceFromInt(v *uint256.Int) Price {
	var p Price
	p.v.Set(v)
	return p
}

func PriceFromBytes32(b [32]byte) Price {
	var p Price
	p.v.SetBytes32(b[:])
	return p
}

// ParsePrice parses a decimal dollar-per-token string.
func ParsePrice(s string) (Price, error) {
	v, err := parseScaled(s, USDDecimals)
	if err != nil {
		return Price{}, err
	}
	return PriceFromInt(v), nil
}

func (p Price) Int() *uint256.Int { return new(uint256.Int).Set(&p.v) }

func (p Price) Bytes32() [32]byte { return p.v.Bytes32() }

func (p Price) IsZero() bool { return p.v.IsZero() }

func (p Price) Cmp(o Price) int { return p.v.Cmp(&o.v) }

func (p Price) Lt(o Price) bool { return p.v.Lt(&o.v) }

func (p Price) Gt(o Price) bool { return p.v.Gt(&o.v) }

// AbsDiff returns |p - o| as a USD amount per token.
func (p Price) AbsDiff(o Price) USD {
	var z uint256.Int
	if p.v.Lt(&o.v) {
		z.Sub(&o.v, &p.v)
	} else {
		z.Sub(&p.v, &o.v)
	}
	return USD{v: z}
}

// MulBPS returns p * b / 10000.
func (p Price) MulBPS(b BPS) (Price, error) {
	return p.MulDiv(b.Int(), bpsUnit)
}

// MulDiv returns p * num / den rounded down.
func (p Price) MulDiv(num, den *uint256.Int) (Price, error) {
	z, err := safemath.MulDiv(&p.v, num, den)
	if err != nil {
		return Price{}, err
	}
	return Price{v: *z}, nil
}

func (p Price) String() string { return format(&p.v, USDDecimals) }

func (p Price) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Price) UnmarshalText(text []byte) error {
	parsed, err := ParsePrice(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MinPrice returns the smaller of a and b.
func MinPrice(a, b Price) Price {
	if a.Lt(b) {
		return a
	}
	return b
}

// MaxPrice returns the larger of a and b.
func MaxPrice(a, b Price) Price {
	if a.Gt(b) {
		return a
	}
	return b
}
