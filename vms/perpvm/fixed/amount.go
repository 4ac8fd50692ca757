// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixed

import (
	"fmt"

	"github.com/holiman/uint256"

	safemath "github.com/luxfi/perps/utils/math"
)

// Amount is a quantity of a token in its smallest unit. It carries the
// token's decimals so that amounts of different precision cannot be added.
type Amount struct {
	v        uint256.Int
	decimals uint8
}

// ZeroAmount returns an empty amount of a token with the given decimals.
func ZeroAmount(decimals uint8) Amount {
	return Amount{decimals: decimals}
}

// Tokens returns n whole tokens.
func Tokens(n uint64, decimals uint8) Amount {
	return Amount{v: scaled(n, safemath.Pow10(decimals)), decimals: decimals}
}

// NewAmount wraps a raw smallest-unit quantity.
func NewAmount(v *uint256.Int, decimals uint8) Amount {
	a := Amount{decimals: decimals}
	a.v.Set(v)
	return a
}

func AmountFromBytes32(b [32]byte, decimals uint8) Amount {
	a := Amount{decimals: decimals}
	a.v.SetBytes32(b[:])
	return a
}

// ParseAmount parses a decimal count of whole tokens, e.g. "1.5".
func ParseAmount(s string, decimals uint8) (Amount, error) {
	v, err := parseScaled(s, int32(decimals))
	if err != nil {
		return Amount{}, err
	}
	return NewAmount(v, decimals), nil
}

func (a Amount) Int() *uint256.Int { return new(uint256.Int).Set(&a.v) }

func (a Amount) Decimals() uint8 { return a.decimals }

func (a Amount) Bytes32() [32]byte { return a.v.Bytes32() }

func (a Amount) IsZero() bool { return a.v.IsZero() }

// Cmp compares raw quantities. Both amounts must share decimals.
func (a Amount) Cmp(o Amount) int { return a.v.Cmp(&o.v) }

func (a Amount) Lt(o Amount) bool { return a.v.Lt(&o.v) }

func (a Amount) Add(o Amount) (Amount, error) {
	if err := a.sameScale(o); err != nil {
		return Amount{}, err
	}
	z, err := safemath.Add256(&a.v, &o.v)
	if err != nil {
		return Amount{}, err
	}
	return Amount{v: *z, decimals: a.decimals}, nil
}

// Sub returns a - o or ErrUnderflow.
func (a Amount) Sub(o Amount) (Amount, error) {
	if err := a.sameScale(o); err != nil {
		return Amount{}, err
	}
	z, err := safemath.Sub256(&a.v, &o.v)
	if err != nil {
		return Amount{}, err
	}
	return Amount{v: *z, decimals: a.decimals}, nil
}

// MulDiv returns a * num / den rounded down, keeping decimals.
func (a Amount) MulDiv(num, den *uint256.Int) (Amount, error) {
	z, err := safemath.MulDiv(&a.v, num, den)
	if err != nil {
		return Amount{}, err
	}
	return Amount{v: *z, decimals: a.decimals}, nil
}

func (a Amount) sameScale(o Amount) error {
	if a.decimals != o.decimals {
		return fmt.Errorf("%w: %d != %d", ErrDecimalsMismatch, a.decimals, o.decimals)
	}
	return nil
}

func (a Amount) String() string { return format(&a.v, int32(a.decimals)) }

// MarshalText writes whole tokens. Amounts are parsed with ParseAmount since
// the text does not carry the decimals.
func (a Amount) MarshalText() ([]byte, error) { return []byte(a.String()), nil }
