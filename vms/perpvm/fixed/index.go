// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixed

import (
	"github.com/holiman/uint256"

	safemath "github.com/luxfi/perps/utils/math"
)

// Index is a cumulative per-USD accrual scaled by 10^18. An index delta of
// 10^16 charges 1% of position size.
type Index struct {
	v uint256.Int
}

func IndexFromInt(v *uint256.Int) Index {
	var x Index
	x.v.Set(v)
	return x
}

func IndexFromBytes32(b [32]byte) Index {
	var x Index
	x.v.SetBytes32(b[:])
	return x
}

// ParseIndex parses a decimal fraction such as "0.0001" (0.01%).
func ParseIndex(s string) (Index, error) {
	v, err := parseScaled(s, IndexDecimals)
	if err != nil {
		return Index{}, err
	}
	return IndexFromInt(v), nil
}

func (x Index) Int() *uint256.Int { return new(uint256.Int).Set(&x.v) }

func (x Index) Bytes32() [32]byte { return x.v.Bytes32() }

func (x Index) IsZero() bool { return x.v.IsZero() }

func (x Index) Cmp(o Index) int { return x.v.Cmp(&o.v) }

func (x Index) Add(o Index) (Index, error) {
	z, err := safemath.Add256(&x.v, &o.v)
	if err != nil {
		return Index{}, err
	}
	return Index{v: *z}, nil
}

// MulDiv returns x * num / den rounded down.
func (x Index) MulDiv(num, den *uint256.Int) (Index, error) {
	z, err := safemath.MulDiv(&x.v, num, den)
	if err != nil {
		return Index{}, err
	}
	return Index{v: *z}, nil
}

// Accrued returns size * (current - entry) / 10^18. A current index below
// entry is an ErrUnderflow; indices never decrease.
func Accrued(entry, current Index, size USD) (USD, error) {
	delta, err := safemath.Sub256(&current.v, &entry.v)
	if err != nil {
		return USD{}, err
	}
	return size.MulDiv(delta, indexUnit)
}

func (x Index) String() string { return format(&x.v, IndexDecimals) }

func (x Index) MarshalText() ([]byte, error) { return []byte(x.String()), nil }

func (x *Index) UnmarshalText(text []byte) error {
	parsed, err := ParseIndex(string(text))
	if err != nil {
		return err
	}
	*x = parsed
	return nil
}
