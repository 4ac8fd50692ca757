// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixed

// SignedUSD is a USD value with a sign. Zero is never negative.
type SignedUSD struct {
	Neg bool
	Abs USD
}

func Profit(u USD) SignedUSD { return SignedUSD{Abs: u} }

func Loss(u USD) SignedUSD { return SignedUSD{Neg: !u.IsZero(), Abs: u} }

func (s SignedUSD) IsNeg() bool { return s.Neg && !s.Abs.IsZero() }

func (s SignedUSD) IsPositive() bool { return !s.Neg && !s.Abs.IsZero() }

func (s SignedUSD) Negate() SignedUSD {
	if s.Abs.IsZero() {
		return SignedUSD{}
	}
	return SignedUSD{Neg: !s.Neg, Abs: s.Abs}
}

func (s SignedUSD) Add(o SignedUSD) (SignedUSD, error) {
	if s.IsNeg() == o.IsNeg() {
		abs, err := s.Abs.Add(o.Abs)
		if err != nil {
			return SignedUSD{}, err
		}
		return SignedUSD{Neg: s.IsNeg() && !abs.IsZero(), Abs: abs}, nil
	}
	if s.Abs.Lt(o.Abs) {
		abs, err := o.Abs.Sub(s.Abs)
		if err != nil {
			return SignedUSD{}, err
		}
		return SignedUSD{Neg: o.IsNeg(), Abs: abs}, nil
	}
	abs, err := s.Abs.Sub(o.Abs)
	if err != nil {
		return SignedUSD{}, err
	}
	return SignedUSD{Neg: s.IsNeg() && !abs.IsZero(), Abs: abs}, nil
}

func (s SignedUSD) Sub(o SignedUSD) (SignedUSD, error) {
	return s.Add(o.Negate())
}

func (s SignedUSD) String() string {
	if s.IsNeg() {
		return "-" + s.Abs.String()
	}
	return s.Abs.String()
}
