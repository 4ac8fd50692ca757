// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixed

import (
	safemath "github.com/luxfi/perps/utils/math"
)

// ToUSD values a token amount at price: amount * price / 10^decimals.
func ToUSD(a Amount, p Price) (USD, error) {
	z, err := safemath.MulDiv(&a.v, &p.v, safemath.Pow10(a.decimals))
	if err != nil {
		return USD{}, err
	}
	return USD{v: *z}, nil
}

// ToAmount converts a USD value into tokens at price, rounding down:
// usd * 10^decimals / price. A higher price yields fewer tokens.
func ToAmount(u USD, p Price, decimals uint8) (Amount, error) {
	z, err := safemath.MulDiv(&u.v, safemath.Pow10(decimals), &p.v)
	if err != nil {
		return Amount{}, err
	}
	return Amount{v: *z, decimals: decimals}, nil
}
