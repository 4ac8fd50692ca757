// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"

	"github.com/luxfi/ids"
)

var ErrUnknownClaimKind = errors.New("unknown claim kind")

const (
	// PositionKeyLen is account ‖ pool ‖ collateral ‖ index ‖ side.
	PositionKeyLen = ids.ShortIDLen + 3*ids.IDLen + 1
	// PoolKeyLen is pool ‖ token.
	PoolKeyLen = 2 * ids.IDLen
	// ClaimKeyLen is kind ‖ account ‖ pool ‖ token.
	ClaimKeyLen = 1 + ids.ShortIDLen + 2*ids.IDLen
)

// PositionID names a position. Every field is fixed width, so distinct IDs
// always produce distinct keys.
type PositionID struct {
	Account    ids.ShortID `json:"account"`
	Pool       ids.ID      `json:"pool"`
	Collateral ids.ID      `json:"collateral"`
	Index      ids.ID      `json:"index"`
	IsLong     bool        `json:"isLong"`
}

// Key returns the persisted key of the position.
func (id PositionID) Key() []byte {
	return PositionKey(id.Account, id.Pool, id.Collateral, id.Index, id.IsLong)
}

// PositionKey returns account ‖ pool ‖ collateral ‖ index ‖ side.
func PositionKey(account ids.ShortID, pool, collateral, index ids.ID, isLong bool) []byte {
	key := make([]byte, 0, PositionKeyLen)
	key = append(key, account[:]...)
	key = append(key, pool[:]...)
	key = append(key, collateral[:]...)
	key = append(key, index[:]...)
	if isLong {
		return append(key, 1)
	}
	return append(key, 0)
}

// PoolKey returns pool ‖ token.
func PoolKey(pool, token ids.ID) []byte {
	key := make([]byte, 0, PoolKeyLen)
	key = append(key, pool[:]...)
	return append(key, token[:]...)
}

// ClaimKind separates balances owed to accounts for different reasons.
type ClaimKind byte

const (
	SkewRebateClaim ClaimKind = iota + 1
	ReferralClaim
	// LiquidityClaim is synthetic supply minted to a liquidity provider,
	// held at USD precision.
	LiquidityClaim
)

func (k ClaimKind) String() string {
	switch k {
	case SkewRebateClaim:
		return "skewRebate"
	case ReferralClaim:
		return "referral"
	case LiquidityClaim:
		return "liquidity"
	default:
		return "unknown"
	}
}

func (k ClaimKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseClaimKind is the inverse of ClaimKind.String.
func ParseClaimKind(s string) (ClaimKind, error) {
	for _, k := range []ClaimKind{SkewRebateClaim, ReferralClaim, LiquidityClaim} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownClaimKind, s)
}

// ClaimKey returns kind ‖ account ‖ pool ‖ token.
func ClaimKey(kind ClaimKind, account ids.ShortID, pool, token ids.ID) []byte {
	key := make([]byte, 0, ClaimKeyLen)
	key = append(key, byte(kind))
	key = append(key, account[:]...)
	key = append(key, pool[:]...)
	return append(key, token[:]...)
}
