// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/perps/vms/perpvm/fixed"
)

// Position is a leveraged exposure of one account to one index asset,
// margined in one collateral asset of one pool. A position with zero size
// does not exist; Position{} is the absent value.
type Position struct {
	ID PositionID

	// Size is the notional exposure in USD.
	Size fixed.USD
	// Collateral is the USD margin net of every fee charged so far.
	Collateral fixed.USD
	// CollateralAmount tracks the same margin in collateral token units.
	CollateralAmount fixed.Amount
	// AveragePrice is the entry price of the whole position.
	AveragePrice fixed.Price

	EntryFundingIndex   fixed.Index
	EntryLongSkewIndex  fixed.Index
	EntryShortSkewIndex fixed.Index

	// ReserveAmount is the collateral token liquidity locked for this
	// position's maximum payout.
	ReserveAmount fixed.Amount
	// LastIncreaseTime is the unix second of the last size increase.
	LastIncreaseTime uint64
	RealizedPnL      fixed.SignedUSD
}

// NewPosition returns an empty position at id whose native amounts use
// decimals.
func NewPosition(id PositionID, decimals uint8) Position {
	return Position{
		ID:               id,
		CollateralAmount: fixed.ZeroAmount(decimals),
		ReserveAmount:    fixed.ZeroAmount(decimals),
	}
}

// IsZero reports whether the position is absent.
func (p *Position) IsZero() bool {
	return p.Size.IsZero()
}

type positionRecord struct {
	Account            ids.ShortID `serialize:"true"`
	Pool               ids.ID      `serialize:"true"`
	Collateral         ids.ID      `serialize:"true"`
	Index              ids.ID      `serialize:"true"`
	IsLong             bool        `serialize:"true"`
	Size               [32]byte    `serialize:"true"`
	CollateralUSD      [32]byte    `serialize:"true"`
	CollateralAmount   [32]byte    `serialize:"true"`
	CollateralDecimals uint8       `serialize:"true"`
	AveragePrice       [32]byte    `serialize:"true"`
	EntryFunding       [32]byte    `serialize:"true"`
	EntryLongSkew      [32]byte    `serialize:"true"`
	EntryShortSkew     [32]byte    `serialize:"true"`
	ReserveAmount      [32]byte    `serialize:"true"`
	LastIncreaseTime   uint64      `serialize:"true"`
	RealizedLoss       bool        `serialize:"true"`
	RealizedPnL        [32]byte    `serialize:"true"`
}

func (p *Position) record() *positionRecord {
	return &positionRecord{
		Account:            p.ID.Account,
		Pool:               p.ID.Pool,
		Collateral:         p.ID.Collateral,
		Index:              p.ID.Index,
		IsLong:             p.ID.IsLong,
		Size:               p.Size.Bytes32(),
		CollateralUSD:      p.Collateral.Bytes32(),
		CollateralAmount:   p.CollateralAmount.Bytes32(),
		CollateralDecimals: p.CollateralAmount.Decimals(),
		AveragePrice:       p.AveragePrice.Bytes32(),
		EntryFunding:       p.EntryFundingIndex.Bytes32(),
		EntryLongSkew:      p.EntryLongSkewIndex.Bytes32(),
		EntryShortSkew:     p.EntryShortSkewIndex.Bytes32(),
		ReserveAmount:      p.ReserveAmount.Bytes32(),
		LastIncreaseTime:   p.LastIncreaseTime,
		RealizedLoss:       p.RealizedPnL.IsNeg(),
		RealizedPnL:        p.RealizedPnL.Abs.Bytes32(),
	}
}

func (r *positionRecord) position() Position {
	return Position{
		ID: PositionID{
			Account:    r.Account,
			Pool:       r.Pool,
			Collateral: r.Collateral,
			Index:      r.Index,
			IsLong:     r.IsLong,
		},
		Size:                fixed.USDFromBytes32(r.Size),
		Collateral:          fixed.USDFromBytes32(r.CollateralUSD),
		CollateralAmount:    fixed.AmountFromBytes32(r.CollateralAmount, r.CollateralDecimals),
		AveragePrice:        fixed.PriceFromBytes32(r.AveragePrice),
		EntryFundingIndex:   fixed.IndexFromBytes32(r.EntryFunding),
		EntryLongSkewIndex:  fixed.IndexFromBytes32(r.EntryLongSkew),
		EntryShortSkewIndex: fixed.IndexFromBytes32(r.EntryShortSkew),
		ReserveAmount:       fixed.AmountFromBytes32(r.ReserveAmount, r.CollateralDecimals),
		LastIncreaseTime:    r.LastIncreaseTime,
		RealizedPnL: fixed.SignedUSD{
			Neg: r.RealizedLoss,
			Abs: fixed.USDFromBytes32(r.RealizedPnL),
		},
	}
}
