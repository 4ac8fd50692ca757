// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/perps/vms/perpvm/fixed"
)

// Pool is the aggregate accounting of one token inside one pool. The token
// is both a collateral bucket (amounts, reserves, funding) and an index
// (global open interest, skew).
type Pool struct {
	Pool  ids.ID
	Token ids.ID

	PoolAmount       fixed.Amount
	ReservedAmount   fixed.Amount
	FeeReserves      fixed.Amount
	ClaimableRebates fixed.Amount
	GuaranteedUSD    fixed.USD
	SyntheticSupply  fixed.USD

	FundingIndex   fixed.Index
	LongSkewIndex  fixed.Index
	ShortSkewIndex fixed.Index
	// LastFundingTime and LastSkewTime are zero until the first accrual.
	LastFundingTime uint64
	LastSkewTime    uint64

	GlobalLongSize          fixed.USD
	GlobalShortSize         fixed.USD
	GlobalShortAveragePrice fixed.Price
}

// NewPool returns an empty aggregate for token in pool.
func NewPool(pool, token ids.ID, decimals uint8) Pool {
	return Pool{
		Pool:             pool,
		Token:            token,
		PoolAmount:       fixed.ZeroAmount(decimals),
		ReservedAmount:   fixed.ZeroAmount(decimals),
		FeeReserves:      fixed.ZeroAmount(decimals),
		ClaimableRebates: fixed.ZeroAmount(decimals),
	}
}

func (p *Pool) Decimals() uint8 {
	return p.PoolAmount.Decimals()
}

type poolRecord struct {
	Pool                    ids.ID   `serialize:"true"`
	Token                   ids.ID   `serialize:"true"`
	Decimals                uint8    `serialize:"true"`
	PoolAmount              [32]byte `serialize:"true"`
	ReservedAmount          [32]byte `serialize:"true"`
	FeeReserves             [32]byte `serialize:"true"`
	ClaimableRebates        [32]byte `serialize:"true"`
	GuaranteedUSD           [32]byte `serialize:"true"`
	SyntheticSupply         [32]byte `serialize:"true"`
	FundingIndex            [32]byte `serialize:"true"`
	LongSkewIndex           [32]byte `serialize:"true"`
	ShortSkewIndex          [32]byte `serialize:"true"`
	LastFundingTime         uint64   `serialize:"true"`
	LastSkewTime            uint64   `serialize:"true"`
	GlobalLongSize          [32]byte `serialize:"true"`
	GlobalShortSize         [32]byte `serialize:"true"`
	GlobalShortAveragePrice [32]byte `serialize:"true"`
}

func (p *Pool) record() *poolRecord {
	return &poolRecord{
		Pool:                    p.Pool,
		Token:                   p.Token,
		Decimals:                p.Decimals(),
		PoolAmount:              p.PoolAmount.Bytes32(),
		ReservedAmount:          p.ReservedAmount.Bytes32(),
		FeeReserves:             p.FeeReserves.Bytes32(),
		ClaimableRebates:        p.ClaimableRebates.Bytes32(),
		GuaranteedUSD:           p.GuaranteedUSD.Bytes32(),
		SyntheticSupply:         p.SyntheticSupply.Bytes32(),
		FundingIndex:            p.FundingIndex.Bytes32(),
		LongSkewIndex:           p.LongSkewIndex.Bytes32(),
		ShortSkewIndex:          p.ShortSkewIndex.Bytes32(),
		LastFundingTime:         p.LastFundingTime,
		LastSkewTime:            p.LastSkewTime,
		GlobalLongSize:          p.GlobalLongSize.Bytes32(),
		GlobalShortSize:         p.GlobalShortSize.Bytes32(),
		GlobalShortAveragePrice: p.GlobalShortAveragePrice.Bytes32(),
	}
}

func (r *poolRecord) pool() Pool {
	return Pool{
		Pool:                    r.Pool,
		Token:                   r.Token,
		PoolAmount:              fixed.AmountFromBytes32(r.PoolAmount, r.Decimals),
		ReservedAmount:          fixed.AmountFromBytes32(r.ReservedAmount, r.Decimals),
		FeeReserves:             fixed.AmountFromBytes32(r.FeeReserves, r.Decimals),
		ClaimableRebates:        fixed.AmountFromBytes32(r.ClaimableRebates, r.Decimals),
		GuaranteedUSD:           fixed.USDFromBytes32(r.GuaranteedUSD),
		SyntheticSupply:         fixed.USDFromBytes32(r.SyntheticSupply),
		FundingIndex:            fixed.IndexFromBytes32(r.FundingIndex),
		LongSkewIndex:           fixed.IndexFromBytes32(r.LongSkewIndex),
		ShortSkewIndex:          fixed.IndexFromBytes32(r.ShortSkewIndex),
		LastFundingTime:         r.LastFundingTime,
		LastSkewTime:            r.LastSkewTime,
		GlobalLongSize:          fixed.USDFromBytes32(r.GlobalLongSize),
		GlobalShortSize:         fixed.USDFromBytes32(r.GlobalShortSize),
		GlobalShortAveragePrice: fixed.PriceFromBytes32(r.GlobalShortAveragePrice),
	}
}

type claimRecord struct {
	Amount   [32]byte `serialize:"true"`
	Decimals uint8    `serialize:"true"`
}
