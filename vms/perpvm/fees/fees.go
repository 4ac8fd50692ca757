// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fees prices the costs a position owes: the taker fee on size
// changes, funding accrued since entry, the skew charge or rebate, and the
// referral discount.
package fees

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/state"
)

// ReferralLookup returns the referral terms of an account. ok is false for
// accounts without a referrer.
type ReferralLookup interface {
	Discount(account ids.ShortID) (discountBps, rebateBps fixed.BPS, referrer ids.ShortID, ok bool)
}

// Margin is the breakdown of a margin fee.
type Margin struct {
	// Position is the taker fee on the size change.
	Position fixed.USD
	// Funding is the funding accrued on the existing size.
	Funding fixed.USD
	// Discount is the referral discount removed from Position+Funding.
	Discount fixed.USD
	// Charged is what the position pays.
	Charged fixed.USD
	// Rebate is the part of Charged owed to Referrer.
	Rebate   fixed.USD
	Referrer ids.ShortID
}

// Engine computes fees.
type Engine struct {
	marginFeeBps fixed.BPS
	referrals    ReferralLookup
}

// New returns a fee engine. referrals may be nil.
func New(marginFeeBps fixed.BPS, referrals ReferralLookup) *Engine {
	return &Engine{
		marginFeeBps: marginFeeBps,
		referrals:    referrals,
	}
}

// PositionFee returns the taker fee on sizeDelta.
func (e *Engine) PositionFee(sizeDelta fixed.USD) (fixed.USD, error) {
	return sizeDelta.MulBPS(e.marginFeeBps)
}

// MarginFee returns the fee for changing size by sizeDelta, including the
// funding owed on size since entryFunding.
func (e *Engine) MarginFee(account ids.ShortID, size, sizeDelta fixed.USD, entryFunding, currentFunding fixed.Index) (Margin, error) {
	positionFee, err := e.PositionFee(sizeDelta)
	if err != nil {
		return Margin{}, err
	}
	funding, err := fixed.Accrued(entryFunding, currentFunding, size)
	if err != nil {
		return Margin{}, err
	}
	total, err := positionFee.Add(funding)
	if err != nil {
		return Margin{}, err
	}
	m := Margin{
		Position: positionFee,
		Funding:  funding,
		Charged:  total,
	}
	if e.referrals == nil {
		return m, nil
	}
	discountBps, rebateBps, referrer, ok := e.referrals.Discount(account)
	if !ok {
		return m, nil
	}
	if m.Discount, err = total.MulBPS(discountBps); err != nil {
		return Margin{}, err
	}
	if m.Charged, err = total.Sub(m.Discount); err != nil {
		return Margin{}, err
	}
	if m.Rebate, err = m.Charged.MulBPS(rebateBps); err != nil {
		return Margin{}, err
	}
	m.Referrer = referrer
	return m, nil
}

// Skew is a skew fee. A rebate is owed to the position; otherwise the
// amount is charged to it.
type Skew struct {
	Rebate bool
	USD    fixed.USD
}

// Charge returns the amount the position pays, zero for a rebate.
func (s Skew) Charge() fixed.USD {
	if s.Rebate {
		return fixed.USD{}
	}
	return s.USD
}

// SkewFee prices the skew accrued by pos since entry against the index
// aggregate idx. A position on the minority side of open interest earns the
// opposite side's accrual; any other position pays its own side's accrual.
func SkewFee(pos *state.Position, idx *state.Pool) (Skew, error) {
	if pos.IsZero() {
		return Skew{}, nil
	}
	var (
		own, ownEntry     = idx.LongSkewIndex, pos.EntryLongSkewIndex
		other, otherEntry = idx.ShortSkewIndex, pos.EntryShortSkewIndex
		minority          = idx.GlobalLongSize.Lt(idx.GlobalShortSize)
	)
	if !pos.ID.IsLong {
		own, ownEntry, other, otherEntry = other, otherEntry, own, ownEntry
		minority = idx.GlobalShortSize.Lt(idx.GlobalLongSize)
	}
	if minority {
		rebate, err := fixed.Accrued(otherEntry, other, pos.Size)
		if err != nil {
			return Skew{}, err
		}
		return Skew{Rebate: true, USD: rebate}, nil
	}
	charge, err := fixed.Accrued(ownEntry, own, pos.Size)
	if err != nil {
		return Skew{}, err
	}
	return Skew{USD: charge}, nil
}
