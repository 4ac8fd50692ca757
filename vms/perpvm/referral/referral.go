// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package referral implements tiered referral codes. A referred trader gets
// a discount on margin fees and part of what they pay is rebated to the code
// owner.
package referral

import (
	"errors"
	"sync"

	"github.com/luxfi/ids"

	"github.com/luxfi/perps/vms/perpvm/fees"
	"github.com/luxfi/perps/vms/perpvm/fixed"
)

var (
	ErrCodeExists        = errors.New("referral code already exists")
	ErrCodeNotFound      = errors.New("referral code not found")
	ErrSelfReferral      = errors.New("cannot use own referral code")
	ErrAlreadyReferred   = errors.New("account already has a referrer")
	ErrInvalidRebateRate = errors.New("invalid rebate rate")
	ErrTooManyCodes      = errors.New("maximum referral codes reached")
	ErrNotCodeOwner      = errors.New("not the code owner")

	_ fees.ReferralLookup = (*Engine)(nil)
)

const (
	maxCodesPerOwner = 5
	maxCustomRebate  = fixed.BPS(5_000)
)

// Tier is a level of the referral program. A referrer reaches a tier once
// their referred volume and referral count meet its minimums.
type Tier struct {
	Level           uint8
	MinVolume       fixed.USD
	MinReferrals    uint32
	ReferrerRebate  fixed.BPS
	RefereeDiscount fixed.BPS
}

// DefaultTiers returns the standard referral tiers.
func DefaultTiers() []Tier {
	return []Tier{
		{Level: 1, MinVolume: fixed.USD{}, MinReferrals: 0, ReferrerRebate: 500, RefereeDiscount: 500},
		{Level: 2, MinVolume: fixed.Dollars(1_000_000), MinReferrals: 3, ReferrerRebate: 1_000, RefereeDiscount: 1_000},
		{Level: 3, MinVolume: fixed.Dollars(5_000_000), MinReferrals: 10, ReferrerRebate: 1_500, RefereeDiscount: 1_000},
		{Level: 4, MinVolume: fixed.Dollars(25_000_000), MinReferrals: 25, ReferrerRebate: 2_000, RefereeDiscount: 1_000},
		{Level: 5, MinVolume: fixed.Dollars(100_000_000), MinReferrals: 50, ReferrerRebate: 2_500, RefereeDiscount: 1_500},
		{Level: 6, MinVolume: fixed.Dollars(500_000_000), MinReferrals: 100, ReferrerRebate: 3_000, RefereeDiscount: 2_000},
	}
}

// Code is a referral code owned by a referrer.
type Code struct {
	Code         string
	Owner        ids.ShortID
	CustomRebate fixed.BPS // 0 uses the tier rebate
	Active       bool
}

// Referrer is the owner of one or more codes.
type Referrer struct {
	Account   ids.ShortID
	Codes     []string
	Tier      uint8
	Referrals uint32
	Volume    fixed.USD
}

type referee struct {
	referrer ids.ShortID
	code     string
	volume   fixed.USD
}

// Engine manages referral codes and tiers. It is safe for concurrent use.
type Engine struct {
	mu        sync.RWMutex
	tiers     []Tier
	codes     map[string]*Code
	referrers map[ids.ShortID]*Referrer
	referees  map[ids.ShortID]*referee
}

func New(tiers []Tier) *Engine {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	return &Engine{
		tiers:     tiers,
		codes:     make(map[string]*Code),
		referrers: make(map[ids.ShortID]*Referrer),
		referees:  make(map[ids.ShortID]*referee),
	}
}

// CreateCode registers code for owner.
func (e *Engine) CreateCode(owner ids.ShortID, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.codes[code]; exists {
		return ErrCodeExists
	}
	r, exists := e.referrers[owner]
	if !exists {
		r = &Referrer{Account: owner, Tier: e.tiers[0].Level}
		e.referrers[owner] = r
	}
	if len(r.Codes) >= maxCodesPerOwner {
		return ErrTooManyCodes
	}
	r.Codes = append(r.Codes, code)
	e.codes[code] = &Code{Code: code, Owner: owner, Active: true}
	return nil
}

// UseCode links account to the owner of code. An account can be referred
// once.
func (e *Engine) UseCode(account ids.ShortID, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, exists := e.codes[code]
	if !exists || !c.Active {
		return ErrCodeNotFound
	}
	if c.Owner == account {
		return ErrSelfReferral
	}
	if _, exists := e.referees[account]; exists {
		return ErrAlreadyReferred
	}
	e.referees[account] = &referee{referrer: c.Owner, code: code}

	r := e.referrers[c.Owner]
	r.Referrals++
	e.updateTier(r)
	return nil
}

// SetCustomRebate overrides the tier rebate for trades made with code.
func (e *Engine) SetCustomRebate(code string, rate fixed.BPS) error {
	if rate > maxCustomRebate {
		return ErrInvalidRebateRate
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c, exists := e.codes[code]
	if !exists {
		return ErrCodeNotFound
	}
	c.CustomRebate = rate
	return nil
}

// DeactivateCode stops code from accepting new referees. Existing referees
// keep their terms.
func (e *Engine) DeactivateCode(code string, owner ids.ShortID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, exists := e.codes[code]
	if !exists {
		return ErrCodeNotFound
	}
	if c.Owner != owner {
		return ErrNotCodeOwner
	}
	c.Active = false
	return nil
}

// RecordVolume adds traded notional of account to its referrer's volume and
// re-evaluates the referrer's tier.
func (e *Engine) RecordVolume(account ids.ShortID, volume fixed.USD) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ref, exists := e.referees[account]
	if !exists {
		return nil
	}
	var err error
	if ref.volume, err = ref.volume.Add(volume); err != nil {
		return err
	}
	r := e.referrers[ref.referrer]
	if r.Volume, err = r.Volume.Add(volume); err != nil {
		return err
	}
	e.updateTier(r)
	return nil
}

// Discount implements fees.ReferralLookup.
func (e *Engine) Discount(account ids.ShortID) (fixed.BPS, fixed.BPS, ids.ShortID, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ref, exists := e.referees[account]
	if !exists {
		return 0, 0, ids.ShortEmpty, false
	}
	tier := e.tier(e.referrers[ref.referrer].Tier)
	rebate := tier.ReferrerRebate
	if c := e.codes[ref.code]; c.CustomRebate > 0 {
		rebate = c.CustomRebate
	}
	return tier.RefereeDiscount, rebate, ref.referrer, true
}

// Referrer returns a copy of the referrer record of account.
func (e *Engine) Referrer(account ids.ShortID) (Referrer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, exists := e.referrers[account]
	if !exists {
		return Referrer{}, false
	}
	cp := *r
	cp.Codes = append([]string(nil), r.Codes...)
	return cp, true
}

func (e *Engine) tier(level uint8) Tier {
	for _, t := range e.tiers {
		if t.Level == level {
			return t
		}
	}
	return e.tiers[0]
}

func (e *Engine) updateTier(r *Referrer) {
	for i := len(e.tiers) - 1; i >= 0; i-- {
		t := e.tiers[i]
		if r.Volume.Cmp(t.MinVolume) >= 0 && r.Referrals >= t.MinReferrals {
			r.Tier = t.Level
			return
		}
	}
	r.Tier = e.tiers[0].Level
}
