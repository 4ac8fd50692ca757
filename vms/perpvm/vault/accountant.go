// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vault implements the pool-level accounting shared by every
// position: pool liquidity, reserves, guaranteed payouts, synthetic supply,
// fee reserves and global open interest.
package vault

import (
	"errors"
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/pnl"
	"github.com/luxfi/perps/vms/perpvm/state"
)

var (
	ErrArithmeticUnderflow   = errors.New("arithmetic underflow")
	ErrReserveExceedsPool    = errors.New("reserved amount exceeds pool amount")
	ErrInsufficientLiquidity = errors.New("insufficient unreserved liquidity")
)

// Store loads and saves pool aggregates.
type Store interface {
	GetPool(pool, token ids.ID) (state.Pool, error)
	PutPool(p *state.Pool) error
}

type poolKey struct {
	pool  ids.ID
	token ids.ID
}

// Accountant stages changes to pool aggregates for a single transition.
// Aggregates are loaded once, mutated in memory and written back by Flush.
// Decreases never clamp: a result below zero fails with
// ErrArithmeticUnderflow and leaves the aggregate untouched.
type Accountant struct {
	store Store
	log   log.Logger

	pools map[poolKey]*state.Pool
	order []poolKey
}

func New(store Store, log log.Logger) *Accountant {
	return &Accountant{
		store: store,
		log:   log,
		pools: make(map[poolKey]*state.Pool),
	}
}

// Pool returns the staged aggregate of token in pool. Repeated calls return
// the same pointer.
func (a *Accountant) Pool(pool, token ids.ID) (*state.Pool, error) {
	key := poolKey{pool: pool, token: token}
	if p, ok := a.pools[key]; ok {
		return p, nil
	}
	p, err := a.store.GetPool(pool, token)
	if err != nil {
		return nil, err
	}
	a.pools[key] = &p
	a.order = append(a.order, key)
	return &p, nil
}

// Flush writes every staged aggregate to the store in load order.
func (a *Accountant) Flush() error {
	for _, key := range a.order {
		if err := a.store.PutPool(a.pools[key]); err != nil {
			return err
		}
	}
	return nil
}

func underflow(field string, p *state.Pool, err error) error {
	if errors.Is(err, fixed.ErrUnderflow) {
		return fmt.Errorf("%w: %s of %s/%s", ErrArithmeticUnderflow, field, p.Pool, p.Token)
	}
	return err
}

func (a *Accountant) IncreasePoolAmount(pool, token ids.ID, amount fixed.Amount) error {
	p, err := a.Pool(pool, token)
	if err != nil {
		return err
	}
	next, err := p.PoolAmount.Add(amount)
	if err != nil {
		return err
	}
	p.PoolAmount = next
	return nil
}

// DecreasePoolAmount fails if the pool would drop below its reserves.
func (a *Accountant) DecreasePoolAmount(pool, token ids.ID, amount fixed.Amount) error {
	p, err := a.Pool(pool, token)
	if err != nil {
		return err
	}
	next, err := p.PoolAmount.Sub(amount)
	if err != nil {
		return underflow("pool amount", p, err)
	}
	if next.Lt(p.ReservedAmount) {
		return fmt.Errorf("%w: pool %s < reserved %s", ErrReserveExceedsPool, next, p.ReservedAmount)
	}
	p.PoolAmount = next
	return nil
}

// IncreaseReserved fails if reserves would exceed the pool.
func (a *Accountant) IncreaseReserved(pool, token ids.ID, amount fixed.Amount) error {
	p, err := a.Pool(pool, token)
	if err != nil {
		return err
	}
	next, err := p.ReservedAmount.Add(amount)
	if err != nil {
		return err
	}
	if p.PoolAmount.Lt(next) {
		return fmt.Errorf("%w: reserved %s > pool %s", ErrReserveExceedsPool, next, p.PoolAmount)
	}
	p.ReservedAmount = next
	return nil
}

func (a *Accountant) DecreaseReserved(pool, token ids.ID, amount fixed.Amount) error {
	p, err := a.Pool(pool, token)
	if err != nil {
		return err
	}
	next, err := p.ReservedAmount.Sub(amount)
	if err != nil {
		return underflow("reserved amount", p, err)
	}
	p.ReservedAmount = next
	return nil
}

func (a *Accountant) IncreaseFeeReserves(pool, token ids.ID, amount fixed.Amount) error {
	p, err := a.Pool(pool, token)
	if err != nil {
		return err
	}
	next, err := p.FeeReserves.Add(amount)
	if err != nil {
		return err
	}
	p.FeeReserves = next
	return nil
}

func (a *Accountant) DecreaseFeeReserves(pool, token ids.ID, amount fixed.Amount) error {
	p, err := a.Pool(pool, token)
	if err != nil {
		return err
	}
	next, err := p.FeeReserves.Sub(amount)
	if err != nil {
		return underflow("fee reserves", p, err)
	}
	p.FeeReserves = next
	return nil
}

func (a *Accountant) IncreaseClaimableRebates(pool, token ids.ID, amount fixed.Amount) error {
	p, err := a.Pool(pool, token)
	if err != nil {
		return err
	}
	next, err := p.ClaimableRebates.Add(amount)
	if err != nil {
		return err
	}
	p.ClaimableRebates = next
	return nil
}

func (a *Accountant) DecreaseClaimableRebates(pool, token ids.ID, amount fixed.Amount) error {
	p, err := a.Pool(pool, token)
	if err != nil {
		return err
	}
	next, err := p.ClaimableRebates.Sub(amount)
	if err != nil {
		return underflow("claimable rebates", p, err)
	}
	p.ClaimableRebates = next
	return nil
}

// usdField applies a checked add or sub to one USD field of an aggregate.
func (a *Accountant) usdField(pool, token ids.ID, name string, field func(*state.Pool) *fixed.USD, delta fixed.USD, increase bool) error {
	p, err := a.Pool(pool, token)
	if err != nil {
		return err
	}
	v := field(p)
	var next fixed.USD
	if increase {
		next, err = v.Add(delta)
	} else {
		next, err = v.Sub(delta)
	}
	if err != nil {
		return underflow(name, p, err)
	}
	*v = next
	return nil
}

func guaranteed(p *state.Pool) *fixed.USD  { return &p.GuaranteedUSD }
func synthetic(p *state.Pool) *fixed.USD   { return &p.SyntheticSupply }
func globalLong(p *state.Pool) *fixed.USD  { return &p.GlobalLongSize }
func globalShort(p *state.Pool) *fixed.USD { return &p.GlobalShortSize }

func (a *Accountant) IncreaseGuaranteedUSD(pool, token ids.ID, usd fixed.USD) error {
	return a.usdField(pool, token, "guaranteed usd", guaranteed, usd, true)
}

func (a *Accountant) DecreaseGuaranteedUSD(pool, token ids.ID, usd fixed.USD) error {
	return a.usdField(pool, token, "guaranteed usd", guaranteed, usd, false)
}

func (a *Accountant) IncreaseSyntheticSupply(pool, token ids.ID, usd fixed.USD) error {
	return a.usdField(pool, token, "synthetic supply", synthetic, usd, true)
}

func (a *Accountant) DecreaseSyntheticSupply(pool, token ids.ID, usd fixed.USD) error {
	return a.usdField(pool, token, "synthetic supply", synthetic, usd, false)
}

func (a *Accountant) IncreaseGlobalLongSize(pool, token ids.ID, usd fixed.USD) error {
	return a.usdField(pool, token, "global long size", globalLong, usd, true)
}

func (a *Accountant) DecreaseGlobalLongSize(pool, token ids.ID, usd fixed.USD) error {
	return a.usdField(pool, token, "global long size", globalLong, usd, false)
}

func (a *Accountant) IncreaseGlobalShortSize(pool, token ids.ID, usd fixed.USD) error {
	return a.usdField(pool, token, "global short size", globalShort, usd, true)
}

func (a *Accountant) DecreaseGlobalShortSize(pool, token ids.ID, usd fixed.USD) error {
	return a.usdField(pool, token, "global short size", globalShort, usd, false)
}

func (a *Accountant) SetGlobalShortAveragePrice(pool, token ids.ID, price fixed.Price) error {
	p, err := a.Pool(pool, token)
	if err != nil {
		return err
	}
	p.GlobalShortAveragePrice = price
	return nil
}

// NextGlobalShortAveragePrice returns the average entry price of all shorts
// on token after sizeDelta more is opened at price. Call it before
// IncreaseGlobalShortSize.
func (a *Accountant) NextGlobalShortAveragePrice(pool, token ids.ID, price fixed.Price, sizeDelta fixed.USD) (fixed.Price, error) {
	p, err := a.Pool(pool, token)
	if err != nil {
		return fixed.Price{}, err
	}
	if p.GlobalShortSize.IsZero() || p.GlobalShortAveragePrice.IsZero() {
		return price, nil
	}
	delta, err := pnl.Delta(p.GlobalShortSize, p.GlobalShortAveragePrice, price, false)
	if err != nil {
		return fixed.Price{}, err
	}
	return pnl.NextAveragePrice(p.GlobalShortSize, sizeDelta, price, delta, false)
}

// CheckWithdraw fails unless amount can leave the pool without dipping
// into reserved liquidity.
func (a *Accountant) CheckWithdraw(pool, token ids.ID, amount fixed.Amount) error {
	p, err := a.Pool(pool, token)
	if err != nil {
		return err
	}
	required, err := p.ReservedAmount.Add(amount)
	if err != nil {
		return err
	}
	if p.PoolAmount.Lt(required) {
		a.log.Debug("withdraw exceeds unreserved liquidity",
			log.Stringer("pool", pool),
			log.Stringer("token", token),
			log.Stringer("amount", amount),
			log.Stringer("poolAmount", p.PoolAmount),
			log.Stringer("reserved", p.ReservedAmount),
		)
		return fmt.Errorf("%w: %s requested, %s unreserved", ErrInsufficientLiquidity, amount, unreserved(p))
	}
	return nil
}

func unreserved(p *state.Pool) fixed.Amount {
	free, err := p.PoolAmount.Sub(p.ReservedAmount)
	if err != nil {
		return fixed.ZeroAmount(p.Decimals())
	}
	return free
}
