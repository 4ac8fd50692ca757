// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package accrual advances the cumulative funding and skew indices of pool
// aggregates with elapsed time.
package accrual

import (
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	safemath "github.com/luxfi/perps/utils/math"
	"github.com/luxfi/perps/vms/perpvm/config"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/state"
	"github.com/luxfi/perps/vms/perpvm/vault"
)

var ErrUnknownToken = errors.New("unknown token")

// Pools stages pool aggregates. It is satisfied by *vault.Accountant.
type Pools interface {
	Pool(pool, token ids.ID) (*state.Pool, error)
}

var _ Pools = (*vault.Accountant)(nil)

// Index advances the funding index of collateral aggregates and the skew
// indices of index aggregates.
type Index struct {
	cfg *config.Config
	log log.Logger
}

func New(cfg *config.Config, log log.Logger) *Index {
	return &Index{
		cfg: cfg,
		log: log,
	}
}

// Advance brings the funding index of (pool, collateral) and the skew
// indices of (pool, index) up to now. Calling it twice with the same now is
// a no-op, and a now behind the last update is ignored.
func (x *Index) Advance(pools Pools, pool, collateral, index ids.ID, now uint64) error {
	coll, err := pools.Pool(pool, collateral)
	if err != nil {
		return err
	}
	if err := x.advanceFunding(coll, now); err != nil {
		return err
	}
	idx, err := pools.Pool(pool, index)
	if err != nil {
		return err
	}
	return x.advanceSkew(idx, now)
}

func (x *Index) interval() uint64 {
	return uint64(x.cfg.FundingInterval / time.Second)
}

func (x *Index) advanceFunding(p *state.Pool, now uint64) error {
	if p.LastFundingTime == 0 {
		p.LastFundingTime = now
		return nil
	}
	elapsed, err := safemath.Sub(now, p.LastFundingTime)
	if err != nil || elapsed == 0 {
		return nil
	}
	token, ok := x.cfg.Token(p.Token)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, p.Token)
	}
	increment, err := FundingIncrement(token.FundingRateFactor, p.ReservedAmount, p.PoolAmount, elapsed, x.interval())
	if err != nil {
		return err
	}
	next, err := p.FundingIndex.Add(increment)
	if err != nil {
		return err
	}
	p.FundingIndex = next
	p.LastFundingTime = now
	return nil
}

func (x *Index) advanceSkew(p *state.Pool, now uint64) error {
	if p.LastSkewTime == 0 {
		p.LastSkewTime = now
		return nil
	}
	elapsed, err := safemath.Sub(now, p.LastSkewTime)
	if err != nil || elapsed == 0 {
		return nil
	}
	token, ok := x.cfg.Token(p.Token)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, p.Token)
	}
	longInc, shortInc, err := SkewIncrement(token.SkewRateFactor, p.GlobalLongSize, p.GlobalShortSize, elapsed, x.interval())
	if err != nil {
		return err
	}
	if p.LongSkewIndex, err = p.LongSkewIndex.Add(longInc); err != nil {
		return err
	}
	if p.ShortSkewIndex, err = p.ShortSkewIndex.Add(shortInc); err != nil {
		return err
	}
	p.LastSkewTime = now
	x.log.Debug("advanced skew indices",
		log.Stringer("pool", p.Pool),
		log.Stringer("token", p.Token),
		log.Uint64("elapsed", elapsed),
		log.Stringer("longSkewIndex", p.LongSkewIndex),
		log.Stringer("shortSkewIndex", p.ShortSkewIndex),
	)
	return nil
}

// FundingIncrement returns rate * reserved / pool * elapsed / interval.
// An empty pool accrues nothing.
func FundingIncrement(rate fixed.Index, reserved, pool fixed.Amount, elapsed, interval uint64) (fixed.Index, error) {
	if pool.IsZero() || reserved.IsZero() || rate.IsZero() {
		return fixed.Index{}, nil
	}
	utilized, err := rate.MulDiv(reserved.Int(), pool.Int())
	if err != nil {
		return fixed.Index{}, err
	}
	return utilized.MulDiv(uint256.NewInt(elapsed), uint256.NewInt(interval))
}

// SkewIncrement returns the growth of the long and short skew indices. Only
// the majority side grows, by rate * |long - short| / (long + short) per
// interval.
func SkewIncrement(rate fixed.Index, long, short fixed.USD, elapsed, interval uint64) (fixed.Index, fixed.Index, error) {
	if rate.IsZero() || long.Cmp(short) == 0 {
		return fixed.Index{}, fixed.Index{}, nil
	}
	total, err := long.Add(short)
	if err != nil {
		return fixed.Index{}, fixed.Index{}, err
	}
	var imbalance fixed.USD
	if long.Gt(short) {
		imbalance, err = long.Sub(short)
	} else {
		imbalance, err = short.Sub(long)
	}
	if err != nil {
		return fixed.Index{}, fixed.Index{}, err
	}
	skewed, err := rate.MulDiv(imbalance.Int(), total.Int())
	if err != nil {
		return fixed.Index{}, fixed.Index{}, err
	}
	increment, err := skewed.MulDiv(uint256.NewInt(elapsed), uint256.NewInt(interval))
	if err != nil {
		return fixed.Index{}, fixed.Index{}, err
	}
	if long.Gt(short) {
		return increment, fixed.Index{}, nil
	}
	return fixed.Index{}, increment, nil
}
