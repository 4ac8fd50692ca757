// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/perps/utils/timer/mockable"
	"github.com/luxfi/perps/vms/perpvm/fixed"
)

// Feed quotes every asset at two prices. The max price is the greater of
// spot and TWAP widened up by the spread, the min price is the lesser
// widened down. Takers always trade at the side worse for them.
type Feed struct {
	clock     *mockable.Clock
	log       log.Logger
	window    time.Duration
	spreadBps fixed.BPS

	mu    sync.RWMutex
	twaps map[ids.ID]*TWAP
}

func NewFeed(clock *mockable.Clock, log log.Logger, window time.Duration, spreadBps fixed.BPS) (*Feed, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	if spreadBps >= fixed.BPSDenominator {
		return nil, fmt.Errorf("%w: %d bps", ErrInvalidSpread, spreadBps)
	}
	return &Feed{
		clock:     clock,
		log:       log,
		window:    window,
		spreadBps: spreadBps,
		twaps:     make(map[ids.ID]*TWAP),
	}, nil
}

// Record stores a spot price for asset at the current clock time.
func (f *Feed) Record(asset ids.ID, price fixed.Price) error {
	twap, err := f.twap(asset)
	if err != nil {
		return err
	}
	if err := twap.Record(price, f.clock.Time()); err != nil {
		return fmt.Errorf("%w: %s", err, asset)
	}
	f.log.Debug("recorded price",
		log.Stringer("asset", asset),
		log.Stringer("price", price),
	)
	return nil
}

func (f *Feed) twap(asset ids.ID) (*TWAP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t, ok := f.twaps[asset]; ok {
		return t, nil
	}
	t, err := NewTWAP(f.window)
	if err != nil {
		return nil, err
	}
	f.twaps[asset] = t
	return t, nil
}

func (f *Feed) prices(asset ids.ID) (fixed.Price, fixed.Price, error) {
	f.mu.RLock()
	t, ok := f.twaps[asset]
	f.mu.RUnlock()
	if !ok {
		return fixed.Price{}, fixed.Price{}, fmt.Errorf("%w: %s", ErrNoObservations, asset)
	}
	last, err := t.Last()
	if err != nil {
		return fixed.Price{}, fixed.Price{}, err
	}
	avg, err := t.PriceAt(f.clock.Time())
	if err != nil {
		return fixed.Price{}, fixed.Price{}, err
	}
	return last.Price, avg, nil
}

func (f *Feed) MaxPrice(asset ids.ID) (fixed.Price, error) {
	spot, avg, err := f.prices(asset)
	if err != nil {
		return fixed.Price{}, err
	}
	return fixed.MaxPrice(spot, avg).MulBPS(fixed.BPSDenominator + f.spreadBps)
}

func (f *Feed) MinPrice(asset ids.ID) (fixed.Price, error) {
	spot, avg, err := f.prices(asset)
	if err != nil {
		return fixed.Price{}, err
	}
	return fixed.MinPrice(spot, avg).MulBPS(fixed.BPSDenominator - f.spreadBps)
}
