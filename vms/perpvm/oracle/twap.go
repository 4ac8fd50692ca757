// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package oracle provides the manipulation-resistant price feed the ledger
// reads min and max prices from.
package oracle

import (
	"errors"
	"sync"
	"time"

	"github.com/holiman/uint256"

	safemath "github.com/luxfi/perps/utils/math"
	"github.com/luxfi/perps/vms/perpvm/fixed"
)

const (
	// DefaultTWAPWindow is the default TWAP calculation window.
	DefaultTWAPWindow = 30 * time.Minute
	// MinTWAPWindow is the minimum allowed TWAP window.
	MinTWAPWindow = time.Minute
	// MaxObservations is the maximum number of observations to keep.
	MaxObservations = 1000
)

var (
	ErrNoObservations = errors.New("no price observations available")
	ErrInvalidWindow  = errors.New("TWAP window must be positive")
	ErrInvalidPrice   = errors.New("price must be positive")
	ErrInvalidSpread  = errors.New("spread must be below 100%")
)

// Observation is a price seen at a point in time.
type Observation struct {
	Price     fixed.Price
	Timestamp time.Time
}

// TWAP maintains a rolling window of observations of one asset and
// averages them weighted by how long each price was in effect.
type TWAP struct {
	mu           sync.RWMutex
	observations []Observation
	window       time.Duration
}

func NewTWAP(window time.Duration) (*TWAP, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	if window < MinTWAPWindow {
		window = MinTWAPWindow
	}
	return &TWAP{
		observations: make([]Observation, 0, 64),
		window:       window,
	}, nil
}

// Record adds an observation. Observations older than the latest one are
// dropped.
func (t *TWAP) Record(price fixed.Price, timestamp time.Time) error {
	if price.IsZero() {
		return ErrInvalidPrice
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.observations); n > 0 && timestamp.Before(t.observations[n-1].Timestamp) {
		return nil
	}
	t.observations = append(t.observations, Observation{
		Price:     price,
		Timestamp: timestamp,
	})
	t.prune(timestamp)
	return nil
}

// prune drops observations older than twice the window. Must be called with
// the lock held.
func (t *TWAP) prune(now time.Time) {
	cutoff := now.Add(-2 * t.window)
	start := 0
	for start < len(t.observations)-1 && !t.observations[start].Timestamp.After(cutoff) {
		start++
	}
	if excess := len(t.observations) - start - MaxObservations; excess > 0 {
		start += excess
	}
	if start > 0 {
		t.observations = append(t.observations[:0], t.observations[start:]...)
	}
}

// PriceAt returns the time-weighted average price over the window ending at
// at. Without observations inside the window the latest earlier one is
// used.
func (t *TWAP) PriceAt(at time.Time) (fixed.Price, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	windowStart := at.Add(-t.window)
	var relevant []Observation
	for _, obs := range t.observations {
		if obs.Timestamp.After(windowStart) && !obs.Timestamp.After(at) {
			relevant = append(relevant, obs)
		}
	}
	if len(relevant) == 0 {
		for i := len(t.observations) - 1; i >= 0; i-- {
			if !t.observations[i].Timestamp.After(at) {
				return t.observations[i].Price, nil
			}
		}
		return fixed.Price{}, ErrNoObservations
	}
	if len(relevant) == 1 {
		return relevant[0].Price, nil
	}

	var (
		weighted = new(uint256.Int)
		total    uint64
	)
	for i, obs := range relevant {
		end := at
		if i+1 < len(relevant) {
			end = relevant[i+1].Timestamp
		}
		secs := uint64(end.Sub(obs.Timestamp) / time.Second)
		if secs == 0 {
			continue
		}
		term, err := safemath.Mul256(obs.Price.Int(), uint256.NewInt(secs))
		if err != nil {
			return fixed.Price{}, err
		}
		if weighted, err = safemath.Add256(weighted, term); err != nil {
			return fixed.Price{}, err
		}
		total += secs
	}
	if total == 0 {
		return relevant[len(relevant)-1].Price, nil
	}
	return fixed.PriceFromInt(weighted.Div(weighted, uint256.NewInt(total))), nil
}

// Last returns the most recent observation.
func (t *TWAP) Last() (Observation, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.observations) == 0 {
		return Observation{}, ErrNoObservations
	}
	return t.observations[len(t.observations)-1], nil
}

// ObservationCount returns the number of retained observations.
func (t *TWAP) ObservationCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.observations)
}

func (t *TWAP) Window() time.Duration {
	return t.window
}
