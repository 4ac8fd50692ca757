// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"testing"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/perps/utils/timer/mockable"
	"github.com/luxfi/perps/vms/perpvm/fixed"
)

var start = time.Unix(1_700_000_000, 0)

func TestTWAP(t *testing.T) {
	require := require.New(t)

	twap, err := NewTWAP(30 * time.Minute)
	require.NoError(err)

	_, err = twap.PriceAt(start)
	require.ErrorIs(err, ErrNoObservations)
	require.ErrorIs(twap.Record(fixed.Price{}, start), ErrInvalidPrice)

	require.NoError(twap.Record(fixed.NewPrice(100), start))
	price, err := twap.PriceAt(start)
	require.NoError(err)
	require.Equal(fixed.NewPrice(100), price)

	require.NoError(twap.Record(fixed.NewPrice(110), start.Add(10*time.Minute)))
	price, err = twap.PriceAt(start.Add(20 * time.Minute))
	require.NoError(err)
	require.Equal(fixed.NewPrice(105), price)

	// out of order observations are ignored
	require.NoError(twap.Record(fixed.NewPrice(1), start.Add(time.Minute)))
	require.Equal(2, twap.ObservationCount())

	last, err := twap.Last()
	require.NoError(err)
	require.Equal(fixed.NewPrice(110), last.Price)
}

func TestTWAPFallsBackToLastBeforeWindow(t *testing.T) {
	require := require.New(t)

	twap, err := NewTWAP(5 * time.Minute)
	require.NoError(err)
	require.NoError(twap.Record(fixed.NewPrice(42), start))

	price, err := twap.PriceAt(start.Add(8 * time.Minute))
	require.NoError(err)
	require.Equal(fixed.NewPrice(42), price)
}

func TestTWAPPrunes(t *testing.T) {
	require := require.New(t)

	twap, err := NewTWAP(time.Minute)
	require.NoError(err)
	for i := 0; i < 10; i++ {
		require.NoError(twap.Record(fixed.NewPrice(100), start.Add(time.Duration(i)*time.Minute)))
	}
	require.LessOrEqual(twap.ObservationCount(), 3)
}

func TestNewTWAPInvalidWindow(t *testing.T) {
	_, err := NewTWAP(0)
	require.ErrorIs(t, err, ErrInvalidWindow)
}

func TestFeed(t *testing.T) {
	require := require.New(t)

	clock := &mockable.Clock{}
	clock.Set(start)
	feed, err := NewFeed(clock, log.NoLog{}, 30*time.Minute, 10)
	require.NoError(err)

	asset := ids.GenerateTestID()
	_, err = feed.MaxPrice(asset)
	require.ErrorIs(err, ErrNoObservations)

	require.NoError(feed.Record(asset, fixed.NewPrice(100)))
	clock.Advance(10 * time.Minute)
	require.NoError(feed.Record(asset, fixed.NewPrice(110)))
	clock.Advance(10 * time.Minute)

	// spot 110, TWAP 105, 0.1% spread
	maxPrice, err := feed.MaxPrice(asset)
	require.NoError(err)
	require.Equal("110.11", maxPrice.String())

	minPrice, err := feed.MinPrice(asset)
	require.NoError(err)
	require.Equal("104.895", minPrice.String())
}

func TestFeedInvalidSpread(t *testing.T) {
	_, err := NewFeed(&mockable.Clock{}, log.NoLog{}, time.Minute, fixed.BPSDenominator)
	require.ErrorIs(t, err, ErrInvalidSpread)
}
