// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/perps/vms/perpvm/events"
	"github.com/luxfi/perps/vms/perpvm/fees"
	"github.com/luxfi/perps/vms/perpvm/fixed"
)

// PriceOracle quotes an asset at two prices. Takers are filled at the one
// worse for them.
type PriceOracle interface {
	MaxPrice(asset ids.ID) (fixed.Price, error)
	MinPrice(asset ids.ID) (fixed.Price, error)
}

// TradingGate reports whether an asset is inside its trading session.
type TradingGate interface {
	IsOpen(asset ids.ID) bool
}

// ReferralLookup returns the referral terms of an account.
type ReferralLookup = fees.ReferralLookup

// VolumeRecorder is optionally implemented by a ReferralLookup that tracks
// referred volume.
type VolumeRecorder interface {
	RecordVolume(account ids.ShortID, volume fixed.USD) error
}

// NotificationSink receives events after a transition commits. Errors are
// logged and do not affect the transition.
type NotificationSink interface {
	Emit(events.Event) error
}

// Transferer moves tokens out of custody. It is called inside a transition
// and may call back into the ledger, which fails with ErrReentrantCall.
type Transferer interface {
	TransferOut(asset ids.ID, receiver ids.ShortID, amount fixed.Amount) error
}
