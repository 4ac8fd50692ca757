// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/state"
)

// Instrument identifies a position: the account, the pool backing it, the
// collateral it is margined in, the asset it tracks and its direction.
type Instrument struct {
	Account    ids.ShortID `json:"account"`
	Pool       ids.ID      `json:"pool"`
	Collateral ids.ID      `json:"collateral"`
	Index      ids.ID      `json:"index"`
	IsLong     bool        `json:"isLong"`
}

func (i Instrument) PositionID() state.PositionID {
	return state.PositionID{
		Account:    i.Account,
		Pool:       i.Pool,
		Collateral: i.Collateral,
		Index:      i.Index,
		IsLong:     i.IsLong,
	}
}

type IncreaseRequest struct {
	Instrument
	SizeDelta fixed.USD `json:"sizeDelta"`
	// CollateralIn has already been received by custody.
	CollateralIn fixed.Amount `json:"collateralIn"`
}

type DecreaseRequest struct {
	Instrument
	SizeDelta       fixed.USD `json:"sizeDelta"`
	CollateralDelta fixed.USD `json:"collateralDelta"`
	// Receiver defaults to the account.
	Receiver ids.ShortID `json:"receiver"`
}

type LiquidateRequest struct {
	Instrument
	// FeeReceiver defaults to the caller.
	FeeReceiver ids.ShortID `json:"feeReceiver"`
}

type AddLiquidityRequest struct {
	Account ids.ShortID  `json:"account"`
	Pool    ids.ID       `json:"pool"`
	Token   ids.ID       `json:"token"`
	Amount  fixed.Amount `json:"amount"`
}

type RemoveLiquidityRequest struct {
	Account ids.ShortID `json:"account"`
	Pool    ids.ID      `json:"pool"`
	Token   ids.ID      `json:"token"`
	// Synthetic is the USD-denominated supply to burn.
	Synthetic fixed.USD `json:"synthetic"`
	// Receiver defaults to the account.
	Receiver ids.ShortID `json:"receiver"`
}
