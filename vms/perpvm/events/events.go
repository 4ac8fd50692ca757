// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package events defines the notifications emitted after a ledger
// transition commits.
package events

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/state"
)

// Type identifies an event.
type Type uint16

const (
	IncreasePositionType Type = iota + 1
	DecreasePositionType
	LiquidatePositionType
	ClosePositionType
	UpdatePnLType
	CollectFeesType
	ClaimRebateType
	LiquidityType
)

func (t Type) String() string {
	switch t {
	case IncreasePositionType:
		return "increase_position"
	case DecreasePositionType:
		return "decrease_position"
	case LiquidatePositionType:
		return "liquidate_position"
	case ClosePositionType:
		return "close_position"
	case UpdatePnLType:
		return "update_pnl"
	case CollectFeesType:
		return "collect_fees"
	case ClaimRebateType:
		return "claim_rebate"
	case LiquidityType:
		return "liquidity"
	default:
		return "unknown"
	}
}

// Event is implemented by every notification.
type Event interface {
	Type() Type
	// Time is the unix second of the transition.
	Time() uint64
}

// Base holds the fields every event carries.
type Base struct {
	Timestamp uint64 `json:"timestamp"`
}

func (b Base) Time() uint64 { return b.Timestamp }

type IncreasePosition struct {
	Base
	Position        state.PositionID `json:"position"`
	CollateralDelta fixed.Amount     `json:"collateralDelta"`
	SizeDelta       fixed.USD        `json:"sizeDelta"`
	Price           fixed.Price      `json:"price"`
	Fee             fixed.USD        `json:"fee"`
}

func (IncreasePosition) Type() Type { return IncreasePositionType }

type DecreasePosition struct {
	Base
	Position        state.PositionID `json:"position"`
	CollateralDelta fixed.USD        `json:"collateralDelta"`
	SizeDelta       fixed.USD        `json:"sizeDelta"`
	Price           fixed.Price      `json:"price"`
	Fee             fixed.USD        `json:"fee"`
	Receiver        ids.ShortID      `json:"receiver"`
	AmountOut       fixed.Amount     `json:"amountOut"`
}

func (DecreasePosition) Type() Type { return DecreasePositionType }

type LiquidatePosition struct {
	Base
	Position    state.PositionID `json:"position"`
	Size        fixed.USD        `json:"size"`
	Collateral  fixed.USD        `json:"collateral"`
	Mark        fixed.Price      `json:"mark"`
	Soft        bool             `json:"soft"`
	FeeReceiver ids.ShortID      `json:"feeReceiver"`
}

func (LiquidatePosition) Type() Type { return LiquidatePositionType }

type ClosePosition struct {
	Base
	Position     state.PositionID `json:"position"`
	AveragePrice fixed.Price      `json:"averagePrice"`
	RealizedPnL  fixed.SignedUSD  `json:"realizedPnl"`
}

func (ClosePosition) Type() Type { return ClosePositionType }

type UpdatePnL struct {
	Base
	Position state.PositionID `json:"position"`
	Delta    fixed.SignedUSD  `json:"delta"`
}

func (UpdatePnL) Type() Type { return UpdatePnLType }

type CollectFees struct {
	Base
	Pool   ids.ID       `json:"pool"`
	Token  ids.ID       `json:"token"`
	USD    fixed.USD    `json:"usd"`
	Amount fixed.Amount `json:"amount"`
}

func (CollectFees) Type() Type { return CollectFeesType }

type ClaimRebate struct {
	Base
	Kind    state.ClaimKind `json:"kind"`
	Account ids.ShortID     `json:"account"`
	Pool    ids.ID          `json:"pool"`
	Token   ids.ID          `json:"token"`
	Amount  fixed.Amount    `json:"amount"`
}

func (ClaimRebate) Type() Type { return ClaimRebateType }

// Liquidity reports a pool deposit or withdrawal.
type Liquidity struct {
	Base
	Account   ids.ShortID  `json:"account"`
	Pool      ids.ID       `json:"pool"`
	Token     ids.ID       `json:"token"`
	Withdraw  bool         `json:"withdraw"`
	Amount    fixed.Amount `json:"amount"`
	Synthetic fixed.USD    `json:"synthetic"`
}

func (Liquidity) Type() Type { return LiquidityType }
