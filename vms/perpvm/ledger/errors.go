// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is wrapped by every error returned before any state is
	// touched.
	ErrValidation        = errors.New("validation failed")
	ErrMarketClosed      = fmt.Errorf("%w: market closed", ErrValidation)
	ErrUnknownInstrument = fmt.Errorf("%w: unknown instrument", ErrValidation)
	ErrInvalidRequest    = fmt.Errorf("%w: invalid request", ErrValidation)
	ErrUnauthorized      = fmt.Errorf("%w: unauthorized", ErrValidation)

	ErrInsufficientCollateralForFees = errors.New("insufficient collateral for fees")
	ErrInsufficientFunds             = errors.New("insufficient funds")
	ErrInvalidPositionSize           = errors.New("invalid position size")
	ErrCollateralExceedsSize         = errors.New("collateral exceeds size")
	ErrBelowMinCollateral            = errors.New("collateral below minimum")
	ErrMaxLeverageExceeded           = errors.New("max leverage exceeded")
	ErrLiquidatableAfterUpdate       = errors.New("position would be liquidatable")
	ErrNotLiquidatable               = errors.New("position not liquidatable")
	ErrEmptyPosition                 = errors.New("empty position")
	ErrReentrantCall                 = errors.New("reentrant call")
)
