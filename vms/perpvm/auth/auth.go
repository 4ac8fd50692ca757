// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package auth carries the caller's capabilities through a context.
package auth

import (
	"context"

	"github.com/luxfi/ids"
)

type capabilitiesKey struct{}

// Capabilities describe what the caller of an operation may do.
type Capabilities struct {
	// Caller is the account issuing the operation.
	Caller ids.ShortID
	// Router callers may act on behalf of any account.
	Router bool
	// Liquidator callers may liquidate when liquidation is private.
	Liquidator bool
	// Manager callers may withdraw protocol fees.
	Manager bool
}

// WithCapabilities returns a copy of ctx carrying c.
func WithCapabilities(ctx context.Context, c Capabilities) context.Context {
	return context.WithValue(ctx, capabilitiesKey{}, c)
}

// FromContext returns the capabilities in ctx. A context without any
// yields the zero value, which may only act for ids.ShortEmpty.
func FromContext(ctx context.Context) Capabilities {
	c, _ := ctx.Value(capabilitiesKey{}).(Capabilities)
	return c
}

// CanActFor reports whether the caller may operate on account's positions.
func (c Capabilities) CanActFor(account ids.ShortID) bool {
	return c.Router || c.Caller == account
}
