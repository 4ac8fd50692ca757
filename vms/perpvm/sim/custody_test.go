// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/perps/vms/perpvm/fixed"
)

func TestCustodyMovesBalances(t *testing.T) {
	require := require.New(t)

	c := NewCustody()
	alice, bob := ids.GenerateTestShortID(), ids.GenerateTestShortID()
	token := ids.GenerateTestID()

	require.NoError(c.Fund(alice, token, fixed.Tokens(10, 6)))
	require.NoError(c.Deposit(alice, token, fixed.Tokens(4, 6)))
	require.Equal("6", c.Balance(alice, token, 6).String())
	require.Equal("4", c.Held(token, 6).String())

	require.NoError(c.TransferOut(token, bob, fixed.Tokens(3, 6)))
	require.Equal("3", c.Balance(bob, token, 6).String())
	require.Equal("1", c.Held(token, 6).String())
}

func TestCustodyRejectsOverdraw(t *testing.T) {
	require := require.New(t)

	c := NewCustody()
	alice := ids.GenerateTestShortID()
	token := ids.GenerateTestID()

	err := c.Deposit(alice, token, fixed.Tokens(1, 6))
	require.ErrorIs(err, ErrInsufficientBalance)

	require.NoError(c.Fund(alice, token, fixed.Tokens(1, 6)))
	require.NoError(c.Deposit(alice, token, fixed.Tokens(1, 6)))
	err = c.TransferOut(token, alice, fixed.Tokens(2, 6))
	require.ErrorIs(err, ErrInsufficientCustody)

	require.Equal("0", c.Balance(alice, token, 6).String())
	require.Equal("1", c.Held(token, 6).String())

	require.NoError(c.Deposit(ids.GenerateTestShortID(), token, fixed.ZeroAmount(6)))
}
