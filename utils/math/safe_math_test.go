// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package math

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestAddSub(t *testing.T) {
	require := require.New(t)

	sum, err := Add[uint64](1, 2)
	require.NoError(err)
	require.Equal(uint64(3), sum)

	_, err = Add(MaxUint[uint64](), 1)
	require.ErrorIs(err, ErrOverflow)

	diff, err := Sub[uint64](5, 2)
	require.NoError(err)
	require.Equal(uint64(3), diff)

	_, err = Sub[uint64](2, 5)
	require.ErrorIs(err, ErrUnderflow)

	require.Equal(uint64(3), AbsDiff[uint64](2, 5))
}

func TestUint256Helpers(t *testing.T) {
	require := require.New(t)

	maxInt := new(uint256.Int).SetAllOne()
	_, err := Add256(maxInt, uint256.NewInt(1))
	require.ErrorIs(err, ErrOverflow)

	_, err = Sub256(uint256.NewInt(1), uint256.NewInt(2))
	require.ErrorIs(err, ErrUnderflow)

	_, err = Mul256(maxInt, uint256.NewInt(2))
	require.ErrorIs(err, ErrOverflow)

	z, err := MulDiv(uint256.NewInt(10), uint256.NewInt(7), uint256.NewInt(3))
	require.NoError(err)
	require.Equal(uint64(23), z.Uint64())

	z, err = MulDivUp(uint256.NewInt(10), uint256.NewInt(7), uint256.NewInt(3))
	require.NoError(err)
	require.Equal(uint64(24), z.Uint64())

	z, err = MulDivUp(uint256.NewInt(9), uint256.NewInt(2), uint256.NewInt(3))
	require.NoError(err)
	require.Equal(uint64(6), z.Uint64())

	_, err = MulDiv(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(0))
	require.ErrorIs(err, ErrDivisionByZero)

	// intermediate product exceeds 256 bits but the quotient fits
	z, err = MulDiv(maxInt, uint256.NewInt(4), uint256.NewInt(8))
	require.NoError(err)
	require.Equal(new(uint256.Int).Rsh(maxInt, 1), z)

	require.Equal(uint64(1_000_000), Pow10(6).Uint64())
}
