// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrappers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrsKeepsFirst(t *testing.T) {
	require := require.New(t)

	var (
		errA = errors.New("a")
		errB = errors.New("b")
		errs Errs
	)
	errs.Add(nil, nil)
	require.False(errs.Errored())

	errs.Add(nil, errA, errB)
	errs.Add(errB)
	require.True(errs.Errored())
	require.ErrorIs(errs.Err, errA)
}
