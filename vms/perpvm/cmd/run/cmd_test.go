// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunPrintsReport(t *testing.T) {
	require := require.New(t)

	cmd := Command()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--quiet", "testdata/round_trip.json"})
	require.NoError(cmd.ExecuteContext(context.Background()))

	var report struct {
		Pools []struct {
			Token      string `json:"token"`
			PoolAmount string `json:"poolAmount"`
		} `json:"pools"`
		Positions []json.RawMessage `json:"positions"`
		Wallets   []struct {
			Account string `json:"account"`
			Balance string `json:"balance"`
		} `json:"wallets"`
	}
	require.NoError(json.Unmarshal(out.Bytes(), &report))
	require.Empty(report.Positions)
	require.Equal("USDC", report.Pools[0].Token)
	require.Equal("9900", report.Pools[0].PoolAmount)
	require.Len(report.Wallets, 1)
	require.Equal("alice", report.Wallets[0].Account)
	require.Equal("113", report.Wallets[0].Balance)
}

func TestRunRequiresScenario(t *testing.T) {
	cmd := Command()
	cmd.SetArgs([]string{"testdata/missing.json"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}
