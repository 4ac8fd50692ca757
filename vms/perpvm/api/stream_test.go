// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/perps/vms/perpvm/events"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/state"
)

func TestStreamDeliversEvents(t *testing.T) {
	require := require.New(t)

	stream := NewStream(log.NoLog{})
	server := httptest.NewServer(stream)
	defer server.Close()
	defer stream.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(err)
	defer conn.Close()

	require.Eventually(func() bool {
		return stream.Subscribers() == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(stream.Emit(events.ClosePosition{
		Base: events.Base{Timestamp: 42},
		Position: state.PositionID{
			Account: ids.GenerateTestShortID(),
			IsLong:  true,
		},
		AveragePrice: fixed.NewPrice(100),
	}))
	require.NoError(stream.Emit(events.CollectFees{
		Base: events.Base{Timestamp: 43},
		USD:  fixed.Dollars(1),
	}))

	require.NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	for i, want := range []string{"close_position", "collect_fees"} {
		_, raw, err := conn.ReadMessage()
		require.NoError(err)

		var msg struct {
			Type     string          `json:"type"`
			Sequence uint64          `json:"sequence"`
			Data     json.RawMessage `json:"data"`
		}
		require.NoError(json.Unmarshal(raw, &msg))
		require.Equal(want, msg.Type)
		require.Equal(uint64(i+1), msg.Sequence)
	}
}

func TestStreamDropsDisconnectedSubscribers(t *testing.T) {
	require := require.New(t)

	stream := NewStream(log.NoLog{})
	server := httptest.NewServer(stream)
	defer server.Close()
	defer stream.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(err)
	require.Eventually(func() bool {
		return stream.Subscribers() == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(conn.Close())
	require.Eventually(func() bool {
		return stream.Subscribers() == 0
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(stream.Emit(events.CollectFees{}))
}
