// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luxfi/log"

	"github.com/luxfi/perps/vms/perpvm/events"
)

const (
	sendBufferSize = 256
	writeTimeout   = 10 * time.Second
)

var _ events.Sink = (*Stream)(nil)

// Message is one event as pushed to subscribers.
type Message struct {
	Type      string       `json:"type"`
	Sequence  uint64       `json:"sequence"`
	Timestamp uint64       `json:"timestamp"`
	Data      events.Event `json:"data"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Stream pushes committed ledger events to websocket subscribers. A
// subscriber that falls behind by sendBufferSize messages is disconnected.
type Stream struct {
	log      log.Logger
	upgrader websocket.Upgrader

	lock        sync.Mutex
	subscribers map[*subscriber]struct{}
	sequence    uint64
	wg          sync.WaitGroup
}

func NewStream(log log.Logger) *Stream {
	return &Stream{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Emit implements events.Sink.
func (s *Stream) Emit(e events.Event) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.sequence++
	msg, err := json.Marshal(Message{
		Type:      e.Type().String(),
		Sequence:  s.sequence,
		Timestamp: e.Time(),
		Data:      e,
	})
	if err != nil {
		return err
	}
	for sub := range s.subscribers {
		select {
		case sub.send <- msg:
		default:
			s.log.Warn("dropping slow subscriber",
				log.Stringer("remote", sub.conn.RemoteAddr()),
			)
			s.remove(sub)
		}
	}
	return nil
}

// Subscribers returns the number of connected subscribers.
func (s *Stream) Subscribers() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.subscribers)
}

// ServeHTTP upgrades the request and streams events until the client goes
// away or the stream is closed.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed",
			log.Err(err),
		)
		return
	}
	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	s.lock.Lock()
	s.subscribers[sub] = struct{}{}
	s.wg.Add(1)
	s.lock.Unlock()

	go s.read(sub)
	s.write(sub)
}

// read discards client frames and notices disconnects.
func (s *Stream) read(sub *subscriber) {
	defer s.wg.Done()

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			s.lock.Lock()
			s.remove(sub)
			s.lock.Unlock()
			return
		}
	}
}

func (s *Stream) write(sub *subscriber) {
	defer sub.conn.Close()

	for msg := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.log.Debug("websocket write failed",
				log.Err(err),
			)
			return
		}
	}
	_ = sub.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout),
	)
}

// remove must be called with lock held.
func (s *Stream) remove(sub *subscriber) {
	if _, ok := s.subscribers[sub]; !ok {
		return
	}
	delete(s.subscribers, sub)
	close(sub.send)
}

// Close disconnects every subscriber and waits for their readers to exit.
func (s *Stream) Close() {
	s.lock.Lock()
	for sub := range s.subscribers {
		s.remove(sub)
	}
	s.lock.Unlock()

	s.wg.Wait()
}
