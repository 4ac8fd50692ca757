// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"errors"
	"sync"

	"github.com/luxfi/log"
)

// Sink receives events.
type Sink interface {
	Emit(Event) error
}

var (
	_ Sink = (*LogSink)(nil)
	_ Sink = (*Recorder)(nil)
	_ Sink = Fanout(nil)
)

// LogSink writes every event to a logger at Info.
type LogSink struct {
	Log log.Logger
}

func (s *LogSink) Emit(e Event) error {
	s.Log.Info("ledger event",
		log.Stringer("type", e.Type()),
		log.Uint64("time", e.Time()),
		log.Reflect("event", e),
	)
	return nil
}

// Recorder keeps every event in memory.
type Recorder struct {
	lock   sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.events = append(r.events, e)
	return nil
}

// Events returns the recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	r.lock.Lock()
	defer r.lock.Unlock()

	var matched []Event
	for _, e := range r.events {
		if e.Type() == t {
			matched = append(matched, e)
		}
	}
	return matched
}

// Fanout emits to every sink and joins their errors. A failing sink does not
// stop delivery to the rest.
type Fanout []Sink

func (f Fanout) Emit(e Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Emit(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
