// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gate decides whether an asset is inside its trading session.
package gate

import (
	"sync"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/perps/utils/timer/mockable"
	"github.com/luxfi/perps/vms/perpvm/config"
)

type window struct {
	weekdays    map[time.Weekday]struct{}
	openMinute  int
	closeMinute int
}

func (w window) contains(t time.Time) bool {
	if _, ok := w.weekdays[t.Weekday()]; !ok {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return w.openMinute <= minute && minute < w.closeMinute
}

// Schedule is a weekly UTC trading calendar. Assets without any session
// trade around the clock unless halted.
type Schedule struct {
	clock *mockable.Clock
	log   log.Logger

	sessions map[ids.ID][]window

	mu     sync.RWMutex
	halted map[ids.ID]struct{}
}

func New(sessions []config.Session, clock *mockable.Clock, log log.Logger) *Schedule {
	s := &Schedule{
		clock:    clock,
		log:      log,
		sessions: make(map[ids.ID][]window),
		halted:   make(map[ids.ID]struct{}),
	}
	for _, session := range sessions {
		w := window{
			weekdays:    make(map[time.Weekday]struct{}, len(session.Weekdays)),
			openMinute:  int(session.OpenMinute),
			closeMinute: int(session.CloseMinute),
		}
		for _, day := range session.Weekdays {
			w.weekdays[day] = struct{}{}
		}
		asset := config.AssetID(session.Token)
		s.sessions[asset] = append(s.sessions[asset], w)
	}
	return s
}

// IsOpen reports whether asset may be traded now.
func (s *Schedule) IsOpen(asset ids.ID) bool {
	s.mu.RLock()
	_, halted := s.halted[asset]
	s.mu.RUnlock()
	if halted {
		return false
	}

	windows, ok := s.sessions[asset]
	if !ok {
		return true
	}
	now := s.clock.Time().UTC()
	for _, w := range windows {
		if w.contains(now) {
			return true
		}
	}
	return false
}

// Halt closes asset regardless of its sessions until Resume.
func (s *Schedule) Halt(asset ids.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.halted[asset] = struct{}{}
	s.log.Info("halted trading",
		log.Stringer("asset", asset),
	)
}

func (s *Schedule) Resume(asset ids.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.halted, asset)
	s.log.Info("resumed trading",
		log.Stringer("asset", asset),
	)
}
