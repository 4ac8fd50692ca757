// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "sync/atomic"

// guard admits one transition at a time. It does not block: a second
// entrant is refused.
type guard struct {
	busy atomic.Bool
}

func (g *guard) enter() bool {
	return g.busy.CompareAndSwap(false, true)
}

func (g *guard) exit() {
	g.busy.Store(false)
}
