// Package core provides the core pipeline front-end: trace issue, hazard
// detection, and stall resumption.
package core

import (
	"fmt"
	"io"

	"github.com/sarchlab/memhier/request"
	"github.com/sarchlab/memhier/timing/cache"
)

// Access is one scheduled memory operation: a kind and an address.
type Access struct {
	Kind request.Kind
	Addr uint64
}

// pendingLimit is the queue-growth warning threshold: exceeding it signals
// a likely memory-hierarchy backlog, but is a warning, not an error.
const pendingLimit = 10

// Stats holds per-core issue statistics.
type Stats struct {
	Issued uint64
	Stalls uint64
}

// Core issues scheduled memory operations from a trace and stalls an op
// that conflicts with a still-in-flight access to the same address of a
// different kind (see hasHazard). Only reads are tracked as in flight.
type Core struct {
	id    int
	cache *cache.MultiLevel

	trace map[uint64]Access

	pending []Access
	stallOp *Access

	stats Stats

	warnOut io.Writer
}

// New creates a Core with the given id, wired to its private multi-level
// cache.
func New(id int, mlc *cache.MultiLevel, warnOut io.Writer) *Core {
	return &Core{
		id:      id,
		cache:   mlc,
		trace:   map[uint64]Access{},
		warnOut: warnOut,
	}
}

// ID returns the core's id.
func (c *Core) ID() int { return c.id }

// LoadTrace installs a mapping from issue cycle to (kind, addr). Cycles
// not present in the map are idle.
func (c *Core) LoadTrace(trace map[uint64]Access) { c.trace = trace }

// Stats returns the core's issue statistics.
func (c *Core) Stats() Stats { return c.stats }

// CacheStats returns this core's private L1 statistics.
func (c *Core) CacheStats() cache.Statistics { return c.cache.Stats() }

// hasHazard reports whether op conflicts with a still-pending access to
// the same address of a different kind. Read-after-read never stalls.
func (c *Core) hasHazard(op Access) bool {
	for _, p := range c.pending {
		if p.Addr == op.Addr && p.Kind != op.Kind {
			return true
		}
	}
	return false
}

// Tick advances the core by one cycle: resuming a stalled op if its
// hazard has cleared, or issuing the cycle's scheduled trace entry.
func (c *Core) Tick(cycle uint64) {
	if c.stallOp != nil {
		if c.hasHazard(*c.stallOp) {
			return
		}
		op := *c.stallOp
		c.stallOp = nil
		c.issue(cycle, op)
		return
	}

	op, ok := c.trace[cycle]
	if !ok {
		return
	}

	if c.hasHazard(op) {
		c.stallOp = &op
		c.stats.Stalls++
		return
	}

	c.issue(cycle, op)
}

func (c *Core) issue(cycle uint64, op Access) {
	c.stats.Issued++

	switch op.Kind {
	case request.Write:
		c.cache.Write(c.id, cycle, op.Addr)
	case request.Read:
		c.pending = append(c.pending, op)
		if len(c.pending) > pendingLimit && c.warnOut != nil {
			fmt.Fprintf(c.warnOut, "%d core%d: pending_accesses exceeds %d entries (%d)\n",
				cycle, c.id, pendingLimit, len(c.pending))
		}
		c.cache.Read(c.id, cycle, op.Addr, func() {
			c.removeOldestPending(op)
		})
	}
}

// removeOldestPending removes the oldest matching ('read', addr) entry
// from the pending set.
func (c *Core) removeOldestPending(op Access) {
	for i, p := range c.pending {
		if p == op {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}
