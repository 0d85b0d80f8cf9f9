// Package cache provides the private-L1/shared-L2 cache hierarchy model.
package cache

// PLRU is a tree-based pseudo-LRU victim selector for one cache set.
// It holds assoc-1 direction bits representing a binary tree; assoc must
// be a power of two. A bit of 0 means "the pseudo-LRU leaf is reached by
// going left from this node", 1 means "by going right".
type PLRU struct {
	bits  []bool
	assoc int
}

// NewPLRU creates a PLRU tree for a set with the given associativity.
// assoc must be a power of two; callers are expected to have validated
// this at cache construction time (see Config.Validate).
func NewPLRU(assoc int) *PLRU {
	return &PLRU{
		bits:  make([]bool, assoc-1),
		assoc: assoc,
	}
}

// UpdateOnAccess walks the tree from the root toward leaf way, setting
// each visited bit to the opposite of the direction taken so that future
// victim searches steer away from the just-touched leaf.
func (p *PLRU) UpdateOnAccess(way int) {
	node := 0
	// lo/hi track the range of leaves reachable under node.
	lo, hi := 0, p.assoc-1

	for hi > lo {
		mid := (lo + hi) / 2
		goRight := way > mid

		if goRight {
			p.bits[node] = false
			node = 2*node + 2
			lo = mid + 1
		} else {
			p.bits[node] = true
			node = 2*node + 1
			hi = mid
		}
	}
}

// Victim walks from the root following the current bits and returns the
// leaf index reached. It does not mutate any state.
func (p *PLRU) Victim() int {
	node := 0
	lo, hi := 0, p.assoc-1

	for hi > lo {
		mid := (lo + hi) / 2
		if p.bits[node] {
			// bit set means "right" (see UpdateOnAccess).
			node = 2*node + 2
			lo = mid + 1
		} else {
			node = 2*node + 1
			hi = mid
		}
	}

	return lo
}
