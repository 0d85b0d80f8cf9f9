package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/memhier/request"
)

// Downstream is anything a cache level can hand a MemoryRequest to when
// it has no lower cache level: the interconnect, in this hierarchy.
type Downstream interface {
	Request(cycle uint64, req *request.MemoryRequest)
}

// Statistics holds hit/miss counters for one cache level.
type Statistics struct {
	Hits   uint64
	Misses uint64
}

// MissRate returns Misses/(Hits+Misses), or 0 if there were no accesses.
func (s Statistics) MissRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Misses) / float64(total)
}

// Level is one level of the cache hierarchy: N-way set associative,
// pseudo-LRU replacement, write-back/write-through and
// write-allocate/no-write-allocate, with asynchronous miss-fill
// continuations.
//
// Exactly one of lower and memory is set: an L1 points at the shared L2
// (lower), the L2 points at the interconnect (memory).
type Level struct {
	config Config

	directory *akitacache.DirectoryImpl
	plrus     []*PLRU

	lower  *Level
	memory Downstream

	stats Statistics

	logf func(format string, args ...any)
}

// New creates a cache Level. Exactly one of lower or memory must be
// supplied by the caller after construction via SetLower/SetMemory.
func New(config Config) (*Level, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numSets := config.NumSets()
	plrus := make([]*PLRU, numSets)
	for i := range plrus {
		plrus[i] = NewPLRU(config.Assoc)
	}

	return &Level{
		config: config,
		// The victim finder is required by the constructor signature but
		// is never consulted: this level's victim selection is driven by
		// its own PLRU tree, not the directory's built-in policy.
		directory: akitacache.NewDirectory(numSets, config.Assoc, config.LineSize, akitacache.NewLRUVictimFinder()),
		plrus:     plrus,
		logf:      func(string, ...any) {},
	}, nil
}

// SetLower links this level to another cache level below it (L1 -> L2).
func (l *Level) SetLower(lower *Level) { l.lower = lower }

// SetMemory links this level to the interconnect below it (L2 ->
// interconnect).
func (l *Level) SetMemory(m Downstream) { l.memory = m }

// SetLogger installs a line logger used for trace output. The default is
// a no-op.
func (l *Level) SetLogger(logf func(format string, args ...any)) { l.logf = logf }

// Config returns the level's configuration.
func (l *Level) Config() Config { return l.config }

// Stats returns the level's hit/miss counters.
func (l *Level) Stats() Statistics { return l.stats }

func (l *Level) numSets() int { return l.config.NumSets() }

func (l *Level) index(addr uint64) int {
	return int((addr / uint64(l.config.LineSize)) % uint64(l.numSets()))
}

func (l *Level) tag(addr uint64) uint64 {
	return addr / uint64(l.config.LineSize*l.numSets())
}

func (l *Level) reconstructAddr(setIndex int, tag uint64) uint64 {
	return (tag*uint64(l.numSets()) + uint64(setIndex)) * uint64(l.config.LineSize)
}

// blocksOf returns the []*Block backing one set, ordered by WayID.
func (l *Level) blocksOf(setIndex int) []*akitacache.Block {
	return l.directory.GetSets()[setIndex].Blocks
}

func (l *Level) blockAt(setIndex, way int) *akitacache.Block {
	for _, b := range l.blocksOf(setIndex) {
		if b.WayID == way {
			return b
		}
	}
	return nil
}

// findHit scans the set for a valid line with a matching tag. It panics
// if it finds the tag twice, since a duplicate tag within a set can only
// mean directory bookkeeping has been corrupted.
func (l *Level) findHit(setIndex int, tag uint64) *akitacache.Block {
	var found *akitacache.Block
	for _, b := range l.blocksOf(setIndex) {
		if b.IsValid && b.Tag == tag {
			if found != nil {
				panic("cache invariant violated: duplicate tag within a set")
			}
			found = b
		}
	}
	return found
}

// Read performs a cache read. on_complete is invoked synchronously on a
// hit, or asynchronously (via the lower level or the interconnect, after
// the fill completes) on a miss.
func (l *Level) Read(coreID int, cycle uint64, addr uint64, onComplete func()) {
	setIndex := l.index(addr)
	tag := l.tag(addr)

	if b := l.findHit(setIndex, tag); b != nil {
		l.stats.Hits++
		l.plrus[setIndex].UpdateOnAccess(b.WayID)
		l.logf("%d %s hit read addr=%d", cycle, l.config.LevelName, addr)
		onComplete()
		return
	}

	l.stats.Misses++
	l.logf("%d %s miss read addr=%d", cycle, l.config.LevelName, addr)

	way := l.plrus[setIndex].Victim()
	victim := l.blockAt(setIndex, way)

	// Capture the victim's prior state atomically at issue time: the fill
	// completes asynchronously, and by then this way may already have been
	// reused by a later access to the same set.
	victimValid := victim.IsValid
	victimDirty := victim.IsDirty
	victimAddr := l.reconstructAddr(setIndex, victim.Tag)

	fill := func() {
		if victimValid && victimDirty && l.config.WriteBack {
			l.emitWriteback(coreID, cycle, victimAddr)
		}

		victim.Tag = tag
		victim.IsValid = true
		victim.IsDirty = false
		l.plrus[setIndex].UpdateOnAccess(way)

		onComplete()
	}

	if l.lower != nil {
		l.lower.Read(coreID, cycle, addr, fill)
		return
	}

	req := request.New(coreID, cycle, request.Read, addr, fill)
	l.memory.Request(cycle, req)
}

// Write performs a cache write.
func (l *Level) Write(coreID int, cycle uint64, addr uint64) {
	setIndex := l.index(addr)
	tag := l.tag(addr)

	if b := l.findHit(setIndex, tag); b != nil {
		l.stats.Hits++
		l.plrus[setIndex].UpdateOnAccess(b.WayID)

		if l.config.WriteBack {
			b.IsDirty = true
			l.logf("%d %s hit write-back addr=%d", cycle, l.config.LevelName, addr)
			return
		}

		b.IsDirty = false
		l.logf("%d %s hit write-through addr=%d", cycle, l.config.LevelName, addr)
		l.propagateWrite(coreID, cycle, addr)
		return
	}

	l.stats.Misses++
	l.logf("%d %s miss write addr=%d", cycle, l.config.LevelName, addr)

	if !l.config.WriteAllocate {
		l.propagateWrite(coreID, cycle, addr)
		return
	}

	way := l.plrus[setIndex].Victim()
	victim := l.blockAt(setIndex, way)

	if victim.IsValid && victim.IsDirty && l.config.WriteBack {
		l.emitWriteback(coreID, cycle, l.reconstructAddr(setIndex, victim.Tag))
	}

	victim.Tag = tag
	victim.IsValid = true
	victim.IsDirty = l.config.WriteBack
	l.plrus[setIndex].UpdateOnAccess(way)
}

// propagateWrite forwards a write downward (write-through hit, or
// no-write-allocate miss). It carries no completion callback.
func (l *Level) propagateWrite(coreID int, cycle uint64, addr uint64) {
	if l.lower != nil {
		l.lower.Write(coreID, cycle, addr)
		return
	}
	l.memory.Request(cycle, request.New(coreID, cycle, request.Write, addr, nil))
}

// emitWriteback forwards a dirty eviction's old contents downward. It
// carries no completion callback, matching propagateWrite.
func (l *Level) emitWriteback(coreID int, cycle uint64, addr uint64) {
	l.logf("%d %s writeback addr=%d", cycle, l.config.LevelName, addr)
	l.propagateWrite(coreID, cycle, addr)
}

// CheckInvariants validates this level's structural invariants and panics
// if violated: at most Assoc valid lines per set sharing no tag (enforced
// structurally), and dirty implies valid.
func (l *Level) CheckInvariants() {
	for _, set := range l.directory.GetSets() {
		for _, b := range set.Blocks {
			if b.IsDirty && !b.IsValid {
				panic("cache invariant violated: dirty line is not valid")
			}
		}
	}
}
