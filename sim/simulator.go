package sim

import (
	"fmt"
	"io"
	"math/rand"
	"sort"

	"github.com/sarchlab/memhier/timing/cache"
	"github.com/sarchlab/memhier/timing/core"
	"github.com/sarchlab/memhier/timing/ddr"
	"github.com/sarchlab/memhier/timing/interconnect"
)

// LevelStats is a {hits, misses, miss_rate} tuple for one cache level, as
// exposed by the simulation driver.
type LevelStats struct {
	Hits     uint64
	Misses   uint64
	MissRate float64
}

func fromCacheStats(s cache.Statistics) LevelStats {
	return LevelStats{Hits: s.Hits, Misses: s.Misses, MissRate: s.MissRate()}
}

// Report is the per-level, per-core statistics produced at the end of a
// simulation run.
type Report struct {
	Cycles  uint64
	PerCore map[int]LevelStats // L1 stats, keyed by core id
	L2      LevelStats
}

// Simulator is the global clock and tick loop: within a cycle, every
// component's tick runs in the order cores -> interconnect -> DDR
// controller -> DDR.
type Simulator struct {
	cycle uint64

	cores   []*core.Core
	coreIDs []int

	l2  *cache.Level
	ic  *interconnect.Interconnect
	ctl *ddr.Controller
	mem *ddr.Memory

	out io.Writer
}

// New constructs a Simulator from exp, wiring the cache hierarchy,
// interconnect, DDR controller, and DDR memory, and loading each core's
// trace from traces (by core id). out receives trace-output log lines;
// pass io.Discard to suppress them.
func New(exp Experiment, traces map[int]map[uint64]core.Access, out io.Writer) (*Simulator, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	logf := func(format string, args ...any) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	mem := ddr.NewMemory(exp.DDR)
	mem.SetLogger(logf)

	ctl := ddr.NewController(exp.DDR, mem)
	ctl.SetLogger(logf)

	rng := rand.New(rand.NewSource(exp.Seed))
	ic := interconnect.New(exp.Interconnect, ctl, rng)
	ic.SetLogger(logf)

	l2Config := exp.L2
	l2Config.LevelName = "L2"
	l2Config.OwnerCoreID = -1
	l2, err := cache.New(l2Config)
	if err != nil {
		return nil, err
	}
	l2.SetMemory(ic)
	l2.SetLogger(logf)

	s := &Simulator{l2: l2, ic: ic, ctl: ctl, mem: mem, out: out}

	for i := 0; i < exp.NumCores; i++ {
		l1Config := exp.L1
		l1Config.LevelName = "L1"
		l1Config.OwnerCoreID = i

		mlc, err := cache.NewMultiLevel(l1Config, l2)
		if err != nil {
			return nil, err
		}
		mlc.L1.SetLogger(logf)

		c := core.New(i, mlc, out)
		if t, ok := traces[i]; ok {
			c.LoadTrace(t)
		}

		s.cores = append(s.cores, c)
		s.coreIDs = append(s.coreIDs, i)
	}

	sort.Ints(s.coreIDs)
	sort.Slice(s.cores, func(i, j int) bool { return s.cores[i].ID() < s.cores[j].ID() })

	return s, nil
}

// Cycle returns the current global cycle.
func (s *Simulator) Cycle() uint64 { return s.cycle }

// Core returns the core with the given id, or nil if it doesn't exist.
func (s *Simulator) Core(id int) *core.Core {
	for _, c := range s.cores {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// Tick advances the simulator by exactly one cycle, in the canonical
// order: cores, then interconnect, then DDR controller, then DDR.
func (s *Simulator) Tick() {
	for _, c := range s.cores {
		c.Tick(s.cycle)
	}
	s.ic.Tick(s.cycle)
	s.ctl.Tick(s.cycle)
	s.mem.Tick(s.cycle)
	s.cycle++
}

// Simulate runs the fixed loop for the given number of cycles.
func (s *Simulator) Simulate(cycles uint64) {
	for i := uint64(0); i < cycles; i++ {
		s.Tick()
	}
}

// Report returns per-level {hits, misses, miss_rate} tuples per core and
// for the shared L2.
func (s *Simulator) Report() Report {
	r := Report{
		Cycles:  s.cycle,
		PerCore: make(map[int]LevelStats, len(s.cores)),
		L2:      fromCacheStats(s.l2.Stats()),
	}
	for _, c := range s.cores {
		r.PerCore[c.ID()] = fromCacheStats(c.CacheStats())
	}
	return r
}
