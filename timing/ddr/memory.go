package ddr

import (
	"container/heap"

	"github.com/sarchlab/memhier/request"
)

// completionEntry is one (completion_time, request) pair in Memory's
// completion heap.
type completionEntry struct {
	completionTime uint64
	seq            uint64
	req            *request.MemoryRequest
}

type completionHeap []*completionEntry

func (h completionHeap) Len() int { return len(h) }
func (h completionHeap) Less(i, j int) bool {
	if h[i].completionTime != h[j].completionTime {
		return h[i].completionTime < h[j].completionTime
	}
	return h[i].seq < h[j].seq
}
func (h completionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *completionHeap) Push(x any)   { *h = append(*h, x.(*completionEntry)) }
func (h *completionHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Memory models per-bank DDR state and a byte-addressable backing store.
// Timing is driven entirely by the controller; Memory only validates bank
// command legality and advances state on its own tick.
type Memory struct {
	config ControllerConfig
	banks  []bank
	queue  completionHeap
	seq    uint64

	// store models the data backing. It is not essential to timing.
	store map[uint64]byte

	logf func(format string, args ...any)
}

// NewMemory creates DDR memory with config.NumBanks banks, all idle.
func NewMemory(config ControllerConfig) *Memory {
	return &Memory{
		config: config,
		banks:  make([]bank, config.NumBanks),
		store:  make(map[uint64]byte),
		logf:   func(string, ...any) {},
	}
}

// SetLogger installs a line logger used for trace output.
func (m *Memory) SetLogger(logf func(format string, args ...any)) { m.logf = logf }

// Request is driven by the controller once it has scheduled req (its
// CompletionTime is already set). It validates the target bank's current
// state and advances the FSM, or logs and drops req on an illegal
// transition.
func (m *Memory) Request(cycle uint64, req *request.MemoryRequest) {
	bankIdx := m.config.Bank(req.Addr)
	row := m.config.Row(req.Addr)
	b := &m.banks[bankIdx]

	nextState := Reading
	if req.Kind == request.Write {
		nextState = Writing
	}

	switch {
	case b.state == Idle:
		b.openRow = row
		b.hasOpenRow = true
		b.state = nextState
	case !b.hasOpenRow || b.openRow != row:
		b.openRow = row
		b.hasOpenRow = true
		b.state = nextState
	case b.state == ActivateBankRow:
		b.state = nextState
	case (b.state == Reading || b.state == Writing) && b.openRow == row:
		b.state = nextState
	default:
		m.logf("%d ddr bank=%d ERROR illegal command in state %s, dropping addr=%d",
			cycle, bankIdx, b.state, req.Addr)
		return
	}

	m.seq++
	heap.Push(&m.queue, &completionEntry{
		completionTime: uint64(req.CompletionTime),
		seq:            m.seq,
		req:            req,
	})
}

// Tick drains completions due this cycle and advances precharging banks.
func (m *Memory) Tick(cycle uint64) {
	for len(m.queue) > 0 && m.queue[0].completionTime <= cycle {
		e := heap.Pop(&m.queue).(*completionEntry)
		bankIdx := m.config.Bank(e.req.Addr)
		b := &m.banks[bankIdx]

		if b.state == Reading || b.state == Writing {
			b.state = ActivateBankRow
		}

		if e.req.Kind == request.Write {
			m.write(e.req.Addr, e.req.IssueTime)
		}

		m.logf("%d ddr complete addr=%d kind=%s", cycle, e.req.Addr, e.req.Kind)

		if e.req.Kind == request.Read && e.req.Completion != nil {
			e.req.Completion()
		}
	}

	for i := range m.banks {
		b := &m.banks[i]
		if b.state == Precharging && b.hasPrechTmr && b.timer <= cycle {
			b.state = Idle
			b.hasOpenRow = false
			b.hasPrechTmr = false
		}
	}
}

// write stores a placeholder byte pattern for addr; this simulator models
// timing, not data content, so the stored value itself is never read back.
func (m *Memory) write(addr uint64, value uint64) {
	m.store[addr] = byte(value)
}

// BankState reports a bank's current FSM state, for testing.
func (m *Memory) BankState(bankIdx int) BankState { return m.banks[bankIdx].state }

// OpenRow reports a bank's open row, for testing.
func (m *Memory) OpenRow(bankIdx int) (row uint64, open bool) {
	return m.banks[bankIdx].openRow, m.banks[bankIdx].hasOpenRow
}
