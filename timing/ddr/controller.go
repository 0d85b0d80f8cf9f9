package ddr

import (
	"container/heap"

	"github.com/sarchlab/memhier/request"
)

// qentry is one (arrival_time, request) pair in the controller's queue.
type qentry struct {
	arrivalTime uint64
	seq         uint64
	req         *request.MemoryRequest
	bank        int
	row         uint64
}

type qheap []*qentry

func (h qheap) Len() int { return len(h) }
func (h qheap) Less(i, j int) bool {
	if h[i].arrivalTime != h[j].arrivalTime {
		return h[i].arrivalTime < h[j].arrivalTime
	}
	return h[i].seq < h[j].seq
}
func (h qheap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *qheap) Push(x any)   { *h = append(*h, x.(*qentry)) }
func (h *qheap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// bankTiming tracks the controller-side arbitration state for one bank.
type bankTiming struct {
	hasOpenRow            bool
	openRow               uint64
	prechargeCompleteTime uint64
	hasLastCommand        bool
	lastCommandTime       uint64
	hasLastAccessKind     bool
	lastAccessKind        request.Kind
}

// inFlightEntry is one request the controller has scheduled to DDR but
// not yet drained a completion for.
type inFlightEntry struct {
	completionTime uint64
	req            *request.MemoryRequest
}

// Memory is the downstream DDR memory the controller schedules commands
// to.
type Memory interface {
	Request(cycle uint64, req *request.MemoryRequest)
}

// Controller arbitrates the DDR request queue: row-hit, then
// read-over-write, then oldest-first, subject to per-bank
// precharge/activation timing and read/write turnaround penalties.
type Controller struct {
	config ControllerConfig
	ddr    Memory

	queue qheap
	seq   uint64

	banks []bankTiming

	inFlight []inFlightEntry

	logf func(format string, args ...any)
}

// NewController creates a Controller wired to ddr.
func NewController(config ControllerConfig, ddr Memory) *Controller {
	return &Controller{
		config: config,
		ddr:    ddr,
		banks:  make([]bankTiming, config.NumBanks),
		logf:   func(string, ...any) {},
	}
}

// SetLogger installs a line logger used for trace output.
func (c *Controller) SetLogger(logf func(format string, args ...any)) { c.logf = logf }

// Request enqueues req, arriving at the given cycle.
func (c *Controller) Request(cycle uint64, req *request.MemoryRequest) {
	c.seq++
	heap.Push(&c.queue, &qentry{
		arrivalTime: cycle,
		seq:         c.seq,
		req:         req,
		bank:        c.config.Bank(req.Addr),
		row:         c.config.Row(req.Addr),
	})
	c.logf("%d ddr-ctrl enqueue addr=%d bank=%d row=%d", cycle, req.Addr, c.config.Bank(req.Addr), c.config.Row(req.Addr))
}

// Tick drains due completions, then schedules at most one new command.
func (c *Controller) Tick(cycle uint64) {
	c.drainCompletions(cycle)
	c.scheduleOne(cycle)
}

// drainCompletions retires the controller's own in-flight bookkeeping for
// requests DDR has already completed. The completion callback itself is
// invoked exactly once, by Memory.Tick, when the physical access finishes;
// this only drops the tracking entry and logs it.
func (c *Controller) drainCompletions(cycle uint64) {
	remaining := c.inFlight[:0]
	for _, e := range c.inFlight {
		if e.completionTime <= cycle {
			c.logf("%d ddr-ctrl drain addr=%d", cycle, e.req.Addr)
			continue
		}
		remaining = append(remaining, e)
	}
	c.inFlight = remaining
}

// isBetterCandidate reports whether a ranks ahead of b under the
// arbitration key: row-hit first, reads before writes, oldest first.
func (c *Controller) isBetterCandidate(a, b *qentry) bool {
	aHit := c.banks[a.bank].hasOpenRow && c.banks[a.bank].openRow == a.row
	bHit := c.banks[b.bank].hasOpenRow && c.banks[b.bank].openRow == b.row
	if aHit != bHit {
		return aHit
	}

	aRead := a.req.Kind == request.Read
	bRead := b.req.Kind == request.Read
	if aRead != bRead {
		return aRead
	}

	if a.arrivalTime != b.arrivalTime {
		return a.arrivalTime < b.arrivalTime
	}
	return a.seq < b.seq
}

func (c *Controller) eligible(cycle uint64, e *qentry) bool {
	bt := &c.banks[e.bank]
	if bt.prechargeCompleteTime > cycle {
		return false
	}
	if bt.hasLastCommand && cycle < bt.lastCommandTime+c.config.TCCD {
		return false
	}
	return true
}

func (c *Controller) scheduleOne(cycle uint64) {
	bestIdx := -1
	for i, e := range c.queue {
		if !c.eligible(cycle, e) {
			continue
		}
		if bestIdx == -1 || c.isBetterCandidate(e, c.queue[bestIdx]) {
			bestIdx = i
		}
	}

	if bestIdx == -1 {
		return
	}

	e := heap.Remove(&c.queue, bestIdx).(*qentry)
	bt := &c.banks[e.bank]

	rowHit := bt.hasOpenRow && bt.openRow == e.row

	var delay uint64
	if rowHit {
		delay = c.config.RowHitLatency
	} else {
		delay = c.config.TRP + c.config.TRCD + c.config.TCAS
		bt.prechargeCompleteTime = cycle + c.config.TRP
		bt.openRow = e.row
		bt.hasOpenRow = true
	}

	if bt.hasLastAccessKind && bt.lastAccessKind != e.req.Kind {
		if bt.lastAccessKind == request.Write && e.req.Kind == request.Read {
			delay += c.config.TWTR
		} else {
			delay += c.config.TWTR + 2
		}
	}

	delay += c.config.BaseLatency

	completionTime := cycle + delay
	e.req.CompletionTime = int64(completionTime)

	bt.lastCommandTime = cycle
	bt.hasLastCommand = true
	bt.lastAccessKind = e.req.Kind
	bt.hasLastAccessKind = true

	c.inFlight = append(c.inFlight, inFlightEntry{completionTime: completionTime, req: e.req})

	c.logf("%d ddr-ctrl schedule addr=%d bank=%d rowhit=%v delay=%d", cycle, e.req.Addr, e.bank, rowHit, delay)

	c.ddr.Request(cycle, e.req)
}

// QueueLen reports the number of requests currently queued, for testing.
func (c *Controller) QueueLen() int { return len(c.queue) }
