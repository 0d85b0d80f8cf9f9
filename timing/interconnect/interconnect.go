// Package interconnect models the bounded-bandwidth fabric between the
// shared L2 cache and the DDR memory controller.
package interconnect

import (
	"container/heap"
	"math/rand"

	"github.com/sarchlab/memhier/request"
)

// Downstream is the DDR memory controller, from the interconnect's point
// of view.
type Downstream interface {
	Request(cycle uint64, req *request.MemoryRequest)
}

// Config holds the interconnect's delay and bandwidth parameters.
type Config struct {
	// Delay is the base number of cycles a request spends in flight.
	Delay uint64
	// Bandwidth is the maximum number of requests forwarded per cycle.
	Bandwidth int
}

// entry is one (ready_time, request) pair. seq breaks ties in insertion
// order so that forwarding among equal-ready-time requests is stable and
// reproducible.
type entry struct {
	readyTime uint64
	seq       uint64
	req       *request.MemoryRequest
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].readyTime != h[j].readyTime {
		return h[i].readyTime < h[j].readyTime
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(*entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Interconnect is a priority queue of in-flight requests, bandwidth
// limited per cycle.
type Interconnect struct {
	config Config
	rng    *rand.Rand

	queue entryHeap
	seq   uint64

	downstream Downstream

	logf func(format string, args ...any)
}

// New creates an Interconnect. rng is the single seedable generator used
// for ready-time jitter.
func New(config Config, downstream Downstream, rng *rand.Rand) *Interconnect {
	return &Interconnect{
		config:     config,
		rng:        rng,
		downstream: downstream,
		logf:       func(string, ...any) {},
	}
}

// SetLogger installs a line logger used for trace output.
func (ic *Interconnect) SetLogger(logf func(format string, args ...any)) { ic.logf = logf }

// Request enqueues req with a jittered ready time: current_cycle + delay
// + U(0,2).
func (ic *Interconnect) Request(cycle uint64, req *request.MemoryRequest) {
	jitter := uint64(ic.rng.Intn(3))
	readyTime := cycle + ic.config.Delay + jitter

	ic.seq++
	heap.Push(&ic.queue, &entry{readyTime: readyTime, seq: ic.seq, req: req})

	ic.logf("%d interconnect enqueue addr=%d ready=%d", cycle, req.Addr, readyTime)
}

// Tick forwards up to Bandwidth ready requests to the controller.
func (ic *Interconnect) Tick(cycle uint64) {
	forwarded := 0
	for forwarded < ic.config.Bandwidth && len(ic.queue) > 0 && ic.queue[0].readyTime <= cycle {
		e := heap.Pop(&ic.queue).(*entry)
		ic.logf("%d interconnect forward addr=%d", cycle, e.req.Addr)
		ic.downstream.Request(cycle, e.req)
		forwarded++
	}
}

// Len reports the number of requests currently queued, for testing.
func (ic *Interconnect) Len() int { return len(ic.queue) }
