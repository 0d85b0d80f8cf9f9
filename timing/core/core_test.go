package core_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memhier/request"
	"github.com/sarchlab/memhier/timing/cache"
	"github.com/sarchlab/memhier/timing/core"
)

// deferredDownstream records requests without completing them until the
// test explicitly drains them, so a read can be held in flight across
// several ticks.
type deferredDownstream struct {
	pending []*request.MemoryRequest
}

func (d *deferredDownstream) Request(cycle uint64, req *request.MemoryRequest) {
	d.pending = append(d.pending, req)
}

func (d *deferredDownstream) completeAll() {
	pending := d.pending
	d.pending = nil
	for _, r := range pending {
		if r.Completion != nil {
			r.Completion()
		}
	}
}

func newTestCore(id int, warnOut *bytes.Buffer) (*core.Core, *deferredDownstream) {
	l1, err := cache.New(cache.DefaultL1Config(id))
	Expect(err).NotTo(HaveOccurred())

	down := &deferredDownstream{}
	l1.SetMemory(down)

	mlc := &cache.MultiLevel{L1: l1}
	return core.New(id, mlc, warnOut), down
}

var _ = Describe("Core", func() {
	var (
		c    *core.Core
		down *deferredDownstream
		warn *bytes.Buffer
	)

	BeforeEach(func() {
		warn = &bytes.Buffer{}
		c, down = newTestCore(0, warn)
	})

	It("issues a scheduled read and counts it", func() {
		c.LoadTrace(map[uint64]core.Access{0: {Kind: request.Read, Addr: 0}})

		c.Tick(0)
		Expect(c.Stats().Issued).To(Equal(uint64(1)))

		down.completeAll()
	})

	It("does nothing on a cycle with no scheduled access", func() {
		c.LoadTrace(map[uint64]core.Access{5: {Kind: request.Read, Addr: 0}})

		c.Tick(0)
		Expect(c.Stats().Issued).To(Equal(uint64(0)))
	})

	It("stalls a write that hazards against a still-pending read, then resumes once it clears", func() {
		c.LoadTrace(map[uint64]core.Access{
			0: {Kind: request.Read, Addr: 0},
			1: {Kind: request.Write, Addr: 0},
		})

		c.Tick(0) // issues the read; it stays pending (down defers completion)
		Expect(c.Stats().Issued).To(Equal(uint64(1)))

		c.Tick(1) // write hazards against the pending read: stalls
		Expect(c.Stats().Stalls).To(Equal(uint64(1)))
		Expect(c.Stats().Issued).To(Equal(uint64(1)))

		c.Tick(2) // still stalled: hazard hasn't cleared
		Expect(c.Stats().Issued).To(Equal(uint64(1)))

		down.completeAll() // the read completes, clearing the hazard

		c.Tick(3) // the stalled write can now issue
		Expect(c.Stats().Issued).To(Equal(uint64(2)))
		Expect(c.Stats().Stalls).To(Equal(uint64(1)), "the stall is only counted once")
	})

	It("never stalls a read after a read to the same address", func() {
		c.LoadTrace(map[uint64]core.Access{
			0: {Kind: request.Read, Addr: 0},
			1: {Kind: request.Read, Addr: 0},
		})

		c.Tick(0)
		c.Tick(1)
		Expect(c.Stats().Stalls).To(Equal(uint64(0)))
		Expect(c.Stats().Issued).To(Equal(uint64(2)))
	})

	It("warns once the pending read queue exceeds its threshold", func() {
		trace := map[uint64]core.Access{}
		for cycle := uint64(0); cycle < 12; cycle++ {
			trace[cycle] = core.Access{Kind: request.Read, Addr: cycle * 64} // distinct lines, no hazards
		}
		c.LoadTrace(trace)

		for cycle := uint64(0); cycle < 12; cycle++ {
			c.Tick(cycle)
		}

		Expect(warn.String()).To(ContainSubstring("pending_accesses exceeds"))
	})
})
