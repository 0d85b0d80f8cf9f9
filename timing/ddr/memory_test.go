package ddr_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memhier/request"
	"github.com/sarchlab/memhier/timing/ddr"
)

var _ = Describe("Memory", func() {
	var (
		m      *ddr.Memory
		config ddr.ControllerConfig
	)

	BeforeEach(func() {
		config = ddr.DefaultControllerConfig()
		m = ddr.NewMemory(config)
	})

	It("opens a row and enters Reading on a fresh read to an idle bank", func() {
		req := request.New(0, 0, request.Read, 0, func() {})
		req.CompletionTime = 10

		m.Request(0, req)
		Expect(m.BankState(0)).To(Equal(ddr.Reading))

		row, open := m.OpenRow(0)
		Expect(open).To(BeTrue())
		Expect(row).To(Equal(config.Row(0)))
	})

	It("enters Writing on a fresh write", func() {
		req := request.New(0, 0, request.Write, 0, nil)
		req.CompletionTime = 10

		m.Request(0, req)
		Expect(m.BankState(0)).To(Equal(ddr.Writing))
	})

	It("returns to ActivateBankRow once the completion time elapses", func() {
		req := request.New(0, 0, request.Read, 0, func() {})
		req.CompletionTime = 10
		m.Request(0, req)

		m.Tick(5)
		Expect(m.BankState(0)).To(Equal(ddr.Reading))

		m.Tick(10)
		Expect(m.BankState(0)).To(Equal(ddr.ActivateBankRow))
	})

	It("invokes the read completion callback exactly once it finishes", func() {
		calls := 0
		req := request.New(0, 0, request.Read, 0, func() { calls++ })
		req.CompletionTime = 10

		m.Request(0, req)
		m.Tick(9)
		Expect(calls).To(Equal(0))

		m.Tick(10)
		Expect(calls).To(Equal(1))

		m.Tick(11)
		Expect(calls).To(Equal(1), "a drained completion never fires twice")
	})

	It("re-opens the row when a later access targets a different row in the same bank", func() {
		req1 := request.New(0, 0, request.Read, 0, func() {})
		req1.CompletionTime = 10
		m.Request(0, req1)
		m.Tick(10)

		row2 := config.RowStride * 5
		req2 := request.New(0, 10, request.Read, row2, func() {})
		req2.CompletionTime = 20
		m.Request(10, req2)

		row, _ := m.OpenRow(0)
		Expect(row).To(Equal(config.Row(row2)))
	})
})
