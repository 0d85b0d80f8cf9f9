package sim_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memhier/request"
	"github.com/sarchlab/memhier/sim"
	"github.com/sarchlab/memhier/timing/core"
)

var _ = Describe("LoadTraces", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "memhier-traces")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	writeTrace := func(content string) string {
		path := filepath.Join(dir, "trace.json")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	It("parses a multi-core trace file keyed by core id", func() {
		path := writeTrace(`{
			"0": [{"cycle":0,"kind":"read","addr":0},{"cycle":10,"kind":"write","addr":5}],
			"1": [{"cycle":3,"kind":"read","addr":2}]
		}`)

		traces, err := sim.LoadTraces(path)
		Expect(err).NotTo(HaveOccurred())

		Expect(traces[0][0]).To(Equal(core.Access{Kind: request.Read, Addr: 0}))
		Expect(traces[0][10]).To(Equal(core.Access{Kind: request.Write, Addr: 5}))
		Expect(traces[1][3]).To(Equal(core.Access{Kind: request.Read, Addr: 2}))
	})

	It("rejects an invalid access kind", func() {
		path := writeTrace(`{"0": [{"cycle":0,"kind":"flush","addr":0}]}`)
		_, err := sim.LoadTraces(path)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non-integer core key", func() {
		path := writeTrace(`{"not-a-core": [{"cycle":0,"kind":"read","addr":0}]}`)
		_, err := sim.LoadTraces(path)
		Expect(err).To(HaveOccurred())
	})

	It("fails on malformed JSON", func() {
		path := writeTrace(`{not json`)
		_, err := sim.LoadTraces(path)
		Expect(err).To(HaveOccurred())
	})

	It("fails on a nonexistent file", func() {
		_, err := sim.LoadTraces(filepath.Join(dir, "missing.json"))
		Expect(err).To(HaveOccurred())
	})
})
