package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memhier/timing/cache"
)

var _ = Describe("Config", func() {
	Describe("Validate", func() {
		It("accepts the default L1 configuration", func() {
			Expect(cache.DefaultL1Config(0).Validate()).To(Succeed())
		})

		It("accepts the default L2 configuration", func() {
			Expect(cache.DefaultL2Config().Validate()).To(Succeed())
		})

		It("rejects a non-power-of-two associativity", func() {
			c := cache.DefaultL1Config(0)
			c.Assoc = 3
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("rejects a size not divisible by line_size*assoc", func() {
			c := cache.DefaultL1Config(0)
			c.Size = 30
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("rejects a non-positive line size", func() {
			c := cache.DefaultL1Config(0)
			c.LineSize = 0
			Expect(c.Validate()).To(HaveOccurred())
		})
	})

	Describe("NumSets", func() {
		It("derives the set count from size, line size, and associativity", func() {
			c := cache.DefaultL1Config(0) // 32 bytes / (4*2) = 4 sets
			Expect(c.NumSets()).To(Equal(4))
		})
	})
})
