package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/cache"
	"github.com/sarchlab/rv64sim/membus"
)

var _ = Describe("Cache", func() {
	var (
		c       *cache.Cache
		backing *membus.Memory
	)

	BeforeEach(func() {
		backing = membus.New()
		// Small cache for testing: 1KB, 4-way, 64B lines.
		c = cache.New(cache.Config{
			Size:          1024,
			Associativity: 4,
			BlockSize:     64,
			HitLatency:    1,
			MissLatency:   10,
		}, backing)
	})

	Describe("read-through on a cold cache", func() {
		It("reads the backing store's value and records a miss", func() {
			backing.WriteDoubleWord(0x1000, 0xDEADBEEF)

			Expect(c.ReadDoubleWord(0x1000)).To(BeEquivalentTo(0xDEADBEEF))

			stats := c.Stats()
			Expect(stats.Reads).To(BeEquivalentTo(1))
			Expect(stats.Misses).To(BeEquivalentTo(1))
			Expect(stats.Hits).To(BeEquivalentTo(0))
		})
	})

	Describe("hit after a fill", func() {
		It("serves a second read to the same line as a hit", func() {
			backing.WriteDoubleWord(0x1000, 0xCAFEBABE)

			c.ReadDoubleWord(0x1000) // miss, fills the line

			Expect(c.ReadDoubleWord(0x1000)).To(BeEquivalentTo(0xCAFEBABE))

			stats := c.Stats()
			Expect(stats.Reads).To(BeEquivalentTo(2))
			Expect(stats.Misses).To(BeEquivalentTo(1))
			Expect(stats.Hits).To(BeEquivalentTo(1))
		})

		It("hits on a different address within the same cache line", func() {
			backing.WriteWord(0x1000, 0x11111111)
			backing.WriteWord(0x1004, 0x22222222)

			c.ReadWord(0x1000) // miss, loads the entire 64B line

			Expect(c.ReadWord(0x1004)).To(BeEquivalentTo(0x22222222))
			Expect(c.Stats().Hits).To(BeEquivalentTo(1))
		})
	})

	Describe("write-allocate on a miss", func() {
		It("writes into a freshly installed line", func() {
			c.WriteWord(0x2000, 0xABCD1234)

			Expect(c.ReadWord(0x2000)).To(BeEquivalentTo(0xABCD1234))
			Expect(c.Stats().Misses).To(BeEquivalentTo(1))
		})

		It("keeps the written value out of the backing store until eviction", func() {
			c.WriteWord(0x2000, 0xABCD1234)
			Expect(backing.ReadWord(0x2000)).To(BeZero(), "a dirty write must not hit backing until eviction")
		})
	})

	Describe("eviction", func() {
		It("preserves every dirty value across evictions via writeback", func() {
			// 1KB/64B lines/4-way = 4 sets; writing to 16 distinct lines
			// guarantees repeated eviction within at least one set.
			written := map[uint64]uint32{}
			for i := uint64(0); i < 16; i++ {
				addr := i * 0x1000
				val := uint32(0xA0000000 + i)
				c.WriteWord(addr, val)
				written[addr] = val
			}

			Expect(c.Stats().Evictions).To(BeNumerically(">", 0))
			Expect(c.Stats().Writebacks).To(BeNumerically(">", 0))

			for addr, val := range written {
				Expect(c.ReadWord(addr)).To(BeEquivalentTo(val), "value at 0x%x must survive eviction", addr)
			}
		})
	})

	Describe("Flush", func() {
		It("writes back all dirty lines to the backing store", func() {
			c.WriteWord(0x5000, 0x42)
			Expect(backing.ReadWord(0x5000)).To(BeZero())

			c.Flush()

			Expect(backing.ReadWord(0x5000)).To(BeEquivalentTo(0x42))
		})
	})

	Describe("as a core.MemoryBus substitute", func() {
		It("is transparently usable wherever a bus is expected", func() {
			backing.WriteByte(0x10, 0xFF)
			Expect(c.ReadByte(0x10)).To(BeEquivalentTo(0xFF))
		})
	})
})
