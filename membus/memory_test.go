package membus_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/membus"
)

var _ = Describe("Memory", func() {
	It("reads back a written doubleword", func() {
		m := membus.New()
		m.WriteDoubleWord(0x1000, 0xDEADBEEFCAFEBABE)
		Expect(m.ReadDoubleWord(0x1000)).To(BeEquivalentTo(uint64(0xDEADBEEFCAFEBABE)))
	})

	It("is little-endian at byte granularity", func() {
		m := membus.New()
		m.WriteWord(0x10, 0x11223344)
		Expect(m.ReadByte(0x10)).To(BeEquivalentTo(0x44))
		Expect(m.ReadByte(0x11)).To(BeEquivalentTo(0x33))
		Expect(m.ReadByte(0x12)).To(BeEquivalentTo(0x22))
		Expect(m.ReadByte(0x13)).To(BeEquivalentTo(0x11))
	})

	It("reads zero from memory never written", func() {
		m := membus.New()
		Expect(m.ReadDoubleWord(0x7fffffff0000)).To(BeZero())
	})

	It("permits unaligned access", func() {
		m := membus.New()
		m.WriteWord(0x1003, 0xAABBCCDD)
		Expect(m.ReadWord(0x1003)).To(BeEquivalentTo(0xAABBCCDD))
	})

	It("allocates backing storage lazily across page boundaries", func() {
		m := membus.New()
		m.WriteByte(0x0FFF, 0xAB)
		m.WriteByte(0x1000, 0xCD)
		Expect(m.ReadByte(0x0FFF)).To(BeEquivalentTo(0xAB))
		Expect(m.ReadByte(0x1000)).To(BeEquivalentTo(0xCD))
	})

	It("loads a byte slice at an address via LoadBytes", func() {
		m := membus.New()
		m.LoadBytes(0x2000, []byte{0x13, 0x05, 0x50, 0x02})
		Expect(m.ReadWord(0x2000)).To(BeEquivalentTo(0x02500513))
	})
})
