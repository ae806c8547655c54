package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/core"
)

var _ = Describe("RegisterFile", func() {
	var rf core.RegisterFile

	BeforeEach(func() {
		rf = core.RegisterFile{}
	})

	It("always reads x0 as zero", func() {
		rf.SetRD(0)
		rf.SetWriteEnable(true)
		rf.SetWriteData(42)
		rf.ClockPulse()
		Expect(rf.Read(0)).To(BeZero())
	})

	It("observes a written value only after a clock pulse", func() {
		rf.SetRD(5)
		rf.SetWriteEnable(true)
		rf.SetWriteData(99)
		Expect(rf.Read(5)).To(BeZero())
		rf.ClockPulse()
		Expect(rf.Read(5)).To(BeEquivalentTo(99))
	})

	It("drops a pending write when write enable is false", func() {
		rf.SetRD(5)
		rf.SetWriteEnable(false)
		rf.SetWriteData(99)
		rf.ClockPulse()
		Expect(rf.Read(5)).To(BeZero())
	})

	It("serves both read ports combinationally", func() {
		rf.SetRD(1)
		rf.SetWriteEnable(true)
		rf.SetWriteData(10)
		rf.ClockPulse()
		rf.SetRD(2)
		rf.SetWriteData(20)
		rf.ClockPulse()

		rf.SetRS1(1)
		rf.SetRS2(2)
		Expect(rf.ReadData1()).To(BeEquivalentTo(10))
		Expect(rf.ReadData2()).To(BeEquivalentTo(20))
	})

	It("seeds a register immediately via WriteInitial, bypassing the latch", func() {
		rf.WriteInitial(2, 0x3ffffff000)
		Expect(rf.Read(2)).To(BeEquivalentTo(0x3ffffff000))
	})

	It("drops a WriteInitial targeting x0", func() {
		rf.WriteInitial(0, 123)
		Expect(rf.Read(0)).To(BeZero())
	})
})
