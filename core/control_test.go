package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/core"
)

var _ = Describe("DeriveControlSignals", func() {
	It("derives ADD for R-type funct3=0 funct7=0x00", func() {
		c := core.DeriveControlSignals(core.OpOP, 0x0, 0x00)
		Expect(c.RegWrite).To(BeTrue())
		Expect(c.ALUSrc).To(BeFalse())
		Expect(c.ALUOp).To(Equal(core.ADD))
	})

	It("derives SUB for R-type funct3=0 funct7=0x20", func() {
		c := core.DeriveControlSignals(core.OpOP, 0x0, 0x20)
		Expect(c.ALUOp).To(Equal(core.SUB))
	})

	It("sets aluSrc for OP_IMM and picks the funct3-driven op", func() {
		c := core.DeriveControlSignals(core.OpIMM, 0x7, 0x00)
		Expect(c.ALUSrc).To(BeTrue())
		Expect(c.ALUOp).To(Equal(core.AND))
	})

	It("derives the W-variant ops for OP_32/OP_IMM_32", func() {
		Expect(core.DeriveControlSignals(core.OpOP32, 0x0, 0x00).ALUOp).To(Equal(core.ADDW))
		Expect(core.DeriveControlSignals(core.OpOP32, 0x0, 0x20).ALUOp).To(Equal(core.SUBW))
		Expect(core.DeriveControlSignals(core.OpIMM32, 0x5, 0x20).ALUOp).To(Equal(core.SRAW))
	})

	It("configures LOAD signals per funct3, including sign-extension", func() {
		lb := core.DeriveControlSignals(core.OpLOAD, 0x0, 0)
		Expect(lb.MemRead).To(BeTrue())
		Expect(lb.MemToReg).To(BeTrue())
		Expect(lb.MemSize).To(BeEquivalentTo(1))
		Expect(lb.MemSignExtend).To(BeTrue())

		lwu := core.DeriveControlSignals(core.OpLOAD, 0x6, 0)
		Expect(lwu.MemSize).To(BeEquivalentTo(4))
		Expect(lwu.MemSignExtend).To(BeFalse())
	})

	It("configures STORE signals per funct3 with no sign-extension field", func() {
		sd := core.DeriveControlSignals(core.OpSTORE, 0x3, 0)
		Expect(sd.MemWrite).To(BeTrue())
		Expect(sd.RegWrite).To(BeFalse())
		Expect(sd.MemSize).To(BeEquivalentTo(8))
	})

	It("sets branch=true, aluOp=SUB for BRANCH regardless of funct3", func() {
		c := core.DeriveControlSignals(core.OpBRANCH, 0x4, 0)
		Expect(c.Branch).To(BeTrue())
		Expect(c.ALUOp).To(Equal(core.SUB))
		Expect(c.RegWrite).To(BeFalse())
	})

	It("sets jump/aluSrc/regWrite for JAL and JALR", func() {
		jal := core.DeriveControlSignals(core.OpJAL, 0, 0)
		Expect(jal.Jump).To(BeTrue())
		Expect(jal.ALUSrc).To(BeTrue())
		Expect(jal.RegWrite).To(BeTrue())

		jalr := core.DeriveControlSignals(core.OpJALR, 0, 0)
		Expect(jalr.Jump).To(BeTrue())
	})

	It("derives ADD for LUI and AUIPC", func() {
		Expect(core.DeriveControlSignals(core.OpLUI, 0, 0).ALUOp).To(Equal(core.ADD))
		Expect(core.DeriveControlSignals(core.OpAUIPC, 0, 0).ALUOp).To(Equal(core.ADD))
	})

	It("returns the all-false/NOP bundle for an unrecognized opcode", func() {
		c := core.DeriveControlSignals(core.Opcode(0x7F), 0, 0)
		Expect(c).To(Equal(core.ControlSignals{ALUOp: core.NOP}))
	})
})
