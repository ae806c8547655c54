package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/core"
	"github.com/sarchlab/rv64sim/insts"
)

var _ = Describe("Disassemble", func() {
	It("renders R-type instructions as '<mnem> rX, rY, rZ'", func() {
		word := uint32(core.OpOP) | 3<<7 | 0<<12 | 1<<15 | 2<<20 | 0<<25
		Expect(insts.Disassemble(word)).To(Equal("add r3, r1, r2"))
	})

	It("renders I-type arithmetic as '<mnem> rX, rY, $imm'", func() {
		word := encodeI(core.OpIMM, 1, 2, 0, 5)
		Expect(insts.Disassemble(word)).To(Equal("addi r1, r2, $5"))
	})

	It("renders loads as '<mnem> rX, $imm(rY)'", func() {
		word := encodeI(core.OpLOAD, 1, 2, 0x3, 8)
		Expect(insts.Disassemble(word)).To(Equal("ld r1, $8(r2)"))
	})

	It("renders stores as '<mnem> rX, $imm(rY)'", func() {
		word := encodeS(core.OpSTORE, 2, 3, 0x2, 4)
		Expect(insts.Disassemble(word)).To(Equal("sw r3, $4(r2)"))
	})

	It("renders branches with the signed byte offset", func() {
		word := encodeB(core.OpBRANCH, 1, 2, 0x0, 8)
		Expect(insts.Disassemble(word)).To(Equal("beq r1, r2, $8"))
	})

	It("renders jal/jalr/lui/auipc", func() {
		jal := encodeJ(core.OpJAL, 1, 8)
		Expect(insts.Disassemble(jal)).To(Equal("jal r1, $8"))

		jalr := encodeI(core.OpJALR, 1, 2, 0, 7)
		Expect(insts.Disassemble(jalr)).To(Equal("jalr r1, $7(r2)"))

		var raw uint32 = 0x80000
		lui := encodeU(core.OpLUI, 1, int64(raw)<<12)
		Expect(insts.Disassemble(lui)).To(Equal("lui r1, $524288"))

		auipc := encodeU(core.OpAUIPC, 1, int64(raw)<<12)
		Expect(insts.Disassemble(auipc)).To(Equal("auipc r1, $524288"))
	})

	It("expands C.ADDI4SPN as 'addi' with a trailing compressed marker", func() {
		// quadrant 0, funct3 0, rd' = 0 -> rd = x8, nzuimm bits all zero except bit 3 (via bit5).
		var inst uint16 = 0<<13 | 0<<2 | 0x0
		inst |= 1 << 5 // nzuimm bit 3
		got := insts.Disassemble(uint32(inst))
		Expect(got).To(Equal("addi r8, r2, $8  \t(compressed)"))
	})

	It("expands C.ADDIW as 'addiw' with a trailing compressed marker", func() {
		// quadrant 1, funct3 1, rd = 5, imm[5:0] = 3 (bit12=0, bits[6:2]=3).
		var inst uint16 = 1<<13 | 5<<7 | 3<<2 | 0x1
		got := insts.Disassemble(uint32(inst))
		Expect(got).To(Equal("addiw r5, r5, $3  \t(compressed)"))
	})

	It("expands C.SLLI as 'slli' with a trailing compressed marker", func() {
		// quadrant 2, funct3 0, rd = 9, shamt[5:0] = 5 (bit12=0, bits[6:2]=5).
		var inst uint16 = 0<<13 | 9<<7 | 5<<2 | 0x2
		got := insts.Disassemble(uint32(inst))
		Expect(got).To(Equal("slli r9, r9, $5  \t(compressed)"))
	})

	It("prints 'illegal instruction' for an unrecognized 32-bit opcode", func() {
		Expect(insts.Disassemble(0x7F)).To(Equal("illegal instruction"))
	})

	It("prints 'illegal instruction' for an unrecognized compressed pattern", func() {
		var inst uint16 = 0x2 // quadrant 2, funct3 != 0
		inst |= 0x7 << 13
		Expect(insts.Disassemble(uint32(inst))).To(Equal("illegal instruction"))
	})
})
