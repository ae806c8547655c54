package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv64sim/core"
)

func asU64(v int64) uint64 { return uint64(v) }

func asI32(v uint32) int32 { return int32(v) }

func result(a, b core.RegValue, op core.ALUOp) core.RegValue {
	var alu core.ALU
	alu.SetA(a)
	alu.SetB(b)
	alu.SetOp(op)
	v, err := alu.Result()
	Expect(err).NotTo(HaveOccurred())
	return v
}

var _ = Describe("ALU", func() {
	It("adds and subtracts 64-bit operands", func() {
		Expect(result(5, 7, core.ADD)).To(BeEquivalentTo(12))
		Expect(result(12, 7, core.SUB)).To(BeEquivalentTo(5))
	})

	It("restores the original operand via add-then-sub", func() {
		a, b := core.RegValue(0x1234), core.RegValue(0x5678)
		sum := result(a, b, core.ADD)
		Expect(result(sum, b, core.SUB)).To(Equal(a))
	})

	It("shifts left by 63 and masks 64 to 0 (identity)", func() {
		Expect(result(1, 63, core.SLL)).To(BeEquivalentTo(uint64(1) << 63))
		Expect(result(0xFF, 64, core.SLL)).To(BeEquivalentTo(0xFF))
	})

	It("preserves sign through every bit on SRA of a negative value", func() {
		Expect(result(asU64(-8), 2, core.SRA)).To(BeEquivalentTo(asU64(-2)))
	})

	It("computes signed and unsigned comparisons differently", func() {
		negOne := asU64(-1)
		Expect(result(negOne, 1, core.SLT)).To(BeEquivalentTo(1))
		Expect(result(negOne, 1, core.SLTU)).To(BeEquivalentTo(0))
	})

	It("sign-extends ADDW overflow from INT32_MAX+1 to INT32_MIN", func() {
		v := result(uint64(0x7FFFFFFF), 1, core.ADDW)
		Expect(v).To(BeEquivalentTo(asU64(-2147483648)))
	})

	It("computes the 32-bit shift variants on the low word and sign-extends", func() {
		Expect(result(uint64(0x80000000), 0, core.SLLW)).To(BeEquivalentTo(asU64(int64(asI32(0x80000000)))))
		Expect(result(uint64(0xFFFFFFFF), 4, core.SRLW)).To(BeEquivalentTo(uint64(int64(int32(0x0FFFFFFF)))))
		Expect(result(uint64(0x80000000), 4, core.SRAW)).To(BeEquivalentTo(asU64(int64(asI32(0xF8000000)))))
	})

	It("returns 0 for NOP", func() {
		Expect(result(123, 456, core.NOP)).To(BeEquivalentTo(0))
	})

	It("rejects an unknown ALU op", func() {
		var alu core.ALU
		alu.SetOp(core.ALUOp(999))
		_, err := alu.Result()
		Expect(err).To(HaveOccurred())
		Expect(err).To(BeAssignableToTypeOf(&core.IllegalInstruction{}))
	})
})
