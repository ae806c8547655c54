package insts

import (
	"fmt"

	"github.com/sarchlab/rv64sim/core"
)

func formatRegister(r core.RegNumber) string { return fmt.Sprintf("r%d", r) }

func formatImmediate(v int64) string { return fmt.Sprintf("$%d", v) }

func emitBinaryOp(mnemonic string, rd, rs1, rs2 core.RegNumber) string {
	return fmt.Sprintf("%s %s, %s, %s", mnemonic, formatRegister(rd), formatRegister(rs1), formatRegister(rs2))
}

func emitUnaryOp(mnemonic string, rd, rs1 core.RegNumber, imm int64) string {
	return fmt.Sprintf("%s %s, %s, %s", mnemonic, formatRegister(rd), formatRegister(rs1), formatImmediate(imm))
}

func emitLoad(mnemonic string, rd, rs1 core.RegNumber, imm int64) string {
	return fmt.Sprintf("%s %s, %s(%s)", mnemonic, formatRegister(rd), formatImmediate(imm), formatRegister(rs1))
}

func emitStore(mnemonic string, rs2, rs1 core.RegNumber, imm int64) string {
	return fmt.Sprintf("%s %s, %s(%s)", mnemonic, formatRegister(rs2), formatImmediate(imm), formatRegister(rs1))
}

func emitBranch(mnemonic string, rs1, rs2 core.RegNumber, imm int64) string {
	return fmt.Sprintf("%s %s, %s, %s", mnemonic, formatRegister(rs1), formatRegister(rs2), formatImmediate(imm))
}

// low16 extracts the low 16 bits used by the compressed-instruction path.
func low16(word uint32) uint16 { return uint16(word & 0xFFFF) }

func signExtend16(value uint32, bits uint) int64 {
	mask := uint32(1) << (bits - 1)
	return int64(int32((value ^ mask) - mask))
}

// formatCompressedInstruction recognizes exactly the three 16-bit
// encodings this simulator disassembles: C.ADDI4SPN, C.ADDIW, C.SLLI.
// Any other pattern is an illegal instruction.
func formatCompressedInstruction(inst uint16) (string, error) {
	quadrant := inst & 0x3
	funct3 := (inst >> 13) & 0x7

	var body string

	switch quadrant {
	case 0x0:
		if funct3 != 0x0 {
			return "", &core.IllegalInstruction{Msg: "unsupported compressed instruction"}
		}
		rdPrime := (inst >> 2) & 0x7
		rd := core.RegNumber(rdPrime + 8)
		var imm uint32
		imm |= uint32((inst>>11)&0x3) << 4
		imm |= uint32((inst>>7)&0xF) << 6
		imm |= uint32((inst>>6)&0x1) << 2
		imm |= uint32((inst>>5)&0x1) << 3
		body = fmt.Sprintf("addi %s, %s, %s", formatRegister(rd), formatRegister(2), formatImmediate(int64(imm)))

	case 0x1:
		if funct3 != 0x1 {
			return "", &core.IllegalInstruction{Msg: "unsupported compressed instruction"}
		}
		rd := core.RegNumber((inst >> 7) & 0x1F)
		imm := uint32((inst>>12)&0x1)<<5 | uint32((inst>>2)&0x1F)
		body = fmt.Sprintf("addiw %s, %s, %s", formatRegister(rd), formatRegister(rd), formatImmediate(signExtend16(imm, 6)))

	case 0x2:
		if funct3 != 0x0 {
			return "", &core.IllegalInstruction{Msg: "unsupported compressed instruction"}
		}
		rd := core.RegNumber((inst >> 7) & 0x1F)
		shamt := uint32((inst>>12)&0x1)<<5 | uint32((inst>>2)&0x1F)
		body = fmt.Sprintf("slli %s, %s, %s", formatRegister(rd), formatRegister(rd), formatImmediate(int64(shamt)))

	default:
		return "", &core.IllegalInstruction{Msg: "unsupported compressed instruction"}
	}

	return body + "  \t(compressed)", nil
}

func formatOpType(d *Decoder) (string, error) {
	funct3, funct7 := d.Funct3(), d.Funct7()
	rd, rs1, rs2 := d.RD(), d.RS1(), d.RS2()

	switch funct3 {
	case 0x0:
		if funct7 == 0x00 {
			return emitBinaryOp("add", rd, rs1, rs2), nil
		} else if funct7 == 0x20 {
			return emitBinaryOp("sub", rd, rs1, rs2), nil
		}
	case 0x1:
		if funct7 == 0x00 {
			return emitBinaryOp("sll", rd, rs1, rs2), nil
		}
	case 0x2:
		if funct7 == 0x00 {
			return emitBinaryOp("slt", rd, rs1, rs2), nil
		}
	case 0x3:
		if funct7 == 0x00 {
			return emitBinaryOp("sltu", rd, rs1, rs2), nil
		}
	case 0x4:
		if funct7 == 0x00 {
			return emitBinaryOp("xor", rd, rs1, rs2), nil
		}
	case 0x5:
		if funct7 == 0x00 {
			return emitBinaryOp("srl", rd, rs1, rs2), nil
		} else if funct7 == 0x20 {
			return emitBinaryOp("sra", rd, rs1, rs2), nil
		}
	case 0x6:
		if funct7 == 0x00 {
			return emitBinaryOp("or", rd, rs1, rs2), nil
		}
	case 0x7:
		if funct7 == 0x00 {
			return emitBinaryOp("and", rd, rs1, rs2), nil
		}
	}
	return "", &core.IllegalInstruction{Word: d.word, Msg: "unknown R-type instruction"}
}

func formatOp32Type(d *Decoder) (string, error) {
	funct3, funct7 := d.Funct3(), d.Funct7()
	rd, rs1, rs2 := d.RD(), d.RS1(), d.RS2()

	switch funct3 {
	case 0x0:
		if funct7 == 0x00 {
			return emitBinaryOp("addw", rd, rs1, rs2), nil
		} else if funct7 == 0x20 {
			return emitBinaryOp("subw", rd, rs1, rs2), nil
		}
	case 0x1:
		if funct7 == 0x00 {
			return emitBinaryOp("sllw", rd, rs1, rs2), nil
		}
	case 0x5:
		if funct7 == 0x00 {
			return emitBinaryOp("srlw", rd, rs1, rs2), nil
		} else if funct7 == 0x20 {
			return emitBinaryOp("sraw", rd, rs1, rs2), nil
		}
	}
	return "", &core.IllegalInstruction{Word: d.word, Msg: "unknown RV64 R-type instruction"}
}

func formatOpImm(d *Decoder) (string, error) {
	funct3, funct7 := d.Funct3(), d.Funct7()
	rd, rs1 := d.RD(), d.RS1()
	imm := d.ImmediateI()

	switch funct3 {
	case 0x0:
		return emitUnaryOp("addi", rd, rs1, imm), nil
	case 0x2:
		return emitUnaryOp("slti", rd, rs1, imm), nil
	case 0x3:
		return emitUnaryOp("sltiu", rd, rs1, imm), nil
	case 0x4:
		return emitUnaryOp("xori", rd, rs1, imm), nil
	case 0x6:
		return emitUnaryOp("ori", rd, rs1, imm), nil
	case 0x7:
		return emitUnaryOp("andi", rd, rs1, imm), nil
	case 0x1:
		if funct7 == 0x00 {
			return emitUnaryOp("slli", rd, rs1, imm&0x3F), nil
		}
	case 0x5:
		if funct7 == 0x00 {
			return emitUnaryOp("srli", rd, rs1, imm&0x3F), nil
		} else if funct7 == 0x20 {
			return emitUnaryOp("srai", rd, rs1, imm&0x3F), nil
		}
	}
	return "", &core.IllegalInstruction{Word: d.word, Msg: "unknown immediate instruction"}
}

func formatOpImm32(d *Decoder) (string, error) {
	funct3, funct7 := d.Funct3(), d.Funct7()
	rd, rs1 := d.RD(), d.RS1()
	imm := d.ImmediateI()

	switch funct3 {
	case 0x0:
		return emitUnaryOp("addiw", rd, rs1, imm), nil
	case 0x1:
		if funct7 == 0x00 {
			return emitUnaryOp("slliw", rd, rs1, imm&0x1F), nil
		}
	case 0x5:
		if funct7 == 0x00 {
			return emitUnaryOp("srliw", rd, rs1, imm&0x1F), nil
		} else if funct7 == 0x20 {
			return emitUnaryOp("sraiw", rd, rs1, imm&0x1F), nil
		}
	}
	return "", &core.IllegalInstruction{Word: d.word, Msg: "unknown RV64 immediate instruction"}
}

func formatLoad(d *Decoder) (string, error) {
	rd, rs1, imm := d.RD(), d.RS1(), d.ImmediateI()
	switch d.Funct3() {
	case 0x0:
		return emitLoad("lb", rd, rs1, imm), nil
	case 0x1:
		return emitLoad("lh", rd, rs1, imm), nil
	case 0x2:
		return emitLoad("lw", rd, rs1, imm), nil
	case 0x3:
		return emitLoad("ld", rd, rs1, imm), nil
	case 0x4:
		return emitLoad("lbu", rd, rs1, imm), nil
	case 0x5:
		return emitLoad("lhu", rd, rs1, imm), nil
	case 0x6:
		return emitLoad("lwu", rd, rs1, imm), nil
	default:
		return "", &core.IllegalInstruction{Word: d.word, Msg: "unknown load"}
	}
}

func formatStore(d *Decoder) (string, error) {
	rs1, rs2, imm := d.RS1(), d.RS2(), d.ImmediateS()
	switch d.Funct3() {
	case 0x0:
		return emitStore("sb", rs2, rs1, imm), nil
	case 0x1:
		return emitStore("sh", rs2, rs1, imm), nil
	case 0x2:
		return emitStore("sw", rs2, rs1, imm), nil
	case 0x3:
		return emitStore("sd", rs2, rs1, imm), nil
	default:
		return "", &core.IllegalInstruction{Word: d.word, Msg: "unknown store"}
	}
}

func formatBranch(d *Decoder) (string, error) {
	rs1, rs2, imm := d.RS1(), d.RS2(), d.ImmediateB()
	switch d.Funct3() {
	case 0x0:
		return emitBranch("beq", rs1, rs2, imm), nil
	case 0x1:
		return emitBranch("bne", rs1, rs2, imm), nil
	case 0x4:
		return emitBranch("blt", rs1, rs2, imm), nil
	case 0x5:
		return emitBranch("bge", rs1, rs2, imm), nil
	case 0x6:
		return emitBranch("bltu", rs1, rs2, imm), nil
	case 0x7:
		return emitBranch("bgeu", rs1, rs2, imm), nil
	default:
		return "", &core.IllegalInstruction{Word: d.word, Msg: "unknown branch"}
	}
}

// Disassemble renders word as the external debug-contract mnemonic
// grammar. On any decode/format failure it returns the literal
// "illegal instruction" rather than propagating an error, matching the
// one place this core's error taxonomy is deliberately swallowed.
func Disassemble(word uint32) string {
	s, err := disassemble(word)
	if err != nil {
		return "illegal instruction"
	}
	return s
}

func disassemble(word uint32) (string, error) {
	if word&0x3 != 0x3 {
		return formatCompressedInstruction(low16(word))
	}

	d := &Decoder{word: word}
	rd, rs1 := d.RD(), d.RS1()

	switch d.Opcode() {
	case core.OpOP:
		return formatOpType(d)
	case core.OpIMM:
		return formatOpImm(d)
	case core.OpOP32:
		return formatOp32Type(d)
	case core.OpIMM32:
		return formatOpImm32(d)
	case core.OpLOAD:
		return formatLoad(d)
	case core.OpSTORE:
		return formatStore(d)
	case core.OpBRANCH:
		return formatBranch(d)
	case core.OpJALR:
		return fmt.Sprintf("jalr %s, %s(%s)", formatRegister(rd), formatImmediate(d.ImmediateI()), formatRegister(rs1)), nil
	case core.OpJAL:
		return fmt.Sprintf("jal %s, %s", formatRegister(rd), formatImmediate(d.ImmediateJ())), nil
	case core.OpLUI:
		return fmt.Sprintf("lui %s, %s", formatRegister(rd), formatImmediate(int64((word>>12)&0xFFFFF))), nil
	case core.OpAUIPC:
		return fmt.Sprintf("auipc %s, %s", formatRegister(rd), formatImmediate(int64((word>>12)&0xFFFFF))), nil
	default:
		return "", &core.IllegalInstruction{Word: word, Msg: "unknown opcode"}
	}
}
