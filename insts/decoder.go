// Package insts provides the RV64I instruction-word decoder and the
// debug-mode disassembler.
package insts

import "github.com/sarchlab/rv64sim/core"

// Decoder is a pure function of a 32-bit instruction word: it holds no
// state beyond the word currently configured into it.
type Decoder struct {
	word uint32
}

// NewDecoder creates a Decoder with no instruction word configured.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// SetInstructionWord configures the word to decode.
func (d *Decoder) SetInstructionWord(word uint32) { d.word = word }

// InstructionWord returns the currently configured word.
func (d *Decoder) InstructionWord() uint32 { return d.word }

// Opcode returns the low 7 bits of the instruction word.
func (d *Decoder) Opcode() core.Opcode { return core.Opcode(d.word & 0x7F) }

// RS1 returns bits 19:15.
func (d *Decoder) RS1() core.RegNumber { return core.RegNumber((d.word >> 15) & 0x1F) }

// RS2 returns bits 24:20.
func (d *Decoder) RS2() core.RegNumber { return core.RegNumber((d.word >> 20) & 0x1F) }

// RD returns bits 11:7.
func (d *Decoder) RD() core.RegNumber { return core.RegNumber((d.word >> 7) & 0x1F) }

// Funct3 returns bits 14:12.
func (d *Decoder) Funct3() uint8 { return uint8((d.word >> 12) & 0x07) }

// Funct7 returns bits 31:25.
func (d *Decoder) Funct7() uint8 { return uint8((d.word >> 25) & 0x7F) }

func signExtend(value uint64, bits uint) int64 {
	mask := uint64(1) << (bits - 1)
	return int64((value ^ mask) - mask)
}

// ImmediateI returns sign-extend(bits[31:20], 12).
func (d *Decoder) ImmediateI() int64 {
	imm := uint64(d.word>>20) & 0xFFF
	return signExtend(imm, 12)
}

// ImmediateS returns sign-extend((bits[31:25]<<5) | bits[11:7], 12).
func (d *Decoder) ImmediateS() int64 {
	imm := (uint64(d.word>>25)&0x7F)<<5 | (uint64(d.word>>7)&0x1F)
	return signExtend(imm, 12)
}

// ImmediateB returns sign-extend((bit31<<12)|(bit7<<11)|(bits[30:25]<<5)|(bits[11:8]<<1), 13).
func (d *Decoder) ImmediateB() int64 {
	imm := (uint64(d.word>>31)&0x1)<<12 |
		(uint64(d.word>>7)&0x1)<<11 |
		(uint64(d.word>>25)&0x3F)<<5 |
		(uint64(d.word>>8)&0xF)<<1
	return signExtend(imm, 13)
}

// ImmediateU returns bits[31:12]<<12, sign-extended from bit 31.
func (d *Decoder) ImmediateU() int64 {
	return int64(int32(d.word & 0xFFFFF000))
}

// ImmediateJ returns sign-extend((bit31<<20)|(bits[19:12]<<12)|(bit20<<11)|(bits[30:21]<<1), 21).
func (d *Decoder) ImmediateJ() int64 {
	imm := (uint64(d.word>>31)&0x1)<<20 |
		(uint64(d.word>>21)&0x3FF)<<1 |
		(uint64(d.word>>20)&0x1)<<11 |
		(uint64(d.word>>12)&0xFF)<<12
	return signExtend(imm, 21)
}

// GetInstructionType returns the format implied by the opcode table.
// An unrecognized opcode is an IllegalInstruction.
func (d *Decoder) GetInstructionType() (core.InstructionType, error) {
	switch d.Opcode() {
	case core.OpOP, core.OpOP32:
		return core.RType, nil
	case core.OpIMM, core.OpIMM32, core.OpLOAD, core.OpJALR:
		return core.IType, nil
	case core.OpSTORE:
		return core.SType, nil
	case core.OpBRANCH:
		return core.BType, nil
	case core.OpLUI, core.OpAUIPC:
		return core.UType, nil
	case core.OpJAL:
		return core.JType, nil
	default:
		return 0, &core.IllegalInstruction{Word: d.word, Msg: "unknown opcode"}
	}
}

// GetImmediate dispatches to the immediate decoder implied by the
// instruction's type; R-type returns 0.
func (d *Decoder) GetImmediate() (int64, error) {
	t, err := d.GetInstructionType()
	if err != nil {
		return 0, err
	}
	switch t {
	case core.IType:
		return d.ImmediateI(), nil
	case core.SType:
		return d.ImmediateS(), nil
	case core.BType:
		return d.ImmediateB(), nil
	case core.UType:
		return d.ImmediateU(), nil
	case core.JType:
		return d.ImmediateJ(), nil
	default:
		return 0, nil
	}
}
