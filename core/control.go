package core

// ControlSignals is the datapath control bundle produced by decoding an
// instruction's (opcode, funct3, funct7). The zero value is the
// all-false/NOP bundle, equivalent to a bubble.
type ControlSignals struct {
	RegWrite      bool
	ALUSrc        bool
	MemRead       bool
	MemWrite      bool
	MemToReg      bool
	Branch        bool
	Jump          bool
	ALUOp         ALUOp
	MemSize       uint8
	MemSignExtend bool
}

// DeriveControlSignals maps (opcode, funct3, funct7) to a control bundle.
// An unrecognized opcode, or an unrecognized funct3/funct7 combination
// within a recognized opcode, yields the default all-false/NOP bundle
// rather than an error: the caller is responsible for separately
// rejecting unknown opcodes via the decoder's GetInstructionType.
// BRANCH is the exception: every funct3 sets Branch and SUB, and
// Execute never takes a branch whose funct3 it does not recognize.
func DeriveControlSignals(opcode Opcode, funct3, funct7 uint8) ControlSignals {
	c := ControlSignals{ALUOp: NOP}

	switch opcode {
	case OpOP:
		c.RegWrite = true
		switch {
		case funct3 == 0x0 && funct7 == 0x00:
			c.ALUOp = ADD
		case funct3 == 0x0 && funct7 == 0x20:
			c.ALUOp = SUB
		case funct3 == 0x1 && funct7 == 0x00:
			c.ALUOp = SLL
		case funct3 == 0x2 && funct7 == 0x00:
			c.ALUOp = SLT
		case funct3 == 0x3 && funct7 == 0x00:
			c.ALUOp = SLTU
		case funct3 == 0x4 && funct7 == 0x00:
			c.ALUOp = XOR
		case funct3 == 0x5 && funct7 == 0x00:
			c.ALUOp = SRL
		case funct3 == 0x5 && funct7 == 0x20:
			c.ALUOp = SRA
		case funct3 == 0x6 && funct7 == 0x00:
			c.ALUOp = OR
		case funct3 == 0x7 && funct7 == 0x00:
			c.ALUOp = AND
		default:
			return ControlSignals{ALUOp: NOP}
		}

	case OpIMM:
		c.RegWrite = true
		c.ALUSrc = true
		switch {
		case funct3 == 0x0:
			c.ALUOp = ADD
		case funct3 == 0x2:
			c.ALUOp = SLT
		case funct3 == 0x3:
			c.ALUOp = SLTU
		case funct3 == 0x4:
			c.ALUOp = XOR
		case funct3 == 0x6:
			c.ALUOp = OR
		case funct3 == 0x7:
			c.ALUOp = AND
		case funct3 == 0x1 && funct7 == 0x00:
			c.ALUOp = SLL
		case funct3 == 0x5 && funct7 == 0x00:
			c.ALUOp = SRL
		case funct3 == 0x5 && funct7 == 0x20:
			c.ALUOp = SRA
		default:
			return ControlSignals{ALUOp: NOP}
		}

	case OpOP32:
		c.RegWrite = true
		switch {
		case funct3 == 0x0 && funct7 == 0x00:
			c.ALUOp = ADDW
		case funct3 == 0x0 && funct7 == 0x20:
			c.ALUOp = SUBW
		case funct3 == 0x1 && funct7 == 0x00:
			c.ALUOp = SLLW
		case funct3 == 0x5 && funct7 == 0x00:
			c.ALUOp = SRLW
		case funct3 == 0x5 && funct7 == 0x20:
			c.ALUOp = SRAW
		default:
			return ControlSignals{ALUOp: NOP}
		}

	case OpIMM32:
		c.RegWrite = true
		c.ALUSrc = true
		switch {
		case funct3 == 0x0:
			c.ALUOp = ADDW
		case funct3 == 0x1 && funct7 == 0x00:
			c.ALUOp = SLLW
		case funct3 == 0x5 && funct7 == 0x00:
			c.ALUOp = SRLW
		case funct3 == 0x5 && funct7 == 0x20:
			c.ALUOp = SRAW
		default:
			return ControlSignals{ALUOp: NOP}
		}

	case OpLOAD:
		c.RegWrite = true
		c.ALUSrc = true
		c.MemRead = true
		c.MemToReg = true
		c.ALUOp = ADD
		switch funct3 {
		case 0x0: // lb
			c.MemSize, c.MemSignExtend = 1, true
		case 0x1: // lh
			c.MemSize, c.MemSignExtend = 2, true
		case 0x2: // lw
			c.MemSize, c.MemSignExtend = 4, true
		case 0x3: // ld
			c.MemSize, c.MemSignExtend = 8, false
		case 0x4: // lbu
			c.MemSize, c.MemSignExtend = 1, false
		case 0x5: // lhu
			c.MemSize, c.MemSignExtend = 2, false
		case 0x6: // lwu
			c.MemSize, c.MemSignExtend = 4, false
		default:
			return ControlSignals{ALUOp: NOP}
		}

	case OpSTORE:
		c.ALUSrc = true
		c.MemWrite = true
		c.ALUOp = ADD
		switch funct3 {
		case 0x0:
			c.MemSize = 1
		case 0x1:
			c.MemSize = 2
		case 0x2:
			c.MemSize = 4
		case 0x3:
			c.MemSize = 8
		default:
			return ControlSignals{ALUOp: NOP}
		}

	case OpBRANCH:
		c.Branch = true
		c.ALUOp = SUB

	case OpJAL:
		c.RegWrite = true
		c.Jump = true
		c.ALUSrc = true
		c.ALUOp = ADD

	case OpJALR:
		c.RegWrite = true
		c.Jump = true
		c.ALUSrc = true
		c.ALUOp = ADD

	case OpLUI:
		c.RegWrite = true
		c.ALUSrc = true
		c.ALUOp = ADD // loads the immediate into rd

	case OpAUIPC:
		c.RegWrite = true
		c.ALUSrc = true
		c.ALUOp = ADD // adds the immediate to PC

	default:
		// leave all as defaults (bubble)
	}

	return c
}
