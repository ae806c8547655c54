package sim

import "github.com/sarchlab/rv64sim/core"

// ForwardSource names where an EX-stage operand should come from.
type ForwardSource int

const (
	// ForwardNone means the register file's (pre-forwarding) value is used.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM means forward from the current EX/M register
	// (the producer is one instruction ahead, EX-to-EX forwarding).
	ForwardFromEXMEM
	// ForwardFromPrevMEMWB means forward from the previous cycle's M/WB
	// snapshot (the producer is two instructions ahead, M-to-EX forwarding).
	ForwardFromPrevMEMWB
)

// detectForwardForReg picks the forwarding source for one EX operand
// register. EX/M takes precedence: its value is newer than a snapshot
// from the cycle before.
func detectForwardForReg(reg core.RegNumber, exm *EXMEMRegister, prevMWB *MEMWBRegister) ForwardSource {
	if reg == 0 {
		return ForwardNone
	}
	if exm.Control.RegWrite && !exm.Control.MemToReg && exm.RD == reg {
		return ForwardFromEXMEM
	}
	if prevMWB.Control.RegWrite && prevMWB.RD == reg {
		return ForwardFromPrevMEMWB
	}
	return ForwardNone
}

// forwardedValue resolves a forwarding decision to a concrete value.
func forwardedValue(src ForwardSource, original core.RegValue, exm *EXMEMRegister, prevMWB *MEMWBRegister) core.RegValue {
	switch src {
	case ForwardFromEXMEM:
		return exm.ALUResult
	case ForwardFromPrevMEMWB:
		if prevMWB.Control.MemToReg {
			return prevMWB.MemData
		}
		return prevMWB.ALUResult
	default:
		return original
	}
}

// usesRS2 reports whether an instruction with this opcode consumes rs2
// as a data operand, for purposes of hazard and forwarding detection.
func usesRS2(opcode core.Opcode) bool {
	switch opcode {
	case core.OpOP, core.OpOP32, core.OpSTORE, core.OpBRANCH:
		return true
	default:
		return false
	}
}

// detectLoadUseHazard reports whether the load currently in ID/EX
// conflicts with the instruction just decoded.
func detectLoadUseHazard(idex *IDEXRegister, nextRS1, nextRS2 core.RegNumber, nextOpcode core.Opcode) bool {
	if !idex.Control.MemRead || idex.RD == 0 {
		return false
	}
	if idex.RD == nextRS1 {
		return true
	}
	return usesRS2(nextOpcode) && idex.RD == nextRS2
}

// wbToIDForward implements WB-to-ID forwarding: the value about to be
// written back by the current M/WB register, read directly by Decode
// before Writeback's clock pulse overwrites the register file later in
// the same cycle.
func wbToIDForward(mwb *MEMWBRegister, reg core.RegNumber) (core.RegValue, bool) {
	if reg == 0 || !mwb.Control.RegWrite || mwb.RD != reg {
		return 0, false
	}
	if mwb.Control.MemToReg {
		return mwb.MemData, true
	}
	return mwb.ALUResult, true
}
