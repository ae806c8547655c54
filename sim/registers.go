// Package sim implements the five pipeline stages shared by the
// pipelined and non-pipelined execution modes, the hazard/forwarding
// logic between them, and the Simulator driver that ticks them each
// cycle.
package sim

import "github.com/sarchlab/rv64sim/core"

// IFIDRegister buffers Fetch's output for Decode.
//
// Valid distinguishes a genuinely fetched instruction from the
// zero-initialized seed register and from a flushed bubble; both of the
// latter carry PC==0 and InstructionWord==0, which is not by itself
// enough to tell them apart from a real instruction that happens to
// live at address 0, so the issued/completed counters key off Valid
// rather than off PC.
type IFIDRegister struct {
	Valid           bool
	PC              core.MemAddress
	InstructionWord uint32
}

// Clear resets the register to a bubble.
func (r *IFIDRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.InstructionWord = 0
}

// IDEXRegister buffers Decode's output for Execute.
type IDEXRegister struct {
	Valid     bool
	PC        core.MemAddress
	ReadData1 core.RegValue
	ReadData2 core.RegValue
	Immediate int64
	RD        core.RegNumber
	RS1       core.RegNumber
	RS2       core.RegNumber
	Opcode    core.Opcode
	Funct3    uint8
	Control   core.ControlSignals
}

// Clear resets the register to a bubble: every control bit false.
func (r *IDEXRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.ReadData1 = 0
	r.ReadData2 = 0
	r.Immediate = 0
	r.RD = 0
	r.RS1 = 0
	r.RS2 = 0
	r.Opcode = 0
	r.Funct3 = 0
	r.Control = core.ControlSignals{}
}

// EXMEMRegister buffers Execute's output for Memory.
type EXMEMRegister struct {
	Valid     bool
	PC        core.MemAddress
	ALUResult core.RegValue
	WriteData core.RegValue // rs2 forwarded value, for stores
	RD        core.RegNumber
	Control   core.ControlSignals
}

// Clear resets the register to a bubble.
func (r *EXMEMRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.ALUResult = 0
	r.WriteData = 0
	r.RD = 0
	r.Control = core.ControlSignals{}
}

// MEMWBRegister buffers Memory's output for Writeback.
type MEMWBRegister struct {
	Valid     bool
	PC        core.MemAddress
	ALUResult core.RegValue
	MemData   core.RegValue
	RD        core.RegNumber
	Control   core.ControlSignals
}

// Clear resets the register to a bubble.
func (r *MEMWBRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.ALUResult = 0
	r.MemData = 0
	r.RD = 0
	r.Control = core.ControlSignals{}
}
