package sim

import (
	"fmt"
	"io"

	"github.com/sarchlab/rv64sim/core"
	"github.com/sarchlab/rv64sim/insts"
)

// cycleControl is the set of control wires raised during a cycle's
// propagate phase and consulted during that same cycle's clockPulse
// phase. It is reset to its zero value at the start of every Tick.
type cycleControl struct {
	StallFetch         bool
	FlushFetch         bool
	InsertDecodeBubble bool
	FlushDecode        bool
	PCWriteEnable      bool
	NextPC             core.MemAddress
}

// FetchStage owns the instruction memory port and drives the
// simulator's drain state (endMarkerSeen, drainCountdown), which
// survives the TestEndMarker until the pipeline is empty.
type FetchStage struct {
	im *core.InstructionMemory

	fetchedWord uint32
	sawMarker   bool
}

// NewFetchStage creates a Fetch stage reading instruction words from bus.
func NewFetchStage(bus core.MemoryBus) *FetchStage {
	return &FetchStage{im: core.NewInstructionMemory(bus)}
}

// Propagate fetches the word at the current PC, unless the simulator is
// already draining after having seen the TestEndMarker. A marker hit is
// only recorded locally here (sawMarker); ClockPulse decides whether to
// actually commit it, since this cycle's fetch might still be held back
// by a stall raised later in this same cycle's propagate order.
func (f *FetchStage) Propagate(s *Simulator) error {
	if s.endMarkerSeen {
		s.ctrl.FlushFetch = true
		return nil
	}

	f.im.SetAddress(s.PC)
	if err := f.im.SetSize(4); err != nil {
		return err
	}
	v, err := f.im.GetValue()
	if err != nil {
		return &core.InstructionFetchFailure{PC: s.PC}
	}
	word := uint32(v)
	f.fetchedWord = word
	f.sawMarker = word == core.TestEndMarker

	if f.sawMarker && !s.Pipelined {
		return &core.TestEndMarkerEncountered{PC: s.PC}
	}
	return nil
}

// ClockPulse commits IF/ID and advances the PC, unless the cycle's
// control wires call for a stall or a flush; a stall holds this cycle's
// fetch result back entirely, including a marker hit, so it is retried
// next cycle once the hazard clears. Returns a non-nil error once the
// post-marker drain countdown is spent.
func (f *FetchStage) ClockPulse(s *Simulator) error {
	if !s.Pipelined {
		s.IFID.Valid = true
		s.IFID.PC = s.PC
		s.IFID.InstructionWord = f.fetchedWord
		s.PC += 4
		return nil
	}

	switch {
	case s.ctrl.FlushFetch:
		s.IFID.Clear()
	case s.ctrl.StallFetch:
		// leave IF/ID and PC unchanged, retry this fetch next cycle
	case f.sawMarker:
		s.endMarkerSeen = true
		s.drainCountdown = 5
		s.IFID.Clear()
	default:
		s.IFID.Valid = true
		s.IFID.PC = s.PC
		s.IFID.InstructionWord = f.fetchedWord
		s.PC += 4
	}

	if s.endMarkerSeen {
		s.drainCountdown--
		if s.drainCountdown == 0 {
			return &core.TestEndMarkerEncountered{PC: s.PC}
		}
	}
	return nil
}

// DecodeStage owns the instruction decoder and the debug trace writer.
type DecodeStage struct {
	decoder *insts.Decoder
	debug   io.Writer

	pc              core.MemAddress
	instructionWord uint32
	control         core.ControlSignals
	immediate       int64
	rd, rs1, rs2    core.RegNumber
	opcode          core.Opcode
	funct3          uint8
	readData1       core.RegValue
	readData2       core.RegValue
	bubble          bool
}

// NewDecodeStage creates a Decode stage. debug may be nil to disable
// the per-instruction trace.
func NewDecodeStage(debug io.Writer) *DecodeStage {
	return &DecodeStage{decoder: insts.NewDecoder(), debug: debug}
}

// Propagate decodes IF/ID, reads the register file, applies WB-to-ID
// forwarding, and detects a load-use hazard against ID/EX.
func (d *DecodeStage) Propagate(s *Simulator) error {
	d.pc = s.IFID.PC
	d.instructionWord = s.IFID.InstructionWord
	d.bubble = !s.IFID.Valid

	d.decoder.SetInstructionWord(d.instructionWord)
	if !d.bubble {
		if _, err := d.decoder.GetInstructionType(); err != nil {
			if ii, ok := err.(*core.IllegalInstruction); ok {
				ii.PC = d.pc
			}
			return err
		}
	}
	d.opcode = d.decoder.Opcode()
	d.funct3 = d.decoder.Funct3()
	funct7 := d.decoder.Funct7()
	d.control = core.DeriveControlSignals(d.opcode, d.funct3, funct7)
	d.rd, d.rs1, d.rs2 = d.decoder.RD(), d.decoder.RS1(), d.decoder.RS2()
	imm, _ := d.decoder.GetImmediate()
	d.immediate = imm

	if d.debug != nil && !d.bubble {
		fmt.Fprintf(d.debug, "0x%x\t%s\n", d.pc, insts.Disassemble(d.instructionWord))
	}

	s.RegFile.SetRS1(d.rs1)
	s.RegFile.SetRS2(d.rs2)
	v1 := s.RegFile.ReadData1()
	v2 := s.RegFile.ReadData2()

	if s.Pipelined {
		if fv, ok := wbToIDForward(&s.MEMWB, d.rs1); ok {
			v1 = fv
		}
		if usesRS2(d.opcode) {
			if fv, ok := wbToIDForward(&s.MEMWB, d.rs2); ok {
				v2 = fv
			}
		}
	}
	d.readData1, d.readData2 = v1, v2

	if s.Pipelined && !d.bubble {
		if detectLoadUseHazard(&s.IDEX, d.rs1, d.rs2, d.opcode) {
			s.ctrl.StallFetch = true
			s.ctrl.InsertDecodeBubble = true
		}
	}
	return nil
}

// ClockPulse commits ID/EX, or a bubble when this cycle's IF/ID was
// itself invalid or the hazard unit called for a stall/flush.
func (d *DecodeStage) ClockPulse(s *Simulator) {
	insertBubble := d.bubble || (s.Pipelined && (s.ctrl.FlushDecode || s.ctrl.InsertDecodeBubble))

	if insertBubble {
		s.IDEX.Clear()
		if s.Pipelined && s.ctrl.InsertDecodeBubble {
			s.NStalls++
		}
		return
	}

	s.IDEX.Valid = true
	s.IDEX.PC = d.pc
	s.IDEX.ReadData1 = d.readData1
	s.IDEX.ReadData2 = d.readData2
	s.IDEX.Immediate = d.immediate
	s.IDEX.RD = d.rd
	s.IDEX.RS1 = d.rs1
	s.IDEX.RS2 = d.rs2
	s.IDEX.Opcode = d.opcode
	s.IDEX.Funct3 = d.funct3
	s.IDEX.Control = d.control
	s.NInstrIssued++
}

// ExecuteStage owns the ALU.
type ExecuteStage struct {
	alu core.ALU

	pc        core.MemAddress
	aluResult core.RegValue
	writeData core.RegValue
}

// NewExecuteStage creates an Execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

func evaluateBranch(funct3 uint8, rs1, rs2 core.RegValue) bool {
	switch funct3 {
	case 0x0: // beq
		return rs1 == rs2
	case 0x1: // bne
		return rs1 != rs2
	case 0x4: // blt
		return int64(rs1) < int64(rs2)
	case 0x5: // bge
		return int64(rs1) >= int64(rs2)
	case 0x6: // bltu
		return rs1 < rs2
	case 0x7: // bgeu
		return rs1 >= rs2
	default:
		return false
	}
}

// Propagate runs the ALU with forwarded operands, evaluates branches
// and jumps, and raises the cycle's flush/PC-write control wires.
func (e *ExecuteStage) Propagate(s *Simulator) error {
	idex := &s.IDEX
	e.pc = idex.PC

	rs1Value, rs2Value := idex.ReadData1, idex.ReadData2
	fwd1 := detectForwardForReg(idex.RS1, &s.EXMEM, &s.PrevMEMWB)
	rs1Value = forwardedValue(fwd1, rs1Value, &s.EXMEM, &s.PrevMEMWB)
	fwd2 := detectForwardForReg(idex.RS2, &s.EXMEM, &s.PrevMEMWB)
	rs2Value = forwardedValue(fwd2, rs2Value, &s.EXMEM, &s.PrevMEMWB)

	var opA core.RegValue
	switch idex.Opcode {
	case core.OpAUIPC:
		opA = idex.PC
	case core.OpLUI:
		opA = 0
	default:
		opA = rs1Value
	}

	var opB core.RegValue
	if idex.Control.ALUSrc {
		opB = core.RegValue(idex.Immediate)
	} else {
		opB = rs2Value
	}

	e.alu.SetA(opA)
	e.alu.SetB(opB)
	e.alu.SetOp(idex.Control.ALUOp)
	result, err := e.alu.Result()
	if err != nil {
		return err
	}

	if idex.Opcode == core.OpAUIPC {
		// redundant with the ALU above (opA==PC, opB==imm, op==ADD);
		// kept literal because that is what the ALU already computed.
		result = idex.PC + core.RegValue(idex.Immediate)
	}

	pcWriteEnable := false
	var nextPC core.MemAddress

	if idex.Control.Branch && evaluateBranch(idex.Funct3, rs1Value, rs2Value) {
		nextPC = idex.PC + core.MemAddress(idex.Immediate)
		pcWriteEnable = true
	}

	switch idex.Opcode {
	case core.OpJAL:
		result = idex.PC + 4
		nextPC = idex.PC + core.MemAddress(idex.Immediate)
		pcWriteEnable = true
	case core.OpJALR:
		result = idex.PC + 4
		nextPC = (rs1Value + core.RegValue(idex.Immediate)) &^ 1
		pcWriteEnable = true
	}

	e.aluResult = result
	e.writeData = rs2Value

	s.ctrl.PCWriteEnable = pcWriteEnable
	s.ctrl.NextPC = nextPC
	if pcWriteEnable {
		s.ctrl.FlushFetch = true
		s.ctrl.FlushDecode = true
	}
	return nil
}

// ClockPulse commits EX/M and, if this cycle raised a control-flow
// write, redirects the architectural PC.
func (e *ExecuteStage) ClockPulse(s *Simulator) {
	s.EXMEM.Valid = s.IDEX.Valid
	s.EXMEM.PC = e.pc
	s.EXMEM.ALUResult = e.aluResult
	s.EXMEM.WriteData = e.writeData
	s.EXMEM.RD = s.IDEX.RD
	s.EXMEM.Control = s.IDEX.Control

	if s.ctrl.PCWriteEnable {
		s.PC = s.ctrl.NextPC
	}
}

// MemoryStage owns the data memory port.
type MemoryStage struct {
	dm *core.DataMemory

	pc        core.MemAddress
	aluResult core.RegValue
	memData   core.RegValue
}

// NewMemoryStage creates a Memory stage reading/writing through bus.
func NewMemoryStage(bus core.MemoryBus) *MemoryStage {
	return &MemoryStage{dm: core.NewDataMemory(bus)}
}

// Propagate configures the data memory port from EX/M and, for a load,
// reads the sign/zero-extended result.
func (m *MemoryStage) Propagate(s *Simulator) error {
	exm := &s.EXMEM
	m.pc = exm.PC
	m.aluResult = exm.ALUResult
	m.memData = 0

	if !exm.Control.MemRead && !exm.Control.MemWrite {
		m.dm.SetReadEnable(false)
		m.dm.SetWriteEnable(false)
		return nil
	}

	m.dm.SetAddress(exm.ALUResult)
	if err := m.dm.SetSize(exm.Control.MemSize); err != nil {
		return err
	}
	m.dm.SetDataIn(exm.WriteData)
	m.dm.SetReadEnable(exm.Control.MemRead)
	m.dm.SetWriteEnable(exm.Control.MemWrite)

	if exm.Control.MemRead {
		v, err := m.dm.GetDataOut(exm.Control.MemSignExtend)
		if err != nil {
			return err
		}
		m.memData = v
	}
	return nil
}

// ClockPulse commits any pending store and the new M/WB.
func (m *MemoryStage) ClockPulse(s *Simulator) error {
	if err := m.dm.ClockPulse(); err != nil {
		return err
	}

	s.MEMWB.Valid = s.EXMEM.Valid
	s.MEMWB.PC = m.pc
	s.MEMWB.ALUResult = m.aluResult
	s.MEMWB.MemData = m.memData
	s.MEMWB.RD = s.EXMEM.RD
	s.MEMWB.Control = s.EXMEM.Control
	return nil
}

// WritebackStage configures the register file's write port from M/WB.
type WritebackStage struct{}

// NewWritebackStage creates a Writeback stage.
func NewWritebackStage() *WritebackStage {
	return &WritebackStage{}
}

// Propagate configures the register file's pending write and counts a
// genuine retirement (any M/WB that is not a bubble).
func (w *WritebackStage) Propagate(s *Simulator) error {
	mwb := &s.MEMWB
	if mwb.Valid {
		s.NInstrCompleted++
	}

	s.RegFile.SetRD(mwb.RD)
	s.RegFile.SetWriteEnable(mwb.Control.RegWrite)
	if mwb.Control.MemToReg {
		s.RegFile.SetWriteData(mwb.MemData)
	} else {
		s.RegFile.SetWriteData(mwb.ALUResult)
	}
	return nil
}

// ClockPulse commits the register file's pending write.
func (w *WritebackStage) ClockPulse(s *Simulator) {
	s.RegFile.ClockPulse()
}
