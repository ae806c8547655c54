package sim

import (
	"fmt"
	"io"

	"github.com/sarchlab/rv64sim/core"
)

// StepKind classifies the outcome of one Tick.
type StepKind int

const (
	// StepContinue means the cycle ran normally; the simulation should
	// keep going.
	StepContinue StepKind = iota
	// StepEndOfTest means the TestEndMarker has fully drained out of
	// the pipeline (or was hit directly, in non-pipelined mode); the
	// run is over and not an error.
	StepEndOfTest
	// StepError means a stage raised an IllegalInstruction or
	// IllegalAccess; the run is over because of a genuine fault.
	StepError
)

// StepResult is the outcome of a single Tick.
type StepResult struct {
	Kind StepKind
	PC   core.MemAddress
	Err  error
}

// Simulator drives the five pipeline stages through the two-phase
// propagate/clockPulse cycle described by the stage methods themselves,
// in either pipelined or non-pipelined mode.
type Simulator struct {
	Pipelined bool
	Debug     io.Writer

	Bus     core.MemoryBus
	RegFile core.RegisterFile
	PC      core.MemAddress

	IFID  IFIDRegister
	IDEX  IDEXRegister
	EXMEM EXMEMRegister
	MEMWB MEMWBRegister

	// PrevMEMWB is a snapshot of M/WB taken at the top of Tick, before
	// this cycle's stages run, used by Execute's M-to-EX forwarding.
	PrevMEMWB MEMWBRegister

	Cycles          uint64
	NInstrIssued    uint64
	NInstrCompleted uint64
	NStalls         uint64

	endMarkerSeen  bool
	drainCountdown int

	ctrl cycleControl

	fetch     *FetchStage
	decode    *DecodeStage
	execute   *ExecuteStage
	memory    *MemoryStage
	writeback *WritebackStage
}

// Option configures a Simulator at construction time.
type Option func(*Simulator)

// WithPipelining selects the pipelined (true) or non-pipelined (false)
// execution model. Defaults to pipelined.
func WithPipelining(pipelined bool) Option {
	return func(s *Simulator) { s.Pipelined = pipelined }
}

// WithTraceWriter enables a per-instruction disassembly trace, written
// to w as each instruction passes through Decode.
func WithTraceWriter(w io.Writer) Option {
	return func(s *Simulator) { s.Debug = w }
}

// WithEntryPC sets the initial program counter. Defaults to 0.
func WithEntryPC(pc core.MemAddress) Option {
	return func(s *Simulator) { s.PC = pc }
}

// WithStackPointer seeds x2, the calling-convention stack pointer,
// before the first cycle runs. Defaults to 0.
func WithStackPointer(sp core.RegValue) Option {
	return func(s *Simulator) { s.RegFile.WriteInitial(2, sp) }
}

// NewSimulator builds a Simulator wired to bus, which serves both the
// instruction and data ports. Passing a cache.Cache (itself a
// core.MemoryBus) as bus transparently inserts a cache between the
// core and backing memory.
func NewSimulator(bus core.MemoryBus, opts ...Option) *Simulator {
	s := &Simulator{
		Pipelined: true,
		Bus:       bus,
	}
	s.fetch = NewFetchStage(bus)
	s.decode = NewDecodeStage(nil)
	s.execute = NewExecuteStage()
	s.memory = NewMemoryStage(bus)
	s.writeback = NewWritebackStage()

	for _, opt := range opts {
		opt(s)
	}
	s.decode.debug = s.Debug

	return s
}

// Tick runs one simulated cycle and reports its outcome.
func (s *Simulator) Tick() StepResult {
	s.ctrl = cycleControl{}

	// Snapshot M/WB as it stood at the end of the previous cycle, before
	// this cycle's own stages run. Execute's M-to-EX forwarding reads
	// this snapshot rather than the live s.MEMWB so that it sees the
	// producer's retiring value on exactly the cycle it sits in M/WB,
	// regardless of the fact that Execute's propagate runs before
	// Memory's in per-cycle stage order.
	s.PrevMEMWB = s.MEMWB

	if !s.Pipelined {
		return s.tickSingleInstruction()
	}
	s.Cycles++
	return s.tickPipelined()
}

// tickPipelined runs all five stages' propagate in Fetch->Writeback
// order, then all five stages' clockPulse in Writeback->Fetch order.
// Each stage's propagate sees
// the pipeline registers as committed at the end of the previous cycle.
func (s *Simulator) tickPipelined() StepResult {
	if err := s.fetch.Propagate(s); err != nil {
		return s.stepFromError(err)
	}
	// A decode error only ends the run if Execute does not squash that
	// instruction this cycle: a taken branch or jump flushes the
	// wrong-path word Decode was looking at.
	decodeErr := s.decode.Propagate(s)
	if err := s.execute.Propagate(s); err != nil {
		return s.stepFromError(err)
	}
	if decodeErr != nil && !s.ctrl.FlushDecode {
		return s.stepFromError(decodeErr)
	}
	if err := s.memory.Propagate(s); err != nil {
		return s.stepFromError(err)
	}
	if err := s.writeback.Propagate(s); err != nil {
		return s.stepFromError(err)
	}

	// Every stage's clockPulse runs this cycle regardless of whether
	// Fetch's signals termination: on the drain cycle that finally
	// retires the drain countdown, an in-flight instruction may still be
	// committing at WB, and that commit must not be skipped just
	// because Fetch also has news to report this same cycle.
	//
	// The pulses run Writeback->Fetch: Execute and Memory copy RD and the
	// control bits out of their incoming register (ID/EX, EX/M), so each
	// must latch before the upstream stage overwrites that register.
	s.writeback.ClockPulse(s)
	memErr := s.memory.ClockPulse(s)
	s.execute.ClockPulse(s)
	s.decode.ClockPulse(s)
	fetchErr := s.fetch.ClockPulse(s)

	if fetchErr != nil {
		return s.stepFromError(fetchErr)
	}
	if memErr != nil {
		return s.stepFromError(memErr)
	}
	return StepResult{Kind: StepContinue, PC: s.PC}
}

// tickSingleInstruction runs each stage's propagate immediately
// followed by its own clockPulse, in Fetch->Writeback order, so one
// full instruction passes through the entire datapath within a single
// Tick. Pipeline registers are used only as intra-cycle scratch. The
// cycle counter advances only once Fetch has found a real instruction
// to run, not on the tick that discovers the TestEndMarker and
// terminates immediately.
func (s *Simulator) tickSingleInstruction() StepResult {
	if err := s.fetch.Propagate(s); err != nil {
		return s.stepFromError(err)
	}
	s.Cycles++

	if err := s.fetch.ClockPulse(s); err != nil {
		return s.stepFromError(err)
	}

	if err := s.decode.Propagate(s); err != nil {
		return s.stepFromError(err)
	}
	s.decode.ClockPulse(s)

	if err := s.execute.Propagate(s); err != nil {
		return s.stepFromError(err)
	}
	s.execute.ClockPulse(s)

	if err := s.memory.Propagate(s); err != nil {
		return s.stepFromError(err)
	}
	if err := s.memory.ClockPulse(s); err != nil {
		return s.stepFromError(err)
	}

	if err := s.writeback.Propagate(s); err != nil {
		return s.stepFromError(err)
	}
	s.writeback.ClockPulse(s)

	return StepResult{Kind: StepContinue, PC: s.PC}
}

func (s *Simulator) stepFromError(err error) StepResult {
	if _, ok := err.(*core.TestEndMarkerEncountered); ok {
		return StepResult{Kind: StepEndOfTest, PC: s.PC, Err: err}
	}
	return StepResult{Kind: StepError, PC: s.PC, Err: err}
}

// Run ticks the simulator until it reports an outcome other than
// StepContinue.
func (s *Simulator) Run() StepResult {
	for {
		r := s.Tick()
		if r.Kind != StepContinue {
			return r
		}
	}
}

// Statistics is a snapshot of the simulator's run counters.
type Statistics struct {
	Cycles                uint64
	InstructionsIssued    uint64
	InstructionsCompleted uint64
	Stalls                uint64
}

// CPI returns cycles per completed instruction, or 0 if none completed.
func (s Statistics) CPI() float64 {
	if s.InstructionsCompleted == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.InstructionsCompleted)
}

// IPC returns completed instructions per cycle, or 0 if no cycle ran.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.InstructionsCompleted) / float64(s.Cycles)
}

// Stats returns a snapshot of the simulator's run counters.
func (s *Simulator) Stats() Statistics {
	return Statistics{
		Cycles:                s.Cycles,
		InstructionsIssued:    s.NInstrIssued,
		InstructionsCompleted: s.NInstrCompleted,
		Stalls:                s.NStalls,
	}
}

// String renders a one-line summary, printed by the CLI when a run
// reaches the end marker.
func (s Statistics) String() string {
	return fmt.Sprintf("cycles=%d issued=%d completed=%d stalls=%d ipc=%.2f cpi=%.2f",
		s.Cycles, s.InstructionsIssued, s.InstructionsCompleted, s.Stalls, s.IPC(), s.CPI())
}
