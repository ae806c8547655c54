package core

// RegisterFile holds the 32 architectural integer registers. Reads of
// x0 always return 0; writes to x0 are silently dropped. The write port
// is latched: SetRD/SetWriteEnable/SetWriteData configure a pending
// write during propagate, and ClockPulse commits it.
type RegisterFile struct {
	x [32]RegValue

	rs1, rs2 RegNumber

	rd          RegNumber
	writeEnable bool
	writeData   RegValue
}

// SetRS1 selects the first read port.
func (r *RegisterFile) SetRS1(reg RegNumber) { r.rs1 = reg }

// SetRS2 selects the second read port.
func (r *RegisterFile) SetRS2(reg RegNumber) { r.rs2 = reg }

// ReadData1 returns the combinational value on the first read port.
func (r *RegisterFile) ReadData1() RegValue { return r.Read(r.rs1) }

// ReadData2 returns the combinational value on the second read port.
func (r *RegisterFile) ReadData2() RegValue { return r.Read(r.rs2) }

// Read returns the current value of reg, with x0 hardwired to zero.
func (r *RegisterFile) Read(reg RegNumber) RegValue {
	if reg == 0 {
		return 0
	}
	return r.x[reg]
}

// SetRD selects the destination register for the pending write.
func (r *RegisterFile) SetRD(reg RegNumber) { r.rd = reg }

// SetWriteEnable arms or disarms the pending write.
func (r *RegisterFile) SetWriteEnable(enable bool) { r.writeEnable = enable }

// SetWriteData sets the value to commit on the next ClockPulse.
func (r *RegisterFile) SetWriteData(v RegValue) { r.writeData = v }

// ClockPulse commits the pending write, if enabled. Writes to x0 are
// silently dropped.
func (r *RegisterFile) ClockPulse() {
	if !r.writeEnable || r.rd == 0 {
		return
	}
	r.x[r.rd] = r.writeData
}

// WriteInitial sets reg's value directly, bypassing the latched write
// port. It is meant for seeding architectural state (e.g. the stack
// pointer) before the first cycle runs, not for use during simulation.
func (r *RegisterFile) WriteInitial(reg RegNumber, v RegValue) {
	if reg == 0 {
		return
	}
	r.x[reg] = v
}
