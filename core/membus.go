package core

// MemoryBus is the external collaborator the core consumes for all
// memory access. Implementations need not model alignment faults; the
// core treats every address as byte-granular.
type MemoryBus interface {
	ReadByte(addr MemAddress) uint8
	ReadHalfWord(addr MemAddress) uint16
	ReadWord(addr MemAddress) uint32
	ReadDoubleWord(addr MemAddress) uint64

	WriteByte(addr MemAddress, v uint8)
	WriteHalfWord(addr MemAddress, v uint16)
	WriteWord(addr MemAddress, v uint32)
	WriteDoubleWord(addr MemAddress, v uint64)
}

// InstructionMemory is the sized, enable-free fetch port into a
// MemoryBus. Instruction fetch always uses size 4; size 2 reads a
// half-word.
type InstructionMemory struct {
	bus  MemoryBus
	size uint8
	addr MemAddress
}

// NewInstructionMemory creates an instruction memory port over bus.
func NewInstructionMemory(bus MemoryBus) *InstructionMemory {
	return &InstructionMemory{bus: bus}
}

// SetSize configures the access width; only 2 and 4 are legal.
func (m *InstructionMemory) SetSize(size uint8) error {
	if size != 2 && size != 4 {
		return &IllegalAccess{Size: size}
	}
	m.size = size
	return nil
}

// SetAddress configures the fetch address.
func (m *InstructionMemory) SetAddress(addr MemAddress) { m.addr = addr }

// GetValue returns the half-word or word at the configured address.
func (m *InstructionMemory) GetValue() (RegValue, error) {
	switch m.size {
	case 2:
		return RegValue(m.bus.ReadHalfWord(m.addr)), nil
	case 4:
		return RegValue(m.bus.ReadWord(m.addr)), nil
	default:
		return 0, &IllegalAccess{Size: m.size}
	}
}

// DataMemory is the sized, enable-gated load/store port into a
// MemoryBus, driven by the Memory stage.
type DataMemory struct {
	bus MemoryBus

	size        uint8
	addr        MemAddress
	dataIn      RegValue
	readEnable  bool
	writeEnable bool
}

// NewDataMemory creates a data memory port over bus.
func NewDataMemory(bus MemoryBus) *DataMemory {
	return &DataMemory{bus: bus}
}

// SetSize configures the access width; one of 1, 2, 4, 8.
func (m *DataMemory) SetSize(size uint8) error {
	if size != 1 && size != 2 && size != 4 && size != 8 {
		return &IllegalAccess{Size: size}
	}
	m.size = size
	return nil
}

// SetAddress configures the access address.
func (m *DataMemory) SetAddress(addr MemAddress) { m.addr = addr }

// SetDataIn configures the pending store value.
func (m *DataMemory) SetDataIn(v RegValue) { m.dataIn = v }

// SetReadEnable gates the read path.
func (m *DataMemory) SetReadEnable(enable bool) { m.readEnable = enable }

// SetWriteEnable gates the pending write.
func (m *DataMemory) SetWriteEnable(enable bool) { m.writeEnable = enable }

// GetDataOut returns the read value, zero- or sign-extended to 64 bits
// per signExtend. Returns 0 if the read port is not enabled.
func (m *DataMemory) GetDataOut(signExtend bool) (RegValue, error) {
	if !m.readEnable {
		return 0, nil
	}

	switch m.size {
	case 1:
		b := m.bus.ReadByte(m.addr)
		if signExtend {
			return uint64(int64(int8(b))), nil
		}
		return uint64(b), nil

	case 2:
		h := m.bus.ReadHalfWord(m.addr)
		if signExtend {
			return uint64(int64(int16(h))), nil
		}
		return uint64(h), nil

	case 4:
		w := m.bus.ReadWord(m.addr)
		if signExtend {
			return uint64(int64(int32(w))), nil
		}
		return uint64(w), nil

	case 8:
		return m.bus.ReadDoubleWord(m.addr), nil

	default:
		return 0, &IllegalAccess{Size: m.size}
	}
}

// ClockPulse commits the pending write, if enabled.
func (m *DataMemory) ClockPulse() error {
	if !m.writeEnable {
		return nil
	}

	switch m.size {
	case 1:
		m.bus.WriteByte(m.addr, uint8(m.dataIn))
	case 2:
		m.bus.WriteHalfWord(m.addr, uint16(m.dataIn))
	case 4:
		m.bus.WriteWord(m.addr, uint32(m.dataIn))
	case 8:
		m.bus.WriteDoubleWord(m.addr, m.dataIn)
	default:
		return &IllegalAccess{Size: m.size}
	}
	return nil
}
