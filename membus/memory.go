// Package membus provides a flat, growable, byte-addressable
// little-endian implementation of core.MemoryBus — the minimal concrete
// bus a CLI driver needs to run a program against, with no hierarchy or
// protection modeling of its own. A cache.Cache can sit in front of it
// transparently, since both implement the same interface.
package membus

import "github.com/sarchlab/rv64sim/core"

// pageSize is the chunk size backing storage grows by, chosen to match
// typical ELF segment alignment so a loaded program rarely spans a
// page boundary mid-allocation.
const pageSize = 4096

// Memory is a flat little-endian byte-addressable memory. The zero
// value is an empty memory ready for use.
type Memory struct {
	pages map[core.MemAddress][]byte
}

// New creates an empty Memory.
func New() *Memory {
	return &Memory{pages: map[core.MemAddress][]byte{}}
}

func pageOf(addr core.MemAddress) (page core.MemAddress, offset int) {
	page = addr &^ (pageSize - 1)
	offset = int(addr - page)
	return
}

func (m *Memory) page(addr core.MemAddress) []byte {
	page, _ := pageOf(addr)
	p, ok := m.pages[page]
	if !ok {
		p = make([]byte, pageSize)
		m.pages[page] = p
	}
	return p
}

func (m *Memory) byteAt(addr core.MemAddress) uint8 {
	_, offset := pageOf(addr)
	return m.page(addr)[offset]
}

func (m *Memory) setByteAt(addr core.MemAddress, v uint8) {
	_, offset := pageOf(addr)
	m.page(addr)[offset] = v
}

// ReadByte implements core.MemoryBus.
func (m *Memory) ReadByte(addr core.MemAddress) uint8 { return m.byteAt(addr) }

// ReadHalfWord implements core.MemoryBus.
func (m *Memory) ReadHalfWord(addr core.MemAddress) uint16 {
	return uint16(m.byteAt(addr)) | uint16(m.byteAt(addr+1))<<8
}

// ReadWord implements core.MemoryBus.
func (m *Memory) ReadWord(addr core.MemAddress) uint32 {
	return uint32(m.ReadHalfWord(addr)) | uint32(m.ReadHalfWord(addr+2))<<16
}

// ReadDoubleWord implements core.MemoryBus.
func (m *Memory) ReadDoubleWord(addr core.MemAddress) uint64 {
	return uint64(m.ReadWord(addr)) | uint64(m.ReadWord(addr+4))<<32
}

// WriteByte implements core.MemoryBus.
func (m *Memory) WriteByte(addr core.MemAddress, v uint8) { m.setByteAt(addr, v) }

// WriteHalfWord implements core.MemoryBus.
func (m *Memory) WriteHalfWord(addr core.MemAddress, v uint16) {
	m.setByteAt(addr, uint8(v))
	m.setByteAt(addr+1, uint8(v>>8))
}

// WriteWord implements core.MemoryBus.
func (m *Memory) WriteWord(addr core.MemAddress, v uint32) {
	m.WriteHalfWord(addr, uint16(v))
	m.WriteHalfWord(addr+2, uint16(v>>16))
}

// WriteDoubleWord implements core.MemoryBus.
func (m *Memory) WriteDoubleWord(addr core.MemAddress, v uint64) {
	m.WriteWord(addr, uint32(v))
	m.WriteWord(addr+4, uint32(v>>32))
}

// LoadBytes copies data into memory starting at addr, growing backing
// pages as needed. Used by the CLI to install an ELF segment's contents.
func (m *Memory) LoadBytes(addr core.MemAddress, data []byte) {
	for i, b := range data {
		m.setByteAt(addr+core.MemAddress(i), b)
	}
}
