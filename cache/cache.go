// Package cache provides an optional L1-style cache that sits in front
// of a core.MemoryBus. It is not part of the simulated architecture:
// Fetch and Memory only ever see a core.MemoryBus, so a *Cache can be
// substituted for the backing bus wherever one is expected, with no
// change to sim or core.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/rv64sim/core"
)

// Config holds cache geometry and timing parameters.
type Config struct {
	// Size in bytes.
	Size int
	// Associativity (number of ways).
	Associativity int
	// BlockSize in bytes (cache line size).
	BlockSize int
	// HitLatency in cycles. Not consumed by sim's one-cycle-per-stage
	// model; recorded for callers that want to report it.
	HitLatency uint64
	// MissLatency in cycles.
	MissLatency uint64
}

// DefaultL1IConfig returns a typical L1 instruction cache configuration.
func DefaultL1IConfig() Config {
	return Config{
		Size:          32 * 1024,
		Associativity: 4,
		BlockSize:     64,
		HitLatency:    1,
		MissLatency:   10,
	}
}

// DefaultL1DConfig returns a typical L1 data cache configuration.
func DefaultL1DConfig() Config {
	return Config{
		Size:          32 * 1024,
		Associativity: 8,
		BlockSize:     64,
		HitLatency:    2,
		MissLatency:   10,
	}
}

// Statistics holds cache access counters.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// Cache is an L1-style cache backed by Akita's directory implementation
// for tag/state management, with its own byte-addressable data store.
// It implements core.MemoryBus, so it can be substituted for the bus
// sim.NewSimulator is given without sim knowing a cache exists.
type Cache struct {
	config Config

	directory *akitacache.DirectoryImpl
	dataStore [][]byte

	stats Statistics

	backing core.MemoryBus
}

// New creates a Cache of the given configuration, backed by bus for
// misses and writebacks.
func New(config Config, backing core.MemoryBus) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache's configuration.
func (c *Cache) Config() Config { return c.config }

// Stats returns a snapshot of the cache's access counters.
func (c *Cache) Stats() Statistics { return c.stats }

// ResetStats clears the access counters without touching cache contents.
func (c *Cache) ResetStats() { c.stats = Statistics{} }

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr core.MemAddress) core.MemAddress {
	return (addr / core.MemAddress(c.config.BlockSize)) * core.MemAddress(c.config.BlockSize)
}

// read performs a sized read, servicing a miss from backing if needed.
func (c *Cache) read(addr core.MemAddress, size int) uint64 {
	c.stats.Reads++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		offset := addr - blockAddr
		return extractData(c.dataStore[c.blockIndex(block)], int(offset), size)
	}

	c.stats.Misses++
	return c.handleMiss(addr, size, false, 0)
}

// write performs a sized write-allocate write.
func (c *Cache) write(addr core.MemAddress, size int, value uint64) {
	c.stats.Writes++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		offset := addr - blockAddr
		storeData(c.dataStore[c.blockIndex(block)], int(offset), size, value)
		block.IsDirty = true
		return
	}

	c.stats.Misses++
	c.handleMiss(addr, size, true, value)
}

// handleMiss fetches the missing block from backing, evicting and
// (if dirty) writing back a victim first, then performs isWrite's
// read or write against the freshly installed block.
func (c *Cache) handleMiss(addr core.MemAddress, size int, isWrite bool, writeValue uint64) uint64 {
	blockAddr := c.blockAddr(addr)

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return 0
	}

	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		if victim.IsDirty {
			c.stats.Writebacks++
			c.writeBlockToBacking(core.MemAddress(victim.Tag), victimData)
		}
	}

	c.readBlockFromBacking(blockAddr, victimData)

	victim.Tag = uint64(blockAddr)
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	offset := int(addr - blockAddr)
	if isWrite {
		storeData(victimData, offset, size, writeValue)
		victim.IsDirty = true
		return 0
	}
	return extractData(victimData, offset, size)
}

func (c *Cache) readBlockFromBacking(blockAddr core.MemAddress, dst []byte) {
	for i := 0; i < len(dst); i += 8 {
		v := c.backing.ReadDoubleWord(blockAddr + core.MemAddress(i))
		storeData(dst, i, 8, v)
	}
}

func (c *Cache) writeBlockToBacking(blockAddr core.MemAddress, src []byte) {
	for i := 0; i < len(src); i += 8 {
		v := extractData(src, i, 8)
		c.backing.WriteDoubleWord(blockAddr+core.MemAddress(i), v)
	}
}

// Flush writes back every dirty block and invalidates the cache.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.writeBlockToBacking(core.MemAddress(block.Tag), c.dataStore[c.blockIndex(block)])
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// ReadByte implements core.MemoryBus.
func (c *Cache) ReadByte(addr core.MemAddress) uint8 { return uint8(c.read(addr, 1)) }

// ReadHalfWord implements core.MemoryBus.
func (c *Cache) ReadHalfWord(addr core.MemAddress) uint16 { return uint16(c.read(addr, 2)) }

// ReadWord implements core.MemoryBus.
func (c *Cache) ReadWord(addr core.MemAddress) uint32 { return uint32(c.read(addr, 4)) }

// ReadDoubleWord implements core.MemoryBus.
func (c *Cache) ReadDoubleWord(addr core.MemAddress) uint64 { return c.read(addr, 8) }

// WriteByte implements core.MemoryBus.
func (c *Cache) WriteByte(addr core.MemAddress, v uint8) { c.write(addr, 1, uint64(v)) }

// WriteHalfWord implements core.MemoryBus.
func (c *Cache) WriteHalfWord(addr core.MemAddress, v uint16) { c.write(addr, 2, uint64(v)) }

// WriteWord implements core.MemoryBus.
func (c *Cache) WriteWord(addr core.MemAddress, v uint32) { c.write(addr, 4, uint64(v)) }

// WriteDoubleWord implements core.MemoryBus.
func (c *Cache) WriteDoubleWord(addr core.MemAddress, v uint64) { c.write(addr, 8, v) }

// extractData reads a little-endian value of size bytes out of data at offset.
func extractData(data []byte, offset, size int) uint64 {
	if offset < 0 || offset+size > len(data) {
		return 0
	}
	var result uint64
	for i := 0; i < size; i++ {
		result |= uint64(data[offset+i]) << (8 * i)
	}
	return result
}

// storeData writes a little-endian value of size bytes into data at offset.
func storeData(data []byte, offset, size int, value uint64) {
	if offset < 0 || offset+size > len(data) {
		return
	}
	for i := 0; i < size; i++ {
		data[offset+i] = byte(value >> (8 * i))
	}
}
