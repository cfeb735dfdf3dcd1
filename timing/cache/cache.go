// Package cache models a set-associative cache using Akita cache
// components, with support for checkpointing its resident-block state.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size)
	BlockSize int
	// HitLatency in cycles
	HitLatency uint64
	// MissLatency in cycles (includes memory access time)
	MissLatency uint64
}

// DefaultL1IConfig returns the default configuration for an L1
// instruction cache: 32KB, 8-way, 64B lines.
func DefaultL1IConfig() Config {
	return Config{
		Size:          32 * 1024,
		Associativity: 8,
		BlockSize:     64,
		HitLatency:    1,
		MissLatency:   12,
	}
}

// DefaultL1DConfig returns the default configuration for an L1 data
// cache: 48KB, 12-way, 64B lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          48 * 1024,
		Associativity: 12,
		BlockSize:     64,
		HitLatency:    4,
		MissLatency:   12,
	}
}

// DefaultL2Config returns the default configuration for a unified L2
// cache: 1MB, 8-way, 64B lines.
func DefaultL2Config() Config {
	return Config{
		Size:          1024 * 1024,
		Associativity: 8,
		BlockSize:     64,
		HitLatency:    12,
		MissLatency:   150,
	}
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Data is the data read (for load operations).
	Data uint64
	// Evicted is true if a valid block was evicted.
	Evicted bool
	// EvictedAddr is the address of the evicted block (if Evicted is true).
	EvictedAddr uint64
}

// CheckpointEntry identifies one valid resident block.
type CheckpointEntry struct {
	// Set and Way locate the block.
	Set int
	Way int
	// Address is the block-aligned address of the resident line.
	Address uint64
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// BackingStore interface for the next level in the memory hierarchy.
type BackingStore interface {
	// Read fetches data from the backing store.
	Read(addr uint64, size int) []byte
	// Write stores data to the backing store.
	Write(addr uint64, data []byte)
}

// Cache is a set-associative cache. Tag and recency state live in an
// Akita cache directory; data lives in a flat block array alongside.
type Cache struct {
	name   string
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]byte

	numSets int

	stats Statistics

	// Backing store (for fetching on miss and writeback)
	backing BackingStore
}

// New creates a cache. The name identifies the cache in checkpoint
// files and must be unique within the simulated system.
func New(name string, config Config, backing BackingStore) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		name:   name,
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		numSets:   numSets,
		backing:   backing,
	}
}

// Name returns the cache's checkpoint name.
func (c *Cache) Name() string {
	return c.name
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// blockIndex computes the index into dataStore for a block.
func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) alignAddr(addr uint64) uint64 {
	return (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

// Read performs a cache read operation.
func (c *Cache) Read(addr uint64, size int) AccessResult {
	c.stats.Reads++

	blockAddr := c.alignAddr(addr)
	block := c.directory.Lookup(0, blockAddr)

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		offset := addr % uint64(c.config.BlockSize)
		data := extractData(c.dataStore[c.blockIndex(block)], offset, size)

		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
			Data:    data,
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, size, false, 0)
}

// Write performs a cache write operation. Write-allocate: on miss the
// block is fetched first, then written.
func (c *Cache) Write(addr uint64, size int, data uint64) AccessResult {
	c.stats.Writes++

	blockAddr := c.alignAddr(addr)
	block := c.directory.Lookup(0, blockAddr)

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		offset := addr % uint64(c.config.BlockSize)
		storeData(c.dataStore[c.blockIndex(block)], offset, size, data)
		block.IsDirty = true

		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, size, true, data)
}

// handleMiss fetches the missing block from the backing store.
func (c *Cache) handleMiss(addr uint64, size int, isWrite bool, writeData uint64) AccessResult {
	result := AccessResult{
		Hit:     false,
		Latency: c.config.MissLatency,
	}

	blockAddr := c.alignAddr(addr)

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result
	}

	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = victim.Tag

		if victim.IsDirty && c.backing != nil {
			c.stats.Writebacks++
			c.backing.Write(victim.Tag, victimData)
		}
	}

	c.fillBlock(victim, blockAddr)

	offset := addr % uint64(c.config.BlockSize)
	if isWrite {
		storeData(victimData, offset, size, writeData)
		victim.IsDirty = true
	} else {
		result.Data = extractData(victimData, offset, size)
	}

	c.directory.Visit(victim)

	return result
}

// fillBlock loads blockAddr's line from the backing store into the
// given block and updates its tag state.
func (c *Cache) fillBlock(block *akitacache.Block, blockAddr uint64) {
	data := c.dataStore[c.blockIndex(block)]

	if c.backing != nil {
		copy(data, c.backing.Read(blockAddr, c.config.BlockSize))
	} else {
		for i := range data {
			data[i] = 0
		}
	}

	block.Tag = blockAddr
	block.IsValid = true
	block.IsDirty = false
}

// CheckpointEntries returns every valid resident block in set-major,
// way-minor order. It does not modify cache state.
func (c *Cache) CheckpointEntries() []CheckpointEntry {
	var entries []CheckpointEntry

	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if !block.IsValid {
				continue
			}
			entries = append(entries, CheckpointEntry{
				Set:     block.SetID,
				Way:     block.WayID,
				Address: block.Tag,
			})
		}
	}

	return entries
}

// RestoreCheckpoint resets the cache, then marks each given (set, way)
// resident for its address, refilling the line's data from the backing
// store. An empty entry list cold-starts the cache. Entries outside the
// cache's geometry are rejected.
func (c *Cache) RestoreCheckpoint(entries []CheckpointEntry) error {
	c.directory.Reset()

	sets := c.directory.GetSets()
	for _, e := range entries {
		if e.Set < 0 || e.Set >= c.numSets ||
			e.Way < 0 || e.Way >= c.config.Associativity {
			return fmt.Errorf(
				"cache %s: checkpoint entry (set %d, way %d) outside geometry %dx%d",
				c.name, e.Set, e.Way, c.numSets, c.config.Associativity)
		}

		block := sets[e.Set].Blocks[e.Way]
		c.fillBlock(block, c.alignAddr(e.Address))
		c.directory.Visit(block)
	}

	return nil
}

// Invalidate marks a cache line as invalid.
func (c *Cache) Invalidate(addr uint64) {
	block := c.directory.Lookup(0, c.alignAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty blocks and invalidates them.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty && c.backing != nil {
				c.backing.Write(block.Tag, c.dataStore[c.blockIndex(block)])
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines without writeback.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}

// extractData extracts a value of the given size from a byte slice.
func extractData(data []byte, offset uint64, size int) uint64 {
	if data == nil || int(offset)+size > len(data) {
		return 0
	}

	var result uint64
	for i := 0; i < size; i++ {
		result |= uint64(data[int(offset)+i]) << (i * 8)
	}
	return result
}

// storeData stores a value of the given size into a byte slice.
func storeData(data []byte, offset uint64, size int, value uint64) {
	if data == nil || int(offset)+size > len(data) {
		return
	}

	for i := 0; i < size; i++ {
		data[int(offset)+i] = byte(value >> (i * 8))
	}
}
