// Package mem provides a sparse byte-addressable memory used as the
// backing store for the simulated cache hierarchy.
package mem

const pageSize = 4096

// Memory is a sparse memory backed by 4KB pages allocated on first touch.
// Reads from untouched pages return zero.
type Memory struct {
	pages map[uint64][]byte
}

// NewMemory creates an empty sparse memory.
func NewMemory() *Memory {
	return &Memory{
		pages: make(map[uint64][]byte),
	}
}

// page returns the page containing addr, allocating it if needed.
func (m *Memory) page(addr uint64, allocate bool) []byte {
	pageID := addr / pageSize
	p, ok := m.pages[pageID]
	if !ok && allocate {
		p = make([]byte, pageSize)
		m.pages[pageID] = p
	}
	return p
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint64) uint8 {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr%pageSize]
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint64, value uint8) {
	p := m.page(addr, true)
	p[addr%pageSize] = value
}

// Read16 reads a little-endian 16-bit value.
func (m *Memory) Read16(addr uint64) uint16 {
	return uint16(m.Read8(addr)) | uint16(m.Read8(addr+1))<<8
}

// Write16 writes a little-endian 16-bit value.
func (m *Memory) Write16(addr uint64, value uint16) {
	m.Write8(addr, uint8(value))
	m.Write8(addr+1, uint8(value>>8))
}

// Read32 reads a little-endian 32-bit value.
func (m *Memory) Read32(addr uint64) uint32 {
	var value uint32
	for i := uint64(0); i < 4; i++ {
		value |= uint32(m.Read8(addr+i)) << (i * 8)
	}
	return value
}

// Write32 writes a little-endian 32-bit value.
func (m *Memory) Write32(addr uint64, value uint32) {
	for i := uint64(0); i < 4; i++ {
		m.Write8(addr+i, uint8(value>>(i*8)))
	}
}

// Read64 reads a little-endian 64-bit value.
func (m *Memory) Read64(addr uint64) uint64 {
	var value uint64
	for i := uint64(0); i < 8; i++ {
		value |= uint64(m.Read8(addr+i)) << (i * 8)
	}
	return value
}

// Write64 writes a little-endian 64-bit value.
func (m *Memory) Write64(addr uint64, value uint64) {
	for i := uint64(0); i < 8; i++ {
		m.Write8(addr+i, uint8(value>>(i*8)))
	}
}
