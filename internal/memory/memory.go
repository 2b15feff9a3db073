// Package memory implements the flat guest address space: a byte array
// addressed by 32-bit guest addresses, with typed load/store helpers for
// the fixed-layout records the shim layer marshals across the ABI boundary.
package memory

import "fmt"

// Memory is a flat byte-addressable guest address space. It performs no
// page protection beyond what callers choose to enforce (see addrspace).
type Memory struct {
	bytes []byte
}

// New allocates a guest address space of the given size.
func New(size uint32) *Memory {
	return &Memory{bytes: make([]byte, size)}
}

// Size returns the total size of the backing array.
func (m *Memory) Size() uint32 {
	return uint32(len(m.bytes))
}

func (m *Memory) bounds(addr, n uint32) error {
	if uint64(addr)+uint64(n) > uint64(len(m.bytes)) {
		return fmt.Errorf("memory: access [0x%x, 0x%x) out of bounds (size 0x%x)", addr, uint64(addr)+uint64(n), len(m.bytes))
	}
	return nil
}

// ReadBytes returns a copy of n bytes starting at addr.
func (m *Memory) ReadBytes(addr, n uint32) []byte {
	if err := m.bounds(addr, n); err != nil {
		panic(err)
	}
	out := make([]byte, n)
	copy(out, m.bytes[addr:addr+n])
	return out
}

// WriteBytes writes b at addr.
func (m *Memory) WriteBytes(addr uint32, b []byte) {
	if err := m.bounds(addr, uint32(len(b))); err != nil {
		panic(err)
	}
	copy(m.bytes[addr:], b)
}

// U8 reads a byte at addr.
func (m *Memory) U8(addr uint32) uint8 {
	if err := m.bounds(addr, 1); err != nil {
		panic(err)
	}
	return m.bytes[addr]
}

// SetU8 writes a byte at addr.
func (m *Memory) SetU8(addr uint32, v uint8) {
	if err := m.bounds(addr, 1); err != nil {
		panic(err)
	}
	m.bytes[addr] = v
}

// U16 reads a little-endian uint16 at addr.
func (m *Memory) U16(addr uint32) uint16 {
	if err := m.bounds(addr, 2); err != nil {
		panic(err)
	}
	return uint16(m.bytes[addr]) | uint16(m.bytes[addr+1])<<8
}

// SetU16 writes a little-endian uint16 at addr.
func (m *Memory) SetU16(addr uint32, v uint16) {
	if err := m.bounds(addr, 2); err != nil {
		panic(err)
	}
	m.bytes[addr] = byte(v)
	m.bytes[addr+1] = byte(v >> 8)
}

// U32 reads a little-endian uint32 at addr.
func (m *Memory) U32(addr uint32) uint32 {
	if err := m.bounds(addr, 4); err != nil {
		panic(err)
	}
	return uint32(m.bytes[addr]) | uint32(m.bytes[addr+1])<<8 |
		uint32(m.bytes[addr+2])<<16 | uint32(m.bytes[addr+3])<<24
}

// SetU32 writes a little-endian uint32 at addr.
func (m *Memory) SetU32(addr uint32, v uint32) {
	if err := m.bounds(addr, 4); err != nil {
		panic(err)
	}
	m.bytes[addr] = byte(v)
	m.bytes[addr+1] = byte(v >> 8)
	m.bytes[addr+2] = byte(v >> 16)
	m.bytes[addr+3] = byte(v >> 24)
}

// ReadCString reads a NUL-terminated ASCII string starting at addr.
func (m *Memory) ReadCString(addr uint32) string {
	end := addr
	for end < uint32(len(m.bytes)) && m.bytes[end] != 0 {
		end++
	}
	return string(m.bytes[addr:end])
}

// WriteCString writes s followed by a NUL terminator at addr, returning the
// number of bytes written including the terminator.
func (m *Memory) WriteCString(addr uint32, s string) uint32 {
	m.WriteBytes(addr, append([]byte(s), 0))
	return uint32(len(s) + 1)
}

// Fill sets n bytes starting at addr to v.
func (m *Memory) Fill(addr, n uint32, v byte) {
	if err := m.bounds(addr, n); err != nil {
		panic(err)
	}
	for i := uint32(0); i < n; i++ {
		m.bytes[addr+i] = v
	}
}
