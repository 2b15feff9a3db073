// Package heap implements the intra-mapping sub-allocator shims use to
// materialize transient, guest-visible structures (scratch DDSURFACEDESC2
// buffers, locked pixel buffers, and the like).
package heap

import (
	"fmt"
	"sort"

	"github.com/tsawler/win32shim/internal/memory"
)

const align = 4

type block struct {
	addr uint32
	size uint32
}

// Heap is a bump-with-free-list allocator confined to [base, base+size).
type Heap struct {
	mem    *memory.Memory
	base   uint32
	size   uint32
	bump   uint32
	free   []block
	used   map[uint32]uint32 // addr -> size, for Free validation
}

// New creates a Heap over the given reserved mapping.
func New(mem *memory.Memory, base, size uint32) *Heap {
	return &Heap{mem: mem, base: base, size: size, bump: base, used: make(map[uint32]uint32)}
}

func roundUp(n, to uint32) uint32 {
	return (n + to - 1) &^ (to - 1)
}

// Alloc returns a 4-byte-aligned address of at least n bytes. It never
// touches the returned memory.
func (h *Heap) Alloc(n uint32) uint32 {
	n = roundUp(n, align)
	if n == 0 {
		n = align
	}

	for i, b := range h.free {
		if b.size >= n {
			addr := b.addr
			if b.size == n {
				h.free = append(h.free[:i], h.free[i+1:]...)
			} else {
				h.free[i] = block{addr: addr + n, size: b.size - n}
			}
			h.used[addr] = n
			return addr
		}
	}

	addr := roundUp(h.bump, align)
	if uint64(addr)+uint64(n) > uint64(h.base)+uint64(h.size) {
		panic(fmt.Sprintf("heap: exhausted allocating 0x%x bytes (base=0x%x size=0x%x)", n, h.base, h.size))
	}
	h.bump = addr + n
	h.used[addr] = n
	return addr
}

// Free releases addr back to the free list for reuse by later allocations
// of the same or smaller size.
func (h *Heap) Free(addr uint32) {
	n, ok := h.used[addr]
	if !ok {
		panic(fmt.Sprintf("heap: free of unknown address 0x%x", addr))
	}
	delete(h.used, addr)
	h.free = append(h.free, block{addr: addr, size: n})
	sort.Slice(h.free, func(i, j int) bool { return h.free[i].addr < h.free[j].addr })
}

// InUse reports the total number of live (un-freed) bytes, useful for
// tests asserting the heap returns to its prior state (spec §8 scenario 5).
func (h *Heap) InUse() uint32 {
	var total uint32
	for _, n := range h.used {
		total += n
	}
	return total
}
