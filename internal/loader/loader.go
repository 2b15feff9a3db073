// Package loader is the trivial flat-image loader SPEC_FULL.md §1 names as
// this repository's PE-loader stand-in: it copies a raw code+data blob to a
// given base and reports the image's base, size and entry point. It does
// not add a mapping for the image to the address space. It is not a PE/COFF
// parser — real image parsing is an external collaborator, out of scope here.
package loader

import "github.com/tsawler/win32shim/internal/memory"

// Image is a loaded flat binary: the bytes copied into guest memory at
// Base, and the entry point within that range.
type Image struct {
	Base  uint32
	Size  uint32
	Entry uint32
}

// Load copies data into mem at base and returns the resulting Image. entry
// is relative to base (matching a flat binary's RVA-as-offset convention).
func Load(mem *memory.Memory, base uint32, data []byte, entryRVA uint32) *Image {
	mem.WriteBytes(base, data)
	return &Image{Base: base, Size: uint32(len(data)), Entry: base + entryRVA}
}
