// Package ddraw emulates the DirectDraw7 subsystem named in spec §4.8:
// IDirectDraw7 and IDirectDrawSurface7, bridging the guest memory model to
// the host.Surface/host.Window abstraction. Struct layouts and method
// semantics are resolved exactly against
// original_source/win32/src/winapi/ddraw/ddraw7.rs, the Rust implementation
// this spec was distilled from.
package ddraw

import "github.com/tsawler/win32shim/internal/memory"

// DD_OK / DDERR_GENERIC (spec §6). DDERR_GENERIC's exact numeric value is
// not load-bearing for this emulator (no guest code branches on the
// specific HRESULT beyond zero/non-zero in the scenarios this repo
// exercises); it is kept distinct and non-zero.
const (
	DDOK          = 0
	DDERRGeneric  = 0x80004005
)

// DDSCL_* cooperative-level flags (only bits this emulator inspects).
const (
	DDSCLFullscreen = 0x0001
	DDSCLExclusive  = 0x0010
)

// DDSD_* surface-description flags (spec §4.8 CreateSurface/GetSurfaceDesc).
const (
	DDSDCaps         = 0x00000001
	DDSDHeight       = 0x00000002
	DDSDWidth        = 0x00000004
	DDSDPitch        = 0x00000008
	DDSDPixelFormat  = 0x00001000
	DDSDLPSurface    = 0x00000800
)

// DDSCAPS_* surface capability flags.
const (
	DDSCAPSPrimarySurface = 0x00000200
)

// DDPCAPS_* palette capability flags.
const (
	DDPCAPS8Bit = 0x00000004
)

// IID_IDirectDraw7, spec §6: {15E65EC0-3B9C-11D2-B92F-00609797EA5B}.
var IIDIDirectDraw7 = [16]byte{
	0xC0, 0x5E, 0xE6, 0x15, 0x9C, 0x3B, 0xD2, 0x11,
	0xB9, 0x2F, 0x00, 0x60, 0x97, 0x97, 0xEA, 0x5B,
}

// Byte offsets into a guest DDSURFACEDESC2 (128 bytes, spec §6). Only the fields this emulator reads or writes are named;
// offsets follow the public SDK layout exactly.
const (
	offDwSize        = 0
	offDwFlags       = 4
	offDwHeight      = 8
	offDwWidth       = 12
	offLPitch        = 16
	offLPSurface     = 36
	offPixelFormat   = 72
	offDdsCapsCaps   = 104
	sizeofSurfaceDesc2 = 128
)

// ReadSurfaceDescFlags returns dwSize and dwFlags without touching the
// rest of the structure — callers validate dwSize before trusting it.
func ReadSurfaceDescFlags(mem *memory.Memory, addr uint32) (dwSize, dwFlags uint32) {
	return mem.U32(addr + offDwSize), mem.U32(addr + offDwFlags)
}

// WriteSurfaceDescDims fills dwWidth/dwHeight. It does not touch dwFlags.
func WriteSurfaceDescDims(mem *memory.Memory, addr uint32, w, h uint32) {
	mem.SetU32(addr+offDwWidth, w)
	mem.SetU32(addr+offDwHeight, h)
}

// WriteSurfaceDescLock fills lpSurface/lPitch/dwFlags for a Lock() result.
func WriteSurfaceDescLock(mem *memory.Memory, addr uint32, pixels, pitch uint32) {
	mem.SetU32(addr+offLPSurface, pixels)
	mem.SetU32(addr+offLPitch, pitch)
	mem.SetU32(addr+offDwFlags, mem.U32(addr+offDwFlags)|DDSDLPSurface)
}

// WriteSurfaceDescCaps fills dwCaps (DDSCAPS2.dwCaps).
func WriteSurfaceDescCaps(mem *memory.Memory, addr uint32, caps uint32) {
	mem.SetU32(addr+offDdsCapsCaps, caps)
}

// ReadSurfaceDescCaps reads dwCaps (DDSCAPS2.dwCaps) and dwWidth/dwHeight,
// used by CreateSurface to derive surface options.
func ReadSurfaceDescCaps(mem *memory.Memory, addr uint32) (caps, w, h uint32) {
	return mem.U32(addr + offDdsCapsCaps), mem.U32(addr + offDwWidth), mem.U32(addr + offDwHeight)
}

// DDPixelFormat offsets (32 bytes).
const (
	offPFSize     = 0
	offPFFlags    = 4
	offPFRGBBits  = 12
	offPFRMask    = 16
	offPFGMask    = 20
	offPFBMask    = 24
	offPFAMask    = 28
)

// WritePixelFormat8bppRGBA fills the hard-coded 8bpp pixel format
// EnumDisplayModes advertises (spec §4.8): masks
// {R:0xFF000000, G:0x00FF0000, B:0x0000FF00, A:0x000000FF}.
func WritePixelFormat8bppRGBA(mem *memory.Memory, addr uint32) {
	mem.SetU32(addr+offPFSize, 32)
	mem.SetU32(addr+offPFRGBBits, 8)
	mem.SetU32(addr+offPFRMask, 0xFF000000)
	mem.SetU32(addr+offPFGMask, 0x00FF0000)
	mem.SetU32(addr+offPFBMask, 0x0000FF00)
	mem.SetU32(addr+offPFAMask, 0x000000FF)
}

// RECT is 16 bytes: left, top, right, bottom (spec §6).
type Rect struct {
	Left, Top, Right, Bottom uint32
}

// ReadRect reads a RECT at addr.
func ReadRect(mem *memory.Memory, addr uint32) Rect {
	return Rect{
		Left:   mem.U32(addr),
		Top:    mem.U32(addr + 4),
		Right:  mem.U32(addr + 8),
		Bottom: mem.U32(addr + 12),
	}
}

// WriteRect writes r at addr.
func WriteRect(mem *memory.Memory, addr uint32, r Rect) {
	mem.SetU32(addr, r.Left)
	mem.SetU32(addr+4, r.Top)
	mem.SetU32(addr+8, r.Right)
	mem.SetU32(addr+12, r.Bottom)
}

// PaletteEntry is 4 bytes: peRed, peGreen, peBlue, peFlags.
type PaletteEntry struct {
	R, G, B, Flags uint8
}

// ReadPaletteEntries reads n PALETTEENTRY records starting at addr.
func ReadPaletteEntries(mem *memory.Memory, addr uint32, n int) []PaletteEntry {
	out := make([]PaletteEntry, n)
	for i := range out {
		b := mem.ReadBytes(addr+uint32(i*4), 4)
		out[i] = PaletteEntry{R: b[0], G: b[1], B: b[2], Flags: b[3]}
	}
	return out
}
