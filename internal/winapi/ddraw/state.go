package ddraw

import "github.com/tsawler/win32shim/internal/host"

// Surface is the host-side record for a guest IDirectDrawSurface7 object
// (spec §3).
type Surface struct {
	Host    host.Surface
	Width   uint32
	Height  uint32
	Palette uint32 // guest address of the palette object, 0 if none
	Pixels  uint32 // guest address of the locked pixel buffer, 0 if never locked
	Primary bool
}

// Palette is the host-side record for a guest palette object: 256 fixed
// (R,G,B,flags) entries (spec §3).
type Palette struct {
	Entries [256]PaletteEntry
}

// State is the DirectDraw subsystem's process-wide state block (spec §3):
// the cooperative-level window, current display mode, the "palette hack"
// (the subsystem's single current palette, spec §4.8 SetPalette), and the
// surface/palette handle tables keyed by guest object address.
type State struct {
	HWnd             uint32
	DisplayW         uint32
	DisplayH         uint32
	DisplayBPP       uint32
	PaletteHack      uint32
	Surfaces         map[uint32]*Surface
	Palettes         map[uint32]*Palette
}

// NewState returns a fresh DirectDraw subsystem state block.
func NewState() *State {
	return &State{
		Surfaces: make(map[uint32]*Surface),
		Palettes: make(map[uint32]*Palette),
	}
}
