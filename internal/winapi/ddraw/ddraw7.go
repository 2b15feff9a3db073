// This file builds the IDirectDraw7 vtable and implements its selected
// methods (spec §4.8). Method bodies are grounded in
// original_source/win32/src/winapi/ddraw/ddraw7.rs's IDirectDraw7 impl.
package ddraw

import (
	"github.com/tsawler/win32shim/internal/abi"
	"github.com/tsawler/win32shim/internal/comobj"
	"github.com/tsawler/win32shim/internal/host"
	"github.com/tsawler/win32shim/internal/winapi/gdi32"
	"github.com/tsawler/win32shim/internal/winapi/user32"
)

// codeAlloc is the minimal allocator vtable construction needs.
type codeAlloc interface {
	Alloc(n uint32) uint32
}

type memWriter interface {
	SetU32(addr, v uint32)
}

// Shims owns the DirectDraw7 subsystem state and its three interned
// vtables (IDirectDraw7, IDirectDrawSurface7, palette).
type Shims struct {
	state *State
	gdi   *gdi32.Shims
	user  *user32.Shims

	ddraw7    *comobj.VTable
	surface   *comobj.VTable
	paletteVT *comobj.VTable
}

// New returns a ddraw shim set. gdi and user are the subsystems
// IDirectDrawSurface7.GetDC and IDirectDraw7.SetDisplayMode reach into
// directly, not through the import resolver.
func New(gdi *gdi32.Shims, user *user32.Shims) *Shims {
	return &Shims{state: NewState(), gdi: gdi, user: user}
}

// idirectDraw7Interface is the fixed, ordered IDirectDraw7 vtable (spec
// §4.8 names Release/CreatePalette/CreateSurface/EnumDisplayModes/
// SetCooperativeLevel/SetDisplayMode as "ok"; every other slot, in its
// real SDK position, is "todo").
func (s *Shims) idirectDraw7Interface() *comobj.Interface {
	todo := func(name string) comobj.Slot { return comobj.Slot{Name: name, Kind: comobj.Todo} }
	return &comobj.Interface{
		Name: "IDirectDraw7",
		Slots: []comobj.Slot{
			todo("QueryInterface"),
			todo("AddRef"),
			{Name: "Release", Kind: comobj.Ok, Impl: s.release},
			todo("Compact"),
			todo("CreateClipper"),
			{Name: "CreatePalette", Kind: comobj.Ok, Impl: s.createPalette},
			{Name: "CreateSurface", Kind: comobj.Ok, Impl: s.createSurface},
			todo("DuplicateSurface"),
			{Name: "EnumDisplayModes", Kind: comobj.Ok, Impl: s.enumDisplayModes},
			todo("EnumSurfaces"),
			todo("FlipToGDISurface"),
			todo("GetCaps"),
			todo("GetDisplayMode"),
			todo("GetFourCCCodes"),
			todo("GetGDISurface"),
			todo("GetMonitorFrequency"),
			todo("GetScanLine"),
			todo("GetVerticalBlankStatus"),
			todo("Initialize"),
			todo("RestoreDisplayMode"),
			{Name: "SetCooperativeLevel", Kind: comobj.Ok, Impl: s.setCooperativeLevel},
			{Name: "SetDisplayMode", Kind: comobj.Ok, Impl: s.setDisplayMode},
			todo("WaitForVerticalBlank"),
			todo("GetAvailableVidMem"),
			todo("GetSurfaceFromDC"),
			todo("RestoreAllSurfaces"),
			todo("TestCooperativeLevel"),
			todo("GetDeviceIdentifier"),
			todo("StartModeTest"),
			todo("EvaluateMode"),
		},
	}
}

// Install interns all three vtables into the reserved code region (alloc, mem)
// and registers the ddraw.dll factory entry point into reg.
func (s *Shims) Install(reg *abi.Registry, alloc codeAlloc, mem memWriter) {
	s.ddraw7 = comobj.Build(reg, alloc, mem, s.idirectDraw7Interface())
	s.surface = comobj.Build(reg, alloc, mem, s.idirectDrawSurface7Interface())
	s.paletteVT = comobj.Build(reg, alloc, mem, s.paletteInterface())
	reg.RegisterImport("ddraw", "DirectDrawCreateEx", s.directDrawCreateEx)
}

// DirectDrawCreateEx(lpGUID, lplpDD, iid, pUnkOuter) — constructs the
// single IDirectDraw7 object this emulator ever hands out.
func (s *Shims) directDrawCreateEx(ctx abi.Context) {
	c := ctx.CPU()
	_ = c.Pop() // lpGUID
	lplpDD := c.Pop()
	_ = c.Pop() // iid
	_ = c.Pop() // pUnkOuter

	obj := comobj.New(ctx.Heap(), ctx.Mem(), s.ddraw7)
	if lplpDD != 0 {
		ctx.Mem().SetU32(lplpDD, obj)
	}
	ctx.Log().Trace(c.EIP(), "ddraw", "DirectDrawCreateEx", "obj="+hex32(obj))
	c.SetEAX(DDOK)
}

func (s *Shims) release(ctx abi.Context, this uint32) {
	ctx.Log().Trace(ctx.CPU().EIP(), "IDirectDraw7", "Release", "this="+hex32(this))
	ctx.CPU().SetEAX(0)
}

// CreatePalette(flags, entries_addr, lplpPalette, _) — flags must contain
// DDPCAPS_8BIT; builds a palette object from 256 guest PALETTEENTRY
// records.
func (s *Shims) createPalette(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	flags := c.Pop()
	entriesAddr := c.Pop()
	lplpPalette := c.Pop()
	_ = c.Pop() // pUnkOuter

	if flags&DDPCAPS8Bit == 0 {
		abi.Fatalf("ddraw: CreatePalette without DDPCAPS_8BIT (flags=0x%x)", flags)
	}

	entries := ReadPaletteEntries(ctx.Mem(), entriesAddr, 256)
	pal := &Palette{}
	copy(pal.Entries[:], entries)

	obj := comobj.New(ctx.Heap(), ctx.Mem(), s.paletteVT)
	s.state.Palettes[obj] = pal
	if lplpPalette != 0 {
		ctx.Mem().SetU32(lplpPalette, obj)
	}
	ctx.Log().Trace(c.EIP(), "IDirectDraw7", "CreatePalette", "obj="+hex32(obj))
	c.SetEAX(DDOK)
}

// paletteInterface is a single-slot (Release-only) vtable: the palette
// object only needs identity and Release for this subsystem's needs
// (SetPalette reads its record by address, not through dispatch).
func (s *Shims) paletteInterface() *comobj.Interface {
	return &comobj.Interface{
		Name: "IDirectDrawPalette",
		Slots: []comobj.Slot{
			{Name: "Release", Kind: comobj.Ok, Impl: func(c abi.Context, this uint32) {
				c.CPU().SetEAX(0)
			}},
		},
	}
}

// CreateSurface(&desc, &lpSurface, _) — derives width/height from dwFlags,
// overrides them for the primary surface from the current display mode,
// creates a host surface, and records it.
func (s *Shims) createSurface(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	descAddr := c.Pop()
	lpSurfaceOut := c.Pop()
	_ = c.Pop() // pUnkOuter

	dwSize, dwFlags := ReadSurfaceDescFlags(ctx.Mem(), descAddr)
	if dwSize != sizeofSurfaceDesc2 {
		abi.Fatalf("ddraw: CreateSurface desc.dwSize=%d, want %d", dwSize, sizeofSurfaceDesc2)
	}

	var primary bool
	var w, h uint32
	if dwFlags&DDSDCaps != 0 {
		var caps uint32
		caps, w, h = ReadSurfaceDescCaps(ctx.Mem(), descAddr)
		primary = caps&DDSCAPSPrimarySurface != 0
	}
	if primary {
		w, h = s.state.DisplayW, s.state.DisplayH
	} else {
		if dwFlags&DDSDWidth == 0 || dwFlags&DDSDHeight == 0 {
			abi.Fatalf("ddraw: CreateSurface missing WIDTH/HEIGHT flags (0x%x)", dwFlags)
		}
		w, h = ctx.Mem().U32(descAddr+offDwWidth), ctx.Mem().U32(descAddr+offDwHeight)
	}

	hostSurf := ctx.Host().CreateSurface(host.SurfaceOptions{Width: w, Height: h, Primary: primary})
	rec := &Surface{Host: hostSurf, Width: w, Height: h, Primary: primary}

	obj := comobj.New(ctx.Heap(), ctx.Mem(), s.surface)
	s.state.Surfaces[obj] = rec
	if lpSurfaceOut != 0 {
		ctx.Mem().SetU32(lpSurfaceOut, obj)
	}
	ctx.Log().Trace(c.EIP(), "IDirectDraw7", "CreateSurface", "obj="+hex32(obj))
	c.SetEAX(DDOK)
}

// EnumDisplayModes(flags, lpFilter, lpContext, lpCallback) — lpFilter must
// be null; publishes one hard-coded 320x200x8bpp DDSURFACEDESC2 and
// invokes lpCallback(descAddr, lpContext) via the bridge, then frees the
// scratch (spec §4.8, scenario 5).
func (s *Shims) enumDisplayModes(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	_ = c.Pop() // flags
	lpFilter := c.Pop()
	lpContext := c.Pop()
	lpCallback := c.Pop()

	if lpFilter != 0 {
		abi.Fatalf("ddraw: EnumDisplayModes with non-null lpFilter")
	}

	descAddr := ctx.Heap().Alloc(sizeofSurfaceDesc2)
	ctx.Mem().SetU32(descAddr+offDwSize, sizeofSurfaceDesc2)
	WriteSurfaceDescDims(ctx.Mem(), descAddr, 320, 200)
	ctx.Mem().SetU32(descAddr+offDwFlags, DDSDWidth|DDSDHeight|DDSDPixelFormat)
	WritePixelFormat8bppRGBA(ctx.Mem(), descAddr+offPixelFormat)

	if lpCallback != 0 {
		ctx.Bridge().CallGuest(c, lpCallback, descAddr, lpContext)
	}
	ctx.Heap().Free(descAddr)

	ctx.Log().Trace(c.EIP(), "IDirectDraw7", "EnumDisplayModes", "320x200x8")
	c.SetEAX(DDOK)
}

// SetCooperativeLevel(hwnd, flags) — records hwnd in subsystem state.
func (s *Shims) setCooperativeLevel(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	hwnd := c.Pop()
	flags := c.Pop()
	s.state.HWnd = hwnd
	ctx.Log().Trace(c.EIP(), "IDirectDraw7", "SetCooperativeLevel", "hwnd="+hex32(hwnd)+" flags="+hex32(flags))
	c.SetEAX(DDOK)
}

// SetDisplayMode(w, h, bpp, refresh, flags) — records the mode; if an hwnd
// is known, resizes the host window (original_source behavior).
func (s *Shims) setDisplayMode(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	w := c.Pop()
	h := c.Pop()
	bpp := c.Pop()
	_ = c.Pop() // refresh
	_ = c.Pop() // flags

	s.state.DisplayW, s.state.DisplayH, s.state.DisplayBPP = w, h, bpp

	if s.state.HWnd != 0 && s.user != nil {
		if win, ok := s.user.Lookup(s.state.HWnd); ok {
			win.Host.SetSize(w, h)
		}
	}

	ctx.Log().Trace(c.EIP(), "IDirectDraw7", "SetDisplayMode", hex32(w)+"x"+hex32(h)+"x"+hex32(bpp))
	c.SetEAX(DDOK)
}

func hex32(v uint32) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0x0"
	}
	buf := make([]byte, 8)
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return "0x" + string(buf[i:])
}
