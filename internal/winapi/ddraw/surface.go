// This file builds the IDirectDrawSurface7 vtable and implements its
// selected methods (spec §4.8), grounded in
// original_source/win32/src/winapi/ddraw/ddraw7.rs.
package ddraw

import (
	"github.com/tsawler/win32shim/internal/abi"
	"github.com/tsawler/win32shim/internal/comobj"
	"github.com/tsawler/win32shim/internal/host"
)

func (s *Shims) idirectDrawSurface7Interface() *comobj.Interface {
	todo := func(name string) comobj.Slot { return comobj.Slot{Name: name, Kind: comobj.Todo} }
	return &comobj.Interface{
		Name: "IDirectDrawSurface7",
		Slots: []comobj.Slot{
			todo("QueryInterface"),
			todo("AddRef"),
			{Name: "Release", Kind: comobj.Ok, Impl: s.surfaceRelease},
			todo("AddAttachedSurface"),
			todo("AddOverlayDirtyRect"),
			todo("Blt"),
			todo("BltBatch"),
			{Name: "BltFast", Kind: comobj.Ok, Impl: s.bltFast},
			todo("DeleteAttachedSurface"),
			todo("EnumAttachedSurfaces"),
			todo("EnumOverlayZOrders"),
			{Name: "Flip", Kind: comobj.Ok, Impl: s.flip},
			{Name: "GetAttachedSurface", Kind: comobj.Ok, Impl: s.getAttachedSurface},
			todo("GetBltStatus"),
			todo("GetCaps"),
			todo("GetClipper"),
			todo("GetColorKey"),
			{Name: "GetDC", Kind: comobj.Ok, Impl: s.getDC},
			todo("GetFlipStatus"),
			todo("GetOverlayPosition"),
			todo("GetPalette"),
			todo("GetPixelFormat"),
			{Name: "GetSurfaceDesc", Kind: comobj.Ok, Impl: s.getSurfaceDesc},
			todo("Initialize"),
			todo("IsLost"),
			{Name: "Lock", Kind: comobj.Ok, Impl: s.lock},
			{Name: "ReleaseDC", Kind: comobj.Ok, Impl: s.releaseDC},
			{Name: "Restore", Kind: comobj.Ok, Impl: s.restore},
			todo("SetClipper"),
			todo("SetColorKey"),
			todo("SetOverlayPosition"),
			{Name: "SetPalette", Kind: comobj.Ok, Impl: s.setPalette},
			{Name: "Unlock", Kind: comobj.Ok, Impl: s.unlock},
			todo("UpdateOverlay"),
			todo("UpdateOverlayDisplay"),
			todo("UpdateOverlayZOrder"),
			todo("GetDDInterface"),
			todo("PageLock"),
			todo("PageUnlock"),
			todo("SetSurfaceDesc"),
			todo("SetPrivateData"),
			todo("GetPrivateData"),
			todo("FreePrivateData"),
			todo("GetUniquenessValue"),
			todo("ChangeUniquenessValue"),
			todo("SetPriority"),
			todo("GetPriority"),
			todo("SetLOD"),
			todo("GetLOD"),
		},
	}
}

func (s *Shims) surf(ctx abi.Context, this uint32) *Surface {
	rec, ok := s.state.Surfaces[this]
	if !ok {
		abi.Fatalf("ddraw: %s is not a known surface object", hex32(this))
	}
	return rec
}

// Release — leak by design (spec §3, §9).
func (s *Shims) surfaceRelease(ctx abi.Context, this uint32) {
	ctx.Log().Trace(ctx.CPU().EIP(), "IDirectDrawSurface7", "Release", "this="+hex32(this))
	ctx.CPU().SetEAX(0)
}

// BltFast(x, y, srcSurf, &rect, flags) — src/dst must be distinct; copies
// rect from src.host to dst.host at (x,y).
func (s *Shims) bltFast(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	x := c.Pop()
	y := c.Pop()
	srcSurf := c.Pop()
	rectAddr := c.Pop()
	_ = c.Pop() // flags

	if srcSurf == this {
		abi.Fatalf("ddraw: BltFast with src == dst (0x%x)", this)
	}
	dst := s.surf(ctx, this)
	src := s.surf(ctx, srcSurf)
	r := ReadRect(ctx.Mem(), rectAddr)
	w := r.Right - r.Left
	h := r.Bottom - r.Top

	dst.Host.BitBlt(x, y, src.Host, r.Left, r.Top, w, h)

	ctx.Log().Trace(c.EIP(), "IDirectDrawSurface7", "BltFast", "w/h="+hex32(w)+"/"+hex32(h))
	c.SetEAX(DDOK)
}

// Flip(_, flags) — calls host.flip() on this.
func (s *Shims) flip(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	_ = c.Pop() // lpSurfaceTargetOverride
	_ = c.Pop() // flags

	rec := s.surf(ctx, this)
	rec.Host.Flip()
	ctx.Log().Trace(c.EIP(), "IDirectDrawSurface7", "Flip", "this="+hex32(this))
	c.SetEAX(DDOK)
}

// GetAttachedSurface(caps, &outAddr) — materializes a new guest object
// wrapping the host's attached surface, inheriting dimensions/palette/
// pixels from the parent record.
func (s *Shims) getAttachedSurface(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	_ = c.Pop() // caps
	outAddr := c.Pop()

	rec := s.surf(ctx, this)
	attached := rec.Host.GetAttached()
	newRec := &Surface{Host: attached, Width: rec.Width, Height: rec.Height, Palette: rec.Palette, Pixels: rec.Pixels}

	obj := comobj.New(ctx.Heap(), ctx.Mem(), s.surface)
	s.state.Surfaces[obj] = newRec
	if outAddr != 0 {
		ctx.Mem().SetU32(outAddr, obj)
	}
	ctx.Log().Trace(c.EIP(), "IDirectDrawSurface7", "GetAttachedSurface", "obj="+hex32(obj))
	c.SetEAX(DDOK)
}

// GetDC(&outHDC) — creates a DC record with ddraw_surface=this, stores it
// in gdi32's DC table.
func (s *Shims) getDC(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	outHDC := c.Pop()

	s.surf(ctx, this) // validate the handle
	h := s.gdi.CreateDC(this)
	if outHDC != 0 {
		ctx.Mem().SetU32(outHDC, h)
	}
	ctx.Log().Trace(c.EIP(), "IDirectDrawSurface7", "GetDC", "hdc="+hex32(h))
	c.SetEAX(DDOK)
}

// GetSurfaceDesc(&desc) — fills requested WIDTH/HEIGHT fields.
//
// Preserved bug-for-bug from original_source (spec §9 Open Question c):
// this unconditionally returns DDERR_GENERIC, even though it has just
// filled every requested field successfully. See DESIGN.md.
func (s *Shims) getSurfaceDesc(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	descAddr := c.Pop()

	rec := s.surf(ctx, this)
	_, dwFlags := ReadSurfaceDescFlags(ctx.Mem(), descAddr)
	remaining := dwFlags
	if dwFlags&DDSDWidth != 0 {
		ctx.Mem().SetU32(descAddr+offDwWidth, rec.Width)
		remaining &^= DDSDWidth
	}
	if dwFlags&DDSDHeight != 0 {
		ctx.Mem().SetU32(descAddr+offDwHeight, rec.Height)
		remaining &^= DDSDHeight
	}
	if remaining != 0 {
		ctx.Log().Unsupported("IDirectDrawSurface7", "GetSurfaceDesc", "unsupported flags "+hex32(remaining))
	}

	ctx.Log().Trace(c.EIP(), "IDirectDrawSurface7", "GetSurfaceDesc", "this="+hex32(this))
	c.SetEAX(DDERRGeneric)
}

// Lock(rect, &desc, flags, _) — rect must be null; lazily allocates the
// pixel buffer on first lock. bytes_per_pixel is fixed at 1 (spec §4.8, §9).
func (s *Shims) lock(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	rectAddr := c.Pop()
	descAddr := c.Pop()
	_ = c.Pop() // flags
	_ = c.Pop() // hEvent

	if rectAddr != 0 {
		abi.Fatalf("ddraw: Lock with non-null rect is not supported")
	}

	rec := s.surf(ctx, this)
	if rec.Pixels == 0 {
		rec.Pixels = ctx.Heap().Alloc(rec.Width * rec.Height)
	}
	WriteSurfaceDescLock(ctx.Mem(), descAddr, rec.Pixels, rec.Width)

	ctx.Log().Trace(c.EIP(), "IDirectDrawSurface7", "Lock", "pixels="+hex32(rec.Pixels))
	c.SetEAX(DDOK)
}

// Unlock(&rect) — fills rect to the full surface if provided; if pixels
// have been locked and a palette is set ("palette hack"), expands 8bpp
// indices through the palette to RGBA and pushes to host.write_pixels.
func (s *Shims) unlock(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	rectAddr := c.Pop()

	rec := s.surf(ctx, this)
	if rectAddr != 0 {
		WriteRect(ctx.Mem(), rectAddr, Rect{Left: 0, Top: 0, Right: rec.Width, Bottom: rec.Height})
	}

	if rec.Pixels != 0 && s.state.PaletteHack != 0 {
		pal := s.state.Palettes[s.state.PaletteHack]
		if pal != nil {
			n := rec.Width * rec.Height
			idx := ctx.Mem().ReadBytes(rec.Pixels, n)
			out := make([]host.RGBA, n)
			for i, ix := range idx {
				e := pal.Entries[ix]
				out[i] = host.RGBA{R: e.R, G: e.G, B: e.B, A: 255}
			}
			rec.Host.WritePixels(out)
		}
	}

	ctx.Log().Trace(c.EIP(), "IDirectDrawSurface7", "Unlock", "this="+hex32(this))
	c.SetEAX(DDOK)
}

// SetPalette(palette) — stores on the record and as the subsystem's
// current palette (the "palette hack" Unlock consults).
func (s *Shims) setPalette(ctx abi.Context, this uint32) {
	c := ctx.CPU()
	palette := c.Pop()

	rec := s.surf(ctx, this)
	rec.Palette = palette
	s.state.PaletteHack = palette

	ctx.Log().Trace(c.EIP(), "IDirectDrawSurface7", "SetPalette", "palette="+hex32(palette))
	c.SetEAX(DDOK)
}

// ReleaseDC, Restore — no-op DD_OK (spec §4.8).
func (s *Shims) releaseDC(ctx abi.Context, this uint32) {
	_ = ctx.CPU().Pop() // hDC
	ctx.CPU().SetEAX(DDOK)
}

func (s *Shims) restore(ctx abi.Context, this uint32) {
	ctx.CPU().SetEAX(DDOK)
}
