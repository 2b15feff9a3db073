package ddraw

import (
	"testing"

	"github.com/tsawler/win32shim/internal/abi"
	"github.com/tsawler/win32shim/internal/addrspace"
	"github.com/tsawler/win32shim/internal/async"
	"github.com/tsawler/win32shim/internal/cpu"
	"github.com/tsawler/win32shim/internal/heap"
	"github.com/tsawler/win32shim/internal/host"
	"github.com/tsawler/win32shim/internal/log"
	"github.com/tsawler/win32shim/internal/memory"
	"github.com/tsawler/win32shim/internal/winapi/gdi32"
	"github.com/tsawler/win32shim/internal/winapi/user32"
)

// registryScheduler dispatches a "guest callback" the same way vtable
// slots and imports are dispatched: by looking up its address in the
// registry. This stands in for the real x86 interpreter (out of scope),
// consistent with SPEC_FULL.md §1.
type registryScheduler struct {
	reg *abi.Registry
	ctx abi.Context
}

func (r *registryScheduler) RunUntil(c cpu.CPU, pc, sentinel uint32) error {
	_ = c.Pop() // sentinel return address; callbacks see only their args
	r.reg.DispatchAddr(r.ctx, pc)
	c.SetEIP(sentinel)
	return nil
}

type testCtx struct {
	mem *memory.Memory
	c   cpu.CPU
	as  *addrspace.AddressSpace
	h   *heap.Heap
	hst host.Host
	br  *async.Bridge
	lg  *log.Logger
}

func (t *testCtx) Mem() *memory.Memory               { return t.mem }
func (t *testCtx) CPU() cpu.CPU                      { return t.c }
func (t *testCtx) AddrSpace() *addrspace.AddressSpace { return t.as }
func (t *testCtx) Heap() *heap.Heap                  { return t.h }
func (t *testCtx) Host() host.Host                   { return t.hst }
func (t *testCtx) Bridge() *async.Bridge             { return t.br }
func (t *testCtx) Log() *log.Logger                  { return t.lg }
func (t *testCtx) ImageBase() uint32                 { return 0x400000 }
func (t *testCtx) TEB() uint32                       { return 0 }

func setup(t *testing.T) (*testCtx, *abi.Registry, *Shims) {
	t.Helper()
	mem := memory.New(0x300000)
	as := addrspace.New()
	code := as.Alloc(0x20000, "code")
	heapRegion := as.Alloc(0x20000, "heap")
	h := heap.New(mem, heapRegion.Addr, heapRegion.Size)
	stk := cpu.NewStack(mem, 0x280000, 0x8000)

	ctx := &testCtx{mem: mem, c: stk, as: as, h: h, hst: host.NewRefHost(), lg: log.NewNop()}
	reg := abi.NewRegistry(nil)
	ctx.br = async.New(&registryScheduler{reg: reg, ctx: ctx}, 0xCAFE0000)

	codeHeap := heap.New(mem, code.Addr, code.Size)
	gdiShims := gdi32.New()
	userShims := user32.New()
	ddrawShims := New(gdiShims, userShims)
	ddrawShims.Install(reg, codeHeap, mem)

	return ctx, reg, ddrawShims
}

func createSurfacePrimary(t *testing.T, ctx *testCtx, reg *abi.Registry, s *Shims, w, h uint32) uint32 {
	t.Helper()
	s.state.DisplayW, s.state.DisplayH = w, h

	obj := comobjNew(ctx)
	descAddr := ctx.Heap().Alloc(sizeofSurfaceDesc2)
	ctx.Mem().SetU32(descAddr+offDwSize, sizeofSurfaceDesc2)
	ctx.Mem().SetU32(descAddr+offDwFlags, DDSDCaps)
	WriteSurfaceDescCaps(ctx.Mem(), descAddr, DDSCAPSPrimarySurface)

	outAddr := ctx.Heap().Alloc(4)
	ctx.CPU().Push(0) // pUnkOuter
	ctx.CPU().Push(outAddr)
	ctx.CPU().Push(descAddr)
	ctx.CPU().Push(obj)
	slot := s.ddraw7.SlotAddr[6] // CreateSurface
	if !reg.DispatchAddr(ctx, slot) {
		t.Fatal("CreateSurface slot not found")
	}
	if ctx.CPU().EAX() != DDOK {
		t.Fatalf("CreateSurface returned 0x%x", ctx.CPU().EAX())
	}
	return ctx.Mem().U32(outAddr)
}

// comobjNew hands back a distinct, valid guest address for use as `this`
// in tests that only need object identity, not a dispatchable vtable.
func comobjNew(ctx *testCtx) uint32 {
	return ctx.Heap().Alloc(4)
}

func TestCreatePaletteSetPaletteUnlock(t *testing.T) {
	ctx, reg, s := setup(t)

	entriesAddr := ctx.Heap().Alloc(256 * 4)
	for i := 0; i < 256; i++ {
		ctx.Mem().WriteBytes(entriesAddr+uint32(i*4), []byte{0, 0, 0, 0})
	}
	ctx.Mem().WriteBytes(entriesAddr+7*4, []byte{10, 20, 30, 0})

	palOut := ctx.Heap().Alloc(4)
	ctx.CPU().Push(0)
	ctx.CPU().Push(palOut)
	ctx.CPU().Push(entriesAddr)
	ctx.CPU().Push(DDPCAPS8Bit)
	ddrawObj := comobjNew(ctx)
	ctx.CPU().Push(ddrawObj)
	if !reg.DispatchAddr(ctx, s.ddraw7.SlotAddr[5]) { // CreatePalette
		t.Fatal("CreatePalette slot not found")
	}
	if ctx.CPU().EAX() != DDOK {
		t.Fatalf("CreatePalette returned 0x%x", ctx.CPU().EAX())
	}
	paletteObj := ctx.Mem().U32(palOut)

	surfObj := createSurfacePrimary(t, ctx, reg, s, 4, 1)

	// SetPalette(surfObj, paletteObj)
	ctx.CPU().Push(paletteObj)
	ctx.CPU().Push(surfObj)
	if !reg.DispatchAddr(ctx, s.surface.SlotAddr[31]) { // SetPalette
		t.Fatal("SetPalette slot not found")
	}

	// Lock
	descAddr := ctx.Heap().Alloc(sizeofSurfaceDesc2)
	ctx.CPU().Push(0) // hEvent
	ctx.CPU().Push(0) // flags
	ctx.CPU().Push(descAddr)
	ctx.CPU().Push(0) // rect = null
	ctx.CPU().Push(surfObj)
	if !reg.DispatchAddr(ctx, s.surface.SlotAddr[25]) { // Lock
		t.Fatal("Lock slot not found")
	}

	rec := s.state.Surfaces[surfObj]
	ctx.Mem().WriteBytes(rec.Pixels, []byte{7, 7, 7, 7})

	// Unlock
	ctx.CPU().Push(0) // rect = null
	ctx.CPU().Push(surfObj)
	if !reg.DispatchAddr(ctx, s.surface.SlotAddr[32]) { // Unlock
		t.Fatal("Unlock slot not found")
	}

	rh := rec.Host.(*host.RefSurface)
	px := rh.Pixels()
	if len(px) != 4 {
		t.Fatalf("WritePixels got %d pixels, want 4", len(px))
	}
	for i, p := range px {
		if p != (host.RGBA{R: 10, G: 20, B: 30, A: 255}) {
			t.Fatalf("pixel %d = %+v, want {10 20 30 255}", i, p)
		}
	}
}

func TestEnumDisplayModesInvokesCallbackOnceAndFreesScratch(t *testing.T) {
	ctx, reg, s := setup(t)

	var gotW, gotH uint32
	calls := 0
	cbAddr := uint32(0x30000)
	reg.RegisterAddr("test", "enumCallback", cbAddr, func(c abi.Context) {
		calls++
		descAddr := c.CPU().Pop()
		_ = c.CPU().Pop() // lpContext
		gotW = c.Mem().U32(descAddr + offDwWidth)
		gotH = c.Mem().U32(descAddr + offDwHeight)
		c.CPU().SetEAX(1)
	})

	ddrawObj := comobjNew(ctx)
	before := ctx.Heap().InUse()
	ctx.CPU().Push(cbAddr)
	ctx.CPU().Push(0) // lpContext
	ctx.CPU().Push(0) // lpFilter
	ctx.CPU().Push(0) // flags
	ctx.CPU().Push(ddrawObj)
	if !reg.DispatchAddr(ctx, s.ddraw7.SlotAddr[8]) { // EnumDisplayModes
		t.Fatal("EnumDisplayModes slot not found")
	}

	if calls != 1 {
		t.Fatalf("callback invoked %d times, want 1", calls)
	}
	if gotW != 320 || gotH != 200 {
		t.Fatalf("callback saw %dx%d, want 320x200", gotW, gotH)
	}
	if after := ctx.Heap().InUse(); after != before {
		t.Fatalf("heap InUse after EnumDisplayModes = %d, want %d (scratch not freed)", after, before)
	}
}

func TestBltFast(t *testing.T) {
	ctx, reg, s := setup(t)

	dstObj := createSurfacePrimary(t, ctx, reg, s, 16, 16)
	s.state.DisplayW, s.state.DisplayH = 16, 16
	srcObj := createSurfacePrimary(t, ctx, reg, s, 16, 16)

	rectAddr := ctx.Heap().Alloc(16)
	WriteRect(ctx.Mem(), rectAddr, Rect{Left: 0, Top: 0, Right: 8, Bottom: 8})

	ctx.CPU().Push(0) // flags
	ctx.CPU().Push(rectAddr)
	ctx.CPU().Push(srcObj)
	ctx.CPU().Push(4) // y
	ctx.CPU().Push(4) // x
	ctx.CPU().Push(dstObj)
	if !reg.DispatchAddr(ctx, s.surface.SlotAddr[7]) { // BltFast
		t.Fatal("BltFast slot not found")
	}
	if ctx.CPU().EAX() != DDOK {
		t.Fatalf("BltFast returned 0x%x", ctx.CPU().EAX())
	}

	dstRec := s.state.Surfaces[dstObj]
	blit := dstRec.Host.(*host.RefSurface).LastBlit
	if blit == nil {
		t.Fatal("no blit recorded")
	}
	if blit.W != 8 || blit.H != 8 || blit.DX != 4 || blit.DY != 4 {
		t.Fatalf("blit = %+v, want w/h=8/8 dx/dy=4/4", blit)
	}
}
