package user32

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
)

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

func newTestCtx() *testCtx {
	mem := memory.New(0x200000)
	return &testCtx{
		mem: mem,
		c:   cpu.NewStack(mem, 0x100000, 0x1000),
		as:  addrspace.New(),
		h:   heap.New(mem, 0x101000, 0x1000),
		hst: host.NewRefHost(),
		lg:  log.NewNop(),
	}
}

func TestCreateWindowExAReturnsUsableHandle(t *testing.T) {
	ctx := newTestCtx()
	reg := abi.NewRegistry(nil)
	s := New()
	s.Install(reg)

	// Pop order: dwExStyle, lpClassName, lpWindowName, dwStyle, x, y, w, h,
	// hWndParent, hMenu, hInstance, lpParam. Push in reverse so w/h come out
	// non-zero and exercise the SetSize branch.
	args := []uint32{0, 0, 0, 0, 0, 0, 320, 200, 0, 0, 0, 0}
	for i := len(args) - 1; i >= 0; i-- {
		ctx.CPU().Push(args[i])
	}
	fn, ok := reg.ResolveImport("user32", "CreateWindowExA")
	if !ok {
		t.Fatal("CreateWindowExA not registered")
	}
	fn(ctx)

	handle := ctx.CPU().EAX()
	if handle == 0 {
		t.Fatal("CreateWindowExA returned a null handle")
	}
	w, ok := s.Lookup(handle)
	if !ok {
		t.Fatalf("handle 0x%x not found in window table", handle)
	}
	if w.Host == nil {
		t.Fatal("window record has no host window")
	}
	rw, ok := w.Host.(*host.RefWindow)
	if !ok {
		t.Fatalf("window host is %T, want *host.RefWindow", w.Host)
	}
	if rw.W != 320 || rw.H != 200 {
		t.Fatalf("SetSize not applied: got %dx%d, want 320x200", rw.W, rw.H)
	}
}
