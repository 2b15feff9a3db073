package kernel32

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
	mem       *memory.Memory
	c         cpu.CPU
	as        *addrspace.AddressSpace
	h         *heap.Heap
	hst       host.Host
	br        *async.Bridge
	lg        *log.Logger
	imageBase uint32
}

func (t *testCtx) Mem() *memory.Memory               { return t.mem }
func (t *testCtx) CPU() cpu.CPU                      { return t.c }
func (t *testCtx) AddrSpace() *addrspace.AddressSpace { return t.as }
func (t *testCtx) Heap() *heap.Heap                  { return t.h }
func (t *testCtx) Host() host.Host                   { return t.hst }
func (t *testCtx) Bridge() *async.Bridge             { return t.br }
func (t *testCtx) Log() *log.Logger                  { return t.lg }
func (t *testCtx) ImageBase() uint32                 { return t.imageBase }
func (t *testCtx) TEB() uint32                       { return 0 }

func newTestCtx() *testCtx {
	mem := memory.New(0x200000)
	as := addrspace.New()
	stk := cpu.NewStack(mem, 0x100000, 0x1000)
	return &testCtx{
		mem:       mem,
		c:         stk,
		as:        as,
		h:         heap.New(mem, 0x100000+0x1000, 0x1000),
		hst:       host.NewRefHost(),
		lg:        log.NewNop(),
		imageBase: 0x00400000,
	}
}

func TestGetModuleHandleANull(t *testing.T) {
	ctx := newTestCtx()
	reg := abi.NewRegistry(nil)
	New().Install(reg)

	ctx.CPU().Push(0) // lpModuleName = NULL
	fn, ok := reg.ResolveImport("kernel32", "GetModuleHandleA")
	if !ok {
		t.Fatal("GetModuleHandleA not registered")
	}
	fn(ctx)
	if ctx.CPU().EAX() != 0x00400000 {
		t.Fatalf("eax = 0x%x, want 0x00400000", ctx.CPU().EAX())
	}
}

func TestWriteFileStdout(t *testing.T) {
	ctx := newTestCtx()
	reg := abi.NewRegistry(nil)
	New().Install(reg)

	addr := uint32(0x20000)
	ctx.Mem().WriteBytes(addr, []byte("hello"))
	pWritten := uint32(0x21000)

	// stdcall push order right-to-left: lpOverlapped, lpNumberOfBytesWritten,
	// nNumberOfBytesToWrite, lpBuffer, hFile
	ctx.CPU().Push(0)
	ctx.CPU().Push(pWritten)
	ctx.CPU().Push(5)
	ctx.CPU().Push(addr)
	ctx.CPU().Push(STDOUTHFile)

	fn, _ := reg.ResolveImport("kernel32", "WriteFile")
	fn(ctx)

	if ctx.CPU().EAX() != 1 {
		t.Fatalf("eax = %d, want 1", ctx.CPU().EAX())
	}
	if got := ctx.Mem().U32(pWritten); got != 5 {
		t.Fatalf("*pWritten = %d, want 5", got)
	}
	rh := ctx.hst.(*host.RefHost)
	if string(rh.Written) != "hello" {
		t.Fatalf("host observed %q, want %q", rh.Written, "hello")
	}
}

func TestVirtualAllocBasic(t *testing.T) {
	ctx := newTestCtx()
	reg := abi.NewRegistry(nil)
	New().Install(reg)

	ctx.CPU().Push(0) // flProtect
	ctx.CPU().Push(MemCommit)
	ctx.CPU().Push(0x2000)
	ctx.CPU().Push(0) // lpAddress

	fn, _ := reg.ResolveImport("kernel32", "VirtualAlloc")
	fn(ctx)

	base := ctx.CPU().EAX()
	if base < addrspace.NullPointerRegionSize {
		t.Fatalf("alloc base 0x%x is inside the null guard", base)
	}
	if base%0x1000 != 0 {
		t.Fatalf("alloc base 0x%x is not page-aligned", base)
	}
}

func TestExitProcessCallsHost(t *testing.T) {
	ctx := newTestCtx()
	reg := abi.NewRegistry(nil)
	New().Install(reg)
	ctx.CPU().Push(7)

	fn, _ := reg.ResolveImport("kernel32", "ExitProcess")
	defer func() {
		r := recover()
		req, ok := r.(host.ExitRequest)
		if !ok {
			t.Fatalf("expected host.ExitRequest panic, got %v", r)
		}
		if req.Code != 7 {
			t.Fatalf("exit code = %d, want 7", req.Code)
		}
	}()
	fn(ctx)
}
