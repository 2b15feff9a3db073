// Package process assembles one guest process: memory, address space,
// heap, CPU, host backend, callback bridge, and the winapi subsystems —
// and implements abi.Context so winapi packages never import process
// (avoiding the import cycle that would otherwise result from kernel32/
// user32/gdi32/ddraw needing to call back into shared process state).
package process

import (
	"github.com/tsawler/win32shim/internal/abi"
	"github.com/tsawler/win32shim/internal/addrspace"
	"github.com/tsawler/win32shim/internal/async"
	"github.com/tsawler/win32shim/internal/cpu"
	"github.com/tsawler/win32shim/internal/heap"
	"github.com/tsawler/win32shim/internal/host"
	"github.com/tsawler/win32shim/internal/loader"
	"github.com/tsawler/win32shim/internal/log"
	"github.com/tsawler/win32shim/internal/memory"
	"github.com/tsawler/win32shim/internal/winapi/ddraw"
	"github.com/tsawler/win32shim/internal/winapi/gdi32"
	"github.com/tsawler/win32shim/internal/winapi/kernel32"
	"github.com/tsawler/win32shim/internal/winapi/user32"
)

const (
	stackSize    = 0x100000
	codeRegion   = 0x100000
	heapRegion   = 0x1000000
)

// Process is a single guest process's full state (spec §3).
type Process struct {
	mem   *memory.Memory
	as    *addrspace.AddressSpace
	heap  *heap.Heap
	cpu   *cpu.Stack
	host  host.Host
	bridge *async.Bridge
	log   *log.Logger
	reg   *abi.Registry

	imageBase uint32
	teb       uint32

	Kernel32 *kernel32.Shims
	User32   *user32.Shims
	GDI32    *gdi32.Shims
	DDraw    *ddraw.Shims
}

// New constructs a process with all winapi subsystems installed and
// registered. h is the host backend the shims call into; logger may be nil.
func New(memSize uint32, h host.Host, logger *log.Logger) *Process {
	if logger == nil {
		logger = log.NewNop()
	}
	mem := memory.New(memSize)
	as := addrspace.New()
	stackMapping := as.Alloc(stackSize, "stack")
	codeMapping := as.Alloc(codeRegion, "shim code")
	heapMapping := as.Alloc(heapRegion, "process heap")

	p := &Process{
		mem:  mem,
		as:   as,
		heap: heap.New(mem, heapMapping.Addr, heapMapping.Size),
		cpu:  cpu.NewStack(mem, stackMapping.Addr, stackMapping.Size),
		host: h,
		log:  logger,
		reg:  abi.NewRegistry(logger),
	}
	p.bridge = async.New(&selfScheduler{p: p}, 0xF00D0000)

	codeHeap := heap.New(mem, codeMapping.Addr, codeMapping.Size)

	p.Kernel32 = kernel32.New()
	p.Kernel32.Install(p.reg)

	p.User32 = user32.New()
	p.User32.Install(p.reg)

	p.GDI32 = gdi32.New()
	p.DDraw = ddraw.New(p.GDI32, p.User32)
	p.DDraw.Install(p.reg, codeHeap, mem)

	return p
}

// SetImage records the loaded executable's base address (the loader is an
// external collaborator; process only stores what it reports).
func (p *Process) SetImage(base, teb uint32) {
	p.imageBase = base
	p.teb = teb
}

// LoadImage copies a flat code+data blob into guest memory via
// internal/loader and records its base as the process's image base.
func (p *Process) LoadImage(base uint32, data []byte, entryRVA uint32) *loader.Image {
	img := loader.Load(p.mem, base, data, entryRVA)
	p.imageBase = img.Base
	return img
}

// Registry exposes the import/address resolution table so a CLI or loader
// can resolve import thunks and a scheduler can dispatch vtable/callback
// addresses.
func (p *Process) Registry() *abi.Registry { return p.reg }

// abi.Context implementation.

func (p *Process) Mem() *memory.Memory               { return p.mem }
func (p *Process) CPU() cpu.CPU                      { return p.cpu }
func (p *Process) AddrSpace() *addrspace.AddressSpace { return p.as }
func (p *Process) Heap() *heap.Heap                  { return p.heap }
func (p *Process) Host() host.Host                   { return p.host }
func (p *Process) Bridge() *async.Bridge             { return p.bridge }
func (p *Process) Log() *log.Logger                  { return p.log }
func (p *Process) ImageBase() uint32                 { return p.imageBase }
func (p *Process) TEB() uint32                       { return p.teb }

// selfScheduler implements async.Scheduler by dispatching through the
// process's own registry — the stand-in for the real x86 interpreter
// (spec §1, SPEC_FULL.md §1): guest callbacks are recognized by address
// exactly like vtable slot thunks and import shims.
type selfScheduler struct {
	p *Process
}

func (s *selfScheduler) RunUntil(c cpu.CPU, pc, sentinel uint32) error {
	_ = c.Pop() // sentinel return address; callbacks see only their args
	s.p.reg.DispatchAddr(s.p, pc)
	c.SetEIP(sentinel)
	return nil
}

// Call invokes the import "<dll>!<symbol>" directly, as the CLI scenario
// runner and scripting console do, bypassing the (out-of-scope) x86
// interpreter entirely.
func (p *Process) Call(dll, symbol string) (ok bool) {
	fn, found := p.reg.ResolveImport(dll, symbol)
	if !found {
		return false
	}
	fn(p)
	return true
}

// PeekU32 and PokeU32 give the scripting console direct guest-memory
// access for scenario setup (e.g. seeding stdcall arguments before a Call).
func (p *Process) PeekU32(addr uint32) uint32  { return p.mem.U32(addr) }
func (p *Process) PokeU32(addr, v uint32)      { p.mem.SetU32(addr, v) }

// Push puts v on top of the guest stack, the same stdcall argument setup
// a real caller's push instructions perform before a call — used by the
// scenario runner and console to drive calls that need real arguments
// (e.g. CreateSurface, BltFast) instead of an all-zero stack.
func (p *Process) Push(v uint32) { p.cpu.Push(v) }
