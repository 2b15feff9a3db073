// Package abi implements the Win32 stdcall shim dispatcher: the contract
// between the (external) CPU interpreter and host callbacks, the import
// resolution table, and the address-keyed table vtable thunks dispatch
// through. Grounded in the teacher's internal/stubs/registry.go Registry/
// StubDef/Install shape, adapted from ARM64-register argument passing to
// x86 stdcall stack popping.
package abi

import (
	"fmt"

	"github.com/tsawler/win32shim/internal/addrspace"
	"github.com/tsawler/win32shim/internal/async"
	"github.com/tsawler/win32shim/internal/cpu"
	"github.com/tsawler/win32shim/internal/heap"
	"github.com/tsawler/win32shim/internal/host"
	"github.com/tsawler/win32shim/internal/log"
	"github.com/tsawler/win32shim/internal/memory"
)

// Context is everything a shim callback needs: access to guest memory and
// registers, the address-space/heap allocators, the host backend, the
// callback bridge, and the process's image base/TEB. winapi packages
// depend only on this interface, never on the process package, which is
// what lets process.Process implement it without an import cycle.
type Context interface {
	Mem() *memory.Memory
	CPU() cpu.CPU
	AddrSpace() *addrspace.AddressSpace
	Heap() *heap.Heap
	Host() host.Host
	Bridge() *async.Bridge
	Log() *log.Logger
	ImageBase() uint32
	TEB() uint32
}

// StubFunc is a host callback for one ABI entry point (an import, or a COM
// vtable slot). It pops its own stdcall arguments off ctx.CPU() left to
// right (per spec §4.3 — the interpreter has already removed the return
// address before invoking the callback) and writes its result via
// ctx.CPU().SetEAX.
type StubFunc func(ctx Context)

// FatalError marks an invariant violation (spec §7.3): mapping overlap,
// alloc exhaustion, struct-size mismatch, or a null where non-null is
// required. Nothing in this module recovers it, so it aborts the program.
type FatalError struct {
	Msg string
}

func (e FatalError) Error() string { return e.Msg }

// Fatalf panics with a FatalError, the one mechanism by which a shim may
// abort the emulator.
func Fatalf(format string, args ...any) {
	panic(FatalError{Msg: fmt.Sprintf(format, args...)})
}

// Registry holds the import resolution table ("<dll>.dll!<symbol>" ->
// StubFunc) and the address-keyed table COM vtable slot thunks dispatch
// through.
type Registry struct {
	imports map[string]StubFunc
	addrs   map[uint32]StubFunc
	log     *log.Logger
}

// NewRegistry returns an empty Registry. log may be nil, in which case a
// no-op logger is used.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		imports: make(map[string]StubFunc),
		addrs:   make(map[uint32]StubFunc),
		log:     logger,
	}
}

// RegisterImport installs fn under the canonical "<dll>.dll!<symbol>" key
// (spec §6, import resolver key).
func (r *Registry) RegisterImport(dll, symbol string, fn StubFunc) {
	key := fmt.Sprintf("%s.dll!%s", dll, symbol)
	r.imports[key] = fn
	r.log.StubInstall(dll, symbol, 0, "import")
}

// RegisterAddr installs fn at a fixed guest address, used for COM vtable
// slot thunks reserved in the shim-code region.
func (r *Registry) RegisterAddr(category, name string, addr uint32, fn StubFunc) {
	r.addrs[addr] = fn
	r.log.StubInstall(category, name, addr, "vtable")
}

// ResolveImport returns the callback registered for "<dll>.dll!<symbol>",
// and whether one was found. There is no stub-on-demand (spec §4.3):
// lookup failure is reported to the caller, not silently handled here.
func (r *Registry) ResolveImport(dll, symbol string) (StubFunc, bool) {
	fn, ok := r.imports[fmt.Sprintf("%s.dll!%s", dll, symbol)]
	return fn, ok
}

// DispatchAddr looks up and invokes the callback registered at addr,
// reporting whether one was found.
func (r *Registry) DispatchAddr(ctx Context, addr uint32) bool {
	fn, ok := r.addrs[addr]
	if !ok {
		return false
	}
	fn(ctx)
	return true
}

// PopThis pops the "this" pointer, which for COM-style calls is pushed
// last by the caller and so popped first by the callback (spec §4.4).
func PopThis(ctx Context) uint32 {
	return ctx.CPU().Pop()
}
