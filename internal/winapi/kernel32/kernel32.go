// Package kernel32 implements the minimal kernel32 surface named in spec
// §4.6: ExitProcess, GetModuleHandleA, WriteFile, VirtualAlloc. Grounded in
// original_source/win32/src/winapi.rs's kernel32::State methods, and in
// the teacher's stub-set-as-struct pattern (internal/stubs/libc.go
// NewLibcStubs(emu) + Install(imports)).
package kernel32

import (
	"github.com/tsawler/win32shim/internal/abi"
	"github.com/tsawler/win32shim/internal/log"
)

// STDOUTHFile is the sentinel pseudo-handle WriteFile recognizes (spec
// §6): 0xF11E_0100.
const STDOUTHFile = 0xF11E0100

// MemCommit is the only VirtualAlloc allocation type this surface honors.
const MemCommit = 0x1000

// Shims holds no state of its own; kernel32's only per-process fields
// (image_base, teb) live on the process and are reached through Context.
type Shims struct{}

// New returns a kernel32 shim set.
func New() *Shims { return &Shims{} }

// Install registers this DLL's exports into reg.
func (s *Shims) Install(reg *abi.Registry) {
	reg.RegisterImport("kernel32", "ExitProcess", s.exitProcess)
	reg.RegisterImport("kernel32", "GetModuleHandleA", s.getModuleHandleA)
	reg.RegisterImport("kernel32", "WriteFile", s.writeFile)
	reg.RegisterImport("kernel32", "VirtualAlloc", s.virtualAlloc)
}

// ExitProcess(uExitCode) — terminates via the host; does not return.
func (s *Shims) exitProcess(ctx abi.Context) {
	code := ctx.CPU().Pop()
	ctx.Log().Trace(ctx.CPU().EIP(), "kernel32", "ExitProcess", "code="+log.Hex(uint64(code)))
	ctx.Host().Exit(code)
}

// GetModuleHandleA(lpModuleName) — returns image_base for NULL; otherwise
// named-module lookup is unsupported (spec §4.6).
func (s *Shims) getModuleHandleA(ctx abi.Context) {
	name := ctx.CPU().Pop()
	if name == 0 {
		ctx.CPU().SetEAX(ctx.ImageBase())
		return
	}
	ctx.Log().Unsupported("kernel32", "GetModuleHandleA", "named module lookup")
	ctx.CPU().SetEAX(0)
}

// WriteFile(hFile, lpBuffer, nNumberOfBytesToWrite, lpNumberOfBytesWritten,
// lpOverlapped) — only the STDOUT pseudo-handle with no overlapped
// structure is supported (spec §4.6).
func (s *Shims) writeFile(ctx abi.Context) {
	hFile := ctx.CPU().Pop()
	buf := ctx.CPU().Pop()
	n := ctx.CPU().Pop()
	pWritten := ctx.CPU().Pop()
	pOverlapped := ctx.CPU().Pop()

	if hFile != STDOUTHFile || pOverlapped != 0 {
		ctx.Log().Unsupported("kernel32", "WriteFile", "non-stdout handle or overlapped IO")
		ctx.CPU().SetEAX(0)
		return
	}

	data := ctx.Mem().ReadBytes(buf, n)
	written := ctx.Host().Write(data)
	if pWritten != 0 {
		ctx.Mem().SetU32(pWritten, written)
	}
	ctx.CPU().SetEAX(1)
}

// VirtualAlloc(lpAddress, dwSize, flAllocationType, flProtect) — only
// lpAddress == 0 with MEM_COMMIT is supported (spec §4.6).
func (s *Shims) virtualAlloc(ctx abi.Context) {
	addr := ctx.CPU().Pop()
	size := ctx.CPU().Pop()
	allocType := ctx.CPU().Pop()
	_ = ctx.CPU().Pop() // flProtect, ignored

	if addr != 0 || allocType != MemCommit {
		ctx.Log().Unsupported("kernel32", "VirtualAlloc", "non-null address or non-MEM_COMMIT type")
		ctx.CPU().SetEAX(0)
		return
	}

	m := ctx.AddrSpace().Alloc(size, "VirtualAlloc")
	ctx.Log().Debug("VirtualAlloc", log.Ptr("addr", m.Addr), log.Size(size))
	ctx.CPU().SetEAX(m.Addr)
}
