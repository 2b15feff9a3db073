// Package user32 implements the minimal user32 surface named in spec
// §4.7: RegisterClassA, CreateWindowExA, UpdateWindow. Unlike the original
// (original_source/win32/src/winapi.rs RegisterClassA/CreateWindowExA,
// both log-only stubs), CreateWindowExA here materializes a real window
// record — SPEC_FULL.md's supplemented behavior, since spec §4.7 requires
// later calls (ddraw.SetDisplayMode) to resolve a returned handle to a
// host window.
package user32

import (
	"github.com/tsawler/win32shim/internal/abi"
	"github.com/tsawler/win32shim/internal/host"
)

// Window is a guest window record: at least the host window it backs
// (spec §4.7).
type Window struct {
	Host host.Window
}

// Shims owns the window handle table.
type Shims struct {
	windows map[uint32]*Window
	nextID  uint32
}

// New returns an empty user32 shim set.
func New() *Shims {
	return &Shims{windows: make(map[uint32]*Window), nextID: 1}
}

// Install registers this DLL's exports into reg.
func (s *Shims) Install(reg *abi.Registry) {
	reg.RegisterImport("user32", "RegisterClassA", s.registerClassA)
	reg.RegisterImport("user32", "CreateWindowExA", s.createWindowExA)
	reg.RegisterImport("user32", "UpdateWindow", s.updateWindow)
}

// Lookup returns the window record for handle h, if any. ddraw's
// SetDisplayMode uses this to reach the host window.
func (s *Shims) Lookup(h uint32) (*Window, bool) {
	w, ok := s.windows[h]
	return w, ok
}

// RegisterClassA(lpWndClass) — logs and returns a non-zero atom (any
// non-zero value signals success to callers that check it).
func (s *Shims) registerClassA(ctx abi.Context) {
	lpWndClass := ctx.CPU().Pop()
	ctx.Log().Trace(ctx.CPU().EIP(), "user32", "RegisterClassA", "lpWndClass="+hex(lpWndClass))
	ctx.CPU().SetEAX(1)
}

// CreateWindowExA(dwExStyle, lpClassName, lpWindowName, dwStyle, x, y, w, h,
// hWndParent, hMenu, hInstance, lpParam) — creates a host window and
// returns a fresh guest handle.
func (s *Shims) createWindowExA(ctx abi.Context) {
	c := ctx.CPU()
	dwExStyle := c.Pop()
	lpClassName := c.Pop()
	lpWindowName := c.Pop()
	dwStyle := c.Pop()
	x := c.Pop()
	y := c.Pop()
	w := c.Pop()
	h := c.Pop()
	_ = c.Pop() // hWndParent
	_ = c.Pop() // hMenu
	_ = c.Pop() // hInstance
	_ = c.Pop() // lpParam
	_ = dwExStyle
	_ = lpClassName
	_ = lpWindowName
	_ = dwStyle
	_ = x
	_ = y

	hostWin := ctx.Host().CreateWindow()
	if w != 0 && h != 0 {
		hostWin.SetSize(w, h)
	}

	handle := s.nextID
	s.nextID++
	s.windows[handle] = &Window{Host: hostWin}

	ctx.Log().Trace(c.EIP(), "user32", "CreateWindowExA", "handle="+hex(handle))
	c.SetEAX(handle)
}

// UpdateWindow(hWnd) — logs and returns success (non-zero).
func (s *Shims) updateWindow(ctx abi.Context) {
	hWnd := ctx.CPU().Pop()
	ctx.Log().Trace(ctx.CPU().EIP(), "user32", "UpdateWindow", "hWnd="+hex(hWnd))
	ctx.CPU().SetEAX(1)
}

func hex(v uint32) string {
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
