// Package host declares the host backend contract the core ABI shims call
// into (spec §6) — a pixel surface, stdout-style writer, and process exit —
// plus an in-memory reference implementation used by tests, the CLI
// scenario runner, and the scripting console. A production host (real
// windowing, real pixels) is an external collaborator, out of scope here.
package host

import "fmt"

// SurfaceOptions describes a surface creation request.
type SurfaceOptions struct {
	Width, Height uint32
	Primary       bool
}

// RGBA is a single 32-bit pixel in host pixel order.
type RGBA struct{ R, G, B, A uint8 }

// Surface is a host-side drawing surface backing a guest IDirectDrawSurface7.
type Surface interface {
	Flip()
	BitBlt(dx, dy uint32, src Surface, sx, sy, w, h uint32)
	GetAttached() Surface
	WritePixels(px []RGBA)
	Size() (w, h uint32)
}

// Window is a host-side window backing a guest user32 window handle.
type Window interface {
	SetSize(w, h uint32)
}

// Host is the full backend contract consumed by the core.
type Host interface {
	Exit(code uint32)
	Write(p []byte) uint32
	CreateSurface(opts SurfaceOptions) Surface
	CreateWindow() Window
}

// ExitRequest is panicked by RefHost.Exit (spec §4.6: ExitProcess does not
// return). Neither process nor the CLI recovers it.
type ExitRequest struct{ Code uint32 }

func (e ExitRequest) Error() string { return fmt.Sprintf("host: exit(%d)", e.Code) }

// RefHost is a minimal in-memory reference Host: writes accumulate in a
// buffer, surfaces keep a pixel buffer in Go memory, windows just remember
// their size. It is the "some host exists" stand-in named in SPEC_FULL.md
// §1, not a production backend.
type RefHost struct {
	Written []byte
	Surfs   []*RefSurface
	Windows []*RefWindow
}

// NewRefHost returns an empty reference host.
func NewRefHost() *RefHost { return &RefHost{} }

func (h *RefHost) Exit(code uint32) { panic(ExitRequest{Code: code}) }

func (h *RefHost) Write(p []byte) uint32 {
	h.Written = append(h.Written, p...)
	return uint32(len(p))
}

func (h *RefHost) CreateSurface(opts SurfaceOptions) Surface {
	s := &RefSurface{width: opts.Width, height: opts.Height}
	h.Surfs = append(h.Surfs, s)
	return s
}

func (h *RefHost) CreateWindow() Window {
	w := &RefWindow{}
	h.Windows = append(h.Windows, w)
	return w
}

// RefSurface is RefHost's Surface implementation.
type RefSurface struct {
	width, height uint32
	pixels        []RGBA
	attached      *RefSurface
	FlipCount     int
	LastBlit      *BlitRecord
}

// BlitRecord captures the parameters of the most recent BitBlt, for tests.
type BlitRecord struct {
	DX, DY, SX, SY, W, H uint32
	Src                  *RefSurface
}

func (s *RefSurface) Flip() { s.FlipCount++ }

func (s *RefSurface) BitBlt(dx, dy uint32, src Surface, sx, sy, w, h uint32) {
	rs, _ := src.(*RefSurface)
	s.LastBlit = &BlitRecord{DX: dx, DY: dy, SX: sx, SY: sy, W: w, H: h, Src: rs}
}

func (s *RefSurface) GetAttached() Surface {
	if s.attached == nil {
		s.attached = &RefSurface{width: s.width, height: s.height}
	}
	return s.attached
}

func (s *RefSurface) WritePixels(px []RGBA) {
	s.pixels = append([]RGBA(nil), px...)
}

func (s *RefSurface) Pixels() []RGBA { return s.pixels }

func (s *RefSurface) Size() (uint32, uint32) { return s.width, s.height }

// StdioHost wraps RefHost, additionally forwarding every Write to an
// io.Writer (os.Stdout in the CLI) so a scenario's WriteFile calls are
// actually visible when run from the command line.
type StdioHost struct {
	*RefHost
	out stdioWriter
}

type stdioWriter interface {
	Write(p []byte) (int, error)
}

// NewStdioHost returns a host that echoes writes to out in addition to
// recording them, as RefHost does.
func NewStdioHost(out stdioWriter) *StdioHost {
	return &StdioHost{RefHost: NewRefHost(), out: out}
}

func (h *StdioHost) Write(p []byte) uint32 {
	h.out.Write(p)
	return h.RefHost.Write(p)
}

// RefWindow is RefHost's Window implementation.
type RefWindow struct {
	W, H uint32
}

func (w *RefWindow) SetSize(width, height uint32) { w.W, w.H = width, height }
