// Package gdi32 owns the DC (device context) handle table (spec §3, §4.8
// GetDC/ReleaseDC). It is not reached through the import resolver —
// IDirectDrawSurface7.GetDC calls directly into it — but SPEC_FULL.md §5.8
// names it as the original's home for this record, restored from
// original_source/win32/src/winapi/ddraw/ddraw7.rs's
// `gdi32::DC::new()`/`dcs.add(dc)`.
package gdi32

// DC is a device-context record; it carries at least the guest surface
// address it was obtained from (spec §3).
type DC struct {
	DDrawSurface uint32
}

// Shims owns the DC handle table.
type Shims struct {
	dcs    map[uint32]*DC
	nextID uint32
}

// New returns an empty gdi32 shim set. Handles start at 1 so 0 stays
// reserved as "no handle".
func New() *Shims {
	return &Shims{dcs: make(map[uint32]*DC), nextID: 1}
}

// CreateDC materializes a DC for ddrawSurface and returns its handle.
func (s *Shims) CreateDC(ddrawSurface uint32) uint32 {
	h := s.nextID
	s.nextID++
	s.dcs[h] = &DC{DDrawSurface: ddrawSurface}
	return h
}

// Lookup returns the DC for handle h, if any.
func (s *Shims) Lookup(h uint32) (*DC, bool) {
	dc, ok := s.dcs[h]
	return dc, ok
}

// Release removes a DC handle. Per spec §3/§9 this is a deliberate leak in
// the sense that the surface/backing resources are never reclaimed — here
// it just drops the handle-table entry, which is the DC-table's whole
// footprint.
func (s *Shims) Release(h uint32) {
	delete(s.dcs, h)
}
