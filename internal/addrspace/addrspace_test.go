package addrspace

import "testing"

func TestAllocIsPageAlignedAndDisjoint(t *testing.T) {
	as := New()
	a := as.Alloc(0x2000, "a")
	if a.Addr != NullPointerRegionSize {
		t.Fatalf("first alloc addr = 0x%x, want 0x%x", a.Addr, NullPointerRegionSize)
	}
	addrA := a.Addr
	b := as.Alloc(0x1000, "b")
	if b.Addr < addrA+0x2000 {
		t.Fatalf("second alloc overlaps first: b=0x%x a=0x%x+0x2000", b.Addr, addrA)
	}
	ms := as.Mappings()
	for i := 1; i < len(ms); i++ {
		if ms[i].Addr < ms[i-1].Addr+ms[i-1].Size {
			t.Fatalf("mappings not disjoint: %+v then %+v", ms[i-1], ms[i])
		}
	}
}

func TestAllocExactFitGapIsSkipped(t *testing.T) {
	// Reproduces the documented (preserved) off-by-one: a gap of exactly
	// `size` is not used because the comparison is strict (space > size).
	as := New()
	// Carve a mapping directly after the null guard, leaving a gap of
	// exactly 0x1000 before it.
	gapStart := NullPointerRegionSize + 0x1000
	as.AddMapping(Mapping{Addr: uint32(gapStart), Size: 0x1000, Desc: "fence"})

	m := as.Alloc(0x1000, "probe")
	if m.Addr == uint32(NullPointerRegionSize) {
		t.Fatalf("alloc used the exact-fit gap at 0x%x; expected it to be skipped", m.Addr)
	}
}

func TestAddMappingOverlapPanics(t *testing.T) {
	as := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on overlapping mapping")
		}
	}()
	as.AddMapping(Mapping{Addr: 0, Size: 0x10, Desc: "bad"})
}
