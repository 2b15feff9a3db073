package memory

import "testing"

func TestU32RoundTrip(t *testing.T) {
	m := New(0x1000)
	m.SetU32(0x10, 0xdeadbeef)
	if got := m.U32(0x10); got != 0xdeadbeef {
		t.Fatalf("U32 = 0x%x, want 0xdeadbeef", got)
	}
}

func TestCString(t *testing.T) {
	m := New(0x1000)
	n := m.WriteCString(0x20, "hello")
	if n != 6 {
		t.Fatalf("WriteCString returned %d, want 6", n)
	}
	if got := m.ReadCString(0x20); got != "hello" {
		t.Fatalf("ReadCString = %q, want %q", got, "hello")
	}
}

func TestOutOfBoundsPanics(t *testing.T) {
	m := New(0x10)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-bounds access")
		}
	}()
	m.U32(0x20)
}
