package async

import (
	"testing"

	"github.com/tsawler/win32shim/internal/cpu"
	"github.com/tsawler/win32shim/internal/memory"
)

// fakeScheduler simulates the external interpreter for one callback: it
// pops the sentinel return address, reads the two args the test's callback
// expects, records them, and "returns" by jumping straight to the sentinel.
type fakeScheduler struct {
	sawArg0, sawArg1 uint32
	eax              uint32
}

func (f *fakeScheduler) RunUntil(c cpu.CPU, pc, sentinel uint32) error {
	_ = c.Pop() // sentinel return address
	f.sawArg0 = c.Pop()
	f.sawArg1 = c.Pop()
	c.SetEAX(f.eax)
	c.SetEIP(sentinel)
	return nil
}

func TestCallGuestRoundTrip(t *testing.T) {
	mem := memory.New(0x10000)
	stk := cpu.NewStack(mem, 0x1000, 0x1000)
	sched := &fakeScheduler{eax: 42}
	b := New(sched, 0xDEAD0000)

	got := b.CallGuest(stk, 0x2000, 0x1111, 0x2222)
	if got != 42 {
		t.Fatalf("CallGuest returned %d, want 42", got)
	}
	if sched.sawArg0 != 0x1111 || sched.sawArg1 != 0x2222 {
		t.Fatalf("callback saw args (0x%x, 0x%x), want (0x1111, 0x2222)", sched.sawArg0, sched.sawArg1)
	}
}

func TestCallGuestRestoresStack(t *testing.T) {
	mem := memory.New(0x10000)
	stk := cpu.NewStack(mem, 0x1000, 0x1000)
	espBefore := stk.ESP()
	sched := &fakeScheduler{}
	b := New(sched, 0xDEAD0000)
	b.CallGuest(stk, 0x2000, 1, 2)
	if stk.ESP() != espBefore {
		t.Fatalf("ESP after CallGuest = 0x%x, want 0x%x", stk.ESP(), espBefore)
	}
}
