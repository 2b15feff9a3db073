// Package async implements the callback bridge (spec §4.5): the mechanism
// by which a shim invokes a guest function pointer (an enumeration
// callback) and resumes once it returns. Modeled as an explicit pending-
// call state machine rather than a host-thread coroutine, so that no
// mutable borrow of process state is held across suspension (spec §5, §9).
package async

import "github.com/tsawler/win32shim/internal/cpu"

// Scheduler is the piece of the (external) CPU interpreter the bridge
// needs: run the guest starting at pc until control reaches sentinel.
// Real scheduling belongs to the interpreter; this package only describes
// the contract and, for tests, a trivial scheduler can be substituted.
type Scheduler interface {
	RunUntil(c cpu.CPU, pc, sentinel uint32) error
}

// pendingCall records the one bridge call that may be in flight. The
// single-threaded, cooperative model (spec §5) guarantees at most one is
// ever pending.
type pendingCall struct {
	sentinel uint32
}

// Bridge drives guest callback invocations on behalf of shims.
type Bridge struct {
	sched   Scheduler
	pending *pendingCall
	next    uint32
}

// New returns a Bridge that uses sched to run guest code. sentinelBase is
// the first sentinel return address handed out; successive calls advance
// by 4 so sequential bridge calls never share a sentinel.
func New(sched Scheduler, sentinelBase uint32) *Bridge {
	return &Bridge{sched: sched, next: sentinelBase}
}

// CallGuest invokes callbackEIP as a stdcall function with args, pushed
// right-to-left per the ABI convention, and returns the guest's EAX once
// control reaches the sentinel return address (spec §4.5). It panics if
// a bridge call is already pending — re-entrant bridge calls are not part
// of this model (spec §5).
func (b *Bridge) CallGuest(c cpu.CPU, callbackEIP uint32, args ...uint32) uint32 {
	if b.pending != nil {
		panic("async: CallGuest re-entered while a bridge call is pending")
	}
	sentinel := b.next
	b.next += 4

	savedEIP := c.EIP()
	savedESP := c.ESP()

	for i := len(args) - 1; i >= 0; i-- {
		c.Push(args[i])
	}
	c.Push(sentinel)
	c.SetEIP(callbackEIP)

	b.pending = &pendingCall{sentinel: sentinel}
	defer func() { b.pending = nil }()

	if err := b.sched.RunUntil(c, callbackEIP, sentinel); err != nil {
		panic(err)
	}

	result := c.EAX()
	c.SetEIP(savedEIP)
	c.SetESP(savedESP)
	return result
}
