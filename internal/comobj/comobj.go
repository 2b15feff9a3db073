// Package comobj constructs guest-visible COM-style vtable objects (spec
// §4.4): a guest object is a 4-byte region holding a pointer to a vtable,
// itself an array of guest function-pointer slots, each a distinct thunk
// address the dispatcher recognizes as "method N of interface I on object
// X". Grounded in the teacher's internal/stubs/jni.go Install, which lays
// out a JNIEnv vtable of one-thunk-per-slot stub addresses and hooks each
// individually — the same shape, generalized from a fixed JNI table to an
// arbitrary per-interface slot list.
package comobj

import (
	"github.com/tsawler/win32shim/internal/abi"
)

// SlotKind marks whether a vtable slot is implemented or a stub.
type SlotKind int

const (
	// Ok marks a slot with a real implementation.
	Ok SlotKind = iota
	// Todo marks a slot that only logs and returns a benign default
	// (spec §4.4, §7.2).
	Todo
)

// Slot describes one vtable entry.
type Slot struct {
	Name string
	Kind SlotKind
	// Impl is the method body for an Ok slot. It receives `this` already
	// popped (comobj pops it before calling Impl — see abi.PopThis).
	// Unused for Todo slots.
	Impl func(ctx abi.Context, this uint32)
}

// Interface is the fixed, build-time list of vtable slots for one COM
// interface. Slot order is significant and must match the Win32 ABI.
type Interface struct {
	Name  string
	Slots []Slot
}

// VTable is one interned, guest-resident vtable: a contiguous array of
// 4-byte slot-thunk addresses starting at Addr.
type VTable struct {
	Iface    *Interface
	Addr     uint32 // guest address of the vtable array itself
	SlotAddr []uint32
}

// codeAlloc is the minimal allocator VTable construction needs: a reserved
// region of guest memory it can bump-allocate thunk addresses and the
// vtable array out of. Both the heap and a dedicated shim-code mapping
// satisfy it; process wires a dedicated mapping (spec §4.4: "a reserved
// code region of guest memory").
type codeAlloc interface {
	Alloc(n uint32) uint32
}

// Build interns one vtable for iface: one thunk address per slot,
// registered into reg so the dispatcher recognizes it, followed by the
// vtable array itself (one guest pointer per slot, in order).
func Build(reg *abi.Registry, alloc codeAlloc, mem interface{ SetU32(uint32, uint32) }, iface *Interface) *VTable {
	vt := &VTable{Iface: iface, SlotAddr: make([]uint32, len(iface.Slots))}

	for i, slot := range iface.Slots {
		thunkAddr := alloc.Alloc(4)
		vt.SlotAddr[i] = thunkAddr

		slot := slot // capture
		var fn abi.StubFunc
		if slot.Kind == Ok && slot.Impl != nil {
			fn = func(ctx abi.Context) {
				this := abi.PopThis(ctx)
				slot.Impl(ctx, this)
			}
		} else {
			fn = func(ctx abi.Context) {
				ctx.CPU().Pop() // this, discarded
				ctx.Log().Unsupported(iface.Name, slot.Name, "todo slot")
				ctx.CPU().SetEAX(0)
			}
		}
		reg.RegisterAddr(iface.Name, slot.Name, thunkAddr, fn)
	}

	vt.Addr = alloc.Alloc(uint32(len(iface.Slots)) * 4)
	for i, addr := range vt.SlotAddr {
		mem.SetU32(vt.Addr+uint32(i)*4, addr)
	}
	return vt
}

// New allocates a 4-byte COM object on h, writes vt's guest address into
// it, and returns the object's guest address — its identity (spec §4.4).
func New(h interface{ Alloc(uint32) uint32 }, mem interface{ SetU32(uint32, uint32) }, vt *VTable) uint32 {
	addr := h.Alloc(4)
	mem.SetU32(addr, vt.Addr)
	return addr
}
