// Package cpu declares the primitives the ABI shim dispatcher needs from
// the guest CPU interpreter: stdcall stack-pop/push and control transfer.
// The interpreter itself — real x86 decode and execution — is an external
// collaborator out of scope here (spec §1); this package also carries a
// minimal stack-machine reference implementation sufficient to drive the
// dispatcher and the async bridge in tests.
package cpu

import "github.com/tsawler/win32shim/internal/memory"

// CPU is the contract the ABI dispatcher and COM vtable dispatcher consume.
// It intentionally says nothing about instruction decoding.
type CPU interface {
	// Pop removes and returns the top 32-bit stack value.
	Pop() uint32
	// Push writes v as the new top of stack.
	Push(v uint32)
	// EAX/SetEAX access the return-value register.
	EAX() uint32
	SetEAX(v uint32)
	// EIP/SetEIP access the guest instruction pointer.
	EIP() uint32
	SetEIP(v uint32)
	// ESP/SetESP access the guest stack pointer.
	ESP() uint32
	SetESP(v uint32)
}

// Stack is a minimal reference CPU: a stack pointer and two registers over
// a Memory. It is not an x86 decoder — it exists so the ABI dispatch,
// vtable, and async bridge packages have something concrete to run their
// tests against, per the stand-in noted in SPEC_FULL.md §1.
type Stack struct {
	mem      *memory.Memory
	esp, eip uint32
	eax      uint32
}

// NewStack returns a Stack CPU with esp initialized to the top of the given
// stack region (stacks grow down, so esp starts at base+size).
func NewStack(mem *memory.Memory, stackBase, stackSize uint32) *Stack {
	return &Stack{mem: mem, esp: stackBase + stackSize}
}

func (s *Stack) Pop() uint32 {
	v := s.mem.U32(s.esp)
	s.esp += 4
	return v
}

func (s *Stack) Push(v uint32) {
	s.esp -= 4
	s.mem.SetU32(s.esp, v)
}

func (s *Stack) EAX() uint32     { return s.eax }
func (s *Stack) SetEAX(v uint32) { s.eax = v }
func (s *Stack) EIP() uint32     { return s.eip }
func (s *Stack) SetEIP(v uint32) { s.eip = v }
func (s *Stack) ESP() uint32     { return s.esp }
func (s *Stack) SetESP(v uint32) { s.esp = v }
