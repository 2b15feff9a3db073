// Package console provides a JavaScript scripting surface over a
// process.Process, via goja: scenario authors can script ad-hoc sequences
// of DLL calls and memory pokes without recompiling, scratch-exploring a
// guest image the way a debugger's command line would (SPEC_FULL.md §2).
package console

import (
	"fmt"

	"github.com/dop251/goja"
)

// Caller is the subset of process.Process the console drives: invoking a
// named DLL export, peeking/poking guest memory, and pushing stdcall
// arguments for scripted setup.
type Caller interface {
	Call(dll, symbol string) bool
	PeekU32(addr uint32) uint32
	PokeU32(addr, v uint32)
	Push(v uint32)
}

// Console wraps a goja runtime with a "win32" global bound to p.
type Console struct {
	vm *goja.Runtime
	p  Caller
}

// New returns a console bound to p, ready to Run scripts.
func New(p Caller) *Console {
	c := &Console{vm: goja.New(), p: p}
	obj := c.vm.NewObject()
	obj.Set("call", c.jsCall)
	obj.Set("peek", c.jsPeek)
	obj.Set("poke", c.jsPoke)
	obj.Set("push", c.jsPush)
	c.vm.Set("win32", obj)
	return c
}

// Run evaluates script and returns its final value formatted as a string.
func (c *Console) Run(script string) (string, error) {
	v, err := c.vm.RunString(script)
	if err != nil {
		return "", fmt.Errorf("console: %w", err)
	}
	if v == nil || goja.IsUndefined(v) {
		return "", nil
	}
	return v.String(), nil
}

func (c *Console) jsCall(dll, symbol string) bool {
	return c.p.Call(dll, symbol)
}

func (c *Console) jsPeek(addr int64) int64 {
	return int64(c.p.PeekU32(uint32(addr)))
}

func (c *Console) jsPoke(addr, v int64) {
	c.p.PokeU32(uint32(addr), uint32(v))
}

// jsPush pushes one stdcall argument onto the guest stack; scripts push
// arguments in reverse (last argument first) before win32.call, the same
// order config.Call.Args is consumed in.
func (c *Console) jsPush(v int64) {
	c.p.Push(uint32(v))
}
