// Package trace collects shim call events into a tagged, queryable list
// for the CLI and the inspect TUI. Adapted from the teacher's trace event
// model (category/tag/annotation shape), re-tagged for the Win32 DLL
// surfaces this emulator implements.
package trace

import (
	"github.com/google/uuid"

	"github.com/tsawler/win32shim/internal/log"
)

// Tag represents a trace event category. Tags are stored without a '#'
// prefix; the prefix is added on rendering.
type Tag string

// Standard tags for trace events, one per DLL/subsystem this emulator
// implements (spec §4).
const (
	Kernel32  Tag = "kernel32"
	User32    Tag = "user32"
	GDI32     Tag = "gdi32"
	DDraw     Tag = "ddraw"
	Heap      Tag = "heap"
	AddrSpace Tag = "addrspace"
	COM       Tag = "com"
	Unsup     Tag = "unsupported"
)

// Tags is a collection of tags with helper methods.
type Tags []Tag

// Has returns true if the tag collection contains the given tag.
func (t Tags) Has(tag Tag) bool {
	for _, x := range t {
		if x == tag {
			return true
		}
	}
	return false
}

// Add adds a tag if not already present.
func (t *Tags) Add(tag Tag) {
	if !t.Has(tag) {
		*t = append(*t, tag)
	}
}

// Strings returns tags as strings with '#' prefix for display.
func (t Tags) Strings() []string {
	out := make([]string, len(t))
	for i, tag := range t {
		out[i] = "#" + string(tag)
	}
	return out
}

// Primary returns the first tag or empty string if none.
func (t Tags) Primary() Tag {
	if len(t) > 0 {
		return t[0]
	}
	return ""
}

// Annotations holds key-value metadata for trace events.
type Annotations map[string]string

// Set adds or updates an annotation.
func (a Annotations) Set(k, v string) { a[k] = v }

// Get retrieves an annotation value.
func (a Annotations) Get(k string) string { return a[k] }

// Event represents one shim call; PC is the guest EIP the shim reported
// when it traced the call.
type Event struct {
	PC       uint32
	Tags     Tags
	Name     string
	Detail   string
	Annotations Annotations
	Seq      int // monotonic sequence within a session, for ordered display
}

// NewEvent creates a new trace event for a shim call at pc.
func NewEvent(pc uint32, category, name, detail string) *Event {
	return &Event{
		PC:          pc,
		Tags:        Tags{Tag(category)},
		Name:        name,
		Detail:      detail,
		Annotations: make(Annotations),
	}
}

// AddTag adds a tag to the event.
func (e *Event) AddTag(tag Tag) { e.Tags.Add(tag) }

// Annotate sets an annotation on the event.
func (e *Event) Annotate(k, v string) {
	if e.Annotations == nil {
		e.Annotations = make(Annotations)
	}
	e.Annotations.Set(k, v)
}

// PrimaryTag returns the primary (first) tag with '#' prefix.
func (e *Event) PrimaryTag() string {
	if len(e.Tags) > 0 {
		return "#" + string(e.Tags[0])
	}
	return ""
}

// Enricher enriches trace events based on category and name.
type Enricher func(e *Event)

// DefaultEnricher adds secondary tags for the DDraw/COM call surface: an
// event whose primary tag is #ddraw is also tagged #com. It adds no other
// tags; Logger.Unsupported does not go through the trace hook, so no event
// is tagged #unsupported.
func DefaultEnricher(e *Event) {
	if len(e.Tags) == 0 {
		return
	}
	switch e.Tags[0] {
	case DDraw:
		e.AddTag(COM)
	}
}

// Session is a tagged, ordered recording of shim calls for one emulator
// run, identified by a UUID that the inspect TUI shows in its title
// (SPEC_FULL.md §2).
type Session struct {
	ID     string
	Events []*Event
	next   int
}

// NewSession returns an empty session with a fresh random ID.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// Record appends ev to the session, enriching it and stamping its sequence
// number, and returns it.
func (s *Session) Record(ev *Event, enrich Enricher) *Event {
	if enrich != nil {
		enrich(ev)
	}
	ev.Seq = s.next
	s.next++
	s.Events = append(s.Events, ev)
	return ev
}

// Hook wires the session to receive every call l.Trace reports, enriching
// each with DefaultEnricher as it's recorded.
func (s *Session) Hook(l *log.Logger) {
	l.SetOnTrace(func(pc uint32, category, name, detail string) {
		s.Record(NewEvent(pc, category, name, detail), DefaultEnricher)
	})
}

// Filter returns the events in the session carrying tag.
func (s *Session) Filter(tag Tag) []*Event {
	var out []*Event
	for _, ev := range s.Events {
		if ev.Tags.Has(tag) {
			out = append(out, ev)
		}
	}
	return out
}
