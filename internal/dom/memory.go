package dom

import (
	"slices"
	"sync"
)

// Input is an in-memory Element. Listeners run synchronously on the goroutine
// that dispatches the event, like a browser event loop would run them.
type Input struct {
	mu        sync.Mutex
	value     string
	attrs     map[string]string
	classes   *classList
	listeners map[string][]func()
}

// NewInput creates an input carrying the given attributes (pattern, min, max...).
func NewInput(attrs map[string]string) *Input {
	in := &Input{
		attrs:     make(map[string]string, len(attrs)),
		classes:   &classList{},
		listeners: make(map[string][]func()),
	}
	for k, v := range attrs {
		in.attrs[k] = v
	}
	return in
}

func (in *Input) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.value
}

func (in *Input) SetValue(value string) {
	in.mu.Lock()
	in.value = value
	in.mu.Unlock()
}

func (in *Input) ClassList() ClassList {
	return in.classes
}

func (in *Input) Attribute(name string) (string, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	v, ok := in.attrs[name]
	return v, ok
}

// SetAttribute sets or replaces an attribute.
func (in *Input) SetAttribute(name, value string) {
	in.mu.Lock()
	in.attrs[name] = value
	in.mu.Unlock()
}

func (in *Input) AddEventListener(event string, fn func()) {
	in.mu.Lock()
	in.listeners[event] = append(in.listeners[event], fn)
	in.mu.Unlock()
}

// Dispatch runs every listener registered for event, in registration order.
func (in *Input) Dispatch(event string) {
	in.mu.Lock()
	fns := slices.Clone(in.listeners[event])
	in.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Type sets the value and fires an input event, as a keystroke would.
func (in *Input) Type(value string) {
	in.SetValue(value)
	in.Dispatch(EventInput)
}

// Classes returns a sorted snapshot of the class list.
func (in *Input) Classes() []string {
	return in.classes.snapshot()
}

// HasClass reports whether the class list contains name.
func (in *Input) HasClass(name string) bool {
	return in.classes.Contains(name)
}

type classList struct {
	mu    sync.Mutex
	names []string
}

func (cl *classList) Add(names ...string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for _, n := range names {
		if n != "" && !slices.Contains(cl.names, n) {
			cl.names = append(cl.names, n)
		}
	}
}

func (cl *classList) Remove(names ...string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.names = slices.DeleteFunc(cl.names, func(n string) bool {
		return slices.Contains(names, n)
	})
}

func (cl *classList) Contains(name string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return slices.Contains(cl.names, name)
}

func (cl *classList) snapshot() []string {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	out := slices.Clone(cl.names)
	slices.Sort(out)
	return out
}

// MemoryDocument is an in-memory Document.
type MemoryDocument struct {
	mu        sync.Mutex
	state     ReadyState
	listeners map[string][]func()
}

// NewDocument creates a document in the given ready state.
func NewDocument(state ReadyState) *MemoryDocument {
	return &MemoryDocument{state: state, listeners: make(map[string][]func())}
}

func (d *MemoryDocument) ReadyState() ReadyState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *MemoryDocument) AddEventListener(event string, fn func()) {
	d.mu.Lock()
	d.listeners[event] = append(d.listeners[event], fn)
	d.mu.Unlock()
}

// Load moves a loading document to interactive and fires DOMContentLoaded.
// Calling it on a document that already finished loading does nothing.
func (d *MemoryDocument) Load() {
	d.mu.Lock()
	if d.state != StateLoading {
		d.mu.Unlock()
		return
	}
	d.state = StateInteractive
	fns := slices.Clone(d.listeners[EventDOMContentLoaded])
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
