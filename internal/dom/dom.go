// Package dom models the slice of a browser document that form bindings need:
// input values, class lists, constraint attributes, event listeners and
// document readiness.
package dom

// Event names dispatched to listeners.
const (
	EventInput            = "input"
	EventChange           = "change"
	EventDOMContentLoaded = "DOMContentLoaded"
)

// ReadyState mirrors document.readyState.
type ReadyState string

const (
	StateLoading     ReadyState = "loading"
	StateInteractive ReadyState = "interactive"
	StateComplete    ReadyState = "complete"
)

// ClassList is a mutable set of CSS class names.
type ClassList interface {
	Add(names ...string)
	Remove(names ...string)
	Contains(name string) bool
}

// Element is a form input.
type Element interface {
	Value() string
	SetValue(value string)
	ClassList() ClassList
	// Attribute reports the attribute value and whether it is present at all.
	Attribute(name string) (string, bool)
	AddEventListener(event string, fn func())
}

// Document exposes readiness and document-level events.
type Document interface {
	ReadyState() ReadyState
	AddEventListener(event string, fn func())
}

// IsReady reports whether listeners can be installed right away.
// A nil document is treated as ready.
func IsReady(doc Document) bool {
	if doc == nil {
		return true
	}
	state := doc.ReadyState()
	return state == StateInteractive || state == StateComplete
}
