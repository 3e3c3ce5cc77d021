package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputTypeDispatchesInOrder(t *testing.T) {
	in := NewInput(map[string]string{"pattern": "^[0-9]+$"})
	var seen []string
	in.AddEventListener(EventInput, func() { seen = append(seen, "first:"+in.Value()) })
	in.AddEventListener(EventInput, func() { seen = append(seen, "second") })
	in.AddEventListener(EventChange, func() { seen = append(seen, "change") })

	in.Type("12")

	assert.Equal(t, []string{"first:12", "second"}, seen)
	pattern, ok := in.Attribute("pattern")
	assert.True(t, ok)
	assert.Equal(t, "^[0-9]+$", pattern)
	_, ok = in.Attribute("min")
	assert.False(t, ok)
}

func TestClassListIsASet(t *testing.T) {
	in := NewInput(nil)
	in.ClassList().Add("b", "a", "a", "")
	assert.Equal(t, []string{"a", "b"}, in.Classes())

	in.ClassList().Remove("a", "missing")
	assert.Equal(t, []string{"b"}, in.Classes())
	assert.True(t, in.HasClass("b"))
}

func TestDocumentLoadFiresOnce(t *testing.T) {
	doc := NewDocument(StateLoading)
	calls := 0
	doc.AddEventListener(EventDOMContentLoaded, func() { calls++ })

	assert.False(t, IsReady(doc))
	doc.Load()
	doc.Load()

	assert.Equal(t, 1, calls)
	assert.True(t, IsReady(doc))
	assert.True(t, IsReady(nil))
}
