// Package validation checks a single input against its declared pattern, min
// or max attribute and toggles the matching state class.
//
// Patterns use Go's RE2 syntax. Sources RE2 rejects, such as lookarounds or
// backreferences, are ignored and the field validates; each is logged once
// through the logger set with SetLogger.
package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"postcode_lookup/internal/dom"
	"postcode_lookup/internal/postcodes/transport"
	"postcode_lookup/platform/logger"
)

// Attribute names inspected on an element, in priority order.
const (
	AttrPattern = "pattern"
	AttrMin     = "min"
	AttrMax     = "max"
)

// patterns memoizes compiled patterns for the life of the process, keyed by
// the raw attribute source. A nil entry marks a source that does not compile.
var patterns sync.Map

var log atomic.Pointer[logger.Logger]

// SetLogger sets where ignored patterns are reported. Nothing is logged
// until it is called.
func SetLogger(l *logger.Logger) {
	log.Store(l)
}

// Validate checks el against the first constraint it declares: pattern, else
// min, else max. An empty value means "use the element's value". On failure the
// constraint's class is added and false returned; on success it is removed.
// An element without constraints is always valid.
func Validate(el dom.Element, value string, classes transport.ClassSet) bool {
	classes = classes.WithDefaults()
	if value == "" {
		value = el.Value()
	}

	if src, ok := el.Attribute(AttrPattern); ok {
		return toggle(el, classes.Pattern, matchPattern(src, value))
	}
	if bound, ok := el.Attribute(AttrMin); ok {
		return toggle(el, classes.Min, bound == "" || parseFloat(value) >= parseFloat(bound))
	}
	if bound, ok := el.Attribute(AttrMax); ok {
		return toggle(el, classes.Max, bound == "" || parseFloat(value) <= parseFloat(bound))
	}
	return true
}

func toggle(el dom.Element, class string, valid bool) bool {
	if valid {
		el.ClassList().Remove(class)
	} else {
		el.ClassList().Add(class)
	}
	return valid
}

// matchPattern runs a case-insensitive, unanchored search. Patterns that do
// not compile are ignored, as browsers ignore an invalid pattern attribute.
func matchPattern(src, value string) bool {
	re := compile(src)
	if re == nil {
		return true
	}
	return re.MatchString(value)
}

func compile(src string) *regexp.Regexp {
	if cached, ok := patterns.Load(src); ok {
		return cached.(*regexp.Regexp)
	}
	re, err := regexp.Compile("(?i)" + src)
	if err != nil {
		re = nil
	}
	actual, loaded := patterns.LoadOrStore(src, re)
	if err != nil && !loaded {
		if l := log.Load(); l != nil {
			l.Warn("ignoring pattern attribute", "pattern", src, "error", err.Error())
		}
	}
	return actual.(*regexp.Regexp)
}

var leadingFloat = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// parseFloat reads the longest numeric prefix of s after leading whitespace,
// returning NaN when there is none. Any comparison with NaN is false, so a
// non-numeric value fails both min and max.
func parseFloat(s string) float64 {
	prefix := leadingFloat.FindString(strings.TrimLeft(s, " \t\n\r\f\v"))
	if prefix == "" {
		return math.NaN()
	}
	switch strings.TrimLeft(prefix, "+-") {
	case "Infinity":
		if strings.HasPrefix(prefix, "-") {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	// Out of range prefixes come back as ±Inf, which is what we want.
	f, _ := strconv.ParseFloat(prefix, 64)
	return f
}
