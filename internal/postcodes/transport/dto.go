// Package transport provides DTOs for the postcode lookup domain.
package transport

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
)

// Address field names every lookup result carries.
const (
	FieldPostcode   = "postcode"
	FieldHomeNumber = "home_number"
)

// Address is a resolved address: field name to string or number. Numbers keep
// their JSON text as json.Number. Extra keys come straight from the service.
type Address map[string]any

// Value returns the raw value of a field.
func (a Address) Value(key string) (any, bool) {
	v, ok := a[key]
	return v, ok
}

// Postcode returns the postcode field as text.
func (a Address) Postcode() string { return a.Text(FieldPostcode) }

// HomeNumber returns the home number field as text.
func (a Address) HomeNumber() string { return a.Text(FieldHomeNumber) }

// IsZero reports whether a field counts as absent for populating an input:
// missing, null, "", "0" or a numeric zero.
func (a Address) IsZero(key string) bool {
	switch v := a[key].(type) {
	case nil:
		return true
	case string:
		return v == "" || v == "0"
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 0
	case float64:
		return v == 0
	case int:
		return v == 0
	default:
		return false
	}
}

// Text renders a field the way it should appear in an input value.
// Numbers use their shortest decimal form, so 5.0 becomes "5".
func (a Address) Text(key string) string {
	switch v := a[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		f, err := v.Float64()
		if err != nil || math.IsInf(f, 0) || math.Abs(f) >= 1e21 {
			return v.String()
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(raw)
	}
}

// LookupRequest describes one outbound lookup: a target URL (absolute, or
// relative to the page origin) plus optional method, headers and body.
type LookupRequest struct {
	URL    string
	Method string
	Header http.Header
	Body   []byte
}

// RequestBuilder turns a (postcode, home number) pair into a LookupRequest.
type RequestBuilder func(postcode, homeNumber string) LookupRequest

// LookupQuery is the gateway's query string.
type LookupQuery struct {
	Postcode   string `form:"postcode" validate:"required,max=16"`
	HomeNumber string `form:"home_number" validate:"required,max=16"`
}

// Response is a fully read transport response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError is returned for a non-success status; it keeps the response.
type StatusError struct {
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lookup service responded with status %d", e.Response.StatusCode)
}

// Default class names toggled on bound inputs.
const (
	DefaultEmptyClass   = "is-empty"
	DefaultInvalidClass = "is-invalid"
	DefaultPatternClass = "is-invalid-pattern"
	DefaultMinClass     = "is-invalid-min"
	DefaultMaxClass     = "is-invalid-max"

	// MarkerClass is added to every input a binding listens on.
	MarkerClass = "postcodes-input"
)

// ClassSet names the CSS classes for each validation outcome.
// Empty fields fall back to the defaults.
type ClassSet struct {
	Empty   string `yaml:"empty" json:"empty,omitempty"`
	Invalid string `yaml:"invalid" json:"invalid,omitempty"`
	Pattern string `yaml:"pattern" json:"pattern,omitempty"`
	Min     string `yaml:"min" json:"min,omitempty"`
	Max     string `yaml:"max" json:"max,omitempty"`
}

// DefaultClasses returns the default class names.
func DefaultClasses() ClassSet {
	return ClassSet{
		Empty:   DefaultEmptyClass,
		Invalid: DefaultInvalidClass,
		Pattern: DefaultPatternClass,
		Min:     DefaultMinClass,
		Max:     DefaultMaxClass,
	}
}

// WithDefaults fills empty names from DefaultClasses.
func (c ClassSet) WithDefaults() ClassSet {
	d := DefaultClasses()
	if c.Empty == "" {
		c.Empty = d.Empty
	}
	if c.Invalid == "" {
		c.Invalid = d.Invalid
	}
	if c.Pattern == "" {
		c.Pattern = d.Pattern
	}
	if c.Min == "" {
		c.Min = d.Min
	}
	if c.Max == "" {
		c.Max = d.Max
	}
	return c
}

// All lists every state class, for bulk removal.
func (c ClassSet) All() []string {
	c = c.WithDefaults()
	return []string{c.Empty, c.Invalid, c.Pattern, c.Min, c.Max}
}
