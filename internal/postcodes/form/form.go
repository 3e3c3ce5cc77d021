// Package form builds in-memory forms from YAML definitions so a binding can
// be driven without a browser.
package form

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"postcode_lookup/internal/dom"
	"postcode_lookup/internal/postcodes"
	"postcode_lookup/internal/postcodes/transport"
	"postcode_lookup/internal/postcodes/validation"
)

// Field declares one input. Constraints are pointers because presence alone
// matters: `min: ""` declares a min constraint that always passes.
type Field struct {
	Name    string  `yaml:"name"`
	Pattern *string `yaml:"pattern"`
	Min     *string `yaml:"min"`
	Max     *string `yaml:"max"`
	Value   string  `yaml:"value"`
}

// Definition is a whole form.
type Definition struct {
	Classes transport.ClassSet `yaml:"classes"`
	Fields  []Field            `yaml:"fields"`
}

// Parse decodes a YAML definition. Unknown keys are rejected.
func Parse(r io.Reader) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode form definition: %w", err)
	}
	return &def, nil
}

// FieldState is a field's value and classes at one moment.
type FieldState struct {
	Name    string   `json:"name"`
	Value   string   `json:"value"`
	Classes []string `json:"classes"`
}

// Form is a built set of inputs, kept in definition order.
type Form struct {
	classes transport.ClassSet
	names   []string
	inputs  map[string]*dom.Input
}

// Build creates the inputs of def.
func Build(def *Definition) (*Form, error) {
	f := &Form{
		classes: def.Classes.WithDefaults(),
		inputs:  make(map[string]*dom.Input, len(def.Fields)),
	}
	for _, field := range def.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return nil, fmt.Errorf("form field without a name")
		}
		if _, dup := f.inputs[name]; dup {
			return nil, fmt.Errorf("duplicate form field %q", name)
		}

		attrs := map[string]string{}
		if field.Pattern != nil {
			attrs[validation.AttrPattern] = *field.Pattern
		}
		if field.Min != nil {
			attrs[validation.AttrMin] = *field.Min
		}
		if field.Max != nil {
			attrs[validation.AttrMax] = *field.Max
		}

		in := dom.NewInput(attrs)
		in.SetValue(field.Value)
		f.inputs[name] = in
		f.names = append(f.names, name)
	}
	return f, nil
}

// Classes returns the class set the form was defined with.
func (f *Form) Classes() transport.ClassSet {
	return f.classes
}

// Input returns a field's input.
func (f *Form) Input(name string) (*dom.Input, bool) {
	in, ok := f.inputs[name]
	return in, ok
}

// Spec returns every input as a bind spec.
func (f *Form) Spec() postcodes.BindSpec {
	spec := make(postcodes.BindSpec, len(f.inputs))
	for name, in := range f.inputs {
		spec[name] = in
	}
	return spec
}

// Apply handles one "field=value" line: the value is typed into the field,
// then the field fires change. Blank lines and # comments are skipped.
func (f *Form) Apply(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	name, value, ok := strings.Cut(line, "=")
	if !ok {
		return fmt.Errorf("expected field=value, got %q", line)
	}
	in, ok := f.inputs[strings.TrimSpace(name)]
	if !ok {
		return fmt.Errorf("unknown field %q", strings.TrimSpace(name))
	}
	in.Type(value)
	in.Dispatch(dom.EventChange)
	return nil
}

// Run applies every line of r, calling settle after each one.
func (f *Form) Run(r io.Reader, settle func()) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := f.Apply(scanner.Text()); err != nil {
			return err
		}
		if settle != nil {
			settle()
		}
	}
	return scanner.Err()
}

// Snapshot returns the state of every field.
func (f *Form) Snapshot() []FieldState {
	states := make([]FieldState, 0, len(f.names))
	for _, name := range f.names {
		in := f.inputs[name]
		states = append(states, FieldState{Name: name, Value: in.Value(), Classes: in.Classes()})
	}
	return states
}

// Print writes one line per field: name, quoted value, classes.
func (f *Form) Print(w io.Writer) error {
	for _, s := range f.Snapshot() {
		if _, err := fmt.Fprintf(w, "%-16s %-24q %s\n", s.Name, s.Value, strings.Join(s.Classes, " ")); err != nil {
			return err
		}
	}
	return nil
}
