package models

import "strings"

// CallSite is one expression in the source that invokes or reads a name.
// Call sites are immutable once built.
type CallSite struct {
	Name string `json:"name" toon:"name" yaml:"name"`
	// ClassHint is a best-effort guess at the receiver's declared type;
	// empty when unresolved.
	ClassHint string `json:"class_hint,omitempty" toon:"class_hint" yaml:"class_hint,omitempty"`
	// Parameters holds argument renderings. It is nil for member reads and
	// subscripts, which have no argument clause.
	Parameters []string `json:"parameters,omitempty" toon:"parameters" yaml:"parameters,omitempty"`
	Location   Location `json:"location" toon:"location" yaml:"location"`
}

// Arity returns the argument count; an absent list counts as zero.
func (c CallSite) Arity() int {
	return len(c.Parameters)
}

// HasHint reports whether the receiver type was resolved.
func (c CallSite) HasHint() bool {
	return c.ClassHint != ""
}

// Description renders the call as name(a1, a2).
func (c CallSite) Description() string {
	return c.Name + "(" + strings.Join(c.Parameters, ", ") + ")"
}

// Fragment is the output of indexing one file.
type Fragment struct {
	Path     string     `json:"path" toon:"path" yaml:"path"`
	Elements []*Element `json:"elements" toon:"elements" yaml:"elements"`
	Calls    []CallSite `json:"calls" toon:"calls" yaml:"calls"`
}
