package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ElementKind classifies a declared program element.
type ElementKind string

const (
	KindType      ElementKind = "type"
	KindMethod    ElementKind = "method"
	KindProperty  ElementKind = "property"
	KindClosure   ElementKind = "closure"
	KindExtension ElementKind = "extension"
)

// IsContainer reports whether elements of this kind own members.
func (k ElementKind) IsContainer() bool {
	return k == KindType || k == KindExtension
}

// IsUsageTarget reports whether call sites are matched against this kind.
func (k ElementKind) IsUsageTarget() bool {
	switch k {
	case KindMethod, KindProperty, KindClosure:
		return true
	default:
		return false
	}
}

// ClosureName is the synthetic name given to every closure literal.
const ClosureName = "Closure"

// ElementID identifies an element within one scan. It is the element's index
// in the scan's arena and is not carried across scans.
type ElementID uint32

// Location points at a source position.
type Location struct {
	Path    string `json:"path" toon:"path" yaml:"path"`
	Line    int    `json:"line" toon:"line" yaml:"line"`
	EndLine int    `json:"end_line,omitempty" toon:"end_line" yaml:"end_line,omitempty"` // 0 when unknown
}

// String renders the location as path:line.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.Path, l.Line)
}

// Label renders the location for humans, e.g. "Model.swift Line 3 - 9".
func (l Location) Label() string {
	base := filepath.Base(l.Path)
	if l.EndLine > 0 {
		return fmt.Sprintf("%s Line %d - %d", base, l.Line, l.EndLine)
	}
	return fmt.Sprintf("%s Line %d", base, l.Line)
}

// Element is one declared program element. Children are owned exclusively by
// their parent; the forest is a tree by construction.
type Element struct {
	ID         ElementID   `json:"id" toon:"id" yaml:"id"`
	Kind       ElementKind `json:"kind" toon:"kind" yaml:"kind"`
	Name       string      `json:"name" toon:"name" yaml:"name"`
	Parameters []string    `json:"parameters,omitempty" toon:"parameters" yaml:"parameters,omitempty"` // nil unless method or closure
	Signature  string      `json:"signature,omitempty" toon:"signature" yaml:"signature,omitempty"`
	Location   Location    `json:"location" toon:"location" yaml:"location"`
	Children   []*Element  `json:"children,omitempty" toon:"children" yaml:"children,omitempty"`
}

// Arity returns the number of declared parameters; absent counts as zero.
func (e *Element) Arity() int {
	return len(e.Parameters)
}

// Description renders the element as name(p1, p2).
func (e *Element) Description() string {
	return e.Name + "(" + strings.Join(e.Parameters, ", ") + ")"
}

// AddChild appends child to e's members.
func (e *Element) AddChild(child *Element) {
	e.Children = append(e.Children, child)
}

// WalkFunc is called for every element in a forest with its parent, which is
// nil for top-level elements. Returning false skips the element's children.
type WalkFunc func(el, parent *Element) bool

// Walk visits a forest in pre-order.
func Walk(roots []*Element, fn WalkFunc) {
	for _, root := range roots {
		walk(root, nil, fn)
	}
}

func walk(el, parent *Element, fn WalkFunc) {
	if !fn(el, parent) {
		return
	}
	for _, child := range el.Children {
		walk(child, el, fn)
	}
}

// Count returns the number of elements in a forest.
func Count(roots []*Element) int {
	n := 0
	Walk(roots, func(*Element, *Element) bool {
		n++
		return true
	})
	return n
}

// Renumber assigns sequential IDs in pre-order starting at start and returns
// the arena, indexed by ID - start.
func Renumber(roots []*Element, start ElementID) []*Element {
	arena := make([]*Element, 0, Count(roots))
	next := start
	Walk(roots, func(el, _ *Element) bool {
		el.ID = next
		next++
		arena = append(arena, el)
		return true
	})
	return arena
}

// kindPriority orders members for display: methods, properties, closures,
// then everything else.
func kindPriority(k ElementKind) int {
	switch k {
	case KindMethod:
		return 0
	case KindProperty:
		return 1
	case KindClosure:
		return 2
	default:
		return 3
	}
}
