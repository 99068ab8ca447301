package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleForest() []*Element {
	typ := &Element{Kind: KindType, Name: "A", Location: Location{Path: "/src/A.swift", Line: 1, EndLine: 9}}
	typ.AddChild(&Element{Kind: KindProperty, Name: "count", Location: Location{Path: "/src/A.swift", Line: 2}})
	typ.AddChild(&Element{Kind: KindMethod, Name: "greet", Parameters: []string{"name"}, Location: Location{Path: "/src/A.swift", Line: 3}})
	typ.AddChild(&Element{Kind: KindClosure, Name: ClosureName, Parameters: []string{}, Location: Location{Path: "/src/A.swift", Line: 5}})
	top := &Element{Kind: KindMethod, Name: "main", Parameters: []string{}, Location: Location{Path: "/src/main.swift", Line: 1}}
	return []*Element{top, typ}
}

func TestElementKind(t *testing.T) {
	tests := []struct {
		kind      ElementKind
		container bool
		target    bool
	}{
		{KindType, true, false},
		{KindExtension, true, false},
		{KindMethod, false, true},
		{KindProperty, false, true},
		{KindClosure, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.container, tt.kind.IsContainer())
			assert.Equal(t, tt.target, tt.kind.IsUsageTarget())
		})
	}
}

func TestLocationLabel(t *testing.T) {
	assert.Equal(t, "A.swift Line 3 - 9", Location{Path: "/x/A.swift", Line: 3, EndLine: 9}.Label())
	assert.Equal(t, "A.swift Line 3", Location{Path: "/x/A.swift", Line: 3}.Label())
	assert.Equal(t, "/x/A.swift:3", Location{Path: "/x/A.swift", Line: 3}.String())
}

func TestDescriptions(t *testing.T) {
	el := &Element{Name: "move", Parameters: []string{"x", "y"}}
	assert.Equal(t, "move(x, y)", el.Description())
	assert.Equal(t, 2, el.Arity())

	prop := &Element{Name: "count"}
	assert.Equal(t, "count()", prop.Description())
	assert.Equal(t, 0, prop.Arity())

	call := CallSite{Name: "move", Parameters: []string{"1", "dy"}}
	assert.Equal(t, "move(1, dy)", call.Description())
	assert.Equal(t, 2, call.Arity())
	assert.False(t, call.HasHint())
	assert.Equal(t, 0, CallSite{Name: "a.b"}.Arity())
}

func TestWalkVisitsPreOrderWithParents(t *testing.T) {
	forest := sampleForest()

	var names []string
	parents := map[string]string{}
	Walk(forest, func(el, parent *Element) bool {
		names = append(names, el.Name)
		if parent != nil {
			parents[el.Name] = parent.Name
		}
		return true
	})

	assert.Equal(t, []string{"main", "A", "count", "greet", ClosureName}, names)
	assert.Equal(t, "A", parents["greet"])
	_, hasParent := parents["main"]
	assert.False(t, hasParent)
}

func TestWalkSkipChildren(t *testing.T) {
	var n int
	Walk(sampleForest(), func(el, _ *Element) bool {
		n++
		return !el.Kind.IsContainer()
	})
	assert.Equal(t, 2, n)
}

func TestRenumber(t *testing.T) {
	forest := sampleForest()
	arena := Renumber(forest, 10)

	require.Len(t, arena, 5)
	assert.Equal(t, 5, Count(forest))
	for i, el := range arena {
		assert.Equal(t, ElementID(10+i), el.ID)
	}
	assert.Equal(t, "main", arena[0].Name)
	assert.Equal(t, "greet", arena[3].Name)
}

func TestSortRootsAndMembers(t *testing.T) {
	forest := sampleForest()

	roots := SortRoots(forest)
	assert.Equal(t, "A", roots[0].Name)
	assert.Equal(t, "main", forest[0].Name, "input is not reordered")

	members := SortMembers(roots[0].Children)
	var kinds []ElementKind
	for _, m := range members {
		kinds = append(kinds, m.Kind)
	}
	assert.Equal(t, []ElementKind{KindMethod, KindProperty, KindClosure}, kinds)
}
