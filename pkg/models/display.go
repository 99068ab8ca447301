package models

import "sort"

// SortRoots returns a copy of roots with containers holding more members
// first. The sort is stable so equal counts keep source order.
func SortRoots(roots []*Element) []*Element {
	out := append([]*Element(nil), roots...)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Children) > len(out[j].Children)
	})
	return out
}

// SortMembers returns a copy of members ordered methods, properties,
// closures, then the rest, keeping source order within a group.
func SortMembers(members []*Element) []*Element {
	out := append([]*Element(nil), members...)
	sort.SliceStable(out, func(i, j int) bool {
		return kindPriority(out[i].Kind) < kindPriority(out[j].Kind)
	})
	return out
}
