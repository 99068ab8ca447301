// Package usage correlates call sites with declarations by name and arity.
//
// The match is purely lexical: a call matches every method, property or
// closure with the same name and the same number of parameters, wherever it
// is declared. Strict mode narrows that with the receiver hint recorded by
// the visitor. Results are advisory; a declaration with no matching call is
// a dead-code candidate, not proof.
package usage

import (
	"sort"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/classcleaner/classcleaner/pkg/analyzer/project"
	"github.com/classcleaner/classcleaner/pkg/models"
)

// Options controls matching.
type Options struct {
	// Strict requires a call's receiver hint, when present, to equal the name
	// of the declaration's enclosing type or extension. Top-level
	// declarations are not filtered.
	Strict bool
}

// Usage is the correlation result for one declaration.
type Usage struct {
	Element *models.Element `json:"element" toon:"element" yaml:"element"`
	// Container is the enclosing type or extension name, empty at top level.
	Container string            `json:"container,omitempty" toon:"container" yaml:"container,omitempty"`
	Calls     []models.CallSite `json:"calls" toon:"calls" yaml:"calls"`
}

// Count returns the number of matching call sites.
func (u Usage) Count() int {
	return len(u.Calls)
}

// Report holds the usages of every usage target in one snapshot. It is
// derived data and can be recomputed at any time.
type Report struct {
	Version uint64
	Strict  bool
	Usages  []Usage

	index    map[models.ElementID]int
	used     *roaring.Bitmap
	resolved []int64 // per call: unique matching element, or -1
}

type matchKey struct {
	name  string
	arity int
}

// Correlate matches every call in snap against every usage target.
func Correlate(snap *project.Snapshot, opts Options) *Report {
	r := &Report{
		Version: snap.Version,
		Strict:  opts.Strict,
		index:   make(map[models.ElementID]int),
		used:    roaring.New(),
	}

	candidates := make(map[matchKey][]int)
	for _, el := range snap.Arena {
		if !el.Kind.IsUsageTarget() {
			continue
		}
		u := Usage{Element: el, Calls: []models.CallSite{}}
		if c := snap.Container(el.ID); c != nil {
			u.Container = c.Name
		}
		r.index[el.ID] = len(r.Usages)
		key := matchKey{el.Name, el.Arity()}
		candidates[key] = append(candidates[key], len(r.Usages))
		r.Usages = append(r.Usages, u)
	}

	r.resolved = make([]int64, len(snap.Calls))
	for i, call := range snap.Calls {
		r.resolved[i] = -1
		var matched []int
		for _, ui := range candidates[matchKey{call.Name, call.Arity()}] {
			if opts.Strict && !r.Usages[ui].receiverMatches(call) {
				continue
			}
			matched = append(matched, ui)
		}
		for _, ui := range matched {
			u := &r.Usages[ui]
			u.Calls = append(u.Calls, call)
			r.used.Add(uint32(u.Element.ID))
		}
		if len(matched) == 1 {
			r.resolved[i] = int64(r.Usages[matched[0]].Element.ID)
		}
	}
	return r
}

// receiverMatches applies strict matching. Unhinted calls and top-level
// elements always match.
func (u Usage) receiverMatches(call models.CallSite) bool {
	return !call.HasHint() || u.Container == "" || call.ClassHint == u.Container
}

// Usage returns the usage of the element with the given ID. ok is false for
// elements that are not usage targets.
func (r *Report) Usage(id models.ElementID) (Usage, bool) {
	i, ok := r.index[id]
	if !ok {
		return Usage{}, false
	}
	return r.Usages[i], true
}

// Count returns the usage count of id, 0 for non-targets.
func (r *Report) Count(id models.ElementID) int {
	u, _ := r.Usage(id)
	return u.Count()
}

// IsUsed reports whether any call matched id.
func (r *Report) IsUsed(id models.ElementID) bool {
	return r.used.Contains(uint32(id))
}

// UsedCount returns the number of targets with at least one usage.
func (r *Report) UsedCount() int {
	return int(r.used.GetCardinality())
}

// Unused returns the targets with no matching call, in arena order.
func (r *Report) Unused() []Usage {
	out := []Usage{}
	for _, u := range r.Usages {
		if !r.used.Contains(uint32(u.Element.ID)) {
			out = append(out, u)
		}
	}
	return out
}

// Resolved returns the single element the i-th call of the snapshot was
// matched to. ok is false when the call matched nothing or was ambiguous.
func (r *Report) Resolved(call int) (models.ElementID, bool) {
	if call < 0 || call >= len(r.resolved) || r.resolved[call] < 0 {
		return 0, false
	}
	return models.ElementID(r.resolved[call]), true
}

// Ranked returns the usages ordered by count, highest first, ties in arena
// order.
func (r *Report) Ranked() []Usage {
	out := append([]Usage(nil), r.Usages...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count() > out[j].Count() })
	return out
}

// Key identifies a usage target by name and arity, as in greet/1.
func Key(el *models.Element) string {
	return el.Name + "/" + strconv.Itoa(el.Arity())
}
