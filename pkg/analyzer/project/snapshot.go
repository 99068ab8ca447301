package project

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/classcleaner/classcleaner/internal/fileproc"
	"github.com/classcleaner/classcleaner/pkg/models"
)

// Snapshot is the merged result of one scan. A published snapshot is never
// mutated; rescans build a new one.
type Snapshot struct {
	Version uint64
	// Roots are the top-level elements of every file, in file order.
	Roots []*models.Element
	// Arena holds every element, indexed by its ID.
	Arena []*models.Element
	Calls []models.CallSite
	// Files lists the files that were indexed, in scan order.
	Files  []string
	Errors []fileproc.ProcessingError

	Fingerprint uint64

	parents []int64 // parent ID per element, -1 for roots
}

func newSnapshot(version uint64, fragments []*models.Fragment, errs []fileproc.ProcessingError) *Snapshot {
	s := &Snapshot{Version: version, Errors: errs}
	for _, f := range fragments {
		s.Files = append(s.Files, f.Path)
		s.Roots = append(s.Roots, f.Elements...)
		s.Calls = append(s.Calls, f.Calls...)
	}
	s.Arena = models.Renumber(s.Roots, 0)

	s.parents = make([]int64, len(s.Arena))
	models.Walk(s.Roots, func(el, parent *models.Element) bool {
		s.parents[el.ID] = -1
		if parent != nil {
			s.parents[el.ID] = int64(parent.ID)
		}
		return true
	})
	s.Fingerprint = Fingerprint(s.Roots, s.Calls)
	return s
}

// Element returns the element with the given ID.
func (s *Snapshot) Element(id models.ElementID) (*models.Element, bool) {
	if int(id) >= len(s.Arena) {
		return nil, false
	}
	return s.Arena[id], true
}

// Parent returns the element directly enclosing id, or nil for top-level
// elements and unknown IDs.
func (s *Snapshot) Parent(id models.ElementID) *models.Element {
	if int(id) >= len(s.parents) || s.parents[id] < 0 {
		return nil
	}
	return s.Arena[s.parents[id]]
}

// Container returns the nearest enclosing type or extension of id.
func (s *Snapshot) Container(id models.ElementID) *models.Element {
	for p := s.Parent(id); p != nil; p = s.Parent(p.ID) {
		if p.Kind.IsContainer() {
			return p
		}
	}
	return nil
}

// Store publishes snapshots. Readers load the current snapshot without
// locking; a new scan cancels the one in flight.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Current returns the latest published snapshot, or nil before the first.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// begin starts a scan: it cancels any scan in flight and returns the new
// scan's context and version.
func (s *Store) begin(ctx context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	version := s.version.Add(1)
	s.mu.Unlock()

	return ctx, version, func() {
		s.mu.Lock()
		if s.version.Load() == version {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}
}

// publish stores snap unless a newer snapshot is already published.
func (s *Store) publish(snap *Snapshot) bool {
	for {
		old := s.current.Load()
		if old != nil && old.Version >= snap.Version {
			return false
		}
		if s.current.CompareAndSwap(old, snap) {
			return true
		}
	}
}
