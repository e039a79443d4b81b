// Package deps defines the dependency facts recorded for a directive:
// which notes' first lines and bodies it reads, which collection-wide
// metadata it observes, whether it navigates the hierarchy, and whether
// it mutates. Staleness checking replays these facts against the current
// collection state.
package deps

// HierKind says how a hierarchy dependency navigates from the note
// containing the directive.
type HierKind int

const (
	HierUp   HierKind = iota // up or up(n)
	HierRoot                 // root
)

func (k HierKind) String() string {
	if k == HierRoot {
		return "root"
	}
	return "up"
}

// HierarchyDep records one hierarchy navigation and the note it resolved
// to when the directive ran. The dependency is on the resolution itself:
// if the same navigation resolves differently later, the cached result is
// stale. An empty ResolvedID means the target did not exist.
type HierarchyDep struct {
	Kind       HierKind `json:"kind"`
	Steps      int      `json:"steps,omitempty"`
	ResolvedID string   `json:"resolved_id,omitempty"`
}

// Set is the dependency set of one directive execution.
//
// FirstLine and Body hold IDs of specific notes whose name or remaining
// content the directive read. The boolean fields are collection-wide:
// any note's change to that field invalidates. Collection-wide Name and
// Content cover reads through lambda parameters and call results, where
// the target note is not statically known.
type Set struct {
	FirstLine map[string]bool `json:"first_line,omitempty"`
	Body      map[string]bool `json:"body,omitempty"`

	Path      bool `json:"path,omitempty"`
	Modified  bool `json:"modified,omitempty"`
	Created   bool `json:"created,omitempty"`
	Viewed    bool `json:"viewed,omitempty"`
	Existence bool `json:"existence,omitempty"`
	Name      bool `json:"name,omitempty"`
	Content   bool `json:"content,omitempty"`

	Mutating   bool `json:"mutating,omitempty"`
	SelfAccess bool `json:"self_access,omitempty"`

	// Dynamic records that a nested execution merged in here was dynamic.
	// It is not a dependency; it makes the enclosing result uncacheable.
	Dynamic bool `json:"dynamic,omitempty"`

	Hierarchy []HierarchyDep `json:"hierarchy,omitempty"`
}

// NewSet returns an empty dependency set.
func NewSet() *Set {
	return &Set{
		FirstLine: make(map[string]bool),
		Body:      make(map[string]bool),
	}
}

// AddFirstLine records a read of one note's first line.
func (s *Set) AddFirstLine(id string) {
	if s.FirstLine == nil {
		s.FirstLine = make(map[string]bool)
	}
	s.FirstLine[id] = true
}

// AddBody records a read of one note's remaining content.
func (s *Set) AddBody(id string) {
	if s.Body == nil {
		s.Body = make(map[string]bool)
	}
	s.Body[id] = true
}

// AddHierarchy records a hierarchy navigation, deduplicating repeats of
// the same navigation.
func (s *Set) AddHierarchy(dep HierarchyDep) {
	for _, existing := range s.Hierarchy {
		if existing.Kind == dep.Kind && existing.Steps == dep.Steps {
			return
		}
	}
	s.Hierarchy = append(s.Hierarchy, dep)
}

// Merge folds other into s: ID sets union, flags OR, hierarchy deps
// append with deduplication.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	for id := range other.FirstLine {
		s.AddFirstLine(id)
	}
	for id := range other.Body {
		s.AddBody(id)
	}

	s.Path = s.Path || other.Path
	s.Modified = s.Modified || other.Modified
	s.Created = s.Created || other.Created
	s.Viewed = s.Viewed || other.Viewed
	s.Existence = s.Existence || other.Existence
	s.Name = s.Name || other.Name
	s.Content = s.Content || other.Content
	s.Mutating = s.Mutating || other.Mutating
	s.SelfAccess = s.SelfAccess || other.SelfAccess
	s.Dynamic = s.Dynamic || other.Dynamic

	for _, dep := range other.Hierarchy {
		s.AddHierarchy(dep)
	}
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	out := NewSet()
	out.Merge(s)
	return out
}

// HasCollectionDeps reports whether any collection-wide field is
// depended on.
func (s *Set) HasCollectionDeps() bool {
	return s.Path || s.Modified || s.Created || s.Viewed || s.Existence || s.Name || s.Content
}

// Empty reports whether the set records no dependencies at all. A
// directive with an empty set (a pure computation like add(1, 2)) can
// never go stale.
func (s *Set) Empty() bool {
	return len(s.FirstLine) == 0 &&
		len(s.Body) == 0 &&
		!s.HasCollectionDeps() &&
		!s.Mutating &&
		len(s.Hierarchy) == 0
}
