package cache

import (
	"fmt"
	"sort"

	"github.com/thymelang/thyme/pkg/deps"
	"github.com/thymelang/thyme/pkg/hashing"
	"github.com/thymelang/thyme/pkg/note"
)

// Checker replays a cached result's recorded dependencies against the
// current collection. Field hashes are memoized per collection token,
// so a burst of checks between mutations hashes each field at most
// once. Safe for concurrent use.
type Checker struct {
	col    note.Collection
	hasher *hashing.CollectionHasher
}

// NewChecker creates a checker over col.
func NewChecker(col note.Collection) *Checker {
	return &Checker{col: col, hasher: hashing.NewCollectionHasher(col)}
}

// Invalidate drops the memoized field hashes. Needed after collection
// changes that do not bump the token, such as an external vault rescan.
func (c *Checker) Invalidate() {
	c.hasher.Invalidate()
}

// Stale reports whether res no longer reflects the collection, naming
// the first failing check. Checks run cheapest first and stop at the
// first mismatch: collection-wide fields, then per-note first lines and
// bodies, then hierarchy resolution. current is the note containing the
// directive; nil for global-scope entries.
func (c *Checker) Stale(res *Result, current *note.Note) (string, bool) {
	if res.Err != nil && !res.Err.Deterministic() {
		return "stored error is not deterministic", true
	}
	set := res.Deps
	if set == nil {
		return "", false
	}

	for _, f := range note.MetaFields {
		if !dependsOn(set, f) {
			continue
		}
		if res.MetaHashes[f] != c.hasher.FieldHash(f) {
			return f.String() + " changed", true
		}
	}

	for _, id := range sortedIDs(set.FirstLine) {
		n, ok := c.col.ByID(id)
		if !ok {
			return "note " + id + " no longer exists", true
		}
		if res.ContentHashes[id].FirstLine != hashing.FirstLineHash(n) {
			return "first line of " + id + " changed", true
		}
	}
	for _, id := range sortedIDs(set.Body) {
		n, ok := c.col.ByID(id)
		if !ok {
			return "note " + id + " no longer exists", true
		}
		if res.ContentHashes[id].Body != hashing.BodyHash(n) {
			return "body of " + id + " changed", true
		}
	}

	for _, dep := range set.Hierarchy {
		if c.resolve(dep, current) != dep.ResolvedID {
			return navName(dep) + " resolves differently", true
		}
	}
	return "", false
}

// Snapshot computes the hashes a later Stale call will compare, for
// every dependency in set. A note that vanished before the snapshot
// gets no hash, so the next check reports it stale.
func (c *Checker) Snapshot(set *deps.Set) (map[string]NoteHashes, map[note.Field]string) {
	var content map[string]NoteHashes
	if len(set.FirstLine)+len(set.Body) > 0 {
		content = make(map[string]NoteHashes, len(set.FirstLine)+len(set.Body))
		for id := range set.FirstLine {
			if n, ok := c.col.ByID(id); ok {
				h := content[id]
				h.FirstLine = hashing.FirstLineHash(n)
				content[id] = h
			}
		}
		for id := range set.Body {
			if n, ok := c.col.ByID(id); ok {
				h := content[id]
				h.Body = hashing.BodyHash(n)
				content[id] = h
			}
		}
	}

	var meta map[note.Field]string
	for _, f := range note.MetaFields {
		if !dependsOn(set, f) {
			continue
		}
		if meta == nil {
			meta = make(map[note.Field]string)
		}
		meta[f] = c.hasher.FieldHash(f)
	}
	return content, meta
}

// resolve replays one hierarchy navigation from current and returns the
// ID it lands on, or "" when the target does not exist.
func (c *Checker) resolve(dep deps.HierarchyDep, current *note.Note) string {
	if current == nil {
		return ""
	}
	var target *note.Note
	var ok bool
	if dep.Kind == deps.HierRoot {
		target, ok = note.Root(c.col, current)
	} else {
		target, ok = note.Ancestor(c.col, current, dep.Steps)
	}
	if !ok {
		return ""
	}
	return target.ID
}

func dependsOn(s *deps.Set, f note.Field) bool {
	switch f {
	case note.FieldExistence:
		return s.Existence
	case note.FieldPath:
		return s.Path
	case note.FieldModified:
		return s.Modified
	case note.FieldCreated:
		return s.Created
	case note.FieldViewed:
		return s.Viewed
	case note.FieldName:
		return s.Name
	case note.FieldContent:
		return s.Content
	}
	return false
}

func navName(dep deps.HierarchyDep) string {
	if dep.Kind == deps.HierRoot {
		return "root"
	}
	return fmt.Sprintf("up(%d)", dep.Steps)
}

func sortedIDs(m map[string]bool) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
