package cache

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/thymelang/thyme/pkg/deps"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/note"
	"github.com/thymelang/thyme/pkg/object"
)

// stalenessWorld is a store, a checker over it, and the notes the tests
// mutate. today is the note containing the directive under test.
type stalenessWorld struct {
	store   *note.MemStore
	checker *Checker
	inbox   *note.Note
	today   *note.Note
	other   *note.Note
}

func newStalenessWorld(t *testing.T) *stalenessWorld {
	t.Helper()
	w := &stalenessWorld{store: note.NewMemStore()}
	w.inbox = w.create(t, "inbox", "Inbox\ntriage queue")
	w.today = w.create(t, "inbox/today", "Today\n- milk")
	w.other = w.create(t, "projects", "Projects")
	w.checker = NewChecker(w.store)
	return w
}

func (w *stalenessWorld) create(t *testing.T, path, content string) *note.Note {
	t.Helper()
	n, err := w.store.Create(context.Background(), path, content)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func (w *stalenessWorld) updateContent(t *testing.T, n *note.Note, content string) {
	t.Helper()
	if err := w.store.UpdateContent(context.Background(), n.ID, content); err != nil {
		t.Fatal(err)
	}
}

func (w *stalenessWorld) move(t *testing.T, n *note.Note, path string) {
	t.Helper()
	if err := w.store.UpdatePath(context.Background(), n.ID, path); err != nil {
		t.Fatal(err)
	}
}

func (w *stalenessWorld) view(t *testing.T, n *note.Note) {
	t.Helper()
	if err := w.store.MarkViewed(context.Background(), n.ID); err != nil {
		t.Fatal(err)
	}
}

func (w *stalenessWorld) delete(t *testing.T, n *note.Note) {
	t.Helper()
	if err := w.store.Delete(context.Background(), n.ID); err != nil {
		t.Fatal(err)
	}
}

func (w *stalenessWorld) refetch(t *testing.T, n *note.Note) *note.Note {
	t.Helper()
	fresh, ok := w.store.ByID(n.ID)
	if !ok {
		t.Fatalf("note %s vanished", n.ID)
	}
	return fresh
}

// snapshot builds the cache entry a finished execution would store for
// set.
func (w *stalenessWorld) snapshot(set *deps.Set) *Result {
	content, meta := w.checker.Snapshot(set)
	return &Result{
		Value:         &object.Number{Value: 1},
		Deps:          set,
		ContentHashes: content,
		MetaHashes:    meta,
		CachedAt:      testCachedAt,
	}
}

// TestStalenessFlipsPerField pins the field hashes to single mutations:
// each dependency goes stale exactly when its own field changes.
func TestStalenessFlipsPerField(t *testing.T) {
	tests := []struct {
		name   string
		deps   func(set *deps.Set)
		mutate func(t *testing.T, w *stalenessWorld)
		want   bool
	}{
		{
			name:   "existence dep survives a content edit",
			deps:   func(s *deps.Set) { s.Existence = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.updateContent(t, w.other, "Projects\nnew body") },
			want:   false,
		},
		{
			name:   "existence dep flips on creation",
			deps:   func(s *deps.Set) { s.Existence = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.create(t, "archive", "Archive") },
			want:   true,
		},
		{
			name:   "existence dep flips on deletion",
			deps:   func(s *deps.Set) { s.Existence = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.delete(t, w.other) },
			want:   true,
		},
		{
			name:   "path dep survives a content edit",
			deps:   func(s *deps.Set) { s.Path = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.updateContent(t, w.other, "Projects\nnew body") },
			want:   false,
		},
		{
			name:   "path dep flips on a move",
			deps:   func(s *deps.Set) { s.Path = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.move(t, w.other, "work/projects") },
			want:   true,
		},
		{
			name:   "modified dep flips on a content edit",
			deps:   func(s *deps.Set) { s.Modified = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.updateContent(t, w.other, "Projects\nnew body") },
			want:   true,
		},
		{
			name:   "modified dep survives a view",
			deps:   func(s *deps.Set) { s.Modified = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.view(t, w.other) },
			want:   false,
		},
		{
			name:   "viewed dep flips on a view",
			deps:   func(s *deps.Set) { s.Viewed = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.view(t, w.other) },
			want:   true,
		},
		{
			name:   "created dep survives a content edit",
			deps:   func(s *deps.Set) { s.Created = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.updateContent(t, w.other, "Projects\nnew body") },
			want:   false,
		},
		{
			name:   "created dep flips on creation",
			deps:   func(s *deps.Set) { s.Created = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.create(t, "archive", "Archive") },
			want:   true,
		},
		{
			name:   "name dep survives a body edit",
			deps:   func(s *deps.Set) { s.Name = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.updateContent(t, w.other, "Projects\nbody grew") },
			want:   false,
		},
		{
			name:   "name dep flips on a first line edit",
			deps:   func(s *deps.Set) { s.Name = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.updateContent(t, w.other, "Renamed") },
			want:   true,
		},
		{
			name:   "content dep flips on a body edit",
			deps:   func(s *deps.Set) { s.Content = true },
			mutate: func(t *testing.T, w *stalenessWorld) { w.updateContent(t, w.other, "Projects\nbody grew") },
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newStalenessWorld(t)
			set := deps.NewSet()
			tt.deps(set)
			res := w.snapshot(set)

			tt.mutate(t, w)

			reason, stale := w.checker.Stale(res, w.refetch(t, w.today))
			if stale != tt.want {
				t.Errorf("stale = %v (%q), want %v", stale, reason, tt.want)
			}
		})
	}
}

func TestPerNoteFirstLineStaleness(t *testing.T) {
	w := newStalenessWorld(t)
	set := deps.NewSet()
	set.AddFirstLine(w.inbox.ID)
	res := w.snapshot(set)

	// A body edit leaves the first line hash intact.
	w.updateContent(t, w.inbox, "Inbox\nreordered queue")
	if reason, stale := w.checker.Stale(res, w.today); stale {
		t.Fatalf("stale after a body edit: %s", reason)
	}

	// Another note's changes do not touch a per-note dependency.
	w.updateContent(t, w.other, "Renamed")
	if reason, stale := w.checker.Stale(res, w.today); stale {
		t.Fatalf("stale after an unrelated edit: %s", reason)
	}

	w.updateContent(t, w.inbox, "Intake\nreordered queue")
	reason, stale := w.checker.Stale(res, w.today)
	if !stale {
		t.Fatal("fresh after the first line changed")
	}
	if !strings.Contains(reason, "first line") {
		t.Errorf("reason = %q", reason)
	}
}

func TestPerNoteBodyStaleness(t *testing.T) {
	w := newStalenessWorld(t)
	set := deps.NewSet()
	set.AddBody(w.inbox.ID)
	res := w.snapshot(set)

	// Renaming only the first line leaves the body hash intact.
	w.updateContent(t, w.inbox, "Intake\ntriage queue")
	if reason, stale := w.checker.Stale(res, w.today); stale {
		t.Fatalf("stale after a first line edit: %s", reason)
	}

	w.updateContent(t, w.inbox, "Intake\nempty now")
	reason, stale := w.checker.Stale(res, w.today)
	if !stale {
		t.Fatal("fresh after the body changed")
	}
	if !strings.Contains(reason, "body") {
		t.Errorf("reason = %q", reason)
	}
}

func TestVanishedNoteIsStale(t *testing.T) {
	w := newStalenessWorld(t)
	set := deps.NewSet()
	set.AddFirstLine(w.other.ID)
	res := w.snapshot(set)

	w.delete(t, w.other)

	reason, stale := w.checker.Stale(res, w.today)
	if !stale {
		t.Fatal("fresh after the referenced note was deleted")
	}
	if !strings.Contains(reason, "no longer exists") {
		t.Errorf("reason = %q", reason)
	}
}

func TestHierarchyResolutionStaleness(t *testing.T) {
	w := newStalenessWorld(t)
	set := deps.NewSet()
	set.AddHierarchy(deps.HierarchyDep{Kind: deps.HierUp, Steps: 1, ResolvedID: w.inbox.ID})
	res := w.snapshot(set)

	if reason, stale := w.checker.Stale(res, w.today); stale {
		t.Fatalf("stale with an unchanged hierarchy: %s", reason)
	}

	// Deleting the parent makes up(1) resolve to nothing.
	w.delete(t, w.inbox)
	reason, stale := w.checker.Stale(res, w.refetch(t, w.today))
	if !stale {
		t.Fatal("fresh after the parent vanished")
	}
	if !strings.Contains(reason, "up(1)") {
		t.Errorf("reason = %q", reason)
	}
}

func TestHierarchyMissStaysFreshUntilResolvable(t *testing.T) {
	w := newStalenessWorld(t)
	// A recorded miss: up(2) from inbox/today went past the top.
	set := deps.NewSet()
	set.AddHierarchy(deps.HierarchyDep{Kind: deps.HierUp, Steps: 2})
	res := w.snapshot(set)

	if reason, stale := w.checker.Stale(res, w.today); stale {
		t.Fatalf("stale while still unresolvable: %s", reason)
	}

	// Moving the note deeper makes up(2) land where it used to miss.
	w.move(t, w.today, "projects/inbox/today")
	reason, stale := w.checker.Stale(res, w.refetch(t, w.today))
	if !stale {
		t.Fatal("fresh after up(2) became resolvable")
	}
	if !strings.Contains(reason, "up(2)") {
		t.Errorf("reason = %q", reason)
	}
}

func TestRootResolutionStaleness(t *testing.T) {
	w := newStalenessWorld(t)
	set := deps.NewSet()
	set.AddHierarchy(deps.HierarchyDep{Kind: deps.HierRoot, ResolvedID: w.inbox.ID})
	res := w.snapshot(set)

	w.move(t, w.today, "projects/today")

	reason, stale := w.checker.Stale(res, w.refetch(t, w.today))
	if !stale {
		t.Fatal("fresh after the note moved under a different root")
	}
	if !strings.Contains(reason, "root") {
		t.Errorf("reason = %q", reason)
	}
}

func TestCollaboratorErrorIsNeverAValidHit(t *testing.T) {
	w := newStalenessWorld(t)
	res := &Result{
		Err:      terrors.Wrap(errors.New("disk failure"), 0, "could not create 'x'"),
		Deps:     deps.NewSet(),
		CachedAt: testCachedAt,
	}

	if _, stale := w.checker.Stale(res, nil); !stale {
		t.Fatal("collaborator error served as a valid hit")
	}
}

func TestDeterministicErrorsStayCached(t *testing.T) {
	w := newStalenessWorld(t)
	res := &Result{
		Err:      terrors.New(terrors.ClassExecution, 4, "division by zero"),
		Deps:     deps.NewSet(),
		CachedAt: testCachedAt,
	}

	if reason, stale := w.checker.Stale(res, nil); stale {
		t.Fatalf("deterministic error went stale: %s", reason)
	}
}

func TestEmptyDepsNeverGoStale(t *testing.T) {
	w := newStalenessWorld(t)
	res := w.snapshot(deps.NewSet())

	w.create(t, "archive", "Archive")
	w.updateContent(t, w.other, "Projects\nnew body")
	w.move(t, w.other, "work/projects")
	w.view(t, w.other)
	w.delete(t, w.inbox)

	if reason, stale := w.checker.Stale(res, nil); stale {
		t.Fatalf("a pure result went stale: %s", reason)
	}
}
