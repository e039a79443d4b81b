package note

import (
	"context"
	"testing"
	"time"
)

// testStore returns a MemStore with a deterministic clock that advances
// one second per call.
func testStore(t *testing.T) *MemStore {
	t.Helper()
	s := NewMemStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.Clock = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return s
}

func TestMemStoreCreateAndResolve(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n, err := s.Create(ctx, "inbox/today", "Today\nplan")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.ID == "" {
		t.Fatal("Create returned empty ID")
	}

	byID, ok := s.ByID(n.ID)
	if !ok || byID.Path != "inbox/today" {
		t.Fatalf("ByID = %+v, %v", byID, ok)
	}

	byPath, ok := s.ByPath("/inbox/today/")
	if !ok || byPath.ID != n.ID {
		t.Fatalf("ByPath with unnormalized input = %+v, %v", byPath, ok)
	}

	if _, err := s.Create(ctx, "inbox/today", "dup"); err == nil {
		t.Error("Create at a taken path should fail")
	}
	if _, err := s.Create(ctx, "", "x"); err == nil {
		t.Error("Create with empty path should fail")
	}
}

func TestMemStoreTokenBumpsOnEveryMutation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	before := s.Token()
	n, _ := s.Create(ctx, "a", "A")
	if s.Token() == before {
		t.Error("Create did not bump the token")
	}

	mutations := []struct {
		name string
		do   func() error
	}{
		{"UpdatePath", func() error { return s.UpdatePath(ctx, n.ID, "b") }},
		{"UpdateContent", func() error { return s.UpdateContent(ctx, n.ID, "B") }},
		{"Append", func() error { return s.Append(ctx, n.ID, "\nmore") }},
		{"MarkViewed", func() error { return s.MarkViewed(ctx, n.ID) }},
		{"Delete", func() error { return s.Delete(ctx, n.ID) }},
	}

	for _, m := range mutations {
		before := s.Token()
		if err := m.do(); err != nil {
			t.Fatalf("%s: %v", m.name, err)
		}
		if s.Token() == before {
			t.Errorf("%s did not bump the token", m.name)
		}
	}
}

func TestMemStoreReadsAreCopies(t *testing.T) {
	s := testStore(t)
	n, _ := s.Create(context.Background(), "a", "A")

	got, _ := s.ByID(n.ID)
	got.Content = "tampered"

	again, _ := s.ByID(n.ID)
	if again.Content != "A" {
		t.Error("mutating a returned note leaked into the store")
	}
}

func TestMemStoreAllIsNaturallyOrdered(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.Create(ctx, "z", "Z")
	s.Create(ctx, "a", "A")
	s.Create(ctx, "m", "M")

	all := s.All()
	if len(all) != 3 {
		t.Fatalf("len(All()) = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if Compare(all[i-1], all[i]) >= 0 {
			t.Fatalf("All() out of order: %s before %s", all[i-1].Path, all[i].Path)
		}
	}
}

func TestMemStoreUpdatePath(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a, _ := s.Create(ctx, "a", "A")
	s.Create(ctx, "b", "B")

	if err := s.UpdatePath(ctx, a.ID, "b"); err == nil {
		t.Error("moving onto a taken path should fail")
	}
	// moving onto your own path is a no-op, not a conflict
	if err := s.UpdatePath(ctx, a.ID, "a"); err != nil {
		t.Errorf("moving onto own path failed: %v", err)
	}

	if err := s.UpdatePath(ctx, a.ID, "c"); err != nil {
		t.Fatalf("UpdatePath: %v", err)
	}
	if _, ok := s.ByPath("a"); ok {
		t.Error("old path still resolves after move")
	}
	moved, ok := s.ByPath("c")
	if !ok || moved.ID != a.ID {
		t.Error("new path does not resolve after move")
	}
}

func TestMemStoreAppendIsRaw(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n, _ := s.Create(ctx, "a", "line")
	s.Append(ctx, n.ID, " more")

	got, _ := s.ByID(n.ID)
	if got.Content != "line more" {
		t.Errorf("Content = %q, want %q", got.Content, "line more")
	}
}

func TestMemStoreDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n, _ := s.Create(ctx, "a", "A")
	if err := s.Delete(ctx, n.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.ByID(n.ID); ok {
		t.Error("note still resolves after delete")
	}
	if _, ok := s.ByPath("a"); ok {
		t.Error("path still resolves after delete")
	}
	if err := s.Delete(ctx, n.ID); err == nil {
		t.Error("deleting a missing note should fail")
	}
}

func TestMemStoreModifiedAtAdvances(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n, _ := s.Create(ctx, "a", "A")
	created, _ := s.ByID(n.ID)

	s.UpdateContent(ctx, n.ID, "B")
	updated, _ := s.ByID(n.ID)

	if !updated.ModifiedAt.After(created.ModifiedAt) {
		t.Error("ModifiedAt did not advance on update")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("CreatedAt changed on update")
	}
}
