package vault

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, time.January, 15, 9, 30, 0, 0, time.UTC)

func openTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := Open(t.TempDir(), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCreateWritesFileWithFrontmatter(t *testing.T) {
	v := openTestVault(t)
	n, err := v.Create(context.Background(), "inbox/today", "Today\n- milk")
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(v.Root(), "inbox", "today.md"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "---\n") {
		t.Fatalf("file lacks frontmatter:\n%s", text)
	}
	if !strings.Contains(text, "id: "+n.ID) {
		t.Errorf("frontmatter lacks the note id:\n%s", text)
	}
	if !strings.HasSuffix(text, "Today\n- milk") {
		t.Errorf("file body mangled:\n%s", text)
	}
}

func TestRoundTripThroughReopen(t *testing.T) {
	dir := t.TempDir()
	v, err := Open(dir, WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatal(err)
	}
	created, err := v.Create(context.Background(), "notes/a", "A\nbody text")
	if err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := reopened.ByID(created.ID)
	if !ok {
		t.Fatal("note lost across reopen")
	}
	if got.Path != "notes/a" || got.Content != "A\nbody text" {
		t.Errorf("reopened note = %q at %q", got.Content, got.Path)
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Errorf("created-at not preserved: %v", got.CreatedAt)
	}
}

func TestAdoptsFilesWithoutFrontmatter(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.md")
	if err := os.WriteFile(plain, []byte("Plain\nno metadata yet"), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	n, ok := v.ByPath("plain")
	if !ok {
		t.Fatal("plain file not indexed")
	}
	if n.ID == "" {
		t.Fatal("adopted note has no id")
	}
	if n.Content != "Plain\nno metadata yet" {
		t.Errorf("content = %q", n.Content)
	}

	// Adoption rewrites the file, so the identity survives a reopen.
	again, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := again.ByPath("plain"); !ok || got.ID != n.ID {
		t.Error("adopted id did not survive a reopen")
	}
}

func TestUpdatePathMovesFile(t *testing.T) {
	v := openTestVault(t)
	ctx := context.Background()
	n, err := v.Create(ctx, "inbox/task", "Task")
	if err != nil {
		t.Fatal(err)
	}

	if err := v.UpdatePath(ctx, n.ID, "archive/task"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(v.Root(), "inbox", "task.md")); !os.IsNotExist(err) {
		t.Error("old file still present")
	}
	if _, err := os.Stat(filepath.Join(v.Root(), "archive", "task.md")); err != nil {
		t.Errorf("new file missing: %v", err)
	}
	if got, ok := v.ByPath("archive/task"); !ok || got.ID != n.ID {
		t.Error("index did not follow the move")
	}
}

func TestAppendKeepsFrontmatter(t *testing.T) {
	v := openTestVault(t)
	ctx := context.Background()
	n, err := v.Create(ctx, "log", "Log\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Append(ctx, n.ID, "entry one\n"); err != nil {
		t.Fatal(err)
	}

	got, _ := v.ByID(n.ID)
	if got.Content != "Log\nentry one\n" {
		t.Errorf("content = %q", got.Content)
	}
	data, err := os.ReadFile(filepath.Join(v.Root(), "log.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "id: "+n.ID) {
		t.Error("append dropped the frontmatter")
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	v := openTestVault(t)
	ctx := context.Background()
	n, err := v.Create(ctx, "gone", "Gone")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Delete(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(v.Root(), "gone.md")); !os.IsNotExist(err) {
		t.Error("file still present after delete")
	}
	if _, ok := v.ByID(n.ID); ok {
		t.Error("index still holds the deleted note")
	}
}

func TestRescanReportsExternalChanges(t *testing.T) {
	v := openTestVault(t)
	ctx := context.Background()
	n, err := v.Create(ctx, "watched", "Watched\nv1")
	if err != nil {
		t.Fatal(err)
	}
	if changes, err := v.Rescan(); err != nil || len(changes) != 0 {
		t.Fatalf("clean rescan reported %v (%v)", changes, err)
	}

	// An external editor rewrites the body under the same frontmatter.
	file := filepath.Join(v.Root(), "watched.md")
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	edited := strings.Replace(string(data), "Watched\nv1", "Watched\nv2", 1)
	if err := os.WriteFile(file, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	changes, err := v.Rescan()
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 || changes[0].Kind != ChangeUpdated || changes[0].ID != n.ID {
		t.Fatalf("changes = %v", changes)
	}
	if got, _ := v.ByID(n.ID); got.Content != "Watched\nv2" {
		t.Errorf("content after rescan = %q", got.Content)
	}

	// An external delete.
	if err := os.Remove(file); err != nil {
		t.Fatal(err)
	}
	changes, err = v.Rescan()
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 || changes[0].Kind != ChangeDeleted {
		t.Fatalf("changes = %v", changes)
	}
}

func TestTokenAdvancesOnMutation(t *testing.T) {
	v := openTestVault(t)
	ctx := context.Background()
	before := v.Token()
	n, err := v.Create(ctx, "t", "T")
	if err != nil {
		t.Fatal(err)
	}
	mid := v.Token()
	if mid == before {
		t.Error("token unchanged after create")
	}
	if err := v.UpdateContent(ctx, n.ID, "T\nmore"); err != nil {
		t.Fatal(err)
	}
	if v.Token() == mid {
		t.Error("token unchanged after content update")
	}
}

func TestWatchFeedsExternalEdits(t *testing.T) {
	if testing.Short() {
		t.Skip("file watcher timing")
	}
	v := openTestVault(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan Change, 8)
	done := make(chan error, 1)
	go func() {
		done <- v.Watch(ctx, func(c Change) { changed <- c })
	}()
	// Give the watcher a moment to establish its watches.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(v.Root(), "external.md"), []byte("External\nhello"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changed:
		if c.Kind != ChangeCreated {
			t.Errorf("change kind = %v, want created", c.Kind)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reported the external file")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watch returned %v", err)
	}
}
