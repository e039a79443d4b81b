package boltcache

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/thymelang/thyme/pkg/cache"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestPutGetRoundTrip(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	scope := cache.ForNote("n1")
	key := cache.KeyFor("2 + 2", 17)
	payload := []byte(`{"value":"4"}`)

	if err := d.Put(ctx, scope, key, payload); err != nil {
		t.Fatal(err)
	}
	got, err := d.Get(ctx, scope, key)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestMissIsNilNil(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	got, err := d.Get(ctx, cache.Global(), cache.KeyFor("never stored", 0))
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("miss returned %q", got)
	}
}

func TestScopesDoNotCollide(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	key := cache.KeyFor(".name", 3)

	if err := d.Put(ctx, cache.ForNote("a"), key, []byte("from a")); err != nil {
		t.Fatal(err)
	}
	if err := d.Put(ctx, cache.ForNote("b"), key, []byte("from b")); err != nil {
		t.Fatal(err)
	}

	got, err := d.Get(ctx, cache.ForNote("a"), key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "from a" {
		t.Errorf("note a's entry = %q", got)
	}
}

func TestClearScopeDropsOnlyThatScope(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	key := cache.KeyFor("1 + 1", 0)

	if err := d.Put(ctx, cache.ForNote("doomed"), key, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := d.Put(ctx, cache.Global(), key, []byte("y")); err != nil {
		t.Fatal(err)
	}
	if err := d.ClearScope(ctx, cache.ForNote("doomed")); err != nil {
		t.Fatal(err)
	}

	if got, _ := d.Get(ctx, cache.ForNote("doomed"), key); got != nil {
		t.Error("cleared scope still serves entries")
	}
	if got, _ := d.Get(ctx, cache.Global(), key); string(got) != "y" {
		t.Errorf("global entry lost: %q", got)
	}

	// Clearing a scope that never existed is fine.
	if err := d.ClearScope(ctx, cache.ForNote("never")); err != nil {
		t.Error(err)
	}
}

func TestRemoveAndReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	ctx := context.Background()
	scope := cache.Global()
	keep := cache.KeyFor("keep", 0)
	drop := cache.KeyFor("drop", 0)

	d, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Put(ctx, scope, keep, []byte("kept")); err != nil {
		t.Fatal(err)
	}
	if err := d.Put(ctx, scope, drop, []byte("dropped")); err != nil {
		t.Fatal(err)
	}
	if err := d.Remove(ctx, scope, drop); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	d, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if got, _ := d.Get(ctx, scope, keep); string(got) != "kept" {
		t.Errorf("entry did not survive reopen: %q", got)
	}
	if got, _ := d.Get(ctx, scope, drop); got != nil {
		t.Errorf("removed entry survived reopen: %q", got)
	}
}
