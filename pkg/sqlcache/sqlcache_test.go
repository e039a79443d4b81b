package sqlcache

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

	got, err := d.Get(context.Background(), cache.Global(), cache.KeyFor("never stored", 0))
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("miss returned %q", got)
	}
}

func TestPutReplacesExistingEntry(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	scope := cache.Global()
	key := cache.KeyFor("now()", 0)

	if err := d.Put(ctx, scope, key, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := d.Put(ctx, scope, key, []byte("second")); err != nil {
		t.Fatal(err)
	}
	got, err := d.Get(ctx, scope, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("got %q after replace", got)
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
}

func TestEntriesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()
	key := cache.KeyFor("persisted", 0)

	d, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Put(ctx, cache.Global(), key, []byte("still here")); err != nil {
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
	got, err := d.Get(ctx, cache.Global(), key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "still here" {
		t.Errorf("entry did not survive reopen: %q", got)
	}
}
