package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/thymelang/thyme/pkg/deps"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/hashing"
	"github.com/thymelang/thyme/pkg/note"
	"github.com/thymelang/thyme/pkg/object"
)

var testCachedAt = time.Date(2026, time.January, 15, 9, 30, 0, 0, time.UTC)

func TestResultRoundTrip(t *testing.T) {
	store := note.NewMemStore()
	n, err := store.Create(context.Background(), "inbox", "Inbox\ntriage queue")
	if err != nil {
		t.Fatal(err)
	}

	set := deps.NewSet()
	set.AddFirstLine(n.ID)
	set.Existence = true
	set.SelfAccess = true
	set.AddHierarchy(deps.HierarchyDep{Kind: deps.HierUp, Steps: 1, ResolvedID: n.ID})

	res := &Result{
		Value: &object.List{Elements: []object.Object{
			&object.Number{Value: 12},
			&object.String{Value: "milk"},
			&object.Note{ID: n.ID, Name: "stale name", Path: "stale/path"},
		}},
		Deps: set,
		ContentHashes: map[string]NoteHashes{
			n.ID: {FirstLine: hashing.FirstLineHash(n)},
		},
		MetaHashes: map[note.Field]string{
			note.FieldExistence: hashing.FieldHash(store.All(), note.FieldExistence),
		},
		CachedAt: testCachedAt,
	}

	data, err := EncodeResult(res)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeResult(data, store)
	if err != nil {
		t.Fatal(err)
	}

	if !object.Equals(got.Value, res.Value) {
		t.Errorf("value = %s, want %s", got.Value.Inspect(), res.Value.Inspect())
	}
	// Decoding refreshes the note reference's display snapshot.
	ref := got.Value.(*object.List).Elements[2].(*object.Note)
	if ref.Name != "Inbox" || ref.Path != "inbox" {
		t.Errorf("note snapshot not refreshed: name %q, path %q", ref.Name, ref.Path)
	}

	if diff := cmp.Diff(res.Deps, got.Deps, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("deps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(res.ContentHashes, got.ContentHashes); diff != "" {
		t.Errorf("content hashes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(res.MetaHashes, got.MetaHashes); diff != "" {
		t.Errorf("meta hashes mismatch (-want +got):\n%s", diff)
	}
	if !got.CachedAt.Equal(testCachedAt) {
		t.Errorf("cachedAt = %v, want %v", got.CachedAt, testCachedAt)
	}
	if got.Err != nil {
		t.Errorf("unexpected error in decoded result: %v", got.Err)
	}
}

func TestErrorResultRoundTrip(t *testing.T) {
	execErr := terrors.New(terrors.ClassExecution, 4, "division by zero").WithFn("div")
	res := &Result{Err: execErr, Deps: deps.NewSet(), CachedAt: testCachedAt}

	data, err := EncodeResult(res)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeResult(data, note.NewMemStore())
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(execErr, got.Err); diff != "" {
		t.Errorf("error mismatch (-want +got):\n%s", diff)
	}
	if got.Value != nil {
		t.Errorf("unexpected value in decoded error result: %s", got.Value.Inspect())
	}
}

func TestDeferredValuesDoNotEncode(t *testing.T) {
	res := &Result{Value: &object.Lambda{}, CachedAt: testCachedAt}

	_, err := EncodeResult(res)
	if !errors.Is(err, object.ErrNotSerializable) {
		t.Fatalf("err = %v, want ErrNotSerializable", err)
	}
}

func TestVanishedNoteFailsDecode(t *testing.T) {
	store := note.NewMemStore()
	n, err := store.Create(context.Background(), "inbox", "Inbox")
	if err != nil {
		t.Fatal(err)
	}
	res := &Result{
		Value:    &object.Note{ID: n.ID, Name: n.Name(), Path: n.Path},
		CachedAt: testCachedAt,
	}
	data, err := EncodeResult(res)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(context.Background(), n.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := DecodeResult(data, store); !errors.Is(err, object.ErrVanishedNote) {
		t.Fatalf("err = %v, want ErrVanishedNote", err)
	}
}
