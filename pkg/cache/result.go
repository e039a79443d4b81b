package cache

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/thymelang/thyme/pkg/deps"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/hashing"
	"github.com/thymelang/thyme/pkg/note"
	"github.com/thymelang/thyme/pkg/object"
)

// ScopeKind separates the shared cache from per-note caches.
type ScopeKind int

const (
	// ScopeGlobal holds directives with no self-access and no mutation.
	// Their result is the same wherever they appear, so identical
	// source shares one entry across all notes.
	ScopeGlobal ScopeKind = iota
	// ScopeNote holds directives whose result depends on which note
	// contains them, and mutating directives, which are never shared.
	ScopeNote
)

// Scope names one cache namespace.
type Scope struct {
	Kind   ScopeKind
	NoteID string // owning note, for ScopeNote
}

// Global returns the scope shared across all notes.
func Global() Scope { return Scope{Kind: ScopeGlobal} }

// ForNote returns the scope private to one note.
func ForNote(id string) Scope { return Scope{Kind: ScopeNote, NoteID: id} }

// String returns a stable name persistent tiers can use as a bucket or
// column value.
func (s Scope) String() string {
	if s.Kind == ScopeGlobal {
		return "global"
	}
	return "note:" + s.NoteID
}

// Key identifies one directive inside a scope. Note-scoped keys carry
// the directive's start offset, so the same source appearing twice in
// one note gets two entries; global keys are position-free.
type Key struct {
	Hash   string
	Offset int
}

// KeyFor hashes directive source into a key. Pass offset 0 for global
// entries.
func KeyFor(source string, offset int) Key {
	return Key{Hash: hashing.DirectiveHash(source), Offset: offset}
}

// String returns a stable form for persistent tiers.
func (k Key) String() string {
	return strconv.Itoa(k.Offset) + ":" + k.Hash
}

// NoteHashes pins one note's content at cache time. Only the halves the
// directive actually read are recorded.
type NoteHashes struct {
	FirstLine string `json:"first_line,omitempty"`
	Body      string `json:"body,omitempty"`
}

// Result is one cache entry: what a directive produced, the dependency
// set it was computed from, and the hashes staleness checking compares
// against the live collection. Exactly one of Value and Err is set.
type Result struct {
	Value object.Object
	Err   *terrors.Error

	Deps          *deps.Set
	ContentHashes map[string]NoteHashes
	MetaHashes    map[note.Field]string
	CachedAt      time.Time

	// Dynamic results are handed to the caller but never stored.
	Dynamic bool
}

// wireResult is the stored form of a Result. The value is kept in its
// own encoding so note references can be re-resolved on decode.
type wireResult struct {
	Value         json.RawMessage       `json:"value,omitempty"`
	Err           *terrors.Error        `json:"error,omitempty"`
	Deps          *deps.Set             `json:"deps,omitempty"`
	ContentHashes map[string]NoteHashes `json:"content_hashes,omitempty"`
	MetaHashes    map[note.Field]string `json:"meta_hashes,omitempty"`
	CachedAt      time.Time             `json:"cached_at"`
}

// EncodeResult serializes res for a persistent tier. Results holding
// deferred values fail with object.ErrNotSerializable and stay in the
// fast tier.
func EncodeResult(res *Result) ([]byte, error) {
	w := wireResult{
		Err:           res.Err,
		Deps:          res.Deps,
		ContentHashes: res.ContentHashes,
		MetaHashes:    res.MetaHashes,
		CachedAt:      res.CachedAt,
	}
	if res.Value != nil {
		data, err := object.Encode(res.Value)
		if err != nil {
			return nil, err
		}
		w.Value = data
	}
	return json.Marshal(w)
}

// DecodeResult restores a stored result, re-resolving note references
// against col. A value referencing a note that no longer exists fails
// with object.ErrVanishedNote; callers treat that as a miss.
func DecodeResult(data []byte, col note.Collection) (*Result, error) {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	res := &Result{
		Err:           w.Err,
		Deps:          w.Deps,
		ContentHashes: w.ContentHashes,
		MetaHashes:    w.MetaHashes,
		CachedAt:      w.CachedAt,
	}
	if len(w.Value) > 0 {
		v, err := object.Decode(w.Value, col)
		if err != nil {
			return nil, err
		}
		res.Value = v
	}
	return res, nil
}
