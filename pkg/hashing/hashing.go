// Package hashing produces the content and metadata hashes staleness
// checking compares. All hashes are hex-encoded BLAKE2b-256.
//
// A collection-wide field hash covers every note: it changes exactly
// when any note's value for that field changes, or when a note appears
// or disappears. Field hashes are memoized per collection token, so a
// burst of staleness checks between mutations hashes each field at most
// once.
package hashing

import (
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/thymelang/thyme/pkg/note"
)

// Hash returns the hex BLAKE2b-256 digest of s.
func Hash(s string) string {
	sum := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// FirstLineHash hashes a note's first line.
func FirstLineHash(n *note.Note) string {
	return Hash(n.Name())
}

// BodyHash hashes a note's content after the first line.
func BodyHash(n *note.Note) string {
	return Hash(n.Body())
}

// DirectiveHash hashes directive source text, brackets included. It is
// the content half of every cache key.
func DirectiveHash(source string) string {
	return Hash(source)
}

// FieldHash computes the collection-wide hash of one metadata field:
// notes sorted by ID, one "id:value" line each. For FieldExistence the
// lines are the IDs alone, so the hash pins the exact membership of the
// collection.
func FieldHash(notes []*note.Note, f note.Field) string {
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		if f == note.FieldExistence {
			lines = append(lines, n.ID)
		} else {
			lines = append(lines, n.ID+":"+n.Value(f))
		}
	}
	sort.Strings(lines)
	return Hash(strings.Join(lines, "\n"))
}

// CollectionHasher memoizes field hashes for one collection. The memo is
// keyed by the collection token: any mutation bumps the token and the
// next lookup rehashes.
type CollectionHasher struct {
	mu    sync.Mutex
	col   note.Collection
	token uint64
	memo  map[note.Field]string
}

// NewCollectionHasher creates a hasher over col.
func NewCollectionHasher(col note.Collection) *CollectionHasher {
	return &CollectionHasher{
		col:  col,
		memo: make(map[note.Field]string),
	}
}

// FieldHash returns the collection-wide hash for f, computing it at most
// once per collection token.
func (h *CollectionHasher) FieldHash(f note.Field) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if token := h.col.Token(); token != h.token {
		h.token = token
		h.memo = make(map[note.Field]string)
	}

	if hash, ok := h.memo[f]; ok {
		return hash
	}
	hash := FieldHash(h.col.All(), f)
	h.memo[f] = hash
	return hash
}

// Invalidate drops the memo. The next FieldHash call rehashes even if
// the collection token has not changed.
func (h *CollectionHasher) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.memo = make(map[note.Field]string)
	h.token = 0
}
