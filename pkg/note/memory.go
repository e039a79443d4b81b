package note

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store. It backs the REPL and tests, and is
// the reference for Store semantics: accessors return copies, every
// mutation bumps the collection token, and a mutation is confirmed the
// moment the method returns.
type MemStore struct {
	mu    sync.RWMutex
	notes map[string]*Note
	paths map[string]string // normalized path -> note ID
	token uint64

	// Clock is called for timestamps. Tests replace it.
	Clock func() time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		notes: make(map[string]*Note),
		paths: make(map[string]string),
		token: 1,
		Clock: time.Now,
	}
}

// All returns copies of every note in natural order.
func (s *MemStore) All() []*Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Note, 0, len(s.notes))
	for _, n := range s.notes {
		copy := *n
		all = append(all, &copy)
	}
	sort.Slice(all, func(i, j int) bool { return Compare(all[i], all[j]) < 0 })
	return all
}

// ByID returns a copy of the note with the given ID.
func (s *MemStore) ByID(id string) (*Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, false
	}
	copy := *n
	return &copy, true
}

// ByPath returns a copy of the note at the given path.
func (s *MemStore) ByPath(path string) (*Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.paths[NormalizePath(path)]
	if !ok {
		return nil, false
	}
	copy := *s.notes[id]
	return &copy, true
}

// Token returns the current collection token.
func (s *MemStore) Token() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Create adds a note at path. The path must be free.
func (s *MemStore) Create(ctx context.Context, path, content string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := NormalizePath(path)
	if normalized == "" {
		return nil, fmt.Errorf("create: empty path")
	}
	if _, taken := s.paths[normalized]; taken {
		return nil, fmt.Errorf("create: a note already exists at %q", normalized)
	}

	now := s.Clock()
	n := &Note{
		ID:         uuid.NewString(),
		Path:       normalized,
		Content:    content,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	s.notes[n.ID] = n
	s.paths[normalized] = n.ID
	s.token++

	copy := *n
	return &copy, nil
}

// UpdatePath moves a note to a new, free path.
func (s *MemStore) UpdatePath(ctx context.Context, id, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("update path: no note with id %q", id)
	}

	normalized := NormalizePath(path)
	if normalized == "" {
		return fmt.Errorf("update path: empty path")
	}
	if existing, taken := s.paths[normalized]; taken && existing != id {
		return fmt.Errorf("update path: a note already exists at %q", normalized)
	}

	delete(s.paths, n.Path)
	n.Path = normalized
	n.ModifiedAt = s.Clock()
	s.paths[normalized] = id
	s.token++
	return nil
}

// UpdateContent replaces a note's content.
func (s *MemStore) UpdateContent(ctx context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("update content: no note with id %q", id)
	}
	n.Content = content
	n.ModifiedAt = s.Clock()
	s.token++
	return nil
}

// Append adds text to the end of a note's content, byte for byte.
// Callers that want the text on its own line include the newline.
func (s *MemStore) Append(ctx context.Context, id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("append: no note with id %q", id)
	}
	n.Content += text
	n.ModifiedAt = s.Clock()
	s.token++
	return nil
}

// MarkViewed stamps the note's ViewedAt.
func (s *MemStore) MarkViewed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("mark viewed: no note with id %q", id)
	}
	n.ViewedAt = s.Clock()
	s.token++
	return nil
}

// Delete removes a note.
func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("delete: no note with id %q", id)
	}
	delete(s.paths, n.Path)
	delete(s.notes, id)
	s.token++
	return nil
}

var _ Store = (*MemStore)(nil)
