package engine

import (
	"context"

	"github.com/thymelang/thyme/pkg/cache"
	"github.com/thymelang/thyme/pkg/note"
)

// storeMutator is the mutation sink handed to the evaluator. Each call
// forwards to the store and records the affected note only after the
// store confirms the write, so invalidation never runs ahead of
// persistence.
type storeMutator struct {
	eng     *Engine
	changed []string
}

func (m *storeMutator) Create(ctx context.Context, path, content string) (*note.Note, error) {
	n, err := m.eng.store.Create(ctx, path, content)
	if err != nil {
		return nil, err
	}
	m.changed = append(m.changed, n.ID)
	return n, nil
}

func (m *storeMutator) UpdatePath(ctx context.Context, id, path string) error {
	if err := m.eng.store.UpdatePath(ctx, id, path); err != nil {
		return err
	}
	m.changed = append(m.changed, id)
	return nil
}

func (m *storeMutator) UpdateContent(ctx context.Context, id, content string) error {
	if err := m.eng.store.UpdateContent(ctx, id, content); err != nil {
		return err
	}
	m.changed = append(m.changed, id)
	return nil
}

func (m *storeMutator) Append(ctx context.Context, id, text string) error {
	if err := m.eng.store.Append(ctx, id, text); err != nil {
		return err
	}
	m.changed = append(m.changed, id)
	return nil
}

// applyMutations drops cached state invalidated by confirmed writes:
// the memoized field hashes, and every entry scoped to a changed note.
// Per-note clears go through the session manager, so an active edit
// session can defer the one targeting its originating note.
func (e *Engine) applyMutations(ctx context.Context, changed []string) {
	if len(changed) == 0 {
		return
	}
	e.checker.Invalidate()
	for _, id := range changed {
		scope := cache.ForNote(id)
		e.sessions.Route(id, func() {
			e.cache.ClearScope(ctx, scope)
		})
	}
}

// NoteChanged tells the engine a note changed outside directive
// evaluation, such as the user typing into it. Entries scoped to the
// note are dropped; entries elsewhere that read it go stale through
// their recorded hashes on the next lookup.
func (e *Engine) NoteChanged(ctx context.Context, id string) {
	e.checker.Invalidate()
	scope := cache.ForNote(id)
	e.sessions.Route(id, func() {
		e.cache.ClearScope(ctx, scope)
	})
}

// NoteDeleted drops every entry scoped to a deleted note immediately.
// Deletion is never deferred: a session's originating note cannot
// meaningfully keep rendering after it is gone.
func (e *Engine) NoteDeleted(ctx context.Context, id string) {
	e.checker.Invalidate()
	e.cache.ClearScope(ctx, cache.ForNote(id))
}
