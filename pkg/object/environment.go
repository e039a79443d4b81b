package object

import (
	"context"
	"time"

	"github.com/thymelang/thyme/pkg/deps"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/note"
)

// Mutator applies note mutations on behalf of a directive. Implementations
// must report success only once the change is durably applied, and are
// expected to record which notes changed so stale cache entries can be
// dropped afterwards.
type Mutator interface {
	Create(ctx context.Context, path, content string) (*note.Note, error)
	UpdatePath(ctx context.Context, id, path string) error
	UpdateContent(ctx context.Context, id, content string) error
	Append(ctx context.Context, id, text string) error
}

// Executor renders another note's directives on behalf of a view. stack
// holds the IDs of notes already being rendered, outermost first; an
// implementation must refuse a target already on the stack. It merges the
// target's dependencies into sink and reports whether any nested directive
// was dynamic.
type Executor interface {
	RenderNested(ctx context.Context, target *note.Note, stack []string, sink *deps.Set) (rendered string, dynamic bool, err *terrors.Error)
}

// Environment holds variable bindings plus the shared context evaluation
// needs: the note collection, the note the directive lives in, and the
// hooks mutations and nested rendering go through. Enclosed environments
// share the context and layer only bindings.
type Environment struct {
	store map[string]Object
	outer *Environment

	Collection note.Collection
	Current    *note.Note
	Mutator    Mutator
	Executor   Executor
	Clock      func() time.Time
	ViewStack  []string
	Deps       *deps.Set
}

// NewEnvironment creates a new top-level environment.
func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object), Deps: deps.NewSet()}
}

// NewEnclosedEnvironment creates a nested scope that shares the outer
// environment's context.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	if outer != nil {
		env.Collection = outer.Collection
		env.Current = outer.Current
		env.Mutator = outer.Mutator
		env.Executor = outer.Executor
		env.Clock = outer.Clock
		env.ViewStack = outer.ViewStack
		env.Deps = outer.Deps
	}
	return env
}

// Get looks a name up, walking enclosing scopes.
func (e *Environment) Get(name string) (Object, bool) {
	obj, ok := e.store[name]
	if !ok && e.outer != nil {
		obj, ok = e.outer.Get(name)
	}
	return obj, ok
}

// Set binds a name in this scope.
func (e *Environment) Set(name string, val Object) Object {
	e.store[name] = val
	return val
}

// Now returns the evaluation clock's current time, falling back to the
// wall clock when none was injected.
func (e *Environment) Now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// AllIdentifiers returns every name bound in this scope or an enclosing
// one, for suggestion hints on unknown-name errors.
func (e *Environment) AllIdentifiers() []string {
	seen := make(map[string]bool)
	var names []string
	for env := e; env != nil; env = env.outer {
		for name := range env.store {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// WrapNote builds a Note value for n, recording that the result displays
// its first line.
func (e *Environment) WrapNote(n *note.Note) *Note {
	if e.Deps != nil {
		e.Deps.AddFirstLine(n.ID)
	}
	return &Note{ID: n.ID, Name: n.Name(), Path: n.Path}
}

// ResolveNote looks a note value's target up in the collection.
func (e *Environment) ResolveNote(ref *Note) (*note.Note, bool) {
	if e.Collection == nil {
		return nil, false
	}
	return e.Collection.ByID(ref.ID)
}
