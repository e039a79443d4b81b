package evaluator

import (
	"context"
	"slices"

	"github.com/thymelang/thyme/pkg/deps"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/note"
	"github.com/thymelang/thyme/pkg/object"
)

func registerNoteFns(r *Registry) {
	r.register(&Builtin{Name: "find", Fn: fnFind})
	r.register(&Builtin{Name: "new", Mutating: true, NonIdempotent: true, Fn: fnNew})
	r.register(&Builtin{Name: "maybe_new", Mutating: true, Fn: fnMaybeNew})
	r.register(&Builtin{Name: "view", Fn: fnView})
}

// fnFind filters the whole collection. Filters AND together: an exact or
// pattern match on path, the same on name, and a one-parameter predicate
// lambda. The containing note is never part of the result.
func fnFind(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed("path", "name", "where"); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(0); errObj != nil {
		return errObj
	}
	if env.Collection == nil {
		return call.Errorf("no note collection in this context")
	}

	pathFilter, hasPath := call.NamedValue("path")
	nameFilter, hasName := call.NamedValue("name")
	where, hasWhere, errObj := call.NamedLambda("where")
	if errObj != nil {
		return errObj
	}

	recordDep(env, func(d *deps.Set) {
		d.Existence = true
		if hasPath {
			d.Path = true
		}
		if hasName {
			d.Name = true
		}
	})

	var results []object.Object
	for _, n := range env.Collection.All() {
		if env.Current != nil && n.ID == env.Current.ID {
			continue
		}
		if hasPath {
			ok, errObj := matchFilter(call, "path", pathFilter, n.Path)
			if errObj != nil {
				return errObj
			}
			if !ok {
				continue
			}
		}
		if hasName {
			ok, errObj := matchFilter(call, "name", nameFilter, n.Name())
			if errObj != nil {
				return errObj
			}
			if !ok {
				continue
			}
		}
		if hasWhere {
			verdict := call.ApplyLambda(ctx, where, env.WrapNote(n))
			if object.IsError(verdict) {
				return verdict
			}
			keep, isBool := verdict.(*object.Boolean)
			if !isBool {
				return call.NamedErrorf("where", "where must return a boolean, got %s", object.TypeName(verdict))
			}
			if !keep.Value {
				continue
			}
		}
		results = append(results, env.WrapNote(n))
	}
	return &object.List{Elements: results}
}

// matchFilter applies one exact-or-pattern filter value.
func matchFilter(call *Call, filterName string, filter object.Object, value string) (bool, *object.Error) {
	switch f := filter.(type) {
	case *object.String:
		if filterName == "path" {
			return note.NormalizePath(f.Value) == value, nil
		}
		return f.Value == value, nil
	case *object.Pattern:
		return f.Match(value), nil
	default:
		return false, call.NamedErrorf(filterName, "find expects a string or pattern for '%s', got %s", filterName, object.TypeName(filter))
	}
}

func fnNew(ctx context.Context, env *object.Environment, call *Call) object.Object {
	created, _, errObj := createNote(ctx, env, call, false)
	if errObj != nil {
		return errObj
	}
	return created
}

// fnMaybeNew answers with the existing note at the path, creating one
// only when nothing is there. Repeat executions converge, which is what
// lets it through the idempotency gate.
func fnMaybeNew(ctx context.Context, env *object.Environment, call *Call) object.Object {
	existing, _, errObj := createNote(ctx, env, call, true)
	if errObj != nil {
		return errObj
	}
	return existing
}

func createNote(ctx context.Context, env *object.Environment, call *Call, reuseExisting bool) (object.Object, *note.Note, *object.Error) {
	if errObj := call.OnlyNamed("path", "content"); errObj != nil {
		return nil, nil, errObj
	}
	if errObj := call.Exactly(0); errObj != nil {
		return nil, nil, errObj
	}
	path, hasPath, errObj := call.NamedString("path")
	if errObj != nil {
		return nil, nil, errObj
	}
	if !hasPath {
		return nil, nil, call.Errorf("%s requires a 'path' argument", call.Name)
	}
	content, _, errObj := call.NamedString("content")
	if errObj != nil {
		return nil, nil, errObj
	}

	path = note.NormalizePath(path)
	if path == "" {
		return nil, nil, call.NamedErrorf("path", "path cannot be empty")
	}
	if env.Collection == nil {
		return nil, nil, call.Errorf("no note collection in this context")
	}

	recordDep(env, func(d *deps.Set) {
		d.Mutating = true
		d.Existence = true
		d.Path = true
	})

	if existing, ok := env.Collection.ByPath(path); ok {
		if reuseExisting {
			return env.WrapNote(existing), existing, nil
		}
		return nil, nil, call.NamedErrorf("path", "a note already exists at '%s'", path)
	}

	if env.Mutator == nil {
		return nil, nil, call.Errorf("no mutation sink in this context")
	}
	created, err := env.Mutator.Create(ctx, path, content)
	if err != nil {
		return nil, nil, &object.Error{Err: terrors.Wrap(err, call.Offset, "could not create a note at '%s'", path)}
	}
	return env.WrapNote(created), created, nil
}

// fnView renders other notes in place. Each target is rendered through
// the engine so nested directives hit the cache; their dependencies and
// the targets' contents merge into this directive's own dependency set.
func fnView(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed(); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(1); errObj != nil {
		return errObj
	}
	list, errObj := call.List(0)
	if errObj != nil {
		return errObj
	}
	if env.Executor == nil {
		return call.Errorf("view cannot render in this context")
	}

	result := &object.View{}
	for _, el := range list.Elements {
		ref, isNote := el.(*object.Note)
		if !isNote {
			return call.ArgErrorf(0, "view expects a list of notes, got a %s inside it", object.TypeName(el))
		}
		if env.Current != nil && ref.ID == env.Current.ID {
			continue
		}
		if slices.Contains(env.ViewStack, ref.ID) {
			// The verdict depends on the live render stack, not on
			// collection state, so the result must not be cached.
			recordDep(env, func(d *deps.Set) { d.Dynamic = true })
			return call.Errorf("cyclic view: '%s' is already being rendered", ref.Name)
		}
		target, ok := env.ResolveNote(ref)
		if !ok {
			return call.Errorf("note '%s' no longer exists", ref.Name)
		}

		recordDep(env, func(d *deps.Set) {
			d.AddFirstLine(target.ID)
			d.AddBody(target.ID)
		})

		rendered, dynamic, rerr := env.Executor.RenderNested(ctx, target, env.ViewStack, env.Deps)
		if rerr != nil {
			return &object.Error{Err: rerr.WithOffset(call.Offset)}
		}
		if dynamic {
			recordDep(env, func(d *deps.Set) { d.Dynamic = true })
		}
		result.Notes = append(result.Notes, ref)
		result.Rendered = append(result.Rendered, rendered)
	}
	return result
}
