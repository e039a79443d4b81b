package evaluator

import (
	"context"
	"strings"

	"github.com/thymelang/thyme/pkg/ast"
	"github.com/thymelang/thyme/pkg/deps"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/note"
	"github.com/thymelang/thyme/pkg/object"
)

var notePropertyNames = []string{
	"body", "created", "id", "modified", "name", "path", "root", "up", "viewed",
}

func (ev *Evaluator) evalPropertyAccess(ctx context.Context, node *ast.PropertyAccess, env *object.Environment) object.Object {
	target := ev.Eval(ctx, node.Target, env)
	if object.IsError(target) {
		return target
	}
	switch t := target.(type) {
	case *object.Note:
		return ev.readNoteProperty(t, node.Name, node.NameOffset, env)
	case *object.Undefined:
		return object.NewError(node.NameOffset, "cannot read '%s' of an undefined value", node.Name)
	default:
		return object.NewError(node.NameOffset, "%s values have no properties", object.TypeName(target))
	}
}

func (ev *Evaluator) readNoteProperty(ref *object.Note, name string, offset int, env *object.Environment) object.Object {
	n, ok := env.ResolveNote(ref)
	if !ok {
		return object.NewError(offset, "note '%s' no longer exists", ref.Name)
	}

	switch name {
	case "id":
		return &object.String{Value: n.ID}
	case "path":
		recordDep(env, func(d *deps.Set) { d.Path = true })
		return &object.String{Value: n.Path}
	case "name":
		recordDep(env, func(d *deps.Set) { d.AddFirstLine(n.ID) })
		return &object.String{Value: n.Name()}
	case "body":
		recordDep(env, func(d *deps.Set) { d.AddBody(n.ID) })
		return &object.String{Value: n.Body()}
	case "created":
		recordDep(env, func(d *deps.Set) { d.Created = true })
		return &object.DateTime{Value: n.CreatedAt}
	case "modified":
		recordDep(env, func(d *deps.Set) { d.Modified = true })
		return &object.DateTime{Value: n.ModifiedAt}
	case "viewed":
		recordDep(env, func(d *deps.Set) { d.Viewed = true })
		return &object.DateTime{Value: n.ViewedAt}
	case "up":
		return ev.navigate(n, deps.HierUp, 1, env)
	case "root":
		return ev.navigate(n, deps.HierRoot, 0, env)
	default:
		errVal := terrors.New(terrors.ClassExecution, offset, "notes have no property '%s'", name)
		if suggestion := terrors.FindClosestMatch(name, notePropertyNames); suggestion != "" {
			errVal = errVal.WithHint("Did you mean `" + suggestion + "`?")
		}
		return &object.Error{Err: errVal}
	}
}

// navigate resolves up/up(n)/root from a note. Navigating from the
// current note records a hierarchy dependency on the resolution itself;
// from any other note the resolution depends on the path tree at large.
// A missing target is Undefined, not an error.
func (ev *Evaluator) navigate(from *note.Note, kind deps.HierKind, steps int, env *object.Environment) object.Object {
	var target *note.Note
	var ok bool
	if kind == deps.HierRoot {
		target, ok = note.Root(env.Collection, from)
	} else {
		target, ok = note.Ancestor(env.Collection, from, steps)
	}

	resolvedID := ""
	if ok {
		resolvedID = target.ID
	}
	if env.Current != nil && from.ID == env.Current.ID {
		recordDep(env, func(d *deps.Set) {
			d.AddHierarchy(deps.HierarchyDep{Kind: kind, Steps: steps, ResolvedID: resolvedID})
		})
	} else {
		recordDep(env, func(d *deps.Set) { d.Path = true })
	}

	if !ok {
		return object.UNDEFINED
	}
	return env.WrapNote(target)
}

func (ev *Evaluator) evalMethodCall(ctx context.Context, node *ast.MethodCall, env *object.Environment) object.Object {
	target := ev.Eval(ctx, node.Target, env)
	if object.IsError(target) {
		return target
	}
	ref, ok := target.(*object.Note)
	if !ok {
		return object.NewError(node.NameOffset, "%s values have no methods", object.TypeName(target))
	}
	if len(node.Named) > 0 {
		return object.NewError(node.Named[0].NameOffset, "'%s' does not take named arguments", node.Name)
	}
	args, errObj := ev.evalArgList(ctx, node.Args, env)
	if errObj != nil {
		return errObj
	}

	n, ok := env.ResolveNote(ref)
	if !ok {
		return object.NewError(node.NameOffset, "note '%s' no longer exists", ref.Name)
	}

	switch node.Name {
	case "up":
		if len(args) != 1 {
			return object.NewError(node.NameOffset, "up expects 1 argument, got %d", len(args))
		}
		num, isNum := args[0].(*object.Number)
		if !isNum || num.Value != float64(int(num.Value)) || num.Value < 1 {
			return object.NewError(node.Args[0].Offset(), "up expects a whole number of steps, at least 1")
		}
		return ev.navigate(n, deps.HierUp, int(num.Value), env)

	case "append":
		if len(args) != 1 {
			return object.NewError(node.NameOffset, "append expects 1 argument, got %d", len(args))
		}
		text, isStr := args[0].(*object.String)
		if !isStr {
			return object.NewError(node.Args[0].Offset(), "append expects a string, got %s", object.TypeName(args[0]))
		}
		if env.Mutator == nil {
			return object.NewError(node.NameOffset, "no mutation sink in this context")
		}
		// append adds the text as a new line at the end of the note
		joined := text.Value
		if n.Content != "" && !strings.HasSuffix(n.Content, "\n") {
			joined = "\n" + joined
		}
		if err := env.Mutator.Append(ctx, n.ID, joined); err != nil {
			return &object.Error{Err: terrors.Wrap(err, node.NameOffset, "could not append to '%s'", n.Name())}
		}
		recordDep(env, func(d *deps.Set) { d.Mutating = true })
		return object.UNDEFINED

	default:
		errVal := terrors.New(terrors.ClassExecution, node.NameOffset, "notes have no method '%s'", node.Name)
		if suggestion := terrors.FindClosestMatch(node.Name, []string{"append", "up"}); suggestion != "" {
			errVal = errVal.WithHint("Did you mean `" + suggestion + "`?")
		}
		return &object.Error{Err: errVal}
	}
}

// evalPropertyAssignment handles `<note>.path: value` and
// `<note>.name: value`. Only those two properties are writable; both go
// through the mutation sink.
func (ev *Evaluator) evalPropertyAssignment(ctx context.Context, node *ast.Assignment, target *ast.PropertyAccess, env *object.Environment) object.Object {
	receiver := ev.Eval(ctx, target.Target, env)
	if object.IsError(receiver) {
		return receiver
	}
	ref, ok := receiver.(*object.Note)
	if !ok {
		return object.NewError(target.NameOffset, "cannot assign a property of a %s value", object.TypeName(receiver))
	}

	if target.Name != "path" && target.Name != "name" {
		return object.NewError(target.NameOffset, "property '%s' cannot be assigned; only 'path' and 'name' can", target.Name)
	}

	val := ev.Eval(ctx, node.Value, env)
	if object.IsError(val) {
		return val
	}
	str, ok := val.(*object.String)
	if !ok {
		return object.NewError(node.Value.Offset(), "'%s' must be assigned a string, got %s", target.Name, object.TypeName(val))
	}

	if env.Mutator == nil {
		return object.NewError(target.NameOffset, "no mutation sink in this context")
	}
	n, resolved := env.ResolveNote(ref)
	if !resolved {
		return object.NewError(target.NameOffset, "note '%s' no longer exists", ref.Name)
	}

	switch target.Name {
	case "path":
		path := note.NormalizePath(str.Value)
		if path == "" {
			return object.NewError(node.Value.Offset(), "path cannot be empty")
		}
		if err := env.Mutator.UpdatePath(ctx, n.ID, path); err != nil {
			return &object.Error{Err: terrors.Wrap(err, target.NameOffset, "could not move '%s'", n.Name())}
		}
	case "name":
		if err := env.Mutator.UpdateContent(ctx, n.ID, n.WithName(str.Value)); err != nil {
			return &object.Error{Err: terrors.Wrap(err, target.NameOffset, "could not rename '%s'", n.Name())}
		}
	}
	recordDep(env, func(d *deps.Set) { d.Mutating = true })
	return object.UNDEFINED
}
