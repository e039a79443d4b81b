package analysis

import (
	"github.com/thymelang/thyme/pkg/ast"
	"github.com/thymelang/thyme/pkg/deps"
	"github.com/thymelang/thyme/pkg/evaluator"
	"github.com/thymelang/thyme/pkg/note"
)

// valueKind is what the walker can know about an expression's value
// without running it.
type valueKind int

const (
	kindOther       valueKind = iota // not a note, or nothing is known
	kindKnownNote                    // a note resolved at analysis time
	kindUnknownNote                  // a note whose identity only run time decides
)

type valueInfo struct {
	kind valueKind
	n    *note.Note // set for kindKnownNote
}

var otherValue = valueInfo{kind: kindOther}
var unknownNote = valueInfo{kind: kindUnknownNote}

// depWalker accumulates the dependency set for one directive. The scope
// map tracks variable bindings so a note bound to a name keeps its
// identity: `[n: .; n.name]` depends on one note's first line, not on
// every name in the collection.
type depWalker struct {
	set     *deps.Set
	current *note.Note
	col     note.Collection
	reg     *evaluator.Registry
	scope   map[string]valueInfo
}

// Dependencies predicts which collection facts evaluating the directive
// will read, without evaluating it. Reads with a statically known target
// record per-note facts; reads through lambda parameters and call results
// fall back to the collection-wide field flags bounding them. Hierarchy
// navigation from the containing note resolves against the collection now
// and records the resolution itself.
func Dependencies(directive *ast.Directive, current *note.Note, col note.Collection, reg *evaluator.Registry) *deps.Set {
	w := &depWalker{
		set:     deps.NewSet(),
		current: current,
		col:     col,
		reg:     reg,
		scope:   make(map[string]valueInfo),
	}
	if directive.Expression != nil {
		w.walk(directive.Expression)
	}

	// The self-access scan covers deferred action bodies too: a button
	// whose action touches the containing note still pins the directive
	// to that note's cache scope.
	ast.Inspect(directive, func(n ast.Node) bool {
		if _, ok := n.(*ast.CurrentNoteRef); ok {
			w.set.SelfAccess = true
		}
		return true
	})
	return w.set
}

func (w *depWalker) walk(node ast.Expression) valueInfo {
	switch n := node.(type) {
	case *ast.StatementList:
		last := otherValue
		for _, stmt := range n.Statements {
			last = w.walk(stmt)
		}
		return last

	case *ast.Assignment:
		switch target := n.Target.(type) {
		case *ast.VariableRef:
			w.scope[target.Name] = w.walk(n.Value)
		case *ast.PropertyAccess:
			w.walk(target.Target)
			w.walk(n.Value)
			w.set.Mutating = true
		default:
			w.walk(n.Value)
		}
		return otherValue

	case *ast.CurrentNoteRef:
		if w.current != nil {
			return valueInfo{kind: kindKnownNote, n: w.current}
		}
		return unknownNote

	case *ast.PropertyAccess:
		return w.readProperty(w.walk(n.Target), n.Name)

	case *ast.MethodCall:
		return w.walkMethod(n)

	case *ast.CallExpr:
		return w.walkCall(n)

	case *ast.LambdaExpr:
		w.walkLambdaBody(n)
		return otherValue

	default:
		// literals and pattern expressions read nothing
		return otherValue
	}
}

func (w *depWalker) readProperty(target valueInfo, name string) valueInfo {
	isNote := target.kind == kindKnownNote || target.kind == kindUnknownNote
	switch name {
	case "id":
		return otherValue
	case "path":
		if isNote {
			w.set.Path = true
		}
		return otherValue
	case "modified":
		if isNote {
			w.set.Modified = true
		}
		return otherValue
	case "created":
		if isNote {
			w.set.Created = true
		}
		return otherValue
	case "viewed":
		if isNote {
			w.set.Viewed = true
		}
		return otherValue
	case "name":
		switch target.kind {
		case kindKnownNote:
			w.set.AddFirstLine(target.n.ID)
		case kindUnknownNote:
			w.set.Name = true
		}
		return otherValue
	case "body":
		switch target.kind {
		case kindKnownNote:
			w.set.AddBody(target.n.ID)
		case kindUnknownNote:
			w.set.Content = true
		}
		return otherValue
	case "up":
		return w.navigate(target, deps.HierUp, 1)
	case "root":
		return w.navigate(target, deps.HierRoot, 0)
	default:
		return otherValue
	}
}

// navigate mirrors the evaluator: navigation from the containing note is
// resolved here and recorded as a hierarchy dependency; navigation from
// any other note depends on the path tree at large.
func (w *depWalker) navigate(from valueInfo, kind deps.HierKind, steps int) valueInfo {
	if from.kind == kindKnownNote && w.current != nil && from.n.ID == w.current.ID {
		var target *note.Note
		var ok bool
		if kind == deps.HierRoot {
			target, ok = note.Root(w.col, from.n)
		} else {
			target, ok = note.Ancestor(w.col, from.n, steps)
		}
		resolvedID := ""
		if ok {
			resolvedID = target.ID
		}
		w.set.AddHierarchy(deps.HierarchyDep{Kind: kind, Steps: steps, ResolvedID: resolvedID})
		if !ok {
			return otherValue
		}
		return valueInfo{kind: kindKnownNote, n: target}
	}

	if from.kind == kindKnownNote || from.kind == kindUnknownNote {
		w.set.Path = true
		return unknownNote
	}
	return otherValue
}

func (w *depWalker) walkMethod(n *ast.MethodCall) valueInfo {
	target := w.walk(n.Target)
	for _, na := range n.Named {
		w.walk(na.Value)
	}

	switch n.Name {
	case "append":
		for _, arg := range n.Args {
			w.walk(arg)
		}
		w.set.Mutating = true
		return otherValue

	case "up":
		for _, arg := range n.Args {
			w.walk(arg)
		}
		if len(n.Args) == 1 {
			if lit, ok := n.Args[0].(*ast.NumberLiteral); ok && lit.Value == float64(int(lit.Value)) && lit.Value >= 1 {
				return w.navigate(target, deps.HierUp, int(lit.Value))
			}
		}
		// step count only known at run time
		if target.kind == kindKnownNote || target.kind == kindUnknownNote {
			w.set.Path = true
			return unknownNote
		}
		return otherValue

	default:
		for _, arg := range n.Args {
			w.walk(arg)
		}
		return otherValue
	}
}

func (w *depWalker) walkCall(n *ast.CallExpr) valueInfo {
	// A bare name reads a binding when one exists; the binding's identity
	// carries through.
	if len(n.Args) == 0 && len(n.Named) == 0 {
		if info, bound := w.scope[n.Name]; bound {
			return info
		}
	}

	builtin, isBuiltin := w.reg.Lookup(n.Name)
	deferLambdas := isBuiltin && builtin.ActionConstructor

	for _, arg := range n.Args {
		if deferLambdas {
			if _, isLambda := arg.(*ast.LambdaExpr); isLambda {
				continue
			}
		}
		w.walk(arg)
	}
	for _, na := range n.Named {
		if deferLambdas {
			if _, isLambda := na.Value.(*ast.LambdaExpr); isLambda {
				continue
			}
		}
		w.walk(na.Value)
	}

	if isBuiltin {
		switch n.Name {
		case "find":
			w.set.Existence = true
			for _, na := range n.Named {
				switch na.Name {
				case "path":
					w.set.Path = true
				case "name":
					w.set.Name = true
				}
			}
		case "new", "maybe_new":
			w.set.Mutating = true
			w.set.Existence = true
			w.set.Path = true
		}
	}

	// Call results may be notes; reads on them stay collection-wide.
	return unknownNote
}

// walkLambdaBody analyzes a lambda at its definition. Parameters may be
// bound to any value at run time, so they walk as notes of unknown
// identity; bindings they shadow are restored afterwards.
func (w *depWalker) walkLambdaBody(n *ast.LambdaExpr) {
	saved := make(map[string]valueInfo, len(n.Params))
	replaced := make(map[string]bool, len(n.Params))
	for _, p := range n.Params {
		if old, ok := w.scope[p]; ok {
			saved[p] = old
			replaced[p] = true
		}
		w.scope[p] = unknownNote
	}

	w.walk(n.Body)

	for _, p := range n.Params {
		if replaced[p] {
			w.scope[p] = saved[p]
		} else {
			delete(w.scope, p)
		}
	}
}
