// Package evaluator walks a directive's AST and produces a value. The
// builtin table is an explicit Registry value, never package state, so
// analyzers and independent evaluator instances can share or replace it.
package evaluator

import (
	"context"
	"sort"

	"github.com/thymelang/thyme/pkg/ast"
	"github.com/thymelang/thyme/pkg/object"
)

// BuiltinFn is the implementation of one builtin. Arguments arrive
// evaluated; the implementation reports failures as error values.
type BuiltinFn func(ctx context.Context, env *object.Environment, call *Call) object.Object

// Builtin is one registry entry. The tags drive analysis and caching:
// Dynamic calls may return differently on identical inputs and make a
// directive uncacheable; Mutating calls write through the mutation sink;
// NonIdempotent calls must not run on passive re-renders; action
// constructors defer their lambda arguments from idempotency analysis.
type Builtin struct {
	Name              string
	Fn                BuiltinFn
	Dynamic           bool
	Mutating          bool
	NonIdempotent     bool
	ActionConstructor bool
}

// Registry maps builtin names to their entries.
type Registry struct {
	builtins map[string]*Builtin
}

// NewRegistry builds the full builtin table.
func NewRegistry() *Registry {
	r := &Registry{builtins: make(map[string]*Builtin)}
	registerMathFns(r)
	registerCompareFns(r)
	registerDatetimeFns(r)
	registerListFns(r)
	registerPatternFns(r)
	registerNoteFns(r)
	registerActionFns(r)
	return r
}

func (r *Registry) register(b *Builtin) {
	r.builtins[b.Name] = b
}

// Lookup returns the entry for name.
func (r *Registry) Lookup(name string) (*Builtin, bool) {
	b, ok := r.builtins[name]
	return b, ok
}

// Names returns every builtin name, sorted, for suggestion hints.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContainsDynamicCalls reports whether any reachable call in node names
// a dynamic builtin. Lambda bodies count: a directive holding a deferred
// dynamic call is still unsafe to cache once something invokes it.
func (r *Registry) ContainsDynamicCalls(node ast.Node) bool {
	found := false
	ast.Inspect(node, func(n ast.Node) bool {
		if found {
			return false
		}
		if call, ok := n.(*ast.CallExpr); ok {
			if b, ok := r.Lookup(call.Name); ok && b.Dynamic {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// ContainsMutatingCalls reports whether any reachable call in node names
// a mutating builtin or the append method.
func (r *Registry) ContainsMutatingCalls(node ast.Node) bool {
	found := false
	ast.Inspect(node, func(n ast.Node) bool {
		if found {
			return false
		}
		switch n := n.(type) {
		case *ast.CallExpr:
			if b, ok := r.Lookup(n.Name); ok && b.Mutating {
				found = true
				return false
			}
		case *ast.MethodCall:
			if n.Name == "append" {
				found = true
				return false
			}
		case *ast.Assignment:
			if _, ok := n.Target.(*ast.VariableRef); !ok {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
