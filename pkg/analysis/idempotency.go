// Package analysis holds the pure pre-execution passes over a directive's
// AST: the idempotency gate that keeps bare mutations out of passive
// renders, and the dependency walker that predicts which collection facts
// an execution will read.
//
// Both passes take the builtin registry as a value so they always agree
// with the evaluator about which calls mutate, which defer their actions,
// and which exist at all.
package analysis

import (
	"fmt"

	"github.com/thymelang/thyme/pkg/ast"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/evaluator"
)

// Verdict is the result of idempotency analysis. A non-idempotent verdict
// names the operation that would re-run and where it sits in the source.
type Verdict struct {
	Idempotent bool
	Reason     string
	Offset     int
}

var writableProperties = map[string]bool{
	"path": true,
	"name": true,
}

// Idempotency reports whether evaluating node twice leaves the collection
// exactly as evaluating it once would. Lambda arguments to button and
// schedule are deferred actions and are not analyzed; every other lambda
// body propagates into its surroundings.
func Idempotency(node ast.Node, reg *evaluator.Registry) Verdict {
	if reason, offset, found := findNonIdempotent(node, reg); found {
		return Verdict{Reason: reason, Offset: offset}
	}
	return Verdict{Idempotent: true}
}

// Validate gates one directive before a passive render. A top-level
// mutation that would re-run on every cache miss, or an assignment target
// the language does not allow, is rejected here so it never reaches the
// evaluator.
func Validate(directive *ast.Directive, reg *evaluator.Registry) *terrors.Error {
	v := Idempotency(directive, reg)
	if v.Idempotent {
		return nil
	}
	return terrors.New(terrors.ClassValidation, v.Offset, "this directive is not idempotent: %s", v.Reason).
		WithHint("Wrap the mutation in a button or schedule so it runs only when triggered.")
}

func findNonIdempotent(node ast.Node, reg *evaluator.Registry) (string, int, bool) {
	switch n := node.(type) {
	case nil:
		return "", 0, false

	case *ast.Directive:
		if n.Expression == nil {
			return "", 0, false
		}
		return findNonIdempotent(n.Expression, reg)

	case *ast.StatementList:
		for _, stmt := range n.Statements {
			if reason, offset, found := findNonIdempotent(stmt, reg); found {
				return reason, offset, true
			}
		}
		return "", 0, false

	case *ast.Assignment:
		switch target := n.Target.(type) {
		case *ast.VariableRef:
			return findNonIdempotent(n.Value, reg)
		case *ast.PropertyAccess:
			if !writableProperties[target.Name] {
				return fmt.Sprintf("'%s' is not an assignable property", target.Name), target.NameOffset, true
			}
			if reason, offset, found := findNonIdempotent(target.Target, reg); found {
				return reason, offset, true
			}
			return findNonIdempotent(n.Value, reg)
		case *ast.CurrentNoteRef:
			return "the note itself is not an assignable target; assign to '.path' or '.name'", target.Offset(), true
		default:
			return fmt.Sprintf("%s is not an assignable target", target.String()), target.Offset(), true
		}

	case *ast.CallExpr:
		if b, ok := reg.Lookup(n.Name); ok {
			if b.NonIdempotent {
				return fmt.Sprintf("'%s' mutates the collection each time it runs", n.Name), n.Token.Offset, true
			}
			if b.ActionConstructor {
				return findInArgs(n.Args, n.Named, reg, true)
			}
		}
		return findInArgs(n.Args, n.Named, reg, false)

	case *ast.MethodCall:
		if n.Name == "append" {
			return "'append' mutates the collection each time it runs", n.NameOffset, true
		}
		if reason, offset, found := findNonIdempotent(n.Target, reg); found {
			return reason, offset, true
		}
		return findInArgs(n.Args, n.Named, reg, false)

	case *ast.PropertyAccess:
		return findNonIdempotent(n.Target, reg)

	case *ast.LambdaExpr:
		return findNonIdempotent(n.Body, reg)

	default:
		// literals, pattern expressions, references
		return "", 0, false
	}
}

// findInArgs scans a call's arguments. Action constructors defer their
// lambda arguments: those bodies run on an explicit trigger, not during
// the render being validated.
func findInArgs(args []ast.Expression, named []ast.NamedArg, reg *evaluator.Registry, deferLambdas bool) (string, int, bool) {
	for _, arg := range args {
		if deferLambdas {
			if _, isLambda := arg.(*ast.LambdaExpr); isLambda {
				continue
			}
		}
		if reason, offset, found := findNonIdempotent(arg, reg); found {
			return reason, offset, true
		}
	}
	for _, na := range named {
		if deferLambdas {
			if _, isLambda := na.Value.(*ast.LambdaExpr); isLambda {
				continue
			}
		}
		if reason, offset, found := findNonIdempotent(na.Value, reg); found {
			return reason, offset, true
		}
	}
	return "", 0, false
}
