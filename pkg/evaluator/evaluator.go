package evaluator

import (
	"context"

	"github.com/thymelang/thyme/pkg/ast"
	"github.com/thymelang/thyme/pkg/deps"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/object"
)

// Evaluator walks directive ASTs. It is stateless apart from the
// registry, so one instance serves concurrent executions.
type Evaluator struct {
	registry *Registry
}

// New returns an evaluator using the given builtin registry.
func New(registry *Registry) *Evaluator {
	return &Evaluator{registry: registry}
}

// Registry returns the evaluator's builtin table.
func (ev *Evaluator) Registry() *Registry {
	return ev.registry
}

// Eval evaluates node in env. Failures come back as error values, never
// panics; every error is positioned within the directive source.
func (ev *Evaluator) Eval(ctx context.Context, node ast.Node, env *object.Environment) object.Object {
	switch node := node.(type) {
	case *ast.Directive:
		if node.Expression == nil {
			return &object.String{Value: ""}
		}
		return ev.Eval(ctx, node.Expression, env)

	case *ast.NumberLiteral:
		return &object.Number{Value: node.Value}

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}

	case *ast.StatementList:
		return ev.evalStatementList(ctx, node, env)

	case *ast.Assignment:
		return ev.evalAssignment(ctx, node, env)

	case *ast.LambdaExpr:
		return &object.Lambda{Params: node.Params, Body: node.Body, Env: env}

	case *ast.PatternExpr:
		pattern, err := object.CompilePattern(node.Elements, node.Offset())
		if err != nil {
			return &object.Error{Err: err}
		}
		return pattern

	case *ast.CurrentNoteRef:
		return ev.evalCurrentNote(node, env)

	case *ast.PropertyAccess:
		return ev.evalPropertyAccess(ctx, node, env)

	case *ast.MethodCall:
		return ev.evalMethodCall(ctx, node, env)

	case *ast.CallExpr:
		return ev.evalCall(ctx, node, env)

	case *ast.VariableRef:
		if val, ok := env.Get(node.Name); ok {
			return val
		}
		return &object.Error{Err: terrors.NewUnknownName(node.Name, node.Offset(), env.AllIdentifiers())}

	default:
		return object.NewError(node.Offset(), "cannot evaluate this expression")
	}
}

// evalStatementList runs statements in order and yields the last value.
// An empty directive is the empty string, not an error.
func (ev *Evaluator) evalStatementList(ctx context.Context, list *ast.StatementList, env *object.Environment) object.Object {
	if len(list.Statements) == 0 {
		return &object.String{Value: ""}
	}
	var result object.Object = object.UNDEFINED
	for _, stmt := range list.Statements {
		result = ev.Eval(ctx, stmt, env)
		if object.IsError(result) {
			return result
		}
	}
	return result
}

func (ev *Evaluator) evalAssignment(ctx context.Context, node *ast.Assignment, env *object.Environment) object.Object {
	switch target := node.Target.(type) {
	case *ast.VariableRef:
		val := ev.Eval(ctx, node.Value, env)
		if object.IsError(val) {
			return val
		}
		env.Set(target.Name, val)
		return object.UNDEFINED

	case *ast.CurrentNoteRef:
		return object.NewError(target.Offset(), "cannot assign to the note itself; assign to a property such as '.name' or '.path'")

	case *ast.PropertyAccess:
		return ev.evalPropertyAssignment(ctx, node, target, env)

	default:
		return object.NewError(node.Offset(), "cannot assign to this expression")
	}
}

func (ev *Evaluator) evalCurrentNote(node *ast.CurrentNoteRef, env *object.Environment) object.Object {
	if env.Current == nil {
		return object.NewError(node.Offset(), "no current note in this context")
	}
	recordDep(env, func(d *deps.Set) { d.SelfAccess = true })
	return env.WrapNote(env.Current)
}

// evalCall resolves a name in order: environment binding, builtin
// registry, unknown. A bound lambda is invoked with exact arity and
// positional arguments only; a bound plain value answers a bare
// reference and rejects arguments.
func (ev *Evaluator) evalCall(ctx context.Context, node *ast.CallExpr, env *object.Environment) object.Object {
	if val, ok := env.Get(node.Name); ok {
		if fn, isLambda := val.(*object.Lambda); isLambda {
			if len(node.Named) > 0 {
				return object.NewError(node.Named[0].NameOffset, "'%s' is a lambda and takes positional arguments only", node.Name)
			}
			args, errObj := ev.evalArgList(ctx, node.Args, env)
			if errObj != nil {
				return errObj
			}
			return ev.applyLambda(ctx, fn, args, node.Offset())
		}
		if len(node.Args) == 0 && len(node.Named) == 0 {
			return val
		}
		return object.NewError(node.Offset(), "'%s' is a %s, not a function", node.Name, object.TypeName(val))
	}

	builtin, ok := ev.registry.Lookup(node.Name)
	if !ok {
		candidates := append(env.AllIdentifiers(), ev.registry.Names()...)
		return &object.Error{Err: terrors.NewUnknownName(node.Name, node.Offset(), candidates)}
	}
	return ev.applyBuiltin(ctx, builtin, node, env)
}

// applyBuiltin evaluates the arguments, invokes the builtin, and makes
// sure whatever comes back is positioned and named. A panic inside a
// builtin surfaces as a positioned execution error.
func (ev *Evaluator) applyBuiltin(ctx context.Context, b *Builtin, node *ast.CallExpr, env *object.Environment) (result object.Object) {
	args, argOffsets, errObj := ev.evalArgs(ctx, node.Args, env)
	if errObj != nil {
		return errObj
	}
	named, namedOffsets, errObj := ev.evalNamedArgs(ctx, node.Named, env)
	if errObj != nil {
		return errObj
	}

	call := &Call{
		Name:         b.Name,
		Offset:       node.Offset(),
		Args:         args,
		ArgOffsets:   argOffsets,
		Named:        named,
		NamedOffsets: namedOffsets,
		ev:           ev,
	}

	defer func() {
		if r := recover(); r != nil {
			result = call.Errorf("%s failed: %v", b.Name, r)
		}
	}()

	result = b.Fn(ctx, env, call)
	if errVal, ok := result.(*object.Error); ok && errVal.Err != nil {
		errVal.Err = errVal.Err.WithOffset(node.Offset()).WithFn(b.Name)
	}
	return result
}

// Apply invokes a lambda from outside any directive. The engine uses it
// to run button and schedule actions on an explicit trigger.
func (ev *Evaluator) Apply(ctx context.Context, fn *object.Lambda, args []object.Object, offset int) object.Object {
	return ev.applyLambda(ctx, fn, args, offset)
}

func (ev *Evaluator) applyLambda(ctx context.Context, fn *object.Lambda, args []object.Object, offset int) object.Object {
	if len(args) != len(fn.Params) {
		return object.NewError(offset, "lambda expects %d argument(s), got %d", len(fn.Params), len(args))
	}
	scope := object.NewEnclosedEnvironment(fn.Env)
	for i, param := range fn.Params {
		scope.Set(param, args[i])
	}
	return ev.Eval(ctx, fn.Body, scope)
}

func (ev *Evaluator) evalArgs(ctx context.Context, exprs []ast.Expression, env *object.Environment) ([]object.Object, []int, object.Object) {
	args := make([]object.Object, 0, len(exprs))
	offsets := make([]int, 0, len(exprs))
	for _, expr := range exprs {
		val := ev.Eval(ctx, expr, env)
		if object.IsError(val) {
			return nil, nil, val
		}
		args = append(args, val)
		offsets = append(offsets, expr.Offset())
	}
	return args, offsets, nil
}

func (ev *Evaluator) evalArgList(ctx context.Context, exprs []ast.Expression, env *object.Environment) ([]object.Object, object.Object) {
	args, _, errObj := ev.evalArgs(ctx, exprs, env)
	return args, errObj
}

func (ev *Evaluator) evalNamedArgs(ctx context.Context, named []ast.NamedArg, env *object.Environment) (map[string]object.Object, map[string]int, object.Object) {
	if len(named) == 0 {
		return nil, nil, nil
	}
	values := make(map[string]object.Object, len(named))
	offsets := make(map[string]int, len(named))
	for _, arg := range named {
		val := ev.Eval(ctx, arg.Value, env)
		if object.IsError(val) {
			return nil, nil, val
		}
		values[arg.Name] = val
		offsets[arg.Name] = arg.NameOffset
	}
	return values, offsets, nil
}

// recordDep adds to the live dependency set when one is attached.
func recordDep(env *object.Environment, add func(*deps.Set)) {
	if env.Deps != nil {
		add(env.Deps)
	}
}
