package evaluator

import (
	"context"
	"math"

	"github.com/thymelang/thyme/pkg/object"
)

func registerMathFns(r *Registry) {
	r.register(&Builtin{Name: "add", Fn: binaryNumeric(func(a, b float64) float64 { return a + b })})
	r.register(&Builtin{Name: "sub", Fn: binaryNumeric(func(a, b float64) float64 { return a - b })})
	r.register(&Builtin{Name: "mul", Fn: binaryNumeric(func(a, b float64) float64 { return a * b })})
	r.register(&Builtin{Name: "div", Fn: fnDiv})
	r.register(&Builtin{Name: "mod", Fn: fnMod})
}

func binaryNumeric(op func(a, b float64) float64) BuiltinFn {
	return func(ctx context.Context, env *object.Environment, call *Call) object.Object {
		a, b, errObj := twoNumbers(call)
		if errObj != nil {
			return errObj
		}
		return &object.Number{Value: op(a, b)}
	}
}

func twoNumbers(call *Call) (float64, float64, *object.Error) {
	if errObj := call.OnlyNamed(); errObj != nil {
		return 0, 0, errObj
	}
	if errObj := call.Exactly(2); errObj != nil {
		return 0, 0, errObj
	}
	a, errObj := call.Number(0)
	if errObj != nil {
		return 0, 0, errObj
	}
	b, errObj := call.Number(1)
	if errObj != nil {
		return 0, 0, errObj
	}
	return a, b, nil
}

func fnDiv(ctx context.Context, env *object.Environment, call *Call) object.Object {
	a, b, errObj := twoNumbers(call)
	if errObj != nil {
		return errObj
	}
	if b == 0 {
		return call.ArgErrorf(1, "division by zero")
	}
	return &object.Number{Value: a / b}
}

func fnMod(ctx context.Context, env *object.Environment, call *Call) object.Object {
	a, b, errObj := twoNumbers(call)
	if errObj != nil {
		return errObj
	}
	if b == 0 {
		return call.ArgErrorf(1, "modulo by zero")
	}
	return &object.Number{Value: math.Mod(a, b)}
}
