package evaluator

import (
	"context"

	"github.com/thymelang/thyme/pkg/object"
)

func registerCompareFns(r *Registry) {
	r.register(&Builtin{Name: "eq", Fn: fnEq})
	r.register(&Builtin{Name: "ne", Fn: fnNe})
	r.register(&Builtin{Name: "gt", Fn: ordering(func(c int) bool { return c > 0 })})
	r.register(&Builtin{Name: "lt", Fn: ordering(func(c int) bool { return c < 0 })})
	r.register(&Builtin{Name: "gte", Fn: ordering(func(c int) bool { return c >= 0 })})
	r.register(&Builtin{Name: "lte", Fn: ordering(func(c int) bool { return c <= 0 })})
	r.register(&Builtin{Name: "and", Fn: fnAnd})
	r.register(&Builtin{Name: "or", Fn: fnOr})
	r.register(&Builtin{Name: "not", Fn: fnNot})
}

// fnEq never errors: values of different types are simply unequal.
func fnEq(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed(); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(2); errObj != nil {
		return errObj
	}
	return object.NativeBoolToBoolean(object.Equals(call.Args[0], call.Args[1]))
}

func fnNe(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed(); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(2); errObj != nil {
		return errObj
	}
	return object.NativeBoolToBoolean(!object.Equals(call.Args[0], call.Args[1]))
}

// ordering builds gt/lt/gte/lte. A string compared against a temporal
// value is parsed as that temporal type first; any other unordered pair
// is an execution error.
func ordering(accept func(c int) bool) BuiltinFn {
	return func(ctx context.Context, env *object.Environment, call *Call) object.Object {
		if errObj := call.OnlyNamed(); errObj != nil {
			return errObj
		}
		if errObj := call.Exactly(2); errObj != nil {
			return errObj
		}
		a, b, errObj := coerceComparable(call, call.Args[0], call.Args[1])
		if errObj != nil {
			return errObj
		}
		c, ok := object.Compare(a, b)
		if !ok {
			return call.Errorf("cannot order %s against %s", object.TypeName(a), object.TypeName(b))
		}
		return object.NativeBoolToBoolean(accept(c))
	}
}

// coerceComparable parses a string operand into the other operand's
// temporal type, so "2024-01-15" compares against a date.
func coerceComparable(call *Call, a, b object.Object) (object.Object, object.Object, *object.Error) {
	if isTemporal(a) {
		if s, ok := b.(*object.String); ok {
			parsed, errObj := parseAsTemporal(call, 1, s.Value, a)
			if errObj != nil {
				return nil, nil, errObj
			}
			return a, parsed, nil
		}
	}
	if isTemporal(b) {
		if s, ok := a.(*object.String); ok {
			parsed, errObj := parseAsTemporal(call, 0, s.Value, b)
			if errObj != nil {
				return nil, nil, errObj
			}
			return parsed, b, nil
		}
	}
	return a, b, nil
}

func isTemporal(obj object.Object) bool {
	switch obj.(type) {
	case *object.Date, *object.Time, *object.DateTime:
		return true
	}
	return false
}

func fnAnd(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed(); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(2); errObj != nil {
		return errObj
	}
	a, errObj := call.Boolean(0)
	if errObj != nil {
		return errObj
	}
	b, errObj := call.Boolean(1)
	if errObj != nil {
		return errObj
	}
	return object.NativeBoolToBoolean(a && b)
}

func fnOr(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed(); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(2); errObj != nil {
		return errObj
	}
	a, errObj := call.Boolean(0)
	if errObj != nil {
		return errObj
	}
	b, errObj := call.Boolean(1)
	if errObj != nil {
		return errObj
	}
	return object.NativeBoolToBoolean(a || b)
}

func fnNot(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed(); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(1); errObj != nil {
		return errObj
	}
	v, errObj := call.Boolean(0)
	if errObj != nil {
		return errObj
	}
	return object.NativeBoolToBoolean(!v)
}
