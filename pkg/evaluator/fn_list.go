package evaluator

import (
	"context"
	"sort"

	"github.com/thymelang/thyme/pkg/object"
)

func registerListFns(r *Registry) {
	r.register(&Builtin{Name: "list", Fn: fnList})
	r.register(&Builtin{Name: "first", Fn: fnFirst})
	r.register(&Builtin{Name: "sort", Fn: fnSort})
	r.register(&Builtin{Name: "ascending", Fn: orderConstant("ascending")})
	r.register(&Builtin{Name: "descending", Fn: orderConstant("descending")})
}

func fnList(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed(); errObj != nil {
		return errObj
	}
	elements := make([]object.Object, len(call.Args))
	copy(elements, call.Args)
	return &object.List{Elements: elements}
}

// fnFirst yields the first element, or Undefined on an empty list. Never
// an error: "nothing there" is an answer.
func fnFirst(ctx context.Context, env *object.Environment, call *Call) object.Object {
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
	if len(list.Elements) == 0 {
		return object.UNDEFINED
	}
	return list.Elements[0]
}

// fnSort sorts a copy of the list. An optional `key:` lambda maps each
// element to the value actually compared; `order:` takes ascending or
// descending. The sort is stable.
func fnSort(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed("key", "order"); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(1); errObj != nil {
		return errObj
	}
	list, errObj := call.List(0)
	if errObj != nil {
		return errObj
	}

	descending := false
	if orderVal, ok := call.NamedValue("order"); ok {
		s, isStr := orderVal.(*object.String)
		if !isStr || (s.Value != "ascending" && s.Value != "descending") {
			return call.NamedErrorf("order", "order must be ascending or descending")
		}
		descending = s.Value == "descending"
	}

	elements := make([]object.Object, len(list.Elements))
	copy(elements, list.Elements)

	keys := elements
	if keyFn, ok, errObj := call.NamedLambda("key"); errObj != nil {
		return errObj
	} else if ok {
		keys = make([]object.Object, len(elements))
		for i, el := range elements {
			k := call.ApplyLambda(ctx, keyFn, el)
			if object.IsError(k) {
				return k
			}
			keys[i] = k
		}
	}

	indices := make([]int, len(elements))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		c := object.SortCompare(keys[indices[i]], keys[indices[j]])
		if descending {
			return c > 0
		}
		return c < 0
	})

	sorted := make([]object.Object, len(elements))
	for i, idx := range indices {
		sorted[i] = elements[idx]
	}
	return &object.List{Elements: sorted}
}

// orderConstant builds the ascending/descending builtins, which evaluate
// to their own names so `order: descending` reads naturally.
func orderConstant(name string) BuiltinFn {
	return func(ctx context.Context, env *object.Environment, call *Call) object.Object {
		if errObj := call.OnlyNamed(); errObj != nil {
			return errObj
		}
		if errObj := call.Exactly(0); errObj != nil {
			return errObj
		}
		return &object.String{Value: name}
	}
}
