package evaluator

import (
	"context"

	"github.com/thymelang/thyme/pkg/object"
)

func registerPatternFns(r *Registry) {
	r.register(&Builtin{Name: "matches", Fn: fnMatches})
}

// fnMatches is a whole-string match: the pattern must describe all of
// the input, not merely occur somewhere inside it.
func fnMatches(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed(); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(2); errObj != nil {
		return errObj
	}
	s, errObj := call.String(0)
	if errObj != nil {
		return errObj
	}
	p, errObj := call.Pattern(1)
	if errObj != nil {
		return errObj
	}
	return object.NativeBoolToBoolean(p.Match(s))
}
