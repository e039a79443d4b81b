package evaluator

import (
	"context"

	"github.com/thymelang/thyme/pkg/object"
)

func registerActionFns(r *Registry) {
	r.register(&Builtin{Name: "button", ActionConstructor: true, Fn: fnButton})
	r.register(&Builtin{Name: "schedule", ActionConstructor: true, Fn: fnSchedule})
}

// fnButton wraps a deferred action behind a label. The action is not
// evaluated here; external code triggers it through the engine.
func fnButton(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed(); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(2); errObj != nil {
		return errObj
	}
	label, errObj := call.String(0)
	if errObj != nil {
		return errObj
	}
	action, errObj := call.Lambda(1)
	if errObj != nil {
		return errObj
	}
	if len(action.Params) > 1 {
		return call.ArgErrorf(1, "a button action takes at most one parameter, the triggering note")
	}
	return &object.Button{Label: label, Action: action}
}

var scheduleFrequencies = map[string]bool{
	"hourly":  true,
	"daily":   true,
	"weekly":  true,
	"monthly": true,
}

func fnSchedule(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed("at"); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(2); errObj != nil {
		return errObj
	}
	frequency, errObj := call.String(0)
	if errObj != nil {
		return errObj
	}
	if !scheduleFrequencies[frequency] {
		return call.ArgErrorf(0, "unknown schedule frequency %q; use hourly, daily, weekly, or monthly", frequency)
	}
	action, errObj := call.Lambda(1)
	if errObj != nil {
		return errObj
	}
	if len(action.Params) > 1 {
		return call.ArgErrorf(1, "a schedule action takes at most one parameter, the triggering note")
	}

	s := &object.Schedule{Frequency: frequency, Action: action}
	if atVal, ok := call.NamedValue("at"); ok {
		at, isTime := atVal.(*object.Time)
		if !isTime {
			return call.NamedErrorf("at", "schedule expects a time for 'at', got %s", object.TypeName(atVal))
		}
		s.At = at
	}
	return s
}
