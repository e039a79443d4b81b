package evaluator

import (
	"context"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/thymelang/thyme/pkg/object"
)

func registerDatetimeFns(r *Registry) {
	r.register(&Builtin{Name: "date", Dynamic: true, Fn: fnDate})
	r.register(&Builtin{Name: "time", Dynamic: true, Fn: fnTime})
	r.register(&Builtin{Name: "datetime", Dynamic: true, Fn: fnDatetime})
	r.register(&Builtin{Name: "parse_date", Fn: fnParseDate})
}

func fnDate(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := zeroArgs(call); errObj != nil {
		return errObj
	}
	now := env.Now()
	return object.NewDate(now.Year(), now.Month(), now.Day())
}

func fnTime(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := zeroArgs(call); errObj != nil {
		return errObj
	}
	now := env.Now()
	return &object.Time{Hour: now.Hour(), Minute: now.Minute(), Second: now.Second()}
}

func fnDatetime(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := zeroArgs(call); errObj != nil {
		return errObj
	}
	return &object.DateTime{Value: env.Now()}
}

func zeroArgs(call *Call) *object.Error {
	if errObj := call.OnlyNamed(); errObj != nil {
		return errObj
	}
	return call.Exactly(0)
}

// clockFormats are tried before general parsing so "09:30" comes back as
// a time of day rather than a datetime on some arbitrary date.
var clockFormats = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04pm",
	"3pm",
}

func fnParseDate(ctx context.Context, env *object.Environment, call *Call) object.Object {
	if errObj := call.OnlyNamed(); errObj != nil {
		return errObj
	}
	if errObj := call.Exactly(1); errObj != nil {
		return errObj
	}
	input, errObj := call.String(0)
	if errObj != nil {
		return errObj
	}

	obj, perr := parseTemporal(input)
	if perr != nil {
		return call.ArgErrorf(0, "cannot parse %q as a date or time", input)
	}
	return obj
}

// parseTemporal turns a string into a Time, Date, or DateTime, deciding
// the kind from what the string actually says.
func parseTemporal(input string) (object.Object, error) {
	trimmed := strings.TrimSpace(input)
	for _, format := range clockFormats {
		if t, err := time.Parse(format, trimmed); err == nil {
			return &object.Time{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}

	t, err := dateparse.ParseAny(trimmed)
	if err != nil {
		return nil, err
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && !containsClock(trimmed) {
		return object.NewDate(t.Year(), t.Month(), t.Day()), nil
	}
	return &object.DateTime{Value: t}, nil
}

func containsClock(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, ":") || strings.Contains(lower, "am") || strings.Contains(lower, "pm")
}

// parseAsTemporal parses s into the same temporal kind as sample, for
// temporal-against-string comparison.
func parseAsTemporal(call *Call, argIndex int, s string, sample object.Object) (object.Object, *object.Error) {
	trimmed := strings.TrimSpace(s)
	switch sample.(type) {
	case *object.Time:
		for _, format := range clockFormats {
			if t, err := time.Parse(format, trimmed); err == nil {
				return &object.Time{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
			}
		}
		return nil, call.ArgErrorf(argIndex, "cannot parse %q as a time", s)
	case *object.Date:
		t, err := dateparse.ParseAny(trimmed)
		if err != nil {
			return nil, call.ArgErrorf(argIndex, "cannot parse %q as a date", s)
		}
		return object.NewDate(t.Year(), t.Month(), t.Day()), nil
	default:
		t, err := dateparse.ParseAny(trimmed)
		if err != nil {
			return nil, call.ArgErrorf(argIndex, "cannot parse %q as a datetime", s)
		}
		return &object.DateTime{Value: t}, nil
	}
}
