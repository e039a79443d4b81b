package evaluator

import (
	"context"

	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/object"
)

// Call carries one builtin invocation: evaluated arguments plus the
// offsets needed to position errors at the offending argument rather
// than the whole call.
type Call struct {
	Name   string
	Offset int

	Args       []object.Object
	ArgOffsets []int

	Named        map[string]object.Object
	NamedOffsets map[string]int

	ev *Evaluator
}

// Errorf builds an execution error positioned at the call site and named
// after the builtin.
func (c *Call) Errorf(format string, args ...any) *object.Error {
	return &object.Error{Err: terrors.New(terrors.ClassExecution, c.Offset, format, args...).WithFn(c.Name)}
}

// ArgErrorf builds an execution error positioned at argument i.
func (c *Call) ArgErrorf(i int, format string, args ...any) *object.Error {
	offset := c.Offset
	if i >= 0 && i < len(c.ArgOffsets) {
		offset = c.ArgOffsets[i]
	}
	return &object.Error{Err: terrors.New(terrors.ClassExecution, offset, format, args...).WithFn(c.Name)}
}

// NamedErrorf builds an execution error positioned at the named argument.
func (c *Call) NamedErrorf(name string, format string, args ...any) *object.Error {
	offset := c.Offset
	if o, ok := c.NamedOffsets[name]; ok {
		offset = o
	}
	return &object.Error{Err: terrors.New(terrors.ClassExecution, offset, format, args...).WithFn(c.Name)}
}

// Exactly checks the positional argument count.
func (c *Call) Exactly(n int) *object.Error {
	if len(c.Args) != n {
		return c.Errorf("%s expects %d argument(s), got %d", c.Name, n, len(c.Args))
	}
	return nil
}

// OnlyNamed rejects named arguments outside the allowed set.
func (c *Call) OnlyNamed(allowed ...string) *object.Error {
	for name := range c.Named {
		ok := false
		for _, a := range allowed {
			if name == a {
				ok = true
				break
			}
		}
		if !ok {
			if len(allowed) == 0 {
				return c.NamedErrorf(name, "%s does not take named arguments", c.Name)
			}
			return c.NamedErrorf(name, "%s does not take a '%s' argument", c.Name, name)
		}
	}
	return nil
}

// Number extracts positional argument i as a number.
func (c *Call) Number(i int) (float64, *object.Error) {
	v, ok := c.Args[i].(*object.Number)
	if !ok {
		return 0, c.ArgErrorf(i, "%s expects a number for argument %d, got %s", c.Name, i+1, object.TypeName(c.Args[i]))
	}
	return v.Value, nil
}

// String extracts positional argument i as a string.
func (c *Call) String(i int) (string, *object.Error) {
	v, ok := c.Args[i].(*object.String)
	if !ok {
		return "", c.ArgErrorf(i, "%s expects a string for argument %d, got %s", c.Name, i+1, object.TypeName(c.Args[i]))
	}
	return v.Value, nil
}

// Boolean extracts positional argument i as a boolean.
func (c *Call) Boolean(i int) (bool, *object.Error) {
	v, ok := c.Args[i].(*object.Boolean)
	if !ok {
		return false, c.ArgErrorf(i, "%s expects a boolean for argument %d, got %s", c.Name, i+1, object.TypeName(c.Args[i]))
	}
	return v.Value, nil
}

// List extracts positional argument i as a list.
func (c *Call) List(i int) (*object.List, *object.Error) {
	v, ok := c.Args[i].(*object.List)
	if !ok {
		return nil, c.ArgErrorf(i, "%s expects a list for argument %d, got %s", c.Name, i+1, object.TypeName(c.Args[i]))
	}
	return v, nil
}

// Lambda extracts positional argument i as a lambda.
func (c *Call) Lambda(i int) (*object.Lambda, *object.Error) {
	v, ok := c.Args[i].(*object.Lambda)
	if !ok {
		return nil, c.ArgErrorf(i, "%s expects a deferred action for argument %d, got %s", c.Name, i+1, object.TypeName(c.Args[i]))
	}
	return v, nil
}

// Pattern extracts positional argument i as a pattern.
func (c *Call) Pattern(i int) (*object.Pattern, *object.Error) {
	v, ok := c.Args[i].(*object.Pattern)
	if !ok {
		return nil, c.ArgErrorf(i, "%s expects a pattern for argument %d, got %s", c.Name, i+1, object.TypeName(c.Args[i]))
	}
	return v, nil
}

// NamedValue returns the named argument if present.
func (c *Call) NamedValue(name string) (object.Object, bool) {
	v, ok := c.Named[name]
	return v, ok
}

// NamedString extracts an optional named string argument.
func (c *Call) NamedString(name string) (string, bool, *object.Error) {
	v, ok := c.Named[name]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(*object.String)
	if !ok {
		return "", false, c.NamedErrorf(name, "%s expects a string for '%s', got %s", c.Name, name, object.TypeName(v))
	}
	return s.Value, true, nil
}

// NamedLambda extracts an optional named lambda argument.
func (c *Call) NamedLambda(name string) (*object.Lambda, bool, *object.Error) {
	v, ok := c.Named[name]
	if !ok {
		return nil, false, nil
	}
	fn, ok := v.(*object.Lambda)
	if !ok {
		return nil, false, c.NamedErrorf(name, "%s expects a lambda for '%s', got %s", c.Name, name, object.TypeName(v))
	}
	return fn, true, nil
}

// ApplyLambda invokes fn with args through the evaluator that received
// this call. The lambda runs in its captured environment.
func (c *Call) ApplyLambda(ctx context.Context, fn *object.Lambda, args ...object.Object) object.Object {
	return c.ev.applyLambda(ctx, fn, args, c.Offset)
}
