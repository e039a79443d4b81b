// Package object defines the closed value set directives evaluate to,
// the environment evaluation runs in, and the codec that moves values in
// and out of persistent caches.
//
// Values are immutable: operations return new values. A Note value is a
// reference; the note's current state always lives in the collection.
package object

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goodsign/monday"

	"github.com/thymelang/thyme/pkg/ast"
	terrors "github.com/thymelang/thyme/pkg/errors"
)

// ObjectType identifies a value variant.
type ObjectType string

const (
	NUMBER_OBJ    = "NUMBER"
	STRING_OBJ    = "STRING"
	BOOLEAN_OBJ   = "BOOLEAN"
	DATE_OBJ      = "DATE"
	TIME_OBJ      = "TIME"
	DATETIME_OBJ  = "DATETIME"
	LIST_OBJ      = "LIST"
	PATTERN_OBJ   = "PATTERN"
	LAMBDA_OBJ    = "LAMBDA"
	NOTE_OBJ      = "NOTE"
	BUTTON_OBJ    = "BUTTON"
	SCHEDULE_OBJ  = "SCHEDULE"
	VIEW_OBJ      = "VIEW"
	UNDEFINED_OBJ = "UNDEFINED"
	ERROR_OBJ     = "ERROR"
)

// Object is implemented by every value.
type Object interface {
	Type() ObjectType
	Inspect() string
}

// DisplayLocale is the locale used for date and datetime display.
var DisplayLocale monday.Locale = monday.LocaleEnUS

// Number represents numeric values. All numbers are float64; Inspect
// uses the shortest decimal that round-trips, so whole results display
// without a fraction.
type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return strconv.FormatFloat(n.Value, 'f', -1, 64) }

// String represents string values
type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// Boolean represents boolean values
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

// Canonical boolean and undefined singletons.
var (
	TRUE      = &Boolean{Value: true}
	FALSE     = &Boolean{Value: false}
	UNDEFINED = &Undefined{}
)

// NativeBoolToBoolean converts a Go bool to the canonical Boolean.
func NativeBoolToBoolean(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// Date represents a calendar date with no time component.
type Date struct {
	Value time.Time // midnight UTC
}

// NewDate builds a Date from a calendar day.
func NewDate(year int, month time.Month, day int) *Date {
	return &Date{Value: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d *Date) Type() ObjectType { return DATE_OBJ }
func (d *Date) Inspect() string {
	return monday.Format(d.Value, "2 January 2006", DisplayLocale)
}

// Time represents a time of day with no date component.
type Time struct {
	Hour   int
	Minute int
	Second int
}

func (t *Time) Type() ObjectType { return TIME_OBJ }
func (t *Time) Inspect() string {
	if t.Second > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Seconds returns the time as seconds since midnight, for ordering.
func (t *Time) Seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// DateTime represents a calendar date with a time of day.
type DateTime struct {
	Value time.Time
}

func (dt *DateTime) Type() ObjectType { return DATETIME_OBJ }
func (dt *DateTime) Inspect() string {
	return monday.Format(dt.Value, "2 January 2006 15:04", DisplayLocale)
}

// List represents ordered collections
type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	elements := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		elements[i] = e.Inspect()
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// Pattern is a compiled pattern literal. Source is the canonical element
// list; two patterns with equal sources match identically.
type Pattern struct {
	Elements []ast.PatternElement
	Source   string
	Regexp   *regexp.Regexp
}

func (p *Pattern) Type() ObjectType { return PATTERN_OBJ }
func (p *Pattern) Inspect() string  { return p.Source }

// Lambda is a deferred computation closing over its defining environment.
type Lambda struct {
	Params []string
	Body   ast.Expression
	Env    *Environment
}

func (l *Lambda) Type() ObjectType { return LAMBDA_OBJ }
func (l *Lambda) Inspect() string {
	if len(l.Params) == 0 {
		return "[" + l.Body.String() + "]"
	}
	return strings.Join(l.Params, ", ") + ": " + l.Body.String()
}

// Note references a document by ID. Name and Path are display snapshots
// taken when the value was created; the evaluator records a first-line
// dependency for the snapshot so a rename invalidates results that show
// it.
type Note struct {
	ID   string
	Name string
	Path string
}

func (n *Note) Type() ObjectType { return NOTE_OBJ }
func (n *Note) Inspect() string  { return n.Name }

// Button is a labeled deferred action, triggered from outside the
// evaluator.
type Button struct {
	Label  string
	Action *Lambda
}

func (b *Button) Type() ObjectType { return BUTTON_OBJ }
func (b *Button) Inspect() string  { return "[" + b.Label + "]" }

// Schedule is a recurring deferred action. At is optional.
type Schedule struct {
	Frequency string
	Action    *Lambda
	At        *Time
}

func (s *Schedule) Type() ObjectType { return SCHEDULE_OBJ }
func (s *Schedule) Inspect() string {
	if s.At != nil {
		return "schedule: " + s.Frequency + " at " + s.At.Inspect()
	}
	return "schedule: " + s.Frequency
}

// View is the result of rendering other notes in place. Rendered holds
// each target's content with its directives' results substituted, in the
// same order as Notes.
type View struct {
	Notes    []*Note
	Rendered []string
}

func (v *View) Type() ObjectType { return VIEW_OBJ }
func (v *View) Inspect() string  { return strings.Join(v.Rendered, "\n\n") }

// Undefined is the absence of a value: a missing parent, first of an
// empty list. Note output renders it as nothing; Inspect names it for
// diagnostics.
type Undefined struct{}

func (u *Undefined) Type() ObjectType { return UNDEFINED_OBJ }
func (u *Undefined) Inspect() string  { return "undefined" }

// Error wraps a structured error as a value so evaluation can carry it
// up the tree without panics or multi-returns at every step.
type Error struct {
	Err *terrors.Error
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return e.Err.String() }

// NewError creates an execution-class error value.
func NewError(offset int, format string, args ...any) *Error {
	return &Error{Err: terrors.New(terrors.ClassExecution, offset, format, args...)}
}

// NewErrorWithClass creates an error value of a specific class.
func NewErrorWithClass(class terrors.Class, offset int, format string, args ...any) *Error {
	return &Error{Err: terrors.New(class, offset, format, args...)}
}

// IsError reports whether obj is an error value.
func IsError(obj Object) bool {
	if obj == nil {
		return false
	}
	return obj.Type() == ERROR_OBJ
}

// TypeName returns a lowercase type name for error messages.
func TypeName(obj Object) string {
	if obj == nil {
		return "nothing"
	}
	return strings.ToLower(string(obj.Type()))
}
