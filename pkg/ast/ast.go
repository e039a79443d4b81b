// Package ast defines the syntax tree for directive expressions.
//
// The node set is closed: the parser produces exactly these variants and
// every downstream stage (analysis, evaluation) switches over them
// exhaustively. Nodes hold their first token so every error can point at
// a byte offset in the directive source.
package ast

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/thymelang/thyme/pkg/lexer"
)

// Node represents any node in the AST
type Node interface {
	Offset() int
	String() string
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// Directive is one parsed [ ... ] occurrence in a note. SourceText is the
// exact original text, brackets included, and round-trips byte-for-byte.
// StartOffset is the byte offset of the '[' within the note's content.
type Directive struct {
	Expression  Expression
	SourceText  string
	StartOffset int
}

func (d *Directive) Offset() int    { return d.StartOffset }
func (d *Directive) String() string { return d.SourceText }

// NumberLiteral represents numbers like 12 or 3.14
type NumberLiteral struct {
	Token lexer.Token // the lexer.NUMBER token
	Value float64
}

func (nl *NumberLiteral) expressionNode() {}
func (nl *NumberLiteral) Offset() int     { return nl.Token.Offset }
func (nl *NumberLiteral) String() string  { return strconv.FormatFloat(nl.Value, 'f', -1, 64) }

// StringLiteral represents quoted strings like "inbox"
type StringLiteral struct {
	Token lexer.Token // the lexer.STRING token
	Value string
}

func (sl *StringLiteral) expressionNode() {}
func (sl *StringLiteral) Offset() int     { return sl.Token.Offset }
func (sl *StringLiteral) String() string  { return strconv.Quote(sl.Value) }

// NamedArg is one name: value pair in a call's argument list.
type NamedArg struct {
	Name       string
	NameOffset int
	Value      Expression
}

// CallExpr represents a function call. A bare identifier is a zero
// argument call: the evaluator resolves it against the environment first
// and the builtin registry second.
type CallExpr struct {
	Token lexer.Token // the lexer.IDENT token naming the call
	Name  string
	Args  []Expression
	Named []NamedArg
}

func (ce *CallExpr) expressionNode() {}
func (ce *CallExpr) Offset() int     { return ce.Token.Offset }
func (ce *CallExpr) String() string {
	if len(ce.Args) == 0 && len(ce.Named) == 0 {
		return ce.Name
	}
	var out bytes.Buffer
	out.WriteString(ce.Name)
	out.WriteString("(")
	writeArgs(&out, ce.Args, ce.Named)
	out.WriteString(")")
	return out.String()
}

// CurrentNoteRef represents a leading '.': the note containing the
// directive.
type CurrentNoteRef struct {
	Token lexer.Token // the lexer.DOT token
}

func (cn *CurrentNoteRef) expressionNode() {}
func (cn *CurrentNoteRef) Offset() int     { return cn.Token.Offset }
func (cn *CurrentNoteRef) String() string  { return "." }

// PropertyAccess represents reading a property, like .name or n.path
type PropertyAccess struct {
	Token      lexer.Token // the lexer.DOT token before the property name
	Target     Expression
	Name       string
	NameOffset int
}

func (pa *PropertyAccess) expressionNode() {}
func (pa *PropertyAccess) Offset() int     { return pa.Target.Offset() }
func (pa *PropertyAccess) String() string {
	if _, ok := pa.Target.(*CurrentNoteRef); ok {
		return "." + pa.Name
	}
	return pa.Target.String() + "." + pa.Name
}

// MethodCall represents calling a method on a value, like .up(2) or
// .append("done")
type MethodCall struct {
	Token      lexer.Token // the lexer.DOT token before the method name
	Target     Expression
	Name       string
	NameOffset int
	Args       []Expression
	Named      []NamedArg
}

func (mc *MethodCall) expressionNode() {}
func (mc *MethodCall) Offset() int     { return mc.Target.Offset() }
func (mc *MethodCall) String() string {
	var out bytes.Buffer
	if _, ok := mc.Target.(*CurrentNoteRef); ok {
		out.WriteString(".")
	} else {
		out.WriteString(mc.Target.String())
		out.WriteString(".")
	}
	out.WriteString(mc.Name)
	out.WriteString("(")
	writeArgs(&out, mc.Args, mc.Named)
	out.WriteString(")")
	return out.String()
}

// VariableRef is an assignment target naming a variable, as in x: 5.
// Variable reads parse as zero-argument CallExpr, not VariableRef.
type VariableRef struct {
	Token lexer.Token // the lexer.IDENT token
	Name  string
}

func (vr *VariableRef) expressionNode() {}
func (vr *VariableRef) Offset() int     { return vr.Token.Offset }
func (vr *VariableRef) String() string  { return vr.Name }

// Assignment represents 'target: value'. Valid targets are VariableRef
// (definition) and PropertyAccess (note mutation).
type Assignment struct {
	Token  lexer.Token // the lexer.COLON token
	Target Expression
	Value  Expression
}

func (a *Assignment) expressionNode() {}
func (a *Assignment) Offset() int     { return a.Target.Offset() }
func (a *Assignment) String() string  { return a.Target.String() + ": " + a.Value.String() }

// StatementList represents semicolon-separated statements. Its value is
// the last statement's value; an empty list evaluates to "".
type StatementList struct {
	Token      lexer.Token // the first statement's first token
	Statements []Expression
}

func (sl *StatementList) expressionNode() {}
func (sl *StatementList) Offset() int     { return sl.Token.Offset }
func (sl *StatementList) String() string {
	parts := make([]string, len(sl.Statements))
	for i, s := range sl.Statements {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}

// LambdaExpr represents a deferred computation. Two surface forms exist:
// 'n: expr' (one parameter, expression position) and '[ statements ]'
// (no parameters, used for button and schedule actions).
type LambdaExpr struct {
	Token  lexer.Token // the parameter IDENT or the lexer.LBRACKET token
	Params []string
	Body   Expression
}

func (le *LambdaExpr) expressionNode() {}
func (le *LambdaExpr) Offset() int     { return le.Token.Offset }
func (le *LambdaExpr) String() string {
	if len(le.Params) == 0 {
		return "[" + le.Body.String() + "]"
	}
	return strings.Join(le.Params, ", ") + ": " + le.Body.String()
}

// QuantKind says how a pattern element repeats.
type QuantKind int

const (
	QuantOnce  QuantKind = iota // no quantifier
	QuantExact                  // *4
	QuantAny                    // *any
	QuantRange                  // *(2..4) or *(2..)
)

// Quantifier is the repetition suffix of a pattern element.
type Quantifier struct {
	Kind QuantKind
	N    int // QuantExact count, or QuantRange minimum
	Max  int // QuantRange maximum, -1 when open-ended
}

func (q Quantifier) String() string {
	switch q.Kind {
	case QuantExact:
		return fmt.Sprintf("*%d", q.N)
	case QuantAny:
		return "*any"
	case QuantRange:
		if q.Max < 0 {
			return fmt.Sprintf("*(%d..)", q.N)
		}
		return fmt.Sprintf("*(%d..%d)", q.N, q.Max)
	default:
		return ""
	}
}

// Character class names recognized inside pattern(...).
const (
	ClassDigit  = "digit"
	ClassLetter = "letter"
	ClassSpace  = "space"
	ClassPunct  = "punct"
	ClassAny    = "any"
)

// PatternElement is one element of a pattern: a character class or a
// literal string, optionally quantified.
type PatternElement struct {
	ElemOffset int
	Class      string // one of the Class* names, or "" for a literal
	Literal    string // literal text when Class == ""
	Quant      Quantifier
}

func (pe PatternElement) String() string {
	var out bytes.Buffer
	if pe.Class != "" {
		out.WriteString(pe.Class)
	} else {
		out.WriteString(strconv.Quote(pe.Literal))
	}
	out.WriteString(pe.Quant.String())
	return out.String()
}

// PatternExpr represents a pattern(...) literal.
type PatternExpr struct {
	Token    lexer.Token // the 'pattern' IDENT token
	Elements []PatternElement
}

func (pe *PatternExpr) expressionNode() {}
func (pe *PatternExpr) Offset() int     { return pe.Token.Offset }
func (pe *PatternExpr) String() string {
	parts := make([]string, len(pe.Elements))
	for i, el := range pe.Elements {
		parts[i] = el.String()
	}
	return "pattern(" + strings.Join(parts, ", ") + ")"
}

func writeArgs(out *bytes.Buffer, args []Expression, named []NamedArg) {
	wrote := false
	for _, a := range args {
		if wrote {
			out.WriteString(", ")
		}
		out.WriteString(a.String())
		wrote = true
	}
	for _, na := range named {
		if wrote {
			out.WriteString(", ")
		}
		out.WriteString(na.Name)
		out.WriteString(": ")
		out.WriteString(na.Value.String())
		wrote = true
	}
}
