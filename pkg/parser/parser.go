// Package parser turns directive source text into an ast.Directive.
//
// The grammar is call-based: no infix operators, no operator precedence.
// Arithmetic and comparison are ordinary calls (add, eq), adjacent
// expressions nest right to left ("not eq(a, b)" is not(eq(a, b))), and
// ':' serves three roles decided by position: statement-level definition
// (x: 5), named arguments (path: "inbox"), and one-parameter lambda
// literals in value position (n: n.modified).
//
// Parsing stops at the first error. Directive authors see one positioned
// message, not a cascade.
package parser

import (
	"strconv"
	"strings"

	"github.com/thymelang/thyme/pkg/ast"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/lexer"
)

// Parser represents the parser
type Parser struct {
	l *lexer.Lexer

	curToken  lexer.Token
	peekToken lexer.Token

	err *terrors.Error
}

// New creates a new parser instance reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse parses one complete directive, brackets included. The returned
// Directive's StartOffset is zero; callers that located the directive
// inside a note set it afterwards.
func Parse(src string) (*ast.Directive, *terrors.Error) {
	p := New(lexer.New(src))

	if !p.curTokenIs(lexer.LBRACKET) {
		return nil, p.tokenError("expected '[' to open a directive")
	}
	p.nextToken()

	expr := p.parseStatementList(lexer.RBRACKET)
	if p.err != nil {
		return nil, p.err
	}

	if !p.curTokenIs(lexer.RBRACKET) {
		return nil, p.tokenError("expected ']' to close the directive")
	}
	p.nextToken()

	if !p.curTokenIs(lexer.EOF) {
		return nil, p.tokenError("unexpected content after closing ']'")
	}

	return &ast.Directive{Expression: expr, SourceText: src}, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

// addError records the first error; later errors are cascading noise.
func (p *Parser) addError(offset int, format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = terrors.New(terrors.ClassSyntax, offset, format, args...)
}

// tokenError reports an unexpected current token. ILLEGAL tokens carry
// their own message from the lexer.
func (p *Parser) tokenError(context string) *terrors.Error {
	switch p.curToken.Type {
	case lexer.ILLEGAL:
		p.addError(p.curToken.Offset, "%s", p.curToken.Literal)
	case lexer.EOF:
		p.addError(p.curToken.Offset, "%s, got end of input", context)
	default:
		p.addError(p.curToken.Offset, "%s, got '%s'", context, p.curToken.Literal)
	}
	return p.err
}

// parseStatementList parses statements separated by ';' until the end
// token. A single statement is returned unwrapped; zero or several are
// wrapped in a StatementList.
func (p *Parser) parseStatementList(end lexer.TokenType) ast.Expression {
	list := &ast.StatementList{Token: p.curToken}

	if p.curTokenIs(end) {
		return list
	}

	stmt := p.parseStatement()
	if p.err != nil {
		return nil
	}
	list.Statements = append(list.Statements, stmt)

	for p.curTokenIs(lexer.SEMICOLON) {
		p.nextToken()
		if p.curTokenIs(end) || p.curTokenIs(lexer.EOF) {
			p.tokenError("expected a statement after ';'")
			return nil
		}
		stmt := p.parseStatement()
		if p.err != nil {
			return nil
		}
		list.Statements = append(list.Statements, stmt)
	}

	if len(list.Statements) == 1 {
		return list.Statements[0]
	}
	return list
}

// parseStatement parses one statement: a variable definition, a property
// assignment, or a plain expression.
func (p *Parser) parseStatement() ast.Expression {
	// IDENT ':' at statement level defines a variable.
	if p.curTokenIs(lexer.IDENT) && p.peekTokenIs(lexer.COLON) {
		target := &ast.VariableRef{Token: p.curToken, Name: p.curToken.Literal}
		p.nextToken()
		colon := p.curToken
		p.nextToken()
		value := p.parseValue()
		if p.err != nil {
			return nil
		}
		return &ast.Assignment{Token: colon, Target: target, Value: value}
	}

	expr := p.parseChain()
	if p.err != nil {
		return nil
	}

	if p.curTokenIs(lexer.COLON) {
		switch expr.(type) {
		case *ast.PropertyAccess, *ast.CurrentNoteRef:
			// assignable; the evaluator decides which properties mutate
		default:
			p.addError(expr.Offset(), "cannot assign to %s", expr.String())
			return nil
		}
		colon := p.curToken
		p.nextToken()
		value := p.parseValue()
		if p.err != nil {
			return nil
		}
		return &ast.Assignment{Token: colon, Target: expr, Value: value}
	}

	return expr
}

// parseValue parses an expression in value position: the right side of an
// assignment or a named argument. Here IDENT ':' is a one-parameter
// lambda literal, not a definition.
func (p *Parser) parseValue() ast.Expression {
	if p.curTokenIs(lexer.IDENT) && p.peekTokenIs(lexer.COLON) {
		tok := p.curToken
		param := p.curToken.Literal
		p.nextToken()
		p.nextToken()
		body := p.parseValue()
		if p.err != nil {
			return nil
		}
		return &ast.LambdaExpr{Token: tok, Params: []string{param}, Body: body}
	}
	return p.parseChain()
}

// startsPrimary reports whether a token can begin a primary expression.
func startsPrimary(t lexer.TokenType) bool {
	switch t {
	case lexer.NUMBER, lexer.STRING, lexer.IDENT, lexer.DOT, lexer.LBRACKET:
		return true
	default:
		return false
	}
}

// parseChain parses a postfix unit and applies juxtaposition: when the
// unit is a bare zero-argument call and another primary follows, the rest
// of the chain becomes its single argument, nesting right to left.
func (p *Parser) parseChain() ast.Expression {
	unit := p.parsePostfix()
	if p.err != nil {
		return nil
	}

	if !startsPrimary(p.curToken.Type) {
		return unit
	}

	call, ok := unit.(*ast.CallExpr)
	if !ok || len(call.Args) > 0 || len(call.Named) > 0 {
		p.tokenError("unexpected expression; adjacent values only follow a bare name")
		return nil
	}

	arg := p.parseChain()
	if p.err != nil {
		return nil
	}
	call.Args = append(call.Args, arg)
	return call
}

// parsePostfix parses a primary expression followed by any number of
// '.name' and '.name(args)' suffixes.
func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	if p.err != nil {
		return nil
	}

	for p.curTokenIs(lexer.DOT) {
		expr = p.parseDotSuffix(expr)
		if p.err != nil {
			return nil
		}
	}

	return expr
}

// parseDotSuffix parses '.name' or '.name(args)' applied to target.
// The current token is the DOT.
func (p *Parser) parseDotSuffix(target ast.Expression) ast.Expression {
	dot := p.curToken
	p.nextToken()

	if !p.curTokenIs(lexer.IDENT) {
		p.tokenError("expected a property or method name after '.'")
		return nil
	}
	name := p.curToken.Literal
	nameOffset := p.curToken.Offset
	p.nextToken()

	if p.curTokenIs(lexer.LPAREN) {
		args, named := p.parseCallArgs()
		if p.err != nil {
			return nil
		}
		return &ast.MethodCall{
			Token:      dot,
			Target:     target,
			Name:       name,
			NameOffset: nameOffset,
			Args:       args,
			Named:      named,
		}
	}

	return &ast.PropertyAccess{
		Token:      dot,
		Target:     target,
		Name:       name,
		NameOffset: nameOffset,
	}
}

// parsePrimary parses one primary expression.
func (p *Parser) parsePrimary() ast.Expression {
	switch p.curToken.Type {
	case lexer.NUMBER:
		return p.parseNumberLiteral()

	case lexer.STRING:
		lit := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
		p.nextToken()
		return lit

	case lexer.IDENT:
		if p.curToken.Literal == "pattern" && p.peekTokenIs(lexer.LPAREN) {
			return p.parsePatternExpr()
		}
		return p.parseCallOrIdent()

	case lexer.DOT:
		// leading '.': the current note, optionally with a suffix
		ref := &ast.CurrentNoteRef{Token: p.curToken}
		if p.peekTokenIs(lexer.IDENT) {
			return p.parseDotSuffix(ref)
		}
		p.nextToken()
		return ref

	case lexer.LBRACKET:
		return p.parseBlockLambda()

	default:
		p.tokenError("expected an expression")
		return nil
	}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	lit := &ast.NumberLiteral{Token: p.curToken}

	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError(p.curToken.Offset, "invalid number literal: %s", p.curToken.Literal)
		return nil
	}
	lit.Value = value

	p.nextToken()
	return lit
}

// parseCallOrIdent parses an identifier, with arguments when '(' follows.
// A bare identifier is a zero-argument call the evaluator resolves.
func (p *Parser) parseCallOrIdent() ast.Expression {
	call := &ast.CallExpr{Token: p.curToken, Name: p.curToken.Literal}
	p.nextToken()

	if p.curTokenIs(lexer.LPAREN) {
		args, named := p.parseCallArgs()
		if p.err != nil {
			return nil
		}
		call.Args = args
		call.Named = named
	}

	return call
}

// parseCallArgs parses '(' arg (',' arg)* ')'. Positional arguments must
// come before named ones. In argument-list position IDENT ':' starts a
// named argument; lambdas appear as named-argument values or as blocks.
func (p *Parser) parseCallArgs() ([]ast.Expression, []ast.NamedArg) {
	p.nextToken() // consume '('

	var args []ast.Expression
	var named []ast.NamedArg

	for !p.curTokenIs(lexer.RPAREN) {
		if p.curTokenIs(lexer.EOF) || p.curTokenIs(lexer.RBRACKET) {
			p.tokenError("expected ')' to close the argument list")
			return nil, nil
		}

		if p.curTokenIs(lexer.IDENT) && p.peekTokenIs(lexer.COLON) {
			name := p.curToken.Literal
			nameOffset := p.curToken.Offset
			for _, existing := range named {
				if existing.Name == name {
					p.addError(nameOffset, "duplicate named argument '%s'", name)
					return nil, nil
				}
			}
			p.nextToken()
			p.nextToken()
			value := p.parseValue()
			if p.err != nil {
				return nil, nil
			}
			named = append(named, ast.NamedArg{Name: name, NameOffset: nameOffset, Value: value})
		} else {
			if len(named) > 0 {
				p.addError(p.curToken.Offset, "positional argument after named argument")
				return nil, nil
			}
			arg := p.parseChain()
			if p.err != nil {
				return nil, nil
			}
			args = append(args, arg)
		}

		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			if p.curTokenIs(lexer.RPAREN) {
				p.tokenError("expected an argument after ','")
				return nil, nil
			}
			continue
		}
		if !p.curTokenIs(lexer.RPAREN) {
			p.tokenError("expected ',' or ')' in argument list")
			return nil, nil
		}
	}

	p.nextToken() // consume ')'
	return args, named
}

// parseBlockLambda parses '[' statements ']' as a deferred zero-parameter
// lambda, the form button and schedule actions use.
func (p *Parser) parseBlockLambda() ast.Expression {
	tok := p.curToken
	p.nextToken()

	body := p.parseStatementList(lexer.RBRACKET)
	if p.err != nil {
		return nil
	}

	if !p.curTokenIs(lexer.RBRACKET) {
		p.tokenError("expected ']' to close the block")
		return nil
	}
	p.nextToken()

	return &ast.LambdaExpr{Token: tok, Body: body}
}

// ============================================================================
// Pattern sub-grammar
// ============================================================================

// validClasses are the character classes recognized inside pattern(...).
var validClasses = map[string]bool{
	ast.ClassDigit:  true,
	ast.ClassLetter: true,
	ast.ClassSpace:  true,
	ast.ClassPunct:  true,
	ast.ClassAny:    true,
}

// parsePatternExpr parses pattern(element, ...). The current token is the
// 'pattern' identifier and '(' is next.
func (p *Parser) parsePatternExpr() ast.Expression {
	pat := &ast.PatternExpr{Token: p.curToken}
	p.nextToken() // now on '('
	p.nextToken() // consume '('

	if p.curTokenIs(lexer.RPAREN) {
		p.addError(pat.Token.Offset, "pattern requires at least one element")
		return nil
	}

	for {
		elem, ok := p.parsePatternElement()
		if !ok {
			return nil
		}
		pat.Elements = append(pat.Elements, elem)

		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		// Elements may simply abut: pattern(digit*4 "-" digit*2).
		if p.curTokenIs(lexer.IDENT) || p.curTokenIs(lexer.STRING) {
			continue
		}
		if p.curTokenIs(lexer.RPAREN) {
			p.nextToken()
			return pat
		}
		p.tokenError("expected ',' or ')' in pattern")
		return nil
	}
}

// parsePatternElement parses one class-or-literal element with an
// optional quantifier.
func (p *Parser) parsePatternElement() (ast.PatternElement, bool) {
	var elem ast.PatternElement
	elem.ElemOffset = p.curToken.Offset

	switch p.curToken.Type {
	case lexer.IDENT:
		if !validClasses[p.curToken.Literal] {
			p.addError(p.curToken.Offset, "unknown character class '%s'", p.curToken.Literal)
			if suggestion := classSuggestion(p.curToken.Literal); suggestion != "" {
				p.err = p.err.WithHint("Did you mean `" + suggestion + "`?")
			}
			return elem, false
		}
		elem.Class = p.curToken.Literal
		p.nextToken()
	case lexer.STRING:
		elem.Literal = p.curToken.Literal
		p.nextToken()
	default:
		p.tokenError("expected a character class or string literal in pattern")
		return elem, false
	}

	if !p.curTokenIs(lexer.STAR) {
		elem.Quant = ast.Quantifier{Kind: ast.QuantOnce}
		return elem, true
	}
	p.nextToken() // consume '*'

	quant, ok := p.parseQuantifier()
	if !ok {
		return elem, false
	}
	elem.Quant = quant
	return elem, true
}

// parseQuantifier parses what follows '*': a count, 'any', or a bounded
// range '(min..max)' with an optional max.
func (p *Parser) parseQuantifier() (ast.Quantifier, bool) {
	switch {
	case p.curTokenIs(lexer.NUMBER):
		n, ok := p.wholeNumber(p.curToken)
		if !ok {
			return ast.Quantifier{}, false
		}
		p.nextToken()
		return ast.Quantifier{Kind: ast.QuantExact, N: n}, true

	case p.curTokenIs(lexer.IDENT) && p.curToken.Literal == "any":
		p.nextToken()
		return ast.Quantifier{Kind: ast.QuantAny}, true

	case p.curTokenIs(lexer.LPAREN):
		p.nextToken()
		if !p.curTokenIs(lexer.NUMBER) {
			p.tokenError("expected a minimum count in quantifier range")
			return ast.Quantifier{}, false
		}
		min, ok := p.wholeNumber(p.curToken)
		if !ok {
			return ast.Quantifier{}, false
		}
		p.nextToken()

		if !p.curTokenIs(lexer.RANGE) {
			p.tokenError("expected '..' in quantifier range")
			return ast.Quantifier{}, false
		}
		p.nextToken()

		max := -1
		if p.curTokenIs(lexer.NUMBER) {
			max, ok = p.wholeNumber(p.curToken)
			if !ok {
				return ast.Quantifier{}, false
			}
			if max < min {
				p.addError(p.curToken.Offset, "quantifier maximum %d is less than minimum %d", max, min)
				return ast.Quantifier{}, false
			}
			p.nextToken()
		}

		if !p.curTokenIs(lexer.RPAREN) {
			p.tokenError("expected ')' to close quantifier range")
			return ast.Quantifier{}, false
		}
		p.nextToken()
		return ast.Quantifier{Kind: ast.QuantRange, N: min, Max: max}, true

	default:
		p.tokenError("expected a count, 'any', or '(min..max)' after '*'")
		return ast.Quantifier{}, false
	}
}

// wholeNumber converts a NUMBER token to a non-negative integer.
func (p *Parser) wholeNumber(tok lexer.Token) (int, bool) {
	if strings.Contains(tok.Literal, ".") {
		p.addError(tok.Offset, "quantifier bounds must be whole numbers, got %s", tok.Literal)
		return 0, false
	}
	n, err := strconv.Atoi(tok.Literal)
	if err != nil || n < 0 {
		p.addError(tok.Offset, "invalid quantifier bound: %s", tok.Literal)
		return 0, false
	}
	return n, true
}

func classSuggestion(name string) string {
	classes := []string{ast.ClassDigit, ast.ClassLetter, ast.ClassSpace, ast.ClassPunct, ast.ClassAny}
	return terrors.FindClosestMatch(name, classes)
}
