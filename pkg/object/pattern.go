package object

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/thymelang/thyme/pkg/ast"
	terrors "github.com/thymelang/thyme/pkg/errors"
)

// classRegexps maps pattern classes to their character matchers. Digits
// are ASCII since patterns describe things like dates and invoice codes;
// letters follow the identifier rule and stay Unicode-wide.
var classRegexps = map[string]string{
	ast.ClassDigit:  `[0-9]`,
	ast.ClassLetter: `\p{L}`,
	ast.ClassSpace:  `\s`,
	ast.ClassPunct:  `\p{P}`,
	ast.ClassAny:    `.`,
}

// CompilePattern translates pattern elements into an anchored regular
// expression. Matching is whole-string: a pattern matches a value only
// when it describes all of it.
func CompilePattern(elements []ast.PatternElement, offset int) (*Pattern, *terrors.Error) {
	var re strings.Builder
	re.WriteString(`(?s)\A`)
	for _, el := range elements {
		part, ok := classRegexps[el.Class]
		if !ok {
			if el.Class != "" {
				return nil, terrors.New(terrors.ClassExecution, el.ElemOffset, "unknown pattern class '%s'", el.Class)
			}
			part = "(?:" + regexp.QuoteMeta(el.Literal) + ")"
		}
		re.WriteString(part)
		switch el.Quant.Kind {
		case ast.QuantExact:
			re.WriteString("{" + strconv.Itoa(el.Quant.N) + "}")
		case ast.QuantAny:
			re.WriteString("*")
		case ast.QuantRange:
			re.WriteString("{" + strconv.Itoa(el.Quant.N) + ",")
			if el.Quant.Max >= 0 {
				re.WriteString(strconv.Itoa(el.Quant.Max))
			}
			re.WriteString("}")
		}
	}
	re.WriteString(`\z`)

	compiled, err := regexp.Compile(re.String())
	if err != nil {
		return nil, terrors.New(terrors.ClassExecution, offset, "pattern does not compile: %s", err)
	}

	parts := make([]string, len(elements))
	for i, el := range elements {
		parts[i] = el.String()
	}
	return &Pattern{
		Elements: elements,
		Source:   "pattern(" + strings.Join(parts, ", ") + ")",
		Regexp:   compiled,
	}, nil
}

// Match reports whether s is entirely described by the pattern.
func (p *Pattern) Match(s string) bool {
	return p.Regexp.MatchString(s)
}
