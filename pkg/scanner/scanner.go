// Package scanner locates directive spans inside note text. The engine
// uses it when rendering a whole note; callers with their own markup
// conventions can substitute a different scan function.
package scanner

import "strings"

// Span is one directive occurrence: the source text including brackets
// and its byte offset in the note.
type Span struct {
	Source string
	Offset int
}

// Scan returns every directive span in text, in order. A directive runs
// from an opening bracket to its balancing close; brackets inside
// string literals do not count, and an opening bracket that never
// balances is plain prose. Fenced code blocks and inline code spans are
// never directives.
func Scan(text string) []Span {
	var spans []Span
	fenced := false
	i := 0
	for i < len(text) {
		if i == 0 || text[i-1] == '\n' {
			if isFence(text, i) {
				fenced = !fenced
				i = nextLine(text, i)
				continue
			}
			if fenced {
				i = nextLine(text, i)
				continue
			}
		}
		switch text[i] {
		case '`':
			i = skipInlineCode(text, i)
		case '[':
			end, ok := balance(text, i)
			if !ok {
				i++
				continue
			}
			spans = append(spans, Span{Source: text[i:end], Offset: i})
			i = end
		default:
			i++
		}
	}
	return spans
}

// isFence reports whether the line starting at i is a code fence
// marker: optional indentation, then three backticks.
func isFence(text string, i int) bool {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return strings.HasPrefix(text[i:], "```")
}

// nextLine returns the index just past the current line's newline.
func nextLine(text string, i int) int {
	if j := strings.IndexByte(text[i:], '\n'); j >= 0 {
		return i + j + 1
	}
	return len(text)
}

// skipInlineCode advances past a backtick code span. A span never
// crosses a line break; an unpaired backtick is literal text.
func skipInlineCode(text string, i int) int {
	line := text[i+1:]
	if j := strings.IndexByte(line, '\n'); j >= 0 {
		line = line[:j]
	}
	if j := strings.IndexByte(line, '`'); j >= 0 {
		return i + 1 + j + 1
	}
	return i + 1
}

// balance finds the close bracket matching the open at i and returns
// the index just past it. Directives may span lines; string literals
// have no escapes, so a string is everything up to the next quote.
func balance(text string, i int) (int, bool) {
	depth := 0
	for j := i; j < len(text); j++ {
		switch text[j] {
		case '"':
			k := strings.IndexByte(text[j+1:], '"')
			if k < 0 {
				return 0, false
			}
			j += k + 1
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j + 1, true
			}
		}
	}
	return 0, false
}
