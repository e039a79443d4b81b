// Package errors defines the structured error type shared by every stage
// of directive processing: lexing, parsing, analysis, evaluation, and the
// cache engine.
//
// Errors carry a class, a byte offset into the directive source, and
// optional hints for fixing the problem. Syntax, validation, and execution
// errors are deterministic outcomes of evaluating a directive against a
// collection state and may be cached; collaborator errors come from
// external components (the document store, a persistent cache) and may
// never be cached.
package errors

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Class categorizes errors for filtering and for cacheability decisions.
type Class string

const (
	ClassSyntax       Class = "syntax"       // Tokenizer/parser errors
	ClassValidation   Class = "validation"   // Pre-execution rejections (idempotency gate)
	ClassExecution    Class = "execution"    // Runtime errors inside the evaluator
	ClassCollaborator Class = "collaborator" // Store/cache/filesystem failures
)

// Error represents any error from processing a directive.
type Error struct {
	Class   Class    `json:"class"`            // Error category
	Message string   `json:"message"`          // Human-readable message
	Fn      string   `json:"fn,omitempty"`     // Builtin or method that failed (if any)
	Offset  int      `json:"offset"`           // Byte offset into the directive source (-1 if unknown)
	Hints   []string `json:"hints,omitempty"`  // Suggestions for fixing
	Wrapped error    `json:"-"`                // Underlying error (collaborator class)
}

// New creates an error with a known byte offset.
func New(class Class, offset int, format string, args ...any) *Error {
	return &Error{
		Class:   class,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	}
}

// Newf creates an error with no position. The evaluator attaches the
// offset of the enclosing call before such an error escapes.
func Newf(class Class, format string, args ...any) *Error {
	return New(class, -1, format, args...)
}

// Wrap converts a collaborator failure into a positioned Error, keeping
// the underlying error available through Unwrap.
func Wrap(err error, offset int, format string, args ...any) *Error {
	return &Error{
		Class:   ClassCollaborator,
		Message: fmt.Sprintf(format, args...) + ": " + err.Error(),
		Offset:  offset,
		Wrapped: err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.String()
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// String returns a single-line representation of the error.
func (e *Error) String() string {
	var sb strings.Builder

	if e.Offset >= 0 {
		fmt.Fprintf(&sb, "offset %d: ", e.Offset)
	}
	if e.Fn != "" {
		sb.WriteString(e.Fn)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line representation for display.
func (e *Error) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassSyntax:
		sb.WriteString("Syntax error")
	case ClassValidation:
		sb.WriteString("Invalid directive")
	case ClassCollaborator:
		sb.WriteString("External error")
	default:
		sb.WriteString("Error")
	}

	if e.Offset >= 0 {
		fmt.Fprintf(&sb, " at offset %d", e.Offset)
	}
	sb.WriteString(":\n  ")
	if e.Fn != "" {
		sb.WriteString(e.Fn)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Use: ")
		} else {
			sb.WriteString(" or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *Error) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithOffset returns a copy of the error with the offset set. Existing
// positions are kept: a deeply-positioned error is more useful than the
// position of the enclosing call.
func (e *Error) WithOffset(offset int) *Error {
	if e.Offset >= 0 {
		return e
	}
	copy := *e
	copy.Offset = offset
	return &copy
}

// WithFn returns a copy of the error naming the builtin or method that
// produced it, unless one is already recorded.
func (e *Error) WithFn(fn string) *Error {
	if e.Fn != "" {
		return e
	}
	copy := *e
	copy.Fn = fn
	return &copy
}

// WithHint returns a copy of the error with an extra hint appended.
func (e *Error) WithHint(hint string) *Error {
	copy := *e
	copy.Hints = append(append([]string(nil), e.Hints...), hint)
	return &copy
}

// Deterministic reports whether the error is a stable function of the
// directive and collection state. Collaborator errors are not: a cache
// must treat a stored collaborator error as a miss.
func (e *Error) Deterministic() bool {
	return e.Class != ClassCollaborator
}

// IsSyntaxError reports whether this error came from the tokenizer or parser.
func (e *Error) IsSyntaxError() bool {
	return e.Class == ClassSyntax
}

// ============================================================================
// Fuzzy matching for "did you mean" hints
// ============================================================================

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// suggestionThreshold returns the maximum edit distance worth suggesting
// for an input of the given length.
func suggestionThreshold(n int) int {
	switch {
	case n >= 7:
		return 3
	case n >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch finds the candidate closest to the input, or "" when
// nothing is within the edit-distance threshold for the input's length.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	bestMatch := ""
	bestDistance := -1
	for _, candidate := range sorted {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= 0 || bestDistance > suggestionThreshold(len(input)) {
		return ""
	}
	return bestMatch
}

// NewUnknownName creates the "unknown function or variable" error, with a
// fuzzy-matched suggestion when one is close enough.
func NewUnknownName(name string, offset int, known []string) *Error {
	err := New(ClassExecution, offset, "unknown function or variable '%s'", name)
	if suggestion := FindClosestMatch(name, known); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}
