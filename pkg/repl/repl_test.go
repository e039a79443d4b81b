package repl

import (
	"reflect"
	"testing"
)

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{`1 + 2`, false},
		{`max(1, 2`, true},
		{`max(1, 2)`, false},
		{`{a: 1`, true},
		{`{a: 1}`, false},
		{`"unterminated`, true},
		{`"closed"`, false},
		{`"escaped \" quote"`, false},
		{`first(find(path: "inbox"`, true},
		{`[.append("x")]`, false},
	}
	for _, tt := range tests {
		if got := needsMoreInput(tt.input); got != tt.want {
			t.Errorf("needsMoreInput(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFilterCompletions(t *testing.T) {
	words := []string{"find", "first", "floor", "max"}

	got := filterCompletions("fi", words)
	want := []string{"find", "first"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("completions = %v, want %v", got, want)
	}

	// The prefix before the identifier is preserved.
	got = filterCompletions("1 + fl", words)
	want = []string{"1 + floor"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("completions = %v, want %v", got, want)
	}

	if got := filterCompletions("", words); got != nil {
		t.Errorf("empty input completed to %v", got)
	}
}
