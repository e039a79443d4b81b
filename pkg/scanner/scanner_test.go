package scanner

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func spanAt(text, source string) Span {
	return Span{Source: source, Offset: strings.Index(text, source)}
}

func TestScanFindsDirectivesInOrder(t *testing.T) {
	text := "Groceries [date()]\n- milk\n- total [add(2, mul(2, 5))]\n"
	want := []Span{
		spanAt(text, "[date()]"),
		spanAt(text, "[add(2, mul(2, 5))]"),
	}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
}

func TestScanNestedBrackets(t *testing.T) {
	text := `Press [button("go", [new(path: "inbox/x")])] to file it`
	want := []Span{spanAt(text, `[button("go", [new(path: "inbox/x")])]`)}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
}

func TestScanStringsHideBrackets(t *testing.T) {
	text := `check [eq(.name, "a]b")] here`
	want := []Span{spanAt(text, `[eq(.name, "a]b")]`)}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
}

func TestScanDirectiveSpansLines(t *testing.T) {
	text := "sum [add(1,\n 2)] done"
	want := []Span{{Source: "[add(1,\n 2)]", Offset: 4}}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
}

func TestScanSkipsFencedCode(t *testing.T) {
	text := "before [date()]\n```\nexample: [time()]\n```\nafter [datetime()]\n"
	want := []Span{
		spanAt(text, "[date()]"),
		spanAt(text, "[datetime()]"),
	}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
}

func TestScanFenceWithInfoString(t *testing.T) {
	text := "```thyme\n[date()]\n```\n"
	if got := Scan(text); got != nil {
		t.Errorf("found %v inside a fenced block", got)
	}
}

func TestScanUnclosedFenceSwallowsTheRest(t *testing.T) {
	text := "```\n[date()]\nstill code"
	if got := Scan(text); got != nil {
		t.Errorf("found %v after an unclosed fence", got)
	}
}

func TestScanSkipsInlineCode(t *testing.T) {
	text := "write `[date()]` to show the date: [date()]\n"
	want := []Span{{Source: "[date()]", Offset: strings.LastIndex(text, "[date()]")}}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
}

func TestScanUnpairedBacktickIsLiteral(t *testing.T) {
	text := "a ` stray backtick\nthen [date()]\n"
	want := []Span{spanAt(text, "[date()]")}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
}

func TestScanInlineCodeStopsAtLineBreak(t *testing.T) {
	// The first backtick has no pair on its own line, so it cannot
	// hide the directive on the next line.
	text := "start `\n[date()] and `code`\n"
	want := []Span{spanAt(text, "[date()]")}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
}

func TestScanUnbalancedBracketIsProse(t *testing.T) {
	text := "TODO[later\nand [date()] still works\n"
	want := []Span{spanAt(text, "[date()]")}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
}

func TestScanEmptyDirective(t *testing.T) {
	text := "blank [] here"
	want := []Span{{Source: "[]", Offset: 6}}
	if diff := cmp.Diff(want, Scan(text)); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
}

func TestScanNoDirectives(t *testing.T) {
	if got := Scan("just prose, no brackets"); got != nil {
		t.Errorf("got %v, want none", got)
	}
}
