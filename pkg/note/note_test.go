package note

import (
	"strings"
	"testing"
	"time"
)

func TestNameAndBody(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantName string
		wantBody string
	}{
		{
			name:     "name and body",
			content:  "Groceries\nmilk\neggs",
			wantName: "Groceries",
			wantBody: "milk\neggs",
		},
		{
			name:     "single line",
			content:  "Groceries",
			wantName: "Groceries",
			wantBody: "",
		},
		{
			name:     "empty content",
			content:  "",
			wantName: "",
			wantBody: "",
		},
		{
			name:     "crlf line ending",
			content:  "Groceries\r\nmilk",
			wantName: "Groceries",
			wantBody: "milk",
		},
		{
			name:     "empty first line",
			content:  "\nbody only",
			wantName: "",
			wantBody: "body only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Note{Content: tt.content}
			if got := n.Name(); got != tt.wantName {
				t.Errorf("Name() = %q, want %q", got, tt.wantName)
			}
			if got := n.Body(); got != tt.wantBody {
				t.Errorf("Body() = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestWithName(t *testing.T) {
	tests := []struct {
		content string
		newName string
		want    string
	}{
		{"Old\nbody", "New", "New\nbody"},
		{"Old", "New", "New"},
		{"", "New", "New"},
	}

	for _, tt := range tests {
		n := &Note{Content: tt.content}
		if got := n.WithName(tt.newName); got != tt.want {
			t.Errorf("WithName(%q) on %q = %q, want %q", tt.newName, tt.content, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	a := &Note{ID: "1", Path: "inbox/a", Content: "Alpha"}
	b := &Note{ID: "2", Path: "inbox/b", Content: "Beta"}
	c := &Note{ID: "3", Path: "inbox/b", Content: "Alpha"}
	d := &Note{ID: "4", Path: "inbox/b", Content: "Alpha"}

	if Compare(a, b) >= 0 {
		t.Error("path ordering failed")
	}
	if Compare(c, b) >= 0 {
		t.Error("name ordering failed for equal paths")
	}
	if Compare(c, d) >= 0 {
		t.Error("id ordering failed for equal paths and names")
	}
	if Compare(a, a) != 0 {
		t.Error("a note should compare equal to itself")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"inbox/today", "inbox/today"},
		{"/inbox/today/", "inbox/today"},
		{"  inbox ", "inbox"},
		// decomposed é normalizes to the composed form
		{"café", "café"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.input); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFieldValue(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	n := &Note{
		ID:        "n1",
		Path:      "inbox/today",
		Content:   "Today\nplan things",
		CreatedAt: created,
	}

	if got := n.Value(FieldPath); got != "inbox/today" {
		t.Errorf("Value(FieldPath) = %q", got)
	}
	if got := n.Value(FieldName); got != "Today" {
		t.Errorf("Value(FieldName) = %q", got)
	}
	if got := n.Value(FieldContent); got != n.Content {
		t.Errorf("Value(FieldContent) = %q", got)
	}
	if got := n.Value(FieldCreated); !strings.HasPrefix(got, "2024-03-01T10:00:00") {
		t.Errorf("Value(FieldCreated) = %q", got)
	}
	if got := n.Value(FieldExistence); got != "" {
		t.Errorf("Value(FieldExistence) = %q, want empty", got)
	}
}

func TestMetaFieldsOrder(t *testing.T) {
	// cheap checks come first
	if MetaFields[0] != FieldExistence || MetaFields[1] != FieldPath {
		t.Errorf("MetaFields = %v, want existence then path first", MetaFields)
	}
	if MetaFields[len(MetaFields)-1] != FieldContent {
		t.Errorf("MetaFields should end with content, got %v", MetaFields)
	}
}
