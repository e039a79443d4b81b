// Package note defines the document model directives run against: the
// Note type, the metadata fields directives can depend on, and the
// Collection/Store interfaces the engine reads and mutates through.
package note

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Note is one document in a collection. A note's name is the first line
// of its content and its body is everything after; neither is stored
// separately.
type Note struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	ViewedAt   time.Time `json:"viewed_at"`
}

// Name returns the first line of the note's content.
func (n *Note) Name() string {
	content := n.Content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		content = content[:i]
	}
	return strings.TrimSuffix(content, "\r")
}

// Body returns the content after the first line, without the newline
// that ends the name.
func (n *Note) Body() string {
	if i := strings.IndexByte(n.Content, '\n'); i >= 0 {
		return n.Content[i+1:]
	}
	return ""
}

// WithName returns the note's content with its first line replaced.
func (n *Note) WithName(name string) string {
	if i := strings.IndexByte(n.Content, '\n'); i >= 0 {
		return name + n.Content[i:]
	}
	return name
}

// Compare orders notes by path, then name, then ID. This is the natural
// order: find results and keyless note sorts use it so equal collection
// states always produce equal results.
func Compare(a, b *Note) int {
	if c := strings.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name(), b.Name()); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// NormalizePath puts a note path into canonical form: NFC-normalized,
// trimmed, without leading or trailing slashes. Two paths that normalize
// equally name the same location.
func NormalizePath(p string) string {
	p = norm.NFC.String(strings.TrimSpace(p))
	return strings.Trim(p, "/")
}

// Field identifies one dependable aspect of a note's metadata.
type Field int

const (
	FieldExistence Field = iota // the set of note IDs in the collection
	FieldPath
	FieldName
	FieldContent
	FieldCreated
	FieldModified
	FieldViewed
)

// String returns the field's name as used in hashes and staleness reasons.
func (f Field) String() string {
	switch f {
	case FieldExistence:
		return "existence"
	case FieldPath:
		return "path"
	case FieldName:
		return "name"
	case FieldContent:
		return "content"
	case FieldCreated:
		return "created"
	case FieldModified:
		return "modified"
	case FieldViewed:
		return "viewed"
	default:
		return "unknown"
	}
}

// MetaFields lists every field in staleness-check order: cheap membership
// and path checks come before timestamps, names, and content.
var MetaFields = []Field{
	FieldExistence,
	FieldPath,
	FieldModified,
	FieldCreated,
	FieldViewed,
	FieldName,
	FieldContent,
}

// Value returns the note's value for a field, as the string that field
// hashing consumes. Existence has no per-note value; the hasher works
// from the ID set instead.
func (n *Note) Value(f Field) string {
	switch f {
	case FieldPath:
		return n.Path
	case FieldName:
		return n.Name()
	case FieldContent:
		return n.Content
	case FieldCreated:
		return n.CreatedAt.UTC().Format(time.RFC3339Nano)
	case FieldModified:
		return n.ModifiedAt.UTC().Format(time.RFC3339Nano)
	case FieldViewed:
		return n.ViewedAt.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}
