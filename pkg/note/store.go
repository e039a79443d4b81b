package note

import "context"

// Collection is the read side of a note store. Directive evaluation,
// dependency analysis, and staleness checking all read through it.
//
// Token returns a counter that changes whenever any note changes. Field
// hashing memoizes per token, so Token must never repeat after a
// mutation.
type Collection interface {
	All() []*Note
	ByID(id string) (*Note, bool)
	ByPath(path string) (*Note, bool)
	Token() uint64
}

// Store is the full document-store contract. Every mutation a directive
// performs flows through one of these methods; a method only returns nil
// once the mutation is durably applied, because cache invalidation keys
// off that confirmation.
//
// Implementations wrap their own failures in ordinary errors; the
// evaluator classifies them as collaborator errors.
type Store interface {
	Collection

	// Create adds a note at a normalized path. It fails if the path is
	// taken; callers that need create-if-missing check first.
	Create(ctx context.Context, path, content string) (*Note, error)

	// UpdatePath moves a note. The path is normalized before storing.
	UpdatePath(ctx context.Context, id, path string) error

	// UpdateContent replaces a note's content and bumps ModifiedAt.
	UpdateContent(ctx context.Context, id, content string) error

	// Append adds text to the end of a note's content.
	Append(ctx context.Context, id, text string) error

	// MarkViewed records that a note was displayed. Rendering surfaces
	// call this; the engine itself never does.
	MarkViewed(ctx context.Context, id string) error

	// Delete removes a note.
	Delete(ctx context.Context, id string) error
}
