package engine

import (
	"context"
	"strings"

	"github.com/thymelang/thyme/pkg/deps"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/note"
	"github.com/thymelang/thyme/pkg/object"
)

// RenderNote renders a note's full text: every directive span is
// replaced by its result's display string. Display surfaces call this;
// each directive is served from cache when fresh.
func (e *Engine) RenderNote(ctx context.Context, n *note.Note) string {
	text, _ := e.renderText(ctx, n, initialStack(n), nil)
	return text
}

// nestedRenderer runs a view target's own directives through the
// engine, so nested results hit the same cache the target's own renders
// use. It reports the target's dependencies into the enclosing
// directive's footprint.
type nestedRenderer struct {
	eng *Engine
}

func (r *nestedRenderer) RenderNested(ctx context.Context, target *note.Note, stack []string, sink *deps.Set) (string, bool, *terrors.Error) {
	nested := make([]string, 0, len(stack)+1)
	nested = append(nested, stack...)
	nested = append(nested, target.ID)
	text, dynamic := r.eng.renderText(ctx, target, nested, sink)
	return text, dynamic, nil
}

// renderText splices directive results into a note's text. When sink is
// non-nil each directive's dependencies merge into it, minus the flags
// that describe the directive itself rather than what it read: a
// nested directive being self-referencing or mutating says nothing
// about the enclosing view.
func (e *Engine) renderText(ctx context.Context, n *note.Note, stack []string, sink *deps.Set) (string, bool) {
	spans := e.scan(n.Content)
	if len(spans) == 0 {
		return n.Content, false
	}
	var b strings.Builder
	dynamic := false
	last := 0
	for _, span := range spans {
		b.WriteString(n.Content[last:span.Offset])
		res := e.run(ctx, n, span, stack, true)
		if sink != nil && res.Deps != nil {
			merged := res.Deps.Clone()
			merged.Mutating = false
			merged.SelfAccess = false
			if len(merged.Hierarchy) > 0 {
				// Hierarchy facts replay from the note that recorded
				// them; carried into the enclosing entry they would be
				// re-resolved from the enclosing note and never match.
				// Coarsen to the collection-wide path flag instead.
				merged.Hierarchy = nil
				merged.Path = true
			}
			sink.Merge(merged)
		}
		dynamic = dynamic || res.Dynamic
		b.WriteString(displaySpan(span.Source, res.Value, res.Err))
		last = span.Offset + len(span.Source)
	}
	b.WriteString(n.Content[last:])
	return b.String(), dynamic
}

// displaySpan turns one directive's outcome into display text. Errors
// show the original source, so the author sees what to fix; an
// undefined value renders as nothing.
func displaySpan(source string, val object.Object, err *terrors.Error) string {
	if err != nil {
		return source
	}
	if _, undef := val.(*object.Undefined); undef || val == nil {
		return ""
	}
	return val.Inspect()
}
