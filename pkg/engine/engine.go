// Package engine executes directives against a note collection with
// dependency-aware caching. It scans note text for directive spans,
// parses and evaluates each one, records what the result depended on,
// and serves the stored result until a staleness check says the
// collection has moved underneath it.
package engine

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/thymelang/thyme/pkg/analysis"
	"github.com/thymelang/thyme/pkg/ast"
	"github.com/thymelang/thyme/pkg/cache"
	"github.com/thymelang/thyme/pkg/deps"
	terrors "github.com/thymelang/thyme/pkg/errors"
	"github.com/thymelang/thyme/pkg/evaluator"
	"github.com/thymelang/thyme/pkg/note"
	"github.com/thymelang/thyme/pkg/object"
	"github.com/thymelang/thyme/pkg/parser"
	"github.com/thymelang/thyme/pkg/scanner"
)

// ScanFunc locates directive spans inside note text. Callers with their
// own markup conventions can substitute one; the default is
// scanner.Scan.
type ScanFunc func(text string) []scanner.Span

// Config assembles an Engine. Store is required; every other field has
// a working zero value.
type Config struct {
	Store note.Store

	// Registry supplies the builtin table. Nil means the default set.
	Registry *evaluator.Registry

	// CacheCapacity bounds the fast tier's entry count.
	CacheCapacity int

	// Persistent is the second cache tier. Nil means fast tier only.
	Persistent cache.PersistentCache

	// SessionTimeout bounds edit sessions. Zero means the default.
	SessionTimeout time.Duration

	Scan   ScanFunc
	Clock  func() time.Time
	Logger *slog.Logger
}

// Engine is the directive execution pipeline: scan, parse, analyze,
// look up, evaluate, store. One Engine serves one collection.
type Engine struct {
	store    note.Store
	registry *evaluator.Registry
	eval     *evaluator.Evaluator
	cache    *cache.Cache
	checker  *cache.Checker
	sessions *cache.SessionManager
	scan     ScanFunc
	group    singleflight.Group
	log      *slog.Logger
	clock    func() time.Time
}

// New builds an Engine over cfg.Store.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	registry := cfg.Registry
	if registry == nil {
		registry = evaluator.NewRegistry()
	}
	scan := cfg.Scan
	if scan == nil {
		scan = scanner.Scan
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		store:    cfg.Store,
		registry: registry,
		eval:     evaluator.New(registry),
		cache: cache.New(cfg.Store, cache.Config{
			Capacity:   cfg.CacheCapacity,
			Persistent: cfg.Persistent,
			Logger:     log,
		}),
		checker:  cache.NewChecker(cfg.Store),
		sessions: cache.NewSessionManager(cfg.SessionTimeout),
		scan:     scan,
		log:      log,
		clock:    clock,
	}
}

// Execute runs one directive found in note n at the given byte offset
// and returns its result, served from cache when the stored entry is
// still fresh. n may be nil for directives executed outside any note,
// such as a REPL line.
func (e *Engine) Execute(ctx context.Context, n *note.Note, source string, offset int) *cache.Result {
	return e.run(ctx, n, scanner.Span{Source: source, Offset: offset}, initialStack(n), true)
}

// Retry re-runs a directive, ignoring any stored entry. It is the
// explicit path for a user retrying a failed mutation; passive renders
// never re-run a mutating directive on their own.
func (e *Engine) Retry(ctx context.Context, n *note.Note, source string, offset int) *cache.Result {
	return e.run(ctx, n, scanner.Span{Source: source, Offset: offset}, initialStack(n), false)
}

// Trigger runs a deferred action built by a button or schedule
// directive. This is the only path that executes such an action:
// passive renders return the button or schedule value untouched. The
// action's one optional parameter is bound to the note the directive
// lives in. Trigger results are never cached.
func (e *Engine) Trigger(ctx context.Context, n *note.Note, action *object.Lambda) (object.Object, *terrors.Error) {
	mut := &storeMutator{eng: e}
	env := object.NewEnvironment()
	env.Collection = e.store
	env.Current = n
	env.Mutator = mut
	env.Executor = &nestedRenderer{eng: e}
	env.Clock = e.clock
	env.ViewStack = initialStack(n)

	var args []object.Object
	if len(action.Params) == 1 {
		if n != nil {
			args = append(args, env.WrapNote(n))
		} else {
			args = append(args, object.UNDEFINED)
		}
	}
	val := e.eval.Apply(ctx, action, args, 0)
	e.applyMutations(ctx, mut.changed)
	if errObj, ok := val.(*object.Error); ok {
		return nil, errObj.Err
	}
	return val, nil
}

// Builtins returns the sorted builtin names the engine's registry
// serves, for completion hints.
func (e *Engine) Builtins() []string {
	return e.registry.Names()
}

// BeginEdit opens an edit session: editedID is being edited inline
// inside originatingID's rendered view. Until EndEdit, lookups made
// while rendering the originating note skip staleness checks and
// invalidations targeting it are deferred, so the view holds still
// under the user's cursor.
func (e *Engine) BeginEdit(editedID, originatingID string) {
	e.sessions.Begin(editedID, originatingID)
}

// EndEdit closes the active edit session and applies every deferred
// invalidation in arrival order.
func (e *Engine) EndEdit() {
	e.sessions.End()
}

// OnEditEnd registers fn to run after an edit session fully ends,
// deferred invalidations included. Display layers re-render from it.
func (e *Engine) OnEditEnd(fn func()) {
	e.sessions.OnEnd(fn)
}

func initialStack(n *note.Note) []string {
	if n == nil {
		return nil
	}
	return []string{n.ID}
}

func (e *Engine) run(ctx context.Context, n *note.Note, span scanner.Span, stack []string, useCache bool) *cache.Result {
	directive, perr := parser.Parse(span.Source)
	if perr != nil {
		res := &cache.Result{Err: perr, Deps: deps.NewSet(), CachedAt: e.clock()}
		// A syntax error depends on nothing but the source text.
		e.cache.Put(ctx, cache.Global(), cache.KeyFor(span.Source, 0), res)
		return res
	}

	static := analysis.Dependencies(directive, n, e.store, e.registry)
	scope, key := e.scopeFor(n, span, static)

	if useCache {
		if res, ok := e.cache.Get(ctx, scope, key); ok {
			if served, hit := e.serveHit(res, n, scope); hit {
				return served
			}
		}
	}

	if verr := analysis.Validate(directive, e.registry); verr != nil {
		res := &cache.Result{Err: verr, Deps: deps.NewSet(), CachedAt: e.clock()}
		e.cache.Put(ctx, scope, key, res)
		return res
	}

	if static.Mutating || !useCache {
		return e.evalAndStore(ctx, n, span, directive, static, scope, key, stack)
	}

	// Concurrent identical lookups share one evaluation.
	v, _, _ := e.group.Do(scope.String()+"|"+key.String(), func() (any, error) {
		if res, ok := e.cache.Get(ctx, scope, key); ok {
			if served, hit := e.serveHit(res, n, scope); hit {
				return served, nil
			}
		}
		return e.evalAndStore(ctx, n, span, directive, static, scope, key, stack), nil
	})
	return v.(*cache.Result)
}

// serveHit decides whether a stored entry can be returned as-is.
func (e *Engine) serveHit(res *cache.Result, n *note.Note, scope cache.Scope) (*cache.Result, bool) {
	if res.Deps != nil && res.Deps.Mutating {
		// A mutating directive's entry is replay proof: no staleness
		// check may ever re-run the mutation.
		return res, true
	}
	if n != nil && e.sessions.Suppressed(n.ID) {
		return res, true
	}
	reason, stale := e.checker.Stale(res, n)
	if !stale {
		return res, true
	}
	e.log.Debug("engine: entry went stale",
		slog.String("scope", scope.String()),
		slog.String("reason", reason))
	return nil, false
}

// scopeFor picks the cache scope: directives that read or mutate the
// note they live in get a per-note entry keyed by position; everything
// else shares one entry per directive source across the collection.
func (e *Engine) scopeFor(n *note.Note, span scanner.Span, static *deps.Set) (cache.Scope, cache.Key) {
	if n != nil && (static.SelfAccess || static.Mutating) {
		return cache.ForNote(n.ID), cache.KeyFor(span.Source, span.Offset)
	}
	return cache.Global(), cache.KeyFor(span.Source, 0)
}

func (e *Engine) evalAndStore(ctx context.Context, n *note.Note, span scanner.Span, directive *ast.Directive, static *deps.Set, scope cache.Scope, key cache.Key, stack []string) *cache.Result {
	collector := cache.NewCollector()
	collector.Merge(static)
	mut := &storeMutator{eng: e}

	env := object.NewEnvironment()
	env.Collection = e.store
	env.Current = n
	env.Mutator = mut
	env.Executor = &nestedRenderer{eng: e}
	env.Clock = e.clock
	env.ViewStack = stack
	env.Deps = collector.Live()

	val := e.eval.Eval(ctx, directive, env)

	// Invalidation follows every confirmed write, never precedes it, so
	// a lookup racing this evaluation can only see the old entry with
	// the old state or no entry at all.
	e.applyMutations(ctx, mut.changed)

	res := &cache.Result{Deps: collector.Live(), CachedAt: e.clock()}
	if errObj, isErr := val.(*object.Error); isErr {
		res.Err = errObj.Err
	} else {
		res.Value = val
	}
	res.Dynamic = e.registry.ContainsDynamicCalls(directive) || collector.Live().Dynamic
	res.ContentHashes, res.MetaHashes = e.checker.Snapshot(res.Deps)

	if e.cacheable(res) {
		e.cache.Put(ctx, scope, key, res)
	}
	return res
}

// cacheable reports whether a result may be stored. Dynamic results
// change on every evaluation, and collaborator errors may succeed on
// the next try — but a mutating result is always stored: its entry is
// the replay guard, and without one the next passive render would
// silently re-run the mutation. A failed or dynamic mutation re-runs
// only through an explicit Retry.
func (e *Engine) cacheable(res *cache.Result) bool {
	if res.Deps != nil && res.Deps.Mutating {
		return true
	}
	if res.Dynamic {
		return false
	}
	if res.Err != nil && !res.Err.Deterministic() {
		return false
	}
	return true
}
