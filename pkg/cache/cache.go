// Package cache stores directive results in two tiers keyed by scope
// and directive hash: a bounded in-memory LRU and an optional
// persistent store. Each entry carries the dependency set it was
// computed from; Checker replays those dependencies against the live
// collection so a stale entry is never served.
package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/thymelang/thyme/pkg/note"
	"github.com/thymelang/thyme/pkg/object"
)

// Config configures a Cache. The zero value works: default fast-tier
// capacity, no persistent tier, silent logger.
type Config struct {
	Capacity   int
	Persistent PersistentCache
	Logger     *slog.Logger
}

// Cache is the two-tier result store. Safe for concurrent use.
type Cache struct {
	fast *Memory
	per  PersistentCache
	col  note.Collection
	log  *slog.Logger
}

// New creates a cache whose stored note references resolve against col.
func New(col note.Collection, cfg Config) *Cache {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	per := cfg.Persistent
	if per == nil {
		per = NopPersistent{}
	}
	return &Cache{
		fast: NewMemory(cfg.Capacity),
		per:  per,
		col:  col,
		log:  log,
	}
}

// Get returns the entry for (scope, key). The fast tier answers first;
// a persistent hit is decoded and promoted. Entries that no longer
// decode, including values whose notes vanished, are dropped and
// reported as misses.
func (c *Cache) Get(ctx context.Context, scope Scope, key Key) (*Result, bool) {
	if res, ok := c.fast.Get(scope, key); ok {
		return res, true
	}
	data, err := c.per.Get(ctx, scope, key)
	if err != nil {
		c.log.Warn("cache: persistent read failed",
			slog.String("scope", scope.String()), slog.String("error", err.Error()))
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	res, err := DecodeResult(data, c.col)
	if err != nil {
		if rerr := c.per.Remove(ctx, scope, key); rerr != nil {
			c.log.Warn("cache: drop of undecodable entry failed",
				slog.String("scope", scope.String()), slog.String("error", rerr.Error()))
		}
		return nil, false
	}
	c.fast.Put(scope, key, res)
	return res, true
}

// Put stores res in both tiers. Results that do not serialize, such as
// lambdas and the constructs built from them, stay in the fast tier.
func (c *Cache) Put(ctx context.Context, scope Scope, key Key, res *Result) {
	c.fast.Put(scope, key, res)
	data, err := EncodeResult(res)
	if err != nil {
		if !errors.Is(err, object.ErrNotSerializable) {
			c.log.Warn("cache: encode failed",
				slog.String("scope", scope.String()), slog.String("error", err.Error()))
		}
		return
	}
	if err := c.per.Put(ctx, scope, key, data); err != nil {
		c.log.Warn("cache: persistent write failed",
			slog.String("scope", scope.String()), slog.String("error", err.Error()))
	}
}

// Remove drops one entry from both tiers.
func (c *Cache) Remove(ctx context.Context, scope Scope, key Key) {
	c.fast.Remove(scope, key)
	if err := c.per.Remove(ctx, scope, key); err != nil {
		c.log.Warn("cache: persistent remove failed",
			slog.String("scope", scope.String()), slog.String("error", err.Error()))
	}
}

// ClearScope drops every entry in scope from both tiers.
func (c *Cache) ClearScope(ctx context.Context, scope Scope) {
	c.fast.ClearScope(scope)
	if err := c.per.ClearScope(ctx, scope); err != nil {
		c.log.Warn("cache: persistent clear failed",
			slog.String("scope", scope.String()), slog.String("error", err.Error()))
	}
}
