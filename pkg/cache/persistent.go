package cache

import "context"

// PersistentCache is the optional durable tier: a key-value store over
// encoded results. The engine stays correct without one, only cold
// after restarts. Get reports a miss as nil data with nil error.
type PersistentCache interface {
	Get(ctx context.Context, scope Scope, key Key) ([]byte, error)
	Put(ctx context.Context, scope Scope, key Key, data []byte) error
	Remove(ctx context.Context, scope Scope, key Key) error
	ClearScope(ctx context.Context, scope Scope) error
}

// NopPersistent is the persistent tier used when none is configured:
// every lookup misses and every write is discarded.
type NopPersistent struct{}

func (NopPersistent) Get(context.Context, Scope, Key) ([]byte, error) { return nil, nil }
func (NopPersistent) Put(context.Context, Scope, Key, []byte) error   { return nil }
func (NopPersistent) Remove(context.Context, Scope, Key) error        { return nil }
func (NopPersistent) ClearScope(context.Context, Scope) error         { return nil }

var _ PersistentCache = NopPersistent{}
