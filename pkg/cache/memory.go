package cache

import (
	"container/list"
	"sync"
)

// DefaultCapacity bounds the fast tier when no capacity is configured.
const DefaultCapacity = 1024

// entryKey addresses one entry across both dimensions of the cache.
type entryKey struct {
	scope Scope
	key   Key
}

// memEntry is one fast-tier entry, stored in the recency list.
type memEntry struct {
	key entryKey
	res *Result
}

// Memory is the fast tier: a mutex-guarded LRU over (scope, key). Once
// capacity is reached the least recently used entry is evicted. Safe
// for concurrent use.
type Memory struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List // front is most recently used
	items    map[entryKey]*list.Element
}

// NewMemory creates the fast tier. Non-positive capacities select
// DefaultCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[entryKey]*list.Element, capacity),
	}
}

// Get returns the entry for (scope, key) and marks it most recently
// used.
func (m *Memory) Get(scope Scope, key Key) (*Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[entryKey{scope, key}]
	if !ok {
		return nil, false
	}
	m.ll.MoveToFront(el)
	return el.Value.(*memEntry).res, true
}

// Put inserts or replaces an entry, evicting the least recently used
// one at capacity.
func (m *Memory) Put(scope Scope, key Key, res *Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := entryKey{scope, key}
	if el, ok := m.items[k]; ok {
		el.Value.(*memEntry).res = res
		m.ll.MoveToFront(el)
		return
	}
	if m.ll.Len() >= m.capacity {
		m.evictLocked()
	}
	m.items[k] = m.ll.PushFront(&memEntry{key: k, res: res})
}

// Remove drops one entry.
func (m *Memory) Remove(scope Scope, key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[entryKey{scope, key}]; ok {
		m.removeLocked(el)
	}
}

// ClearScope drops every entry in scope.
func (m *Memory) ClearScope(scope Scope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for el := m.ll.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*memEntry).key.scope == scope {
			m.removeLocked(el)
		}
		el = next
	}
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) evictLocked() {
	if el := m.ll.Back(); el != nil {
		m.removeLocked(el)
	}
}

func (m *Memory) removeLocked(el *list.Element) {
	m.ll.Remove(el)
	delete(m.items, el.Value.(*memEntry).key)
}
