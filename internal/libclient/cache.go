package libclient

import (
	"strings"
	"sync"
)

// QueryCache stores confirmed server responses keyed by resource path.
// Reads hit the cache; mutations invalidate the keys they affect so every
// view re-renders from fresh server state.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]interface{}
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string]interface{})}
}

func (q *QueryCache) Get(key string) (interface{}, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	value, ok := q.entries[key]
	return value, ok
}

func (q *QueryCache) Set(key string, value interface{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries[key] = value
}

// Invalidate drops the given keys.
func (q *QueryCache) Invalidate(keys ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, key := range keys {
		delete(q.entries, key)
	}
}

// InvalidatePrefix drops every key under the given prefix.
func (q *QueryCache) InvalidatePrefix(prefix string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for key := range q.entries {
		if strings.HasPrefix(key, prefix) {
			delete(q.entries, key)
		}
	}
}

// Len reports the number of cached entries.
func (q *QueryCache) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return len(q.entries)
}
