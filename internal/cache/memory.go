package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// Memory is a per-process LRU, selected with CACHE_BACKEND=memory.
// Entries honour the ttl given to Set and are also bounded by maxTTL and size.
type Memory struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an in-memory cache holding at most size entries.
func NewMemory(size int, maxTTL time.Duration) *Memory {
	if size <= 0 {
		size = 256
	}
	return &Memory{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	e, ok := m.lru.Get(key)
	if !ok || (!e.expires.IsZero() && !m.now().Before(e.expires)) {
		observe("miss")
		return nil, false
	}
	observe("hit")
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) bool {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.lru.Add(key, e)
	return true
}

func (m *Memory) Delete(_ context.Context, keys ...string) {
	for _, k := range keys {
		m.lru.Remove(k)
	}
}
