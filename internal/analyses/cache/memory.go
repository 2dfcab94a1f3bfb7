package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"cv-backend/internal/scoring"
)

// DefaultMaxEntries bounds a Memory cache built without WithMaxEntries.
const DefaultMaxEntries = 10000

type memoryEntry struct {
	key       string
	result    scoring.Result
	expiresAt time.Time
}

// Memory is an in-process Cache with per-entry TTL and a least recently used
// bound on the number of entries.
type Memory struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]*list.Element
	lru        *list.List // front is most recently used
	now        func() time.Time
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithMaxEntries caps the number of stored results. Non-positive values keep
// DefaultMaxEntries.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// NewMemory constructs a Memory cache. A non-positive ttl keeps entries until
// they are evicted for space.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a cached result if present and not expired.
func (m *Memory) Get(ctx context.Context, key string) (scoring.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return scoring.Result{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[key]
	if !ok {
		return scoring.Result{}, false, nil
	}
	entry := el.Value.(*memoryEntry)
	if m.expired(entry, m.now()) {
		m.remove(el)
		return scoring.Result{}, false, nil
	}
	m.lru.MoveToFront(el)
	return cloneResult(entry.result), true, nil
}

// Set stores a result. When the cache is full, expired entries go first and
// then the least recently used ones.
func (m *Memory) Set(ctx context.Context, key string, result scoring.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var expiresAt time.Time
	if m.ttl > 0 {
		expiresAt = now.Add(m.ttl)
	}

	if el, ok := m.entries[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.result = cloneResult(result)
		entry.expiresAt = expiresAt
		m.lru.MoveToFront(el)
		return nil
	}

	if m.lru.Len() >= m.maxEntries {
		m.evictExpired(now)
	}
	for m.lru.Len() >= m.maxEntries {
		m.remove(m.lru.Back())
	}
	m.entries[key] = m.lru.PushFront(&memoryEntry{key: key, result: cloneResult(result), expiresAt: expiresAt})
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

func (m *Memory) expired(entry *memoryEntry, now time.Time) bool {
	return !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt)
}

func (m *Memory) evictExpired(now time.Time) {
	for el := m.lru.Back(); el != nil; {
		prev := el.Prev()
		if m.expired(el.Value.(*memoryEntry), now) {
			m.remove(el)
		}
		el = prev
	}
}

func (m *Memory) remove(el *list.Element) {
	entry := m.lru.Remove(el).(*memoryEntry)
	delete(m.entries, entry.key)
}

var _ Cache = (*Memory)(nil)
