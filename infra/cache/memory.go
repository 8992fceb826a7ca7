package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	val     []byte
	expires time.Time
}

// Memory is an in-process cache. When full, the entry closest to expiry
// is evicted.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemory creates a Memory cache.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	return &Memory{entries: make(map[string]entry), ttl: ttl, maxEntries: maxEntries, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if _, exists := m.entries[key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evict(now)
	}
	m.entries[key] = entry{val: append([]byte(nil), val...), expires: now.Add(m.ttl)}
	return nil
}

// evict drops expired entries, or the one expiring first if none expired.
func (m *Memory) evict(now time.Time) {
	var (
		oldest    string
		oldestExp time.Time
		dropped   bool
	)
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
			dropped = true
			continue
		}
		if oldest == "" || e.expires.Before(oldestExp) {
			oldest, oldestExp = k, e.expires
		}
	}
	if !dropped && oldest != "" {
		delete(m.entries, oldest)
	}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
