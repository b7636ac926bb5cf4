package genre

import (
	"sync"
	"time"
)

type memoKey struct {
	kind     string
	language string
}

type memoEntry struct {
	names   map[int]string
	expires time.Time
}

// memo caches id → name tables per (kind, language) so enrichment doesn't query per item.
type memo struct {
	mu      sync.RWMutex
	entries map[memoKey]memoEntry
	ttl     time.Duration
}

func newMemo(ttl time.Duration) *memo {
	return &memo{
		entries: make(map[memoKey]memoEntry),
		ttl:     ttl,
	}
}

func (m *memo) get(kind, language string) (map[int]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[memoKey{kind, language}]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.names, true
}

func (m *memo) set(kind, language string, names map[int]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[memoKey{kind, language}] = memoEntry{
		names:   names,
		expires: time.Now().Add(m.ttl),
	}
}

func (m *memo) forget(language string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.entries {
		if k.language == language {
			delete(m.entries, k)
		}
	}
}
