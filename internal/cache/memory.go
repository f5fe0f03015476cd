package cache

import (
	"container/list"
	"sync"
)

// memoryTier is a fixed-capacity LRU map of cache entries. A hit promotes
// the entry to most-recently-used; overflow evicts the least-recently-used
// entry without touching the disk tier.
type memoryTier struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	capacity int
}

type memEntry struct {
	key   string
	entry Entry
}

func newMemoryTier(capacity int) *memoryTier {
	return &memoryTier{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
	}
}

func (m *memoryTier) Get(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	m.order.MoveToFront(elem)
	return elem.Value.(*memEntry).entry, true
}

func (m *memoryTier) Put(key string, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		elem.Value.(*memEntry).entry = e
		m.order.MoveToFront(elem)
		return
	}

	elem := m.order.PushFront(&memEntry{key: key, entry: e})
	m.entries[key] = elem

	for m.order.Len() > m.capacity {
		oldest := m.order.Back()
		if oldest == nil {
			break
		}
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*memEntry).key)
	}
}

func (m *memoryTier) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}
