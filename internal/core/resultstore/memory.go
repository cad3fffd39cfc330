package resultstore

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	entry     *Entry
	expiresAt time.Time
	seq       uint64
}

// MemoryStore keeps results in process. Expired items are dropped lazily on
// Get and swept on Put; once maxEntries is reached the oldest item is evicted.
type MemoryStore struct {
	mu         sync.Mutex
	items      map[string]memoryItem
	maxEntries int
	seq        uint64
	now        func() time.Time
}

// NewMemoryStore creates an in-process store. maxEntries <= 0 means unbounded.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		items:      make(map[string]memoryItem),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, id string, entry *Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	if _, exists := s.items[id]; !exists && s.maxEntries > 0 {
		for len(s.items) >= s.maxEntries {
			s.evictOldest()
		}
	}

	s.seq++
	item := memoryItem{entry: entry, seq: s.seq}
	if ttl > 0 {
		item.expiresAt = now.Add(ttl)
	}
	s.items[id] = item
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if item.expired(s.now()) {
		delete(s.items, id)
		return nil, ErrNotFound
	}
	return item.entry, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.items)
	return nil
}

// size reports how many items are held, including expired ones not yet swept.
func (s *MemoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) sweep(now time.Time) {
	for id, item := range s.items {
		if item.expired(now) {
			delete(s.items, id)
		}
	}
}

func (s *MemoryStore) evictOldest() {
	var oldestID string
	var oldestSeq uint64
	for id, item := range s.items {
		if oldestID == "" || item.seq < oldestSeq {
			oldestID, oldestSeq = id, item.seq
		}
	}
	delete(s.items, oldestID)
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}
