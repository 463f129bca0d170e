package cache

import (
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 10 * time.Minute

// MemoryStorage keeps entries in process memory. It is used in development
// and tests, or when no writable disk is available.
type MemoryStorage struct {
	cache      *gocache.Cache
	maxEntries int
}

// NewMemoryStorage creates an in-memory storage holding at most maxEntries
// keys (0 means unlimited)
func NewMemoryStorage(maxEntries int) *MemoryStorage {
	return &MemoryStorage{
		// Entries never expire here; Store decides validity from the entry itself
		cache:      gocache.New(gocache.NoExpiration, memoryCleanupInterval),
		maxEntries: maxEntries,
	}
}

// Get returns the stored value
func (s *MemoryStorage) Get(key string) ([]byte, bool, error) {
	data, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	value, ok := data.([]byte)
	if !ok {
		s.cache.Delete(key)
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value, failing with ErrQuotaExceeded when a new key would not fit
func (s *MemoryStorage) Set(key string, value []byte) error {
	if s.maxEntries > 0 {
		if _, exists := s.cache.Get(key); !exists && s.cache.ItemCount() >= s.maxEntries {
			return ErrQuotaExceeded
		}
	}
	s.cache.Set(key, append([]byte(nil), value...), gocache.NoExpiration)
	return nil
}

// Delete removes key
func (s *MemoryStorage) Delete(key string) error {
	s.cache.Delete(key)
	return nil
}

// Keys lists stored keys starting with prefix, sorted
func (s *MemoryStorage) Keys(prefix string) ([]string, error) {
	items := s.cache.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close drops every entry
func (s *MemoryStorage) Close() error {
	s.cache.Flush()
	return nil
}
