package cache

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stemacademy/site-api/pkg/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultKeyPrefix namespaces every key this store writes
	DefaultKeyPrefix = "stem_cache_"
	// DefaultTTL is the content freshness window used when a caller has no policy
	DefaultTTL = 30 * time.Minute

	defaultCacheName = "content"
)

// Entry is the persisted form of a cached value
type Entry struct {
	Data       json.RawMessage `json:"data"`
	Timestamp  int64           `json:"timestamp"`  // epoch ms at write time
	Expiration int64           `json:"expiration"` // lifetime in ms
}

// Valid reports whether the entry is still fresh at now
func (e Entry) Valid(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp <= e.Expiration
}

// ExpiresAt returns the last instant the entry is valid
func (e Entry) ExpiresAt() time.Time {
	return time.UnixMilli(e.Timestamp + e.Expiration)
}

// Clock returns the current time; tests swap it for a fake
type Clock func() time.Time

// Stats summarises the namespaced contents of a store
type Stats struct {
	Enabled bool `json:"enabled"`
	Entries int  `json:"entries"`
	Expired int  `json:"expired"`
}

// Store is a TTL cache over a Storage. It never surfaces storage failures:
// a broken or missing backend behaves like an always-empty cache.
type Store struct {
	storage Storage
	prefix  string
	name    string
	now     Clock
	mu      sync.Mutex
	// clears counts ClearAll calls; see SetIfEpoch
	clears  uint64
}

// Option customises a Store
type Option func(*Store)

// WithPrefix sets the key namespace
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock injects the time source
func WithClock(clock Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithName sets the cache_name metrics label
func WithName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.name = name
		}
	}
}

// NewStore creates a store over storage. A nil storage gives a no-op store.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		prefix:  DefaultKeyPrefix,
		name:    defaultCacheName,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether writes can be persisted at all
func (s *Store) Enabled() bool {
	return s != nil && s.storage != nil
}

// Set stores data under key for ttl. On a quota error expired entries are
// purged and the write retried once; any remaining failure is dropped.
func (s *Store) Set(key string, data any, ttl time.Duration) {
	s.set(key, data, ttl, nil)
}

// Epoch identifies the current ClearAll generation
func (s *Store) Epoch() uint64 {
	if !s.Enabled() {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

// SetIfEpoch is Set, skipped when ClearAll ran since epoch was read.
// It reports false only for that skip.
func (s *Store) SetIfEpoch(key string, data any, ttl time.Duration, epoch uint64) bool {
	return s.set(key, data, ttl, &epoch)
}

func (s *Store) set(key string, data any, ttl time.Duration, epoch *uint64) bool {
	if !s.Enabled() {
		return true
	}
	if ttl <= 0 {
		logger.Debug("Skipping cache write with non-positive TTL", zap.String("key", key))
		return true
	}

	payload, err := json.Marshal(data)
	if err != nil {
		logger.Warn("Failed to encode cache data", zap.String("key", key), zap.Error(err))
		metrics.CacheWrites.WithLabelValues(s.name, "error").Inc()
		return true
	}

	raw, err := json.Marshal(Entry{
		Data:       payload,
		Timestamp:  s.now().UnixMilli(),
		Expiration: ttl.Milliseconds(),
	})
	if err != nil {
		metrics.CacheWrites.WithLabelValues(s.name, "error").Inc()
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != nil && *epoch != s.clears {
		return false
	}

	err = s.storage.Set(s.prefix+key, raw)
	if errors.Is(err, ErrQuotaExceeded) {
		purged := s.clearExpiredLocked()
		logger.Info("Cache quota exceeded, purged expired entries",
			zap.String("key", key),
			zap.Int("purged", purged))
		err = s.storage.Set(s.prefix+key, raw)
	}
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			metrics.CacheWrites.WithLabelValues(s.name, "quota_exceeded").Inc()
		} else {
			metrics.CacheWrites.WithLabelValues(s.name, "error").Inc()
		}
		logger.Warn("Cache write dropped", zap.String("key", key), zap.Error(err))
		return true
	}

	metrics.CacheWrites.WithLabelValues(s.name, "success").Inc()
	return true
}

// Get returns the cached data for key. Missing, corrupt and expired entries
// are misses; the latter two are deleted as a side effect.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	if !s.Enabled() {
		metrics.CacheMisses.WithLabelValues(s.metricName()).Inc()
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found, err := s.storage.Get(s.prefix + key)
	if err != nil {
		logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	if err != nil || !found {
		metrics.CacheMisses.WithLabelValues(s.name).Inc()
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		logger.Warn("Discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		s.deleteLocked(key, "corrupt")
		metrics.CacheMisses.WithLabelValues(s.name).Inc()
		return nil, false
	}

	if !entry.Valid(s.now()) {
		s.deleteLocked(key, "expired")
		metrics.CacheMisses.WithLabelValues(s.name).Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues(s.name).Inc()
	return entry.Data, true
}

// Load decodes the cached data for key into dst, reporting a hit
func (s *Store) Load(key string, dst any) bool {
	data, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("Cached data does not match requested type", zap.String("key", key), zap.Error(err))
		s.Remove(key)
		return false
	}
	return true
}

// Remove deletes a single key
func (s *Store) Remove(key string) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(key, "removed")
}

// RemovePrefix deletes every key that starts with prefix and returns the count
func (s *Store) RemovePrefix(prefix string) int {
	return s.RemovePrefixFunc(prefix, nil)
}

// RemovePrefixFunc deletes the keys under prefix that match reports true for
// (all of them when match is nil). Listing and deleting happen under one lock,
// so a concurrent Set lands either before the sweep or after it.
func (s *Store) RemovePrefixFunc(prefix string, match func(key string) bool) int {
	if !s.Enabled() {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removePrefixLocked(prefix, match)
}

func (s *Store) removePrefixLocked(prefix string, match func(key string) bool) int {
	keys, err := s.storage.Keys(s.prefix + prefix)
	if err != nil {
		logger.Warn("Failed to list cache keys", zap.String("prefix", prefix), zap.Error(err))
		return 0
	}
	removed := 0
	for _, k := range keys {
		key := strings.TrimPrefix(k, s.prefix)
		if match != nil && !match(key) {
			continue
		}
		s.deleteLocked(key, "invalidated")
		removed++
	}
	return removed
}

// ClearAll deletes every key in this store's namespace. Pending SetIfEpoch
// writes read before the clear are dropped.
func (s *Store) ClearAll() int {
	if !s.Enabled() {
		return 0
	}
	s.mu.Lock()
	s.clears++
	removed := s.removePrefixLocked("", nil)
	s.mu.Unlock()

	logger.Info("Content cache cleared", zap.Int("removed", removed))
	return removed
}

// ClearExpired deletes entries whose TTL has elapsed and returns the count
func (s *Store) ClearExpired() int {
	if !s.Enabled() {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearExpiredLocked()
}

// Keys lists the live namespaced keys without their prefix
func (s *Store) Keys() []string {
	if !s.Enabled() {
		return []string{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.storage.Keys(s.prefix)
	if err != nil {
		logger.Warn("Failed to list cache keys", zap.Error(err))
		return []string{}
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, s.prefix))
	}
	return out
}

// Stats counts namespaced entries and how many of them are stale
func (s *Store) Stats() Stats {
	if !s.Enabled() {
		return Stats{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{Enabled: true}
	keys, err := s.storage.Keys(s.prefix)
	if err != nil {
		return stats
	}
	now := s.now()
	for _, k := range keys {
		stats.Entries++
		raw, found, err := s.storage.Get(k)
		if err != nil || !found {
			continue
		}
		var entry Entry
		if json.Unmarshal(raw, &entry) != nil || !entry.Valid(now) {
			stats.Expired++
		}
	}
	metrics.CacheSize.WithLabelValues(s.name).Set(float64(stats.Entries))
	return stats
}

// Close releases the underlying storage
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.storage.Close()
}

// clearExpiredLocked MUST be called with s.mu held
func (s *Store) clearExpiredLocked() int {
	keys, err := s.storage.Keys(s.prefix)
	if err != nil {
		logger.Warn("Failed to list cache keys", zap.Error(err))
		return 0
	}

	now := s.now()
	removed := 0
	for _, k := range keys {
		raw, found, err := s.storage.Get(k)
		if err != nil || !found {
			continue
		}
		var entry Entry
		if json.Unmarshal(raw, &entry) == nil && entry.Valid(now) {
			continue
		}
		if err := s.storage.Delete(k); err == nil {
			removed++
			metrics.CacheEvictions.WithLabelValues(s.name, "expired").Inc()
		}
	}
	return removed
}

// deleteLocked MUST be called with s.mu held
func (s *Store) deleteLocked(key, reason string) {
	if err := s.storage.Delete(s.prefix + key); err != nil {
		logger.Warn("Failed to delete cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	metrics.CacheEvictions.WithLabelValues(s.name, reason).Inc()
}

func (s *Store) metricName() string {
	if s == nil {
		return defaultCacheName
	}
	return s.name
}
