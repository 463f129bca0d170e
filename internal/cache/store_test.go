package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(ms int64) *fakeClock {
	return &fakeClock{now: time.UnixMilli(ms)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.UnixMilli(ms)
}

type heroFixture struct {
	Title string `json:"title"`
}

func TestStore_SetAndGet(t *testing.T) {
	store := NewStore(NewMemoryStorage(0))

	store.Set("hero", heroFixture{Title: "Build the future"}, time.Minute)

	data, ok := store.Get("hero")
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"Build the future"}`, string(data))

	var hero heroFixture
	require.True(t, store.Load("hero", &hero))
	assert.Equal(t, "Build the future", hero.Title)
}

func TestStore_ExpiredEntryIsMissAndRemoved(t *testing.T) {
	clock := newFakeClock(0)
	storage := NewMemoryStorage(0)
	store := NewStore(storage, WithClock(clock.Now))

	store.Set("k", map[string]int{"v": 1}, 1000*time.Millisecond)

	clock.Set(1000)
	_, ok := store.Get("k")
	assert.True(t, ok, "entry is valid while elapsed == expiration")

	clock.Set(1500)
	_, ok = store.Get("k")
	assert.False(t, ok)

	_, found, err := storage.Get(DefaultKeyPrefix + "k")
	require.NoError(t, err)
	assert.False(t, found, "expired entry should be deleted on read")
}

func TestStore_CorruptEntryIsDiscarded(t *testing.T) {
	storage := NewMemoryStorage(0)
	require.NoError(t, storage.Set(DefaultKeyPrefix+"broken", []byte("{not json")))
	store := NewStore(storage)

	_, ok := store.Get("broken")
	assert.False(t, ok)

	_, found, _ := storage.Get(DefaultKeyPrefix + "broken")
	assert.False(t, found)
}

func TestStore_LoadTypeMismatchIsMiss(t *testing.T) {
	store := NewStore(NewMemoryStorage(0))
	store.Set("items", "plain string", time.Minute)

	var items []heroFixture
	assert.False(t, store.Load("items", &items))
	_, ok := store.Get("items")
	assert.False(t, ok)
}

func TestStore_NonPositiveTTLIsNotStored(t *testing.T) {
	store := NewStore(NewMemoryStorage(0))

	store.Set("zero", 1, 0)
	store.Set("negative", 1, -time.Second)

	assert.Empty(t, store.Keys())
}

func TestStore_NilStorageIsNoop(t *testing.T) {
	store := NewStore(nil)

	assert.False(t, store.Enabled())
	store.Set("hero", heroFixture{Title: "x"}, time.Minute)
	_, ok := store.Get("hero")
	assert.False(t, ok)
	assert.Equal(t, 0, store.RemovePrefix("hero"))
	assert.Equal(t, 0, store.ClearAll())
	assert.Equal(t, 0, store.ClearExpired())
	assert.Empty(t, store.Keys())
	assert.Equal(t, Stats{}, store.Stats())
	assert.NoError(t, store.Close())
}

func TestStore_QuotaPurgesExpiredAndRetries(t *testing.T) {
	clock := newFakeClock(0)
	store := NewStore(NewMemoryStorage(2), WithClock(clock.Now))

	store.Set("old-1", 1, time.Second)
	store.Set("old-2", 2, time.Second)

	clock.Set(5000)
	store.Set("fresh", 3, time.Minute)

	_, ok := store.Get("fresh")
	assert.True(t, ok, "write should succeed after expired entries are purged")
	assert.Equal(t, []string{"fresh"}, store.Keys())
}

func TestStore_QuotaStillExceededIsSwallowed(t *testing.T) {
	store := NewStore(NewMemoryStorage(1))

	store.Set("a", 1, time.Minute)
	assert.NotPanics(t, func() {
		store.Set("b", 2, time.Minute)
	})

	_, ok := store.Get("b")
	assert.False(t, ok)
	_, ok = store.Get("a")
	assert.True(t, ok)
}

func TestStore_RemovePrefixOnlyTouchesMatchingKeys(t *testing.T) {
	store := NewStore(NewMemoryStorage(0))
	store.Set("/api/about-content/background", 1, time.Minute)
	store.Set("/api/about-content/background?lang=en", 2, time.Minute)
	store.Set("/api/about-content/impact", 3, time.Minute)

	removed := store.RemovePrefix("/api/about-content/background")

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"/api/about-content/impact"}, store.Keys())
}

func TestStore_RemovePrefixFuncFiltersUnderOneSweep(t *testing.T) {
	store := NewStore(NewMemoryStorage(0))
	store.Set("/api/team-content/team", 1, time.Minute)
	store.Set("/api/team-content/team?page=2", 2, time.Minute)
	store.Set("/api/team-content/team-leads", 3, time.Minute)

	base := "/api/team-content/team"
	removed := store.RemovePrefixFunc(base, func(key string) bool {
		return key == base || strings.HasPrefix(key, base+"?")
	})

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"/api/team-content/team-leads"}, store.Keys())
}

func TestStore_RemovePrefixFuncWithConcurrentSets(t *testing.T) {
	store := NewStore(NewMemoryStorage(0))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.Set(fmt.Sprintf("/api/blog-content/posts?page=%d", i), i, time.Minute)
		}(i)
		go func() {
			defer wg.Done()
			store.RemovePrefixFunc("/api/blog-content/posts", nil)
		}()
	}
	wg.Wait()

	store.RemovePrefixFunc("/api/blog-content/posts", nil)
	assert.Empty(t, store.Keys())
}

func TestStore_SetIfEpochSkipsAfterClearAll(t *testing.T) {
	store := NewStore(NewMemoryStorage(0))
	epoch := store.Epoch()

	assert.True(t, store.SetIfEpoch("a", 1, time.Minute, epoch))
	store.ClearAll()
	assert.False(t, store.SetIfEpoch("b", 2, time.Minute, epoch))
	assert.Empty(t, store.Keys())

	assert.True(t, store.SetIfEpoch("b", 2, time.Minute, store.Epoch()))
	assert.Equal(t, []string{"b"}, store.Keys())
}

func TestStore_ClearAllKeepsForeignKeys(t *testing.T) {
	storage := NewMemoryStorage(0)
	require.NoError(t, storage.Set("other_app_key", []byte("x")))
	store := NewStore(storage)
	store.Set("a", 1, time.Minute)
	store.Set("b", 2, time.Minute)

	assert.Equal(t, 2, store.ClearAll())

	_, found, _ := storage.Get("other_app_key")
	assert.True(t, found)
}

func TestStore_ClearExpiredAndStats(t *testing.T) {
	clock := newFakeClock(0)
	store := NewStore(NewMemoryStorage(0), WithClock(clock.Now))
	store.Set("short", 1, time.Second)
	store.Set("long", 2, time.Hour)

	clock.Set(2000)
	stats := store.Stats()
	assert.True(t, stats.Enabled)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 1, stats.Expired)

	assert.Equal(t, 1, store.ClearExpired())
	assert.Equal(t, []string{"long"}, store.Keys())
}

func TestStore_CustomPrefix(t *testing.T) {
	storage := NewMemoryStorage(0)
	store := NewStore(storage, WithPrefix("test_"))
	store.Set("k", 1, time.Minute)

	_, found, _ := storage.Get("test_k")
	assert.True(t, found)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore(NewMemoryStorage(0))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "k" + string(rune('a'+i))
			store.Set(key, i, time.Minute)
			_, _ = store.Get(key)
			_ = store.Keys()
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Keys(), 20)
}

func TestEntry_WireFormat(t *testing.T) {
	raw, err := json.Marshal(Entry{Data: json.RawMessage(`[1,2]`), Timestamp: 10, Expiration: 20})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[1,2],"timestamp":10,"expiration":20}`, string(raw))
	assert.Equal(t, time.UnixMilli(30), Entry{Timestamp: 10, Expiration: 20}.ExpiresAt())
}

func TestBoltStorage_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "content.db")

	storage, err := OpenBoltStorage(path, 0)
	require.NoError(t, err)
	store := NewStore(storage)
	store.Set("hero", heroFixture{Title: "Persisted"}, time.Hour)
	require.NoError(t, store.Close())

	reopened, err := OpenBoltStorage(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	var hero heroFixture
	assert.True(t, NewStore(reopened).Load("hero", &hero))
	assert.Equal(t, "Persisted", hero.Title)
}

func TestBoltStorage_QuotaAndKeys(t *testing.T) {
	storage, err := OpenBoltStorage(filepath.Join(t.TempDir(), "c.db"), 20)
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, storage.Set("p_a", []byte("1234")))
	require.NoError(t, storage.Set("p_a", []byte("12345678")), "overwriting a key does not count twice")
	require.NoError(t, storage.Set("q_b", []byte("1")))

	err = storage.Set("p_c", []byte("this does not fit"))
	assert.True(t, errors.Is(err, ErrQuotaExceeded))

	keys, err := storage.Keys("p_")
	require.NoError(t, err)
	assert.Equal(t, []string{"p_a"}, keys)

	require.NoError(t, storage.Delete("p_a"))
	require.NoError(t, storage.Delete("missing"))
	_, found, err := storage.Get("p_a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBoltStorage_QuotaSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.db")
	storage, err := OpenBoltStorage(path, 20)
	require.NoError(t, err)
	require.NoError(t, storage.Set("p_a", []byte("1234567890")))
	assert.Equal(t, int64(13), storage.Used())
	require.NoError(t, storage.Close())

	reopened, err := OpenBoltStorage(path, 20)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, int64(13), reopened.Used())

	err = reopened.Set("p_b", []byte("12345"))
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, int64(13), reopened.Used(), "rejected writes do not count")

	require.NoError(t, reopened.Delete("p_a"))
	assert.Zero(t, reopened.Used())
	require.NoError(t, reopened.Set("p_b", []byte("12345")))
	assert.Equal(t, int64(8), reopened.Used())
}

func TestBoltStorage_ClosedReturnsError(t *testing.T) {
	storage, err := OpenBoltStorage(filepath.Join(t.TempDir(), "c.db"), 0)
	require.NoError(t, err)
	require.NoError(t, storage.Close())

	_, _, err = storage.Get("k")
	assert.ErrorIs(t, err, ErrStorageClosed)
	assert.ErrorIs(t, storage.Set("k", nil), ErrStorageClosed)
}

func TestOpenStorage(t *testing.T) {
	assert.Nil(t, OpenStorage(StorageOptions{Backend: BackendNone}))
	assert.Nil(t, OpenStorage(StorageOptions{Backend: BackendBolt, Path: ""}))
	assert.IsType(t, &MemoryStorage{}, OpenStorage(StorageOptions{Backend: BackendMemory}))

	bolt := OpenStorage(StorageOptions{Backend: "BOLT", Path: filepath.Join(t.TempDir(), "x.db")})
	require.NotNil(t, bolt)
	assert.NoError(t, bolt.Close())
}
