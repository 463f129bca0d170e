package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const entriesBucket = "entries"

// BoltStorage keeps cache entries in a single BoltDB file so they survive
// restarts. maxBytes caps the summed key+value size (0 means unlimited).
type BoltStorage struct {
	db       *bbolt.DB
	maxBytes int64

	// used is the summed key+value size, seeded on open and kept current by
	// Set and Delete. Held across the write transaction.
	mu   sync.Mutex
	used int64
}

// OpenBoltStorage opens or creates the database file at path
func OpenBoltStorage(path string, maxBytes int64) (*BoltStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	var used int64
	err = db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(entriesBucket))
		if err != nil {
			return err
		}
		return bucket.ForEach(func(k, v []byte) error {
			used += int64(len(k) + len(v))
			return nil
		})
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}

	return &BoltStorage{db: db, maxBytes: maxBytes, used: used}, nil
}

// Get returns a copy of the stored value
func (s *BoltStorage) Get(key string) ([]byte, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, ErrStorageClosed
	}

	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucket))
		if bucket == nil {
			return fmt.Errorf("cache bucket is missing")
		}
		if raw := bucket.Get([]byte(key)); raw != nil {
			// bbolt memory is only valid inside the transaction
			value = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return value, value != nil, nil
}

// Set stores value under key, refusing writes that would exceed maxBytes
func (s *BoltStorage) Set(key string, value []byte) error {
	if s == nil || s.db == nil {
		return ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var delta int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucket))
		if bucket == nil {
			return fmt.Errorf("cache bucket is missing")
		}

		delta = int64(len(key) + len(value))
		if old := bucket.Get([]byte(key)); old != nil {
			delta -= int64(len(key) + len(old))
		}
		if s.maxBytes > 0 && s.used+delta > s.maxBytes {
			return ErrQuotaExceeded
		}

		return bucket.Put([]byte(key), value)
	})
	if err != nil {
		return err
	}
	s.used += delta
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (s *BoltStorage) Delete(key string) error {
	if s == nil || s.db == nil {
		return ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var freed int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucket))
		if bucket == nil {
			return fmt.Errorf("cache bucket is missing")
		}
		if old := bucket.Get([]byte(key)); old != nil {
			freed = int64(len(key) + len(old))
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return err
	}
	s.used -= freed
	return nil
}

// Used reports the summed key+value size currently stored
func (s *BoltStorage) Used() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// Keys lists stored keys starting with prefix
func (s *BoltStorage) Keys(prefix string) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, ErrStorageClosed
	}

	keys := []string{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucket))
		if bucket == nil {
			return fmt.Errorf("cache bucket is missing")
		}
		c := bucket.Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}

// Close closes the underlying BoltDB database
func (s *BoltStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
