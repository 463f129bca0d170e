package cache

import (
	"errors"
	"strings"

	"github.com/stemacademy/site-api/pkg/logger"
	"go.uber.org/zap"
)

var (
	// ErrQuotaExceeded is returned by a Storage that has no room for a write
	ErrQuotaExceeded = errors.New("cache storage quota exceeded")

	// ErrStorageClosed is returned after Close
	ErrStorageClosed = errors.New("cache storage closed")
)

// Storage is the persistent key-value layer under Store. Values are opaque
// bytes; expiry is Store's concern.
type Storage interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
	Close() error
}

// Backend names accepted by OpenStorage
const (
	BackendBolt   = "bolt"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// StorageOptions configures OpenStorage
type StorageOptions struct {
	Backend    string
	Path       string
	MaxBytes   int64
	MaxEntries int
}

// OpenStorage opens the configured backend. A backend that cannot be opened
// yields nil, which Store treats as a pass-through cache.
func OpenStorage(opts StorageOptions) Storage {
	switch strings.ToLower(opts.Backend) {
	case BackendBolt:
		storage, err := OpenBoltStorage(opts.Path, opts.MaxBytes)
		if err != nil {
			logger.Warn("Cache storage unavailable, continuing without cache",
				zap.String("backend", opts.Backend),
				zap.String("path", opts.Path),
				zap.Error(err))
			return nil
		}
		return storage
	case BackendMemory:
		return NewMemoryStorage(opts.MaxEntries)
	default:
		logger.Info("Content cache disabled", zap.String("backend", opts.Backend))
		return nil
	}
}
