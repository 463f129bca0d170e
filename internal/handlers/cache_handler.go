package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemacademy/site-api/internal/cache"
	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/pkg/logger"
	"go.uber.org/zap"
)

// CacheHandler exposes housekeeping for the local content cache
type CacheHandler struct {
	store *cache.Store
}

func NewCacheHandler(store *cache.Store) *CacheHandler {
	return &CacheHandler{store: store}
}

// Status lists the cached keys, optionally filtered by ?prefix=
func (h *CacheHandler) Status(c *gin.Context) {
	stats := h.store.Stats()

	keys := h.store.Keys()
	if prefix := c.Query("prefix"); prefix != "" {
		filtered := keys[:0]
		for _, k := range keys {
			if strings.HasPrefix(k, prefix) {
				filtered = append(filtered, k)
			}
		}
		keys = filtered
	}
	if keys == nil {
		keys = []string{}
	}

	c.JSON(http.StatusOK, models.CacheStatusResponse{
		Enabled: stats.Enabled,
		Entries: stats.Entries,
		Expired: stats.Expired,
		Keys:    keys,
	})
}

// Clear removes every cache entry this service owns
func (h *CacheHandler) Clear(c *gin.Context) {
	removed := h.store.ClearAll()
	c.JSON(http.StatusOK, models.CacheClearResponse{Success: true, Removed: removed})
}

// PurgeExpired removes only entries past their lifetime
func (h *CacheHandler) PurgeExpired(c *gin.Context) {
	removed := h.store.ClearExpired()
	logger.Info("Expired cache entries purged", zap.Int("removed", removed))
	c.JSON(http.StatusOK, models.CacheClearResponse{Success: true, Removed: removed})
}
