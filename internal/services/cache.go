package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"weather-risk-service/internal/observability"
)

// cacheEntry is the on-disk envelope, one file per key.
type cacheEntry struct {
	Data        json.RawMessage `json:"data"`
	Timestamp   time.Time       `json:"timestamp"`
	ExpiryHours float64         `json:"expiry_hours"`
}

// FileCache stores upstream responses as JSON files under a single
// directory. It is best-effort: a failed read or write is reported as a miss
// or logged, never an error the caller must handle. Writes go through a temp
// file and rename so concurrent readers never observe a partial entry.
type FileCache struct {
	dir     string
	clock   clockwork.Clock
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewFileCache(dir string, clock clockwork.Clock, metrics *observability.Metrics, logger *zap.Logger) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{
		dir:     dir,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Get returns the cached payload for key, deleting and missing on expired
// entries.
func (c *FileCache) Get(key string) (json.RawMessage, bool) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if err != nil {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("Discarding unreadable cache entry",
			zap.String("key", key),
			zap.Error(err))
		os.Remove(path)
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	age := c.clock.Now().Sub(entry.Timestamp)
	if age > time.Duration(entry.ExpiryHours*float64(time.Hour)) {
		os.Remove(path)
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return entry.Data, true
}

// Set stores data under key with the given time-to-live.
func (c *FileCache) Set(key string, data json.RawMessage, ttl time.Duration) error {
	entry := cacheEntry{
		Data:        data,
		Timestamp:   c.clock.Now(),
		ExpiryHours: ttl.Hours(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		c.metrics.CacheWriteErrors.Inc()
		return err
	}

	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		c.metrics.CacheWriteErrors.Inc()
		return err
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		c.metrics.CacheWriteErrors.Inc()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		c.metrics.CacheWriteErrors.Inc()
		return err
	}

	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		os.Remove(tmp.Name())
		c.metrics.CacheWriteErrors.Inc()
		return err
	}

	c.logger.Debug("Cached upstream response",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
	return nil
}

// Sweep removes every expired entry. It runs on a cron schedule so expired
// files from keys that are never read again do not accumulate.
func (c *FileCache) Sweep() {
	paths, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		c.logger.Warn("Cache sweep failed", zap.Error(err))
		return
	}

	removed := 0
	now := c.clock.Now()
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var entry cacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			os.Remove(path)
			removed++
			continue
		}

		if now.Sub(entry.Timestamp) > time.Duration(entry.ExpiryHours*float64(time.Hour)) {
			os.Remove(path)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Info("Swept expired cache entries", zap.Int("removed", removed))
	}
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+".json")
}

// sanitizeKey keeps keys filesystem-safe. Keys are built from source kind,
// coordinates, and dates, so collisions after replacement are not a concern.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, key)
}
