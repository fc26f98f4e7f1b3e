package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weather-risk-service/internal/observability"
)

func newTestCache(t *testing.T) (*FileCache, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	cache, err := NewFileCache(t.TempDir(), clock, observability.NewMetricsForTesting(), zap.NewNop())
	require.NoError(t, err)
	return cache, clock
}

func TestFileCacheSetGet(t *testing.T) {
	cache, _ := newTestCache(t)

	payload := json.RawMessage(`{"temperature": 21.5}`)
	require.NoError(t, cache.Set("nasa_hourly_23.8103_90.4125_20260310_20260310", payload, 24*time.Hour))

	got, ok := cache.Get("nasa_hourly_23.8103_90.4125_20260310_20260310")
	require.True(t, ok)
	assert.JSONEq(t, string(payload), string(got))
}

func TestFileCacheMissOnUnknownKey(t *testing.T) {
	cache, _ := newTestCache(t)

	_, ok := cache.Get("never_written")
	assert.False(t, ok)
}

func TestFileCacheExpiry(t *testing.T) {
	cache, clock := newTestCache(t)

	require.NoError(t, cache.Set("forecast_key", json.RawMessage(`{}`), time.Hour))

	clock.Advance(59 * time.Minute)
	_, ok := cache.Get("forecast_key")
	assert.True(t, ok, "entry should still be fresh")

	clock.Advance(2 * time.Minute)
	_, ok = cache.Get("forecast_key")
	assert.False(t, ok, "entry should have expired")

	// Expired entries are deleted on read, not just skipped.
	_, ok = cache.Get("forecast_key")
	assert.False(t, ok)
}

func TestFileCacheOverwrite(t *testing.T) {
	cache, _ := newTestCache(t)

	require.NoError(t, cache.Set("key", json.RawMessage(`{"v": 1}`), time.Hour))
	require.NoError(t, cache.Set("key", json.RawMessage(`{"v": 2}`), time.Hour))

	got, ok := cache.Get("key")
	require.True(t, ok)
	assert.JSONEq(t, `{"v": 2}`, string(got))
}

func TestFileCacheDiscardsCorruptEntry(t *testing.T) {
	cache, _ := newTestCache(t)

	require.NoError(t, os.WriteFile(filepath.Join(cache.dir, "bad.json"), []byte("not json"), 0o644))

	_, ok := cache.Get("bad")
	assert.False(t, ok)
	assert.NoFileExists(t, filepath.Join(cache.dir, "bad.json"))
}

func TestFileCacheSweep(t *testing.T) {
	cache, clock := newTestCache(t)

	require.NoError(t, cache.Set("short", json.RawMessage(`{}`), time.Hour))
	require.NoError(t, cache.Set("long", json.RawMessage(`{}`), 24*time.Hour))

	clock.Advance(2 * time.Hour)
	cache.Sweep()

	assert.NoFileExists(t, filepath.Join(cache.dir, "short.json"))
	assert.FileExists(t, filepath.Join(cache.dir, "long.json"))

	_, ok := cache.Get("long")
	assert.True(t, ok)
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "nasa_hourly_23.8103_90.4125", sanitizeKey("nasa_hourly_23.8103_90.4125"))
	assert.Equal(t, "a_b_c", sanitizeKey("a/b:c"))
}
