// Package cache stores scan results on disk, keyed by index file and validated
// by a fingerprint of the index contents and the effective configuration.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/zeebo/blake3"

	"github.com/panbanda/sweep/internal/output"
	"github.com/panbanda/sweep/pkg/config"
)

// Cache provides file-based caching for scan results.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry represents a cached scan result.
type Entry struct {
	Hash      string          `json:"hash"`
	Timestamp time.Time       `json:"timestamp"`
	Records   []output.Record `json:"records"`
}

// New creates a new cache instance.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	// Ensure cache directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// FromConfig creates the cache the configuration describes.
func FromConfig(cfg *config.Config) (*Cache, error) {
	return New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled)
}

// Enabled reports whether the cache reads and writes entries.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Fingerprint hashes index contents together with the configuration that
// affects analysis and any extra inputs, such as .gitignore files. Any change to
// them yields a different fingerprint.
func Fingerprint(index []byte, cfg *config.Config, extra ...[]byte) (string, error) {
	// Output settings do not change results.
	effective := *cfg
	effective.Output = config.OutputConfig{}
	effective.Cache = config.CacheConfig{}
	cfgData, err := toml.Marshal(effective)
	if err != nil {
		return "", err
	}

	h := blake3.New()
	_, _ = h.Write(index)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(cfgData)
	for _, e := range extra {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(e)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Load returns the records cached for key when the fingerprint matches and the
// entry has not expired.
func (c *Cache) Load(key, fingerprint string) ([]output.Record, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	// Check hash match
	if entry.Hash != fingerprint {
		return nil, false
	}

	// Check TTL
	if c.ttl > 0 && time.Since(entry.Timestamp) > c.ttl {
		os.Remove(path)
		return nil, false
	}

	return entry.Records, true
}

// Store caches records for key under fingerprint, replacing any previous entry.
func (c *Cache) Store(key, fingerprint string, records []output.Record) error {
	if !c.enabled {
		return nil
	}

	entry := Entry{
		Hash:      fingerprint,
		Timestamp: time.Now(),
		Records:   records,
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	tmp := c.keyPath(key) + ".tmp"
	if err := os.WriteFile(tmp, entryData, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, c.keyPath(key))
}

// Invalidate removes a cache entry. A missing entry is not an error.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath converts a key to a filesystem path.
func (c *Cache) keyPath(key string) string {
	// Use BLAKE3 hash of key for filename to avoid path issues
	return filepath.Join(c.dir, HashBytes([]byte(key))+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Entries   int           `json:"entries" toon:"entries"`
	TotalSize int64         `json:"total_size" toon:"total_size"`
	OldestAge time.Duration `json:"oldest_age" toon:"oldest_age"`
	NewestAge time.Duration `json:"newest_age" toon:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}

	return stats, nil
}
