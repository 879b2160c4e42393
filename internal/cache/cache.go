package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// entry is the on-disk record for one cached verdict. Expiry is fixed at
// write time, so shortening the configured TTL later does not invalidate
// entries that were written under a longer one.
type entry struct {
	Response  string    `json:"response"`
	SavedAt   time.Time `json:"savedAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func (e entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Cache stores raw agent verdicts on disk, one JSON file per entry. A
// verdict is keyed by everything that determines it: provider, model,
// agent, file path, and patch text. Re-reviewing an unchanged file with
// the same agent costs nothing.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// New creates a Cache rooted at dir, creating the directory if needed.
// An empty dir means the per-user cache location. A disabled cache is
// valid and turns every operation into a no-op.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{}, nil
	}
	if dir == "" {
		var err error
		if dir, err = defaultCacheDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{dir: dir, ttl: time.Duration(ttlSeconds) * time.Second, enabled: true}, nil
}

// Get returns the cached response for key. Expired entries are removed
// and reported as misses.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	e, err := readEntry(c.entryPath(key))
	if err != nil {
		return "", false
	}
	if e.expired(time.Now()) {
		os.Remove(c.entryPath(key))
		return "", false
	}
	return e.Response, true
}

// Put stores a response under key. The write goes through a temp file in
// the same directory so a concurrent Get never sees a partial entry.
func (c *Cache) Put(key, response string) error {
	if !c.enabled {
		return nil
	}
	now := time.Now()
	e := entry{Response: response, SavedAt: now}
	if c.ttl > 0 {
		e.ExpiresAt = now.Add(c.ttl)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, "put-*")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.entryPath(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear deletes every entry.
func (c *Cache) Clear() error {
	if !c.enabled || c.dir == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("listing cache entries: %w", err)
	}
	for _, m := range matches {
		os.Remove(m)
	}
	return nil
}

// Stats describes the cache contents.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// GetStats counts entries and bytes on disk, and how many of those
// entries have already expired but not yet been evicted by a read.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled || c.dir == "" {
		return stats, nil
	}
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return stats, fmt.Errorf("listing cache entries: %w", err)
	}
	now := time.Now()
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
		if e, err := readEntry(m); err == nil && e.expired(now) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string { return c.dir }

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool { return c.enabled }

// HashKey returns the hex SHA-256 of the given key material.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// BuildKey derives the cache key for one analysis task. Every input that
// can change the verdict participates.
func BuildKey(provider, model, agent, path, patch string) string {
	return HashKey(provider + ":" + model + ":" + agent + ":" + path + ":" + patch)
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, HashKey(key)+".json")
}

func readEntry(path string) (entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entry{}, err
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return entry{}, err
	}
	return e, nil
}

// defaultCacheDir honors XDG_CACHE_HOME on every platform, falling back
// to the OS per-user cache location.
func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "quorum"), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return filepath.Join(base, "quorum"), nil
}
