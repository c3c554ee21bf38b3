// Package repocache persists repository scan results keyed by repository
// path and head revision, so unchanged repositories are never re-scanned.
// The cache is an explicitly constructed instance with an open/close
// lifecycle; writes are atomic (write-temp-then-rename) and serialized, so
// a concurrent reader never observes a half-written file.
package repocache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/calder-systems/devsight/internal/gitscan"
)

// Entry is one cached scan. Valid only while HeadRevision matches the
// repository's live head and ComputedAt is within the TTL.
type Entry struct {
	RepositoryPath string                  `json:"repository_path"`
	HeadRevision   string                  `json:"head_revision"`
	ComputedAt     time.Time               `json:"computed_at"`
	Stats          gitscan.RepositoryStats `json:"stats"`
}

// cacheFile is the on-disk format: a map from repository path to entry.
type cacheFile struct {
	Entries map[string]Entry `json:"entries"`
}

// Cache is a TTL- and revision-validated scan cache backed by one JSON
// file.
type Cache struct {
	path string
	ttl  time.Duration

	mu      sync.Mutex
	entries map[string]Entry

	// now is replaceable in tests.
	now func() time.Time
}

// Open loads the cache file at path, creating the parent directory if
// needed. A missing or corrupt file starts an empty cache; corruption is
// not worth failing a run over since every entry can be recomputed.
func Open(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	c := &Cache{
		path:    path,
		ttl:     ttl,
		entries: make(map[string]Entry),
		now:     time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	var file cacheFile
	if err := json.Unmarshal(data, &file); err == nil && file.Entries != nil {
		c.entries = file.Entries
	}
	return c, nil
}

// GetOrCompute returns the cached stats for repoPath when the stored
// revision equals head and the entry is fresh; otherwise it invokes
// compute, stores the result, and returns it. Partial results carrying a
// scan error are returned but never stored, so the next run retries.
// Writers to the same cache are serialized; compute runs outside the lock
// so independent repositories can compute concurrently.
func (c *Cache) GetOrCompute(repoPath, head string, compute func() (gitscan.RepositoryStats, error)) (gitscan.RepositoryStats, bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[repoPath]
	c.mu.Unlock()

	if ok && entry.HeadRevision == head && head != "" && c.now().Sub(entry.ComputedAt) < c.ttl {
		return entry.Stats, true, nil
	}

	stats, err := compute()
	if err != nil {
		return stats, false, err
	}
	if stats.ScanError != "" {
		// Partial stats (timeout, oversize, tool failure) are transient;
		// caching them would suppress the retry for a full TTL.
		return stats, false, nil
	}

	c.mu.Lock()
	c.entries[repoPath] = Entry{
		RepositoryPath: repoPath,
		HeadRevision:   head,
		ComputedAt:     c.now(),
		Stats:          stats,
	}
	c.mu.Unlock()

	return stats, false, nil
}

// Flush writes the cache atomically: the new content lands in a temp file
// in the same directory and replaces the old file with one rename. A lock
// file guards against a second process flushing the same cache.
func (c *Cache) Flush() error {
	c.mu.Lock()
	data, err := json.MarshalIndent(cacheFile{Entries: c.entries}, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	unlock, err := acquireLock(c.path + ".lock")
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp cache: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing cache: %w", err)
	}
	return nil
}

// Close flushes and releases the cache.
func (c *Cache) Close() error {
	return c.Flush()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
