package repocache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-systems/devsight/internal/gitscan"
)

func testStats(path string, commits int) gitscan.RepositoryStats {
	return gitscan.RepositoryStats{
		Path:         path,
		Name:         filepath.Base(path),
		TotalCommits: commits,
		UserCommits:  commits,
	}
}

func TestCacheComputesOnceForSameHead(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "scan.json"), time.Hour)
	require.NoError(t, err)

	computes := 0
	compute := func() (gitscan.RepositoryStats, error) {
		computes++
		return testStats("/repos/widget", 12), nil
	}

	stats, hit, err := cache.GetOrCompute("/repos/widget", "abc123", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 12, stats.TotalCommits)

	stats, hit, err = cache.GetOrCompute("/repos/widget", "abc123", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 12, stats.TotalCommits)
	assert.Equal(t, 1, computes)
}

func TestCacheRecomputesOnNewRevision(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "scan.json"), time.Hour)
	require.NoError(t, err)

	computes := 0
	_, _, err = cache.GetOrCompute("/repos/widget", "abc123", func() (gitscan.RepositoryStats, error) {
		computes++
		return testStats("/repos/widget", 12), nil
	})
	require.NoError(t, err)

	stats, hit, err := cache.GetOrCompute("/repos/widget", "def456", func() (gitscan.RepositoryStats, error) {
		computes++
		return testStats("/repos/widget", 13), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 13, stats.TotalCommits)
	assert.Equal(t, 2, computes)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "scan.json"), time.Hour)
	require.NoError(t, err)

	current := time.Now()
	cache.now = func() time.Time { return current }

	computes := 0
	compute := func() (gitscan.RepositoryStats, error) {
		computes++
		return testStats("/repos/widget", 12), nil
	}

	_, _, err = cache.GetOrCompute("/repos/widget", "abc123", compute)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, hit, err := cache.GetOrCompute("/repos/widget", "abc123", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, computes)
}

func TestCacheEmptyHeadNeverHits(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "scan.json"), time.Hour)
	require.NoError(t, err)

	computes := 0
	compute := func() (gitscan.RepositoryStats, error) {
		computes++
		return testStats("/repos/widget", 1), nil
	}

	_, _, err = cache.GetOrCompute("/repos/widget", "", compute)
	require.NoError(t, err)
	_, hit, err := cache.GetOrCompute("/repos/widget", "", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, computes)
}

func TestCachePartialScanNotStored(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "scan.json"), time.Hour)
	require.NoError(t, err)

	computes := 0
	_, hit, err := cache.GetOrCompute("/repos/widget", "abc123", func() (gitscan.RepositoryStats, error) {
		computes++
		return gitscan.RepositoryStats{Path: "/repos/widget", ScanError: "timeout", Partial: true}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 0, cache.Len())

	// The retry succeeds and its result is cached.
	stats, hit, err := cache.GetOrCompute("/repos/widget", "abc123", func() (gitscan.RepositoryStats, error) {
		computes++
		return testStats("/repos/widget", 9), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 9, stats.TotalCommits)
	assert.Equal(t, 2, computes)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheComputeErrorNotStored(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "scan.json"), time.Hour)
	require.NoError(t, err)

	boom := errors.New("scan failed")
	_, _, err = cache.GetOrCompute("/repos/widget", "abc123", func() (gitscan.RepositoryStats, error) {
		return gitscan.RepositoryStats{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())
}

func TestCachePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")

	cache, err := Open(path, time.Hour)
	require.NoError(t, err)
	_, _, err = cache.GetOrCompute("/repos/widget", "abc123", func() (gitscan.RepositoryStats, error) {
		return testStats("/repos/widget", 12), nil
	})
	require.NoError(t, err)
	require.NoError(t, cache.Close())

	reopened, err := Open(path, time.Hour)
	require.NoError(t, err)
	stats, hit, err := reopened.GetOrCompute("/repos/widget", "abc123", func() (gitscan.RepositoryStats, error) {
		t.Fatal("compute should not run on a warm cache")
		return gitscan.RepositoryStats{}, nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 12, stats.TotalCommits)
}

func TestCacheToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cache, err := Open(path, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())

	_, _, err = cache.GetOrCompute("/repos/widget", "abc123", func() (gitscan.RepositoryStats, error) {
		return testStats("/repos/widget", 3), nil
	})
	require.NoError(t, err)
	require.NoError(t, cache.Flush())

	reopened, err := Open(path, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())
}

func TestFlushLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	cache, err := Open(filepath.Join(dir, "scan.json"), time.Hour)
	require.NoError(t, err)

	_, _, err = cache.GetOrCompute("/repos/widget", "abc123", func() (gitscan.RepositoryStats, error) {
		return testStats("/repos/widget", 3), nil
	})
	require.NoError(t, err)
	require.NoError(t, cache.Flush())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"scan.json"}, names)
}

func TestLockBlocksSecondAcquirer(t *testing.T) {
	lock := filepath.Join(t.TempDir(), "scan.json.lock")

	unlock, err := acquireLock(lock)
	require.NoError(t, err)

	_, err = acquireLock(lock)
	assert.Error(t, err)

	unlock()
	unlock2, err := acquireLock(lock)
	require.NoError(t, err)
	unlock2()
}

func TestLockReclaimsStaleFile(t *testing.T) {
	lock := filepath.Join(t.TempDir(), "scan.json.lock")
	require.NoError(t, os.WriteFile(lock, []byte("1\n"), 0o644))
	old := time.Now().Add(-10 * time.Minute)
	require.NoError(t, os.Chtimes(lock, old, old))

	unlock, err := acquireLock(lock)
	require.NoError(t, err)
	unlock()
}
