package gitscan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverOptions bounds the repository search.
type DiscoverOptions struct {
	MaxDepth int
	MaxRepos int
	SkipDirs []string
}

// DiscoverRepos walks each root to a bounded depth looking for directories
// containing .git/. Configured skip directories are never descended into,
// and discovery stops at the repo cap. Unreadable roots are skipped.
func DiscoverRepos(roots []string, opts DiscoverOptions) []string {
	skip := make(map[string]bool, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		skip[d] = true
	}

	var repos []string
	seen := make(map[string]bool)

	for _, root := range roots {
		root = filepath.Clean(root)
		if _, err := os.Stat(root); err != nil {
			continue
		}

		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if len(repos) >= opts.MaxRepos && opts.MaxRepos > 0 {
				return filepath.SkipAll
			}
			if !d.IsDir() {
				return nil
			}

			name := d.Name()
			if path != root {
				if skip[name] || (strings.HasPrefix(name, ".") && name != ".git") {
					return filepath.SkipDir
				}
				if depthBelow(root, path) > opts.MaxDepth && opts.MaxDepth > 0 {
					return filepath.SkipDir
				}
			}

			if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
				abs, aerr := filepath.Abs(path)
				if aerr != nil {
					abs = path
				}
				if !seen[abs] {
					seen[abs] = true
					repos = append(repos, abs)
				}
				// Nested repos (submodules, vendored checkouts) belong
				// to their parent.
				return filepath.SkipDir
			}
			return nil
		})
	}

	sort.Strings(repos)
	return repos
}

// depthBelow counts path separators between root and path.
func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// dirSizeMB sums file sizes under dir, giving up early once limitMB is
// exceeded. Used to refuse scanning oversized repositories.
func dirSizeMB(dir string, limitMB int) (sizeMB int, exceeded bool) {
	if limitMB <= 0 {
		return 0, false
	}
	limit := int64(limitMB) * 1024 * 1024
	var total int64

	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, ierr := d.Info(); ierr == nil {
			total += info.Size()
		}
		if total > limit {
			return filepath.SkipAll
		}
		return nil
	})

	return int(total / (1024 * 1024)), total > limit
}
