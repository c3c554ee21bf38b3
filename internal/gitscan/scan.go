package gitscan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// ScanOptions bounds a single-repository scan.
type ScanOptions struct {
	MaxCommits    int
	MaxRepoSizeMB int
	Timeout       time.Duration
}

// AnalyzeRepo scans one repository and aggregates its commit records into
// RepositoryStats. Timeout, oversize, and tool failures produce partial
// stats with a reason; the error return is reserved for context
// cancellation of the whole run.
func AnalyzeRepo(ctx context.Context, repoPath string, identifiers []string, opts ScanOptions) (RepositoryStats, error) {
	stats := RepositoryStats{
		Path: filepath.Clean(repoPath),
		Name: filepath.Base(filepath.Clean(repoPath)),
	}

	if sizeMB, exceeded := dirSizeMB(repoPath, opts.MaxRepoSizeMB); exceeded {
		stats.ScanError = fmt.Sprintf("oversized: >%d MB (limit %d)", sizeMB, opts.MaxRepoSizeMB)
		stats.Partial = true
		return stats, nil
	}

	scanCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	commits, err := LogCommits(scanCtx, repoPath, opts.MaxCommits)
	if err != nil {
		if ctx.Err() != nil {
			// The whole run was cancelled, not just this repository.
			return stats, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			stats.ScanError = "timeout"
		} else {
			stats.ScanError = err.Error()
		}
		stats.Partial = true
		return stats, nil
	}

	aggregate(&stats, commits, identifiers)
	return stats, nil
}

// aggregate folds commit records into the stats, skipping bot authors.
func aggregate(stats *RepositoryStats, commits []Commit, identifiers []string) {
	langs := make(map[string]float64)

	for _, c := range commits {
		if isAutomatedCommit(c) {
			continue
		}

		// Per-file changes are folded into the language map below and
		// then dropped; retained commits carry only their line totals.
		kept := c
		kept.Files = nil
		stats.Commits = append(stats.Commits, kept)
		stats.TotalCommits++
		stats.TotalAdditions += c.Additions
		stats.TotalDeletions += c.Deletions
		if IsUserCommit(c, identifiers) {
			stats.UserCommits++
		}

		if !c.Timestamp.IsZero() {
			if stats.FirstCommit.IsZero() || c.Timestamp.Before(stats.FirstCommit) {
				stats.FirstCommit = c.Timestamp
			}
			if c.Timestamp.After(stats.LastCommit) {
				stats.LastCommit = c.Timestamp
			}
		}

		for _, f := range c.Files {
			if f.Language != "" {
				langs[f.Language] += languageWeight(f.Language)
			}
		}
	}

	if len(langs) > 0 {
		stats.Languages = langs
		best := ""
		for lang, w := range langs {
			if best == "" || w > langs[best] || (w == langs[best] && lang < best) {
				best = lang
			}
		}
		stats.PrimaryLanguage = best
	}
}
