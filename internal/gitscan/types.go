// Package gitscan discovers git repositories under configured search roots
// and extracts per-commit change records by shelling out to git. Every
// invocation is bounded by a commit cap and a wall-clock timeout; a
// repository that cannot be scanned yields partial stats flagged with a
// reason instead of failing the run.
package gitscan

import "time"

// FileChange is one file touched by a commit. Binary files report no line
// counts; their delta is unknown, not zero.
type FileChange struct {
	Path      string `json:"path"`
	Language  string `json:"language,omitempty"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Binary    bool   `json:"binary,omitempty"`
}

// Commit is one revision-history entry. Immutable once parsed.
type Commit struct {
	Hash        string       `json:"hash"`
	AuthorName  string       `json:"author_name"`
	AuthorEmail string       `json:"author_email"`
	Timestamp   time.Time    `json:"timestamp"`
	Subject     string       `json:"subject"`
	Additions   int          `json:"additions"`
	Deletions   int          `json:"deletions"`
	Files       []FileChange `json:"files,omitempty"`
}

// RepositoryStats is the full scan result for one repository. It is handed
// by value to the cache and correlator; nothing mutates it after the scan.
type RepositoryStats struct {
	Path string `json:"path"`
	Name string `json:"name"`

	Commits        []Commit `json:"commits,omitempty"`
	TotalCommits   int      `json:"total_commits"`
	UserCommits    int      `json:"user_commits"`
	TotalAdditions int      `json:"total_additions"`
	TotalDeletions int      `json:"total_deletions"`

	FirstCommit time.Time `json:"first_commit,omitzero"`
	LastCommit  time.Time `json:"last_commit,omitzero"`

	// Languages maps language name to its weighted change count.
	Languages       map[string]float64 `json:"languages,omitempty"`
	PrimaryLanguage string             `json:"primary_language,omitempty"`

	// ScanError records why the stats are partial or empty ("timeout",
	// "oversized", "git: ..."). Empty means a complete scan.
	ScanError string `json:"scan_error,omitempty"`
	Partial   bool   `json:"partial,omitempty"`
}

// AttributionRatio is the fraction of commits matching the user's identity.
func (r *RepositoryStats) AttributionRatio() float64 {
	if r.TotalCommits == 0 {
		return 0
	}
	return float64(r.UserCommits) / float64(r.TotalCommits)
}

// ElapsedDays is the commit history's span in days, at least 1 when any
// commits exist.
func (r *RepositoryStats) ElapsedDays() int {
	if r.FirstCommit.IsZero() || r.LastCommit.IsZero() {
		return 0
	}
	days := int(r.LastCommit.Sub(r.FirstCommit).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}
