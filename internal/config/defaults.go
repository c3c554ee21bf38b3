// Package config provides configuration loading and defaults for devsight.
package config

import "time"

// DefaultScanPaths are the default directories searched for git repositories.
var DefaultScanPaths = []string{
	"~/code", "~/projects", "~/repos", "~/dev", "~/work", "~/src",
}

// DefaultLogHome is the default location of the assistant's local data
// directory (JSONL transcripts under projects/, task lists under todos/).
const DefaultLogHome = "~/.claude"

// DefaultConfigDir is the default location for devsight configuration.
const DefaultConfigDir = "~/.config/devsight"

// DefaultDBName is the filename for the snapshot history database.
const DefaultDBName = "devsight.db"

// DefaultCacheName is the filename for the repository scan cache.
const DefaultCacheName = "repo-cache.json"

// DefaultSkipDirs are directory names never descended into while
// searching for repositories.
var DefaultSkipDirs = []string{
	"node_modules", ".venv", "venv", "vendor", "dist", "build",
	"target", "__pycache__", "site-packages", ".cargo", ".npm",
	".cache", "Library",
}

// DefaultScanLimits holds the default repository scanner bounds.
var DefaultScanLimits = ScanLimits{
	MaxDepth:      4,
	MaxRepos:      100,
	MaxCommits:    5000,
	MaxRepoSizeMB: 500,
	RepoTimeout:   60 * time.Second,
	Workers:       4,
}

// DefaultCacheTTLHours is how long a cached repository scan stays valid
// even when the head revision has not changed.
const DefaultCacheTTLHours = 24

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}
