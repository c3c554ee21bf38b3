package signals

import (
	"time"

	"github.com/calder-systems/devsight/internal/gitscan"
)

// Signal names for the commit-derived extractors.
const (
	SignalCadence     = "commit_cadence"
	SignalChurn       = "churn"
	SignalAttribution = "author_attribution"
	SignalRecency     = "recency"
	SignalDuration    = "project_duration"
	SignalVolume      = "commit_volume"
	SignalCommitSize  = "commit_size"
)

// Normalization constants: the activity level at which each commit signal
// saturates.
const (
	cadenceSaturation  = 5.0   // commits per elapsed day
	churnSaturation    = 50000 // added+deleted lines
	volumeSaturation   = 500   // total commits
	durationSaturation = 365   // elapsed days
	recencyWindowDays  = 30
	focusedCommitLines = 400   // max delta for a commit to count as focused
)

// FromRepository runs every commit extractor over one repository's stats.
// An empty repository contributes no signals.
func FromRepository(stats gitscan.RepositoryStats, now time.Time) Set {
	set := Set{}

	v, ok := Cadence(stats)
	set.Put(SignalCadence, v, ok, SourceCommits)
	v, ok = Churn(stats)
	set.Put(SignalChurn, v, ok, SourceCommits)
	v, ok = Attribution(stats)
	set.Put(SignalAttribution, v, ok, SourceCommits)
	v, ok = Recency(stats, now)
	set.Put(SignalRecency, v, ok, SourceCommits)
	v, ok = Duration(stats)
	set.Put(SignalDuration, v, ok, SourceCommits)
	v, ok = Volume(stats)
	set.Put(SignalVolume, v, ok, SourceCommits)
	v, ok = CommitSize(stats)
	set.Put(SignalCommitSize, v, ok, SourceCommits)

	return set
}

// Cadence is commits per elapsed day, saturating at cadenceSaturation.
func Cadence(stats gitscan.RepositoryStats) (float64, bool) {
	days := stats.ElapsedDays()
	if stats.TotalCommits == 0 || days == 0 {
		return 0, false
	}
	perDay := float64(stats.TotalCommits) / float64(days)
	return clamp01(perDay / cadenceSaturation), true
}

// Churn is total lines changed, saturating at churnSaturation. Binary
// changes carry no line counts and so do not move this signal.
func Churn(stats gitscan.RepositoryStats) (float64, bool) {
	if stats.TotalCommits == 0 {
		return 0, false
	}
	lines := stats.TotalAdditions + stats.TotalDeletions
	return clamp01(float64(lines) / churnSaturation), true
}

// Attribution is the matched-identity commit ratio.
func Attribution(stats gitscan.RepositoryStats) (float64, bool) {
	if stats.TotalCommits == 0 {
		return 0, false
	}
	return stats.AttributionRatio(), true
}

// Recency decays linearly from 1 at the last commit to 0 after
// recencyWindowDays.
func Recency(stats gitscan.RepositoryStats, now time.Time) (float64, bool) {
	if stats.LastCommit.IsZero() {
		return 0, false
	}
	days := now.Sub(stats.LastCommit).Hours() / 24
	if days < 0 {
		days = 0
	}
	return clamp01(1 - days/recencyWindowDays), true
}

// Duration rewards sustained projects, saturating at one year of history.
func Duration(stats gitscan.RepositoryStats) (float64, bool) {
	days := stats.ElapsedDays()
	if days == 0 {
		return 0, false
	}
	return clamp01(float64(days) / durationSaturation), true
}

// CommitSize is the share of commits whose line delta stays within the
// focused-commit bound. Commits with no line data (binary-only) count as
// focused; a repository with no retained commit records has no signal.
func CommitSize(stats gitscan.RepositoryStats) (float64, bool) {
	if len(stats.Commits) == 0 {
		return 0, false
	}
	focused := 0
	for _, c := range stats.Commits {
		if c.Additions+c.Deletions <= focusedCommitLines {
			focused++
		}
	}
	return float64(focused) / float64(len(stats.Commits)), true
}

// Volume is total commit count, saturating at volumeSaturation.
func Volume(stats gitscan.RepositoryStats) (float64, bool) {
	if stats.TotalCommits == 0 {
		return 0, false
	}
	return clamp01(float64(stats.TotalCommits) / volumeSaturation), true
}
