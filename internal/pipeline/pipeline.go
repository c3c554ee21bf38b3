// Package pipeline runs one full analysis pass: read logs, scan
// repositories, extract signals, correlate, and score. Everything here is
// stateless between runs; the scan cache is the only shared mutable state
// and it serializes its own writers.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calder-systems/devsight/internal/config"
	"github.com/calder-systems/devsight/internal/correlate"
	"github.com/calder-systems/devsight/internal/event"
	"github.com/calder-systems/devsight/internal/gitscan"
	"github.com/calder-systems/devsight/internal/logstream"
	"github.com/calder-systems/devsight/internal/repocache"
	"github.com/calder-systems/devsight/internal/scoring"
	"github.com/calder-systems/devsight/internal/signals"
)

// SourceError is one recorded problem with an input source. Errors never
// abort a run; they ride along in the report.
type SourceError struct {
	Source string `json:"source"`
	Path   string `json:"path"`
	Detail string `json:"detail"`
}

// ProjectReport is the scored view of one project, the unit the renderers
// and the store consume.
type ProjectReport struct {
	ProjectID string `json:"project_id"`
	Path      string `json:"path"`
	Name      string `json:"name"`
	Sessions  int    `json:"sessions"`

	MatchedRepo string  `json:"matched_repo,omitempty"`
	MatchScore  float64 `json:"match_score,omitempty"`

	Repo *gitscan.RepositoryStats `json:"repo,omitempty"`

	Assessment scoring.Assessment `json:"assessment"`
}

// Report is the outcome of one run.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`

	Projects       []ProjectReport `json:"projects"`
	UnmatchedRepos []string        `json:"unmatched_repos,omitempty"`
	Errors         []SourceError   `json:"errors,omitempty"`

	SourcesRead    int `json:"sources_read"`
	MalformedLines int `json:"malformed_lines"`
	ReposScanned   int `json:"repos_scanned"`
	CacheHits      int `json:"cache_hits"`
}

// Run executes a full analysis under cfg, using cache for repository
// scans. The cache may be nil, in which case every repository is scanned
// fresh.
func Run(ctx context.Context, cfg *config.Config, cache *repocache.Cache) (*Report, error) {
	report := &Report{GeneratedAt: time.Now()}

	events, err := readLogs(ctx, cfg, report)
	if err != nil {
		return nil, err
	}

	sessions := event.BuildSessions(events)
	projects := event.GroupProjects(sessions)

	// Sessions with no project identity, such as task files whose
	// transcript is gone, group under the empty ID. They cannot be
	// correlated or scored as a project. The empty ID sorts first.
	if len(projects) > 0 && projects[0].ID == "" {
		projects = projects[1:]
	}

	repos, err := scanRepos(ctx, cfg, cache, report)
	if err != nil {
		return nil, err
	}

	correlation := correlate.Correlate(projects, repos)
	report.UnmatchedRepos = correlation.UnmatchedRepos

	byPath := make(map[string]*gitscan.RepositoryStats, len(repos))
	for i := range repos {
		byPath[repos[i].Path] = &repos[i]
	}
	matched := make(map[string]correlate.Match, len(correlation.Matches))
	for _, m := range correlation.Matches {
		matched[m.ProjectID] = m
	}

	now := time.Now()
	for i := range projects {
		p := &projects[i]
		pr := ProjectReport{
			ProjectID: p.ID,
			Path:      p.Path,
			Name:      p.Name(),
			Sessions:  len(p.Sessions),
		}

		eventSet := signals.FromSessions(p.Sessions)
		var commitSet signals.Set
		if m, ok := matched[p.ID]; ok {
			pr.MatchedRepo = m.RepoPath
			pr.MatchScore = m.Score
			if stats := byPath[m.RepoPath]; stats != nil {
				commitSet = signals.FromRepository(*stats, now)
				// The report carries repository aggregates, not the
				// retained commit records.
				summary := *stats
				summary.Commits = nil
				pr.Repo = &summary
			}
		}

		pr.Assessment = scoring.Assess(eventSet, commitSet)
		report.Projects = append(report.Projects, pr)
	}

	rankAndSort(report)
	return report, nil
}

// readLogs discovers every JSONL source under the log home and reads them
// concurrently, returning the merged normalized events. Task snapshot
// files are folded in afterward so they attach to their sessions.
func readLogs(ctx context.Context, cfg *config.Config, report *Report) ([]event.Event, error) {
	sources, err := logstream.DiscoverSources(cfg.LogHome)
	if err != nil {
		report.Errors = append(report.Errors, SourceError{
			Source: "logs", Path: cfg.LogHome, Detail: err.Error(),
		})
		return nil, nil
	}

	var mu sync.Mutex
	var events []event.Event

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Scan.Workers)
	for _, src := range sources {
		src := src // per-iteration copy for pre-1.22 loop semantics
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var local []event.Event
			status := src.Each(func(rec logstream.Record) bool {
				local = append(local, event.Normalize(rec)...)
				return true
			})

			mu.Lock()
			defer mu.Unlock()
			events = append(events, local...)
			report.SourcesRead++
			report.MalformedLines += status.MalformedLines
			if status.Unavailable != "" {
				report.Errors = append(report.Errors, SourceError{
					Source: "logs", Path: status.Path, Detail: status.Unavailable,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tasks, err := event.LoadTaskSnapshots(cfg.LogHome)
	if err != nil {
		report.Errors = append(report.Errors, SourceError{
			Source: "tasks", Path: cfg.LogHome, Detail: err.Error(),
		})
	}
	return append(events, tasks...), nil
}

// scanRepos discovers repositories under the configured scan paths and
// analyzes them through a bounded worker pool, consulting the cache per
// repository head revision.
func scanRepos(ctx context.Context, cfg *config.Config, cache *repocache.Cache, report *Report) ([]gitscan.RepositoryStats, error) {
	paths := gitscan.DiscoverRepos(cfg.ScanPaths, gitscan.DiscoverOptions{
		MaxDepth: cfg.Scan.MaxDepth,
		MaxRepos: cfg.Scan.MaxRepos,
		SkipDirs: cfg.SkipDirs,
	})
	if len(paths) == 0 {
		return nil, nil
	}

	identifiers := gitscan.UserIdentifiers(ctx)
	opts := gitscan.ScanOptions{
		MaxCommits:    cfg.Scan.MaxCommits,
		MaxRepoSizeMB: cfg.Scan.MaxRepoSizeMB,
		Timeout:       cfg.Scan.RepoTimeout,
	}

	var mu sync.Mutex
	var repos []gitscan.RepositoryStats

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Scan.Workers)
	for _, path := range paths {
		path := path // per-iteration copy for pre-1.22 loop semantics
		g.Go(func() error {
			stats, hit, err := analyzeOne(ctx, path, identifiers, opts, cache)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				report.Errors = append(report.Errors, SourceError{
					Source: "repo", Path: path, Detail: err.Error(),
				})
				return nil
			}
			if hit {
				report.CacheHits++
			}
			if stats.ScanError != "" {
				report.Errors = append(report.Errors, SourceError{
					Source: "repo", Path: path, Detail: stats.ScanError,
				})
			}
			repos = append(repos, stats)
			report.ReposScanned++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].Path < repos[j].Path })
	return repos, nil
}

func analyzeOne(ctx context.Context, path string, identifiers []string, opts gitscan.ScanOptions, cache *repocache.Cache) (gitscan.RepositoryStats, bool, error) {
	compute := func() (gitscan.RepositoryStats, error) {
		return gitscan.AnalyzeRepo(ctx, path, identifiers, opts)
	}
	if cache == nil {
		stats, err := compute()
		return stats, false, err
	}
	head, err := gitscan.Head(ctx, path)
	if err != nil {
		// Unreadable head means the cache cannot validate; scan fresh.
		head = ""
	}
	return cache.GetOrCompute(path, head, compute)
}

// rankAndSort assigns percentiles and orders projects by overall score
// descending, then by ID for a stable report.
func rankAndSort(report *Report) {
	if len(report.Projects) > 1 {
		batch := make([]scoring.Assessment, len(report.Projects))
		for i := range report.Projects {
			batch[i] = report.Projects[i].Assessment
		}
		scoring.RankPercentiles(batch)
		for i := range report.Projects {
			report.Projects[i].Assessment = batch[i]
		}
	}

	sort.Slice(report.Projects, func(i, j int) bool {
		a, b := report.Projects[i], report.Projects[j]
		if a.Assessment.Overall != b.Assessment.Overall {
			return a.Assessment.Overall > b.Assessment.Overall
		}
		return a.ProjectID < b.ProjectID
	})
	sort.Slice(report.Errors, func(i, j int) bool {
		a, b := report.Errors[i], report.Errors[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Path < b.Path
	})
}
