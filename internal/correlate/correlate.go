// Package correlate matches discovered git repositories to projects
// derived from conversation logs. Matching is greedy and injective: a
// repository joins at most one project per run and vice versa; everything
// unmatched is retained for independent, down-weighted scoring.
package correlate

import (
	"sort"
	"strings"
	"time"

	"github.com/calder-systems/devsight/internal/event"
	"github.com/calder-systems/devsight/internal/gitscan"
)

// partialWeight caps what a name-containment match can score, keeping it
// strictly below a canonical-path match.
const partialWeight = 0.8

// Match binds one repository to one project.
type Match struct {
	ProjectID string  `json:"project_id"`
	RepoPath  string  `json:"repo_path"`
	Score     float64 `json:"score"`
}

// Result is the full correlation outcome for one run.
type Result struct {
	Matches          []Match  `json:"matches"`
	UnmatchedRepos   []string `json:"unmatched_repos,omitempty"`
	UnmatchedProjects []string `json:"unmatched_projects,omitempty"`
}

// candidate is one scored project/repository pairing under consideration.
type candidate struct {
	projectID string
	repoPath  string
	score     float64
	overlap   time.Time
}

// Correlate scores every repository against every project and assigns
// pairs greedily by descending score. Ties break by most recent activity
// overlap, then lexicographically by project ID and repository path, so
// the assignment is deterministic.
func Correlate(projects []event.Project, repos []gitscan.RepositoryStats) Result {
	var candidates []candidate
	for _, p := range projects {
		for _, r := range repos {
			score := matchScore(p, r)
			if score == 0 {
				continue
			}
			candidates = append(candidates, candidate{
				projectID: p.ID,
				repoPath:  r.Path,
				score:     score,
				overlap:   overlapRecency(p, r),
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.overlap.Equal(b.overlap) {
			return a.overlap.After(b.overlap)
		}
		if a.projectID != b.projectID {
			return a.projectID < b.projectID
		}
		return a.repoPath < b.repoPath
	})

	usedProject := make(map[string]bool)
	usedRepo := make(map[string]bool)

	var result Result
	for _, c := range candidates {
		if usedProject[c.projectID] || usedRepo[c.repoPath] {
			continue
		}
		usedProject[c.projectID] = true
		usedRepo[c.repoPath] = true
		result.Matches = append(result.Matches, Match{
			ProjectID: c.projectID,
			RepoPath:  c.repoPath,
			Score:     c.score,
		})
	}

	for _, r := range repos {
		if !usedRepo[r.Path] {
			result.UnmatchedRepos = append(result.UnmatchedRepos, r.Path)
		}
	}
	for _, p := range projects {
		if !usedProject[p.ID] {
			result.UnmatchedProjects = append(result.UnmatchedProjects, p.ID)
		}
	}
	sort.Strings(result.UnmatchedRepos)
	sort.Strings(result.UnmatchedProjects)

	return result
}

// matchScore is 1.0 for canonical-path equality, a partial score for
// normalized name containment, and 0 otherwise.
func matchScore(p event.Project, r gitscan.RepositoryStats) float64 {
	if p.ID != "" && p.ID == event.CanonicalProjectID(r.Path) {
		return 1.0
	}

	pn := normalizeName(p.Name())
	rn := normalizeName(r.Name)
	if pn == "" || rn == "" {
		return 0
	}
	if pn == rn {
		return partialWeight
	}
	if strings.Contains(pn, rn) || strings.Contains(rn, pn) {
		shorter, longer := len(pn), len(rn)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return partialWeight * float64(shorter) / float64(longer)
	}
	return 0
}

// normalizeName lowercases and collapses punctuation so "my_app", "My-App"
// and "my app" compare equal.
func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '_', ' ', '.':
			return '-'
		}
		return r
	}, name)
	return strings.Trim(name, "-")
}

// overlapRecency is the later bound of the shared activity window: how
// recently both sources were active together. The zero time means no
// overlap.
func overlapRecency(p event.Project, r gitscan.RepositoryStats) time.Time {
	pStart, pEnd := p.FirstActivity(), p.LastActivity()
	if pEnd.IsZero() || r.LastCommit.IsZero() {
		return time.Time{}
	}
	start := pStart
	if r.FirstCommit.After(start) {
		start = r.FirstCommit
	}
	end := pEnd
	if r.LastCommit.Before(end) {
		end = r.LastCommit
	}
	if end.Before(start) {
		return time.Time{}
	}
	return end
}
