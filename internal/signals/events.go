package signals

import (
	"strings"

	"github.com/calder-systems/devsight/internal/event"
)

// Signal names for the event-derived extractors.
const (
	SignalClarity       = "clarity"
	SignalSpecificity   = "specificity"
	SignalTechnique     = "technique"
	SignalIteration     = "iteration_efficiency"
	SignalGapRate       = "knowledge_gap_rate"
	SignalCompaction    = "compaction_rate"
	SignalCacheReuse    = "cache_reuse_ratio"
	SignalRedundancy    = "redundancy_rate"
	SignalContinuity    = "continuity_rate"
	SignalToolCompose   = "tool_composition_rate"
	SignalToolDiversity = "tool_diversity"
	SignalTaskComplete  = "task_completion_rate"
)

// FromSessions runs every event extractor over the sessions and returns
// the present signals. Extractors with no input contribute nothing.
func FromSessions(sessions []event.Session) Set {
	set := Set{}

	turns := userTexts(sessions)

	v, ok := GapRate(turns)
	set.Put(SignalGapRate, v, ok, SourceEvents)
	v, ok = Clarity(turns)
	set.Put(SignalClarity, v, ok, SourceEvents)
	v, ok = Specificity(turns)
	set.Put(SignalSpecificity, v, ok, SourceEvents)
	v, ok = Technique(turns)
	set.Put(SignalTechnique, v, ok, SourceEvents)
	v, ok = RedundancyRate(turns)
	set.Put(SignalRedundancy, v, ok, SourceEvents)
	v, ok = ContinuityRate(turns)
	set.Put(SignalContinuity, v, ok, SourceEvents)

	v, ok = IterationEfficiency(sessions)
	set.Put(SignalIteration, v, ok, SourceEvents)
	v, ok = CompactionRate(sessions)
	set.Put(SignalCompaction, v, ok, SourceEvents)
	v, ok = CacheReuseRatio(sessions)
	set.Put(SignalCacheReuse, v, ok, SourceEvents)
	v, ok = ToolCompositionRate(sessions)
	set.Put(SignalToolCompose, v, ok, SourceEvents)
	v, ok = ToolDiversity(sessions)
	set.Put(SignalToolDiversity, v, ok, SourceEvents)
	v, ok = TaskCompletionRate(sessions)
	set.Put(SignalTaskComplete, v, ok, SourceEvents)

	return set
}

// userTexts collects the lowercased text of every main-timeline user turn.
func userTexts(sessions []event.Session) []string {
	var texts []string
	for _, s := range sessions {
		for _, ev := range s.Events {
			if ev.Kind == event.KindUserTurn && ev.User != nil {
				if t := ev.User.Text(); t != "" {
					texts = append(texts, strings.ToLower(t))
				}
			}
		}
	}
	return texts
}

// GapRate is the fraction of user turns matching a knowledge-gap pattern.
// Adding matching turns while holding the rest fixed never decreases it.
func GapRate(turns []string) (float64, bool) {
	if len(turns) == 0 {
		return 0, false
	}
	gaps := 0
	for _, t := range turns {
		if matchesAny(t, gapPatterns) {
			gaps++
		}
	}
	return float64(gaps) / float64(len(turns)), true
}

// Clarity weighs structured phrasing against vague phrasing. A turn is
// expected to carry about three positive markers when fully explicit.
func Clarity(turns []string) (float64, bool) {
	if len(turns) == 0 {
		return 0, false
	}
	positive, negative := 0, 0
	for _, t := range turns {
		positive += countMatches(t, clarityPositive)
		if matchesAny(t, clarityNegative) {
			negative++
		}
	}
	n := float64(len(turns))
	posRatio := clamp01(float64(positive) / (n * 3))
	negRatio := clamp01(float64(negative) / n)
	return clamp01(0.7*posRatio + 0.3*(1-negRatio)), true
}

// Specificity measures concrete constraints per turn, expecting about two
// markers in a fully specific prompt.
func Specificity(turns []string) (float64, bool) {
	if len(turns) == 0 {
		return 0, false
	}
	matches := 0
	for _, t := range turns {
		matches += countMatches(t, specificityPatterns)
	}
	return clamp01(float64(matches) / (float64(len(turns)) * 2)), true
}

// Technique blends the diversity of advanced prompting techniques used
// with how consistently any technique appears.
func Technique(turns []string) (float64, bool) {
	if len(turns) == 0 {
		return 0, false
	}
	used := map[string]bool{}
	uses := 0
	for _, t := range turns {
		for name, table := range techniquePatterns {
			if matchesAny(t, table) {
				used[name] = true
				uses++
			}
		}
	}
	diversity := clamp01(float64(len(used)) / 4)
	frequency := clamp01(float64(uses) / float64(len(turns)))
	return 0.6*diversity + 0.4*frequency, true
}

// iterationBands maps average user turns per session to an efficiency
// value. Experienced users close tasks in a few turns.
var iterationBands = []struct {
	maxTurns float64
	value    float64
}{
	{3, 1.0},
	{5, 0.85},
	{7, 0.70},
	{10, 0.50},
	{15, 0.30},
}

// IterationEfficiency scores how few user turns sessions take.
func IterationEfficiency(sessions []event.Session) (float64, bool) {
	var counts []int
	for _, s := range sessions {
		if n := len(s.UserTurns()); n > 0 {
			counts = append(counts, n)
		}
	}
	if len(counts) == 0 {
		return 0, false
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	avg := float64(total) / float64(len(counts))
	for _, band := range iterationBands {
		if avg <= band.maxTurns {
			return band.value, true
		}
	}
	return 0.15, true
}

// CompactionRate is context summaries per session, normalized so one
// compaction per session saturates the signal. Zero sessions yield no
// signal, never a division error.
func CompactionRate(sessions []event.Session) (float64, bool) {
	if len(sessions) == 0 {
		return 0, false
	}
	summaries := 0
	for _, s := range sessions {
		for _, ev := range s.Events {
			if ev.Kind == event.KindContextSummary {
				summaries++
			}
		}
	}
	return clamp01(float64(summaries) / float64(len(sessions))), true
}

// CacheReuseRatio averages, across sessions that used any context tokens,
// the share of context that was reused rather than newly materialized.
// Sessions with zero context tokens are excluded from the average, not
// counted as zero.
func CacheReuseRatio(sessions []event.Session) (float64, bool) {
	var sum float64
	counted := 0
	for _, s := range sessions {
		total := s.Usage.CacheRead + s.Usage.CacheCreation
		if total == 0 {
			continue
		}
		sum += float64(s.Usage.CacheRead) / float64(total)
		counted++
	}
	if counted == 0 {
		return 0, false
	}
	return sum / float64(counted), true
}

// RedundancyRate is the fraction of user turns that re-explain context the
// assistant already holds. Inverted by the scoring weights; measured raw
// here.
func RedundancyRate(turns []string) (float64, bool) {
	if len(turns) == 0 {
		return 0, false
	}
	hits := 0
	for _, t := range turns {
		if matchesAny(t, redundancyPatterns) {
			hits++
		}
	}
	return float64(hits) / float64(len(turns)), true
}

// ContinuityRate is the fraction of user turns that reference prior shared
// context instead of restating it.
func ContinuityRate(turns []string) (float64, bool) {
	if len(turns) == 0 {
		return 0, false
	}
	hits := 0
	for _, t := range turns {
		if matchesAny(t, continuityPatterns) {
			hits++
		}
	}
	// Referencing prior work in half of all turns is already strong.
	return clamp01(2 * float64(hits) / float64(len(turns))), true
}

// ToolCompositionRate is the fraction of sessions whose timeline contains
// two or more distinct tool invocations in sequence. Side-thread
// invocations count: delegated work is composition too.
func ToolCompositionRate(sessions []event.Session) (float64, bool) {
	if len(sessions) == 0 {
		return 0, false
	}
	composed := 0
	for _, s := range sessions {
		if len(distinctTools(s)) >= 2 {
			composed++
		}
	}
	return float64(composed) / float64(len(sessions)), true
}

// ToolDiversity scores how many distinct tools appear across all sessions;
// five or more saturates the signal.
func ToolDiversity(sessions []event.Session) (float64, bool) {
	if len(sessions) == 0 {
		return 0, false
	}
	all := map[string]bool{}
	for _, s := range sessions {
		for name := range distinctTools(s) {
			all[name] = true
		}
	}
	return clamp01(float64(len(all)) / 5), true
}

func distinctTools(s event.Session) map[string]bool {
	tools := map[string]bool{}
	for _, ev := range s.Events {
		if ev.Kind == event.KindToolInvocation && ev.Tool != nil && ev.Tool.Name != "" {
			tools[ev.Tool.Name] = true
		}
	}
	for _, ev := range s.Side {
		if ev.Kind == event.KindToolInvocation && ev.Tool != nil && ev.Tool.Name != "" {
			tools[ev.Tool.Name] = true
		}
	}
	return tools
}

// TaskCompletionRate is completed task items over all task items across
// the latest snapshot of each session's task list. Sessions without task
// snapshots contribute nothing.
func TaskCompletionRate(sessions []event.Session) (float64, bool) {
	total, completed := 0, 0
	for _, s := range sessions {
		snap := latestSnapshot(s)
		if snap == nil {
			continue
		}
		for _, item := range snap.Items {
			total++
			if item.Status == event.TaskCompleted {
				completed++
			}
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(completed) / float64(total), true
}

func latestSnapshot(s event.Session) *event.TaskSnapshot {
	var last *event.TaskSnapshot
	for _, ev := range s.Events {
		if ev.Kind == event.KindTaskSnapshot && ev.Tasks != nil {
			last = ev.Tasks
		}
	}
	return last
}
