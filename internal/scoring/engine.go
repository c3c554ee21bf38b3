// Package scoring combines extracted signals into per-dimension and
// overall proficiency scores. All combination weights live in weights.go
// as data; this file only evaluates convex combinations. Because every
// input signal is clamped to [0,1] and every combination is convex, every
// score here is bounded to [0,100] without further clamping. Rounding to
// integers happens exactly once, at the assessment boundary.
package scoring

import (
	"math"
	"sort"

	"github.com/calder-systems/devsight/internal/signals"
)

// Assessment is the scored view of one project. Built once and read-only
// thereafter.
type Assessment struct {
	DimensionScores map[string]int `json:"dimension_scores"`
	Overall         int            `json:"overall"`
	Level           string         `json:"level"`

	// Percentile is the project's rank among all assessed projects in the
	// same run, or -1 when fewer than two projects were assessed.
	Percentile int `json:"percentile"`

	Strength string `json:"strength"`
	Weakness string `json:"weakness"`

	// SingleSource is set when only one of the two sources produced
	// signals, in which case the overall score carries the penalty.
	SingleSource bool `json:"single_source"`

	WeightsVersion int `json:"weights_version"`
}

// Assess scores one project from its event-derived and commit-derived
// signal sets. Either set may be empty.
func Assess(events, commits signals.Set) Assessment {
	merged := make(signals.Set, len(events)+len(commits))
	for name, sc := range events {
		merged[name] = sc
	}
	for name, sc := range commits {
		merged[name] = sc
	}

	raw := make(map[string]float64, len(dimensions))
	for _, dim := range dimensions {
		if v, ok := evaluate(dim, merged); ok {
			raw[dim.Name] = v
		}
	}

	overall, single := combine(raw)

	a := Assessment{
		DimensionScores: make(map[string]int, len(raw)),
		Overall:         int(math.Round(overall * 100)),
		Percentile:      -1,
		SingleSource:    single,
		WeightsVersion:  WeightsVersion,
	}
	for name, v := range raw {
		a.DimensionScores[name] = int(math.Round(v * 100))
	}
	a.Level = levelFor(a.Overall)
	a.Strength, a.Weakness = extremes(a.DimensionScores)
	return a
}

// evaluate computes one dimension as a convex combination of its present
// components, renormalizing weights over whatever is present. A dimension
// with no present signals reports ok=false.
func evaluate(dim dimension, set signals.Set) (float64, bool) {
	var sum, weight float64
	for _, c := range dim.Components {
		v, ok := set.Value(c.Signal)
		if !ok {
			continue
		}
		if c.Inverted {
			v = 1 - v
		}
		sum += c.Weight * v
		weight += c.Weight
	}
	if weight == 0 {
		return 0, false
	}
	return sum / weight, true
}

// combine merges dimension values into the overall composite. Event
// dimensions are combined by overallWeights; delivery, when present, takes
// deliveryShare of the result. With only one source present the composite
// is scaled by the single-source penalty.
func combine(raw map[string]float64) (float64, bool) {
	var eventSum, eventWeight float64
	for name, w := range overallWeights {
		if v, ok := raw[name]; ok {
			eventSum += w * v
			eventWeight += w
		}
	}

	delivery, hasDelivery := raw[DimDelivery]
	hasEvents := eventWeight > 0

	switch {
	case hasEvents && hasDelivery:
		return (1-deliveryShare)*(eventSum/eventWeight) + deliveryShare*delivery, false
	case hasEvents:
		return (eventSum / eventWeight) * singleSourcePenalty, true
	case hasDelivery:
		return delivery * singleSourcePenalty, true
	default:
		return 0, false
	}
}

// extremes returns the best and worst scoring dimension names, breaking
// score ties lexicographically so output is stable run to run.
func extremes(scores map[string]int) (strength, weakness string) {
	if len(scores) == 0 {
		return "", ""
	}
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	strength, weakness = names[0], names[0]
	for _, name := range names[1:] {
		if scores[name] > scores[strength] {
			strength = name
		}
		if scores[name] < scores[weakness] {
			weakness = name
		}
	}
	return strength, weakness
}

// RankPercentiles fills in Percentile for a batch of assessments from the
// same run: the share of other projects with a strictly lower overall
// score. Fewer than two assessments leave percentiles unset.
func RankPercentiles(assessments []Assessment) {
	if len(assessments) < 2 {
		return
	}
	for i := range assessments {
		below := 0
		for j := range assessments {
			if j != i && assessments[j].Overall < assessments[i].Overall {
				below++
			}
		}
		assessments[i].Percentile = int(math.Round(float64(below) / float64(len(assessments)-1) * 100))
	}
}
