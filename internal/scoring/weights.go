package scoring

import "github.com/calder-systems/devsight/internal/signals"

// Dimension names as they appear in assessments and rendered output.
const (
	DimPrompting  = "prompting"
	DimContext    = "context"
	DimContinuity = "continuity"
	DimTooling    = "tooling"
	DimDelivery   = "delivery"
)

// Proficiency levels derived from the overall score.
const (
	LevelExpert       = "expert"
	LevelAdvanced     = "advanced"
	LevelIntermediate = "intermediate"
	LevelNovice       = "novice"
)

// component is one weighted signal inside a dimension. Inverted components
// contribute 1-value, so a high gap or redundancy rate pulls the dimension
// down.
type component struct {
	Signal   string
	Weight   float64
	Inverted bool
}

// dimension is a named convex combination over signals from one source.
type dimension struct {
	Name       string
	Source     signals.Source
	Components []component
}

// WeightsVersion identifies the weight tables below. Bump it whenever a
// weight changes so stored assessments remain comparable.
const WeightsVersion = 1

// dimensions is the full scoring model. Weights within each dimension sum
// to 1; missing signals are dropped and the rest renormalized.
var dimensions = []dimension{
	{
		Name:   DimPrompting,
		Source: signals.SourceEvents,
		Components: []component{
			{Signal: signals.SignalClarity, Weight: 0.25},
			{Signal: signals.SignalSpecificity, Weight: 0.25},
			{Signal: signals.SignalTechnique, Weight: 0.20},
			{Signal: signals.SignalIteration, Weight: 0.20},
			{Signal: signals.SignalGapRate, Weight: 0.10, Inverted: true},
		},
	},
	{
		Name:   DimContext,
		Source: signals.SourceEvents,
		Components: []component{
			{Signal: signals.SignalCacheReuse, Weight: 0.40},
			{Signal: signals.SignalCompaction, Weight: 0.35},
			{Signal: signals.SignalIteration, Weight: 0.25},
		},
	},
	{
		Name:   DimContinuity,
		Source: signals.SourceEvents,
		Components: []component{
			{Signal: signals.SignalRedundancy, Weight: 0.50, Inverted: true},
			{Signal: signals.SignalContinuity, Weight: 0.50},
		},
	},
	{
		Name:   DimTooling,
		Source: signals.SourceEvents,
		Components: []component{
			{Signal: signals.SignalToolCompose, Weight: 0.40},
			{Signal: signals.SignalToolDiversity, Weight: 0.30},
			{Signal: signals.SignalTaskComplete, Weight: 0.30},
		},
	},
	{
		Name:   DimDelivery,
		Source: signals.SourceCommits,
		Components: []component{
			{Signal: signals.SignalCadence, Weight: 0.25},
			{Signal: signals.SignalChurn, Weight: 0.30},
			{Signal: signals.SignalRecency, Weight: 0.25},
			{Signal: signals.SignalAttribution, Weight: 0.20},
		},
	},
}

// overallWeights combines the event-side dimensions into one composite.
var overallWeights = map[string]float64{
	DimPrompting:  0.30,
	DimContext:    0.25,
	DimContinuity: 0.20,
	DimTooling:    0.25,
}

// deliveryShare is the weight of the delivery dimension in the overall
// score when both sources contributed.
const deliveryShare = 0.30

// singleSourcePenalty scales the overall score when only one of the two
// sources (events, commits) produced signals.
const singleSourcePenalty = 0.85

// levelFor maps an overall score to a proficiency level.
func levelFor(overall int) string {
	switch {
	case overall >= 80:
		return LevelExpert
	case overall >= 65:
		return LevelAdvanced
	case overall >= 45:
		return LevelIntermediate
	default:
		return LevelNovice
	}
}
