package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-systems/devsight/internal/signals"
)

func eventSet(values map[string]float64) signals.Set {
	set := make(signals.Set)
	for name, v := range values {
		set.Put(name, v, true, signals.SourceEvents)
	}
	return set
}

func commitSet(values map[string]float64) signals.Set {
	set := make(signals.Set)
	for name, v := range values {
		set.Put(name, v, true, signals.SourceCommits)
	}
	return set
}

func TestDimensionWeightsSumToOne(t *testing.T) {
	for _, dim := range dimensions {
		total := 0.0
		for _, c := range dim.Components {
			total += c.Weight
		}
		assert.InDelta(t, 1.0, total, 1e-9, "dimension %s", dim.Name)
	}
	total := 0.0
	for _, w := range overallWeights {
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-9, "overall weights")
}

func TestAssessBoundedForArbitraryInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	names := []string{
		signals.SignalClarity, signals.SignalSpecificity, signals.SignalTechnique,
		signals.SignalIteration, signals.SignalGapRate, signals.SignalCacheReuse,
		signals.SignalCompaction, signals.SignalRedundancy, signals.SignalContinuity,
		signals.SignalToolCompose, signals.SignalToolDiversity, signals.SignalTaskComplete,
		signals.SignalCadence, signals.SignalChurn, signals.SignalRecency,
		signals.SignalAttribution,
	}

	for trial := 0; trial < 200; trial++ {
		events := make(signals.Set)
		commits := make(signals.Set)
		for _, name := range names {
			if rng.Intn(3) == 0 {
				continue
			}
			// Deliberately out-of-range raw values; Put clamps them.
			v := rng.Float64()*4 - 2
			switch name {
			case signals.SignalCadence, signals.SignalChurn, signals.SignalRecency, signals.SignalAttribution:
				commits.Put(name, v, true, signals.SourceCommits)
			default:
				events.Put(name, v, true, signals.SourceEvents)
			}
		}

		a := Assess(events, commits)
		assert.GreaterOrEqual(t, a.Overall, 0)
		assert.LessOrEqual(t, a.Overall, 100)
		for name, score := range a.DimensionScores {
			assert.GreaterOrEqual(t, score, 0, name)
			assert.LessOrEqual(t, score, 100, name)
		}
	}
}

func TestGapRateLowersPromptingScore(t *testing.T) {
	base := map[string]float64{
		signals.SignalClarity:     0.8,
		signals.SignalSpecificity: 0.7,
		signals.SignalTechnique:   0.6,
		signals.SignalIteration:   0.9,
		signals.SignalGapRate:     0.0,
	}
	clean := Assess(eventSet(base), nil)

	base[signals.SignalGapRate] = 0.3
	gappy := Assess(eventSet(base), nil)

	assert.Less(t, gappy.DimensionScores[DimPrompting], clean.DimensionScores[DimPrompting])
	assert.Less(t, gappy.Overall, clean.Overall)
}

func TestSingleSourcePenalty(t *testing.T) {
	events := eventSet(map[string]float64{
		signals.SignalClarity:       1.0,
		signals.SignalSpecificity:   1.0,
		signals.SignalTechnique:     1.0,
		signals.SignalIteration:     1.0,
		signals.SignalGapRate:       0.0,
		signals.SignalCacheReuse:    1.0,
		signals.SignalCompaction:    1.0,
		signals.SignalRedundancy:    0.0,
		signals.SignalContinuity:    1.0,
		signals.SignalToolCompose:   1.0,
		signals.SignalToolDiversity: 1.0,
		signals.SignalTaskComplete:  1.0,
	})

	only := Assess(events, nil)
	assert.True(t, only.SingleSource)
	assert.Equal(t, 85, only.Overall)

	both := Assess(events, commitSet(map[string]float64{
		signals.SignalCadence:     1.0,
		signals.SignalChurn:       1.0,
		signals.SignalRecency:     1.0,
		signals.SignalAttribution: 1.0,
	}))
	assert.False(t, both.SingleSource)
	assert.Equal(t, 100, both.Overall)
}

func TestCommitsOnlyAssessment(t *testing.T) {
	a := Assess(nil, commitSet(map[string]float64{
		signals.SignalCadence:     0.5,
		signals.SignalChurn:       0.5,
		signals.SignalRecency:     0.5,
		signals.SignalAttribution: 0.5,
	}))
	assert.True(t, a.SingleSource)
	assert.Equal(t, 43, a.Overall) // 0.5 * 0.85 rounded
	assert.Equal(t, LevelNovice, a.Level)
}

func TestMissingSignalsRenormalized(t *testing.T) {
	// Only clarity present: prompting equals clarity exactly.
	a := Assess(eventSet(map[string]float64{signals.SignalClarity: 0.6}), nil)
	assert.Equal(t, 60, a.DimensionScores[DimPrompting])
	_, ok := a.DimensionScores[DimTooling]
	assert.False(t, ok)
}

func TestEmptyInputs(t *testing.T) {
	a := Assess(nil, nil)
	assert.Equal(t, 0, a.Overall)
	assert.Empty(t, a.DimensionScores)
	assert.Equal(t, LevelNovice, a.Level)
	assert.Empty(t, a.Strength)
}

func TestLevels(t *testing.T) {
	assert.Equal(t, LevelExpert, levelFor(80))
	assert.Equal(t, LevelAdvanced, levelFor(79))
	assert.Equal(t, LevelAdvanced, levelFor(65))
	assert.Equal(t, LevelIntermediate, levelFor(64))
	assert.Equal(t, LevelIntermediate, levelFor(45))
	assert.Equal(t, LevelNovice, levelFor(44))
}

func TestStrengthWeaknessStableTieBreak(t *testing.T) {
	a := Assess(eventSet(map[string]float64{
		signals.SignalClarity:    0.5,
		signals.SignalCacheReuse: 0.5,
		signals.SignalIteration:  0.5,
	}), nil)
	// prompting and context tie; lexicographic order picks context first.
	require.Equal(t, a.DimensionScores[DimPrompting], a.DimensionScores[DimContext])
	assert.Equal(t, DimContext, a.Strength)
	assert.Equal(t, DimContext, a.Weakness)
}

func TestRankPercentiles(t *testing.T) {
	batch := []Assessment{
		{Overall: 90, Percentile: -1},
		{Overall: 50, Percentile: -1},
		{Overall: 70, Percentile: -1},
	}
	RankPercentiles(batch)
	assert.Equal(t, 100, batch[0].Percentile)
	assert.Equal(t, 0, batch[1].Percentile)
	assert.Equal(t, 50, batch[2].Percentile)

	single := []Assessment{{Overall: 90, Percentile: -1}}
	RankPercentiles(single)
	assert.Equal(t, -1, single[0].Percentile)
}
