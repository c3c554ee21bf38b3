package store

import "time"

// Snapshot records one persisted analysis run.
type Snapshot struct {
	ID      int64
	TakenAt time.Time
	Command string
	Version string
}

// AssessmentRow is one project's scored assessment as stored. Dimension
// scores are -1 when the dimension had no signals in that run.
type AssessmentRow struct {
	ID          int64
	SnapshotID  int64
	Project     string
	ProjectPath string

	SessionCount int
	MatchedRepo  string
	MatchScore   float64

	Overall      int
	Level        string
	Percentile   int
	SingleSource bool

	Prompting  int
	Context    int
	Continuity int
	Tooling    int
	Delivery   int

	Strength string
	Weakness string

	WeightsVersion int
}

// SourceErrorRow is one recorded input problem from a run.
type SourceErrorRow struct {
	ID         int64
	SnapshotID int64
	Source     string
	Path       string
	Detail     string
}

// RunMetric is one aggregate counter from a run (sources read, repos
// scanned, cache hits, malformed lines).
type RunMetric struct {
	ID         int64
	SnapshotID int64
	Name       string
	Value      float64
}

// AssessmentDelta compares one project across two snapshots.
type AssessmentDelta struct {
	Project       string
	OverallBefore int
	OverallAfter  int
	LevelBefore   string
	LevelAfter    string
}

// Change is the overall score movement.
func (d AssessmentDelta) Change() int {
	return d.OverallAfter - d.OverallBefore
}
