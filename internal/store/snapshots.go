package store

import (
	"database/sql"
	"time"
)

// CreateSnapshot inserts a new snapshot and returns its ID.
func (db *DB) CreateSnapshot(command, version string) (int64, error) {
	result, err := db.conn.Exec(
		"INSERT INTO snapshots (taken_at, command, version) VALUES (?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339), command, version,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLatestSnapshot returns the most recent snapshot, or nil if none exist.
func (db *DB) GetLatestSnapshot() (*Snapshot, error) {
	row := db.conn.QueryRow("SELECT id, taken_at, command, version FROM snapshots ORDER BY id DESC LIMIT 1")
	return scanSnapshot(row)
}

// GetSnapshotN returns the Nth most recent snapshot (1 = latest, 2 = previous, etc.).
func (db *DB) GetSnapshotN(n int) (*Snapshot, error) {
	row := db.conn.QueryRow(
		"SELECT id, taken_at, command, version FROM snapshots ORDER BY id DESC LIMIT 1 OFFSET ?",
		n-1,
	)
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var s Snapshot
	var takenAt string
	err := row.Scan(&s.ID, &takenAt, &s.Command, &s.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
	return &s, nil
}

// InsertAssessment inserts a project assessment for a snapshot. Dimension
// scores of -1 are stored as NULL.
func (db *DB) InsertAssessment(a *AssessmentRow) error {
	_, err := db.conn.Exec(
		`INSERT INTO project_assessments
		(snapshot_id, project, project_path, session_count, matched_repo, match_score,
		 overall, level, percentile, single_source,
		 prompting, context, continuity, tooling, delivery,
		 strength, weakness, weights_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SnapshotID, a.Project, a.ProjectPath, a.SessionCount,
		nullString(a.MatchedRepo), a.MatchScore,
		a.Overall, a.Level, a.Percentile, a.SingleSource,
		nullScore(a.Prompting), nullScore(a.Context), nullScore(a.Continuity),
		nullScore(a.Tooling), nullScore(a.Delivery),
		a.Strength, a.Weakness, a.WeightsVersion,
	)
	return err
}

// GetAssessments returns all project assessments for a snapshot, ordered
// by overall score descending then project.
func (db *DB) GetAssessments(snapshotID int64) ([]AssessmentRow, error) {
	rows, err := db.conn.Query(
		`SELECT id, snapshot_id, project, project_path, session_count, matched_repo, match_score,
		 overall, level, percentile, single_source,
		 prompting, context, continuity, tooling, delivery,
		 strength, weakness, weights_version
		 FROM project_assessments WHERE snapshot_id = ?
		 ORDER BY overall DESC, project ASC`,
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []AssessmentRow
	for rows.Next() {
		var a AssessmentRow
		var repo sql.NullString
		var prompting, context, continuity, tooling, delivery sql.NullInt64
		if err := rows.Scan(
			&a.ID, &a.SnapshotID, &a.Project, &a.ProjectPath, &a.SessionCount,
			&repo, &a.MatchScore,
			&a.Overall, &a.Level, &a.Percentile, &a.SingleSource,
			&prompting, &context, &continuity, &tooling, &delivery,
			&a.Strength, &a.Weakness, &a.WeightsVersion,
		); err != nil {
			return nil, err
		}
		a.MatchedRepo = repo.String
		a.Prompting = scoreOf(prompting)
		a.Context = scoreOf(context)
		a.Continuity = scoreOf(continuity)
		a.Tooling = scoreOf(tooling)
		a.Delivery = scoreOf(delivery)
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertSourceError records one input problem for a snapshot.
func (db *DB) InsertSourceError(snapshotID int64, source, path, detail string) error {
	_, err := db.conn.Exec(
		"INSERT INTO source_errors (snapshot_id, source, path, detail) VALUES (?, ?, ?, ?)",
		snapshotID, source, path, detail,
	)
	return err
}

// GetSourceErrors returns the recorded input problems for a snapshot.
func (db *DB) GetSourceErrors(snapshotID int64) ([]SourceErrorRow, error) {
	rows, err := db.conn.Query(
		"SELECT id, snapshot_id, source, path, detail FROM source_errors WHERE snapshot_id = ? ORDER BY source, path",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []SourceErrorRow
	for rows.Next() {
		var e SourceErrorRow
		if err := rows.Scan(&e.ID, &e.SnapshotID, &e.Source, &e.Path, &e.Detail); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertRunMetric records one aggregate counter for a snapshot.
func (db *DB) InsertRunMetric(snapshotID int64, name string, value float64) error {
	_, err := db.conn.Exec(
		"INSERT INTO run_metrics (snapshot_id, metric_name, metric_value) VALUES (?, ?, ?)",
		snapshotID, name, value,
	)
	return err
}

// GetRunMetrics returns the aggregate counters for a snapshot.
func (db *DB) GetRunMetrics(snapshotID int64) ([]RunMetric, error) {
	rows, err := db.conn.Query(
		"SELECT id, snapshot_id, metric_name, metric_value FROM run_metrics WHERE snapshot_id = ? ORDER BY metric_name",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []RunMetric
	for rows.Next() {
		var m RunMetric
		if err := rows.Scan(&m.ID, &m.SnapshotID, &m.Name, &m.Value); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CompareSnapshots returns per-project overall score deltas between two
// snapshots, keyed on project ID. Projects present in only one snapshot
// are omitted.
func (db *DB) CompareSnapshots(beforeID, afterID int64) ([]AssessmentDelta, error) {
	rows, err := db.conn.Query(
		`SELECT b.project, b.overall, a.overall, b.level, a.level
		 FROM project_assessments b
		 JOIN project_assessments a ON a.project = b.project AND a.snapshot_id = ?
		 WHERE b.snapshot_id = ?
		 ORDER BY b.project`,
		afterID, beforeID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []AssessmentDelta
	for rows.Next() {
		var d AssessmentDelta
		if err := rows.Scan(&d.Project, &d.OverallBefore, &d.OverallAfter, &d.LevelBefore, &d.LevelAfter); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullScore(v int) any {
	if v < 0 {
		return nil
	}
	return v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scoreOf(v sql.NullInt64) int {
	if !v.Valid {
		return -1
	}
	return int(v.Int64)
}
