package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates all initial tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at TEXT NOT NULL,
			command  TEXT NOT NULL,
			version  TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS project_assessments (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id      INTEGER NOT NULL REFERENCES snapshots(id),
			project          TEXT NOT NULL,
			project_path     TEXT NOT NULL,
			session_count    INTEGER NOT NULL,
			matched_repo     TEXT,
			match_score      REAL,
			overall          INTEGER NOT NULL,
			level            TEXT NOT NULL,
			percentile       INTEGER NOT NULL,
			single_source    BOOLEAN NOT NULL,
			prompting        INTEGER,
			context          INTEGER,
			continuity       INTEGER,
			tooling          INTEGER,
			delivery         INTEGER,
			strength         TEXT,
			weakness         TEXT,
			weights_version  INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS source_errors (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id),
			source      TEXT NOT NULL,
			path        TEXT NOT NULL,
			detail      TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS run_metrics (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id  INTEGER NOT NULL REFERENCES snapshots(id),
			metric_name  TEXT NOT NULL,
			metric_value REAL NOT NULL
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_assessments_snapshot ON project_assessments(snapshot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_project ON project_assessments(project)`,
		`CREATE INDEX IF NOT EXISTS idx_source_errors_snapshot ON source_errors(snapshot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_run_metrics_snapshot ON run_metrics(snapshot_id)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
