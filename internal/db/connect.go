package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures the schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:scoring.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/scoring?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS assessments (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  subject TEXT NOT NULL,
  version TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  answers_json TEXT,
  scoring_result_json TEXT,            -- written exactly once, NULL until scored
  global_score REAL,
  ssn REAL,
  band TEXT,
  percentile INTEGER,
  created_at INTEGER NOT NULL,
  submitted_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_assessments_cohort ON assessments (subject, version, status);
CREATE INDEX IF NOT EXISTS idx_assessments_student ON assessments (student_id);

CREATE TABLE IF NOT EXISTS composites (
  student_id TEXT PRIMARY KEY,
  value REAL NOT NULL,
  subject_count INTEGER NOT NULL,
  components_json TEXT NOT NULL,
  computed_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS progression_history (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  ssn REAL NOT NULL,
  recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  typ TEXT NOT NULL,                          -- e.g. AssessmentScored
  key TEXT NOT NULL,                          -- natural key: assessment/cohort id
  data TEXT NOT NULL,                         -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS assessments (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  subject TEXT NOT NULL,
  version TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  answers_json TEXT,
  scoring_result_json TEXT,
  global_score DOUBLE PRECISION,
  ssn DOUBLE PRECISION,
  band TEXT,
  percentile INTEGER,
  created_at BIGINT NOT NULL,
  submitted_at BIGINT
);

CREATE INDEX IF NOT EXISTS idx_assessments_cohort ON assessments (subject, version, status);
CREATE INDEX IF NOT EXISTS idx_assessments_student ON assessments (student_id);

CREATE TABLE IF NOT EXISTS composites (
  student_id TEXT PRIMARY KEY,
  value DOUBLE PRECISION NOT NULL,
  subject_count INTEGER NOT NULL,
  components_json TEXT NOT NULL,
  computed_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS progression_history (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  ssn DOUBLE PRECISION NOT NULL,
  recorded_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
