package store

// schemaSQL defines the SQLite schema for the snapshot index.
// Tables:
//   - requirements: requirement registry with declared design links as JSON arrays
//   - tests: test cases of every kind
//   - links: traceability matrix edges from a requirement to a linked entity
//   - executions: release execution records under their normalized bucket
//   - releases: release registry
//   - test_runs, run_results: test-execution export and its per-test statuses
//   - meta: import bookkeeping
const schemaSQL = `
CREATE TABLE IF NOT EXISTS requirements (
    id TEXT PRIMARY KEY,
    components TEXT NOT NULL DEFAULT '[]',
    interfaces TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS tests (
    kind TEXT NOT NULL,
    id TEXT NOT NULL,
    component_id TEXT,
    linked_to TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (kind, id)
);

CREATE TABLE IF NOT EXISTS links (
    requirement_id TEXT NOT NULL,
    relation TEXT NOT NULL,
    target_id TEXT NOT NULL,
    PRIMARY KEY (requirement_id, relation, target_id)
);

CREATE TABLE IF NOT EXISTS executions (
    release_id TEXT NOT NULL,
    bucket TEXT NOT NULL,
    seq INTEGER NOT NULL,
    test_id TEXT NOT NULL,
    status TEXT NOT NULL,
    executed_by TEXT,
    defects TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (release_id, bucket, seq)
);

CREATE TABLE IF NOT EXISTS releases (
    id TEXT PRIMARY KEY,
    name TEXT,
    date TEXT,
    components TEXT NOT NULL DEFAULT '[]',
    requirements TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS test_runs (
    key TEXT PRIMARY KEY,
    resolution_date TEXT,
    sw_bundle TEXT,
    leading_team TEXT NOT NULL DEFAULT '[]',
    test_activity TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS run_results (
    run_key TEXT NOT NULL,
    test_id TEXT NOT NULL,
    status TEXT NOT NULL,
    PRIMARY KEY (run_key, test_id)
);

CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_id);
CREATE INDEX IF NOT EXISTS idx_executions_test ON executions(test_id);
CREATE INDEX IF NOT EXISTS idx_run_results_test ON run_results(test_id);
`

// tables lists every data table in the order Import clears them.
var tables = []string{"requirements", "tests", "links", "executions", "releases", "test_runs", "run_results", "meta"}

// initSchema creates the database tables and indexes if they don't exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
