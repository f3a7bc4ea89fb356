// Package state persists reasoning session history in SQLite: session
// summaries, reflection passes, complexity adjustments and the provenance log
// written by internal/logging.
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	problem       TEXT NOT NULL,
	domain        TEXT NOT NULL,
	state         TEXT NOT NULL,
	complexity    REAL NOT NULL,
	level         TEXT NOT NULL,
	step_count    INTEGER NOT NULL DEFAULT 0,
	error         TEXT,
	output_json   TEXT,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reflections (
	id             TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL,
	pass_id        TEXT NOT NULL,
	range_start    INTEGER NOT NULL,
	range_end      INTEGER NOT NULL,
	overall_score  REAL NOT NULL,
	is_valid       INTEGER NOT NULL,
	recommendation TEXT NOT NULL,
	session_json   TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS complexity_adjustments (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id      TEXT NOT NULL,
	from_level      TEXT NOT NULL,
	to_level        TEXT NOT NULL,
	adjustment_type TEXT NOT NULL,
	confidence      REAL NOT NULL,
	adjustment_json TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	step_id       TEXT,
	source        TEXT NOT NULL,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE INDEX IF NOT EXISTS idx_sessions_domain ON sessions(domain, state);
`
// #endregion schema

// baselineHalfLife weights recent sessions more when computing a baseline.
const baselineHalfLife = 7 * 24 * time.Hour

// #region store-struct
// Store manages reasoning history in SQLite. It satisfies the chain's
// Recorder interface.
type Store struct {
	db  *sql.DB
	now func() time.Time
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewStoreWithDB(db), nil
}

// NewStoreWithDB wraps an already migrated database.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates the schema on db. Used by tests and by callers that own
// the connection.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region sessions
// SaveSession inserts or updates a session summary. The first write fixes
// created_at; later writes move state, complexity and counts forward.
func (s *Store) SaveSession(rec reasoning.SessionRecord) error {
	now := s.now()
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, problem, domain, state, complexity, level, step_count, error, output_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			complexity = excluded.complexity,
			level = excluded.level,
			step_count = excluded.step_count,
			error = excluded.error,
			output_json = COALESCE(excluded.output_json, sessions.output_json),
			updated_at = excluded.updated_at`,
		rec.SessionID, rec.Problem, rec.Domain, rec.State, rec.Complexity, string(rec.Level),
		rec.StepCount, nullIfEmpty(rec.Error), nullIfEmpty(rec.OutputJSON),
		created.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.SessionID, err)
	}
	return nil
}

// SaveOutput attaches the serialised output to an existing session.
func (s *Store) SaveOutput(sessionID, outputJSON string) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET output_json = ?, updated_at = ? WHERE session_id = ?`,
		outputJSON, s.now().Format(time.RFC3339Nano), sessionID,
	)
	if err != nil {
		return fmt.Errorf("save output: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}

// GetSession retrieves one session summary by id.
func (s *Store) GetSession(id string) (reasoning.SessionRecord, error) {
	row := s.db.QueryRow(
		`SELECT session_id, problem, domain, state, complexity, level, step_count, error, output_json, created_at
		 FROM sessions WHERE session_id = ?`, id,
	)
	rec, err := scanSession(row)
	if err != nil {
		return reasoning.SessionRecord{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return rec, nil
}

// ListSessions returns the most recent sessions, newest first.
func (s *Store) ListSessions(limit int) ([]reasoning.SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, problem, domain, state, complexity, level, step_count, error, output_json, created_at
		 FROM sessions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []reasoning.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (reasoning.SessionRecord, error) {
	var rec reasoning.SessionRecord
	var level, createdStr string
	var errMsg, output sql.NullString
	if err := row.Scan(&rec.SessionID, &rec.Problem, &rec.Domain, &rec.State, &rec.Complexity,
		&level, &rec.StepCount, &errMsg, &output, &createdStr); err != nil {
		return reasoning.SessionRecord{}, err
	}
	rec.Level = reasoning.ComplexityLevel(level)
	rec.Error = errMsg.String
	rec.OutputJSON = output.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}
// #endregion sessions

// #region reflections
// SaveReflection persists one reflection pass with its full JSON payload.
func (s *Store) SaveReflection(sessionID string, rs reasoning.ReflectionSession) error {
	payload, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("marshal reflection: %w", err)
	}
	valid := 0
	if rs.IsValid {
		valid = 1
	}
	_, err = s.db.Exec(
		`INSERT INTO reflections (id, session_id, pass_id, range_start, range_end, overall_score, is_valid, recommendation, session_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), sessionID, rs.ID, rs.StepRange.Start, rs.StepRange.End,
		rs.OverallScore, valid, string(rs.Recommendation), string(payload),
		s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save reflection: %w", err)
	}
	return nil
}

// ListReflections returns a session's reflection passes in the order run.
func (s *Store) ListReflections(sessionID string) ([]ReflectionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, session_json, created_at
		 FROM reflections WHERE session_id = ? ORDER BY range_start`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	defer rows.Close()

	var out []ReflectionRecord
	for rows.Next() {
		var rec ReflectionRecord
		var payload, createdStr string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &payload, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Session); err != nil {
			return nil, fmt.Errorf("unmarshal reflection %s: %w", rec.ID, err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecommendationCounts tallies reflection recommendations. An empty
// sessionID counts across all sessions.
func (s *Store) RecommendationCounts(sessionID string) (map[reasoning.Recommendation]int, error) {
	query := `SELECT recommendation, COUNT(*) FROM reflections`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` GROUP BY recommendation`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("count recommendations: %w", err)
	}
	defer rows.Close()

	out := make(map[reasoning.Recommendation]int)
	for rows.Next() {
		var rec string
		var n int
		if err := rows.Scan(&rec, &n); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out[reasoning.Recommendation(rec)] = n
	}
	return out, rows.Err()
}
// #endregion reflections

// #region adjustments
// SaveAdjustment persists one complexity adjustment.
func (s *Store) SaveAdjustment(sessionID string, a reasoning.ComplexityAdjustment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal adjustment: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO complexity_adjustments (session_id, from_level, to_level, adjustment_type, confidence, adjustment_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, string(a.From), string(a.To), string(a.Type), a.Confidence, string(payload),
		s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save adjustment: %w", err)
	}
	return nil
}

// ListAdjustments returns a session's adjustments in the order made.
func (s *Store) ListAdjustments(sessionID string) ([]AdjustmentRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, adjustment_json, created_at
		 FROM complexity_adjustments WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()

	var out []AdjustmentRecord
	for rows.Next() {
		var rec AdjustmentRecord
		var payload, createdStr string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &payload, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Adjustment); err != nil {
			return nil, fmt.Errorf("unmarshal adjustment %d: %w", rec.ID, err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}
// #endregion adjustments

// #region baseline
// DomainBaseline returns the decay-weighted final complexity of completed
// sessions in domain. ok is false with fewer than 3 samples.
func (s *Store) DomainBaseline(domain string) (Baseline, bool, error) {
	rows, err := s.db.Query(
		`SELECT complexity, created_at FROM sessions WHERE domain = ? AND state = 'completed'`, domain,
	)
	if err != nil {
		return Baseline{}, false, fmt.Errorf("domain baseline: %w", err)
	}
	defer rows.Close()

	now := s.now()
	var weightedSum, totalWeight float64
	b := Baseline{Domain: domain}
	for rows.Next() {
		var c float64
		var createdStr string
		if err := rows.Scan(&c, &createdStr); err != nil {
			return Baseline{}, false, fmt.Errorf("scan row: %w", err)
		}
		created, err := time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			continue
		}
		w := math.Exp2(-now.Sub(created).Hours() / baselineHalfLife.Hours())
		weightedSum += c * w
		totalWeight += w
		b.Samples++
	}
	if err := rows.Err(); err != nil {
		return Baseline{}, false, err
	}
	if b.Samples < 3 || totalWeight == 0 {
		return b, false, nil
	}
	b.Complexity = weightedSum / totalWeight
	return b, true, nil
}
// #endregion baseline

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
