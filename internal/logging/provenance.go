// Package logging writes engine decisions to the provenance_log table so a
// session can be audited after the fact.
package logging

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region log-decision
// LogDecision writes a provenance entry to the provenance_log table.
func LogDecision(db *sql.DB, entry ProvenanceEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO provenance_log (session_id, step_id, source, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		nullIfEmpty(entry.StepID),
		entry.Source,
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}
// #endregion log-decision

// #region list-decisions
// ListDecisions returns a session's provenance rows in insertion order.
func ListDecisions(db *sql.DB, sessionID string) ([]ProvenanceEntry, error) {
	rows, err := db.Query(
		`SELECT session_id, step_id, source, decision, reason, created_at
		 FROM provenance_log WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []ProvenanceEntry
	for rows.Next() {
		var e ProvenanceEntry
		var stepID, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.SessionID, &stepID, &e.Source, &e.Decision, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.StepID = stepID.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}
// #endregion list-decisions

// #region logger
// Logger adapts LogDecision to the chain's decision logger hook.
type Logger struct {
	db *sql.DB
}

// NewLogger writes to db, which must carry the provenance_log table.
func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// LogDecision records one engine decision.
func (l *Logger) LogDecision(d reasoning.Decision) error {
	return LogDecision(l.db, ProvenanceEntry{
		SessionID: d.SessionID,
		StepID:    d.StepID,
		Source:    d.Source,
		Decision:  d.Decision,
		Reason:    d.Reason,
		CreatedAt: d.CreatedAt,
	})
}
// #endregion logger

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
