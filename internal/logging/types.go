package logging

import "time"

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table.
type ProvenanceEntry struct {
	SessionID string
	StepID    string
	Source    string // "reflection" | "branching" | "complexity" | "chain"
	Decision  string
	Reason    string
	CreatedAt time.Time
}
// #endregion provenance-entry
