package state

import (
	"time"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region reflection-record
// ReflectionRecord is one persisted reflection pass.
type ReflectionRecord struct {
	ID        string
	SessionID string
	Session   reasoning.ReflectionSession
	CreatedAt time.Time
}
// #endregion reflection-record

// #region adjustment-record
// AdjustmentRecord is one persisted complexity adjustment.
type AdjustmentRecord struct {
	ID         int64
	SessionID  string
	Adjustment reasoning.ComplexityAdjustment
	CreatedAt  time.Time
}
// #endregion adjustment-record

// #region baseline
// Baseline is the decay-weighted complexity of completed sessions in a domain.
type Baseline struct {
	Domain     string
	Complexity float64
	Samples    int
}
// #endregion baseline
