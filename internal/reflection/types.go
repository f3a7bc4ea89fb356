package reflection

import "github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"

// #region config

// Config holds reflection thresholds and bookkeeping limits.
type Config struct {
	QualityThreshold      float64 // overall score needed for a valid pass
	ConfidenceThreshold   float64 // weaknesses below this confidence cap at medium impact
	RestartScore          float64 // overall below this recommends restart
	MaxHighImpactInsights int     // more high-impact insights than this recommends restart
	MaxHistory            int
	EnableLearning        bool
	KnowledgeCapacity     int // LRU bound on the insight knowledge map
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		QualityThreshold:      0.7,
		ConfidenceThreshold:   0.6,
		RestartScore:          0.5,
		MaxHighImpactInsights: 2,
		MaxHistory:            50,
		EnableLearning:        true,
		KnowledgeCapacity:     128,
	}
}

// #endregion config

// #region criteria

// Evaluator scores one criterion over a window of executed steps.
// Implementations must be pure: same input, same result.
type Evaluator func(steps []reasoning.Step, rc *reasoning.Context) reasoning.CriterionResult

// Criterion is one weighted reflection dimension.
type Criterion struct {
	Name      string
	Weight    float64
	Threshold float64
	Evaluate  Evaluator
}

const (
	CriterionQuality      = "quality"
	CriterionConsistency  = "consistency"
	CriterionCompleteness = "completeness"
	CriterionEfficiency   = "efficiency"
	CriterionAccuracy     = "accuracy"
	CriterionInnovation   = "innovation"
)

// Criteria returns the six criteria in evaluation order. Weights sum to 1.
func Criteria() []Criterion {
	return []Criterion{
		{CriterionQuality, 0.25, 0.7, EvaluateQuality},
		{CriterionConsistency, 0.20, 0.8, EvaluateConsistency},
		{CriterionCompleteness, 0.20, 0.75, EvaluateCompleteness},
		{CriterionEfficiency, 0.15, 0.6, EvaluateEfficiency},
		{CriterionAccuracy, 0.15, 0.7, EvaluateAccuracy},
		{CriterionInnovation, 0.05, 0.3, EvaluateInnovation},
	}
}

// CriterionNames lists criterion names in evaluation order.
func CriterionNames() []string {
	cs := Criteria()
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

// #endregion criteria

// #region knowledge

// KnowledgeEntry is one actionable insight remembered across passes.
type KnowledgeEntry struct {
	Insight reasoning.Insight
	Seen    int
	LastSeq int // reflection sequence number that last produced it
}

// #endregion knowledge
