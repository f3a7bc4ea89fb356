package reasoning

// #region level

// ComplexityLevel is one of five ordered buckets over a [0,1] score.
type ComplexityLevel string

const (
	LevelMinimal  ComplexityLevel = "minimal"
	LevelLow      ComplexityLevel = "low"
	LevelModerate ComplexityLevel = "moderate"
	LevelHigh     ComplexityLevel = "high"
	LevelExtreme  ComplexityLevel = "extreme"
)

// Levels lists every level in ascending order.
var Levels = []ComplexityLevel{LevelMinimal, LevelLow, LevelModerate, LevelHigh, LevelExtreme}

// Rank returns the level's position (0 = minimal), or -1 if unknown.
func (l ComplexityLevel) Rank() int {
	for i, v := range Levels {
		if v == l {
			return i
		}
	}
	return -1
}

// LevelForScore maps an overall score to its bucket.
func LevelForScore(score float64) ComplexityLevel {
	switch {
	case score < 0.2:
		return LevelMinimal
	case score < 0.4:
		return LevelLow
	case score < 0.6:
		return LevelModerate
	case score < 0.8:
		return LevelHigh
	default:
		return LevelExtreme
	}
}

// ScoreForLevel returns the midpoint of the level's bucket.
func ScoreForLevel(l ComplexityLevel) float64 {
	switch l {
	case LevelMinimal:
		return 0.1
	case LevelLow:
		return 0.3
	case LevelModerate:
		return 0.5
	case LevelHigh:
		return 0.7
	case LevelExtreme:
		return 0.9
	}
	return 0.5
}

// #endregion level

// #region metrics

// ComplexityMetrics holds the five dimensions and their weighted overall.
type ComplexityMetrics struct {
	Structural float64 `json:"structural"`
	Logical    float64 `json:"logical"`
	Domain     float64 `json:"domain"`
	Temporal   float64 `json:"temporal"`
	Cognitive  float64 `json:"cognitive"`
	Overall    float64 `json:"overall"`
}

// AdjustmentType is the direction of a complexity adjustment.
type AdjustmentType string

const (
	AdjustIncrease  AdjustmentType = "increase"
	AdjustDecrease  AdjustmentType = "decrease"
	AdjustStabilize AdjustmentType = "stabilize"
)

// AdjustmentImpact estimates what moving between levels costs.
type AdjustmentImpact struct {
	StepCountDelta  int     `json:"step_count_delta"`
	ValidationDelta int     `json:"validation_delta"`
	ResourceDelta   int     `json:"resource_delta"`
	TimeFactor      float64 `json:"time_factor"` // multiplier on expected time
	QualityDelta    float64 `json:"quality_delta"`
}

// ComplexityAdjustment is a proposed move from one level to another.
type ComplexityAdjustment struct {
	From       ComplexityLevel   `json:"from_level"`
	To         ComplexityLevel   `json:"to_level"`
	Type       AdjustmentType    `json:"adjustment_type"`
	Impact     AdjustmentImpact  `json:"impact"`
	Confidence float64           `json:"confidence"`
	Reason     string            `json:"reason"`
	Metrics    ComplexityMetrics `json:"metrics"`
	Patterns   []string          `json:"patterns,omitempty"`
}

// #endregion metrics
