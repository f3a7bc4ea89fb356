package complexity

import "github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"

// #region config

// Config holds the adjustment gates.
type Config struct {
	RealTime            bool    // propose adjustments while the chain runs
	AdjustmentThreshold float64 // minimum |delta| in overall score
	StabilizationPeriod int     // quiet evaluations required between adjustments
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RealTime:            true,
		AdjustmentThreshold: 0.15,
		StabilizationPeriod: 2,
	}
}

// #endregion config

// #region weights

// Dimension weights for the overall score. They sum to 1.
const (
	WeightStructural = 0.20
	WeightLogical    = 0.25
	WeightDomain     = 0.20
	WeightTemporal   = 0.15
	WeightCognitive  = 0.20
)

// DomainWeights is the fixed domain difficulty table.
var DomainWeights = map[string]float64{
	"general":              0.3,
	"education":            0.4,
	"business":             0.5,
	"software-engineering": 0.7,
	"finance":              0.7,
	"science":              0.75,
	"mathematics":          0.8,
	"legal":                0.8,
	"medicine":             0.9,
}

// DomainWeight returns the table weight, 0.5 for unknown domains.
func DomainWeight(domain string) float64 {
	if w, ok := DomainWeights[domain]; ok {
		return w
	}
	return 0.5
}

// #endregion weights

// #region pattern

// Pattern is a recognisable problem shape that adds a fixed bonus.
type Pattern struct {
	Name     string
	Keywords []string
	Bonus    float64
	// MinConstraints also triggers the pattern when the context carries at
	// least this many constraints. Zero disables.
	MinConstraints int
}

// Patterns is the pattern library.
var Patterns = []Pattern{
	{Name: "recursive_problem", Keywords: []string{"recursive", "recursion", "self-similar", "nested", "fractal"}, Bonus: 0.15},
	{Name: "multi_constraint", Keywords: []string{"trade-off", "tradeoff", "competing", "balance", "constraints"}, Bonus: 0.1, MinConstraints: 3},
	{Name: "domain_crossing", Keywords: []string{"cross-domain", "interdisciplinary", "integrate", "multiple domains"}, Bonus: 0.1},
}

// #endregion pattern

// #region prediction

// Prediction is an extrapolated near-term complexity.
type Prediction struct {
	Level      reasoning.ComplexityLevel `json:"level"`
	Score      float64                   `json:"score"`
	Confidence float64                   `json:"confidence"`
	Factors    []string                  `json:"factors"`
}

// Alert kinds raised by Monitor.
const (
	AlertExtreme   = "extreme_complexity"
	AlertCognitive = "high_cognitive_load"
	AlertLongChain = "long_chain"
)

// Alert is one monitor finding. Kind is stable across passes; Message carries
// the current figures.
type Alert struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Report is the result of a monitoring pass. It never changes engine state.
type Report struct {
	Level           reasoning.ComplexityLevel `json:"level"`
	Alerts          []Alert                   `json:"alerts,omitempty"`
	Recommendations []string                  `json:"recommendations,omitempty"`
}

// #endregion prediction

// #region tier-tables

// Expected step counts, validation rules per step and time factors per level,
// indexed by Rank.
var (
	expectedSteps  = [5]int{3, 5, 7, 10, 15}
	rulesPerStep   = [5]int{1, 1, 2, 3, 4}
	timeFactors    = [5]float64{0.5, 0.75, 1, 1.5, 2.5}
	qualityPerRank = 0.05
)

// #endregion tier-tables
