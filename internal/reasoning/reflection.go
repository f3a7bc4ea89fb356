package reasoning

// #region recommendation

// Recommendation is the outcome of a reflection pass.
type Recommendation string

const (
	RecommendContinue Recommendation = "continue"
	RecommendAdjust   Recommendation = "adjust"
	RecommendRestart  Recommendation = "restart"
	RecommendStop     Recommendation = "stop"
)

// #endregion recommendation

// #region insight

// InsightType classifies a reflection insight.
type InsightType string

const (
	InsightStrength    InsightType = "strength"
	InsightWeakness    InsightType = "weakness"
	InsightOpportunity InsightType = "opportunity"
	InsightThreat      InsightType = "threat"
)

// Impact grades how much an insight matters.
type Impact string

const (
	ImpactLow      Impact = "low"
	ImpactMedium   Impact = "medium"
	ImpactHigh     Impact = "high"
	ImpactCritical Impact = "critical"
)

// Insight is one observation produced by a reflection pass.
type Insight struct {
	Type           InsightType `json:"type"`
	Criterion      string      `json:"criterion,omitempty"`
	Description    string      `json:"description"`
	Impact         Impact      `json:"impact"`
	Actionable     bool        `json:"actionable"`
	Recommendation string      `json:"recommendation"`
}

// #endregion insight

// #region criterion-result

// CriterionResult is one criterion's assessment, bounded to [0,1].
type CriterionResult struct {
	Score       float64  `json:"score"`
	Confidence  float64  `json:"confidence"`
	Details     string   `json:"details"`
	Evidence    []string `json:"evidence,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// #endregion criterion-result

// #region adjustments

// ReflectionAdjustments are the corrections a reflection pass asks for.
type ReflectionAdjustments struct {
	IncreaseValidation     bool   `json:"increase_validation,omitempty"`
	AdditionalReviewSteps  int    `json:"additional_review_steps,omitempty"`
	EnableCrossReferencing bool   `json:"enable_cross_referencing,omitempty"`
	RequireExpectedOutputs bool   `json:"require_expected_outputs,omitempty"`
	ConsolidateSteps       bool   `json:"consolidate_steps,omitempty"`
	StrengthenVerification bool   `json:"strengthen_verification,omitempty"`
	ExploreAlternatives    bool   `json:"explore_alternatives,omitempty"`
	DecomposeFurther       bool   `json:"decompose_further,omitempty"`
	ReasoningDepth         string `json:"reasoning_depth,omitempty"`
}

// #endregion adjustments

// #region session

// StepRange is the inclusive window of executed step positions a pass covered.
type StepRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ReflectionSession is one scored assessment pass.
type ReflectionSession struct {
	ID             string                     `json:"id"`
	StepRange      StepRange                  `json:"step_range"`
	OverallScore   float64                    `json:"overall_score"`
	IsValid        bool                       `json:"is_valid"`
	Criteria       map[string]CriterionResult `json:"criteria"`
	Insights       []Insight                  `json:"insights"`
	Adjustments    ReflectionAdjustments      `json:"adjustments"`
	Recommendation Recommendation             `json:"recommendation"`
}

// Suggestions collects every criterion suggestion in stable criterion order.
func (s ReflectionSession) Suggestions(order []string) []string {
	var out []string
	for _, name := range order {
		if c, ok := s.Criteria[name]; ok {
			out = append(out, c.Suggestions...)
		}
	}
	return out
}

// AverageConfidence returns the mean criterion confidence.
func (s ReflectionSession) AverageConfidence() float64 {
	if len(s.Criteria) == 0 {
		return 0
	}
	var sum float64
	for _, c := range s.Criteria {
		sum += c.Confidence
	}
	return sum / float64(len(s.Criteria))
}

// #endregion session
