package eval

// #region eval-config
// EvalConfig holds thresholds for the post-run validation checks.
type EvalConfig struct {
	MinOutputCoverage float64 // share of steps that must declare an expected output
	MinRuleCoverage   float64 // share of steps that should carry validation rules
}

// DefaultEvalConfig returns sensible defaults.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MinOutputCoverage: 0.8,
		MinRuleCoverage:   0.5,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Pass   bool    `json:"pass"`
	Detail string  `json:"detail"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-run validation.
type EvalResult struct {
	Passed  bool         `json:"passed"`
	Metrics []EvalMetric `json:"metrics"`
	Reason  string       `json:"reason"`
}

// #endregion eval-result
