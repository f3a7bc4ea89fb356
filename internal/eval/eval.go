package eval

import (
	"fmt"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region eval-harness
// EvalHarness runs the fixed logical / completeness / consistency checks over
// the executed steps of a finished chain.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run validates executed steps. The three blocking checks always appear in
// the same order; rule coverage is informational.
func (h *EvalHarness) Run(steps []reasoning.Step) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	check := func(m EvalMetric) {
		metrics = append(metrics, m)
		if !m.Pass {
			failReasons = append(failReasons, m.Detail)
		}
	}

	// 1. Logical: every dependency ran before its dependent
	check(logical(steps))

	// 2. Completeness: enough steps declare what they produce
	outputs := coverage(steps, func(s reasoning.Step) bool { return s.ExpectedOutput != "" })
	check(EvalMetric{
		Name:   "completeness",
		Value:  outputs,
		Pass:   len(steps) > 0 && outputs >= h.config.MinOutputCoverage,
		Detail: fmt.Sprintf("%.0f%% of steps declare an expected output (min %.0f%%)", outputs*100, h.config.MinOutputCoverage*100),
	})

	// 3. Consistency: unique ids, strictly increasing order
	check(consistency(steps))

	// 4. Rule coverage: informational only, does not fail
	rules := coverage(steps, func(s reasoning.Step) bool { return len(s.ValidationRules) > 0 })
	metrics = append(metrics, EvalMetric{
		Name:   "rule_coverage",
		Value:  rules,
		Pass:   rules >= h.config.MinRuleCoverage,
		Detail: fmt.Sprintf("%.0f%% of steps carry validation rules", rules*100),
	})

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region checks
func logical(steps []reasoning.Step) EvalMetric {
	seen := make(map[string]bool, len(steps))
	total, ok := 0, 0
	var firstBad string
	for _, s := range steps {
		for _, d := range s.Dependencies {
			total++
			if seen[d] {
				ok++
			} else if firstBad == "" {
				firstBad = fmt.Sprintf("%s depends on %s before it ran", s.ID, d)
			}
		}
		seen[s.ID] = true
	}
	value := 1.0
	if total > 0 {
		value = float64(ok) / float64(total)
	}
	detail := fmt.Sprintf("%d/%d dependencies satisfied in order", ok, total)
	if firstBad != "" {
		detail = firstBad
	}
	return EvalMetric{Name: "logical", Value: value, Pass: ok == total, Detail: detail}
}

func consistency(steps []reasoning.Step) EvalMetric {
	ids := make(map[string]bool, len(steps))
	for i, s := range steps {
		if ids[s.ID] {
			return EvalMetric{Name: "consistency", Value: 0, Detail: fmt.Sprintf("step %s executed twice", s.ID)}
		}
		ids[s.ID] = true
		if i > 0 && s.Order <= steps[i-1].Order {
			return EvalMetric{Name: "consistency", Value: 0, Detail: fmt.Sprintf("step %s order %.2f does not follow %.2f", s.ID, s.Order, steps[i-1].Order)}
		}
	}
	return EvalMetric{Name: "consistency", Value: 1, Pass: true, Detail: fmt.Sprintf("%d steps in strictly increasing order", len(steps))}
}

// #endregion checks

// #region helpers
func coverage(steps []reasoning.Step, pred func(reasoning.Step) bool) float64 {
	if len(steps) == 0 {
		return 0
	}
	n := 0
	for _, s := range steps {
		if pred(s) {
			n++
		}
	}
	return float64(n) / float64(len(steps))
}

// #endregion helpers
