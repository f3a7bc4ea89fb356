package reflection

import (
	"fmt"
	"math"
	"strings"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// #region helpers

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// confidence grows with the amount of evidence in the window.
func confidence(n int) float64 {
	return clamp01(0.4 + 0.12*float64(n))
}

func ratio(steps []reasoning.Step, pred func(reasoning.Step) bool) float64 {
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

func empty(details string) reasoning.CriterionResult {
	return reasoning.CriterionResult{Score: 0.5, Confidence: 0, Details: details}
}

func hasRuleLike(s reasoning.Step, needles ...string) bool {
	for _, r := range s.ValidationRules {
		lr := strings.ToLower(r)
		for _, n := range needles {
			if strings.Contains(lr, n) {
				return true
			}
		}
	}
	return false
}

// #endregion helpers

// #region quality

// EvaluateQuality scores rule coverage, description detail and output specs.
func EvaluateQuality(steps []reasoning.Step, _ *reasoning.Context) reasoning.CriterionResult {
	if len(steps) == 0 {
		return empty("no steps to assess")
	}
	var sum float64
	bare, terse, unspecified := 0, 0, 0
	for _, s := range steps {
		score := math.Min(0.4, 0.2*float64(len(s.ValidationRules)))
		if len(s.ValidationRules) == 0 {
			bare++
		}
		if len(strings.TrimSpace(s.Description)) >= 20 {
			score += 0.3
		} else {
			terse++
		}
		if strings.TrimSpace(s.ExpectedOutput) != "" {
			score += 0.3
		} else {
			unspecified++
		}
		sum += score
	}

	res := reasoning.CriterionResult{
		Score:      clamp01(sum / float64(len(steps))),
		Confidence: confidence(len(steps)),
		Details:    fmt.Sprintf("%d steps assessed for rules, detail and output specs", len(steps)),
	}
	if bare > 0 {
		res.Evidence = append(res.Evidence, fmt.Sprintf("%d/%d steps have no validation rules", bare, len(steps)))
		res.Suggestions = append(res.Suggestions, "Add validation rules to steps that have none")
	}
	if terse > 0 {
		res.Evidence = append(res.Evidence, fmt.Sprintf("%d/%d step descriptions are under 20 characters", terse, len(steps)))
		res.Suggestions = append(res.Suggestions, "Describe each step in more detail")
	}
	if unspecified > 0 {
		res.Evidence = append(res.Evidence, fmt.Sprintf("%d/%d steps lack an expected output", unspecified, len(steps)))
	}
	return res
}

// #endregion quality

// #region consistency

// EvaluateConsistency scores dependency validity, order monotonicity and
// consistency rule coverage.
func EvaluateConsistency(steps []reasoning.Step, rc *reasoning.Context) reasoning.CriterionResult {
	if len(steps) == 0 {
		return empty("no steps to assess")
	}
	known := make(map[string]bool, len(rc.PreviousSteps)+len(steps))
	for _, s := range rc.PreviousSteps {
		known[s.ID] = true
	}

	total, valid := 0, 0
	monotonic := true
	for i, s := range steps {
		for _, d := range s.Dependencies {
			total++
			if known[d] {
				valid++
			}
		}
		known[s.ID] = true
		if i > 0 && s.Order <= steps[i-1].Order {
			monotonic = false
		}
	}
	depValidity := 1.0
	if total > 0 {
		depValidity = float64(valid) / float64(total)
	}
	ruleRatio := ratio(steps, func(s reasoning.Step) bool { return s.HasRule("consistency") })

	score := 0.5*depValidity + 0.2*ruleRatio
	if monotonic {
		score += 0.3
	}
	res := reasoning.CriterionResult{
		Score:      clamp01(score),
		Confidence: confidence(len(steps)),
		Details:    fmt.Sprintf("%d/%d dependencies resolve", valid, total),
	}
	if depValidity < 1 {
		res.Evidence = append(res.Evidence, fmt.Sprintf("%d dependencies point at unknown steps", total-valid))
		res.Suggestions = append(res.Suggestions, "Fix dependencies that reference steps not yet executed")
	}
	if !monotonic {
		res.Evidence = append(res.Evidence, "step order is not strictly increasing")
		res.Suggestions = append(res.Suggestions, "Re-sequence steps so order follows execution")
	}
	if ruleRatio < 0.5 {
		res.Suggestions = append(res.Suggestions, "Cross-reference conclusions between steps")
	}
	return res
}

// #endregion consistency

// #region completeness

// EvaluateCompleteness scores output specs, descriptions and completeness rules.
func EvaluateCompleteness(steps []reasoning.Step, _ *reasoning.Context) reasoning.CriterionResult {
	if len(steps) == 0 {
		return empty("no steps to assess")
	}
	outputs := ratio(steps, func(s reasoning.Step) bool { return strings.TrimSpace(s.ExpectedOutput) != "" })
	described := ratio(steps, func(s reasoning.Step) bool { return strings.TrimSpace(s.Description) != "" })
	rules := ratio(steps, func(s reasoning.Step) bool { return s.HasRule("completeness") })

	res := reasoning.CriterionResult{
		Score:      clamp01(0.5*outputs + 0.2*described + 0.3*rules),
		Confidence: confidence(len(steps)),
		Details:    fmt.Sprintf("outputs %.0f%%, descriptions %.0f%%, completeness rules %.0f%%", outputs*100, described*100, rules*100),
	}
	if outputs < 1 {
		res.Suggestions = append(res.Suggestions, "Specify an expected output for every step")
	}
	if rules < 0.5 {
		res.Suggestions = append(res.Suggestions, "Add completeness checks to key steps")
	}
	return res
}

// #endregion completeness

// #region efficiency

// EvaluateEfficiency compares chain length against a complexity-scaled bound
// and penalises repeated work.
func EvaluateEfficiency(steps []reasoning.Step, rc *reasoning.Context) reasoning.CriterionResult {
	if len(steps) == 0 {
		return empty("no steps to assess")
	}
	n := len(steps)
	if len(rc.PreviousSteps) > n {
		n = len(rc.PreviousSteps)
	}
	bound := 5 + rc.Complexity*10

	score := 1.0
	res := reasoning.CriterionResult{Confidence: confidence(len(steps))}
	if float64(n) > bound {
		score = bound / float64(n)
		res.Evidence = append(res.Evidence, fmt.Sprintf("%d steps exceed the reasonable bound of %.0f", n, bound))
		res.Suggestions = append(res.Suggestions, "Consolidate steps that cover the same ground")
	}

	seen := make(map[string]bool, len(steps))
	dups := 0
	for _, s := range steps {
		key := strings.ToLower(strings.TrimSpace(s.Description))
		if key == "" {
			continue
		}
		if seen[key] {
			dups++
		}
		seen[key] = true
	}
	if dups > 0 {
		score -= 0.5 * float64(dups) / float64(len(steps))
		res.Evidence = append(res.Evidence, fmt.Sprintf("%d duplicated step descriptions", dups))
		res.Suggestions = append(res.Suggestions, "Remove duplicated steps")
	}

	res.Score = clamp01(score)
	res.Details = fmt.Sprintf("%d steps against bound %.1f", n, bound)
	return res
}

// #endregion efficiency

// #region accuracy

// EvaluateAccuracy rewards verification and domain-specific rules.
func EvaluateAccuracy(steps []reasoning.Step, rc *reasoning.Context) reasoning.CriterionResult {
	if len(steps) == 0 {
		return empty("no steps to assess")
	}
	verified := ratio(steps, func(s reasoning.Step) bool {
		return hasRuleLike(s, "accuracy", "verif", "fact_check", "cross_validation")
	})
	domainNeedles := []string{"domain"}
	if rc.Domain != "" && rc.Domain != reasoning.DomainGeneral {
		domainNeedles = append(domainNeedles, strings.ToLower(rc.Domain))
	}
	domain := ratio(steps, func(s reasoning.Step) bool { return hasRuleLike(s, domainNeedles...) })

	res := reasoning.CriterionResult{
		Score:      clamp01(0.3 + 0.5*verified + 0.2*domain),
		Confidence: confidence(len(steps)),
		Details:    fmt.Sprintf("verification rules %.0f%%, domain rules %.0f%%", verified*100, domain*100),
	}
	if verified < 0.5 {
		res.Suggestions = append(res.Suggestions, "Add accuracy or verification rules")
	}
	if domain == 0 && rc.Domain != reasoning.DomainGeneral {
		res.Suggestions = append(res.Suggestions, fmt.Sprintf("Add %s-specific checks", rc.Domain))
	}
	return res
}

// #endregion accuracy

// #region innovation

var creativeMarkers = []string{
	"alternative", "novel", "creative", "innovative", "explore",
	"unconventional", "brainstorm", "hypothes", "what if", "reframe",
}

// EvaluateInnovation looks for creative-language markers in descriptions.
func EvaluateInnovation(steps []reasoning.Step, _ *reasoning.Context) reasoning.CriterionResult {
	if len(steps) == 0 {
		return empty("no steps to assess")
	}
	creative := ratio(steps, func(s reasoning.Step) bool {
		text := strings.ToLower(s.Description + " " + s.ExpectedOutput)
		for _, m := range creativeMarkers {
			if strings.Contains(text, m) {
				return true
			}
		}
		return false
	})
	res := reasoning.CriterionResult{
		Score:      clamp01(0.2 + 0.8*creative),
		Confidence: confidence(len(steps)) * 0.8,
		Details:    fmt.Sprintf("%.0f%% of steps explore alternatives", creative*100),
	}
	if creative == 0 {
		res.Suggestions = append(res.Suggestions, "Consider at least one alternative approach")
	}
	return res
}

// #endregion innovation
